package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/kirana-pos/api/internal/domain"
	"github.com/kirana-pos/api/internal/productcode"
	"github.com/kirana-pos/api/internal/repositories"
)

const (
	codeEventSynced    = "code.synced"
	codeEventGenerated = "code.generated"
)

var (
	// ErrCodeInvalidInput indicates the caller supplied invalid identifier parameters.
	ErrCodeInvalidInput = errors.New("codes: invalid input")
	// ErrProductNotFound indicates the referenced product does not exist.
	ErrProductNotFound = errors.New("codes: product not found")
	// ErrProductCodeMissing indicates the product carries no canonical code to propagate.
	ErrProductCodeMissing = errors.New("codes: product has no code")
	// ErrScannedCodeUnknown indicates no product matches the scanned identifier.
	ErrScannedCodeUnknown = errors.New("codes: scanned value matches no product")
)

// CodeServiceDeps bundles the collaborators required to construct a code service.
type CodeServiceDeps struct {
	Products ProductRepository
	Events   CodeEventPublisher
	// LegacyStoreID backs the store segment when a product has none of its own.
	LegacyStoreID string
	Clock         func() time.Time
	IDGenerator   func() string
	// Rand drives the random fallbacks of the legacy scheme; tests inject a
	// deterministic source.
	Rand   func(int) int
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type codeService struct {
	products      ProductRepository
	events        CodeEventPublisher
	legacyStoreID string
	clock         func() time.Time
	newID         func() string
	intn          func(int) int
	logger        func(context.Context, string, map[string]any)
}

var _ CodeService = (*codeService)(nil)

// NewCodeService wires dependencies into a concrete CodeService implementation.
func NewCodeService(deps CodeServiceDeps) (CodeService, error) {
	if deps.Products == nil {
		return nil, errors.New("code service: product repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &codeService{
		products:      deps.Products,
		events:        deps.Events,
		legacyStoreID: strings.TrimSpace(deps.LegacyStoreID),
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		intn:   deps.Rand,
		logger: logger,
	}, nil
}

func (s *codeService) GenerateCode(ctx context.Context, cmd GenerateCodeCommand) (CodeAssignment, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return CodeAssignment{}, fmt.Errorf("%w: product name is required", ErrCodeInvalidInput)
	}

	catalog, err := s.products.List(ctx)
	if err != nil {
		return CodeAssignment{}, err
	}

	// A product that already carries a code keeps it unchanged; generation is
	// idempotent per product.
	if existing := catalogCode(catalog, cmd.ProductID); existing != "" {
		return CodeAssignment{
			Code:   productcode.Synthesize(name, existing),
			Unique: true,
			Legacy: productcode.DetectScheme(existing) == productcode.SchemeLegacy,
		}, nil
	}

	if cmd.Legacy {
		storeID := strings.TrimSpace(cmd.StoreID)
		if storeID == "" {
			storeID = s.legacyStoreID
		}
		resolution := productcode.ResolveLegacy(name, cmd.ProductID, storeID, catalog, cmd.ProductID, s.intn)
		return CodeAssignment{
			Code:     resolution.Value,
			Unique:   resolution.Unique,
			Attempts: resolution.Attempts,
			Legacy:   true,
		}, nil
	}

	prefix := productcode.Classify(name)
	resolution := productcode.ResolveSimple(prefix, catalog, productcode.FieldCode, cmd.ProductID)
	return CodeAssignment{
		Code:     resolution.Value,
		Unique:   resolution.Unique,
		Attempts: resolution.Attempts,
	}, nil
}

func (s *codeService) SyncProduct(ctx context.Context, productID string) (ProductSyncResult, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return ProductSyncResult{}, fmt.Errorf("%w: product id is required", ErrCodeInvalidInput)
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return ProductSyncResult{}, translateProductError(err)
	}

	fields, err := productcode.SyncFields(product)
	if err != nil {
		if errors.Is(err, productcode.ErrMissingCode) {
			return ProductSyncResult{}, fmt.Errorf("%w: %s", ErrProductCodeMissing, id)
		}
		return ProductSyncResult{}, err
	}

	if product.Synced() {
		return ProductSyncResult{ProductID: id, Fields: fields, Changed: false}, nil
	}

	if err := s.products.UpdateCodes(ctx, id, fields); err != nil {
		return ProductSyncResult{}, translateProductError(err)
	}
	s.publishEvent(ctx, codeEventSynced, id, fields)

	return ProductSyncResult{ProductID: id, Fields: fields, Changed: true}, nil
}

func (s *codeService) SyncAll(ctx context.Context, opts BulkOptions) (SyncSummary, error) {
	catalog, err := s.products.List(ctx)
	if err != nil {
		return SyncSummary{}, err
	}

	plan := productcode.PlanSync(catalog)
	summary := SyncSummary{
		Total:   len(catalog),
		Skipped: plan.Skipped(),
		DryRun:  opts.DryRun,
	}
	if opts.DryRun {
		summary.Updated = plan.Updated()
		return summary, nil
	}

	// Each product is written independently; one failure never aborts the pass.
	for _, update := range plan.Updates {
		if err := s.products.UpdateCodes(ctx, update.ProductID, update.Fields); err != nil {
			summary.Failed = append(summary.Failed, update.ProductID)
			s.logger(ctx, "codes.sync.write_failed", map[string]any{
				"productId": update.ProductID,
				"error":     err.Error(),
			})
			continue
		}
		summary.Updated++
		s.publishEvent(ctx, codeEventSynced, update.ProductID, update.Fields)
	}
	return summary, nil
}

func (s *codeService) GenerateMissing(ctx context.Context, opts BulkOptions) (GenerateSummary, error) {
	catalog, err := s.products.List(ctx)
	if err != nil {
		return GenerateSummary{}, err
	}

	plan := productcode.PlanGenerateMissing(catalog)
	summary := GenerateSummary{
		Total:     len(catalog),
		Exhausted: plan.Exhausted,
		DryRun:    opts.DryRun,
	}
	if opts.DryRun {
		summary.Generated = plan.Generated()
		return summary, nil
	}

	for _, update := range plan.Updates {
		if err := s.products.UpdateCodes(ctx, update.ProductID, update.Fields); err != nil {
			summary.Failed = append(summary.Failed, update.ProductID)
			s.logger(ctx, "codes.generate.write_failed", map[string]any{
				"productId": update.ProductID,
				"error":     err.Error(),
			})
			continue
		}
		summary.Generated++
		s.publishEvent(ctx, codeEventGenerated, update.ProductID, update.Fields)
	}
	return summary, nil
}

func (s *codeService) Status(ctx context.Context) (CodeStatus, error) {
	catalog, err := s.products.List(ctx)
	if err != nil {
		return CodeStatus{}, err
	}
	return productcode.Summarise(catalog), nil
}

func (s *codeService) Lookup(ctx context.Context, scanned string) (Product, error) {
	value := strings.TrimSpace(scanned)
	if value == "" {
		return Product{}, fmt.Errorf("%w: scanned value is required", ErrCodeInvalidInput)
	}

	product, err := s.products.FindByAnyCode(ctx, canonicalScanValue(value))
	if err != nil {
		var productErr *repositories.ProductError
		if errors.As(err, &productErr) && productErr.Code == repositories.ProductErrorCodeNotFound {
			return Product{}, fmt.Errorf("%w: %s", ErrScannedCodeUnknown, value)
		}
		return Product{}, translateProductError(err)
	}
	return product, nil
}

// canonicalScanValue maps a scanned payload onto the stored form. Values in a
// recognised identifier format are re-rendered through their parser so case
// differences from the scanner never miss a match; anything else, such as an
// external barcode, is matched verbatim.
func canonicalScanValue(value string) string {
	upper := strings.ToUpper(value)
	switch productcode.DetectScheme(upper) {
	case productcode.SchemeLegacy:
		if legacy, err := productcode.ParseLegacy(upper); err == nil {
			return legacy.String()
		}
	case productcode.SchemeSimple:
		if code, err := productcode.ParseSimple(upper); err == nil {
			return code.String()
		}
	}
	return value
}

// catalogCode returns the code already assigned to the identified product, if any.
func catalogCode(catalog []Product, productID string) string {
	if productID == "" {
		return ""
	}
	for _, product := range catalog {
		if product.ID == productID {
			return strings.TrimSpace(product.Code)
		}
	}
	return ""
}

// publishEvent emits a best-effort change event; failures are logged, never surfaced.
func (s *codeService) publishEvent(ctx context.Context, eventType, productID string, fields domain.CodeFields) {
	if s.events == nil {
		return
	}
	message := CodeEventMessage{
		EventID:    s.newID(),
		Type:       eventType,
		ProductID:  productID,
		Code:       fields.Code,
		Barcode:    fields.Barcode,
		QRCode:     fields.QRCode,
		OccurredAt: s.clock(),
	}
	if _, err := s.events.PublishCodeEvent(ctx, message); err != nil {
		s.logger(ctx, "codes.event.publish_failed", map[string]any{
			"productId": productID,
			"eventType": eventType,
			"error":     err.Error(),
		})
	}
}

func translateProductError(err error) error {
	var productErr *repositories.ProductError
	if errors.As(err, &productErr) {
		switch productErr.Code {
		case repositories.ProductErrorNotFound:
			return fmt.Errorf("%w: %s", ErrProductNotFound, productErr.Message)
		case repositories.ProductErrorInvalidInput:
			return fmt.Errorf("%w: %s", ErrCodeInvalidInput, productErr.Message)
		}
	}
	return err
}
