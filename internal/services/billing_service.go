package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kirana-pos/api/internal/repositories"
)

var (
	// ErrBillingInvalidInput indicates the caller supplied invalid bill parameters.
	ErrBillingInvalidInput = errors.New("billing: invalid input")
	// ErrBillingExhausted indicates a store's bill number sequence hit its configured ceiling.
	ErrBillingExhausted = errors.New("billing: bill numbers exhausted")
	// ErrBillNotFound indicates the referenced bill does not exist.
	ErrBillNotFound = errors.New("billing: bill not found")
)

// BillingServiceDeps bundles collaborators required to construct a billing service instance.
type BillingServiceDeps struct {
	Bills    BillRepository
	Counters CounterRepository
	// NumberPrefix and NumberWidth shape formatted bill numbers, e.g. BILLNO0001.
	NumberPrefix string
	NumberWidth  int
	// MaxPerStore caps each store's sequence; zero leaves it unbounded.
	MaxPerStore int64
	Clock       func() time.Time
	IDGenerator func() string
}

type billingService struct {
	bills    BillRepository
	counters CounterRepository

	numberPrefix string
	numberWidth  int
	maxPerStore  int64

	clock func() time.Time
	newID func() string

	configMu   sync.Mutex
	configured map[string]struct{}
}

var _ BillingService = (*billingService)(nil)

// NewBillingService constructs a service that issues bill numbers and persists bills.
func NewBillingService(deps BillingServiceDeps) (BillingService, error) {
	if deps.Bills == nil {
		return nil, errors.New("billing service: bill repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("billing service: counter repository is required")
	}
	prefix := strings.TrimSpace(deps.NumberPrefix)
	if prefix == "" {
		return nil, errors.New("billing service: number prefix is required")
	}
	if deps.NumberWidth <= 0 {
		return nil, errors.New("billing service: number width must be positive")
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

	return &billingService{
		bills:        deps.Bills,
		counters:     deps.Counters,
		numberPrefix: prefix,
		numberWidth:  deps.NumberWidth,
		maxPerStore:  deps.MaxPerStore,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:      idGen,
		configured: make(map[string]struct{}),
	}, nil
}

func (s *billingService) NextBillNumber(ctx context.Context, storeID string) (string, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return "", fmt.Errorf("%w: store id is required", ErrBillingInvalidInput)
	}

	counterID := "bills:" + storeID

	if err := s.ensureConfiguration(ctx, counterID); err != nil {
		return "", err
	}

	value, err := s.counters.Next(ctx, counterID, 1)
	if err != nil {
		var counterErr *repositories.CounterError
		if errors.As(err, &counterErr) {
			switch counterErr.Code {
			case repositories.CounterErrorInvalidInput:
				return "", fmt.Errorf("%w: %s", ErrBillingInvalidInput, counterErr.Message)
			case repositories.CounterErrorExhausted:
				return "", fmt.Errorf("%w: %s", ErrBillingExhausted, counterErr.Message)
			}
		}
		return "", err
	}

	return fmt.Sprintf("%s%0*d", s.numberPrefix, s.numberWidth, value), nil
}

func (s *billingService) CreateBill(ctx context.Context, cmd CreateBillCommand) (Bill, error) {
	storeID := strings.TrimSpace(cmd.StoreID)
	if storeID == "" {
		return Bill{}, fmt.Errorf("%w: store id is required", ErrBillingInvalidInput)
	}
	if len(cmd.Items) == 0 {
		return Bill{}, fmt.Errorf("%w: at least one item is required", ErrBillingInvalidInput)
	}

	var total int64
	for i, item := range cmd.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return Bill{}, fmt.Errorf("%w: item %d is missing a product id", ErrBillingInvalidInput, i)
		}
		if item.Quantity <= 0 {
			return Bill{}, fmt.Errorf("%w: item %d quantity must be positive", ErrBillingInvalidInput, i)
		}
		if item.UnitPrice < 0 {
			return Bill{}, fmt.Errorf("%w: item %d unit price must not be negative", ErrBillingInvalidInput, i)
		}
		total += item.Quantity * item.UnitPrice
	}

	number, err := s.NextBillNumber(ctx, storeID)
	if err != nil {
		return Bill{}, err
	}

	bill := Bill{
		ID:        s.newID(),
		Number:    number,
		StoreID:   storeID,
		CashierID: strings.TrimSpace(cmd.CashierID),
		Items:     cmd.Items,
		Total:     total,
		CreatedAt: s.clock(),
	}
	if err := s.bills.Insert(ctx, bill); err != nil {
		return Bill{}, err
	}
	return bill, nil
}

func (s *billingService) GetBill(ctx context.Context, billID string) (Bill, error) {
	billID = strings.TrimSpace(billID)
	if billID == "" {
		return Bill{}, fmt.Errorf("%w: bill id is required", ErrBillingInvalidInput)
	}

	bill, err := s.bills.FindByID(ctx, billID)
	if err != nil {
		if errors.Is(err, repositories.ErrBillNotFound) {
			return Bill{}, fmt.Errorf("%w: %s", ErrBillNotFound, billID)
		}
		return Bill{}, err
	}
	return bill, nil
}

// ensureConfiguration applies the store ceiling to a counter document once per process.
func (s *billingService) ensureConfiguration(ctx context.Context, counterID string) error {
	if s.maxPerStore <= 0 {
		return nil
	}

	s.configMu.Lock()
	defer s.configMu.Unlock()

	if _, ok := s.configured[counterID]; ok {
		return nil
	}

	maxValue := s.maxPerStore
	cfg := repositories.CounterConfig{Step: 1, MaxValue: &maxValue}
	if err := s.counters.Configure(ctx, counterID, cfg); err != nil {
		return err
	}
	s.configured[counterID] = struct{}{}
	return nil
}
