package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kirana-pos/api/internal/platform/auth"
	"github.com/kirana-pos/api/internal/platform/httpx"
	"github.com/kirana-pos/api/internal/services"
)

const maxAdminCodeRequestBody = 16 * 1024

// AdminCodeHandlers exposes identifier management endpoints for back-office users.
type AdminCodeHandlers struct {
	authn *auth.Authenticator
	codes services.CodeService
	// dryRunDefault applies when a bulk request does not state dryRun explicitly.
	dryRunDefault bool
}

// NewAdminCodeHandlers constructs the admin code handler set.
func NewAdminCodeHandlers(authn *auth.Authenticator, codes services.CodeService, dryRunDefault bool) *AdminCodeHandlers {
	return &AdminCodeHandlers{
		authn:         authn,
		codes:         codes,
		dryRunDefault: dryRunDefault,
	}
}

// Routes registers the identifier management endpoints beneath /admin.
func (h *AdminCodeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}

	route := r
	if h.authn != nil {
		route = route.With(h.authn.RequireFirebaseAuth(auth.RoleAdmin, auth.RoleSuperadmin))
	}

	route.Post("/codes/generate", h.generateCode)
	route.Post("/codes/sync", h.syncAll)
	route.Post("/codes/generate-missing", h.generateMissing)
	route.Get("/codes/status", h.status)
	route.Post("/products/{productID}/sync", h.syncProduct)
}

type generateCodeRequest struct {
	Name      string `json:"name"`
	ProductID string `json:"productId"`
	StoreID   string `json:"storeId"`
	Legacy    bool   `json:"legacy"`
}

type generateCodeResponse struct {
	Code     string `json:"code"`
	Unique   bool   `json:"unique"`
	Attempts int    `json:"attempts"`
	Legacy   bool   `json:"legacy"`
}

func (h *AdminCodeHandlers) generateCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.codes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "code service not available", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminCodeRequestBody)
	if err != nil {
		writeAdminBodyError(ctx, w, err)
		return
	}

	var req generateCodeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	assignment, err := h.codes.GenerateCode(ctx, services.GenerateCodeCommand{
		Name:      req.Name,
		ProductID: req.ProductID,
		StoreID:   req.StoreID,
		Legacy:    req.Legacy,
	})
	if err != nil {
		writeCodeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, generateCodeResponse{
		Code:     assignment.Code,
		Unique:   assignment.Unique,
		Attempts: assignment.Attempts,
		Legacy:   assignment.Legacy,
	})
}

type bulkRequest struct {
	DryRun *bool `json:"dryRun"`
}

// bulkOptions merges the optional JSON body with the dryRun query parameter.
func (h *AdminCodeHandlers) bulkOptions(r *http.Request) (services.BulkOptions, error) {
	dryRun := parseBoolParam(r, "dryRun", h.dryRunDefault)

	body, err := readLimitedBody(r, maxAdminCodeRequestBody)
	if err != nil {
		if errors.Is(err, errEmptyBody) {
			return services.BulkOptions{DryRun: dryRun}, nil
		}
		return services.BulkOptions{}, err
	}

	var req bulkRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return services.BulkOptions{}, errors.New("invalid JSON payload")
	}
	if req.DryRun != nil {
		dryRun = *req.DryRun
	}
	return services.BulkOptions{DryRun: dryRun}, nil
}

type syncSummaryResponse struct {
	Total   int      `json:"total"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Failed  []string `json:"failed,omitempty"`
	DryRun  bool     `json:"dryRun"`
}

func (h *AdminCodeHandlers) syncAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.codes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "code service not available", http.StatusServiceUnavailable))
		return
	}

	opts, err := h.bulkOptions(r)
	if err != nil {
		writeAdminBodyError(ctx, w, err)
		return
	}

	summary, err := h.codes.SyncAll(ctx, opts)
	if err != nil {
		writeCodeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, syncSummaryResponse{
		Total:   summary.Total,
		Updated: summary.Updated,
		Skipped: summary.Skipped,
		Failed:  summary.Failed,
		DryRun:  summary.DryRun,
	})
}

type generateSummaryResponse struct {
	Total     int      `json:"total"`
	Generated int      `json:"generated"`
	Failed    []string `json:"failed,omitempty"`
	Exhausted []string `json:"exhausted,omitempty"`
	DryRun    bool     `json:"dryRun"`
}

func (h *AdminCodeHandlers) generateMissing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.codes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "code service not available", http.StatusServiceUnavailable))
		return
	}

	opts, err := h.bulkOptions(r)
	if err != nil {
		writeAdminBodyError(ctx, w, err)
		return
	}

	summary, err := h.codes.GenerateMissing(ctx, opts)
	if err != nil {
		writeCodeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, generateSummaryResponse{
		Total:     summary.Total,
		Generated: summary.Generated,
		Failed:    summary.Failed,
		Exhausted: summary.Exhausted,
		DryRun:    summary.DryRun,
	})
}

type codeStatusResponse struct {
	Total          int `json:"total"`
	WithCode       int `json:"withCode"`
	WithoutCode    int `json:"withoutCode"`
	WithBarcode    int `json:"withBarcode"`
	WithoutBarcode int `json:"withoutBarcode"`
	WithQRCode     int `json:"withQrcode"`
	WithoutQRCode  int `json:"withoutQrcode"`
	FullySynced    int `json:"fullySynced"`
}

func (h *AdminCodeHandlers) status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.codes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "code service not available", http.StatusServiceUnavailable))
		return
	}

	status, err := h.codes.Status(ctx)
	if err != nil {
		writeCodeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, codeStatusResponse{
		Total:          status.Total,
		WithCode:       status.WithCode,
		WithoutCode:    status.WithoutCode,
		WithBarcode:    status.WithBarcode,
		WithoutBarcode: status.WithoutBarcode,
		WithQRCode:     status.WithQRCode,
		WithoutQRCode:  status.WithoutQRCode,
		FullySynced:    status.FullySynced,
	})
}

type productSyncResponse struct {
	ProductID string `json:"productId"`
	Code      string `json:"code"`
	Barcode   string `json:"barcode"`
	QRCode    string `json:"qrcode"`
	Changed   bool   `json:"changed"`
}

func (h *AdminCodeHandlers) syncProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.codes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "code service not available", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	result, err := h.codes.SyncProduct(ctx, productID)
	if err != nil {
		writeCodeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, productSyncResponse{
		ProductID: result.ProductID,
		Code:      result.Fields.Code,
		Barcode:   result.Fields.Barcode,
		QRCode:    result.Fields.QRCode,
		Changed:   result.Changed,
	})
}

func writeAdminBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	case errors.Is(err, errEmptyBody):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func writeCodeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCodeInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrProductCodeMissing):
		httpx.WriteError(ctx, w, httpx.NewError("product_code_missing", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrScannedCodeUnknown):
		httpx.WriteError(ctx, w, httpx.NewError("code_not_found", err.Error(), http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
