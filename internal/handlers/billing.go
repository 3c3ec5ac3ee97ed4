package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/kirana-pos/api/internal/domain"
	"github.com/kirana-pos/api/internal/platform/auth"
	"github.com/kirana-pos/api/internal/platform/httpx"
	"github.com/kirana-pos/api/internal/services"
)

const maxBillingRequestBody = 64 * 1024

// BillingHandlers exposes bill numbering and bill persistence endpoints.
type BillingHandlers struct {
	authn   *auth.Authenticator
	billing services.BillingService
}

// NewBillingHandlers constructs the billing handler set.
func NewBillingHandlers(authn *auth.Authenticator, billing services.BillingService) *BillingHandlers {
	return &BillingHandlers{
		authn:   authn,
		billing: billing,
	}
}

// Routes registers the billing endpoints beneath /bills.
func (h *BillingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}

	route := r
	if h.authn != nil {
		route = route.With(h.authn.RequireFirebaseAuth(auth.RoleCashier, auth.RoleAdmin, auth.RoleSuperadmin))
	}

	route.Post("/number", h.nextNumber)
	route.Post("/", h.createBill)
	route.Get("/{billID}", h.getBill)
}

type billNumberRequest struct {
	StoreID string `json:"storeId"`
}

type billNumberResponse struct {
	Number string `json:"number"`
}

func (h *BillingHandlers) nextNumber(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.billing == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "billing service not available", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxBillingRequestBody)
	if err != nil {
		writeAdminBodyError(ctx, w, err)
		return
	}

	var req billNumberRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	number, err := h.billing.NextBillNumber(ctx, req.StoreID)
	if err != nil {
		writeBillingError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, billNumberResponse{Number: number})
}

type billItemPayload struct {
	ProductID string `json:"productId"`
	Code      string `json:"code,omitempty"`
	Name      string `json:"name,omitempty"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

type createBillRequest struct {
	StoreID string            `json:"storeId"`
	Items   []billItemPayload `json:"items"`
}

type billResponse struct {
	ID        string            `json:"id"`
	Number    string            `json:"number"`
	StoreID   string            `json:"storeId"`
	CashierID string            `json:"cashierId,omitempty"`
	Items     []billItemPayload `json:"items"`
	Total     int64             `json:"total"`
	CreatedAt string            `json:"createdAt,omitempty"`
}

func (h *BillingHandlers) createBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.billing == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "billing service not available", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxBillingRequestBody)
	if err != nil {
		writeAdminBodyError(ctx, w, err)
		return
	}

	var req createBillRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	cashierID := ""
	if identity, ok := auth.IdentityFromContext(ctx); ok && identity != nil {
		cashierID = identity.UID
	}

	items := make([]domain.BillItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.BillItem{
			ProductID: item.ProductID,
			Code:      item.Code,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	bill, err := h.billing.CreateBill(ctx, services.CreateBillCommand{
		StoreID:   req.StoreID,
		CashierID: cashierID,
		Items:     items,
	})
	if err != nil {
		writeBillingError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildBillResponse(bill))
}

func (h *BillingHandlers) getBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.billing == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "billing service not available", http.StatusServiceUnavailable))
		return
	}

	billID := strings.TrimSpace(chi.URLParam(r, "billID"))
	if billID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "bill id is required", http.StatusBadRequest))
		return
	}

	bill, err := h.billing.GetBill(ctx, billID)
	if err != nil {
		writeBillingError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildBillResponse(bill))
}

func buildBillResponse(bill domain.Bill) billResponse {
	items := make([]billItemPayload, 0, len(bill.Items))
	for _, item := range bill.Items {
		items = append(items, billItemPayload{
			ProductID: item.ProductID,
			Code:      item.Code,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return billResponse{
		ID:        bill.ID,
		Number:    bill.Number,
		StoreID:   bill.StoreID,
		CashierID: bill.CashierID,
		Items:     items,
		Total:     bill.Total,
		CreatedAt: formatTime(bill.CreatedAt),
	}
}

func writeBillingError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrBillingInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrBillingExhausted):
		httpx.WriteError(ctx, w, httpx.NewError("bill_numbers_exhausted", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrBillNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("bill_not_found", err.Error(), http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
