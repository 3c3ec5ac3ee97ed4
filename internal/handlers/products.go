package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/kirana-pos/api/internal/domain"
	"github.com/kirana-pos/api/internal/platform/auth"
	"github.com/kirana-pos/api/internal/platform/httpx"
	"github.com/kirana-pos/api/internal/platform/pagination"
	"github.com/kirana-pos/api/internal/services"
)

const maxProductPageSize = 200

// CatalogHandlers exposes read endpoints over products and stores.
type CatalogHandlers struct {
	authn   *auth.Authenticator
	catalog services.CatalogService
	codes   services.CodeService
}

// NewCatalogHandlers constructs the catalog handler set.
func NewCatalogHandlers(authn *auth.Authenticator, catalog services.CatalogService, codes services.CodeService) *CatalogHandlers {
	return &CatalogHandlers{
		authn:   authn,
		catalog: catalog,
		codes:   codes,
	}
}

// ProductRoutes registers the product endpoints beneath /products.
func (h *CatalogHandlers) ProductRoutes(r chi.Router) {
	if r == nil {
		return
	}

	route := r
	if h.authn != nil {
		route = route.With(h.authn.RequireFirebaseAuth())
	}

	route.Get("/", h.listProducts)
	route.Get("/lookup", h.lookupProduct)
	route.Get("/{productID}", h.getProduct)
}

// StoreRoutes registers the store endpoints beneath /stores.
func (h *CatalogHandlers) StoreRoutes(r chi.Router) {
	if r == nil {
		return
	}

	route := r
	if h.authn != nil {
		route = route.With(h.authn.RequireFirebaseAuth())
	}

	route.Get("/", h.listStores)
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service not available", http.StatusServiceUnavailable))
		return
	}

	params, err := pagination.FromRequest(r, pagination.Options{MaxPageSize: maxProductPageSize})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.catalog.ListProducts(ctx, services.ProductListQuery{
		StoreID: strings.TrimSpace(r.URL.Query().Get("storeId")),
		Pagination: services.Pagination{
			PageSize:  params.PageSize,
			PageToken: params.PageToken,
		},
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	items := make([]productPayload, 0, len(page.Items))
	for _, product := range page.Items {
		items = append(items, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, productListResponse{
		Items:         items,
		NextPageToken: page.NextPageToken,
	})
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service not available", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func (h *CatalogHandlers) lookupProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.codes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "code service not available", http.StatusServiceUnavailable))
		return
	}

	scanned := strings.TrimSpace(r.URL.Query().Get("code"))
	if scanned == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "code query parameter is required", http.StatusBadRequest))
		return
	}

	product, err := h.codes.Lookup(ctx, scanned)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func (h *CatalogHandlers) listStores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service not available", http.StatusServiceUnavailable))
		return
	}

	stores, err := h.catalog.ListStores(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	items := make([]storePayload, 0, len(stores))
	for _, store := range stores {
		items = append(items, storePayload{
			ID:      store.ID,
			Name:    store.Name,
			Address: store.Address,
			Phone:   store.Phone,
			Active:  store.Active,
		})
	}
	writeJSONResponse(w, http.StatusOK, storeListResponse{Items: items})
}

type productPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code,omitempty"`
	Barcode   string `json:"barcode,omitempty"`
	QRCode    string `json:"qrcode,omitempty"`
	StoreID   string `json:"storeId,omitempty"`
	Category  string `json:"category,omitempty"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type productResponse struct {
	Product productPayload `json:"product"`
}

type productListResponse struct {
	Items         []productPayload `json:"items"`
	NextPageToken string           `json:"nextPageToken,omitempty"`
}

type storePayload struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Active  bool   `json:"active"`
}

type storeListResponse struct {
	Items []storePayload `json:"items"`
}

func buildProductPayload(product domain.Product) productPayload {
	return productPayload{
		ID:        product.ID,
		Name:      product.Name,
		Code:      product.Code,
		Barcode:   product.Barcode,
		QRCode:    product.QRCode,
		StoreID:   product.StoreID,
		Category:  product.Category,
		Price:     product.Price,
		Quantity:  product.Quantity,
		CreatedAt: formatTime(product.CreatedAt),
		UpdatedAt: formatTime(product.UpdatedAt),
	}
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput), errors.Is(err, services.ErrCodeInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrScannedCodeUnknown):
		httpx.WriteError(ctx, w, httpx.NewError("code_not_found", err.Error(), http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
