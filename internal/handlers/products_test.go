package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/kirana-pos/api/internal/domain"
	"github.com/kirana-pos/api/internal/services"
)

type stubCatalogService struct {
	page      domain.CursorPage[domain.Product]
	pageErr   error
	lastQuery services.ProductListQuery

	product    domain.Product
	productErr error

	stores []domain.Store
}

func (s *stubCatalogService) ListProducts(ctx context.Context, query services.ProductListQuery) (domain.CursorPage[domain.Product], error) {
	s.lastQuery = query
	return s.page, s.pageErr
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if s.productErr != nil {
		return domain.Product{}, s.productErr
	}
	return s.product, nil
}

func (s *stubCatalogService) ListStores(ctx context.Context) ([]domain.Store, error) {
	return s.stores, nil
}

type stubCodeService struct {
	assignment services.CodeAssignment
	genErr     error
	lastCmd    services.GenerateCodeCommand

	syncResult services.ProductSyncResult
	syncErr    error

	syncSummary services.SyncSummary
	syncAllErr  error
	lastBulk    services.BulkOptions

	genSummary services.GenerateSummary
	genMissErr error

	status    services.CodeStatus
	statusErr error

	lookup    domain.Product
	lookupErr error
}

func (s *stubCodeService) GenerateCode(ctx context.Context, cmd services.GenerateCodeCommand) (services.CodeAssignment, error) {
	s.lastCmd = cmd
	return s.assignment, s.genErr
}

func (s *stubCodeService) SyncProduct(ctx context.Context, productID string) (services.ProductSyncResult, error) {
	return s.syncResult, s.syncErr
}

func (s *stubCodeService) SyncAll(ctx context.Context, opts services.BulkOptions) (services.SyncSummary, error) {
	s.lastBulk = opts
	return s.syncSummary, s.syncAllErr
}

func (s *stubCodeService) GenerateMissing(ctx context.Context, opts services.BulkOptions) (services.GenerateSummary, error) {
	s.lastBulk = opts
	return s.genSummary, s.genMissErr
}

func (s *stubCodeService) Status(ctx context.Context) (services.CodeStatus, error) {
	return s.status, s.statusErr
}

func (s *stubCodeService) Lookup(ctx context.Context, scanned string) (domain.Product, error) {
	if s.lookupErr != nil {
		return domain.Product{}, s.lookupErr
	}
	return s.lookup, nil
}

func newCatalogTestRouter(catalog services.CatalogService, codes services.CodeService) chi.Router {
	h := NewCatalogHandlers(nil, catalog, codes)
	return NewRouter(
		WithProductRoutes(h.ProductRoutes),
		WithStoreRoutes(h.StoreRoutes),
	)
}

func TestListProductsEndpoint(t *testing.T) {
	catalog := &stubCatalogService{page: domain.CursorPage[domain.Product]{
		Items: []domain.Product{
			{ID: "p1", Name: "Basmati Rice", Code: "RICE001", Price: 9500, Quantity: 12},
		},
		NextPageToken: "tok-next",
	}}
	router := newCatalogTestRouter(catalog, &stubCodeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?pageSize=25&storeId=store-1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if catalog.lastQuery.StoreID != "store-1" || catalog.lastQuery.Pagination.PageSize != 25 {
		t.Fatalf("unexpected service query %+v", catalog.lastQuery)
	}

	var body struct {
		Items []struct {
			ID   string `json:"id"`
			Code string `json:"code"`
		} `json:"items"`
		NextPageToken string `json:"nextPageToken"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].Code != "RICE001" {
		t.Fatalf("unexpected body %+v", body)
	}
	if body.NextPageToken != "tok-next" {
		t.Fatalf("expected next page token, got %q", body.NextPageToken)
	}
}

func TestListProductsRejectsBadPageSize(t *testing.T) {
	router := newCatalogTestRouter(&stubCatalogService{}, &stubCodeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?pageSize=abc", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestGetProductEndpoint(t *testing.T) {
	catalog := &stubCatalogService{product: domain.Product{ID: "p1", Name: "Basmati Rice", Code: "RICE001"}}
	router := newCatalogTestRouter(catalog, &stubCodeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/p1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body struct {
		Product struct {
			ID string `json:"id"`
		} `json:"product"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Product.ID != "p1" {
		t.Fatalf("unexpected product %+v", body.Product)
	}
}

func TestGetProductNotFound(t *testing.T) {
	catalog := &stubCatalogService{productErr: services.ErrProductNotFound}
	router := newCatalogTestRouter(catalog, &stubCodeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/ghost", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "product_not_found" {
		t.Fatalf("expected product_not_found error, got %v", body["error"])
	}
}

func TestLookupProductEndpoint(t *testing.T) {
	codes := &stubCodeService{lookup: domain.Product{ID: "p1", Name: "Basmati Rice", Code: "RICE001"}}
	router := newCatalogTestRouter(&stubCatalogService{}, codes)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/lookup?code=RICE001", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestLookupProductUnknownCode(t *testing.T) {
	codes := &stubCodeService{lookupErr: services.ErrScannedCodeUnknown}
	router := newCatalogTestRouter(&stubCatalogService{}, codes)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/lookup?code=NOPE999", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestLookupProductRequiresCode(t *testing.T) {
	router := newCatalogTestRouter(&stubCatalogService{}, &stubCodeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/lookup", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestListStoresEndpoint(t *testing.T) {
	catalog := &stubCatalogService{stores: []domain.Store{{ID: "store-1", Name: "Main Street", Active: true}}}
	router := newCatalogTestRouter(catalog, &stubCodeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body struct {
		Items []struct {
			ID     string `json:"id"`
			Active bool   `json:"active"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].ID != "store-1" || !body.Items[0].Active {
		t.Fatalf("unexpected body %+v", body)
	}
}
