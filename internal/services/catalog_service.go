package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/kirana-pos/api/internal/domain"
	"github.com/kirana-pos/api/internal/repositories"
)

// ErrCatalogInvalidInput indicates the caller supplied invalid catalog query parameters.
var ErrCatalogInvalidInput = errors.New("catalog: invalid input")

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Products ProductRepository
	Stores   StoreRepository
}

type catalogService struct {
	products ProductRepository
	stores   StoreRepository
}

var _ CatalogService = (*catalogService)(nil)

// NewCatalogService constructs read access over products and stores.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	if deps.Stores == nil {
		return nil, errors.New("catalog service: store repository is required")
	}

	return &catalogService{
		products: deps.Products,
		stores:   deps.Stores,
	}, nil
}

func (s *catalogService) ListProducts(ctx context.Context, query ProductListQuery) (domain.CursorPage[Product], error) {
	if query.Pagination.PageSize < 0 {
		return domain.CursorPage[Product]{}, fmt.Errorf("%w: page size must not be negative", ErrCatalogInvalidInput)
	}

	page, err := s.products.ListPage(ctx, repositories.ProductListQuery{
		StoreID:   strings.TrimSpace(query.StoreID),
		PageSize:  query.Pagination.PageSize,
		PageToken: query.Pagination.PageToken,
	})
	if err != nil {
		return domain.CursorPage[Product]{}, translateProductError(err)
	}
	return page, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return Product{}, translateProductError(err)
	}
	return product, nil
}

func (s *catalogService) ListStores(ctx context.Context) ([]Store, error) {
	return s.stores.List(ctx)
}
