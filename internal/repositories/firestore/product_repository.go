package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/kirana-pos/api/internal/domain"
	pfirestore "github.com/kirana-pos/api/internal/platform/firestore"
	"github.com/kirana-pos/api/internal/platform/pagination"
	"github.com/kirana-pos/api/internal/repositories"
)

const (
	inventoryCollection = "inventory"

	defaultProductPageSize = 50
	maxProductPageSize     = 200
)

// codeLookupFields is the order scanned values are matched against.
var codeLookupFields = []string{"code", "barcode", "qrcode"}

type productDocument struct {
	Name      string    `firestore:"name"`
	Code      string    `firestore:"code"`
	Barcode   string    `firestore:"barcode"`
	QRCode    string    `firestore:"qrcode"`
	StoreID   string    `firestore:"storeId"`
	Category  string    `firestore:"category"`
	Price     int64     `firestore:"price"`
	Quantity  int64     `firestore:"quantity"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:        id,
		Name:      d.Name,
		Code:      d.Code,
		Barcode:   d.Barcode,
		QRCode:    d.QRCode,
		StoreID:   d.StoreID,
		Category:  d.Category,
		Price:     d.Price,
		Quantity:  d.Quantity,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// ProductRepository implements repositories.ProductRepository backed by the inventory collection.
type ProductRepository struct {
	provider *pfirestore.Provider
	products *pfirestore.BaseRepository[productDocument]
	now      func() time.Time
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, inventoryCollection, nil, nil)
	return &ProductRepository{
		provider: provider,
		products: base,
		now:      time.Now,
	}, nil
}

// List returns the complete catalog ordered by document id.
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("product repository not initialised")
	}

	docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy(firestore.DocumentID, firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	catalog := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		catalog = append(catalog, doc.Data.toDomain(doc.ID))
	}
	return catalog, nil
}

// ListPage returns one catalog page, optionally filtered by store.
func (r *ProductRepository) ListPage(ctx context.Context, query repositories.ProductListQuery) (domain.CursorPage[domain.Product], error) {
	if r == nil || r.provider == nil {
		return domain.CursorPage[domain.Product]{}, errors.New("product repository not initialised")
	}

	limit := query.PageSize
	if limit <= 0 {
		limit = defaultProductPageSize
	}
	if limit > maxProductPageSize {
		limit = maxProductPageSize
	}

	var startAfter string
	if token := strings.TrimSpace(query.PageToken); token != "" {
		decoded, err := decodeProductListToken(token)
		if err != nil {
			return domain.CursorPage[domain.Product]{}, repositories.NewProductError(repositories.ProductErrorInvalidInput, "invalid page token", err)
		}
		startAfter = decoded
	}

	docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
		if storeID := strings.TrimSpace(query.StoreID); storeID != "" {
			q = q.Where("storeId", "==", storeID)
		}
		q = q.OrderBy(firestore.DocumentID, firestore.Asc)
		if startAfter != "" {
			q = q.StartAfter(startAfter)
		}
		return q.Limit(limit + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	nextToken := ""
	if len(docs) > limit {
		docs = docs[:limit]
		nextToken = encodeProductListToken(docs[len(docs)-1].ID)
	}

	items := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.Data.toDomain(doc.ID))
	}
	return domain.CursorPage[domain.Product]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

// FindByID fetches a single product document.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.provider == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Product{}, repositories.NewProductError(repositories.ProductErrorInvalidInput, "product id is required", nil)
	}

	doc, err := r.products.Get(ctx, id)
	if err != nil {
		if pfirestore.IsNotFound(err) {
			return domain.Product{}, repositories.NewProductError(repositories.ProductErrorNotFound, fmt.Sprintf("product %s not found", id), err)
		}
		return domain.Product{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// FindByAnyCode matches a scanned value against code, barcode, and qrcode in that order.
func (r *ProductRepository) FindByAnyCode(ctx context.Context, value string) (domain.Product, error) {
	if r == nil || r.provider == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	scanned := strings.TrimSpace(value)
	if scanned == "" {
		return domain.Product{}, repositories.NewProductError(repositories.ProductErrorInvalidInput, "scanned value is required", nil)
	}

	for _, field := range codeLookupFields {
		docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
			return q.Where(field, "==", scanned).Limit(1)
		})
		if err != nil {
			return domain.Product{}, err
		}
		if len(docs) > 0 {
			return docs[0].Data.toDomain(docs[0].ID), nil
		}
	}
	return domain.Product{}, repositories.NewProductError(repositories.ProductErrorCodeNotFound, fmt.Sprintf("no product matches %s", scanned), nil)
}

// UpdateCodes applies a partial update carrying only the identifier triple.
func (r *ProductRepository) UpdateCodes(ctx context.Context, productID string, fields domain.CodeFields) error {
	if r == nil || r.provider == nil {
		return errors.New("product repository not initialised")
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return repositories.NewProductError(repositories.ProductErrorInvalidInput, "product id is required", nil)
	}
	if strings.TrimSpace(fields.Code) == "" {
		return repositories.NewProductError(repositories.ProductErrorInvalidInput, "code is required", nil)
	}

	updates := []firestore.Update{
		{Path: "code", Value: fields.Code},
		{Path: "barcode", Value: fields.Barcode},
		{Path: "qrcode", Value: fields.QRCode},
		{Path: "updatedAt", Value: r.now().UTC()},
	}
	_, err := r.products.Update(ctx, id, updates)
	if err != nil {
		if pfirestore.IsNotFound(err) {
			return repositories.NewProductError(repositories.ProductErrorNotFound, fmt.Sprintf("product %s not found", id), err)
		}
		return err
	}
	return nil
}

func encodeProductListToken(docID string) string {
	token, err := pagination.EncodeToken(pagination.Cursor{StartAfter: []any{docID}})
	if err != nil {
		return ""
	}
	return token
}

func decodeProductListToken(token string) (string, error) {
	cursor, err := pagination.DecodeToken(token)
	if err != nil {
		return "", err
	}
	if len(cursor.StartAfter) == 0 {
		return "", errors.New("token carries no cursor")
	}
	docID, ok := cursor.StartAfter[0].(string)
	if !ok || docID == "" {
		return "", errors.New("token cursor is not a document id")
	}
	return docID, nil
}
