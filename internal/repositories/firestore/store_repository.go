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
	"github.com/kirana-pos/api/internal/repositories"
)

const storesCollection = "stores"

type storeDocument struct {
	Name      string    `firestore:"name"`
	Address   string    `firestore:"address"`
	Phone     string    `firestore:"phone"`
	Active    bool      `firestore:"active"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func (d storeDocument) toDomain(id string) domain.Store {
	return domain.Store{
		ID:        id,
		Name:      d.Name,
		Address:   d.Address,
		Phone:     d.Phone,
		Active:    d.Active,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// StoreRepository implements repositories.StoreRepository backed by Firestore.
type StoreRepository struct {
	provider *pfirestore.Provider
	stores   *pfirestore.BaseRepository[storeDocument]
}

// NewStoreRepository constructs a Firestore-backed store repository.
func NewStoreRepository(provider *pfirestore.Provider) (*StoreRepository, error) {
	if provider == nil {
		return nil, errors.New("store repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[storeDocument](provider, storesCollection, nil, nil)
	return &StoreRepository{provider: provider, stores: base}, nil
}

// List returns all store records ordered by document id.
func (r *StoreRepository) List(ctx context.Context) ([]domain.Store, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("store repository not initialised")
	}

	docs, err := r.stores.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy(firestore.DocumentID, firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	stores := make([]domain.Store, 0, len(docs))
	for _, doc := range docs {
		stores = append(stores, doc.Data.toDomain(doc.ID))
	}
	return stores, nil
}

// FindByID fetches a single store document.
func (r *StoreRepository) FindByID(ctx context.Context, storeID string) (domain.Store, error) {
	if r == nil || r.provider == nil {
		return domain.Store{}, errors.New("store repository not initialised")
	}
	id := strings.TrimSpace(storeID)
	if id == "" {
		return domain.Store{}, errors.New("store repository: store id is required")
	}

	doc, err := r.stores.Get(ctx, id)
	if err != nil {
		if pfirestore.IsNotFound(err) {
			return domain.Store{}, fmt.Errorf("%w: store %s", repositories.ErrStoreNotFound, id)
		}
		return domain.Store{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}
