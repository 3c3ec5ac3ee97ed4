package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/kirana-pos/api/internal/platform/firestore"
	"github.com/kirana-pos/api/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind repositories.Registry.
type Registry struct {
	provider *pfirestore.Provider

	products *ProductRepository
	stores   *StoreRepository
	bills    *BillRepository
	counters *CounterRepository
	health   repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry constructs every Firestore repository against the shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	products, err := NewProductRepository(provider)
	if err != nil {
		return nil, err
	}
	stores, err := NewStoreRepository(provider)
	if err != nil {
		return nil, err
	}
	bills, err := NewBillRepository(provider)
	if err != nil {
		return nil, err
	}
	counters, err := NewCounterRepository(provider)
	if err != nil {
		return nil, err
	}
	health, err := repositories.NewProbeHealthRepository([]repositories.DependencyProbe{
		{
			Name: "firestore",
			Check: func(ctx context.Context) error {
				return provider.Ping(ctx)
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider: provider,
		products: products,
		stores:   stores,
		bills:    bills,
		counters: counters,
		health:   health,
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

func (r *Registry) Products() repositories.ProductRepository { return r.products }
func (r *Registry) Stores() repositories.StoreRepository     { return r.stores }
func (r *Registry) Bills() repositories.BillRepository       { return r.bills }
func (r *Registry) Counters() repositories.CounterRepository { return r.counters }
func (r *Registry) Health() repositories.HealthRepository    { return r.health }
