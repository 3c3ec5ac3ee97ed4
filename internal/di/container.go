package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirana-pos/api/internal/platform/config"
	"github.com/kirana-pos/api/internal/repositories"
	"github.com/kirana-pos/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Codes   services.CodeService
	Catalog services.CatalogService
	Billing services.BillingService
	System  services.SystemService
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// ContainerOptions carries optional runtime collaborators that are constructed
// outside the container, such as the Pub/Sub publisher.
type ContainerOptions struct {
	Events services.CodeEventPublisher
	Build  services.BuildInfo
	Logger func(ctx context.Context, event string, fields map[string]any)
}

// NewContainer constructs the runtime dependencies. Production wiring provides real
// implementations, while tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, opts ContainerOptions) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(cfg, reg, opts)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients or background workers.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(cfg config.Config, reg repositories.Registry, opts ContainerOptions) (Services, error) {
	var svc Services

	productsRepo := reg.Products()
	if productsRepo == nil {
		return Services{}, errors.New("product repository is required")
	}

	codeSvc, err := services.NewCodeService(services.CodeServiceDeps{
		Products:      productsRepo,
		Events:        opts.Events,
		LegacyStoreID: cfg.Codes.LegacyStoreID,
		Clock:         time.Now,
		Logger:        opts.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build code service: %w", err)
	}
	svc.Codes = codeSvc

	if storesRepo := reg.Stores(); storesRepo != nil {
		catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
			Products: productsRepo,
			Stores:   storesRepo,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build catalog service: %w", err)
		}
		svc.Catalog = catalogSvc
	}

	billsRepo := reg.Bills()
	countersRepo := reg.Counters()
	if billsRepo != nil && countersRepo != nil {
		billingSvc, err := services.NewBillingService(services.BillingServiceDeps{
			Bills:        billsRepo,
			Counters:     countersRepo,
			NumberPrefix: cfg.Billing.NumberPrefix,
			NumberWidth:  cfg.Billing.NumberWidth,
			MaxPerStore:  cfg.Billing.MaxPerStore,
			Clock:        time.Now,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build billing service: %w", err)
		}
		svc.Billing = billingSvc
	}

	if healthRepo := reg.Health(); healthRepo != nil {
		build := opts.Build
		if build.Environment == "" {
			build.Environment = cfg.Environment
		}
		if build.StartedAt.IsZero() {
			build.StartedAt = time.Now().UTC()
		}
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            time.Now,
			Build:            build,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}
