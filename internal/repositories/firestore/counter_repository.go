package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/kirana-pos/api/internal/platform/firestore"
	"github.com/kirana-pos/api/internal/repositories"
)

const countersCollection = "counters"

type counterDocument struct {
	CurrentValue int64     `firestore:"currentValue"`
	Step         int64     `firestore:"step"`
	MaxValue     *int64    `firestore:"maxValue,omitempty"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

// CounterRepository implements repositories.CounterRepository backed by Firestore transactions.
type CounterRepository struct {
	provider *pfirestore.Provider
	counters *pfirestore.BaseRepository[counterDocument]
	now      func() time.Time
}

// CounterRepositoryOption customises the counter repository.
type CounterRepositoryOption func(*CounterRepository)

// WithCounterClock injects a custom clock primarily for tests.
func WithCounterClock(clock func() time.Time) CounterRepositoryOption {
	return func(r *CounterRepository) {
		if clock != nil {
			r.now = clock
		}
	}
}

// NewCounterRepository constructs a Firestore-backed counter repository.
func NewCounterRepository(provider *pfirestore.Provider, opts ...CounterRepositoryOption) (*CounterRepository, error) {
	if provider == nil {
		return nil, errors.New("counter repository requires firestore provider")
	}
	repo := &CounterRepository{
		provider: provider,
		counters: pfirestore.NewBaseRepository[counterDocument](provider, countersCollection, nil, nil),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

// Next atomically increments the counter identified by counterID and returns the next value.
// A missing counter document is created on first use with the increment as its value.
func (r *CounterRepository) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	if r == nil || r.provider == nil {
		return 0, errors.New("counter repository not initialised")
	}
	id := strings.TrimSpace(counterID)
	if id == "" {
		return 0, repositories.NewCounterError(repositories.CounterErrorInvalidInput, "counter id is required", nil)
	}
	if step < 0 {
		return 0, repositories.NewCounterError(repositories.CounterErrorInvalidInput, fmt.Sprintf("step must be positive, got %d", step), nil)
	}

	now := r.now().UTC()
	var nextValue int64

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.counters.DocumentRef(ctx, id)
		if err != nil {
			return err
		}

		snapshot, err := tx.Get(ref)
		switch status.Code(err) {
		case codes.NotFound:
			increment := step
			if increment <= 0 {
				increment = 1
			}
			doc := counterDocument{
				CurrentValue: increment,
				Step:         increment,
				UpdatedAt:    now,
			}
			if err := tx.Create(ref, doc); err != nil {
				return err
			}
			nextValue = doc.CurrentValue
			return nil
		case codes.OK:
			// proceed
		default:
			return err
		}

		var doc counterDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return fmt.Errorf("firestore counters decode %s: %w", id, err)
		}

		advanced, err := advanceCounter(id, doc, step, now)
		if err != nil {
			return err
		}

		if err := tx.Set(ref, advanced.mergePayload(), firestore.MergeAll); err != nil {
			return err
		}
		nextValue = advanced.CurrentValue
		return nil
	})
	if err != nil {
		var counterErr *repositories.CounterError
		if errors.As(err, &counterErr) {
			return 0, counterErr
		}
		return 0, repositories.NewCounterError(repositories.CounterErrorUnavailable, fmt.Sprintf("counter %s increment failed", id), pfirestore.WrapError("counters.next", err))
	}
	return nextValue, nil
}

// advanceCounter applies one increment to a decoded counter document. A zero
// step falls back to the stored step, then to 1. Crossing the configured max
// value yields CounterErrorExhausted without touching the document.
func advanceCounter(id string, doc counterDocument, step int64, now time.Time) (counterDocument, error) {
	increment := step
	if increment <= 0 {
		if doc.Step > 0 {
			increment = doc.Step
		} else {
			increment = 1
		}
	}

	newValue := doc.CurrentValue + increment
	if doc.MaxValue != nil && newValue > *doc.MaxValue {
		return counterDocument{}, repositories.NewCounterError(repositories.CounterErrorExhausted, fmt.Sprintf("counter %s exceeded max value %d", id, *doc.MaxValue), nil)
	}

	doc.CurrentValue = newValue
	doc.Step = increment
	doc.UpdatedAt = now
	return doc, nil
}

// mergePayload renders the document as map data. The Firestore client rejects
// merge writes whose data is a struct, so every MergeAll write goes through
// this representation.
func (d counterDocument) mergePayload() map[string]any {
	payload := map[string]any{
		"currentValue": d.CurrentValue,
		"step":         d.Step,
		"updatedAt":    d.UpdatedAt,
	}
	if d.MaxValue != nil {
		payload["maxValue"] = *d.MaxValue
	}
	return payload
}

// Configure updates optional settings for the counter such as step size, max value, or initial value.
func (r *CounterRepository) Configure(ctx context.Context, counterID string, config repositories.CounterConfig) error {
	if r == nil || r.provider == nil {
		return errors.New("counter repository not initialised")
	}
	id := strings.TrimSpace(counterID)
	if id == "" {
		return repositories.NewCounterError(repositories.CounterErrorInvalidInput, "counter id is required", nil)
	}

	payload := map[string]any{
		"updatedAt": r.now().UTC(),
	}
	if config.Step > 0 {
		payload["step"] = config.Step
	}
	if config.MaxValue != nil {
		payload["maxValue"] = *config.MaxValue
	}
	if config.InitialValue != nil {
		payload["currentValue"] = *config.InitialValue
	}

	ref, err := r.counters.DocumentRef(ctx, id)
	if err != nil {
		return err
	}

	if _, err := ref.Set(ctx, payload, firestore.MergeAll); err != nil {
		return pfirestore.WrapError("counters.configure", err)
	}
	return nil
}
