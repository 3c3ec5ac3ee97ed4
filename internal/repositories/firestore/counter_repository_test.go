package firestore

import (
	"errors"
	"testing"
	"time"

	"github.com/kirana-pos/api/internal/repositories"
)

func TestAdvanceCounterTwice(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	first, err := advanceCounter("bills:store-main", counterDocument{}, 0, now)
	if err != nil {
		t.Fatalf("first advance returned error: %v", err)
	}
	if first.CurrentValue != 1 {
		t.Fatalf("expected first value 1 got %d", first.CurrentValue)
	}

	second, err := advanceCounter("bills:store-main", first, 0, now.Add(time.Second))
	if err != nil {
		t.Fatalf("second advance returned error: %v", err)
	}
	if second.CurrentValue != 2 {
		t.Fatalf("expected second value 2 got %d", second.CurrentValue)
	}
	if second.Step != 1 {
		t.Fatalf("expected step 1 got %d", second.Step)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("expected updatedAt to move forward, got %v then %v", first.UpdatedAt, second.UpdatedAt)
	}
}

func TestAdvanceCounterStoredStep(t *testing.T) {
	now := time.Now().UTC()
	doc := counterDocument{CurrentValue: 10, Step: 5}

	advanced, err := advanceCounter("bills:store-main", doc, 0, now)
	if err != nil {
		t.Fatalf("advance returned error: %v", err)
	}
	if advanced.CurrentValue != 15 {
		t.Fatalf("expected value 15 got %d", advanced.CurrentValue)
	}

	advanced, err = advanceCounter("bills:store-main", advanced, 2, now)
	if err != nil {
		t.Fatalf("advance with explicit step returned error: %v", err)
	}
	if advanced.CurrentValue != 17 {
		t.Fatalf("expected value 17 got %d", advanced.CurrentValue)
	}
	if advanced.Step != 2 {
		t.Fatalf("expected step 2 got %d", advanced.Step)
	}
}

func TestAdvanceCounterExhausted(t *testing.T) {
	maxValue := int64(3)
	doc := counterDocument{CurrentValue: 3, Step: 1, MaxValue: &maxValue}

	_, err := advanceCounter("bills:store-capped", doc, 0, time.Now().UTC())
	var counterErr *repositories.CounterError
	if !errors.As(err, &counterErr) {
		t.Fatalf("expected CounterError got %v", err)
	}
	if counterErr.Code != repositories.CounterErrorExhausted {
		t.Fatalf("expected exhausted code got %s", counterErr.Code)
	}
}

func TestCounterMergePayload(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	doc := counterDocument{CurrentValue: 7, Step: 1, UpdatedAt: now}

	payload := doc.mergePayload()
	if got := payload["currentValue"]; got != int64(7) {
		t.Fatalf("expected currentValue 7 got %#v", got)
	}
	if got := payload["step"]; got != int64(1) {
		t.Fatalf("expected step 1 got %#v", got)
	}
	if got := payload["updatedAt"]; got != now {
		t.Fatalf("expected updatedAt %v got %#v", now, got)
	}
	if _, ok := payload["maxValue"]; ok {
		t.Fatal("expected maxValue to be omitted for an unbounded counter")
	}

	maxValue := int64(9999)
	doc.MaxValue = &maxValue
	payload = doc.mergePayload()
	if got := payload["maxValue"]; got != int64(9999) {
		t.Fatalf("expected maxValue 9999 got %#v", got)
	}
}
