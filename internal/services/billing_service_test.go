package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/kirana-pos/api/internal/domain"
	"github.com/kirana-pos/api/internal/repositories"
)

type stubBillRepository struct {
	inserted  []domain.Bill
	bills     map[string]domain.Bill
	insertErr error
}

func (s *stubBillRepository) Insert(ctx context.Context, bill domain.Bill) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, bill)
	return nil
}

func (s *stubBillRepository) FindByID(ctx context.Context, id string) (domain.Bill, error) {
	if bill, ok := s.bills[id]; ok {
		return bill, nil
	}
	return domain.Bill{}, repositories.ErrBillNotFound
}

type stubCounterRepository struct {
	values      map[string]int64
	configured  map[string]repositories.CounterConfig
	configCalls int
	nextErr     error
}

func (s *stubCounterRepository) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	if s.nextErr != nil {
		return 0, s.nextErr
	}
	if s.values == nil {
		s.values = make(map[string]int64)
	}
	if step <= 0 {
		step = 1
	}
	s.values[counterID] += step
	if cfg, ok := s.configured[counterID]; ok && cfg.MaxValue != nil && s.values[counterID] > *cfg.MaxValue {
		return 0, repositories.NewCounterError(repositories.CounterErrorExhausted, "counter "+counterID+" exhausted", nil)
	}
	return s.values[counterID], nil
}

func (s *stubCounterRepository) Configure(ctx context.Context, counterID string, cfg repositories.CounterConfig) error {
	if s.configured == nil {
		s.configured = make(map[string]repositories.CounterConfig)
	}
	s.configured[counterID] = cfg
	s.configCalls++
	return nil
}

func newTestBillingService(t *testing.T, bills *stubBillRepository, counters *stubCounterRepository, maxPerStore int64) BillingService {
	t.Helper()
	svc, err := NewBillingService(BillingServiceDeps{
		Bills:        bills,
		Counters:     counters,
		NumberPrefix: "BILLNO",
		NumberWidth:  4,
		MaxPerStore:  maxPerStore,
		Clock:        func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
		IDGenerator:  func() string { return "bill_fixed" },
	})
	if err != nil {
		t.Fatalf("NewBillingService returned error: %v", err)
	}
	return svc
}

func TestNewBillingServiceValidatesDeps(t *testing.T) {
	cases := []struct {
		name string
		deps BillingServiceDeps
	}{
		{name: "missing bills", deps: BillingServiceDeps{Counters: &stubCounterRepository{}, NumberPrefix: "BILLNO", NumberWidth: 4}},
		{name: "missing counters", deps: BillingServiceDeps{Bills: &stubBillRepository{}, NumberPrefix: "BILLNO", NumberWidth: 4}},
		{name: "blank prefix", deps: BillingServiceDeps{Bills: &stubBillRepository{}, Counters: &stubCounterRepository{}, NumberWidth: 4}},
		{name: "zero width", deps: BillingServiceDeps{Bills: &stubBillRepository{}, Counters: &stubCounterRepository{}, NumberPrefix: "BILLNO"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewBillingService(tc.deps); err == nil {
				t.Fatal("expected constructor error")
			}
		})
	}
}

func TestNextBillNumberSequencesPerStore(t *testing.T) {
	counters := &stubCounterRepository{}
	svc := newTestBillingService(t, &stubBillRepository{}, counters, 0)

	first, err := svc.NextBillNumber(context.Background(), "store-1")
	if err != nil {
		t.Fatalf("NextBillNumber returned error: %v", err)
	}
	if first != "BILLNO0001" {
		t.Fatalf("expected BILLNO0001, got %q", first)
	}

	second, err := svc.NextBillNumber(context.Background(), "store-1")
	if err != nil {
		t.Fatalf("NextBillNumber returned error: %v", err)
	}
	if second != "BILLNO0002" {
		t.Fatalf("expected BILLNO0002, got %q", second)
	}

	other, err := svc.NextBillNumber(context.Background(), "store-2")
	if err != nil {
		t.Fatalf("NextBillNumber returned error: %v", err)
	}
	if other != "BILLNO0001" {
		t.Fatalf("expected independent sequence BILLNO0001, got %q", other)
	}
}

func TestNextBillNumberRequiresStore(t *testing.T) {
	svc := newTestBillingService(t, &stubBillRepository{}, &stubCounterRepository{}, 0)

	_, err := svc.NextBillNumber(context.Background(), " ")
	if !errors.Is(err, ErrBillingInvalidInput) {
		t.Fatalf("expected ErrBillingInvalidInput, got %v", err)
	}
}

func TestNextBillNumberConfiguresCeilingOnce(t *testing.T) {
	counters := &stubCounterRepository{}
	svc := newTestBillingService(t, &stubBillRepository{}, counters, 2)

	for i := 0; i < 2; i++ {
		if _, err := svc.NextBillNumber(context.Background(), "store-1"); err != nil {
			t.Fatalf("NextBillNumber returned error: %v", err)
		}
	}
	if counters.configCalls != 1 {
		t.Fatalf("expected one Configure call, got %d", counters.configCalls)
	}
	cfg, ok := counters.configured["bills:store-1"]
	if !ok || cfg.MaxValue == nil || *cfg.MaxValue != 2 {
		t.Fatalf("unexpected counter configuration %+v", cfg)
	}

	_, err := svc.NextBillNumber(context.Background(), "store-1")
	if !errors.Is(err, ErrBillingExhausted) {
		t.Fatalf("expected ErrBillingExhausted, got %v", err)
	}
}

func TestCreateBillPersistsWithComputedTotal(t *testing.T) {
	bills := &stubBillRepository{}
	svc := newTestBillingService(t, bills, &stubCounterRepository{}, 0)

	bill, err := svc.CreateBill(context.Background(), CreateBillCommand{
		StoreID:   "store-1",
		CashierID: "user-7",
		Items: []BillItem{
			{ProductID: "p1", Code: "RICE001", Name: "Basmati Rice", Quantity: 2, UnitPrice: 9500},
			{ProductID: "p2", Code: "DAL001", Name: "Toor Dal", Quantity: 1, UnitPrice: 12000},
		},
	})
	if err != nil {
		t.Fatalf("CreateBill returned error: %v", err)
	}
	if bill.ID != "bill_fixed" {
		t.Fatalf("expected injected bill id, got %q", bill.ID)
	}
	if bill.Number != "BILLNO0001" {
		t.Fatalf("expected BILLNO0001, got %q", bill.Number)
	}
	if bill.Total != 31000 {
		t.Fatalf("expected total 31000, got %d", bill.Total)
	}
	if bill.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}
	if len(bills.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(bills.inserted))
	}
}

func TestCreateBillValidatesItems(t *testing.T) {
	svc := newTestBillingService(t, &stubBillRepository{}, &stubCounterRepository{}, 0)

	cases := []struct {
		name string
		cmd  CreateBillCommand
	}{
		{name: "no items", cmd: CreateBillCommand{StoreID: "store-1"}},
		{name: "blank store", cmd: CreateBillCommand{Items: []BillItem{{ProductID: "p1", Quantity: 1}}}},
		{name: "missing product", cmd: CreateBillCommand{StoreID: "store-1", Items: []BillItem{{Quantity: 1}}}},
		{name: "zero quantity", cmd: CreateBillCommand{StoreID: "store-1", Items: []BillItem{{ProductID: "p1"}}}},
		{name: "negative price", cmd: CreateBillCommand{StoreID: "store-1", Items: []BillItem{{ProductID: "p1", Quantity: 1, UnitPrice: -1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateBill(context.Background(), tc.cmd); !errors.Is(err, ErrBillingInvalidInput) {
				t.Fatalf("expected ErrBillingInvalidInput, got %v", err)
			}
		})
	}
}

func TestGetBill(t *testing.T) {
	bills := &stubBillRepository{bills: map[string]domain.Bill{
		"b1": {ID: "b1", Number: "BILLNO0001", StoreID: "store-1"},
	}}
	svc := newTestBillingService(t, bills, &stubCounterRepository{}, 0)

	bill, err := svc.GetBill(context.Background(), "b1")
	if err != nil {
		t.Fatalf("GetBill returned error: %v", err)
	}
	if bill.Number != "BILLNO0001" {
		t.Fatalf("unexpected bill %+v", bill)
	}

	if _, err := svc.GetBill(context.Background(), "ghost"); !errors.Is(err, ErrBillNotFound) {
		t.Fatalf("expected ErrBillNotFound, got %v", err)
	}
}
