package productcode

import (
	"errors"
	"testing"

	"github.com/kirana-pos/api/internal/domain"
)

func TestSyncFields(t *testing.T) {
	fields, err := SyncFields(domain.Product{ID: "p1", Code: "MILK001", QRCode: "OLD123"})
	if err != nil {
		t.Fatalf("sync fields: %v", err)
	}
	want := domain.CodeFields{Code: "MILK001", Barcode: "MILK001", QRCode: "MILK001"}
	if fields != want {
		t.Fatalf("unexpected fields %+v", fields)
	}
}

func TestSyncFieldsMissingCode(t *testing.T) {
	_, err := SyncFields(domain.Product{ID: "p1", Name: "Basmati Rice"})
	if !errors.Is(err, ErrMissingCode) {
		t.Fatalf("expected ErrMissingCode, got %v", err)
	}
}

func TestPlanSyncCountsUpdatedAndSkipped(t *testing.T) {
	catalog := []domain.Product{
		{ID: "p1", Code: "RICE001", Barcode: "RICE001", QRCode: "RICE001"},
		{ID: "p2", Code: "MILK001", Barcode: "MILK001", QRCode: "MILK001"},
		{ID: "p3", Code: "SOAP001", Barcode: "SOAP001", QRCode: "SOAP001"},
		{ID: "p4", Code: "TEA001", Barcode: "", QRCode: "TEA001"},
		{ID: "p5", Code: "OIL001", Barcode: "OIL001", QRCode: "ST001_DAIRY_000001"},
	}

	plan := PlanSync(catalog)
	if plan.Updated() != 2 {
		t.Fatalf("expected 2 updates, got %d", plan.Updated())
	}
	if plan.Skipped() != 3 {
		t.Fatalf("expected 3 skipped, got %d", plan.Skipped())
	}
	for _, update := range plan.Updates {
		if update.Fields.Barcode != update.Fields.Code || update.Fields.QRCode != update.Fields.Code {
			t.Fatalf("plan breaks sync invariant: %+v", update.Fields)
		}
	}
}

func TestPlanSyncSkipsProductsWithoutCode(t *testing.T) {
	catalog := []domain.Product{
		{ID: "p1", Name: "Basmati Rice"},
		{ID: "p2", Code: "MILK001", Barcode: "MILK001", QRCode: "MILK001"},
	}

	plan := PlanSync(catalog)
	if plan.Updated() != 0 {
		t.Fatalf("expected no updates, got %d", plan.Updated())
	}
	if plan.Skipped() != 2 {
		t.Fatalf("expected 2 skipped, got %d", plan.Skipped())
	}
	if len(plan.MissingCode) != 1 || plan.MissingCode[0] != "p1" {
		t.Fatalf("expected p1 flagged as missing code, got %v", plan.MissingCode)
	}
}

func TestPlanGenerateMissingAvoidsIntraBatchCollisions(t *testing.T) {
	catalog := []domain.Product{
		{ID: "p1", Name: "Apple Juice"},
		{ID: "p2", Name: "Apple Pie"},
	}

	plan := PlanGenerateMissing(catalog)
	if plan.Generated() != 2 {
		t.Fatalf("expected 2 generated, got %d", plan.Generated())
	}
	// "Apple Juice" hits the juice keyword; "Apple Pie" falls back to APPL.
	if plan.Updates[0].Fields.Code != "JUICE001" {
		t.Fatalf("expected JUICE001, got %s", plan.Updates[0].Fields.Code)
	}
	if plan.Updates[1].Fields.Code != "APPL001" {
		t.Fatalf("expected APPL001, got %s", plan.Updates[1].Fields.Code)
	}
	if plan.Updates[0].Fields.Code == plan.Updates[1].Fields.Code {
		t.Fatal("generated codes must be unique within the batch")
	}
}

func TestPlanGenerateMissingSameCategoryTakesNextSequence(t *testing.T) {
	catalog := []domain.Product{
		{ID: "p1", Name: "Basmati Rice"},
		{ID: "p2", Name: "Jasmine Rice"},
		{ID: "p3", Name: "Brown Rice", Code: "RICE003", Barcode: "RICE003", QRCode: "RICE003"},
	}

	plan := PlanGenerateMissing(catalog)
	if plan.Generated() != 2 {
		t.Fatalf("expected 2 generated, got %d", plan.Generated())
	}
	if plan.Updates[0].Fields.Code != "RICE001" {
		t.Fatalf("expected RICE001, got %s", plan.Updates[0].Fields.Code)
	}
	// RICE002 is free; RICE003 is taken by the existing product.
	if plan.Updates[1].Fields.Code != "RICE002" {
		t.Fatalf("expected RICE002, got %s", plan.Updates[1].Fields.Code)
	}
}

func TestPlanGenerateMissingSetsAllThreeFields(t *testing.T) {
	plan := PlanGenerateMissing([]domain.Product{{ID: "p1", Name: "Green Tea"}})
	if plan.Generated() != 1 {
		t.Fatalf("expected 1 generated, got %d", plan.Generated())
	}
	fields := plan.Updates[0].Fields
	if fields.Code == "" || fields.Barcode != fields.Code || fields.QRCode != fields.Code {
		t.Fatalf("generated fields not synchronized: %+v", fields)
	}
	if !IsValid(fields.Code) {
		t.Fatalf("generated code %q is not current-format", fields.Code)
	}
}

func TestPlanGenerateMissingExhaustion(t *testing.T) {
	catalog := make([]domain.Product, 0, generateBudget+1)
	for n := 1; n <= generateBudget; n++ {
		catalog = append(catalog, domain.Product{
			ID:   SimpleCode{Prefix: "id", Sequence: n}.String(),
			Code: SimpleCode{Prefix: "TEA", Sequence: n}.String(),
		})
	}
	catalog = append(catalog, domain.Product{ID: "newcomer", Name: "Green Tea"})

	plan := PlanGenerateMissing(catalog)
	if plan.Generated() != 0 {
		t.Fatalf("expected no codes generated, got %d", plan.Generated())
	}
	if len(plan.Exhausted) != 1 || plan.Exhausted[0] != "newcomer" {
		t.Fatalf("expected newcomer flagged exhausted, got %v", plan.Exhausted)
	}
}

func TestSummarise(t *testing.T) {
	catalog := []domain.Product{
		{ID: "p1", Code: "RICE001", Barcode: "RICE001", QRCode: "RICE001"},
		{ID: "p2", Code: "MILK001"},
		{ID: "p3"},
	}

	status := Summarise(catalog)
	if status.Total != 3 {
		t.Fatalf("expected total 3, got %d", status.Total)
	}
	if status.WithCode != 2 || status.WithoutCode != 1 {
		t.Fatalf("unexpected code counts: %+v", status)
	}
	if status.WithBarcode != 1 || status.WithoutBarcode != 2 {
		t.Fatalf("unexpected barcode counts: %+v", status)
	}
	if status.FullySynced != 1 {
		t.Fatalf("expected 1 fully synced, got %d", status.FullySynced)
	}
}
