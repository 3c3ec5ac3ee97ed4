package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/kirana-pos/api/internal/domain"
)

type stubHealthRepository struct {
	report domain.HealthReport
	err    error
	calls  int
}

func (s *stubHealthRepository) Collect(ctx context.Context) (domain.HealthReport, error) {
	s.calls++
	return s.report, s.err
}

func TestNewSystemServiceRequiresHealthRepository(t *testing.T) {
	if _, err := NewSystemService(SystemServiceDeps{}); err == nil {
		t.Fatal("expected error when health repository is missing")
	}
}

func TestHealthReportFillsBuildMetadata(t *testing.T) {
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := &stubHealthRepository{report: domain.HealthReport{
		Status: domain.HealthStatusOK,
		Checks: map[string]domain.HealthCheck{
			"firestore": {Status: domain.HealthStatusOK},
		},
	}}

	svc, err := NewSystemService(SystemServiceDeps{
		HealthRepository: repo,
		Clock:            func() time.Time { return now },
		Build:            BuildInfo{Version: "1.4.0", Environment: "production", StartedAt: started},
	})
	if err != nil {
		t.Fatalf("NewSystemService returned error: %v", err)
	}

	report, err := svc.HealthReport(context.Background())
	if err != nil {
		t.Fatalf("HealthReport returned error: %v", err)
	}
	if report.Version != "1.4.0" || report.Environment != "production" {
		t.Fatalf("expected build metadata, got %+v", report)
	}
	if report.Uptime != 2*time.Hour {
		t.Fatalf("expected 2h uptime, got %s", report.Uptime)
	}
	if report.CheckedAt != now {
		t.Fatalf("expected CheckedAt %s, got %s", now, report.CheckedAt)
	}
	if repo.calls != 1 {
		t.Fatalf("expected one Collect call, got %d", repo.calls)
	}
}

func TestHealthReportDerivesStatusFromChecks(t *testing.T) {
	repo := &stubHealthRepository{report: domain.HealthReport{
		Checks: map[string]domain.HealthCheck{
			"firestore": {Status: domain.HealthStatusDegraded, Detail: "slow responses"},
		},
	}}

	svc, err := NewSystemService(SystemServiceDeps{HealthRepository: repo})
	if err != nil {
		t.Fatalf("NewSystemService returned error: %v", err)
	}

	report, err := svc.HealthReport(context.Background())
	if err != nil {
		t.Fatalf("HealthReport returned error: %v", err)
	}
	if report.Status != domain.HealthStatusDegraded {
		t.Fatalf("expected degraded status, got %q", report.Status)
	}
}

func TestHealthReportPropagatesCollectError(t *testing.T) {
	repo := &stubHealthRepository{err: errors.New("probe failed")}

	svc, err := NewSystemService(SystemServiceDeps{HealthRepository: repo})
	if err != nil {
		t.Fatalf("NewSystemService returned error: %v", err)
	}

	if _, err := svc.HealthReport(context.Background()); err == nil {
		t.Fatal("expected error from Collect to propagate")
	}
}
