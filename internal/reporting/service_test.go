package reporting

import (
	"context"
	"testing"
	"time"

	"voicedash/internal/store"
)

func seedCallLogs(t *testing.T, mem *store.Memory, logs ...store.CallLog) {
	t.Helper()
	for _, cl := range logs {
		if _, err := mem.CreateCallLog(context.Background(), cl); err != nil {
			t.Fatalf("seed call log: %v", err)
		}
	}
}

func TestCallsSummary_OrgIsolation(t *testing.T) {
	mem := store.NewMemory()
	now := time.Unix(1700000000, 0).UTC()
	seedCallLogs(t, mem,
		store.CallLog{OrgID: "org1", ConversationID: "c1", Status: "completed", DurationSeconds: 60, CostMinor: 150, StartedAt: now, AudioStatus: store.AudioStatusAvailable},
		store.CallLog{OrgID: "org1", ConversationID: "c2", Status: "failed", DurationSeconds: 10, CostMinor: 20, StartedAt: now},
		store.CallLog{OrgID: "org2", ConversationID: "c3", Status: "completed", DurationSeconds: 500, CostMinor: 900, StartedAt: now},
	)

	svc := NewService(mem)
	got, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		OrgID: "org1",
		Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.TotalCalls != 2 || got.CompletedCalls != 1 || got.FailedCalls != 1 {
		t.Fatalf("unexpected counts: %+v", got)
	}
	if got.TotalDurationSeconds != 70 || got.AverageDurationSeconds != 35 {
		t.Fatalf("unexpected durations: %+v", got)
	}
	if got.TotalCostMinor != 170 || got.AverageCostMinor != 85 {
		t.Fatalf("unexpected costs: %+v", got)
	}
	if got.RecordedCalls != 1 {
		t.Fatalf("unexpected recorded count: %+v", got)
	}
}

func TestCallsSummary_RangeFiltering(t *testing.T) {
	mem := store.NewMemory()
	now := time.Unix(1700000000, 0).UTC()
	seedCallLogs(t, mem,
		store.CallLog{OrgID: "org1", ConversationID: "c1", Status: "completed", StartedAt: now},
		store.CallLog{OrgID: "org1", ConversationID: "c2", Status: "completed", StartedAt: now.Add(-48 * time.Hour)},
	)

	svc := NewService(mem)
	got, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		OrgID: "org1",
		Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.TotalCalls != 1 {
		t.Fatalf("expected range filter to exclude old call, got %+v", got)
	}
}

func TestCallsSummary_RejectsInvalidRange(t *testing.T) {
	svc := NewService(store.NewMemory())
	now := time.Now()
	_, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		OrgID: "org1",
		Range: TimeRange{From: now, To: now.Add(-time.Hour)},
	})
	if err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestVendorBreakdown(t *testing.T) {
	mem := store.NewMemory()
	now := time.Unix(1700000000, 0).UTC()
	seedCallLogs(t, mem,
		store.CallLog{OrgID: "org1", ConversationID: "c1", Vendor: "vapi", CostMinor: 100, StartedAt: now},
		store.CallLog{OrgID: "org1", ConversationID: "c2", Vendor: "vapi", CostMinor: 50, StartedAt: now},
		store.CallLog{OrgID: "org1", ConversationID: "c3", Vendor: "gateway", CostMinor: 30, StartedAt: now},
	)

	svc := NewService(mem)
	got, err := svc.VendorBreakdown(context.Background(), VendorBreakdownRequest{
		OrgID: "org1",
		Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(got.Vendors) != 2 {
		t.Fatalf("expected two vendors, got %+v", got)
	}
	// sorted by vendor name
	if got.Vendors[0].Vendor != "gateway" || got.Vendors[1].TotalCalls != 2 || got.Vendors[1].TotalCostMinor != 150 {
		t.Fatalf("unexpected breakdown: %+v", got)
	}
}
