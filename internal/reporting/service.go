package reporting

import (
	"context"
	"errors"
	"sort"

	"voicedash/internal/store"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Service aggregates synced call logs into dashboard metrics. It reads the
// same rows the sync engine maintains; it never talks to vendors itself.
type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service { return &Service{store: st} }

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.OrgID == "" {
		return CallsSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.store == nil {
		return CallsSummary{}, errors.New("reporting: store not configured")
	}

	rows, err := s.store.ListCallLogs(ctx, req.OrgID, store.CallLogFilter{
		AgentID: req.AgentID,
		From:    req.Range.From,
		To:      req.Range.To,
	})
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{OrgID: req.OrgID, AgentID: req.AgentID}
	for _, cl := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += cl.DurationSeconds
		out.TotalCostMinor += cl.CostMinor
		if cl.AudioStatus == store.AudioStatusAvailable {
			out.RecordedCalls++
		}
		switch cl.Status {
		case "completed", "ended":
			out.CompletedCalls++
		case "failed", "error":
			out.FailedCalls++
		case "in_progress", "in-progress", "ongoing":
			out.InProgressCalls++
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
		out.AverageCostMinor = out.TotalCostMinor / int64(out.TotalCalls)
	}
	return out, nil
}

func (s *Service) VendorBreakdown(ctx context.Context, req VendorBreakdownRequest) (VendorBreakdown, error) {
	if req.OrgID == "" {
		return VendorBreakdown{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return VendorBreakdown{}, ErrInvalidRequest
	}
	if s.store == nil {
		return VendorBreakdown{}, errors.New("reporting: store not configured")
	}

	rows, err := s.store.ListCallLogs(ctx, req.OrgID, store.CallLogFilter{
		From: req.Range.From,
		To:   req.Range.To,
	})
	if err != nil {
		return VendorBreakdown{}, err
	}

	byVendor := map[string]*VendorStats{}
	for _, cl := range rows {
		st, ok := byVendor[cl.Vendor]
		if !ok {
			st = &VendorStats{Vendor: cl.Vendor}
			byVendor[cl.Vendor] = st
		}
		st.TotalCalls++
		st.TotalCostMinor += cl.CostMinor
	}

	out := VendorBreakdown{OrgID: req.OrgID, Vendors: make([]VendorStats, 0, len(byVendor))}
	for _, st := range byVendor {
		out.Vendors = append(out.Vendors, *st)
	}
	sort.Slice(out.Vendors, func(i, j int) bool { return out.Vendors[i].Vendor < out.Vendors[j].Vendor })
	return out, nil
}
