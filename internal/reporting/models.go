package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallsSummaryRequest requests aggregated call metrics.
// Org isolation: OrgID is required.

type CallsSummaryRequest struct {
	OrgID   string    `json:"org_id"`
	Range   TimeRange `json:"range"`
	AgentID string    `json:"agent_id,omitempty"`
}

type CallsSummary struct {
	OrgID   string `json:"org_id"`
	AgentID string `json:"agent_id,omitempty"`

	TotalCalls      int `json:"total_calls"`
	CompletedCalls  int `json:"completed_calls"`
	FailedCalls     int `json:"failed_calls"`
	InProgressCalls int `json:"in_progress_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	TotalCostMinor   int64 `json:"total_cost_minor"`
	AverageCostMinor int64 `json:"average_cost_minor"`

	RecordedCalls int `json:"recorded_calls"`
}

// VendorBreakdownRequest requests per-vendor call distribution.

type VendorBreakdownRequest struct {
	OrgID string    `json:"org_id"`
	Range TimeRange `json:"range"`
}

type VendorStats struct {
	Vendor         string `json:"vendor"`
	TotalCalls     int    `json:"total_calls"`
	TotalCostMinor int64  `json:"total_cost_minor"`
}

type VendorBreakdown struct {
	OrgID   string        `json:"org_id"`
	Vendors []VendorStats `json:"vendors"`
}
