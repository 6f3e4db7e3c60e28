package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SyncDashboard is the composite refresh behind the dashboard: agents
// first, then a small page of call logs without transcripts (the most
// expensive fetch, deferred to explicit full syncs).
//
// The composite is raced against a wall-clock deadline. When the deadline
// fires first the caller gets a failed result with a single timeout error;
// the in-flight sub-operations are not forcibly cancelled, only the caller
// unblocks.
func (s *Service) SyncDashboard(ctx context.Context, orgID, agentID string) Result {
	start := s.now()

	done := make(chan Result, 1)
	go func() {
		res := s.SyncAgents(ctx, orgID)
		res.merge(s.SyncCallLogs(ctx, orgID, CallLogOptions{
			AgentID:            agentID,
			Limit:              dashboardCallLogPageSize,
			IncludeTranscripts: false,
		}))
		done <- res
	}()

	select {
	case res := <-done:
		return s.finish(res, start)
	case <-time.After(s.dashboardTimeout):
		s.log.Error("dashboard sync timed out", "org", orgID, "timeout", s.dashboardTimeout)
		return s.finish(failed(fmt.Sprintf("dashboard sync timed out after %s", s.dashboardTimeout)), start)
	}
}

// SyncAll runs the four data categories concurrently with a
// failure-tolerant join: one category's failure never cancels the others,
// and the merged result keeps every category's accounting.
func (s *Service) SyncAll(ctx context.Context, orgID string) Result {
	start := s.now()

	ops := []func(context.Context, string) Result{
		s.SyncAgents,
		func(ctx context.Context, org string) Result {
			return s.SyncCallLogs(ctx, org, CallLogOptions{IncludeTranscripts: true})
		},
		s.SyncPhoneNumbers,
		s.SyncVoices,
	}

	results := make([]Result, len(ops))
	var wg sync.WaitGroup
	for i, op := range ops {
		wg.Add(1)
		go func(i int, op func(context.Context, string) Result) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = failed(fmt.Sprintf("sync category panicked: %v", r))
				}
			}()
			results[i] = op(ctx, orgID)
		}(i, op)
	}
	wg.Wait()

	merged := Result{Success: true}
	for _, r := range results {
		merged.merge(r)
	}
	return s.finish(merged, start)
}
