package syncer

import "fmt"

// Result is the stable contract returned by every sync operation. Any
// caller (scheduler, CLI, HTTP handler) depends on this shape.
//
// A run that skipped some records still reports Success=true with a
// non-zero ErrorCount; Success=false means the operation did not run
// (engine-level failure or timeout).
type Result struct {
	Success        bool     `json:"success"`
	SyncedCount    int      `json:"synced_count"`
	UpdatedCount   int      `json:"updated_count"`
	ErrorCount     int      `json:"error_count"`
	Errors         []string `json:"errors"`
	DurationMillis int64    `json:"duration_ms"`
}

func (r *Result) addError(format string, args ...any) {
	r.ErrorCount++
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// merge folds other into r. Counts sum, errors append, and Success stays
// true only when every merged result succeeded.
func (r *Result) merge(other Result) {
	r.Success = r.Success && other.Success
	r.SyncedCount += other.SyncedCount
	r.UpdatedCount += other.UpdatedCount
	r.ErrorCount += other.ErrorCount
	r.Errors = append(r.Errors, other.Errors...)
}

func failed(reason string) Result {
	return Result{Success: false, ErrorCount: 1, Errors: []string{reason}}
}
