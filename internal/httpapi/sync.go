package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"voicedash/internal/auth"
	"voicedash/internal/syncer"
	"voicedash/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Sync operation names. They key redis leases and audit records, so keep
// them stable.
const (
	opSyncAgents       = "sync.agents"
	opSyncCallLogs     = "sync.call_logs"
	opSyncPhoneNumbers = "sync.phone_numbers"
	opSyncVoices       = "sync.voices"
	opSyncDashboard    = "sync.dashboard"
	opSyncAll          = "sync.all"
)

// maxConcurrentSyncsPerOrg bounds distinct operations running at once for
// one org; each operation additionally holds an exclusive lease.
const maxConcurrentSyncsPerOrg = 3

// SyncAgents triggers an agent sync for the caller's org.
func (h Handlers) SyncAgents(c *gin.Context) {
	h.runSync(c, opSyncAgents, func(orgID string) syncer.Result {
		return h.Syncer.SyncAgents(c.Request.Context(), orgID)
	})
}

// SyncCallLogs triggers a call log sync. Optional query params: agent_id,
// limit, include_transcripts.
func (h Handlers) SyncCallLogs(c *gin.Context) {
	opts := syncer.CallLogOptions{
		AgentID:            c.Query("agent_id"),
		IncludeTranscripts: c.Query("include_transcripts") == "true",
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		opts.Limit = n
	}
	h.runSync(c, opSyncCallLogs, func(orgID string) syncer.Result {
		return h.Syncer.SyncCallLogs(c.Request.Context(), orgID, opts)
	})
}

func (h Handlers) SyncPhoneNumbers(c *gin.Context) {
	h.runSync(c, opSyncPhoneNumbers, func(orgID string) syncer.Result {
		return h.Syncer.SyncPhoneNumbers(c.Request.Context(), orgID)
	})
}

func (h Handlers) SyncVoices(c *gin.Context) {
	h.runSync(c, opSyncVoices, func(orgID string) syncer.Result {
		return h.Syncer.SyncVoices(c.Request.Context(), orgID)
	})
}

// SyncDashboard triggers the composite dashboard refresh (agents plus the
// latest call logs, bounded by the dashboard deadline).
func (h Handlers) SyncDashboard(c *gin.Context) {
	agentID := c.Query("agent_id")
	h.runSync(c, opSyncDashboard, func(orgID string) syncer.Result {
		return h.Syncer.SyncDashboard(c.Request.Context(), orgID, agentID)
	})
}

// SyncAll triggers a full sync across all data categories.
func (h Handlers) SyncAll(c *gin.Context) {
	h.runSync(c, opSyncAll, func(orgID string) syncer.Result {
		return h.Syncer.SyncAll(c.Request.Context(), orgID)
	})
}

// SyncStatus reports the last completion time per operation for the org.
func (h Handlers) SyncStatus(c *gin.Context) {
	orgID, err := auth.OrgID(c.Request.Context())
	if err != nil || orgID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "org_id required"})
		return
	}
	if h.Locker == nil {
		c.JSON(http.StatusOK, gin.H{"last_synced": gin.H{}})
		return
	}

	ops := []string{opSyncAgents, opSyncCallLogs, opSyncPhoneNumbers, opSyncVoices, opSyncDashboard, opSyncAll}
	out := gin.H{}
	for _, op := range ops {
		at, err := h.Locker.LastSync(c.Request.Context(), orgID, op)
		if err != nil || at.IsZero() {
			continue
		}
		out[op] = at.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, gin.H{"last_synced": out})
}

// runSync applies the shared trigger protocol: resolve the org, take the
// per-(org, op) lease, run, stamp completion, audit, respond. The sync
// result body is returned with 200 even when it carries record errors;
// 409 means another run already holds the lease.
func (h Handlers) runSync(c *gin.Context, op string, run func(orgID string) syncer.Result) {
	orgID, err := auth.OrgID(c.Request.Context())
	if err != nil || orgID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "org_id required"})
		return
	}
	if h.Syncer == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sync not configured"})
		return
	}

	if h.Locker != nil {
		acquired, err := h.Locker.TryAcquire(c.Request.Context(), orgID, op)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sync lock unavailable"})
			return
		}
		if !acquired {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "sync already running"})
			return
		}
		defer h.Locker.Release(c.Request.Context(), orgID, op)

		slot, err := h.Locker.AcquireSlot(c.Request.Context(), orgID, maxConcurrentSyncsPerOrg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sync lock unavailable"})
			return
		}
		if !slot {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many concurrent syncs"})
			return
		}
		defer h.Locker.ReleaseSlot(c.Request.Context(), orgID)
	}

	res := run(orgID)
	logger.FromGin(c).Info("sync run finished",
		"org", orgID,
		"op", op,
		"success", res.Success,
		"synced", res.SyncedCount,
		"updated", res.UpdatedCount,
		"errors", res.ErrorCount,
	)

	if h.Locker != nil && res.Success {
		// Display metadata only; the sync itself already completed.
		_ = h.Locker.RecordLastSync(c.Request.Context(), orgID, op, time.Now())
	}
	h.auditSync(c, orgID, op, res)

	c.JSON(http.StatusOK, res)
}

// auditSync records the run. Best-effort: audit failures never surface to
// the caller.
func (h Handlers) auditSync(c *gin.Context, orgID, op string, res syncer.Result) {
	if h.Audit == nil {
		return
	}
	userID, _ := auth.UserID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	meta, _ := json.Marshal(res)
	_ = h.Audit.LogSyncRun(c.Request.Context(), orgID, userID, role, c.ClientIP(), op, string(meta))
}
