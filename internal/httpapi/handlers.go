package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"voicedash/internal/audiostore"
	"voicedash/internal/audit"
	"voicedash/internal/auth"
	"voicedash/internal/rbac"
	"voicedash/internal/reporting"
	"voicedash/internal/store"
	"voicedash/internal/syncer"
	"voicedash/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth      *auth.Manager
	Store     store.Store
	Syncer    *syncer.Service
	Locker    *syncer.Locker
	Reporting *reporting.Service
	Audit     *audit.Service
	Audio     *audiostore.Store
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.OrgID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, org_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.OrgID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Agents ---

func (h Handlers) ListAgents(c *gin.Context) {
	orgID, err := auth.OrgID(c.Request.Context())
	if err != nil || orgID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "org_id required"})
		return
	}
	agents, err := h.Store.ListAgents(c.Request.Context(), orgID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agent listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

// --- Call logs ---

func (h Handlers) ListCallLogs(c *gin.Context) {
	orgID, err := auth.OrgID(c.Request.Context())
	if err != nil || orgID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "org_id required"})
		return
	}

	filter := store.CallLogFilter{
		AgentID: c.Query("agent_id"),
		Status:  c.Query("status"),
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		filter.Limit = n
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		filter.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
		filter.To = t
	}

	logs, err := h.Store.ListCallLogs(c.Request.Context(), orgID, filter)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call log listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"call_logs": logs})
}

func (h Handlers) GetCallLog(c *gin.Context) {
	orgID, err := auth.OrgID(c.Request.Context())
	if err != nil || orgID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "org_id required"})
		return
	}
	conversationID := c.Param("conversation_id")
	if conversationID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "conversation_id required"})
		return
	}
	cl, err := h.Store.GetCallLogByConversationID(c.Request.Context(), orgID, conversationID)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call log not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call log lookup failed"})
		return
	}
	c.JSON(http.StatusOK, cl)
}

// --- Reports ---

func (h Handlers) CallsReport(c *gin.Context) {
	orgID, err := auth.OrgID(c.Request.Context())
	if err != nil || orgID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "org_id required"})
		return
	}

	rng, ok := parseRange(c)
	if !ok {
		return
	}
	summary, err := h.Reporting.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
		OrgID:   orgID,
		Range:   rng,
		AgentID: c.Query("agent_id"),
	})
	if errors.Is(err, reporting.ErrInvalidRequest) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid report range"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h Handlers) VendorReport(c *gin.Context) {
	orgID, err := auth.OrgID(c.Request.Context())
	if err != nil || orgID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "org_id required"})
		return
	}

	rng, ok := parseRange(c)
	if !ok {
		return
	}
	breakdown, err := h.Reporting.VendorBreakdown(c.Request.Context(), reporting.VendorBreakdownRequest{
		OrgID: orgID,
		Range: rng,
	})
	if errors.Is(err, reporting.ErrInvalidRequest) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid report range"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// parseRange reads from/to query params, defaulting to the trailing 30 days.
func parseRange(c *gin.Context) (reporting.TimeRange, bool) {
	rng := reporting.TimeRange{
		From: time.Now().UTC().Add(-30 * 24 * time.Hour),
		To:   time.Now().UTC(),
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return rng, false
		}
		rng.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return rng, false
		}
		rng.To = t
	}
	return rng, true
}

// --- Audio playback ---

// ServeAudio streams a stored recording. The key is sanitized before any
// filesystem access; tampered keys fall through to 404.
func (h Handlers) ServeAudio(c *gin.Context) {
	key := audiostore.SanitizeKey(c.Param("key"))
	if key == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "audio key required"})
		return
	}

	f, err := h.Audio.Open(key)
	if errors.Is(err, audiostore.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "recording not found"})
		return
	}
	if err != nil {
		logger.From(c.Request.Context()).Error("recording open failed", "key", key, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "recording open failed"})
		return
	}
	defer f.Close()

	contentType := "audio/mpeg"
	if meta, err := h.Audio.ReadMetadata(key); err == nil && meta.ContentType != "" {
		contentType = meta.ContentType
	}
	c.Header("Content-Type", contentType)
	// ServeContent handles range requests for scrubbing in the player.
	http.ServeContent(c.Writer, c.Request, key, time.Time{}, f)
}

// Convenience middleware bundles.

func RequireOrgAndAnyRole(roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{rbac.RequireOrg(), rbac.RequireAnyRole(roles...)}
}
