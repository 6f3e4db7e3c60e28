package main

import (
	"voicedash/internal/httpapi"
	"voicedash/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Recording playback. Keys are unguessable (conversation id + unix
	// timestamp) and sanitized in the handler; auth lives on the API that
	// hands out playback paths.
	r.GET("/audio/:key", h.ServeAudio)

	// protected API group
	v1 := r.Group("/v1")
	{
		// AUTH routes (token issuance).
		// NOTE: This is a placeholder login route; real credential validation is not implemented.
		v1.POST("/auth/login", h.Login)
	}

	authed := v1.Group("")
	authed.Use(authMW)
	authed.Use(rbac.RequireOrg())
	{
		// SYNC triggers. Viewer cannot trigger vendor traffic.
		sync := authed.Group("/sync")
		sync.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAdmin, rbac.RoleAnalyst, rbac.RoleSuperAdmin))
		{
			sync.POST("/agents", h.SyncAgents)
			sync.POST("/call-logs", h.SyncCallLogs)
			sync.POST("/phone-numbers", h.SyncPhoneNumbers)
			sync.POST("/voices", h.SyncVoices)
			sync.POST("/dashboard", h.SyncDashboard)
			sync.POST("/all", h.SyncAll)
			sync.GET("/status", h.SyncStatus)
		}

		// READ routes: any org member.
		read := authed.Group("")
		read.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAdmin, rbac.RoleAnalyst, rbac.RoleViewer, rbac.RoleSuperAdmin))
		{
			read.GET("/agents", h.ListAgents)
			read.GET("/call-logs", h.ListCallLogs)
			read.GET("/call-logs/:conversation_id", h.GetCallLog)
			read.GET("/reports/calls", h.CallsReport)
			read.GET("/reports/vendors", h.VendorReport)
		}
	}
}
