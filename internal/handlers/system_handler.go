package handlers

import (
	"net/http"
	"time"

	"go-pos-ventas/internal/utils"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/system/status ---
// Identifies this server to the tills and reports what it is wired to.
func (h *Handler) GetSystemStatus(c *gin.Context) {
	dbStatus := "online"
	if sqlDB, err := h.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		dbStatus = "unreachable"
	}

	c.JSON(http.StatusOK, gin.H{
		"device_id":       utils.GetDeviceID(),
		"database":        h.Config.DBDriver,
		"database_status": dbStatus,
		"realtime":        h.RealtimeMode,
		"event_listeners": h.Hub.Subscribers(),
		"assistant":       h.Agent.Enabled(),
		"uptime_seconds":  int64(time.Since(h.startedAt).Seconds()),
	})
}
