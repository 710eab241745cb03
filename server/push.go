package server

import (
	"net/http"
	"strconv"

	"uptimeguard/model"
	"uptimeguard/monitor"

	"github.com/gin-gonic/gin"
)

// handlePush implements the push monitor heartbeat ingestion endpoint:
// GET /api/push/<token>?status=up&msg=...&ping=<int>. Token lookup and
// the actual history write both happen outside the probe scheduler —
// a push monitor has no outbound probe of its own, it only observes
// heartbeats delivered by the thing it's monitoring.
func (s *Server) handlePush(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	m, err := s.repo.FindMonitorByPushToken(token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown token"})
		return
	}

	statusParam := c.DefaultQuery("status", "up")
	status := monitor.StatusUp
	if statusParam == "down" {
		status = monitor.StatusDown
	}

	msg := c.Query("msg")
	if msg == "" {
		if status == monitor.StatusUp {
			msg = "心跳正常"
		} else {
			msg = "心跳报告异常"
		}
	}

	var ping *int
	if raw := c.Query("ping"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			ping = &v
		}
	}

	if m.Type != model.MonitorTypePush {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token does not belong to a push monitor"})
		return
	}

	if err := s.scheduler.RecordPush(m.ID, status, msg, ping); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record heartbeat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
