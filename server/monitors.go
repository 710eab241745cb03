package server

import (
	"net/http"

	"uptimeguard/idgen"
	"uptimeguard/model"

	"github.com/gin-gonic/gin"
)

type monitorRequest struct {
	Name           string                 `json:"name" binding:"required"`
	Type           model.MonitorType      `json:"type" binding:"required"`
	Interval       int                    `json:"interval"`
	Retries        int                    `json:"retries"`
	RetryInterval  int                    `json:"retryInterval"`
	ResendInterval int                    `json:"resendInterval"`
	UpsideDown     bool                   `json:"upsideDown"`
	Config         map[string]any         `json:"config"`
	GroupID        *string                `json:"groupId"`
	Description    string                 `json:"description"`
}

func (s *Server) listMonitors(c *gin.Context) {
	monitors, err := s.repo.ListActiveMonitors()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, monitors)
}

func (s *Server) getMonitor(c *gin.Context) {
	m, err := s.repo.GetMonitor(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) createMonitor(c *gin.Context) {
	var req monitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m := &model.Monitor{
		ID:             idgen.New(),
		Name:           req.Name,
		Type:           req.Type,
		Active:         true,
		Interval:       req.Interval,
		Retries:        req.Retries,
		RetryInterval:  req.RetryInterval,
		ResendInterval: req.ResendInterval,
		UpsideDown:     req.UpsideDown,
		GroupID:        req.GroupID,
		Description:    req.Description,
	}
	if err := m.EncodeConfig(req.Config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config"})
		return
	}
	if m.Interval < 1 {
		m.Interval = 60
	}

	if err := s.repo.CreateMonitor(m); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.scheduler.AddOrReplace(m.ID)
	c.JSON(http.StatusCreated, m)
}

func (s *Server) updateMonitor(c *gin.Context) {
	id := c.Param("id")
	existing, err := s.repo.GetMonitor(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var req monitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing.Name = req.Name
	existing.Type = req.Type
	existing.Interval = req.Interval
	existing.Retries = req.Retries
	existing.RetryInterval = req.RetryInterval
	existing.ResendInterval = req.ResendInterval
	existing.UpsideDown = req.UpsideDown
	existing.GroupID = req.GroupID
	existing.Description = req.Description
	if err := existing.EncodeConfig(req.Config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config"})
		return
	}

	if err := s.repo.UpdateMonitor(existing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// The running task re-reads the monitor on its next iteration, so
	// an interval/config change takes effect without restarting an
	// in-flight probe.
	c.JSON(http.StatusOK, existing)
}

func (s *Server) deleteMonitor(c *gin.Context) {
	id := c.Param("id")
	s.scheduler.Remove(id)
	if err := s.repo.DeleteMonitor(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) pauseMonitor(c *gin.Context) {
	if err := s.scheduler.Pause(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) resumeMonitor(c *gin.Context) {
	if err := s.scheduler.Resume(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) setBinding(c *gin.Context) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.repo.SetBinding(c.Param("id"), c.Param("channelId"), body.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
