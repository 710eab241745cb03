package server

import (
	"encoding/json"
	"net/http"

	"uptimeguard/idgen"
	"uptimeguard/model"

	"github.com/gin-gonic/gin"
)

type channelRequest struct {
	Name                  string             `json:"name" binding:"required"`
	Type                  model.ChannelType  `json:"type" binding:"required"`
	Enabled               *bool              `json:"enabled"`
	Config                map[string]any     `json:"config"`
	DefaultForNewMonitors bool               `json:"defaultForNewMonitors"`
}

func (s *Server) listChannels(c *gin.Context) {
	channels, err := s.repo.ListChannels()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, channels)
}

func (s *Server) createChannel(c *gin.Context) {
	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	ch := &model.NotificationChannel{
		ID:                    idgen.New(),
		Name:                  req.Name,
		Type:                  req.Type,
		Enabled:               enabled,
		DefaultForNewMonitors: req.DefaultForNewMonitors,
	}
	if err := encodeChannelConfig(ch, req.Config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config"})
		return
	}
	if err := s.repo.CreateChannel(ch); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, ch)
}

func (s *Server) updateChannel(c *gin.Context) {
	id := c.Param("id")
	existing, err := s.repo.GetChannel(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	existing.Name = req.Name
	existing.Type = req.Type
	existing.DefaultForNewMonitors = req.DefaultForNewMonitors
	if req.Enabled != nil {
		existing.Enabled = *req.Enabled
	}
	if err := encodeChannelConfig(existing, req.Config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config"})
		return
	}
	if err := s.repo.UpdateChannel(existing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, existing)
}

func (s *Server) deleteChannel(c *gin.Context) {
	if err := s.repo.DeleteChannel(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) testChannel(c *gin.Context) {
	if err := s.engine.Test(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func encodeChannelConfig(ch *model.NotificationChannel, cfg map[string]any) error {
	if cfg == nil {
		return nil
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	ch.Config = string(b)
	return nil
}
