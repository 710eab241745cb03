// Package server exposes the thin HTTP surface that plugs into the
// engine: health, push ingestion, a notification test-send endpoint,
// and glue CRUD for monitors/groups/channels. The deep logic (probing,
// retrying, deciding whether to notify) all lives in monitor and
// notification; handlers here just validate input and call into it.
package server

import (
	"net/http"
	"os"
	"time"

	"uptimeguard/db"
	"uptimeguard/monitor"
	"uptimeguard/notification"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	router    *gin.Engine
	repo      db.Repository
	scheduler *monitor.Scheduler
	engine    *notification.Engine
}

func New(repo db.Repository, scheduler *monitor.Scheduler, engine *notification.Engine) *Server {
	s := &Server{
		router:    gin.Default(),
		repo:      repo,
		scheduler: scheduler,
		engine:    engine,
	}

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if os.Getenv("DEBUG") == "true" {
		corsConfig.AllowOrigins = []string{"*"}
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	s.router.Use(cors.New(corsConfig))

	s.router.GET("/health", s.handleHealth)
	s.registerRoutes()

	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")

	api.GET("/push/:token", s.handlePush)

	api.GET("/monitors", s.listMonitors)
	api.POST("/monitors", s.createMonitor)
	api.GET("/monitors/:id", s.getMonitor)
	api.PUT("/monitors/:id", s.updateMonitor)
	api.DELETE("/monitors/:id", s.deleteMonitor)
	api.POST("/monitors/:id/pause", s.pauseMonitor)
	api.POST("/monitors/:id/resume", s.resumeMonitor)

	api.GET("/groups", s.listGroups)
	api.POST("/groups", s.createGroup)
	api.PUT("/groups/:id", s.updateGroup)
	api.DELETE("/groups/:id", s.deleteGroup)

	api.GET("/channels", s.listChannels)
	api.POST("/channels", s.createChannel)
	api.PUT("/channels/:id", s.updateChannel)
	api.DELETE("/channels/:id", s.deleteChannel)
	api.POST("/channels/:id/test", s.testChannel)
	api.PUT("/monitors/:id/bindings/:channelId", s.setBinding)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}
