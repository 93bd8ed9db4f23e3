// Package server exposes the tracker over the JSON HTTP API used by the web
// front end.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"habitualize/backend/store"
	"habitualize/internal/config"
	"habitualize/internal/metrics"
	"habitualize/internal/stats"
	"habitualize/internal/utils"
)

const shutdownTimeout = 10 * time.Second

// Server serves the habit and goal API.
type Server struct {
	cfg     config.ServerConfig
	store   *store.Store
	stats   *stats.Service
	metrics *metrics.Collectors
	engine  *gin.Engine
}

// New builds the router. A nil collector disables /metrics.
func New(cfg config.ServerConfig, st *store.Store, svc *stats.Service, m *metrics.Collectors) *Server {
	switch cfg.Mode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(cfg.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{cfg: cfg, store: st, stats: svc, metrics: m}

	r := gin.New()
	r.Use(Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(m))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{"Content-Length", RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/api")
	{
		api.GET("/daily-overview", s.dailyOverview)

		api.POST("/habits", s.addHabit)
		api.GET("/habits/all", s.allHabits)
		api.GET("/habits/streak/:name", s.habitStreak)
		api.POST("/habits/toggle", s.toggleHabit)
		api.POST("/habits/update", s.updateHabit)
		api.POST("/habits/archive", s.archiveHabit)
		api.POST("/habits/delete", s.deleteHabit)

		api.GET("/goals", s.listGoals)
		api.POST("/goals", s.addGoal)
		api.POST("/goals/update", s.updateGoal)
		api.POST("/goals/delete", s.deleteGoal)

		api.GET("/progress/:date", s.progressForDate)
		api.POST("/progress/toggle", s.toggleProgress)
	}

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Infof("listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	utils.Infof("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"data_dir":  s.store.Dir(),
	})
}
