package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rhymednick/inw-radio-log/internal/api/handler"
	"github.com/rhymednick/inw-radio-log/internal/archive"
	"github.com/rhymednick/inw-radio-log/internal/config"
	"github.com/rhymednick/inw-radio-log/internal/inventory"
	"github.com/rhymednick/inw-radio-log/internal/ledger"
	"github.com/rhymednick/inw-radio-log/internal/photo"
	"github.com/rhymednick/inw-radio-log/internal/scheduler"
	"github.com/rhymednick/inw-radio-log/internal/users"
)

const shutdownTimeout = 10 * time.Second

var httpRequestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "radiolog",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "The total number of HTTP requests",
}, []string{"method", "route", "status"})

// Services are the components the API exposes.
type Services struct {
	Users      *users.Registry
	Inventory  *inventory.Inventory
	Ledger     *ledger.Ledger
	Photos     photo.Store
	Maintainer *archive.Maintainer
	Scheduler  *scheduler.Scheduler
}

type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	svc       Services
}

func New(cfg *config.Config, svc Services, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if svc.Users == nil || svc.Inventory == nil || svc.Ledger == nil || svc.Photos == nil ||
		svc.Maintainer == nil || svc.Scheduler == nil {
		return nil, fmt.Errorf("all services are required")
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:       cfg,
		ginEngine: gin.New(),
		svc:       svc,
	}
	s.ginEngine.Use(gin.Recovery(), requestLogger())
	s.setupRoutes()
	s.setupAdminRoutes()
	return s, nil
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

func (s *Server) setupRoutes() {
	h := handler.New(s.svc.Users, s.svc.Inventory, s.svc.Ledger, s.svc.Photos)

	s.ginEngine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.ginEngine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.ginEngine.GET(photo.URLPrefix+"*name", h.ServeImage)

	api := s.ginEngine.Group("/api")
	api.Use(gzip.Gzip(gzip.DefaultCompression))

	api.GET("/users", h.GetUsers)
	api.POST("/users", h.SaveUser)
	api.DELETE("/users", h.DeleteUser)
	api.GET("/users/:id/radios", h.GetUserRadios)

	api.GET("/radios", h.GetRadios)
	api.POST("/radios", h.UpsertRadio)
	api.PUT("/radios", h.CreateRadio)
	api.DELETE("/radios", h.DeleteRadio)
	api.POST("/radios/:id/checkout", h.CheckOutRadio)
	api.POST("/radios/:id/checkin", h.CheckInRadio)
	api.POST("/radios/:id/comments", h.AddRadioComment)

	api.GET("/checkout-log", h.GetCheckoutLog)
	api.POST("/checkout-log", h.AppendCheckoutLog)
}

func (s *Server) setupAdminRoutes() {
	h := handler.NewAdmin(s.svc.Maintainer, s.svc.Ledger, s.svc.Users, s.svc.Scheduler)

	admin := s.ginEngine.Group("/api/admin")
	admin.Use(gzip.Gzip(gzip.DefaultCompression))

	admin.POST("/backup-users", h.BackupUsers)
	admin.GET("/backups", h.GetBackups)
	admin.POST("/init-users", h.InitUsers)
	admin.POST("/archive-log", h.ArchiveLog)
	admin.POST("/init-inventory", h.InitInventory)
	admin.GET("/archives", h.GetArchives)
	admin.GET("/archive/*name", h.GetArchive)
	admin.GET("/jobs", h.GetSchedulerJobs)
	admin.POST("/jobs/:id/run", h.RunSchedulerJob)
	admin.GET("/cache/stats", h.GetCacheStats)
}

// Run serves the API until ctx is cancelled and then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
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
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	return nil
}

// requestLogger logs every request and counts it by route and status.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		httpRequestCounter.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		log.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
		)
	}
}
