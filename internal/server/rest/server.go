// Package rest exposes the accountability services over HTTP using gin.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/accountability/internal/logging"
	"github.com/dmitrijs2005/accountability/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Services groups the business services the API is built on.
type Services struct {
	Users           *services.UserService
	Accomplishments *services.AccomplishmentService
	Dashboard       *services.DashboardService
	Export          *services.ExportService
}

type Server struct {
	address   string
	svc       Services
	logger    logging.Logger
	jwtSecret []byte
	engine    *gin.Engine
}

func NewServer(address string, l logging.Logger, svc Services, secretKey string, corsOrigins []string) *Server {
	s := &Server{
		address:   address,
		svc:       svc,
		logger:    l.With("module", "rest_server"),
		jwtSecret: []byte(secretKey),
	}
	s.engine = s.routes(corsOrigins)
	return s
}

// Handler returns the HTTP handler with all routes and middleware attached.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", accessTokenHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

func (s *Server) routes(corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), cors.New(corsConfig(corsOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := s.authRequired()

	users := r.Group("/users")
	{
		users.POST("/auth", s.authenticate)
		users.GET("", authed, s.listUsers)
		users.POST("", authed, s.createUser)
		users.GET("/:id", authed, s.getUser)
		users.PATCH("/:id", authed, s.updateUser)
		users.DELETE("/:id", authed, s.deleteUser)
	}

	acc := r.Group("/accomplishments")
	{
		acc.GET("", authed, s.listAccomplishments)
		acc.PUT("", authed, s.saveAccomplishment)
		acc.GET("/dashboard", s.dashboard)
		acc.POST("/dashboard/export", authed, s.exportDashboard)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(context.Background(), "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
