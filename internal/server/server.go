package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pollbox/config"
	"pollbox/internal/handler"
	"pollbox/internal/middleware"
	"pollbox/internal/ratelimit"
	"pollbox/internal/transport/httpdto"
	"pollbox/internal/websocket"
	"pollbox/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Polls    *handler.PollHandler
	Votes    *handler.VoteHandler
	Profiles *handler.ProfileHandler
	Live     *websocket.Handler
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) SetupRoutes(
	handlers *Handlers,
	auth middleware.Authenticator,
	limiter ratelimit.Limiter,
	policies ratelimit.Policies,
	checks map[string]HealthCheck,
) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		for name, check := range checks {
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(name+": "+err.Error(), "UNHEALTHY"))
				return
			}
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	requireAuth := middleware.AuthMiddleware(auth)

	polls := s.engine.Group("/v1/polls")
	{
		polls.GET("", handlers.Polls.List)
		polls.GET("/:id", handlers.Polls.Get)
		polls.POST("", requireAuth, handlers.Polls.Create)
		polls.PUT("/:id", requireAuth, handlers.Polls.Update)
		polls.DELETE("/:id", requireAuth, handlers.Polls.Delete)

		polls.POST("/:id/votes", requireAuth, handlers.Votes.Submit)
		polls.GET("/:id/vote", requireAuth, handlers.Votes.HasVoted)

		if handlers.Live != nil {
			polls.GET("/:id/live",
				middleware.QueryTokenMiddleware(auth),
				middleware.RateLimitMiddleware(limiter, ratelimit.ActionLiveConnect, policies.LiveConnect),
				handlers.Live.Live,
			)
		}
	}

	profile := s.engine.Group("/v1/profile", requireAuth)
	{
		profile.GET("", handlers.Profiles.Get)
		profile.PUT("", handlers.Profiles.Update)
		profile.DELETE("", handlers.Profiles.Delete)
	}
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(context.Background(), "starting server", zap.String("port", s.config.AppPort))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		s.logger.Error(context.Background(), "server failed", zap.Error(err))
		return err
	case <-quit:
	}

	s.logger.Info(context.Background(), "shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "graceful shutdown failed", zap.Error(err))
		return err
	}

	s.logger.Info(ctx, "server stopped gracefully")
	return nil
}
