package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"helpbridge/config"
	"helpbridge/internal/domain/user"
	"helpbridge/internal/handler"
	"helpbridge/internal/middleware"
	"helpbridge/internal/redis"
	"helpbridge/internal/transport/httpdto"
	"helpbridge/internal/websocket"
	"helpbridge/pkg/logger"

	"github.com/gin-gonic/gin"
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
	Requests  *handler.RequestHandler
	Matches   *handler.MatchHandler
	Messages  *handler.MessageHandler
	Users     *handler.UserHandler
	WebSocket *websocket.Handler
}

// Deps are the cross-cutting collaborators of the router.
type Deps struct {
	Auth    middleware.TokenVerifier
	Limiter middleware.Limiter
	// Health maps a dependency name to its health check.
	Health map[string]func(ctx context.Context) error
}

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

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) SetupRoutes(h *Handlers, deps Deps) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware(s.config.CORSOrigins))
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		for name, check := range deps.Health {
			if err := check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(name+": "+err.Error(), "UNHEALTHY"))
				return
			}
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	authed := middleware.AuthMiddleware(deps.Auth)

	s.engine.GET("/ws", authed, middleware.RateLimitMiddleware(deps.Limiter, redis.ActionWebSocket), h.WebSocket.Connect)

	api := s.engine.Group("/api", authed)

	requests := api.Group("/requests")
	{
		requests.POST("", middleware.RateLimitMiddleware(deps.Limiter, redis.ActionRequest), h.Requests.Create)
		requests.GET("/my-requests", h.Requests.MyRequests)
		requests.PUT("/:id/accept", h.Requests.Accept)
		requests.PUT("/:id/decline", h.Requests.Decline)
		requests.PUT("/:id/cancel", h.Requests.Cancel)
	}

	matches := api.Group("/matches")
	{
		matches.GET("", h.Matches.List)
		matches.GET("/:id", h.Matches.Get)
	}

	messages := api.Group("/messages")
	{
		messages.POST("", middleware.RateLimitMiddleware(deps.Limiter, redis.ActionMessage), h.Messages.Send)
		messages.GET("/:matchId", h.Messages.History)
		messages.PUT("/:matchId/read", h.Messages.MarkRead)
	}

	users := api.Group("/users")
	{
		users.GET("/me", h.Users.Me)
		users.GET("/helpers", h.Users.ListHelpers)
		users.PUT("/profile", h.Users.UpdateProfile)
	}

	admin := api.Group("/admin", middleware.RequireRole(user.RoleAdmin))
	{
		admin.PUT("/matches/:id/status", h.Matches.UpdateStatus)
	}
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully and runs
// onShutdown.
func (s *Server) Start(onShutdown func()) error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}
	if onShutdown != nil {
		onShutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
