// Package server wires the HTTP routes and runs the listener inside the fx
// lifecycle.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"herms/internal/auth"
	"herms/internal/config"
	"herms/internal/handler"
	"herms/internal/middleware"
	"herms/internal/storage"
)

const shutdownTimeout = 5 * time.Second

type Params struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Tracer   trace.Tracer
	Store    storage.Storage
	Sessions *auth.Manager
}

type Server struct {
	Engine *gin.Engine
	Config *config.Config
	log    *zap.Logger
}

func New(p Params) *Server {
	handler.RegisterValidators()

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.Tracing(p.Tracer),
		middleware.RequestLogger(p.Logger),
		middleware.SessionAuth(p.Sessions, p.Logger),
	)

	authHandler := handler.NewAuthHandler(p.Store, p.Sessions, p.Config.CookieSecure, p.Logger)
	profileHandler := handler.NewProfileHandler(p.Store, p.Sessions, p.Config.CookieSecure, p.Logger)
	projectHandler := handler.NewProjectHandler(p.Store, p.Logger)
	memberHandler := handler.NewMemberHandler(p.Store, p.Logger)
	taskHandler := handler.NewTaskHandler(p.Store, p.Logger)
	commentHandler := handler.NewCommentHandler(p.Store, p.Logger)
	documentHandler := handler.NewDocumentHandler(p.Store, p.Logger)
	templateHandler := handler.NewTemplateHandler(p.Store)
	activityHandler := handler.NewActivityHandler(p.Store)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")

	// Public routes
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/user", authHandler.User)

	// Protected routes - require a session
	authorized := api.Group("/")
	authorized.Use(middleware.RequireAuth())
	{
		authorized.GET("/profiles/:id", profileHandler.GetByID)
		authorized.PUT("/profiles/:id", profileHandler.Update)
		authorized.DELETE("/profiles/:id", profileHandler.Delete)

		authorized.GET("/projects", projectHandler.GetAll)
		authorized.POST("/projects", projectHandler.Create)
		authorized.GET("/projects/:id", projectHandler.GetByID)
		authorized.PUT("/projects/:id", projectHandler.Update)
		authorized.DELETE("/projects/:id", projectHandler.Delete)

		authorized.GET("/projects/:id/members", memberHandler.GetAll)
		authorized.POST("/projects/:id/members", memberHandler.Add)
		authorized.DELETE("/projects/:id/members/:userId", memberHandler.Remove)
		authorized.GET("/projects/:id/activity", activityHandler.GetByProjectID)

		authorized.GET("/projects/:id/tasks", taskHandler.GetByProjectID)
		authorized.POST("/projects/:id/tasks", taskHandler.Create)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)

		authorized.GET("/tasks/:id/comments", commentHandler.GetByTaskID)
		authorized.POST("/tasks/:id/comments", commentHandler.Create)
		authorized.PUT("/comments/:id", commentHandler.Update)
		authorized.DELETE("/comments/:id", commentHandler.Delete)

		authorized.GET("/projects/:id/documents", documentHandler.GetByProjectID)
		authorized.POST("/projects/:id/documents", documentHandler.Create)
		authorized.GET("/documents/:id", documentHandler.GetByID)
		authorized.PUT("/documents/:id", documentHandler.Update)
		authorized.DELETE("/documents/:id", documentHandler.Delete)

		authorized.GET("/document-templates", templateHandler.GetAll)
		authorized.POST("/document-templates", templateHandler.Create)
		authorized.GET("/document-templates/:id", templateHandler.GetByID)
		authorized.PUT("/document-templates/:id", templateHandler.Update)
		authorized.DELETE("/document-templates/:id", templateHandler.Delete)
	}

	return &Server{
		Engine: r,
		Config: p.Config,
		log:    p.Logger,
	}
}

// Run starts the listener when the fx app starts and shuts it down
// gracefully when it stops.
func Run(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				s.log.Info("server running", zap.String("addr", srv.Addr))
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.log.Info("shutting down server")
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	})
}
