// Package server exposes the current dataset and its statistics over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/chrisdamba/orderlens/internal/extractor"
	"github.com/chrisdamba/orderlens/internal/models"
	"github.com/chrisdamba/orderlens/internal/output"
	"github.com/chrisdamba/orderlens/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Extractor runs one extraction for a session credential.
type Extractor interface {
	Extract(ctx context.Context, cred extractor.Credential) models.ExtractionResult
}

type Server struct {
	router    *gin.Engine
	store     *session.Store
	extractor Extractor
	publisher *output.Publisher
	cookie    string
}

// New builds the router. publisher may be nil; cookie is used when an
// extract request brings none.
func New(appEnv string, store *session.Store, ex Extractor, publisher *output.Publisher, cookie string) *Server {
	if appEnv == "prod" || appEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		router:    gin.New(),
		store:     store,
		extractor: ex,
		publisher: publisher,
		cookie:    cookie,
	}
	s.router.Use(gin.Recovery())
	s.router.Use(HTTPLogger())

	s.router.GET("/health/self", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "true"})
	})
	s.RegisterRoutes(s.router)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("dashboard API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// HTTPLogger logs one access line per request.
func HTTPLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		log.Info().Msgf("[access] [%s] %s %s %d %v", c.ClientIP(), c.Request.Method,
			c.Request.URL.Path, c.Writer.Status(), time.Since(startTime))
	}
}
