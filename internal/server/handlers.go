package server

import (
	"context"
	"net/http"

	"github.com/chrisdamba/orderlens/internal/extractor"
	"github.com/chrisdamba/orderlens/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// UpstreamCookieHeader carries the upstream session when the body has none.
const UpstreamCookieHeader = "X-Upstream-Cookie"

type extractRequest struct {
	Cookie string `json:"cookie"`
}

func (s *Server) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/extract", s.handleExtract)
		api.GET("/orders", s.handleOrders)
		api.GET("/stats", s.handleStats)
		api.GET("/stats/all", s.handleAllStats)
	}
}

func (s *Server) handleExtract(c *gin.Context) {
	var req extractRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	cookie := req.Cookie
	if cookie == "" {
		cookie = c.GetHeader(UpstreamCookieHeader)
	}
	if cookie == "" {
		cookie = s.cookie
	}

	// a client disconnect must not truncate the run that gets stored
	res := s.extractor.Extract(context.WithoutCancel(c.Request.Context()), extractor.ParseCookieHeader(cookie))
	s.store.Replace(res)

	if s.publisher != nil {
		if err := s.publisher.Publish(res); err != nil {
			log.Error().Err(err).Str("run_id", res.RunID).Msg("publishing extraction failed")
		}
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleOrders(c *gin.Context) {
	res, ok := s.store.Current()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no orders loaded"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleStats(c *gin.Context) {
	filter := models.ParseServiceFilter(c.Query("service"))
	c.JSON(http.StatusOK, s.store.Stats(filter))
}

func (s *Server) handleAllStats(c *gin.Context) {
	stats, err := s.store.AllStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
