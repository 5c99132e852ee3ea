package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dialoguereel/internal/app"
	"dialoguereel/internal/dialogue"
	"dialoguereel/internal/render"
)

// Service is the part of the application exposed over HTTP
type Service interface {
	Plan(lines []dialogue.Line, durations []time.Duration) (*app.PlanResult, error)
	Health() app.HealthStatus
	RenderConfig() render.Config
}

// New creates a new router with all routes configured
func New(service Service, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(ginLogger(logger))
	r.Use(gin.Recovery())

	h := NewHandler(service, logger)
	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/captions/wrap", h.WrapCaption)
		v1.POST("/timeline", h.Timeline)
	}

	return r
}

// ginLogger logs every request once it has been served
func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
