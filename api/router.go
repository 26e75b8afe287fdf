package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InitRoutes registers the gateway webhook and the health check on the given
// Gin engine.
func InitRoutes(e *gin.Engine, processor Processor, opts Options, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := NewWebhookHandler(processor, opts, logger)

	e.Use(requestIDMiddleware(), accessLog(logger))

	e.POST("/webhook/wompi", h.handleWompi)
	e.GET("/health", h.handleHealth)
}

// NewRouter builds a gin engine with panic recovery and the webhook routes.
// Access logging is done by the zap middleware only.
func NewRouter(processor Processor, opts Options, logger *zap.Logger) *gin.Engine {
	e := gin.New()
	e.Use(gin.Recovery())
	InitRoutes(e, processor, opts, logger)
	return e
}
