package utils

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-rag-app/pkg/logger"
)

// Gin context keys shared by the middlewares and handlers.
const (
	SpanContextKey = "span_context"
	RequestIDKey   = "request_id"
)

// GetContextFromGinContext returns the context carrying the server span, or
// the request context when tracing middleware did not run.
func GetContextFromGinContext(c *gin.Context) context.Context {
	if spanCtx, exists := c.Get(SpanContextKey); exists {
		if ctx, ok := spanCtx.(context.Context); ok {
			return ctx
		}
	}
	return c.Request.Context()
}

// GetRequestIDFromGinContext extracts request ID from Gin context
func GetRequestIDFromGinContext(c *gin.Context) string {
	if requestID, exists := c.Get(RequestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// RequestContext is the context handed to the prediction pipeline: the span
// context plus the request id for correlated logging downstream.
func RequestContext(c *gin.Context) context.Context {
	ctx := GetContextFromGinContext(c)
	if id := GetRequestIDFromGinContext(c); id != "" {
		ctx = logger.WithRequestID(ctx, id)
	}
	return ctx
}
