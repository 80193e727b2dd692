package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Request headers the API reads cross-origin: JSON bodies, the JWT bearer
// token, a caller-supplied trace ID and the per-request n8n key override.
const (
	corsAllowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowedHeaders = "Content-Type, Authorization, X-Request-ID, X-Automation-Key"
)

// CORS lets the browser extension call the API from any origin.
func CORS() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		c.Response.Header.Set("Access-Control-Allow-Origin", "*")
		c.Response.Header.Set("Access-Control-Allow-Methods", corsAllowedMethods)
		c.Response.Header.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
		c.Response.Header.Set("Access-Control-Expose-Headers", RequestIDKey)
		c.Response.Header.Set("Access-Control-Max-Age", "86400")

		if string(c.Method()) == "OPTIONS" {
			c.AbortWithStatus(consts.StatusNoContent)
			return
		}

		c.Next(ctx)
	}
}
