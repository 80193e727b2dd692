package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Recovery catches handler panics and turns them into 500 responses.
func Recovery() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				stack := string(debug.Stack())

				logger := slog.Default().With(
					"request_id", GetRequestID(c),
					"method", string(c.Method()),
					"path", string(c.Path()),
					"panic", fmt.Sprintf("%v", err),
				)
				logger.Error("panic recovered", "stack", stack)

				c.JSON(consts.StatusInternalServerError, utils.H{
					"code":    "INTERNAL_ERROR",
					"message": "Internal server error",
				})
				c.Abort()
			}
		}()

		c.Next(ctx)
	}
}
