package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/ekenesbek/8pilot/internal/handler"
	"github.com/ekenesbek/8pilot/internal/middleware"
)

// Setup sets up all routes.
func Setup(
	h *server.Hertz,
	userHandler *handler.UserHandler,
	dialogHandler *handler.DialogHandler,
	chatHandler *handler.ChatHandler,
	workflowHandler *handler.WorkflowHandler,
	healthHandler *handler.HealthHandler,
) {
	// Global middleware
	h.Use(middleware.Recovery())
	h.Use(middleware.Logger())
	h.Use(middleware.CORS())

	// Health check routes (no authentication required)
	h.GET("/ping", healthHandler.Ping)
	h.GET("/health/ready", healthHandler.Readiness)
	h.GET("/health/live", healthHandler.Liveness)

	// API v1 routes
	apiV1 := h.Group("/api/v1")
	{
		// ============ Public routes (no authentication required) ============
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", userHandler.Register)
			auth.POST("/login", userHandler.Login)
			auth.POST("/refresh", userHandler.RefreshToken)
		}

		// ============ Protected routes (JWT authentication required) ============
		authorized := apiV1.Group("")
		authorized.Use(userHandler.AuthMiddleware())
		{
			// User management
			users := authorized.Group("/users")
			{
				users.GET("/me", userHandler.GetCurrentUser)
			}

			// Workflow dialogs
			authorized.POST("/workflows", dialogHandler.CreateDialog)
			workflows := authorized.Group("/workflows/:workflow_id")
			{
				workflows.GET("", dialogHandler.GetDialog)
				workflows.PUT("", dialogHandler.UpdateDialog)
				workflows.DELETE("", dialogHandler.DeleteDialog)
				workflows.POST("/save", dialogHandler.SaveWorkflow)

				workflows.POST("/sessions", dialogHandler.CreateSession)
				workflows.GET("/sessions/latest", dialogHandler.GetLatestSession)

				workflows.GET("/history", dialogHandler.GetHistory)
				workflows.GET("/stats", dialogHandler.GetStats)
			}

			// Chat sessions and messages
			sessions := authorized.Group("/sessions/:session_id")
			{
				sessions.GET("", dialogHandler.GetSession)
				sessions.PUT("/activity", dialogHandler.TouchSession)
				sessions.POST("/messages", dialogHandler.AppendMessage)
				sessions.GET("/messages", dialogHandler.ListMessages)
			}

			// Chat turns
			chat := authorized.Group("/chat")
			{
				chat.POST("/send", chatHandler.Send)
				chat.POST("/stream", chatHandler.Stream)
			}

			// Automation server operations
			automation := authorized.Group("/automation")
			{
				automation.POST("/test-connection", workflowHandler.TestConnection)
				automation.POST("/workflows/apply", workflowHandler.ApplyWorkflow)
				automation.GET("/workflows/:workflow_id", workflowHandler.FetchWorkflow)
				automation.POST("/workflows/:workflow_id/execute", workflowHandler.ExecuteWorkflow)
			}

			// Retention maintenance
			authorized.POST("/maintenance/cleanup", dialogHandler.Cleanup)
		}
	}
}
