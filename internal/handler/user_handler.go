package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/jwt"

	"github.com/ekenesbek/8pilot/internal/domain"
	"github.com/ekenesbek/8pilot/internal/domain/entity"
	"github.com/ekenesbek/8pilot/internal/handler/dto"
)

// UserHandler handles account HTTP requests and owns the JWT middleware.
type UserHandler struct {
	usecase        domain.UserUsecase
	authMiddleware *jwt.HertzJWTMiddleware
	logger         *slog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(usecase domain.UserUsecase, jwtSecret string, logger *slog.Logger) *UserHandler {
	authMiddleware, err := jwt.New(&jwt.HertzJWTMiddleware{
		Realm:       "8pilot-api",
		Key:         []byte(jwtSecret),
		Timeout:     time.Hour * 24,
		MaxRefresh:  time.Hour * 24 * 7,
		IdentityKey: "user_id",

		Authenticator: func(ctx context.Context, c *app.RequestContext) (interface{}, error) {
			var loginReq dto.LoginRequest
			if err := c.BindJSON(&loginReq); err != nil {
				return nil, jwt.ErrMissingLoginValues
			}

			user, err := usecase.Login(ctx, loginReq.Username, loginReq.Password)
			if err != nil {
				logger.Error("login failed", "username", loginReq.Username, "error", err)
				return nil, jwt.ErrFailedAuthentication
			}

			// Stash the user for LoginResponse.
			c.Set("user", user)
			return user, nil
		},

		PayloadFunc: func(data interface{}) jwt.MapClaims {
			if user, ok := data.(*entity.User); ok {
				return jwt.MapClaims{
					"user_id":  user.ID,
					"username": user.Username,
				}
			}
			return jwt.MapClaims{}
		},

		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			claims := jwt.ExtractClaims(ctx, c)
			if userID, ok := claims["user_id"].(string); ok {
				c.Set("user_id", userID)
				return userID
			}
			return ""
		},

		Authorizator: func(data interface{}, ctx context.Context, c *app.RequestContext) bool {
			return data != nil
		},

		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			c.JSON(code, map[string]interface{}{
				"code":    "UNAUTHORIZED",
				"message": message,
			})
		},

		LoginResponse: func(ctx context.Context, c *app.RequestContext, code int, token string, expire time.Time) {
			user, exists := c.Get("user")
			if !exists {
				c.JSON(consts.StatusInternalServerError, map[string]interface{}{
					"code":    "INTERNAL_ERROR",
					"message": "failed to get user info",
				})
				return
			}
			userEntity := user.(*entity.User)

			c.JSON(consts.StatusOK, map[string]interface{}{
				"code": "SUCCESS",
				"data": dto.LoginResponse{
					Token:  token,
					Expire: expire.Format(time.RFC3339),
					User:   dto.ToUserResponse(userEntity),
				},
			})
		},

		TokenLookup:   "header: Authorization, query: token",
		TokenHeadName: "Bearer",
		TimeFunc:      time.Now,
	})

	if err != nil {
		logger.Error("failed to create jwt middleware", "error", err)
		panic(err)
	}

	return &UserHandler{
		usecase:        usecase,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

// AuthMiddleware returns the JWT authentication middleware for route protection.
func (h *UserHandler) AuthMiddleware() app.HandlerFunc {
	return h.authMiddleware.MiddlewareFunc()
}

// Register handles account registration.
//
//	@Summary		User registration
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.RegisterRequest	true	"Credentials"
//	@Success		200		{object}	dto.UserResponse
//	@Failure		409		{object}	map[string]string	"Username taken"
//	@Router			/auth/register [post]
func (h *UserHandler) Register(ctx context.Context, c *app.RequestContext) {
	var req dto.RegisterRequest
	if err := c.BindJSON(&req); err != nil {
		h.logger.Error("invalid register request", "error", err)
		ErrorResponse(c, domain.ErrInvalidInput)
		return
	}

	user, err := h.usecase.Register(ctx, req.Username, req.Password)
	if err != nil {
		h.logger.Error("register failed", "error", err)
		ErrorResponse(c, err)
		return
	}

	SuccessResponse(c, dto.ToUserResponse(user))
}

// Login handles user login via the JWT LoginHandler.
//
//	@Summary		User login
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.LoginRequest	true	"Credentials"
//	@Success		200		{object}	dto.LoginResponse
//	@Router			/auth/login [post]
func (h *UserHandler) Login(ctx context.Context, c *app.RequestContext) {
	h.authMiddleware.LoginHandler(ctx, c)
}

// RefreshToken refreshes the authentication token.
func (h *UserHandler) RefreshToken(ctx context.Context, c *app.RequestContext) {
	h.authMiddleware.RefreshHandler(ctx, c)
}

// GetCurrentUser returns the logged-in account.
//
//	@Summary		Get current user
//	@Tags			Users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	dto.UserResponse
//	@Router			/users/me [get]
func (h *UserHandler) GetCurrentUser(ctx context.Context, c *app.RequestContext) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		h.logger.Error("user_id not found in context")
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}
	userID, ok := userIDVal.(string)
	if !ok || userID == "" {
		h.logger.Error("invalid user_id in context")
		ErrorResponse(c, domain.ErrUnauthorized)
		return
	}

	user, err := h.usecase.GetUser(ctx, userID)
	if err != nil {
		h.logger.Error("failed to get current user", "error", err, "user_id", userID)
		ErrorResponse(c, err)
		return
	}

	SuccessResponse(c, dto.ToUserResponse(user))
}
