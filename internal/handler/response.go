package handler

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/ekenesbek/8pilot/internal/domain"
)

// Response is the unified response envelope.
type Response struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SuccessResponse returns a successful response.
func SuccessResponse(c *app.RequestContext, data interface{}) {
	c.JSON(consts.StatusOK, Response{
		Code:    "SUCCESS",
		Message: "operation successful",
		Data:    data,
	})
}

// CreatedResponse returns a created response.
func CreatedResponse(c *app.RequestContext, data interface{}) {
	c.JSON(consts.StatusCreated, Response{
		Code:    "CREATED",
		Message: "resource created successfully",
		Data:    data,
	})
}

// NoContentResponse returns a no content response (typically for deletes).
func NoContentResponse(c *app.RequestContext) {
	c.Status(consts.StatusNoContent)
}

// ErrorResponse maps a domain error to a status code and envelope. Only the
// user-safe message leaves the process.
func ErrorResponse(c *app.RequestContext, err error) {
	getUserMessage := func(err error) string {
		if domainErr, ok := err.(*domain.DomainError); ok {
			return domainErr.UserMessage()
		}
		return "an error occurred"
	}

	switch {
	case domain.IsNotFound(err):
		c.JSON(consts.StatusNotFound, Response{
			Code:    "NOT_FOUND",
			Message: getUserMessage(err),
		})
	case domain.IsAlreadyExists(err):
		c.JSON(consts.StatusConflict, Response{
			Code:    "ALREADY_EXISTS",
			Message: getUserMessage(err),
		})
	case domain.IsInvalidInput(err):
		c.JSON(consts.StatusBadRequest, Response{
			Code:    "INVALID_INPUT",
			Message: getUserMessage(err),
		})
	case domain.IsConflict(err):
		c.JSON(consts.StatusConflict, Response{
			Code:    "CONFLICT",
			Message: getUserMessage(err),
		})
	case domain.IsUnauthorized(err):
		c.JSON(consts.StatusUnauthorized, Response{
			Code:    "UNAUTHORIZED",
			Message: getUserMessage(err),
		})
	case domain.IsUpstream(err):
		c.JSON(consts.StatusBadGateway, Response{
			Code:    "UPSTREAM_FAILURE",
			Message: getUserMessage(err),
		})
	default:
		c.JSON(consts.StatusInternalServerError, Response{
			Code:    "INTERNAL_ERROR",
			Message: "internal server error",
		})
	}
}
