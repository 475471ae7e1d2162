package handlers

import (
	"errors"
	"net/http"

	"resto-system/internal/auth"
	"resto-system/internal/menu"
	"resto-system/internal/orders"
	"resto-system/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func errorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}

func successWithMetaResponse(message string, data interface{}, meta interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	}
}

// handleError maps domain errors to HTTP statuses. Anything unrecognised is
// logged and reported as a generic 500.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orders.ErrInvalidEvent),
		errors.Is(err, menu.ErrInvalidProduct),
		errors.Is(err, auth.ErrInvalidAccount):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, orders.ErrOrderNotFound), errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse("Not found"))
	case errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusConflict, errorResponse("Already exists"))
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorResponse("Invalid username or password"))
	case errors.Is(err, auth.ErrStepUpFailed):
		c.JSON(http.StatusUnauthorized, errorResponse("Invalid second factor"))
	case errors.Is(err, auth.ErrStepUpDisabled):
		c.JSON(http.StatusBadRequest, errorResponse("Second factor is not required"))
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, errorResponse("Internal error"))
	}
	c.Abort()
}
