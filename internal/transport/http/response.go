package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"clinicbook/backend/internal/service/scheduling"
	"clinicbook/backend/internal/store"
)

// ResponseData is the envelope every endpoint answers with.
type ResponseData struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, ResponseData{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

func created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, ResponseData{
		Status:  http.StatusCreated,
		Message: message,
		Data:    data,
	})
}

func badRequest(c *gin.Context, errorMessage string) {
	c.JSON(http.StatusBadRequest, ResponseData{
		Status: http.StatusBadRequest,
		Error:  errorMessage,
	})
}

// writeError maps the service error taxonomy onto HTTP statuses: validation
// failures are 400, missing resources 404, scheduling conflicts 409, and
// everything else a 500 that hides its cause from the caller.
func writeError(c *gin.Context, log *slog.Logger, err error) {
	var vErr *scheduling.ValidationError
	if errors.As(err, &vErr) {
		log.Warn("invalid request", slog.Any("err", err))
		badRequest(c, vErr.Error())
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		log.Info("resource not found", slog.Any("err", err))
		c.JSON(http.StatusNotFound, ResponseData{
			Status: http.StatusNotFound,
			Error:  err.Error(),
		})
		return
	}
	if errors.Is(err, store.ErrConflict) {
		log.Info("scheduling conflict", slog.Any("err", err))
		c.JSON(http.StatusConflict, ResponseData{
			Status: http.StatusConflict,
			Error:  err.Error(),
		})
		return
	}
	log.Error("request failed", slog.Any("err", err))
	c.JSON(http.StatusInternalServerError, ResponseData{
		Status: http.StatusInternalServerError,
		Error:  "internal error",
	})
}
