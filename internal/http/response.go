package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/shop-service/internal/service"
	"go.uber.org/zap"
)

type Response struct {
	Status  bool        `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status bool   `json:"status"`
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondData(w http.ResponseWriter, status int, message string, data interface{}) {
	respondJSON(w, status, Response{Status: true, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Status: false,
		Error:  message,
		Code:   code,
	})
}

// handleServiceError maps service error kinds to HTTP statuses.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, service.ErrValidation):
		httpStatus, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, service.ErrState):
		httpStatus, code = http.StatusBadRequest, "invalid_state"
	case errors.Is(err, service.ErrNotFound):
		httpStatus, code = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrForbidden):
		httpStatus, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrUnauthorized):
		httpStatus, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrConflict):
		httpStatus, code = http.StatusConflict, "conflict"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus, code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		httpStatus, code = http.StatusServiceUnavailable, "unavailable"
	default:
		httpStatus, code = http.StatusInternalServerError, "internal_error"
		logger.Error("request failed", zap.Error(err))
	}

	respondError(w, httpStatus, code, err.Error())
}
