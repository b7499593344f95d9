package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/repositories"
)

// apiResponse is the uniform envelope every endpoint returns.
type apiResponse struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data,omitempty"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

// respondJSON writes a success envelope.
func respondJSON(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeEnvelope(ctx, w, apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// respondFail writes a failure envelope with an explicit status.
func respondFail(ctx context.Context, w http.ResponseWriter, status int, message string, errs ...string) {
	writeEnvelope(ctx, w, apiResponse{
		StatusCode: status,
		Message:    message,
		Success:    false,
		Errors:     errs,
	})
}

// respondError maps an error bubbled up from a collaborator onto the
// failure envelope: unauthorized 401, forbidden 403, missing 404, conflict
// 409, everything else 500.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		respondFail(ctx, w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, auth.ErrForbidden):
		respondFail(ctx, w, http.StatusForbidden, "forbidden")
	case errors.Is(err, repositories.ErrNotFound):
		respondFail(ctx, w, http.StatusNotFound, "resource not found")
	case errors.Is(err, repositories.ErrConflict):
		respondFail(ctx, w, http.StatusConflict, "resource already exists")
	default:
		logging.FromContext(ctx).Error("request failed", "error", err)
		respondFail(ctx, w, http.StatusInternalServerError, "internal server error")
	}
}

func writeEnvelope(ctx context.Context, w http.ResponseWriter, payload apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(payload.StatusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", payload.StatusCode, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case payload.StatusCode >= http.StatusInternalServerError:
		logger.Error("request failed", "status", payload.StatusCode, "message", payload.Message)
	case payload.StatusCode >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", payload.StatusCode, "message", payload.Message)
	}
}
