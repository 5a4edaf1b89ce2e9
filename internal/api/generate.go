// Package api implements the inbound HTTP surface of the relay.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gaspardpetit/genrelay/core/logx"
	"github.com/gaspardpetit/genrelay/internal/relay"
)

// FailurePrefix opens the detail message of every upstream failure. Existing
// front ends match on it.
const FailurePrefix = "Azure OpenAI API 호출 실패"

// Generator is the relay operation the handlers depend on.
type Generator interface {
	Generate(ctx context.Context, req relay.GenerationRequest) (relay.GenerationResult, error)
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// GenerateHandler handles POST /generate-text.
func GenerateHandler(g Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req relay.GenerationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteDetail(w, http.StatusUnprocessableEntity, "invalid JSON body: "+err.Error())
			return
		}
		res, err := g.Generate(r.Context(), req)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, res)
	}
}

// WriteError maps a relay error to its HTTP response.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, relay.ErrInvalidRequest):
		WriteDetail(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, relay.ErrUpstreamCallFailed):
		WriteDetail(w, http.StatusInternalServerError, FailurePrefix+": "+err.Error())
	default:
		logx.Log.Error().Err(err).Msg("unexpected error")
		WriteDetail(w, http.StatusInternalServerError, err.Error())
	}
}

// WriteDetail writes {"detail": msg} with the given status.
func WriteDetail(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorResponse{Detail: msg})
}

// WriteJSON encodes v as the response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Log.Error().Err(err).Msg("encode response")
	}
}
