package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mesh-intelligence/loom/pkg/types"
)

// Stable error codes carried in the response body. Each sentinel gets its
// own code so clients can reconstruct the exact error without inspecting
// message text.
const (
	codeNotFound         = "not_found"
	codeValidation       = "validation_error"
	codeInvalidArgument  = "invalid_argument"
	codeInvalidID        = "invalid_id"
	codeInvalidName      = "invalid_name"
	codeInvalidDirection = "invalid_direction"
	codeConflict         = "conflict"
	codeInternal         = "internal_error"
)

// errorBody is the JSON error envelope: a stable code, a message, and the
// structured violation list for validation failures.
type errorBody struct {
	Error   string             `json:"error"`
	Message string             `json:"message"`
	Type    string             `json:"type,omitempty"`
	Errors  []types.FieldError `json:"errors,omitempty"`
}

// writeError maps a domain error onto its HTTP status and error envelope.
// Internal errors never leak detail across the boundary; callers see only
// the generic message and code.
func writeError(w http.ResponseWriter, err error) {
	var ve *types.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   codeValidation,
			Message: ve.Error(),
			Type:    ve.Type,
			Errors:  ve.Errors,
		})
	case errors.Is(err, types.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{
			Error:   codeNotFound,
			Message: err.Error(),
		})
	case errors.Is(err, types.ErrInvalidDirection):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   codeInvalidDirection,
			Message: err.Error(),
		})
	case errors.Is(err, types.ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   codeInvalidName,
			Message: err.Error(),
		})
	case errors.Is(err, types.ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   codeInvalidID,
			Message: err.Error(),
		})
	case errors.Is(err, types.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{
			Error:   codeConflict,
			Message: err.Error(),
		})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:   codeInternal,
			Message: "internal error",
		})
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{
		Error:   codeInvalidArgument,
		Message: msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
