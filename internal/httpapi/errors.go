package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/form"
	"jobsearch-engine/internal/session"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// writeFailure maps session and form errors onto the envelope.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var pathErr *domain.InvalidPathError
	switch {
	case errors.Is(err, session.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, session.ErrTooMany):
		WriteError(w, r, http.StatusServiceUnavailable, "too_many_sessions", err.Error())
	case errors.Is(err, form.ErrUnknownPicker):
		WriteError(w, r, http.StatusNotFound, "unknown_picker", err.Error())
	case errors.Is(err, form.ErrNoPicker), errors.Is(err, form.ErrWrongPicker):
		WriteError(w, r, http.StatusConflict, "picker_state", err.Error())
	case errors.Is(err, form.ErrInvalidValue), errors.As(err, &pathErr):
		WriteError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		log.Printf("level=error msg=\"handler\" request_id=%s path=%s err=%v", RequestIDFrom(r.Context()), r.URL.Path, err)
		WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// validationMessage reports the first failing field.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return fmt.Sprintf("validation error: %s - %s", ve[0].Field(), ve[0].Tag())
	}
	return "validation error: " + err.Error()
}
