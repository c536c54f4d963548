package api

import (
	"encoding/json"
	"net/http"

	"github.com/shelfworks/planogram/pkg/errors"
)

// ErrorBody is the JSON shape of a failed request.
type ErrorBody struct {
	Code    errors.Code       `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type errorResponse struct {
	Error ErrorBody `json:"error"`
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	switch code := errors.GetCode(err); {
	case code == errors.ErrCodeNotFound:
		return http.StatusNotFound
	case code == errors.ErrCodeVersionConflict:
		return http.StatusConflict
	case code == errors.ErrCodeSaveInProgress:
		return http.StatusLocked
	case code == errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case code == errors.ErrCodeNetwork:
		return http.StatusServiceUnavailable
	case code == errors.ErrCodeInvalidSnapshot, code == errors.ErrCodeUnsupportedSchema:
		return http.StatusUnprocessableEntity
	case errors.IsValidation(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// BodyOf converts err to its JSON body. Errors without a code are reported
// as INTERNAL_ERROR without leaking their text.
func BodyOf(err error) ErrorBody {
	code := errors.GetCode(err)
	if code == "" {
		return ErrorBody{Code: errors.ErrCodeInternal, Message: "internal error"}
	}
	return ErrorBody{
		Code:    code,
		Message: errors.UserMessage(err),
		Details: errors.Details(err),
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "code", errors.GetCode(err))
	}
	writeJSON(w, status, errorResponse{Error: BodyOf(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed request body")
	}
	return nil
}
