package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	apperrors "geobattle/internal/platform/errors"
)

// errorBody is the envelope of every non-2xx response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("httpapi: encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	detail := errorDetail{
		Code:    string(code),
		Message: "request failed",
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		detail.Message = appErr.Message
		detail.Metadata = appErr.Metadata
	}
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Printf("httpapi: internal error: %v", err)
		detail.Message = "internal error"
		detail.Metadata = nil
	}
	s.writeJSON(w, status, errorBody{Error: detail})
}

// decodeBody reads a JSON request body into dst, rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.Wrap(apperrors.CodeActionInvalid, "invalid request body", err)
	}
	return nil
}
