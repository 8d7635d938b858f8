package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"cellfade/internal/errors"
)

// ErrorResponse is the error body every endpoint returns
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code. The body is
// encoded before the header goes out, so an unencodable value becomes a 500
// instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if data != nil {
		if err := json.NewEncoder(&buf).Encode(data); err != nil {
			buf.Reset()
			status = http.StatusInternalServerError
			_ = json.NewEncoder(&buf).Encode(ErrorResponse{Code: errors.CodeInternalError, Message: "internal server error"})
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// statusFor maps an AppError code onto an HTTP status
func statusFor(code string) int {
	switch code {
	case errors.CodeInvalidArgument:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInsufficientData, errors.CodeDegenerateInput:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as an ErrorResponse. Internal errors are logged and
// masked.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed: %v", err)
		writeJSON(w, status, ErrorResponse{Code: errors.CodeInternalError, Message: "internal server error"})
		return
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: err.Error()})
}

// decodeJSON reads a request body into v
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.InvalidArgument("malformed request body: %v", err)
	}
	return nil
}
