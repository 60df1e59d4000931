package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finance-service/internal/apperrors"
	"github.com/Dan9191/finance-service/internal/middleware"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch apperrors.Kind(err) {
	case apperrors.ErrInvalidInput:
		return http.StatusBadRequest
	case apperrors.ErrUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.ErrForbidden:
		return http.StatusForbidden
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrConflict:
		return http.StatusConflict
	case apperrors.ErrStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Errorf("Unhandled error: %v", err)
		message = "internal server error"
	}
	writeJSON(w, status, errorResponse{
		StatusCode: status,
		Message:    message,
		Error:      http.StatusText(status),
	})
}

// decode reads a JSON body into v. Unknown fields are rejected. On failure
// the 400 response has already been written.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.writeError(w, r, decodeError(err))
		return false
	}
	if dec.More() {
		h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, "request body must contain a single JSON object"))
		return false
	}
	return true
}

func decodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	var validationErr *apperrors.ValidationError
	switch {
	case errors.Is(err, io.EOF):
		return apperrors.New(apperrors.ErrInvalidInput, "request body is required")
	case errors.As(err, &validationErr):
		return validationErr
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apperrors.New(apperrors.ErrInvalidInput, "malformed JSON body")
	case errors.As(err, &typeErr):
		return apperrors.Invalid(typeErr.Field, "has the wrong type")
	case errors.As(err, &maxErr):
		return apperrors.New(apperrors.ErrInvalidInput, "request body too large")
	default:
		// encoding/json reports unknown fields only as text.
		return apperrors.New(apperrors.ErrInvalidInput, "%s", err.Error())
	}
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, r, apperrors.New(apperrors.ErrUnauthenticated, "token not provided"))
	}
	return userID, ok
}
