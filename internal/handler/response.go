package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/normrepo/nrs-go/internal/middleware"
	"github.com/normrepo/nrs-go/internal/service"
	"github.com/normrepo/nrs-go/internal/validation"
)

const maxBodyBytes = 1 << 20 // 1MB

var (
	errInvalidBody  = errors.New("invalid request body")
	errBodyTooLarge = errors.New("request body too large")
	errInvalidID    = errors.New("invalid id")
)

// base carries what every handler needs to decode requests and report
// failures.
type base struct {
	log      *zap.Logger
	validate *validation.Validator
}

// decodeValid reads a JSON body into T and validates it. Nothing past this
// point sees an invalid payload.
func decodeValid[T any](b base, w http.ResponseWriter, r *http.Request) (T, error) {
	var req T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, errBodyTooLarge
		}
		return req, errInvalidBody
	}

	if err := b.validate.Validate(req); err != nil {
		return req, err
	}
	return req, nil
}

// callerID returns the user authenticated by middleware.AuthGuard.
func callerID(r *http.Request) (int64, error) {
	id, ok := middleware.CallerIDFromContext(r.Context())
	if !ok {
		return 0, middleware.ErrInvalidToken
	}
	return id, nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// fail writes the response for err. Unclassified errors are logged and
// reported as a bare 500.
func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      verr.Error(),
			"violations": verr.Violations,
		})
	case errors.Is(err, errBodyTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse(err.Error()))
	case errors.Is(err, errInvalidBody),
		errors.Is(err, errInvalidID),
		errors.Is(err, middleware.ErrInvalidToken),
		errors.Is(err, service.ErrWrongPassword):
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrEmailNotFound),
		errors.Is(err, service.ErrParentNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse(err.Error()))
	default:
		b.log.Error("Request failed",
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}
