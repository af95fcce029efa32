package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/normrepo/nrs-go/internal/crypto"
	"github.com/normrepo/nrs-go/internal/metrics"
)

type contextKey string

const (
	callerIDKey  contextKey = "callerID"
	requestIDKey contextKey = "requestID"
)

// ErrInvalidToken is the only token error a client ever sees.
var ErrInvalidToken = errors.New("invalid token")

// AuthGuard returns middleware that requires a valid Bearer token in the
// Authorization header. Every failure is answered with 400 "invalid token";
// the actual reason is logged at debug level and counted.
func AuthGuard(tokens *crypto.TokenCodec, log *zap.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			callerID, reason, err := authenticate(tokens, r.Header.Get("Authorization"))
			if err != nil {
				m.TokenFailure(reason)
				log.Debug("Rejected token",
					zap.String("reason", reason),
					zap.String("request_id", RequestIDFromContext(r.Context())),
					zap.Error(err))
				writeJSONError(w, http.StatusBadRequest, ErrInvalidToken.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCallerID(r.Context(), callerID)))
		})
	}
}

// authenticate verifies the header value and names the failure reason for
// logs and metrics.
func authenticate(tokens *crypto.TokenCodec, header string) (int64, string, error) {
	if header == "" {
		return 0, "missing", ErrInvalidToken
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return 0, "scheme", ErrInvalidToken
	}

	callerID, err := tokens.Verify(token)
	switch {
	case err == nil:
		return callerID, "", nil
	case errors.Is(err, crypto.ErrExpired):
		return 0, "expired", err
	case errors.Is(err, crypto.ErrInvalidSignature):
		return 0, "signature", err
	default:
		return 0, "malformed", err
	}
}

// WithCallerID returns a copy of ctx carrying the authenticated user ID.
func WithCallerID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, callerIDKey, id)
}

// CallerIDFromContext extracts the authenticated user ID from the request context.
func CallerIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(callerIDKey).(int64)
	return id, ok
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
