package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/shop-service/internal/validator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// TokenVerifier resolves a bearer token to the user id it was issued to.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequestLogger writes one structured line per request.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// Authentication validates the bearer token and stores the user id in the
// request context.
func Authentication(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				respondError(w, http.StatusUnauthorized, "unauthorized", "token is missing")
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "unauthorized", "token is invalid or expired")
				return
			}

			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
		})
	}
}

// Authorisation lets the request through only when the {userId} path parameter
// names the authenticated user.
func Authorisation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userId")
		if !validator.IsValidObjectID(userID) {
			respondError(w, http.StatusBadRequest, "invalid_user_id", "userId is not a valid id")
			return
		}

		if getUserIDFromContext(r.Context()) != userID {
			respondError(w, http.StatusForbidden, "forbidden", "not allowed to access another user's resources")
			return
		}

		next.ServeHTTP(w, r)
	})
}
