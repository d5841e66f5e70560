package middleware

import (
	"io"
	"net/http"
	"strings"

	"local-dispatch/internal/identity"
	"local-dispatch/internal/logx"
)

// Auth resolves the bearer token to an actor and stores it in the request context.
// Requests without a valid token are answered with 401.
func Auth(verifier identity.Verifier, logger logx.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, logger, r, "missing bearer token")
				return
			}
			actor, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Debug("token rejected", logx.String("path", r.URL.Path), logx.Err(err))
				unauthorized(w, logger, r, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithActor(r.Context(), actor)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, logger logx.Logger, r *http.Request, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="dispatch"`)
	w.WriteHeader(http.StatusUnauthorized)
	if _, err := io.WriteString(w, `{"error":"`+msg+`"}`); err != nil {
		logger.Debug("unauthorized response write failed", logx.String("path", r.URL.Path), logx.Err(err))
	}
}
