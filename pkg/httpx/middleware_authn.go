package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/reposcope/reposcope/pkg/jwtx"
	"github.com/reposcope/reposcope/pkg/slogx"
)

// SessionAuth verifies the gateway's own session bearer token and injects
// the resolved upstream user id into the request context.
func SessionAuth(sessions *jwtx.Sessions) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				NewAPIError(http.StatusUnauthorized, CodeSessionMissing,
					"missing bearer session token").Write(w)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			userID, err := sessions.Verify(raw)
			if err != nil {
				if errors.Is(err, jwtx.ErrExpiredToken) {
					NewAPIError(http.StatusUnauthorized, CodeSessionExpired,
						"session expired, please log in again").Write(w)
					return
				}
				log.Warn("session verify failed", "err", err)
				NewAPIError(http.StatusUnauthorized, CodeSessionInvalid,
					"session token verification failed").Write(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(ctx, userID)))
		})
	}
}
