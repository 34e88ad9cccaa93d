package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shandysiswandi/gofocus/internal/pkg/jwt"
)

func middlewareAuthentication(verifier jwt.JWT, revocation jwt.Revocation, public map[route]bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public[route{r.Method, matchedRoutePath(r)}] {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := BearerToken(r)
			if !ok {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			if revocation != nil {
				revoked, err := revocation.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					slog.ErrorContext(r.Context(), "failed to check token revocation", "jti", claims.ID, "error", err)
				}
				if revoked {
					writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
					return
				}
			}

			ctx := jwt.SetAuth(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	p := strings.Fields(r.Header.Get("Authorization"))
	if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
		return "", false
	}
	return p[1], true
}
