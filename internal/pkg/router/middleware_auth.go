package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/folio/internal/pkg/jwt"
)

func middlewareAuthentication(verifier jwt.JWT, public map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, skip := public[r.Method][matchedRoutePath(r)]; skip {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || verifier == nil {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
