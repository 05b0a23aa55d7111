package router

import (
	"net/http"

	"github.com/shandysiswandi/folio/internal/pkg/config"
)

// middlewareMaintenance answers 503 for route patterns listed in
// maintenance.endpoints. The list is read per request so a config reload
// takes effect without a restart.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg != nil && cfg.GetBool("maintenance.enabled") {
				route := matchedRoutePath(r)
				for _, blocked := range cfg.GetArray("maintenance.endpoints") {
					if blocked == route || blocked == "*" {
						writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
