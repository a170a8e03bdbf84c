package router

import (
	"net/http"

	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
)

var errMaintenance = goerror.NewBusiness("Service is under maintenance", goerror.CodeUnavailable)

// middlewareMaintenance rejects every route except /healthz while
// app.maintenance is true. The flag is read per request so a config file
// reload takes effect without a restart.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg != nil && cfg.GetBool("app.maintenance") && matchedRoutePath(r) != "/healthz" {
				writeError(r.Context(), w, errMaintenance)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
