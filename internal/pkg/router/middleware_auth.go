package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/jwt"
)

var (
	errAuthenticationRequired = goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	errInvalidToken           = goerror.NewBusiness("Invalid or expired token", goerror.CodeUnauthorized)
)

// Authenticated requires a valid bearer token and stores its claims in the
// request context (see jwt.GetAuth).
func (r *Router) Authenticated() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			p := strings.Fields(req.Header.Get("Authorization"))
			if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
				writeError(req.Context(), w, errAuthenticationRequired)
				return
			}

			if r.verifier == nil {
				writeError(req.Context(), w, errInvalidToken)
				return
			}

			claims, err := r.verifier.Verify(p[1])
			if err != nil {
				writeError(req.Context(), w, errInvalidToken)
				return
			}

			next.ServeHTTP(w, req.WithContext(jwt.SetAuth(req.Context(), claims)))
		})
	}
}
