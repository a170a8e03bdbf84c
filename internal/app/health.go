package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/goerror"
	"github.com/shandysiswandi/otpauth/internal/pkg/router"
)

var errUnhealthy = goerror.NewBusiness("Service unavailable", goerror.CodeUnavailable)

type healthResponse struct {
	Status string `json:"status"`
}

func (healthResponse) Message() string {
	return "Service is healthy"
}

type healthCheck struct {
	name string
	ping func(ctx context.Context) error
}

func (a *App) healthChecks() []healthCheck {
	var checks []healthCheck
	if a.dbConn != nil {
		checks = append(checks, healthCheck{name: "postgres", ping: a.dbConn.Ping})
	}
	if a.cacheConn != nil {
		checks = append(checks, healthCheck{name: "redis", ping: func(ctx context.Context) error {
			return a.cacheConn.Ping(ctx).Err()
		}})
	}
	return checks
}

// health reports whether every connected store answers a ping.
func (a *App) health(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, check := range a.healthChecks() {
		if err := check.ping(ctx); err != nil {
			slog.ErrorContext(ctx, "health check failed", "dependency", check.name, "error", err)
			return nil, errUnhealthy
		}
	}

	return healthResponse{Status: "ok"}, nil
}
