package app

import (
	"context"
	"net/http"
	"time"

	"github.com/shandysiswandi/folio/internal/pkg/goerror"
	"github.com/shandysiswandi/folio/internal/pkg/router"
)

type healthResponse struct {
	Status string `json:"status"`
}

func (healthResponse) Message() string { return "service is healthy" }

var errUnhealthy = goerror.NewBusiness("service is unhealthy", goerror.CodeUnavailable)

// health reports liveness along with the reachability of redis and postgres.
func (a *App) health(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.cacheConn.Ping(ctx).Err(); err != nil {
		return nil, errUnhealthy
	}

	if a.dbConn != nil {
		if err := a.dbConn.Ping(ctx); err != nil {
			return nil, errUnhealthy
		}
	}

	return healthResponse{Status: http.StatusText(http.StatusOK)}, nil
}
