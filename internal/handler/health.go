package handler

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gemcade/platform/internal/infra"
)

// HealthHandler reports process and database liveness. The body stays
// coarse on purpose: this endpoint is public, so failures point at the
// logs rather than describing themselves.
func HealthHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := infra.HealthCheck(r.Context(), pool); err != nil {
			RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "unhealthy",
				"database": "down",
			})
			return
		}
		RespondJSON(w, http.StatusOK, map[string]string{
			"status":   "healthy",
			"database": "up",
		})
	}
}
