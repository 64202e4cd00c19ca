package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/sugicreations/sugi-backend/api/responses"
	"github.com/sugicreations/sugi-backend/pkg/config"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
	"github.com/sugicreations/sugi-backend/pkg/logger"
)

const envHeader = "X-Sugi-Env"

// Pinger is a readiness dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency; a nil pinger is skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "failed", failed), "health.not_ready")
			}
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
