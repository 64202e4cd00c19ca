package controllers

import (
	"net/http"

	"github.com/sugicreations/sugi-backend/api/responses"
	"github.com/sugicreations/sugi-backend/internal/dashboard"
	"github.com/sugicreations/sugi-backend/pkg/logger"
)

func AdminDashboardStats(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func AdminRecentOrders(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recent, err := svc.RecentOrders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, recent)
	}
}
