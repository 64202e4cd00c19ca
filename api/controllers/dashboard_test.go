package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sugicreations/sugi-backend/internal/dashboard"
	"github.com/sugicreations/sugi-backend/internal/orders"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
)

type stubDashboardService struct {
	err error
}

func (s stubDashboardService) Stats(context.Context) (*dashboard.Stats, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dashboard.Stats{TotalSales: decimal.RequireFromString("350.50"), TotalOrders: 4, TotalProducts: 5, LowStockProducts: 2}, nil
}

func (s stubDashboardService) RecentOrders(context.Context) ([]orders.OrderDTO, error) {
	return []orders.OrderDTO{}, s.err
}

func (s stubDashboardService) Invalidate(context.Context) error { return nil }

func TestAdminDashboardStats(t *testing.T) {
	rec := serve(AdminDashboardStats(stubDashboardService{}, testLogger()), newRequest(http.MethodGet, "/", "", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var stats dashboard.Stats
	decodeData(t, rec, &stats)
	if !stats.TotalSales.Equal(decimal.RequireFromString("350.5")) || stats.LowStockProducts != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	failing := stubDashboardService{err: pkgerrors.Storage(errors.New("conn reset"), "sum sales")}
	rec = serve(AdminDashboardStats(failing, testLogger()), newRequest(http.MethodGet, "/", "", nil))
	if rec.Code < http.StatusInternalServerError {
		t.Fatalf("expected 5xx got %d", rec.Code)
	}
}

func TestAdminRecentOrders(t *testing.T) {
	rec := serve(AdminRecentOrders(stubDashboardService{}, testLogger()), newRequest(http.MethodGet, "/", "", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}
