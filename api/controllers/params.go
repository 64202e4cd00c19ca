package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sugicreations/sugi-backend/api/validators"
	"github.com/sugicreations/sugi-backend/pkg/pagination"
)

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	return validators.ParseUUIDParam(chi.URLParam(r, name), name)
}

func paginationParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
