package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sugicreations/sugi-backend/api/responses"
	"github.com/sugicreations/sugi-backend/api/validators"
	"github.com/sugicreations/sugi-backend/internal/products"
	"github.com/sugicreations/sugi-backend/pkg/enums"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
	"github.com/sugicreations/sugi-backend/pkg/logger"
)

const searchQueryMaxLen = 120

// ListProducts serves the catalog grid with stock, category and material filters.
func ListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		stock, err := enums.ParseStockFilter(strings.ToLower(strings.TrimSpace(q.Get("stock"))))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "stock must be one of in, low, out"))
			return
		}
		categoryID, err := validators.ParseOptionalUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		materialID, err := validators.ParseOptionalUUID(r, "materialId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), products.ListInput{
			Filters: products.ListFilters{
				Query:      validators.SanitizeString(q.Get("q"), searchQueryMaxLen),
				Stock:      stock,
				CategoryID: categoryID,
				MaterialID: materialID,
			},
			Pagination: page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SearchProducts is the storefront search box.
func SearchProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := validators.SanitizeString(r.URL.Query().Get("q"), searchQueryMaxLen)
		result, err := svc.Search(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminCreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminUpdateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminDeleteProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

type createProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Images      []string        `json:"images" validate:"omitempty,dive,url"`
	CategoryID  uuid.UUID       `json:"categoryId" validate:"required"`
	MaterialID  *uuid.UUID      `json:"materialId,omitempty"`
}

func (p createProductRequest) toInput() products.CreateInput {
	return products.CreateInput{
		Name:        strings.TrimSpace(p.Name),
		Description: strings.TrimSpace(p.Description),
		Price:       p.Price,
		Stock:       p.Stock,
		Images:      p.Images,
		CategoryID:  p.CategoryID,
		MaterialID:  p.MaterialID,
	}
}

// updateProductRequest is a partial update; clearMaterial detaches the
// material when materialId is absent.
type updateProductRequest struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	Stock         *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Images        *[]string        `json:"images,omitempty" validate:"omitempty,dive,url"`
	CategoryID    *uuid.UUID       `json:"categoryId,omitempty"`
	MaterialID    *uuid.UUID       `json:"materialId,omitempty"`
	ClearMaterial bool             `json:"clearMaterial,omitempty"`
}

func (p updateProductRequest) toInput() products.UpdateInput {
	input := products.UpdateInput{
		Description:   p.Description,
		Price:         p.Price,
		Stock:         p.Stock,
		Images:        p.Images,
		CategoryID:    p.CategoryID,
		MaterialID:    p.MaterialID,
		ClearMaterial: p.ClearMaterial,
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		input.Name = &name
	}
	return input
}
