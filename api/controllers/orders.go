package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sugicreations/sugi-backend/api/middleware"
	"github.com/sugicreations/sugi-backend/api/responses"
	"github.com/sugicreations/sugi-backend/api/validators"
	"github.com/sugicreations/sugi-backend/internal/orders"
	"github.com/sugicreations/sugi-backend/pkg/enums"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
	"github.com/sugicreations/sugi-backend/pkg/logger"
	"github.com/sugicreations/sugi-backend/pkg/outbox"
)

// PlaceOrder accepts a direct checkout that does not go through the cart.
func PlaceOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), payload.toInput(middleware.ActorFromContext(r.Context())))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithOrderID(r.Context(), order.ID.String())
		logg.Info(ctx, "order.placed")
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := orders.ListInput{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").
					WithDetails(map[string]any{"field": "status"}))
				return
			}
			input.Status = &status
		}
		page, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Pagination = page

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminGetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func AdminUpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").
				WithDetails(map[string]any{"field": "status"}))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orders.UpdateStatusInput{
			OrderID: id,
			Status:  status,
			Actor:   middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type placeOrderRequest struct {
	CustomerName  string             `json:"customerName" validate:"required"`
	CustomerEmail string             `json:"customerEmail" validate:"required,email"`
	Items         []orderLineRequest `json:"items" validate:"required,min=1,dive"`
}

type orderLineRequest struct {
	ProductID uuid.UUID        `json:"productId" validate:"required"`
	Quantity  int              `json:"quantity" validate:"gt=0,max=99"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

func (p placeOrderRequest) toInput(actor *outbox.ActorRef) orders.PlaceOrderInput {
	lines := make([]orders.LineInput, 0, len(p.Items))
	for _, item := range p.Items {
		lines = append(lines, orders.LineInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return orders.PlaceOrderInput{
		CustomerName:  strings.TrimSpace(p.CustomerName),
		CustomerEmail: strings.TrimSpace(p.CustomerEmail),
		Items:         lines,
		Actor:         actor,
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
