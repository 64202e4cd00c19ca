package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sugicreations/sugi-backend/api/middleware"
	"github.com/sugicreations/sugi-backend/api/responses"
	"github.com/sugicreations/sugi-backend/api/validators"
	"github.com/sugicreations/sugi-backend/internal/cart"
	"github.com/sugicreations/sugi-backend/pkg/logger"
)

// Carts are anonymous; the client keeps the token from the X-Cart-Token
// response header and sends it back on every cart request.

func cartToken(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(middleware.CartTokenHeader))
}

func writeCart(w http.ResponseWriter, view *cart.View) {
	if view.Token != "" {
		w.Header().Set(middleware.CartTokenHeader, view.Token)
	}
	responses.WriteSuccess(w, view)
}

func GetCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Get(r.Context(), cartToken(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, view)
	}
}

func ClearCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Clear(r.Context(), cartToken(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func AddCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.AddItem(r.Context(), cartToken(r), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, view)
	}
}

func UpdateCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.UpdateQuantity(r.Context(), cartToken(r), productID, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, view)
	}
}

func RemoveCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.RemoveItem(r.Context(), cartToken(r), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, view)
	}
}

func CheckoutCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Checkout(r.Context(), cartToken(r), cart.CheckoutInput{
			CustomerName:  strings.TrimSpace(payload.CustomerName),
			CustomerEmail: strings.TrimSpace(payload.CustomerEmail),
			Actor:         middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithOrderID(r.Context(), order.ID.String())
		logg.Info(ctx, "cart.checked_out")
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

type addCartItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
}

// Quantity zero removes the line.
type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

type checkoutCartRequest struct {
	CustomerName  string `json:"customerName" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
}
