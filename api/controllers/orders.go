package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/nutriscan-activation/api/responses"
	"github.com/angelmondragon/nutriscan-activation/internal/activation"
	"github.com/angelmondragon/nutriscan-activation/pkg/logger"
)

type orderReader interface {
	ListOrders(ctx context.Context) ([]activation.Order, error)
	GetOrder(ctx context.Context, orderID string) (activation.Order, error)
}

func ListOrders(svc orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orders, err := svc.ListOrders(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"orders": orders,
			"total":  len(orders),
		})
	}
}

func GetOrder(svc orderReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		order, err := svc.GetOrder(ctx, chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"order": order})
	}
}
