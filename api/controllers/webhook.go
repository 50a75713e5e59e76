package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/nutriscan-activation/api/responses"
	"github.com/angelmondragon/nutriscan-activation/api/validators"
	"github.com/angelmondragon/nutriscan-activation/internal/activation"
	"github.com/angelmondragon/nutriscan-activation/pkg/logger"
)

const (
	msgOrderProcessed = "Order processed successfully"
	msgOrderReplayed  = "Order already processed"
)

type orderIngester interface {
	Ingest(ctx context.Context, payload map[string]any) (activation.IngestResult, error)
}

// MyLinkWebhook accepts order notifications from the storefront and answers
// with the activation code issued for the order.
func MyLinkWebhook(svc orderIngester, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		payload, err := validators.DecodeJSONObject(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		logg.Debug(logg.WithField(ctx, "body", payload), "webhook.received")

		result, err := svc.Ingest(ctx, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		message := msgOrderProcessed
		if result.Replayed {
			message = msgOrderReplayed
		}
		responses.WriteSuccess(w, map[string]any{
			"message":         message,
			"order_id":        result.Order.OrderID,
			"activation_code": result.Order.ActivationCode,
			"expires_at":      result.Order.ExpiresAt,
		})
	}
}
