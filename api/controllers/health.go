package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/nutriscan-activation/api/responses"
	"github.com/angelmondragon/nutriscan-activation/internal/activation"
	"github.com/angelmondragon/nutriscan-activation/pkg/config"
	"github.com/angelmondragon/nutriscan-activation/pkg/logger"
)

type statsReader interface {
	Stats(ctx context.Context) (activation.Stats, error)
}

func Health(cfg *config.Config, svc statsReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stats, err := svc.Stats(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"message":       cfg.App.Name + " is running",
			"timestamp":     time.Now().UTC(),
			"orders_count":  stats.Orders,
			"total_codes":   stats.Codes.Total(),
			"active_codes":  stats.Codes.Unused,
			"used_codes":    stats.Codes.Used,
			"expired_codes": stats.Codes.Expired,
			"environment":   cfg.App.Env,
		})
	}
}

func Root(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"message":     cfg.App.Name,
			"version":     cfg.App.Version,
			"environment": cfg.App.Env,
			"endpoints": map[string]string{
				"webhook":           "/mylink-webhook",
				"verify":            "/verify-activation",
				"activation_status": "/activation-codes/{code}",
				"orders":            "/orders",
				"order":             "/orders/{orderId}",
				"health":            "/health",
				"metrics":           "/metrics",
			},
		})
	}
}
