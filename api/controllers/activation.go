package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/nutriscan-activation/api/responses"
	"github.com/angelmondragon/nutriscan-activation/api/validators"
	"github.com/angelmondragon/nutriscan-activation/internal/activation"
	"github.com/angelmondragon/nutriscan-activation/pkg/logger"
)

type activationChecker interface {
	Verify(ctx context.Context, code string) (activation.Activation, error)
	Consume(ctx context.Context, code, userEmail string) (activation.Activation, error)
}

type verifyActivationRequest struct {
	ActivationCode string `json:"activation_code"`
	UserEmail      string `json:"user_email" validate:"max=320"`
}

// VerifyActivation redeems a code for the calling app user.
func VerifyActivation(svc activationChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req verifyActivationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Consume(ctx, req.ActivationCode, req.UserEmail)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		body := activationBody(result)
		body["message"] = "Activation successful"
		body["used_at"] = result.Code.UsedAt
		responses.WriteSuccess(w, body)
	}
}

// ActivationStatus reports whether a code could be redeemed, without redeeming it.
func ActivationStatus(svc activationChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		result, err := svc.Verify(ctx, chi.URLParam(r, "code"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		body := activationBody(result)
		body["message"] = "Activation code valid"
		body["used"] = result.Code.Used
		responses.WriteSuccess(w, body)
	}
}

func activationBody(result activation.Activation) map[string]any {
	return map[string]any{
		"activation_code": result.Code.Code,
		"order_id":        result.Code.OrderID,
		"customer_name":   result.Code.CustomerName,
		"product_name":    result.ProductName,
		"expires_at":      result.Code.ExpiresAt,
	}
}
