package notify

import (
	"context"

	"github.com/angelmondragon/nutriscan-activation/internal/activation"
	"github.com/angelmondragon/nutriscan-activation/pkg/logger"
)

// LogSender writes the rendered activation message to the structured log.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogSender{logg: logg}
}

func (s *LogSender) SendActivation(ctx context.Context, n activation.Notification) error {
	subject, body, err := RenderActivation(n)
	if err != nil {
		return err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":        n.OrderID,
		"customer_email":  n.CustomerEmail,
		"activation_code": n.ActivationCode,
		"subject":         subject,
		"body":            body,
	})
	s.logg.Info(ctx, "notification.activation")
	return nil
}
