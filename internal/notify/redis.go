package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/nutriscan-activation/internal/activation"
	pkgerrors "github.com/angelmondragon/nutriscan-activation/pkg/errors"
	"github.com/angelmondragon/nutriscan-activation/pkg/redis"
	"github.com/google/uuid"
)

const EventActivationIssued = "activation.issued"

// ActivationEvent is the payload published for downstream consumers.
type ActivationEvent struct {
	EventID        string    `json:"event_id"`
	Type           string    `json:"type"`
	OccurredAt     time.Time `json:"occurred_at"`
	OrderID        string    `json:"order_id"`
	CustomerEmail  string    `json:"customer_email"`
	CustomerName   string    `json:"customer_name"`
	ProductName    string    `json:"product_name"`
	ActivationCode string    `json:"activation_code"`
	ExpiresAt      time.Time `json:"expires_at"`
	Source         string    `json:"source,omitempty"`
}

// RedisSender publishes activation events on a pub/sub channel.
type RedisSender struct {
	publisher redis.Publisher
	channel   string
	now       func() time.Time
}

func NewRedisSender(publisher redis.Publisher, channel string) (*RedisSender, error) {
	if publisher == nil {
		return nil, fmt.Errorf("redis publisher required")
	}
	if channel == "" {
		return nil, fmt.Errorf("redis channel required")
	}
	return &RedisSender{
		publisher: publisher,
		channel:   publisher.ChannelName(channel),
		now:       time.Now,
	}, nil
}

func (s *RedisSender) SendActivation(ctx context.Context, n activation.Notification) error {
	payload, err := json.Marshal(ActivationEvent{
		EventID:        uuid.NewString(),
		Type:           EventActivationIssued,
		OccurredAt:     s.now().UTC(),
		OrderID:        n.OrderID,
		CustomerEmail:  n.CustomerEmail,
		CustomerName:   n.CustomerName,
		ProductName:    n.ProductName,
		ActivationCode: n.ActivationCode,
		ExpiresAt:      n.ExpiresAt.UTC(),
		Source:         n.Source,
	})
	if err != nil {
		return fmt.Errorf("encoding activation event: %w", err)
	}
	if _, err := s.publisher.Publish(ctx, s.channel, payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publishing activation event")
	}
	return nil
}
