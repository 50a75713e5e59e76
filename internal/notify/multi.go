package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/nutriscan-activation/internal/activation"
	"github.com/angelmondragon/nutriscan-activation/pkg/config"
	"github.com/angelmondragon/nutriscan-activation/pkg/logger"
	"github.com/angelmondragon/nutriscan-activation/pkg/metrics"
	"github.com/angelmondragon/nutriscan-activation/pkg/redis"
	"go.uber.org/multierr"
)

// Channel pairs a sender with the name it is reported under.
type Channel struct {
	Name   string
	Sender activation.NotificationSender
}

// Multi fans a notification out to every channel. One failing channel does
// not stop the others.
type Multi struct {
	channels []Channel
	metrics  *metrics.ActivationMetrics
}

func NewMulti(m *metrics.ActivationMetrics, channels ...Channel) *Multi {
	return &Multi{channels: channels, metrics: m}
}

// Channels lists the configured channel names.
func (m *Multi) Channels() []string {
	names := make([]string, 0, len(m.channels))
	for _, ch := range m.channels {
		names = append(names, ch.Name)
	}
	return names
}

func (m *Multi) SendActivation(ctx context.Context, n activation.Notification) error {
	var errs error
	for _, ch := range m.channels {
		if err := ch.Sender.SendActivation(ctx, n); err != nil {
			m.metrics.IncNotification(ch.Name, "failed")
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", ch.Name, err))
			continue
		}
		m.metrics.IncNotification(ch.Name, "sent")
	}
	return errs
}

// Deps are the shared clients channels may need.
type Deps struct {
	Logger    *logger.Logger
	Publisher redis.Publisher
	Metrics   *metrics.ActivationMetrics
}

// FromConfig builds the fan-out for the channels named in cfg.Notify.
func FromConfig(cfg *config.Config, deps Deps) (*Multi, error) {
	var channels []Channel
	for _, raw := range cfg.Notify.Channels {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "":
			continue
		case config.ChannelLog:
			channels = append(channels, Channel{Name: name, Sender: NewLogSender(deps.Logger)})
		case config.ChannelEmail:
			sender, err := NewEmailSender(cfg.SMTP)
			if err != nil {
				return nil, err
			}
			channels = append(channels, Channel{Name: name, Sender: sender})
		case config.ChannelRedis:
			sender, err := NewRedisSender(deps.Publisher, cfg.Redis.NotifyChannel)
			if err != nil {
				return nil, err
			}
			channels = append(channels, Channel{Name: name, Sender: sender})
		default:
			return nil, fmt.Errorf("unknown notification channel %q", raw)
		}
	}
	return NewMulti(deps.Metrics, channels...), nil
}
