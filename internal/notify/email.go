package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"

	"github.com/angelmondragon/nutriscan-activation/internal/activation"
	"github.com/angelmondragon/nutriscan-activation/pkg/config"
	pkgerrors "github.com/angelmondragon/nutriscan-activation/pkg/errors"
	"github.com/jordan-wright/email"
)

type mailFunc func(e *email.Email, addr string, auth smtp.Auth) error

// EmailSender mails the activation code to the customer over SMTP.
type EmailSender struct {
	addr string
	auth smtp.Auth
	from string
	send mailFunc
}

func NewEmailSender(cfg config.SMTPConfig) (*EmailSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("mail from address required")
	}
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &EmailSender{
		addr: net.JoinHostPort(cfg.Host, cfg.Port),
		auth: auth,
		from: cfg.From,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}, nil
}

func (s *EmailSender) SendActivation(ctx context.Context, n activation.Notification) error {
	if n.CustomerEmail == "" {
		return fmt.Errorf("order %s has no customer email", n.OrderID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, body, err := RenderActivation(n)
	if err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = s.from
	e.To = []string{n.CustomerEmail}
	e.Subject = subject
	e.Text = []byte(body)

	if err := s.send(e, s.addr, s.auth); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("sending activation email for order %s", n.OrderID))
	}
	return nil
}
