package activation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/nutriscan-activation/pkg/config"
	pkgerrors "github.com/angelmondragon/nutriscan-activation/pkg/errors"
	"github.com/angelmondragon/nutriscan-activation/pkg/logger"
	"github.com/angelmondragon/nutriscan-activation/pkg/metrics"
)

const (
	MsgMissingFields   = "Missing required fields"
	MsgCodeRequired    = "Activation code required"
	MsgInvalidCode     = "Invalid activation code"
	MsgCodeUsed        = "Activation code already used"
	MsgCodeExpired     = "Activation code expired"
	MsgOrderNotFound   = "Order not found"
	MsgInternalFailure = "Internal server error"

	operationVerify  = "verify"
	operationConsume = "consume"
)

// Settings tunes issuance.
type Settings struct {
	CodeTTL         time.Duration
	MaxCodeAttempts int
	Defaults        Defaults
	Source          string
}

// SettingsFromConfig maps the activation env block onto Settings.
func SettingsFromConfig(cfg config.ActivationConfig) Settings {
	return Settings{
		CodeTTL:         cfg.CodeTTL,
		MaxCodeAttempts: cfg.MaxCodeAttempts,
		Defaults: Defaults{
			ProductName: cfg.DefaultProduct,
			Amount:      cfg.DefaultAmount,
			Status:      cfg.DefaultStatus,
		},
		Source: cfg.Source,
	}
}

// ServiceParams collects the collaborators of Service.
type ServiceParams struct {
	Orders    OrderStore
	Codes     CodeStore
	Generator CodeGenerator
	Notifier  NotificationSender
	Metrics   *metrics.ActivationMetrics
	Logger    *logger.Logger
	Now       func() time.Time
	Settings  Settings
}

// IngestResult is the outcome of one webhook delivery.
type IngestResult struct {
	Order    Order
	Replayed bool
}

// Stats summarises the stores for health reporting.
type Stats struct {
	Orders int
	Codes  CodeStats
}

// Service ingests orders and answers activation queries.
type Service struct {
	orders    OrderStore
	registry  *Registry
	generator CodeGenerator
	notifier  NotificationSender
	metrics   *metrics.ActivationMetrics
	logg      *logger.Logger
	now       func() time.Time
	settings  Settings

	// ingestMu covers duplicate check through insert so one order_id maps to one code.
	ingestMu sync.Mutex
}

func NewService(p ServiceParams) (*Service, error) {
	if p.Orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if p.Generator == nil {
		return nil, fmt.Errorf("code generator required")
	}
	if p.Settings.CodeTTL <= 0 {
		return nil, fmt.Errorf("code ttl must be positive")
	}
	if p.Settings.MaxCodeAttempts <= 0 {
		return nil, fmt.Errorf("max code attempts must be positive")
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	registry, err := NewRegistry(p.Codes, now)
	if err != nil {
		return nil, err
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		orders:    p.Orders,
		registry:  registry,
		generator: p.Generator,
		notifier:  p.Notifier,
		metrics:   p.Metrics,
		logg:      logg,
		now:       now,
		settings:  p.Settings,
	}, nil
}

// Ingest turns a webhook payload into an order with a fresh activation code.
// A known order_id is a replay and returns the stored order untouched.
func (s *Service) Ingest(ctx context.Context, payload map[string]any) (IngestResult, error) {
	now := s.now().UTC()
	fields, err := Normalize(payload, s.settings.Defaults, now)
	if err != nil {
		s.metrics.IncDelivery("invalid")
		var missing *MissingFieldsError
		if errors.As(err, &missing) {
			return IngestResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, MsgMissingFields).WithDetails(missing.Details())
		}
		return IngestResult{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload")
	}

	ctx = s.logg.WithOrderID(ctx, fields.OrderID)
	result, err := s.createOrReplay(ctx, fields, now)
	if err != nil {
		s.metrics.IncDelivery("failed")
		return IngestResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, MsgInternalFailure)
	}

	if result.Replayed {
		s.metrics.IncDelivery("replayed")
		s.logg.Info(ctx, "webhook.replayed")
		return result, nil
	}

	s.metrics.IncDelivery("created")
	s.metrics.IncIssued()
	ctx = s.logg.WithActivationCode(ctx, result.Order.ActivationCode)
	s.logg.Info(s.logg.WithField(ctx, "customer_email", result.Order.CustomerEmail), "webhook.order_created")

	if s.notifier != nil {
		if err := s.notifier.SendActivation(ctx, NotificationFromOrder(result.Order)); err != nil {
			s.logg.Error(ctx, "webhook.notification_failed", err)
		}
	}
	return result, nil
}

func (s *Service) createOrReplay(ctx context.Context, fields Fields, now time.Time) (IngestResult, error) {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	existing, err := s.orders.FindByOrderID(ctx, fields.OrderID)
	if err == nil {
		return IngestResult{Order: existing, Replayed: true}, nil
	}
	if !errors.Is(err, ErrOrderNotFound) {
		return IngestResult{}, fmt.Errorf("checking for existing order: %w", err)
	}

	expiresAt := now.Add(s.settings.CodeTTL)
	entry := CodeEntry{
		OrderID:       fields.OrderID,
		CustomerEmail: fields.CustomerEmail,
		CustomerName:  fields.CustomerName,
		CreatedAt:     now,
		ExpiresAt:     expiresAt,
	}
	code, err := s.issueUnique(ctx, entry)
	if err != nil {
		return IngestResult{}, err
	}

	order := Order{
		OrderID:        fields.OrderID,
		CustomerEmail:  fields.CustomerEmail,
		CustomerName:   fields.CustomerName,
		ProductName:    fields.ProductName,
		Amount:         fields.Amount,
		Status:         fields.Status,
		Timestamp:      fields.Timestamp,
		ActivationCode: code,
		CreatedAt:      now,
		ExpiresAt:      expiresAt,
		Source:         s.settings.Source,
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return IngestResult{}, fmt.Errorf("inserting order: %w", err)
	}
	return IngestResult{Order: order}, nil
}

func (s *Service) issueUnique(ctx context.Context, entry CodeEntry) (string, error) {
	for attempt := 1; attempt <= s.settings.MaxCodeAttempts; attempt++ {
		code, err := s.generator.Generate()
		if err != nil {
			return "", fmt.Errorf("generating activation code: %w", err)
		}
		entry.Code = code
		err = s.registry.Issue(ctx, entry)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, ErrCodeExists) {
			return "", fmt.Errorf("issuing activation code: %w", err)
		}
		s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt), "activation.code_collision")
	}
	return "", fmt.Errorf("no unique activation code after %d attempts", s.settings.MaxCodeAttempts)
}

// Verify checks a code without redeeming it.
func (s *Service) Verify(ctx context.Context, code string) (Activation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Activation{}, pkgerrors.New(pkgerrors.CodeValidation, MsgCodeRequired)
	}
	entry, err := s.registry.Verify(ctx, code)
	return s.activationResult(ctx, operationVerify, entry, err)
}

// Consume redeems a code for userEmail.
func (s *Service) Consume(ctx context.Context, code, userEmail string) (Activation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Activation{}, pkgerrors.New(pkgerrors.CodeValidation, MsgCodeRequired)
	}
	entry, err := s.registry.Consume(ctx, code, strings.TrimSpace(userEmail))
	result, err := s.activationResult(ctx, operationConsume, entry, err)
	if err == nil {
		s.logg.Info(s.logg.WithActivationCode(s.logg.WithOrderID(ctx, entry.OrderID), entry.Code), "activation.consumed")
	}
	return result, err
}

func (s *Service) activationResult(ctx context.Context, operation string, entry CodeEntry, err error) (Activation, error) {
	if err != nil {
		switch {
		case errors.Is(err, ErrCodeNotFound):
			s.metrics.IncCheck(operation, "not_found")
			return Activation{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, MsgInvalidCode)
		case errors.Is(err, ErrCodeUsed):
			s.metrics.IncCheck(operation, "used")
			return Activation{}, pkgerrors.Wrap(pkgerrors.CodeInvalidState, err, MsgCodeUsed)
		case errors.Is(err, ErrCodeExpired):
			s.metrics.IncCheck(operation, "expired")
			return Activation{}, pkgerrors.Wrap(pkgerrors.CodeInvalidState, err, MsgCodeExpired)
		default:
			s.metrics.IncCheck(operation, "error")
			return Activation{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, MsgInternalFailure)
		}
	}
	s.metrics.IncCheck(operation, "ok")

	result := Activation{Code: entry}
	order, err := s.orders.FindByOrderID(ctx, entry.OrderID)
	switch {
	case err == nil:
		result.ProductName = order.ProductName
	case !errors.Is(err, ErrOrderNotFound):
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "activation.order_lookup_failed")
	}
	return result, nil
}

// ListOrders returns every order in insertion order.
func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.All(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, MsgInternalFailure)
	}
	return orders, nil
}

// GetOrder returns the stored record for orderID.
func (s *Service) GetOrder(ctx context.Context, orderID string) (Order, error) {
	order, err := s.orders.FindByOrderID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return Order{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, MsgOrderNotFound)
		}
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, MsgInternalFailure)
	}
	return order, nil
}

// Stats counts orders and codes by state.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	orders, err := s.orders.Count(ctx)
	if err != nil {
		return Stats{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, MsgInternalFailure)
	}
	codes, err := s.registry.Stats(ctx)
	if err != nil {
		return Stats{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, MsgInternalFailure)
	}
	return Stats{Orders: orders, Codes: codes}, nil
}
