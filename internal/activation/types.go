package activation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrCodeNotFound  = errors.New("activation code not found")
	ErrCodeUsed      = errors.New("activation code already used")
	ErrCodeExpired   = errors.New("activation code expired")
	ErrCodeExists    = errors.New("activation code already issued")
)

// Order is the canonical record derived from a webhook delivery.
type Order struct {
	OrderID        string          `json:"order_id"`
	CustomerEmail  string          `json:"customer_email"`
	CustomerName   string          `json:"customer_name"`
	ProductName    string          `json:"product_name"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	Timestamp      string          `json:"timestamp"`
	ActivationCode string          `json:"activation_code"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
	Source         string          `json:"source"`
}

// MarshalJSON writes the amount as a bare JSON number.
func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		Amount json.Number `json:"amount"`
	}{plain: plain(o), Amount: json.Number(o.Amount.String())})
}

// CodeEntry tracks the lifecycle of one issued activation code.
type CodeEntry struct {
	Code          string     `json:"activation_code"`
	OrderID       string     `json:"order_id"`
	CustomerEmail string     `json:"customer_email"`
	CustomerName  string     `json:"customer_name"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	Used          bool       `json:"used"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
	UserEmail     string     `json:"user_email,omitempty"`
}

// Expired reports whether the entry is past its expiry at now.
func (e CodeEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Activation joins a code entry with the order it was issued for.
type Activation struct {
	Code        CodeEntry
	ProductName string
}

// Notification is what a sender receives after a code is issued.
type Notification struct {
	OrderID        string
	CustomerEmail  string
	CustomerName   string
	ProductName    string
	ActivationCode string
	ExpiresAt      time.Time
	Source         string
}

// NotificationFromOrder builds the notification for a freshly issued order.
func NotificationFromOrder(order Order) Notification {
	return Notification{
		OrderID:        order.OrderID,
		CustomerEmail:  order.CustomerEmail,
		CustomerName:   order.CustomerName,
		ProductName:    order.ProductName,
		ActivationCode: order.ActivationCode,
		ExpiresAt:      order.ExpiresAt,
		Source:         order.Source,
	}
}

// NotificationSender delivers activation codes to customers.
type NotificationSender interface {
	SendActivation(ctx context.Context, n Notification) error
}

// OrderStore holds canonical orders. Insert does not enforce uniqueness.
type OrderStore interface {
	Insert(ctx context.Context, order Order) error
	FindByOrderID(ctx context.Context, orderID string) (Order, error)
	All(ctx context.Context) ([]Order, error)
	Count(ctx context.Context) (int, error)
}

// CodeStore holds code entries keyed by code.
// Put never overwrites; MarkUsed is the only mutation of an existing entry.
type CodeStore interface {
	Put(ctx context.Context, entry CodeEntry) error
	Get(ctx context.Context, code string) (CodeEntry, error)
	MarkUsed(ctx context.Context, code string, usedAt time.Time, userEmail string) (CodeEntry, error)
	List(ctx context.Context) ([]CodeEntry, error)
	Count(ctx context.Context) (int, error)
}

// MissingFieldsError reports required canonical fields that could not be resolved.
type MissingFieldsError struct {
	Missing  []string
	Received []string
	Required []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// Details renders the error for the HTTP boundary.
func (e *MissingFieldsError) Details() map[string]any {
	return map[string]any{
		"missing_fields":  e.Missing,
		"received_fields": e.Received,
		"required_fields": e.Required,
	}
}
