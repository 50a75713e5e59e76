package sqlstore

import (
	"time"

	"github.com/angelmondragon/nutriscan-activation/internal/activation"
	"github.com/shopspring/decimal"
)

type orderRecord struct {
	Seq            uint64          `gorm:"primaryKey;autoIncrement"`
	OrderID        string          `gorm:"index;not null"`
	CustomerEmail  string          `gorm:"not null"`
	CustomerName   string          `gorm:"not null"`
	ProductName    string          `gorm:"not null"`
	Amount         decimal.Decimal `gorm:"type:text;not null"`
	Status         string          `gorm:"not null"`
	Timestamp      string          `gorm:"not null"`
	ActivationCode string          `gorm:"size:8;not null"`
	CreatedAt      time.Time       `gorm:"not null"`
	ExpiresAt      time.Time       `gorm:"not null"`
	Source         string
}

func (orderRecord) TableName() string { return "orders" }

func newOrderRecord(order activation.Order) orderRecord {
	return orderRecord{
		OrderID:        order.OrderID,
		CustomerEmail:  order.CustomerEmail,
		CustomerName:   order.CustomerName,
		ProductName:    order.ProductName,
		Amount:         order.Amount,
		Status:         order.Status,
		Timestamp:      order.Timestamp,
		ActivationCode: order.ActivationCode,
		CreatedAt:      order.CreatedAt.UTC(),
		ExpiresAt:      order.ExpiresAt.UTC(),
		Source:         order.Source,
	}
}

func (r orderRecord) toDomain() activation.Order {
	return activation.Order{
		OrderID:        r.OrderID,
		CustomerEmail:  r.CustomerEmail,
		CustomerName:   r.CustomerName,
		ProductName:    r.ProductName,
		Amount:         r.Amount,
		Status:         r.Status,
		Timestamp:      r.Timestamp,
		ActivationCode: r.ActivationCode,
		CreatedAt:      r.CreatedAt.UTC(),
		ExpiresAt:      r.ExpiresAt.UTC(),
		Source:         r.Source,
	}
}

type codeRecord struct {
	Code          string     `gorm:"primaryKey;size:8"`
	OrderID       string     `gorm:"index;not null"`
	CustomerEmail string     `gorm:"not null"`
	CustomerName  string     `gorm:"not null"`
	CreatedAt     time.Time  `gorm:"not null"`
	ExpiresAt     time.Time  `gorm:"not null"`
	Used          bool       `gorm:"not null;default:false"`
	UsedAt        *time.Time
	UserEmail     string
}

func (codeRecord) TableName() string { return "activation_codes" }

func newCodeRecord(entry activation.CodeEntry) codeRecord {
	return codeRecord{
		Code:          entry.Code,
		OrderID:       entry.OrderID,
		CustomerEmail: entry.CustomerEmail,
		CustomerName:  entry.CustomerName,
		CreatedAt:     entry.CreatedAt.UTC(),
		ExpiresAt:     entry.ExpiresAt.UTC(),
		Used:          entry.Used,
		UsedAt:        entry.UsedAt,
		UserEmail:     entry.UserEmail,
	}
}

func (r codeRecord) toDomain() activation.CodeEntry {
	entry := activation.CodeEntry{
		Code:          r.Code,
		OrderID:       r.OrderID,
		CustomerEmail: r.CustomerEmail,
		CustomerName:  r.CustomerName,
		CreatedAt:     r.CreatedAt.UTC(),
		ExpiresAt:     r.ExpiresAt.UTC(),
		Used:          r.Used,
		UserEmail:     r.UserEmail,
	}
	if r.UsedAt != nil {
		usedAt := r.UsedAt.UTC()
		entry.UsedAt = &usedAt
	}
	return entry
}
