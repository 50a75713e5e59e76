package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/nutriscan-activation/internal/activation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type database interface {
	DB() *gorm.DB
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Stores are the gorm-backed order and code stores.
type Stores struct {
	Orders *OrderStore
	Codes  *CodeStore
}

// New migrates the schema and binds both stores to conn.
func New(ctx context.Context, conn database) (*Stores, error) {
	if conn == nil {
		return nil, fmt.Errorf("database required")
	}
	if err := conn.DB().WithContext(ctx).AutoMigrate(&orderRecord{}, &codeRecord{}); err != nil {
		return nil, fmt.Errorf("migrating activation schema: %w", err)
	}
	return &Stores{
		Orders: &OrderStore{db: conn.DB()},
		Codes:  &CodeStore{conn: conn},
	}, nil
}

type OrderStore struct {
	db *gorm.DB
}

func (s *OrderStore) Insert(ctx context.Context, order activation.Order) error {
	record := newOrderRecord(order)
	return s.db.WithContext(ctx).Create(&record).Error
}

func (s *OrderStore) FindByOrderID(ctx context.Context, orderID string) (activation.Order, error) {
	var record orderRecord
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("seq ASC").
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return activation.Order{}, activation.ErrOrderNotFound
	}
	if err != nil {
		return activation.Order{}, err
	}
	return record.toDomain(), nil
}

func (s *OrderStore) All(ctx context.Context) ([]activation.Order, error) {
	var records []orderRecord
	if err := s.db.WithContext(ctx).Order("seq ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]activation.Order, 0, len(records))
	for _, record := range records {
		orders = append(orders, record.toDomain())
	}
	return orders, nil
}

func (s *OrderStore) Count(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&orderRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

type CodeStore struct {
	conn database
}

func (s *CodeStore) Put(ctx context.Context, entry activation.CodeEntry) error {
	record := newCodeRecord(entry)
	result := s.conn.DB().WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return activation.ErrCodeExists
	}
	return nil
}

func (s *CodeStore) Get(ctx context.Context, code string) (activation.CodeEntry, error) {
	return findCode(s.conn.DB().WithContext(ctx), code)
}

// MarkUsed flips used with a conditional update so only one caller can win.
func (s *CodeStore) MarkUsed(ctx context.Context, code string, usedAt time.Time, userEmail string) (activation.CodeEntry, error) {
	var updated activation.CodeEntry
	err := s.conn.WithTx(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&codeRecord{}).
			Where("code = ? AND used = ?", code, false).
			Updates(map[string]any{
				"used":       true,
				"used_at":    usedAt.UTC(),
				"user_email": userEmail,
			})
		if result.Error != nil {
			return result.Error
		}

		entry, err := findCode(tx, code)
		if err != nil {
			return err
		}
		updated = entry
		if result.RowsAffected == 0 {
			return activation.ErrCodeUsed
		}
		return nil
	})
	return updated, err
}

func (s *CodeStore) List(ctx context.Context) ([]activation.CodeEntry, error) {
	var records []codeRecord
	if err := s.conn.DB().WithContext(ctx).Order("created_at ASC").Order("rowid ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	entries := make([]activation.CodeEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, record.toDomain())
	}
	return entries, nil
}

func (s *CodeStore) Count(ctx context.Context) (int, error) {
	var count int64
	if err := s.conn.DB().WithContext(ctx).Model(&codeRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func findCode(db *gorm.DB, code string) (activation.CodeEntry, error) {
	var record codeRecord
	err := db.Where("code = ?", code).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return activation.CodeEntry{}, activation.ErrCodeNotFound
	}
	if err != nil {
		return activation.CodeEntry{}, err
	}
	return record.toDomain(), nil
}

var (
	_ activation.OrderStore = (*OrderStore)(nil)
	_ activation.CodeStore  = (*CodeStore)(nil)
)
