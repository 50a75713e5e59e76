package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/nutriscan-activation/internal/activation"
	"github.com/angelmondragon/nutriscan-activation/pkg/config"
	"github.com/angelmondragon/nutriscan-activation/pkg/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStores(t *testing.T) *Stores {
	t.Helper()
	ctx := context.Background()
	client, err := db.New(ctx, config.StoreConfig{
		Driver:    config.StoreDriverSQLite,
		SQLiteDSN: "file:" + t.Name() + "?mode=memory&cache=shared",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	stores, err := New(ctx, client)
	require.NoError(t, err)
	return stores
}

func TestOrderStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	order := activation.Order{
		OrderID:        "A1",
		CustomerEmail:  "a@b.com",
		CustomerName:   "Ann",
		ProductName:    "NutriScan Premium - 1 Month",
		Amount:         decimal.RequireFromString("25000.50"),
		Status:         "completed",
		Timestamp:      "2026-03-01T10:00:00Z",
		ActivationCode: "ABCD1234",
		CreatedAt:      createdAt,
		ExpiresAt:      createdAt.Add(720 * time.Hour),
		Source:         "mylink_tiktok",
	}
	require.NoError(t, stores.Orders.Insert(ctx, order))
	require.NoError(t, stores.Orders.Insert(ctx, activation.Order{OrderID: "B2", CreatedAt: createdAt, ExpiresAt: createdAt}))

	found, err := stores.Orders.FindByOrderID(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", found.CustomerName)
	assert.True(t, order.Amount.Equal(found.Amount))
	assert.True(t, order.ExpiresAt.Equal(found.ExpiresAt))
	assert.Equal(t, "ABCD1234", found.ActivationCode)

	_, err = stores.Orders.FindByOrderID(ctx, "missing")
	require.ErrorIs(t, err, activation.ErrOrderNotFound)

	all, err := stores.Orders.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A1", all[0].OrderID)
	assert.Equal(t, "B2", all[1].OrderID)

	count, err := stores.Orders.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCodeStorePutDetectsCollision(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	entry := activation.CodeEntry{Code: "ABCD1234", OrderID: "A1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, stores.Codes.Put(ctx, entry))

	entry.OrderID = "B2"
	require.ErrorIs(t, stores.Codes.Put(ctx, entry), activation.ErrCodeExists)

	stored, err := stores.Codes.Get(ctx, "ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, "A1", stored.OrderID)
	assert.False(t, stored.Used)

	_, err = stores.Codes.Get(ctx, "ZZZZ0000")
	require.ErrorIs(t, err, activation.ErrCodeNotFound)
}

func TestCodeStoreMarkUsedTransitionsOnce(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, stores.Codes.Put(ctx, activation.CodeEntry{Code: "ABCD1234", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))

	usedAt := now.Add(time.Minute)
	entry, err := stores.Codes.MarkUsed(ctx, "ABCD1234", usedAt, "user@example.com")
	require.NoError(t, err)
	assert.True(t, entry.Used)
	require.NotNil(t, entry.UsedAt)
	assert.True(t, usedAt.Equal(*entry.UsedAt))
	assert.Equal(t, "user@example.com", entry.UserEmail)

	again, err := stores.Codes.MarkUsed(ctx, "ABCD1234", usedAt.Add(time.Minute), "other@example.com")
	require.ErrorIs(t, err, activation.ErrCodeUsed)
	assert.Equal(t, "user@example.com", again.UserEmail)

	_, err = stores.Codes.MarkUsed(ctx, "NOPE0000", usedAt, "")
	require.ErrorIs(t, err, activation.ErrCodeNotFound)
}

func TestCodeStoreListAndCount(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, code := range []string{"CCCC3333", "AAAA1111", "BBBB2222"} {
		issued := base.Add(time.Duration(i) * time.Second)
		require.NoError(t, stores.Codes.Put(ctx, activation.CodeEntry{Code: code, CreatedAt: issued, ExpiresAt: issued.Add(time.Hour)}))
	}

	entries, err := stores.Codes.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "CCCC3333", entries[0].Code)
	assert.Equal(t, "AAAA1111", entries[1].Code)
	assert.Equal(t, "BBBB2222", entries[2].Code)

	count, err := stores.Codes.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
