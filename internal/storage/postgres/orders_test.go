package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/database"
	"storefront/internal/model"
)

// newTestDB connects to the database named by TEST_DATABASE_URI and prepares
// the schema. The whole test is skipped when no test database is reachable.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	uri := os.Getenv("TEST_DATABASE_URI")
	if uri == "" {
		t.Skip("TEST_DATABASE_URI not set, skipping Postgres integration tests")
	}

	db, err := database.NewDB(uri)
	if err != nil {
		t.Skipf("skipping Postgres integration tests: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	require.NoError(t, database.InitSchema(db))

	_, err = db.Exec(`TRUNCATE order_items, orders, products, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return db
}

func seedUserAndProduct(t *testing.T, db *sql.DB) (userID, productID int64) {
	t.Helper()

	err := db.QueryRow(
		`INSERT INTO users (name, email, password_hash, role) VALUES ('Ada', 'ada@example.com', 'x', 'customer') RETURNING id`,
	).Scan(&userID)
	require.NoError(t, err)

	err = db.QueryRow(
		`INSERT INTO products (name, description, price, category) VALUES ('mug', '', 5.0, 'kitchen') RETURNING id`,
	).Scan(&productID)
	require.NoError(t, err)

	return userID, productID
}

func TestStore_OrderRoundTrip(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	userID, productID := seedUserAndProduct(t, db)

	exists, err := store.ProductExists(ctx, productID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.ProductExists(ctx, productID+100)
	require.NoError(t, err)
	assert.False(t, exists)

	order := &model.Order{
		UserID:         userID,
		OrderDate:      time.Now().UTC(),
		OrderTotal:     10.0,
		DeliveryStatus: model.StatusPending,
	}
	err = store.WithTx(ctx, func(txCtx context.Context) error {
		if err := store.InsertOrder(txCtx, order); err != nil {
			return err
		}
		return store.InsertOrderItem(txCtx, &model.OrderItem{
			OrderID:   order.ID,
			ProductID: productID,
			Quantity:  2,
			UnitPrice: 5.0,
		})
	})
	require.NoError(t, err)
	require.NotZero(t, order.ID)

	got, err := store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 10.0, got.OrderTotal)
	assert.Equal(t, model.StatusPending, got.DeliveryStatus)

	items, err := store.ListOrderItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	owner, err := store.FindUser(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, "ada@example.com", owner.Email)

	require.NoError(t, store.UpdateDeliveryStatus(ctx, order.ID, model.StatusDelivered))
	got, err = store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, got.DeliveryStatus)

	require.NoError(t, store.DeleteOrder(ctx, order.ID))
	got, err = store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Cascade removed the line items as well.
	items, err = store.ListOrderItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStore_WithTxRollsBack(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	userID, _ := seedUserAndProduct(t, db)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(txCtx context.Context) error {
		order := &model.Order{
			UserID:         userID,
			OrderDate:      time.Now().UTC(),
			OrderTotal:     5.0,
			DeliveryStatus: model.StatusPending,
		}
		if err := store.InsertOrder(txCtx, order); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&count))
	assert.Zero(t, count)
}

func TestStore_FindOrderItemAbsent(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)

	item, err := store.FindOrderItem(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Nil(t, item)
}
