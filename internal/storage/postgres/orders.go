// Package postgres implements the order store over a relational schema.
// All methods respect a transaction placed on the context by WithTx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/model"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product: %w", err)
	}
	return exists, nil
}

func (s *Store) InsertOrder(ctx context.Context, order *model.Order) error {
	err := s.conn(ctx).QueryRowContext(ctx,
		`INSERT INTO orders (user_id, order_date, order_total, delivery_status)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		order.UserID, order.OrderDate, order.OrderTotal, order.DeliveryStatus,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *Store) InsertOrderItem(ctx context.Context, item *model.OrderItem) error {
	err := s.conn(ctx).QueryRowContext(ctx,
		`INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		item.OrderID, item.ProductID, item.Quantity, item.UnitPrice,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (s *Store) FindOrderItem(ctx context.Context, orderID, productID int64) (*model.OrderItem, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price
		 FROM order_items WHERE order_id = $1 AND product_id = $2`,
		orderID, productID)

	var item model.OrderItem
	if err := row.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find order item: %w", err)
	}
	return &item, nil
}

func (s *Store) UpdateOrderItem(ctx context.Context, item *model.OrderItem) error {
	_, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE order_items SET quantity = $1, unit_price = $2 WHERE id = $3`,
		item.Quantity, item.UnitPrice, item.ID)
	if err != nil {
		return fmt.Errorf("update order item: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT id, user_id, order_date, order_total, delivery_status
		 FROM orders WHERE id = $1`, orderID)

	var o model.Order
	if err := row.Scan(&o.ID, &o.UserID, &o.OrderDate, &o.OrderTotal, &o.DeliveryStatus); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (s *Store) UpdateOrder(ctx context.Context, order *model.Order) error {
	_, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE orders SET user_id = $1, order_date = $2, order_total = $3 WHERE id = $4`,
		order.UserID, order.OrderDate, order.OrderTotal, order.ID)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

func (s *Store) UpdateDeliveryStatus(ctx context.Context, orderID int64, status model.DeliveryStatus) error {
	_, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE orders SET delivery_status = $1 WHERE id = $2`, status, orderID)
	if err != nil {
		return fmt.Errorf("update delivery status: %w", err)
	}
	return nil
}

func (s *Store) DeleteOrder(ctx context.Context, orderID int64) error {
	// order_items go with it via ON DELETE CASCADE
	_, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT id, user_id, order_date, order_total, delivery_status
		 FROM orders WHERE user_id = $1 ORDER BY order_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.OrderDate, &o.OrderTotal, &o.DeliveryStatus); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return orders, nil
}

func (s *Store) ListOrderItems(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price
		 FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return items, nil
}

func (s *Store) FindUser(ctx context.Context, userID int64) (*model.User, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT id, name, email, role FROM users WHERE id = $1`, userID)

	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}
