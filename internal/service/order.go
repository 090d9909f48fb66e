package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"
)

// OrderStore is the persistence surface the order workflow runs against.
// WithTx scopes the enclosed calls to one transaction; everything either
// commits together or not at all.
type OrderStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ProductExists(ctx context.Context, productID int64) (bool, error)
	InsertOrder(ctx context.Context, order *model.Order) error
	InsertOrderItem(ctx context.Context, item *model.OrderItem) error
	FindOrderItem(ctx context.Context, orderID, productID int64) (*model.OrderItem, error)
	UpdateOrderItem(ctx context.Context, item *model.OrderItem) error
	GetOrder(ctx context.Context, orderID int64) (*model.Order, error)
	UpdateOrder(ctx context.Context, order *model.Order) error
	UpdateDeliveryStatus(ctx context.Context, orderID int64, status model.DeliveryStatus) error
	DeleteOrder(ctx context.Context, orderID int64) error
	ListOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	ListOrderItems(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	FindUser(ctx context.Context, userID int64) (*model.User, error)
}

type OrderService struct {
	store OrderStore
}

func NewOrderService(store OrderStore) *OrderService {
	return &OrderService{store: store}
}

type OrderItemInput struct {
	ProductID int64
	Quantity  int
	UnitPrice float64
}

type OrderInput struct {
	OrderDate  time.Time
	OrderTotal float64
	Items      []OrderItemInput
}

// validate runs the two precommit checks in order: every referenced product
// must exist, and the submitted total must equal the sum of the line items
// exactly. Both run before any write.
//
// The unit prices are taken from the submission as-is and are not
// cross-checked against the catalog price.
func (s *OrderService) validate(ctx context.Context, in OrderInput) error {
	for _, item := range in.Items {
		ok, err := s.store.ProductExists(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("check product %d: %w", item.ProductID, err)
		}
		if !ok {
			return ErrInvalidReference
		}
	}

	var total float64
	for _, item := range in.Items {
		total += float64(item.Quantity) * item.UnitPrice
	}
	if total != in.OrderTotal {
		return ErrInvalidTotal
	}

	return nil
}

// Create validates the proposed order and persists the order row together
// with all of its line items in a single transaction.
func (s *OrderService) Create(ctx context.Context, ownerID int64, in OrderInput) (*model.Order, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	orderDate := in.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now().UTC()
	}

	order := &model.Order{
		UserID:         ownerID,
		OrderDate:      orderDate,
		OrderTotal:     in.OrderTotal,
		DeliveryStatus: model.StatusPending,
	}

	var items []model.OrderItem
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.store.InsertOrder(txCtx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for _, it := range in.Items {
			item := model.OrderItem{
				OrderID:   order.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			}
			if err := s.store.InsertOrderItem(txCtx, &item); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.OrderItems = items

	owner, err := s.store.FindUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}
	order.User = owner

	return order, nil
}

// Update applies the same validations as Create, then reconciles line items
// against the replacement payload: an item matching (order_id, product_id)
// is overwritten in place, anything else is inserted. Items missing from the
// payload are left untouched.
func (s *OrderService) Update(ctx context.Context, orderID, ownerID int64, in OrderInput) (*model.Order, error) {
	existing, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}

	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	orderDate := in.OrderDate
	if orderDate.IsZero() {
		orderDate = existing.OrderDate
	}

	err = s.store.WithTx(ctx, func(txCtx context.Context) error {
		updated := &model.Order{
			ID:             orderID,
			UserID:         ownerID,
			OrderDate:      orderDate,
			OrderTotal:     in.OrderTotal,
			DeliveryStatus: existing.DeliveryStatus,
		}
		if err := s.store.UpdateOrder(txCtx, updated); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		for _, it := range in.Items {
			found, err := s.store.FindOrderItem(txCtx, orderID, it.ProductID)
			if err != nil {
				return fmt.Errorf("find order item: %w", err)
			}
			if found != nil {
				found.Quantity = it.Quantity
				found.UnitPrice = it.UnitPrice
				if err := s.store.UpdateOrderItem(txCtx, found); err != nil {
					return fmt.Errorf("update order item: %w", err)
				}
				continue
			}
			item := model.OrderItem{
				OrderID:   orderID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			}
			if err := s.store.InsertOrderItem(txCtx, &item); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, orderID)
}

// UpdateDeliveryStatus is an admin-only write. There is no transition graph:
// any status may replace any other, and repeating a status is not an error.
func (s *OrderService) UpdateDeliveryStatus(ctx context.Context, orderID int64, status model.DeliveryStatus, requesterRole model.Role) (*model.Order, error) {
	if requesterRole != model.RoleAdmin {
		return nil, ErrForbidden
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrNotFound
	}

	if err := s.store.UpdateDeliveryStatus(ctx, orderID, status); err != nil {
		return nil, fmt.Errorf("update delivery status: %w", err)
	}

	return s.Get(ctx, orderID)
}

func (s *OrderService) Delete(ctx context.Context, orderID, requesterID int64, requesterRole model.Role) (*model.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if requesterRole != model.RoleAdmin && order.UserID != requesterID {
		return nil, ErrForbidden
	}

	if err := s.store.DeleteOrder(ctx, orderID); err != nil {
		return nil, fmt.Errorf("delete order: %w", err)
	}

	return order, nil
}

// Get returns the fully materialized order: line items plus the owner
// payload.
func (s *OrderService) Get(ctx context.Context, orderID int64) (*model.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrNotFound
	}

	items, err := s.store.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	order.OrderItems = items

	owner, err := s.store.FindUser(ctx, order.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}
	order.User = owner

	return order, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	orders, err := s.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	owner, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}

	for i := range orders {
		items, err := s.store.ListOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		orders[i].OrderItems = items
		orders[i].User = owner
	}

	return orders, nil
}
