package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
	"storefront/internal/mw"
	"storefront/internal/service"
)

// memStore is a minimal in-memory service.OrderStore for handler tests.
type memStore struct {
	products map[int64]model.Product
	users    map[int64]model.User
	orders   map[int64]model.Order
	items    map[int64]model.OrderItem
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		products: map[int64]model.Product{
			1: {ID: 1, Name: "mug", Price: 5.0},
			2: {ID: 2, Name: "coaster", Price: 3.0},
		},
		users: map[int64]model.User{
			7: {ID: 7, Name: "Ada", Email: "ada@example.com", Role: model.RoleCustomer},
			1: {ID: 1, Name: "Root", Email: "root@example.com", Role: model.RoleAdmin},
		},
		orders: map[int64]model.Order{},
		items:  map[int64]model.OrderItem{},
		nextID: 1,
	}
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *memStore) ProductExists(_ context.Context, id int64) (bool, error) {
	_, ok := m.products[id]
	return ok, nil
}

func (m *memStore) InsertOrder(_ context.Context, o *model.Order) error {
	o.ID = m.nextID
	m.nextID++
	m.orders[o.ID] = *o
	return nil
}

func (m *memStore) InsertOrderItem(_ context.Context, item *model.OrderItem) error {
	item.ID = m.nextID
	m.nextID++
	m.items[item.ID] = *item
	return nil
}

func (m *memStore) FindOrderItem(_ context.Context, orderID, productID int64) (*model.OrderItem, error) {
	for _, item := range m.items {
		if item.OrderID == orderID && item.ProductID == productID {
			it := item
			return &it, nil
		}
	}
	return nil, nil
}

func (m *memStore) UpdateOrderItem(_ context.Context, item *model.OrderItem) error {
	m.items[item.ID] = *item
	return nil
}

func (m *memStore) GetOrder(_ context.Context, id int64) (*model.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	o.OrderItems = nil
	o.User = nil
	return &o, nil
}

func (m *memStore) UpdateOrder(_ context.Context, o *model.Order) error {
	m.orders[o.ID] = *o
	return nil
}

func (m *memStore) UpdateDeliveryStatus(_ context.Context, id int64, status model.DeliveryStatus) error {
	o := m.orders[id]
	o.DeliveryStatus = status
	m.orders[id] = o
	return nil
}

func (m *memStore) DeleteOrder(_ context.Context, id int64) error {
	delete(m.orders, id)
	return nil
}

func (m *memStore) ListOrdersByUser(_ context.Context, userID int64) ([]model.Order, error) {
	var orders []model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (m *memStore) ListOrderItems(_ context.Context, orderID int64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	for _, item := range m.items {
		if item.OrderID == orderID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (m *memStore) FindUser(_ context.Context, id int64) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// asUser injects an authenticated user the way mw.Auth would.
func asUser(user *model.User, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), mw.UserCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TestOrderHandlers(t *testing.T) {
	customer := &model.User{ID: 7, Name: "Ada", Email: "ada@example.com", Role: model.RoleCustomer}
	admin := &model.User{ID: 1, Name: "Root", Email: "root@example.com", Role: model.RoleAdmin}

	newRouter := func(store *memStore, user *model.User) http.Handler {
		svc := service.NewOrderService(store)
		r := chi.NewRouter()
		r.Post("/api/orders", CreateOrderHandler(svc))
		r.Get("/api/orders/my", ListMyOrdersHandler(svc))
		r.Get("/api/orders/{id}", GetOrderHandler(svc))
		r.Put("/api/orders/{id}", UpdateOrderHandler(svc))
		r.Delete("/api/orders/{id}", DeleteOrderHandler(svc))
		r.Patch("/api/orders/{id}/status", UpdateDeliveryStatusHandler(svc))
		return asUser(user, r)
	}

	do := func(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	validOrder := `{
		"order_total": 13.0,
		"order_items": [
			{"product_id": 1, "quantity": 2, "unit_price": 5.0},
			{"product_id": 2, "quantity": 1, "unit_price": 3.0}
		]
	}`

	t.Run("create commits and returns the materialized order", func(t *testing.T) {
		store := newMemStore()
		h := newRouter(store, customer)

		rec := do(h, http.MethodPost, "/api/orders", validOrder)
		require.Equal(t, http.StatusCreated, rec.Code)

		var order model.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
		assert.NotZero(t, order.ID)
		assert.Equal(t, 13.0, order.OrderTotal)
		assert.Len(t, order.OrderItems, 2)
		require.NotNil(t, order.User)
		assert.Equal(t, int64(7), order.User.ID)
		assert.Len(t, store.orders, 1)
	})

	t.Run("mismatched total is rejected and nothing persists", func(t *testing.T) {
		store := newMemStore()
		h := newRouter(store, customer)

		body := strings.Replace(validOrder, "13.0", "10.0", 1)
		rec := do(h, http.MethodPost, "/api/orders", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Empty(t, store.orders)
		assert.Empty(t, store.items)
	})

	t.Run("unknown product is rejected and nothing persists", func(t *testing.T) {
		store := newMemStore()
		h := newRouter(store, customer)

		body := strings.Replace(validOrder, `"product_id": 2`, `"product_id": 99`, 1)
		rec := do(h, http.MethodPost, "/api/orders", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Empty(t, store.orders)
	})

	t.Run("empty item list is a bad request", func(t *testing.T) {
		store := newMemStore()
		h := newRouter(store, customer)

		rec := do(h, http.MethodPost, "/api/orders", `{"order_total": 0, "order_items": []}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get unknown order is 404", func(t *testing.T) {
		store := newMemStore()
		h := newRouter(store, customer)

		rec := do(h, http.MethodGet, "/api/orders/42", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-admin cannot update delivery status", func(t *testing.T) {
		store := newMemStore()
		h := newRouter(store, customer)

		rec := do(h, http.MethodPost, "/api/orders", validOrder)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = do(h, http.MethodPatch, "/api/orders/1/status", `{"delivery_status": "delivered"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin updates delivery status", func(t *testing.T) {
		store := newMemStore()
		h := newRouter(store, customer)

		rec := do(h, http.MethodPost, "/api/orders", validOrder)
		require.Equal(t, http.StatusCreated, rec.Code)

		adminH := newRouter(store, admin)
		rec = do(adminH, http.MethodPatch, "/api/orders/1/status", `{"delivery_status": "in_progress"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var order model.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
		assert.Equal(t, model.StatusInProgress, order.DeliveryStatus)
	})

	t.Run("unknown delivery status is a bad request", func(t *testing.T) {
		store := newMemStore()
		h := newRouter(store, admin)

		rec := do(h, http.MethodPatch, "/api/orders/1/status", `{"delivery_status": "teleported"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("owner deletes own order, stranger cannot", func(t *testing.T) {
		store := newMemStore()
		owner := newRouter(store, customer)

		rec := do(owner, http.MethodPost, "/api/orders", validOrder)
		require.Equal(t, http.StatusCreated, rec.Code)

		stranger := newRouter(store, &model.User{ID: 8, Role: model.RoleCustomer})
		rec = do(stranger, http.MethodDelete, "/api/orders/1", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = do(owner, http.MethodDelete, "/api/orders/1", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, store.orders)
	})

	t.Run("list my orders", func(t *testing.T) {
		store := newMemStore()
		h := newRouter(store, customer)

		rec := do(h, http.MethodPost, "/api/orders", validOrder)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = do(h, http.MethodGet, "/api/orders/my", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var orders []model.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
		assert.Len(t, orders, 1)
	})
}
