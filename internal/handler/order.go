package handler

import (
	"encoding/json"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"storefront/internal/model"
	"storefront/internal/mw"
	"storefront/internal/service"
)

type orderItemPayload struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

func (p orderItemPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ProductID, validation.Required, validation.Min(int64(1))),
		validation.Field(&p.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&p.UnitPrice, validation.Min(0.0)),
	)
}

type orderRequest struct {
	OrderDate  time.Time          `json:"order_date"`
	OrderTotal float64            `json:"order_total"`
	OrderItems []orderItemPayload `json:"order_items"`
}

func (r orderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrderTotal, validation.Min(0.0)),
		validation.Field(&r.OrderItems, validation.Required),
	)
}

func (r orderRequest) toInput() service.OrderInput {
	in := service.OrderInput{
		OrderDate:  r.OrderDate,
		OrderTotal: r.OrderTotal,
	}
	for _, item := range r.OrderItems {
		in.Items = append(in.Items, service.OrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return in
}

func CreateOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := mw.UserFromContext(r.Context())

		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		order, err := orderSvc.Create(r.Context(), current.ID, req.toInput())
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, order)
	}
}

func ListMyOrdersHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := mw.UserFromContext(r.Context())

		orders, err := orderSvc.ListByUser(r.Context(), current.ID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, orders)
	}
}

func GetOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid order id")
			return
		}

		order, err := orderSvc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, order)
	}
}

func UpdateOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := mw.UserFromContext(r.Context())

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid order id")
			return
		}

		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		order, err := orderSvc.Update(r.Context(), id, current.ID, req.toInput())
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, order)
	}
}

func DeleteOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := mw.UserFromContext(r.Context())

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid order id")
			return
		}

		order, err := orderSvc.Delete(r.Context(), id, current.ID, current.Role)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, order)
	}
}

type deliveryStatusRequest struct {
	DeliveryStatus model.DeliveryStatus `json:"delivery_status"`
}

func (r deliveryStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DeliveryStatus, validation.Required,
			validation.In(model.StatusPending, model.StatusInProgress, model.StatusDelivered, model.StatusCancelled)),
	)
}

// UpdateDeliveryStatusHandler relies on the service for the admin check so a
// non-admin caller gets the same 403 regardless of routing.
func UpdateDeliveryStatusHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := mw.UserFromContext(r.Context())

		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid order id")
			return
		}

		var req deliveryStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		order, err := orderSvc.UpdateDeliveryStatus(r.Context(), id, req.DeliveryStatus, current.Role)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, order)
	}
}
