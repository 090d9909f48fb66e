package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"
)

func ListUsersHandler(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := userSvc.List(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func SearchUsersHandler(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := userSvc.SearchByName(r.Context(), r.URL.Query().Get("query"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func SortUsersHandler(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		field := r.URL.Query().Get("field")
		if field == "" {
			field = "id"
		}

		users, err := userSvc.SortBy(r.Context(), field)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func FilterUsersHandler(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := model.Role(r.URL.Query().Get("role"))
		if !role.Valid() {
			writeError(w, http.StatusBadRequest, "unknown role")
			return
		}

		users, err := userSvc.FilterByRole(r.Context(), role)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

// ListUserOrdersHandler returns any user's orders; routing restricts it to
// admins.
func ListUserOrdersHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := idParam(r, "user_id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		orders, err := orderSvc.ListByUser(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orders)
	}
}
