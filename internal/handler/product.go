package handler

import (
	"encoding/json"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"storefront/internal/service"
)

func ListProductsHandler(productSvc *service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := productSvc.List(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
	}
}

func GetProductHandler(productSvc *service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid product id")
			return
		}

		product, err := productSvc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	}
}

func SearchProductsHandler(productSvc *service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := productSvc.SearchByName(r.Context(), r.URL.Query().Get("query"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
	}
}

func FilterProductsHandler(productSvc *service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := r.URL.Query().Get("category")
		if category == "" {
			writeError(w, http.StatusBadRequest, "category is required")
			return
		}

		products, err := productSvc.FilterByCategory(r.Context(), category)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
	}
}

func SortProductsHandler(productSvc *service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		field := r.URL.Query().Get("field")
		if field == "" {
			field = "id"
		}

		products, err := productSvc.SortBy(r.Context(), field)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, products)
	}
}

type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
}

func (r productRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Price, validation.Required, validation.Min(0.0)),
	)
}

func CreateProductHandler(productSvc *service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req productRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		product, err := productSvc.Create(r.Context(), service.ProductInput{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Category:    req.Category,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, product)
	}
}

func UpdateProductHandler(productSvc *service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid product id")
			return
		}

		var req productRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		product, err := productSvc.Update(r.Context(), id, service.ProductInput{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Category:    req.Category,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	}
}

func DeleteProductHandler(productSvc *service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid product id")
			return
		}

		product, err := productSvc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if err := productSvc.Delete(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	}
}
