package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/model"
)

type ProductService struct {
	db *sql.DB
}

func NewProductService(db *sql.DB) *ProductService {
	return &ProductService{db: db}
}

type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Category    string
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	query := `INSERT INTO products (name, description, price, category) VALUES ($1, $2, $3, $4) RETURNING id`
	row := s.db.QueryRowContext(ctx, query, in.Name, in.Description, in.Price, in.Category)

	product := model.Product{Name: in.Name, Description: in.Description, Price: in.Price, Category: in.Category}
	if err := row.Scan(&product.ID); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}

	return &product, nil
}

func (s *ProductService) Update(ctx context.Context, id int64, in ProductInput) (*model.Product, error) {
	query := `UPDATE products SET name = $1, description = $2, price = $3, category = $4 WHERE id = $5`
	res, err := s.db.ExecContext(ctx, query, in.Name, in.Description, in.Price, in.Category, id)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	return &model.Product{ID: id, Name: in.Name, Description: in.Description, Price: in.Price, Category: in.Category}, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT id, name, COALESCE(description, ''), price, COALESCE(category, '') FROM products WHERE id = $1`
	row := s.db.QueryRowContext(ctx, query, id)

	var p model.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

func (s *ProductService) List(ctx context.Context) ([]model.Product, error) {
	return s.queryProducts(ctx, selectProducts+` ORDER BY id`)
}

func (s *ProductService) SearchByName(ctx context.Context, query string) ([]model.Product, error) {
	return s.queryProducts(ctx, selectProducts+` WHERE name ILIKE '%' || $1 || '%' ORDER BY id`, query)
}

func (s *ProductService) FilterByCategory(ctx context.Context, category string) ([]model.Product, error) {
	return s.queryProducts(ctx, selectProducts+` WHERE category ILIKE '%' || $1 || '%' ORDER BY id`, category)
}

var productSortColumns = map[string]string{
	"id":       "id",
	"name":     "name",
	"price":    "price",
	"category": "category",
}

func (s *ProductService) SortBy(ctx context.Context, field string) ([]model.Product, error) {
	column, ok := productSortColumns[field]
	if !ok {
		return nil, fmt.Errorf("unsortable field %q", field)
	}
	return s.queryProducts(ctx, fmt.Sprintf(`%s ORDER BY %s`, selectProducts, column))
}

const selectProducts = `SELECT id, name, COALESCE(description, ''), price, COALESCE(category, '') FROM products`

func (s *ProductService) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return products, nil
}
