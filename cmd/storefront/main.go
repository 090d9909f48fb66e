package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/mw"
	"storefront/internal/service"
	"storefront/internal/storage/postgres"
	"storefront/internal/token"
)

func main() {
	cfg := config.New()

	db, err := database.NewDB(cfg.DatabaseURI)
	if err != nil {
		slog.Error("failed to connect to DB", "error", err)
		os.Exit(1)
	}
	defer database.CloseDB(db)

	if err := database.InitSchema(db); err != nil {
		slog.Error("failed to init DB schema", "error", err)
		os.Exit(1)
	}

	tokens, err := token.NewManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.TokenTTL())
	if err != nil {
		slog.Error("failed to configure token manager", "error", err)
		os.Exit(1)
	}

	// Services
	authSvc := service.NewAuthService(db)
	userSvc := service.NewUserService(db)
	productSvc := service.NewProductService(db)
	orderSvc := service.NewOrderService(postgres.NewStore(db))

	// Router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Post("/api/users/signup", handler.SignupHandler(authSvc))
	r.Post("/api/users/login", handler.LoginHandler(authSvc, tokens))
	r.Get("/api/users/{id}", handler.GetUserHandler(authSvc))

	r.Get("/api/products", handler.ListProductsHandler(productSvc))
	r.Get("/api/products/search", handler.SearchProductsHandler(productSvc))
	r.Get("/api/products/filter", handler.FilterProductsHandler(productSvc))
	r.Get("/api/products/sort", handler.SortProductsHandler(productSvc))
	r.Get("/api/products/{id}", handler.GetProductHandler(productSvc))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Auth(tokens, authSvc))

		r.Put("/api/users/update", handler.UpdateUserHandler(userSvc))
		r.Delete("/api/users/delete", handler.DeleteUserHandler(userSvc))

		r.Post("/api/orders", handler.CreateOrderHandler(orderSvc))
		r.Get("/api/orders/my", handler.ListMyOrdersHandler(orderSvc))
		r.Get("/api/orders/{id}", handler.GetOrderHandler(orderSvc))
		r.Put("/api/orders/{id}", handler.UpdateOrderHandler(orderSvc))
		r.Delete("/api/orders/{id}", handler.DeleteOrderHandler(orderSvc))
		// Admin check happens in the service so the caller's role decides.
		r.Patch("/api/orders/{id}/status", handler.UpdateDeliveryStatusHandler(orderSvc))

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAdmin)

			r.Post("/api/admin/products", handler.CreateProductHandler(productSvc))
			r.Put("/api/admin/products/{id}", handler.UpdateProductHandler(productSvc))
			r.Delete("/api/admin/products/{id}", handler.DeleteProductHandler(productSvc))

			r.Get("/api/admin/users", handler.ListUsersHandler(userSvc))
			r.Get("/api/admin/users/search", handler.SearchUsersHandler(userSvc))
			r.Get("/api/admin/users/sort", handler.SortUsersHandler(userSvc))
			r.Get("/api/admin/users/filter", handler.FilterUsersHandler(userSvc))

			r.Get("/api/admin/orders/user/{user_id}", handler.ListUserOrdersHandler(orderSvc))
		})
	})

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}
