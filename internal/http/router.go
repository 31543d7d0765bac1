package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Goodnews119/Marketplacesite/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Auth     *AuthHandler
	Products *ProductHandler
	Uploads  *UploadHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Verifier TokenVerifier
	DB       Pinger // optional; checked by /health

	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.Compress(5))
	if cfg.MaxRequestBodySize > 0 {
		r.Use(MaxBodySize(cfg.MaxRequestBodySize))
	}

	r.Get("/health", health(cfg.DB))

	adminOnly := func(r chi.Router) {
		r.Use(Authenticate(cfg.Verifier))
		r.Use(RequireRole(domain.RoleAdmin))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", cfg.Auth.Signup)
		r.Post("/login", cfg.Auth.Login)

		r.Get("/products", cfg.Products.List)
		r.Group(func(r chi.Router) {
			adminOnly(r)
			r.Post("/products", cfg.Products.Create)
			r.Put("/products/{id}", cfg.Products.Update)
			r.Delete("/products/{id}", cfg.Products.Delete)
			r.Post("/uploads/presign", cfg.Uploads.Presign)
			r.Get("/orders", cfg.Orders.ListOrders)
		})

		r.Post("/create-checkout-session", cfg.Checkout.CreateSession)
		r.Post("/webhooks/stripe", cfg.Checkout.StripeWebhook)
		r.Get("/orders/{session_id}", cfg.Orders.GetOrder)
	})

	return otelhttp.NewHandler(r, "marketplace")
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
