package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Users          *UserHandler
	Products       *ProductHandler
	Carts          *CartHandler
	Orders         *OrdersHandler
	Tokens         TokenVerifier
	Logger         *zap.Logger
	RequestTimeout time.Duration
}

// NewRouter wires every route behind the shared middleware stack.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/register", cfg.Users.Register)
	r.Post("/login", cfg.Users.Login)

	r.Route("/products", func(r chi.Router) {
		r.Post("/", cfg.Products.CreateProduct)
		r.Get("/", cfg.Products.ListProducts)
		r.Get("/{productId}", cfg.Products.GetProduct)
		r.Put("/{productId}", cfg.Products.UpdateProduct)
		r.Delete("/{productId}", cfg.Products.DeleteProduct)
	})

	r.Group(func(r chi.Router) {
		r.Use(Authentication(cfg.Tokens))

		r.Route("/user/{userId}", func(r chi.Router) {
			r.Use(Authorisation)
			r.Get("/profile", cfg.Users.GetProfile)
			r.Put("/profile", cfg.Users.UpdateProfile)
		})

		r.Route("/users/{userId}", func(r chi.Router) {
			r.Use(Authorisation)
			r.Route("/cart", func(r chi.Router) {
				r.Post("/", cfg.Carts.AddItem)
				r.Put("/", cfg.Carts.UpdateCart)
				r.Get("/", cfg.Carts.GetCart)
				r.Delete("/", cfg.Carts.ClearCart)
			})
			r.Route("/orders", func(r chi.Router) {
				r.Post("/", cfg.Orders.CreateOrder)
				r.Put("/", cfg.Orders.UpdateOrder)
				r.Get("/", cfg.Orders.ListOrders)
				r.Get("/{orderId}", cfg.Orders.GetOrder)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not_found", "invalid url request")
	})

	return otelhttp.NewHandler(r, "shop-service")
}
