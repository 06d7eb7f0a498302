/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. Logger:     Structured request logging (zap)
  4. CORS:       Cross-origin requests for a point-of-sale frontend

ROUTE GROUPS:
  /api/products/*   Catalog management
  /api/sales/*      Sale lifecycle (open, compose, pay)
  /api/returns/*    Return lifecycle
  /api/orders/*     Restock orders and arrivals
  /api/balance      Cash balance and manual updates
  /api/ledger       Ledger entries

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/openretail/shop-engine/logger"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Catalog routes
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/{id}", h.GetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
			r.Put("/{id}/location", h.SetProductLocation)
			r.Post("/{id}/tags", h.AttachProductTags)
		})

		// Sale routes
		r.Route("/sales", func(r chi.Router) {
			r.Post("/", h.StartSale)
			r.Get("/{id}", h.GetSale)
			r.Delete("/{id}", h.DeleteSale)
			r.Post("/{id}/items", h.AddSaleItem)
			r.Delete("/{id}/items", h.RemoveSaleItem)
			r.Post("/{id}/tags", h.AddSaleTag)
			r.Delete("/{id}/tags", h.RemoveSaleTag)
			r.Post("/{id}/discount", h.ApplySaleDiscount)
			r.Post("/{id}/end", h.EndSale)
			r.Get("/{id}/points", h.SalePoints)
			r.Post("/{id}/payment", h.PaySale)
		})

		// Return routes
		r.Route("/returns", func(r chi.Router) {
			r.Post("/", h.StartReturn)
			r.Get("/{id}", h.GetReturn)
			r.Delete("/{id}", h.DeleteReturn)
			r.Post("/{id}/items", h.AddReturnItem)
			r.Post("/{id}/end", h.EndReturn)
			r.Post("/{id}/payment", h.PayReturn)
		})

		// Order routes
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.IssueOrder)
			r.Get("/{id}", h.GetOrder)
			r.Post("/{id}/payment", h.PayOrder)
			r.Post("/{id}/arrival", h.RecordOrderArrival)
		})

		// Balance and ledger routes
		r.Get("/balance", h.GetBalance)
		r.Post("/balance/updates", h.UpdateBalance)
		r.Post("/balance/recompute", h.RecomputeBalance)
		r.Get("/ledger", h.ListEntries)
	})

	return r
}

// requestLogger logs each request with its status and duration.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Infow("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
