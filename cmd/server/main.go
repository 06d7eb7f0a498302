/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the shop engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store and restore durable state
  3. Create the shop engine and card circuit
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port              HTTP server port (default: 8080)
  -db                SQLite database path (default: shop.db)
                     Use ":memory:" for an in-memory database
  -euros-per-point   Loyalty ratio, euros of sale value per point (default: 10)
  -strict-discounts  Reject sale-level discounts after payment
  -restock-on-commit Restock returned items at commit instead of refund
  -dev               Verbose development logging

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Persist durable views and close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/shop.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openretail/shop-engine/api"
	"github.com/openretail/shop-engine/logger"
	"github.com/openretail/shop-engine/shop"
	"github.com/openretail/shop-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "shop.db", "SQLite database path")
	eurosPerPoint := flag.String("euros-per-point", "10", "euros of sale value per loyalty point")
	strictDiscounts := flag.Bool("strict-discounts", false, "reject sale discounts after payment")
	restockOnCommit := flag.Bool("restock-on-commit", false, "restock returned items at commit instead of refund")
	dev := flag.Bool("dev", false, "development logging")
	flag.Parse()

	log, err := logger.New(logger.Config{Development: *dev})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := shop.DefaultConfig()
	cfg.RejectDiscountAfterPayment = *strictDiscounts
	cfg.RestockOnCommit = *restockOnCommit
	if ratio, err := decimal.NewFromString(*eurosPerPoint); err == nil && ratio.IsPositive() {
		cfg.EurosPerPoint = ratio
	} else {
		log.Warnw("invalid -euros-per-point, keeping default", "value", *eurosPerPoint)
	}

	// Card circuit with a few demo cards. A real deployment would plug
	// in a payment-provider client here.
	circuit := shop.NewMemoryCircuit()
	circuit.Register("4539148803436467", shop.MustDecimal("500"))
	circuit.Register("79927398713", shop.MustDecimal("100"))

	engine := shop.New(cfg, circuit)

	// Initialize store and restore durable state
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := engine.Restore(ctx, store); err != nil {
		log.Fatalw("failed to restore state", "error", err)
	}

	// Create router
	handler := api.NewHandler(engine, store, log)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "addr", fmt.Sprintf("http://localhost:%d", *port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	if err := engine.Persist(shutdownCtx, store); err != nil {
		log.Warnw("final persist failed", "error", err)
	}

	log.Infow("server stopped")
}
