package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/akciefolio/src/config"
	"github.com/username/akciefolio/src/database"
	"github.com/username/akciefolio/src/handlers"
	"github.com/username/akciefolio/src/logger"
	"github.com/username/akciefolio/src/processors"
	"github.com/username/akciefolio/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Akciefolio backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	logger.L.Info("Initializing services and handlers...")
	ledgerProcessor := processors.NewLedgerProcessor()
	taxProcessor := processors.NewTaxProcessor(config.Cfg.TaxFreeLimit, config.Cfg.ExemptionYears, processors.ProceedsGross)
	holdingsProcessor := processors.NewHoldingsProcessor(config.Cfg.ExemptionYears)
	priceService := services.NewPriceService(config.Cfg.PriceFetchTimeout)

	ledgerService := services.NewLedgerService(
		ledgerProcessor, taxProcessor, holdingsProcessor,
		priceService, config.Cfg.TaxFreeLimit, reportCache,
	)

	txHandler := handlers.NewTransactionHandler(ledgerService)
	portfolioHandler := handlers.NewPortfolioHandler(ledgerService, priceService)
	taxHandler := handlers.NewTaxHandler(ledgerService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/transactions", txHandler.HandleAddTransaction)
	apiRouter.HandleFunc("GET /api/transactions", txHandler.HandleListTransactions)
	apiRouter.HandleFunc("PUT /api/transactions/{id}", txHandler.HandleUpdateTransaction)
	apiRouter.HandleFunc("DELETE /api/transactions/{id}", txHandler.HandleDeleteTransaction)
	apiRouter.HandleFunc("GET /api/holdings", portfolioHandler.HandleGetHoldings)
	apiRouter.HandleFunc("POST /api/update-prices", portfolioHandler.HandleUpdatePrices)
	apiRouter.HandleFunc("GET /api/tax-info", taxHandler.HandleGetTaxInfo)
	apiRouter.HandleFunc("GET /api/profit-loss", taxHandler.HandleGetYearlyProfitLoss)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Akciefolio backend is running"})
		} else if !strings.HasPrefix(r.URL.Path, "/api/") {
			logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
