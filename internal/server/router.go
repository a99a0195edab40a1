package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"account-ledger/internal/cache"
	"account-ledger/internal/domain"
	"account-ledger/internal/events"
	"account-ledger/internal/handler"
	"account-ledger/internal/service"
)

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Dependencies are the collaborators the HTTP routes are built from.
type Dependencies struct {
	Store     domain.UnitOfWork
	Views     cache.Cache[domain.User]
	Publisher events.Publisher
	// Checks are run by /health in addition to pinging Store.
	Checks map[string]HealthCheck
	Logger *slog.Logger
}

// NewRouter wires services, handlers and middleware over deps.
func NewRouter(deps Dependencies) *mux.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	views := deps.Views
	if views == nil {
		views = cache.NopCache[domain.User]{}
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	// Initialize services
	accountService := service.NewAccountService(deps.Store, publisher, logger)
	transactionService := service.NewTransactionService(deps.Store, publisher, logger)
	userService := service.NewUserService(deps.Store, views, publisher, logger)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountService)
	transactionHandler := handler.NewTransactionHandler(transactionService)
	userHandler := handler.NewUserHandler(userService)

	router := mux.NewRouter()
	router.Use(recoveryMiddleware(logger))
	router.Use(loggingMiddleware(logger))

	// Account routes, under the historical Portuguese paths and English aliases
	for _, prefix := range []string{"/conta", "/account"} {
		router.HandleFunc(prefix, accountHandler.CreateAccount).Methods(http.MethodPost)
		router.HandleFunc(prefix+"/{id:[0-9]+}/saldo", accountHandler.GetBalance).Methods(http.MethodGet)
		router.HandleFunc(prefix+"/{id:[0-9]+}/extrato", accountHandler.GetStatement).Methods(http.MethodGet)
		router.HandleFunc(prefix+"/transferencia", transactionHandler.Transfer).Methods(http.MethodPost)
	}
	router.HandleFunc("/account/{id:[0-9]+}/balance", accountHandler.GetBalance).Methods(http.MethodGet)
	router.HandleFunc("/account/{id:[0-9]+}/statement", accountHandler.GetStatement).Methods(http.MethodGet)
	router.HandleFunc("/account/transfer", transactionHandler.Transfer).Methods(http.MethodPost)

	// User routes
	for _, prefix := range []string{"/usuarios", "/users"} {
		router.HandleFunc(prefix, userHandler.ListUsers).Methods(http.MethodGet)
		router.HandleFunc(prefix, userHandler.SaveUser).Methods(http.MethodPost)
		router.HandleFunc(prefix+"/{id:[0-9]+}", userHandler.GetUser).Methods(http.MethodGet)
		router.HandleFunc(prefix+"/{id:[0-9]+}", userHandler.DeleteUser).Methods(http.MethodDelete)
	}

	router.HandleFunc("/health", healthHandler(deps.Store, deps.Checks, logger)).Methods(http.MethodGet)

	return router
}

func healthHandler(store domain.UnitOfWork, checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")

		status := map[string]string{}
		healthy := true
		if err := store.Ping(ctx); err != nil {
			logger.Warn("health check failed", "dependency", "store", "error", err)
			status["store"] = "unavailable"
			healthy = false
		} else {
			status["store"] = "ok"
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", "dependency", name, "error", err)
				status[name] = "unavailable"
				healthy = false
				continue
			}
			status[name] = "ok"
		}

		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]any{"status": "unhealthy", "checks": status})
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"checks":    status,
		})
	}
}
