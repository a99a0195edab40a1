package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"account-ledger/internal/cache"
	"account-ledger/internal/config"
	"account-ledger/internal/domain"
	"account-ledger/internal/events"
	"account-ledger/internal/repository"
	"account-ledger/internal/repository/memory"
	"account-ledger/migrations"
)

// Server represents the HTTP server
type Server struct {
	router *mux.Router
	server *http.Server
	db     *sql.DB
	redis  *redis.Client
	logger *slog.Logger
	port   string
}

// OpenDatabase opens and pings the Postgres pool described by cfg.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDBConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// NewServer creates a new server instance backed by the storage driver and
// optional Redis named in cfg.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s := &Server{logger: logger}

	var store domain.UnitOfWork
	switch cfg.StorageDriver {
	case config.StorageMemory:
		store = memory.NewStore()
		logger.Info("Using in-memory store")
	default:
		db, err := OpenDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.db = db
		logger.Info("Successfully connected to database")

		if cfg.AutoMigrate {
			applied, err := migrations.Apply(ctx, db, logger)
			if err != nil {
				db.Close()
				return nil, err
			}
			logger.Info("Migrations applied", "count", len(applied))
		}
		store = repository.NewStore(db, logger)
	}

	deps := Dependencies{
		Store:     store,
		Views:     cache.NopCache[domain.User]{},
		Publisher: events.NopPublisher{},
		Checks:    map[string]HealthCheck{},
		Logger:    logger,
	}

	if cfg.RedisAddr != "" {
		client, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			s.closeResources()
			return nil, err
		}
		s.redis = client
		logger.Info("Successfully connected to redis", "addr", cfg.RedisAddr)

		deps.Views = cache.NewViewCache[domain.User](client, cfg.CacheTTL, logger)
		deps.Publisher = events.NewRedisPublisher(client)
		deps.Checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}

	s.router = NewRouter(deps)
	return s, nil
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port string) (string, error) {
	// Create listener first to get actual port
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	// Get the actual port being used
	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server", "port", s.port)

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server failed to start", "error", err)
		}
	}()

	return s.port, nil
}

// Stop gracefully shuts down the server, then releases the database and
// Redis connections.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.closeResources()
	return err
}

func (s *Server) closeResources() {
	if s.db != nil {
		s.db.Close()
	}
	if s.redis != nil {
		s.redis.Close()
	}
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// GetBaseURL returns the base URL for the server
func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// StartServer builds and starts a server. A nil logger selects a discard
// logger for port "0" (tests) and JSON on stdout otherwise.
func StartServer(cfg *config.Config, logger *slog.Logger) (*Server, string, error) {
	if logger == nil {
		if cfg.ServerPort == "0" {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		} else {
			logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
		}
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		server.closeResources()
		return nil, "", err
	}

	return server, port, nil
}
