// Package config declares the settings shared by the server and the CLI.
// Every setting is a kong flag that falls back to an environment variable.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"fastlog/internal/db"
	"fastlog/internal/logger"
	"fastlog/pkg/fastlog"
)

// DefaultOrigins are the front-end dev servers allowed by CORS out of the box.
var DefaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://localhost:5173",
}

// Store selects and locates the fast log store.
type Store struct {
	Driver      string `name:"store" env:"FASTLOG_STORE" enum:"postgres,sqlite,memory" default:"postgres" help:"Store backend (postgres|sqlite|memory)."`
	DatabaseURL string `name:"database-url" env:"DATABASE_URL" help:"PostgreSQL connection string for the postgres store."`
	SQLitePath  string `name:"sqlite-path" env:"FASTLOG_SQLITE_PATH" default:"data/fastlog.db" type:"path" help:"Database file for the sqlite store."`
}

// Log configures internal/logger.
type Log struct {
	Debug   bool   `env:"FASTLOG_DEBUG" help:"Enable debug logging."`
	LogFile string `name:"log-file" env:"FASTLOG_LOG_FILE" help:"Also write logs to this rotated file."`
}

// Init applies the settings to the global logger.
func (l Log) Init(quiet bool) error {
	return logger.Init(logger.Config{Debug: l.Debug, File: l.LogFile, Quiet: quiet})
}

// Server is the configuration of cmd/server.
type Server struct {
	Store Store `embed:""`
	Log   Log   `embed:""`

	Port            string        `env:"PORT" default:"8080" help:"HTTP listen port."`
	AllowedOrigins  []string      `name:"allowed-origins" env:"FASTLOG_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:3001,http://localhost:5173" help:"Comma-separated CORS origins."`
	ShutdownTimeout time.Duration `name:"shutdown-timeout" env:"FASTLOG_SHUTDOWN_TIMEOUT" default:"10s" help:"Grace period for in-flight requests on shutdown."`
}

// Addr is the listen address for Port.
func (s *Server) Addr() string {
	return ":" + s.Port
}

// ParseServer reads the server configuration from args and the environment.
func ParseServer(args []string, options ...kong.Option) (*Server, error) {
	var cfg Server
	options = append([]kong.Option{
		kong.Name("fastlog-server"),
		kong.Description("Fasting log REST API."),
	}, options...)
	parser, err := kong.New(&cfg, options...)
	if err != nil {
		return nil, err
	}
	if _, err := parser.Parse(args); err != nil {
		return nil, err
	}
	cfg.AllowedOrigins = allowedOrigins(cfg.AllowedOrigins)
	return &cfg, nil
}

// allowedOrigins drops blank entries. An empty list would make the CORS
// policy allow every origin, so it falls back to DefaultOrigins.
func allowedOrigins(origins []string) []string {
	var out []string
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultOrigins...)
	}
	return out
}

// Open connects the configured store and makes sure its table exists.
// The returned close func releases the underlying connection.
func (s Store) Open(ctx context.Context) (fastlog.Store, func(), error) {
	switch s.Driver {
	case "memory":
		return fastlog.NewMemStore(), func() {}, nil

	case "sqlite":
		store := fastlog.NewSQLiteStore(s.SQLitePath)
		if err := store.Open(); err != nil {
			return nil, nil, err
		}
		if err := store.EnsureTable(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("ensure fast_logs table: %w", err)
		}
		return store, func() { store.Close() }, nil

	case "postgres", "":
		pool, err := db.Connect(ctx, s.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		store := fastlog.NewPgStore(pool)
		if err := store.EnsureTable(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ensure fast_logs table: %w", err)
		}
		return store, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q", s.Driver)
	}
}
