package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vvka-141/pgretry/internal/app"
	"github.com/vvka-141/pgretry/internal/config"
	"github.com/vvka-141/pgretry/internal/logging"
	"github.com/vvka-141/pgretry/internal/metrics"
	"github.com/vvka-141/pgretry/internal/middleware"
	"github.com/vvka-141/pgretry/internal/registry"
	"github.com/vvka-141/pgretry/internal/retry"
	"github.com/vvka-141/pgretry/internal/server"
	"github.com/vvka-141/pgretry/internal/store"
	"github.com/vvka-141/pgretry/pkg/pgretry"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	configPath string
	envFile    string
	listen     string
	connection string
	tries      int
	retryable  string
	backoff    time.Duration
	memory     bool
}

var serveFlags serveOptions

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the counter application behind the retry middleware",
	Long: `Serve the counter application behind the retry middleware.

Routes:
  POST /counters/{name}  increment a counter
  GET  /counters/{name}  read a counter
  GET  /healthz          liveness probe
  GET  /metrics          Prometheus metrics

Settings come from pgretry.yaml in the working directory (or --config);
flags override file values. The connection string falls back to
PGRETRY_CONNECTION, then DATABASE_URL, after loading .env files.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.configPath, "config", "", "Path to config file (default ./"+config.ConfigFileName+")")
	f.StringVar(&serveFlags.envFile, "env-file", "", "Load environment variables from this file instead of .env")
	f.StringVar(&serveFlags.listen, "listen", "", "Listen address (default "+config.DefaultListen+")")
	f.StringVar(&serveFlags.connection, "connection", "", "PostgreSQL connection string")
	f.IntVar(&serveFlags.tries, "tries", pgretry.DefaultTries, "Total attempts per request")
	f.StringVar(&serveFlags.retryable, "retryable", "", "Whitespace-separated retryable kind names (see 'pgretry kinds')")
	f.DurationVar(&serveFlags.backoff, "backoff", 0, "Initial delay between attempts, doubling per retry (0 retries immediately)")
	f.BoolVar(&serveFlags.memory, "memory", false, "Keep counters in memory instead of PostgreSQL")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServerConfig(serveFlags.configPath, serveFlags.envFile)
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)

	logger := logging.NewConsoleLogger(cfg.Verbose || getVerboseFlag(cmd))
	slog.SetDefault(logger.Slog())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, serveFlags.memory)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	adapter, err := buildAdapter(st, cfg, reg, logger)
	if err != nil {
		return err
	}

	srv := server.NewServer(cfg.ListenAddr(), adapter, reg)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	logger.Info("listening on %s", srv.Addr())

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}

// loadServerConfig loads environment files and the config file. A missing
// default config file is not an error; a missing explicit one is.
func loadServerConfig(path, envFile string) (*config.ServerConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, &pgretry.ConfigurationError{Option: "env file", Value: envFile, Err: err}
		}
	} else {
		_ = godotenv.Load()
	}

	var (
		cfg *config.ServerConfig
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.LoadFile(config.ConfigFileName)
		if errors.Is(err, config.ErrConfigNotFound) {
			return &config.ServerConfig{}, nil
		}
	}
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, &pgretry.ConfigurationError{Option: "config file", Value: path, Err: err}
		}
		return nil, err
	}
	return cfg, nil
}

// applyServeFlags overrides file settings with explicitly set flags.
func applyServeFlags(cmd *cobra.Command, cfg *config.ServerConfig) {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Listen = serveFlags.listen
	}
	if flags.Changed("connection") {
		cfg.Connection = serveFlags.connection
	}
	if flags.Changed("tries") {
		tries := serveFlags.tries
		cfg.Middleware.Tries = &tries
	}
	if flags.Changed("retryable") {
		retryable := serveFlags.retryable
		cfg.Middleware.Retryable = &retryable
	}
	if flags.Changed("backoff") {
		cfg.Middleware.Backoff = serveFlags.backoff
	}
}

func openStore(ctx context.Context, cfg *config.ServerConfig, memory bool) (store.Store, func(), error) {
	if memory {
		return store.NewMemory(), func() {}, nil
	}

	connString := resolveConnection("", cfg.Connection)
	if connString == "" {
		return nil, nil, &pgretry.ConfigurationError{
			Option: "connection",
			Err:    errors.New("no connection string; use --connection, PGRETRY_CONNECTION, DATABASE_URL or --memory"),
		}
	}

	pg, err := store.Connect(ctx, connString)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

// buildAdapter wraps the counter application in the retry filter and exposes
// it over HTTP.
func buildAdapter(st store.Store, cfg *config.ServerConfig, reg prometheus.Registerer, logger *logging.ConsoleLogger) (*server.Adapter, error) {
	factory, ok := middleware.Lookup(pgretry.FilterName)
	if !ok {
		return nil, fmt.Errorf("filter %q is not registered", pgretry.FilterName)
	}

	opts := []retry.Option{
		retry.WithLogger(logger),
		retry.WithObserver(metrics.NewRecorder(reg)),
	}
	if d := cfg.Middleware.Backoff; d > 0 {
		opts = append(opts, retry.WithBackoff(retry.NewExponentialBackoff(
			retry.WithInitialDelay(d),
			retry.WithMaxDelay(max(d, time.Second)),
		)))
	}

	handler, err := factory(app.New(st, logger), cfg.FilterSettings(), opts...)
	if err != nil {
		return nil, err
	}

	conflicts := registry.Conflicts()
	adapter := &server.Adapter{
		Handler:  handler,
		Classify: func(err error) bool { return pgretry.MatchAny(conflicts, err) },
		Logger:   logger,
	}
	if r, ok := handler.(interface{ IsRetryable(error) bool }); ok {
		adapter.Unavailable = r.IsRetryable
	}
	return adapter, nil
}
