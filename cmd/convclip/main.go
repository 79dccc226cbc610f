package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/conversation-clipboard/cmd/convclip/cli"
	"github.com/odyssey-erp/conversation-clipboard/db/migrations"
	"github.com/odyssey-erp/conversation-clipboard/internal/app"
	"github.com/odyssey-erp/conversation-clipboard/internal/clipboard"
	clipboardhttp "github.com/odyssey-erp/conversation-clipboard/internal/clipboard/http"
	"github.com/odyssey-erp/conversation-clipboard/internal/conversation"
	"github.com/odyssey-erp/conversation-clipboard/internal/observability"
	"github.com/odyssey-erp/conversation-clipboard/internal/platform/cache"
	"github.com/odyssey-erp/conversation-clipboard/internal/platform/db"
	"github.com/odyssey-erp/conversation-clipboard/internal/rbac"
	"github.com/odyssey-erp/conversation-clipboard/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		os.Exit(serve(ctx, stop, cfg, logger))
	case "migrate":
		if len(args) == 0 {
			logger.Error("migrate: missing command (up, down, version, force)")
			os.Exit(2)
		}
		if err := db.Migrate(logger, cfg.PGDSN, migrations.FS, args[0], args[1:]); err != nil {
			logger.Error("migrate", slog.String("command", args[0]), slog.Any("error", err))
			os.Exit(1)
		}
	case "jobs":
		fs := flag.NewFlagSet("jobs", flag.ExitOnError)
		jsonOutput := fs.Bool("json", false, "print machine readable output")
		_ = fs.Parse(args)
		jobsCLI := cli.NewJobsCLI(cfg.QueueRedisOpts())
		code := jobsCLI.Run(ctx, fs.Arg(0), cli.JobsOptions{JSONOutput: *jsonOutput})
		if err := jobsCLI.Close(); err != nil {
			logger.Warn("jobs cli close", slog.Any("error", err))
		}
		os.Exit(code)
	default:
		logger.Error("unknown command", slog.String("command", command))
		os.Exit(2)
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) int {
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	conversations := conversation.NewRepository(pool)
	rbacService := rbac.NewService(rbac.NewRepository(pool))

	redisOpts := cfg.QueueRedisOpts()
	jobsClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	clipboardHandler := clipboardhttp.NewHandler(clipboardhttp.Deps{
		Logger:        logger,
		Conversations: conversations,
		Participants:  conversations,
		Labels:        conversations,
		Marks:         clipboard.NewMarkStore(redisClient, cfg.ClipboardMarkTTL),
		Jobs:          jobsClient,
		Metrics:       metrics,
		RBAC:          rbac.Middleware{Service: rbacService, Logger: logger},
		Language:      cfg.Language(),
	})

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		ClipboardHandler: clipboardHandler,
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
		return 1
	}
	return 0
}
