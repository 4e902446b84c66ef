package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Victoria423/vscode-anycode/internal/adapter/extensions"
	achttp "github.com/Victoria423/vscode-anycode/internal/adapter/http"
	"github.com/Victoria423/vscode-anycode/internal/adapter/localfs"
	acnats "github.com/Victoria423/vscode-anycode/internal/adapter/nats"
	"github.com/Victoria423/vscode-anycode/internal/adapter/natskv"
	acotel "github.com/Victoria423/vscode-anycode/internal/adapter/otel"
	"github.com/Victoria423/vscode-anycode/internal/adapter/ristretto"
	"github.com/Victoria423/vscode-anycode/internal/adapter/ws"
	"github.com/Victoria423/vscode-anycode/internal/config"
	"github.com/Victoria423/vscode-anycode/internal/logger"
	"github.com/Victoria423/vscode-anycode/internal/service"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		workspaceDir = flag.String("workspace", ".", "workspace root to index")
		configPath   = flag.String("config", config.DefaultConfigFile, "path to YAML configuration")
	)
	flag.Parse()

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer closeLog.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"workspace", *workspaceDir,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	if cfg.Telemetry.Enabled {
		shutdownOtel, err := acotel.Setup(ctx, cfg.Logging.Service, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("otel: %w", err)
		}
		defer func() { _ = shutdownOtel(context.Background()) }()
	}

	metrics, err := acotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	queue, err := acnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	kv, err := queue.KeyValue(ctx, cfg.State.Bucket)
	if err != nil {
		return fmt.Errorf("state bucket: %w", err)
	}
	store := natskv.New(kv)
	reporter := acnats.NewReporter(queue)

	fileCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer fileCache.Close()

	fsys, err := localfs.New(*workspaceDir)
	if err != nil {
		return fmt.Errorf("workspace: %w", err)
	}

	// --- Registry over live config + installed extensions ---

	view := config.NewView(cfg)

	catalog, err := extensions.Open(cfg.Analysis.ExtensionsDir)
	if err != nil {
		return fmt.Errorf("extension catalog: %w", err)
	}

	registry := service.NewRegistry(view, catalog)

	stopCatalogWatch, err := catalog.Watch(registry.Invalidate)
	if err != nil {
		slog.Warn("extension catalog watch unavailable", "error", err)
	} else {
		defer stopCatalogWatch()
	}

	stopConfigWatch, err := config.Watch(*configPath, func(next *config.Config) {
		view.Replace(next)
		registry.Invalidate()
	})
	if err != nil {
		slog.Warn("config watch unavailable", "error", err)
	} else {
		defer stopConfigWatch()
	}

	// --- Services ---

	hub := ws.NewHub()
	fileReader := service.NewFileReader(fsys, fileCache, cfg.Index.MaxFileSize)
	fileReader.SetMetrics(metrics)
	tracker := service.NewFeatureTracker(reporter)
	bootstrap := service.NewBootstrap(fsys, reporter, hub, metrics,
		cfg.Index.SymbolIndexSize, cfg.ExcludeGlobs())

	sup := service.NewSupervisor(registry, store,
		service.ProcessStarter(cfg.Analysis.Command), hub,
		service.SupervisorConfig{
			GrammarsBase:    cfg.Grammars.Dir,
			Workspace:       fsys.Root(),
			StartTimeout:    cfg.Analysis.StartTimeout,
			ShutdownTimeout: cfg.Analysis.ShutdownTimeout,
		})
	sup.SetIndexer(bootstrap)
	sup.Handle("file/read", fileReader.Handle)
	sup.Handle("feature/used", tracker.HandleNotification)
	sup.OnRestart(func(ctx context.Context) {
		metrics.ServerRestarts.Add(ctx, 1)
	})

	supCtx, cancelSup := context.WithCancel(ctx)
	supDone := make(chan struct{})
	go func() {
		defer close(supDone)
		if err := sup.Run(supCtx); err != nil {
			slog.Error("supervisor exited", "error", err)
		}
	}()

	// --- HTTP ---

	handlers := achttp.NewHandlers(registry, sup, hub, fsys.Documents())

	r := chi.NewRouter()
	r.Use(achttp.CORS(cfg.Server.CORSOrigin))
	r.Use(achttp.RequestID)
	r.Use(achttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.Telemetry.Enabled {
		r.Use(acotel.HTTPMiddleware(cfg.Logging.Service))
	}

	achttp.MountRoutes(r, handlers)

	addr := "127.0.0.1:" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down")

	cancelSup()
	<-supDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
