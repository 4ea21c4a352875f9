package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/docflow/internal/app"
	"github.com/joseph-ayodele/docflow/internal/common"
	"github.com/joseph-ayodele/docflow/internal/ingest"
	svc "github.com/joseph-ayodele/docflow/internal/server"
)

func main() {
	cfgFile := flag.String("config", "", "config file (default: ./docflow.yaml)")
	flag.Parse()

	cfg, err := common.LoadConfig(*cfgFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := common.NewLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("docflowd stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		a.Close(shutdownCtx)
	}()
	ctx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	// gRPC server
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		return err
	}
	grpcServer, healthServer := svc.NewGRPCServer(logger)
	svc.RegisterExtractionService(grpcServer, svc.NewExtractionServer(cfg.LLM.TagMarker, logger))
	svc.RegisterTemplatesService(grpcServer, svc.NewTemplatesServer(a.Templates, logger))
	svc.RegisterDocumentsService(grpcServer, svc.NewDocumentsServer(a.Documents, logger))
	svc.RegisterAssistantService(grpcServer, svc.NewAssistantServer(a.Assistant, logger))
	svc.RegisterIngestionService(grpcServer, svc.NewIngestionServer(a.Ingest, logger))

	// HTTP server
	httpServer := &http.Server{
		Addr: cfg.Server.HTTPAddr,
		Handler: svc.NewHTTPServer(svc.HTTPDeps{
			Documents: a.Documents,
			Templates: a.Templates,
			Export:    a.Export,
			Queue:     a.Queue,
			Health:    a.Health,
		}, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("grpc listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Scanned-folder watcher
	if len(cfg.Ingest.WatchDirs) > 0 {
		paths, _, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       cfg.Ingest.WatchDirs,
			InitialScan: true,
			Debounce:    500 * time.Millisecond,
			SkipHidden:  true,
			Logger:      logger,
		})
		if err != nil {
			return err
		}
		go a.Ingest.Watch(ctx, cfg.Ingest.OwnerID, paths, true)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-errCh:
		logger.Error("server failed", "error", serveErr)
	}

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", "error", err)
	}

	stopped := make(chan struct{})
	go func() { grpcServer.GracefulStop(); close(stopped) }()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}
	logger.Info("servers stopped")
	return serveErr
}
