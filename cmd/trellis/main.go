package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/trellisfs/trellis/internal/logger"
	"github.com/trellisfs/trellis/pkg/config"
	"github.com/trellisfs/trellis/pkg/namespace"
	"github.com/trellisfs/trellis/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Log level override (DEBUG, INFO, WARN, ERROR)")
	seedDomain := flag.Int64("seed-domain", 0, "Enable the given domain id on startup (0 = none)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// CLI flag beats file and environment.
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger.SetLevel(cfg.Logging.Level)
	if cfg.Logging.Output == "stderr" {
		logger.SetOutput(os.Stderr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Println("Trellis - Path Namespace Engine")
	logger.Info("Log level set to: %s", cfg.Logging.Level)
	logger.Info("Node store: %s, content store: %s", cfg.Nodes.Type, cfg.Content.Type)

	backend, err := config.CreateNodeBackend(ctx, &cfg.Nodes)
	if err != nil {
		log.Fatalf("Failed to create node backend: %v", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Closing node backend failed: %v", err)
		}
	}()

	contentStore, err := config.CreateContentStore(ctx, &cfg.Content)
	if err != nil {
		log.Fatalf("Failed to create content store: %v", err)
	}

	activation := namespace.NewActivationCache(backend, cfg.Activation.RefreshInterval)
	ns := namespace.New(backend, contentStore, backend, backend, activation)
	ns.SetPendingTTL(cfg.Activation.PendingUploadTTL)

	if *seedDomain != 0 {
		if err := ns.EnableDomain(ctx, namespace.DomainID(*seedDomain)); err != nil {
			log.Fatalf("Failed to enable seed domain %d: %v", *seedDomain, err)
		}
		logger.Info("Domain %d enabled", *seedDomain)
	}

	srv := server.New(server.Config{
		Listen:         cfg.Server.Listen,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, ns, backend)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running on %s. Press Ctrl+C to stop.", cfg.Server.Listen)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error: %v", err)
			os.Exit(1)
		}
		if err := <-serverDone; err != nil {
			logger.Error("Server error during shutdown: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped")
	}
}
