package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/himanishpuri/ourtrips/pkg/config"
	"github.com/himanishpuri/ourtrips/pkg/logger"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips"
)

var (
	configPath     string
	port           int
	allowedOrigins string
)

func init() {
	flag.StringVar(&configPath, "config", os.Getenv(config.EnvConfigPath), "Path to YAML config file")
	flag.IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	flag.StringVar(&allowedOrigins, "origins", "", "Comma-separated list of allowed CORS origins (use * for all)")
}

func main() {
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if allowedOrigins != "" {
		origins := strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.Server.AllowedOrigins = origins
	}
	cfg.ApplyLogging()

	opts, err := cfg.ServiceOptions()
	if err != nil {
		logger.Fatalf("Failed to configure service: %v", err)
	}
	service, err := ourtrips.NewService(opts...)
	if err != nil {
		logger.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	logger.Infof("Database: %s, bucket: %s", cfg.Storage.DBPath, cfg.Storage.BucketDir)
	if cfg.Vision.Fixture == "" && cfg.Vision.APIKey == "" {
		logger.Warnf("No vision provider configured; recognition requests will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := NewServer(service, cfg.Server)
	if err := server.Run(ctx); err != nil {
		logger.Errorf("Server failed: %v", err)
		stop()
		service.Close()
		os.Exit(1)
	}
}
