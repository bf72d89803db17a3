package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"objstore-backend/internal/api/objstore"
	"objstore-backend/internal/app/server"
	"objstore-backend/internal/application/services"
	"objstore-backend/internal/config"
	"objstore-backend/internal/infrastructure/repositories"
)

var (
	configPath = flag.String("config", "config/config.yaml", "Path to configuration file")
	httpAddr   = flag.String("http-addr", "", "HTTP server address (overrides config)")
	backend    = flag.String("backend", "", "Repository backend: memory, mongodb or dynamodb (overrides config)")
	mongoURI   = flag.String("mongo-uri", "", "MongoDB connection URI (overrides config)")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		klog.Fatalf("Failed to load configuration: %v", err)
	}

	if *httpAddr != "" {
		cfg.Settings.HTTPAddr = *httpAddr
	}
	if *backend != "" {
		cfg.Repository.Type = repositories.RepositoryType(*backend)
	}
	if *mongoURI != "" && cfg.Repository.Mongo != nil {
		cfg.Repository.Mongo.URI = *mongoURI
	}

	if err := cfg.Validate(); err != nil {
		klog.Fatalf("Configuration validation failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := repositories.NewFactory(cfg.Repository)
	product, err := factory.CreateRepository(ctx)
	if err != nil {
		klog.Fatalf("Failed to create repository: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := product.Repository.Close(closeCtx); err != nil {
			klog.ErrorS(err, "failed to close repository")
		}
	}()

	service := services.NewObjectService(product.Repository)
	handler := objstore.NewHandler(service, product.Breaker)
	srv := server.SetupServer(cfg.Settings.HTTPAddr, handler)

	go func() {
		klog.InfoS("starting HTTP server",
			"addr", cfg.Settings.HTTPAddr,
			"backend", cfg.Repository.Type,
			"circuitBreaker", product.Breaker != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	klog.InfoS("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		klog.ErrorS(err, "graceful shutdown failed")
	}
}
