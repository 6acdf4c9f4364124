package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/newsvendor/internal/logging"
	"github.com/iwvelando/newsvendor/internal/server"
	"github.com/iwvelando/newsvendor/pkg/constants"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	addressOverride := flag.String("address", "", "listen address override")
	uploadOverride := flag.String("max-upload-size", "", "maximum upload size override (e.g. 256K, 1M)")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configPath, err)
		os.Exit(1)
	}

	if *addressOverride != "" {
		cfg.Address = *addressOverride
	}
	if *uploadOverride != "" {
		size, err := server.ParseSize(*uploadOverride)
		if err != nil {
			fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"invalid max upload size\", \"error\": \"%v\"}\n", err)
			os.Exit(1)
		}
		cfg.SetUploadSizeBytes(size)
	}

	logger, err := logging.NewLogger(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	httpServer := &http.Server{
		Addr:         cfg.Address,
		Handler:      server.NewHandler(logger, cfg.Options(version)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("http server listening",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.Int64("maxUploadSize", cfg.UploadSizeBytes()),
			zap.String("version", version),
		)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutdown requested", zap.String("op", "main"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
