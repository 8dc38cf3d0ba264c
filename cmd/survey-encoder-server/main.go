package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"yashubustudio/surveyencoder/encoder"
	"yashubustudio/surveyencoder/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config.json or config.yaml")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting survey encoder server...")

	cfg, err := encoder.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if cfg.Aliases != nil {
		encoder.SetColumnAliases(cfg.Aliases)
	}

	svc := encoder.NewService(cfg, logger)
	defer svc.Close()
	if err := svc.LoadScorers(); err != nil {
		logger.Fatal("Failed to load models", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := server.NewHandler(svc, logger)
	engine := server.NewEngine(handler, cfg.Server.Mode)
	if err := server.Run(ctx, cfg.Server.Addr, engine, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
}
