package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/noah-isme/society-points-api/internal/config"
	"github.com/noah-isme/society-points-api/internal/database"
	"github.com/noah-isme/society-points-api/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "notifier").Logger()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName+" notifier")
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	defer natsConn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := notify.NewConsumer(natsConn, cfg.NotifyChannel, notify.NewLogMailer(logger), logger)
	if err := consumer.Start(ctx); err != nil {
		log.Fatalf("failed to start notifier: %v", err)
	}

	<-ctx.Done()
	logger.Info().Msg("notifier stopped")
}
