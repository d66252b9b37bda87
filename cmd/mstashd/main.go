package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/config"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/daemon"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		log.Fatalf("create daemon: %v", err)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		log.Fatalf("start daemon: %v", err)
	}

	<-ctx.Done()
	logger.Info("mstashd shutting down")
	d.Stop()
}
