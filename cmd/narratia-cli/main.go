package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"narratia/internal/cli"
	"narratia/internal/client"
	"narratia/internal/config"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.APIBaseURL)
	api.SetTimeout(cfg.Timeout)

	app := cli.NewApp(api, os.Stdin, os.Stdout, cfg.PageSize)
	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
