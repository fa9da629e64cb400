package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/bulletin/internal/client/cli"
	"github.com/dmitrijs2005/bulletin/internal/client/client"
	"github.com/dmitrijs2005/bulletin/internal/client/config"
	"github.com/dmitrijs2005/bulletin/internal/client/tokenstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store, err := tokenstore.Open(ctx, cfg.StateFile)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer store.Close()

	c, err := client.NewGRPCClient(ctx, cfg.ServerEndpointAddr, store)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer c.Close()

	cli.NewApp(cfg, c, os.Stdin, os.Stdout).Run(ctx)
}
