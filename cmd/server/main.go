package main

import (
	"context"
	"log"
	"os"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/server"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
