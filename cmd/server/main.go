package main

import (
	"context"
	"log"

	auth "github.com/goliatone/go-auth-server"
)

func main() {
	ctx := context.Background()

	cfg, err := auth.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := auth.NewApp(cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}
}
