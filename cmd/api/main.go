package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/vadim/tosembanda/internal/app"
	"github.com/vadim/tosembanda/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (environment is used when empty)")
	flag.Parse()

	cfg := loadConfig(*configPath)

	ctx := context.Background()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	// Run application (blocks until shutdown)
	if err := application.Run(ctx); err != nil {
		log.Printf("application error: %v", err)
		os.Exit(1)
	}
}

func loadConfig(path string) config.Config {
	if path == "" {
		return config.MustLoad()
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		log.Fatalf("failed to load config from %s: %v", path, err)
	}
	return cfg
}
