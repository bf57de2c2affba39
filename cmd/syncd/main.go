package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/healthtrend/internal/buildinfo"
	"github.com/dmitrijs2005/healthtrend/internal/config"
	"github.com/dmitrijs2005/healthtrend/internal/daemon"
	"github.com/dmitrijs2005/healthtrend/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	app, err := daemon.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
