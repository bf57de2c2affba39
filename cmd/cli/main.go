package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/healthtrend/internal/buildinfo"
	"github.com/dmitrijs2005/healthtrend/internal/cli"
	"github.com/dmitrijs2005/healthtrend/internal/config"
	"github.com/dmitrijs2005/healthtrend/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
