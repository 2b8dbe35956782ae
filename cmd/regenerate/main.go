package main

import (
	"os"

	"regenerate-thumbnails/internal/app/regenerate"
	"regenerate-thumbnails/internal/config"

	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()

	cfg, err := config.MustLoad()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to load config")
	}

	runner, err := regenerate.NewRunner(cfg, os.Stdout, &zlog.Logger)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to create runner")
	}

	if err := runner.Run(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Regeneration failed")
	}

	os.Exit(0)
}
