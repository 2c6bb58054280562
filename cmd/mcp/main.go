package main

import (
	"flag"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"clarifier/internal/app"
	"clarifier/internal/mcptools"
	"clarifier/internal/pkg/logger"
	"clarifier/internal/platform/config"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	// stdout carries the MCP protocol.
	cfg.Logging.Output = "stderr"
	logger.Init(cfg.Logging, "clarifier-mcp")

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.Close()

	s := mcptools.New(a.Pipeline, a.Usage, app.Version)
	if err := server.ServeStdio(s); err != nil {
		log.Error().Err(err).Msg("mcp server stopped")
	}
}
