package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"clarifier/internal/pkg/logger"
	"clarifier/internal/platform/auth"
	"clarifier/internal/platform/config"
)

// token issues a bearer token bound to one organization, for integrations
// calling the API when jwt.secret is set.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	orgID := flag.String("org", "", "Organization ID the token is bound to")
	scopes := flag.String("scopes", "clarify,usage", "Comma separated scopes")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.Logging.Output = "stderr"
	logger.Init(cfg.Logging, "clarifier-token")

	if *orgID == "" {
		log.Fatal().Msg("-org is required")
	}

	var scopeList []string
	for _, s := range strings.Split(*scopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopeList = append(scopeList, s)
		}
	}

	token, err := auth.NewTokenService(cfg.JWT).GenerateAccessToken(*orgID, scopeList)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to issue token")
	}
	fmt.Println(token)
}
