//go:build lambda

package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lostark-battlepoint/internal/battlepoint"
)

// Table locations inside the function package, overridable per deployment.
const (
	tableEnv      = "BATTLEPOINT_TABLE"
	arkPassiveEnv = "BATTLEPOINT_ARKPASSIVE"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg := DefaultConfig()
	table, err := battlepoint.LoadTableFile(envOr(tableEnv, cfg.TablePath))
	if err != nil {
		log.Fatal().Err(err).Msg("load coefficient table")
	}
	costs, err := battlepoint.LoadActivationCostsFile(envOr(arkPassiveEnv, cfg.ArkPassivePath))
	if err != nil {
		log.Fatal().Err(err).Msg("load activation costs")
	}
	lambda.Start(newHandler(battlepoint.New(table, costs)))
}
