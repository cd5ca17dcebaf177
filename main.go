//go:build !lambda

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lostark-battlepoint/internal/battlepoint"
	"lostark-battlepoint/internal/lostark"
	"lostark-battlepoint/internal/output"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

// ResultJSON is the JSON form of one CharacterResult.
type ResultJSON struct {
	File        string     `json:"file"`
	Name        string     `json:"name,omitempty"`
	Class       string     `json:"class,omitempty"`
	ScoreType   string     `json:"scoreType"`
	Score       int64      `json:"score"`
	Care        int64      `json:"care,omitempty"`
	Total       int64      `json:"total"`
	CombatPower string     `json:"combatPower,omitempty"`
	Reported    string     `json:"reported,omitempty"`
	TimeMs      int64      `json:"timeMs"`
	Steps       []StepJSON `json:"steps,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type StepJSON struct {
	Accumulator string `json:"acc"`
	Factor      string `json:"factor"`
	Label       string `json:"label,omitempty"`
	Delta       string `json:"delta"`
	Score       int64  `json:"score"`
}

// BatchOutput is the JSON document printed with -json.
type BatchOutput struct {
	Date    string       `json:"date"`
	Workers int          `json:"workers"`
	Results []ResultJSON `json:"results"`
	Failed  int          `json:"failed"`
}

func toJSON(results []CharacterResult, workers int) BatchOutput {
	out := BatchOutput{
		Date:    time.Now().UTC().Format(time.RFC3339),
		Workers: workers,
		Results: make([]ResultJSON, 0, len(results)),
	}
	for _, r := range results {
		j := ResultJSON{
			File:      r.File,
			Name:      r.Name,
			Class:     r.Class,
			ScoreType: string(r.ScoreType),
			Reported:  r.Reported,
			TimeMs:    r.Elapsed.Milliseconds(),
		}
		if r.Err != nil {
			j.Error = r.Err.Error()
			out.Failed++
		} else {
			j.Score, j.Care, j.Total = r.Score.Value, r.Score.Care, r.Score.Total
			j.CombatPower = FormatCombatPower(r.Score.Total)
		}
		for _, s := range r.Steps {
			j.Steps = append(j.Steps, StepJSON{
				Accumulator: s.Accumulator,
				Factor:      s.Factor,
				Label:       s.Label,
				Delta:       s.Percent(),
				Score:       s.After,
			})
		}
		out.Results = append(out.Results, j)
	}
	return out
}

const usage = `Usage: battlepoint [flags] character*.json...

Scores armories/characters snapshots against BattlePoint.json and
ArkPassive.json. Settings are read from battlepoint.yaml when present;
flags override the file.

Flags:
  -config path       config yaml
  -table path        BattlePoint.json (default BattlePoint.json)
  -arkpassive path   ArkPassive.json (default ArkPassive.json)
  -type name         attack or defense (default attack)
  -trace             log every applied factor
  -json              print results as JSON
  -xlsx path         write results to an .xlsx workbook
  -engravings path   write the engraving coefficient report (.xlsx)
  -fetch names       comma-separated characters to download and score
  -out-dir dir       directory for fetched snapshots (default .)
  -workers n         concurrent characters (default: number of CPUs)
  -log-level level   debug, info, warn or error (default info)

The -fetch mode reads the API token from apiToken or ` + TokenEnv + `.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := LoadConfig(args, os.Getenv)
	if errors.Is(err, flag.ErrHelp) {
		fmt.Fprint(stderr, usage)
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n\n%s", err, usage)
		return exitConfig
	}

	level := cfg.LogLevel
	if cfg.Trace && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	table, err := battlepoint.LoadTableFile(cfg.TablePath)
	if err != nil {
		log.Error().Err(err).Msg("load coefficient table")
		return exitConfig
	}

	if cfg.EngravingsPath != "" {
		if err := output.ExportEngravings(cfg.EngravingsPath, output.EngravingGrids(table)); err != nil {
			log.Error().Err(err).Msg("engraving report")
			return exitFailed
		}
		log.Info().Str("file", cfg.EngravingsPath).Msg("engraving report written")
		if len(cfg.Files) == 0 && len(cfg.Fetch) == 0 {
			return exitOK
		}
	}

	costs, err := battlepoint.LoadActivationCostsFile(cfg.ArkPassivePath)
	if err != nil {
		log.Error().Err(err).Msg("load activation costs")
		return exitConfig
	}
	engine := battlepoint.New(table, costs)

	files := cfg.Files
	fetchFailed := 0
	if len(cfg.Fetch) > 0 {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		var fetched []string
		fetched, fetchFailed = fetchAll(ctx, lostark.NewClient(cfg.APIToken), cfg.Fetch, cfg.OutDir)
		stop()
		files = append(files, fetched...)
	}

	log.Info().Int("files", len(files)).Str("type", string(cfg.ScoreType)).Int("workers", cfg.Workers).Msg("scoring")
	results := runBatch(engine, files, cfg)

	if cfg.JSON {
		b, err := sonic.ConfigStd.MarshalIndent(toJSON(results, cfg.Workers), "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("encode results")
			return exitFailed
		}
		fmt.Fprintln(stdout, string(b))
	} else {
		printTable(stdout, results)
	}

	if cfg.XLSXPath != "" {
		if err := output.ExportResults(cfg.XLSXPath, resultRows(results)); err != nil {
			log.Error().Err(err).Msg("write results workbook")
			return exitFailed
		}
		log.Info().Str("file", cfg.XLSXPath).Msg("results workbook written")
	}

	for _, r := range results {
		if r.Err != nil {
			return exitFailed
		}
	}
	if fetchFailed > 0 {
		return exitFailed
	}
	return exitOK
}
