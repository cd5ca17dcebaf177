package main

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"lostark-battlepoint/internal/armory"
	"lostark-battlepoint/internal/battlepoint"
	"lostark-battlepoint/internal/lostark"
	"lostark-battlepoint/internal/output"
)

// CharacterResult is the outcome of scoring one snapshot file.
type CharacterResult struct {
	File      string
	Name      string
	Class     string
	ScoreType battlepoint.ScoreType
	Score     battlepoint.Score
	Reported  string
	Steps     []battlepoint.TraceStep
	Elapsed   time.Duration
	Err       error
}

// scoreFile parses and scores one snapshot. With trace set every applied
// step is logged and kept on the result.
func scoreFile(e *battlepoint.Engine, path string, st battlepoint.ScoreType, trace bool) CharacterResult {
	start := time.Now()
	r := CharacterResult{File: path, ScoreType: st}

	ch, err := armory.ParseFile(path)
	if err != nil {
		r.Err = err
		r.Elapsed = time.Since(start)
		return r
	}
	r.Name, r.Class, r.Reported = ch.Name, ch.ClassName, ch.ReportedCombatPower

	var opts []battlepoint.CalcOption
	if trace {
		logSink := battlepoint.LogSink{Logger: log.Logger, Character: ch.Name}
		opts = append(opts, battlepoint.WithTrace(battlepoint.TraceFunc(func(s battlepoint.TraceStep) {
			logSink.Step(s)
			r.Steps = append(r.Steps, s)
		})))
	}
	r.Score, r.Err = e.Calc(ch, st, opts...)
	r.Elapsed = time.Since(start)
	return r
}

// runBatch scores files on a bounded pool. Results keep input order and a
// failed file never stops the others.
func runBatch(e *battlepoint.Engine, files []string, cfg Config) []CharacterResult {
	results := make([]CharacterResult, len(files))
	numWorkers := cfg.Workers
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	jobs := make(chan int, len(files))
	for i := range files {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = scoreFile(e, files[idx], cfg.ScoreType, cfg.Trace)
			}
		}()
	}
	wg.Wait()

	for _, r := range results {
		if r.Err != nil {
			log.Error().Err(r.Err).Str("character", r.Name).Str("file", r.File).Msg("score failed")
			continue
		}
		log.Info().
			Str("character", r.Name).
			Str("file", r.File).
			Int64("score", r.Score.Total).
			Dur("elapsed", r.Elapsed).
			Msg("scored")
	}
	return results
}

// snapshotFetcher is the part of lostark.Client the batch uses.
type snapshotFetcher interface {
	FetchCharacter(ctx context.Context, name string) ([]byte, error)
}

var _ snapshotFetcher = (*lostark.Client)(nil)

// fetchAll downloads each named character into dir, one request at a time.
// It returns the written paths and how many names failed.
func fetchAll(ctx context.Context, c snapshotFetcher, names []string, dir string) ([]string, int) {
	var (
		paths  []string
		failed int
	)
	for _, name := range names {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Int("remaining", len(names)-len(paths)-failed).Msg("fetch interrupted")
			return paths, len(names) - len(paths)
		}
		body, err := c.FetchCharacter(ctx, name)
		if err != nil {
			log.Error().Err(err).Str("character", name).Msg("fetch failed")
			failed++
			continue
		}
		path, err := output.WriteSnapshot(dir, name, body)
		if err != nil {
			log.Error().Err(err).Str("character", name).Msg("write snapshot failed")
			failed++
			continue
		}
		log.Info().Str("character", name).Str("file", path).Msg("fetched")
		paths = append(paths, path)
	}
	return paths, failed
}

func resultRows(results []CharacterResult) []output.ResultRow {
	rows := make([]output.ResultRow, len(results))
	for i, r := range results {
		row := output.ResultRow{
			File:      r.File,
			Name:      r.Name,
			Class:     r.Class,
			ScoreType: string(r.ScoreType),
			Reported:  r.Reported,
		}
		if r.Err != nil {
			row.Error = r.Err.Error()
		} else {
			row.Score = r.Score.Value
			row.Care = r.Score.Care
			row.Total = r.Score.Total
			row.CombatPower = FormatCombatPower(r.Score.Total)
		}
		rows[i] = row
	}
	return rows
}
