package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"lostark-battlepoint/internal/battlepoint"
)

// DefaultConfigPath is read when present and -config is not given.
const DefaultConfigPath = "battlepoint.yaml"

// TokenEnv supplies the API token when neither the file nor a flag does.
const TokenEnv = "LOSTARK_API_TOKEN"

// Config is the resolved run configuration: defaults, then the YAML file,
// then flags.
type Config struct {
	// TablePath is the BattlePoint.json coefficient table.
	TablePath string
	// ArkPassivePath is the ArkPassive.json activation-cost table.
	ArkPassivePath string
	ScoreType      battlepoint.ScoreType
	// Trace logs every applied pipeline step at debug level.
	Trace bool
	JSON  bool
	// XLSXPath, when set, receives the batch results workbook.
	XLSXPath string
	// EngravingsPath, when set, receives the engraving coefficient report.
	EngravingsPath string
	// Fetch lists character names to download; their snapshots are scored
	// after Files.
	Fetch    []string
	OutDir   string
	Workers  int
	LogLevel zerolog.Level
	APIToken string
	// Files are the snapshot documents to score, in output order.
	Files []string
}

func DefaultConfig() Config {
	return Config{
		TablePath:      "BattlePoint.json",
		ArkPassivePath: "ArkPassive.json",
		ScoreType:      battlepoint.ScoreAttack,
		OutDir:         ".",
		Workers:        runtime.NumCPU(),
		LogLevel:       zerolog.InfoLevel,
	}
}

type stringOpt struct {
	v   string
	set bool
}

func (o *stringOpt) String() string { return o.v }
func (o *stringOpt) Set(v string) error {
	o.v = v
	o.set = true
	return nil
}

type boolOpt struct {
	v   bool
	set bool
}

func (o *boolOpt) String() string { return strconv.FormatBool(o.v) }
func (o *boolOpt) Set(v string) error {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	o.v = b
	o.set = true
	return nil
}
func (o *boolOpt) IsBoolFlag() bool { return true }

type intOpt struct {
	v   int
	set bool
}

func (o *intOpt) String() string { return strconv.Itoa(o.v) }
func (o *intOpt) Set(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	o.v = n
	o.set = true
	return nil
}

// FileConfig mirrors Config in battlepoint.yaml. Pointers distinguish an
// explicit false or zero from an absent key.
type FileConfig struct {
	Table      string   `yaml:"table"`
	ArkPassive string   `yaml:"arkPassive"`
	Type       string   `yaml:"type"`
	Trace      *bool    `yaml:"trace"`
	JSON       *bool    `yaml:"json"`
	XLSX       string   `yaml:"xlsx"`
	Engravings string   `yaml:"engravings"`
	Fetch      []string `yaml:"fetch"`
	OutDir     string   `yaml:"outDir"`
	Workers    *int     `yaml:"workers"`
	LogLevel   string   `yaml:"logLevel"`
	APIToken   string   `yaml:"apiToken"`
}

// LoadConfig resolves the configuration from args (without the program
// name). getenv is os.Getenv outside tests.
func LoadConfig(args []string, getenv func(string) string) (Config, error) {
	fs := flag.NewFlagSet("battlepoint", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configPath, tableOpt, arkOpt, typeOpt stringOpt
		xlsxOpt, engravingsOpt, fetchOpt      stringOpt
		outDirOpt, logLevelOpt                stringOpt
		traceOpt, jsonOpt                     boolOpt
		workersOpt                            intOpt
	)
	fs.Var(&configPath, "config", "path to config yaml (default: "+DefaultConfigPath+" if present)")
	fs.Var(&tableOpt, "table", "path to BattlePoint.json")
	fs.Var(&arkOpt, "arkpassive", "path to ArkPassive.json")
	fs.Var(&typeOpt, "type", "score type: attack or defense")
	fs.Var(&traceOpt, "trace", "log every applied factor")
	fs.Var(&jsonOpt, "json", "print results as JSON")
	fs.Var(&xlsxOpt, "xlsx", "write results to this .xlsx path")
	fs.Var(&engravingsOpt, "engravings", "write the engraving coefficient report to this .xlsx path")
	fs.Var(&fetchOpt, "fetch", "comma-separated character names to download")
	fs.Var(&outDirOpt, "out-dir", "directory for fetched snapshots")
	fs.Var(&workersOpt, "workers", "concurrent characters (default: number of CPUs)")
	fs.Var(&logLevelOpt, "log-level", "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()

	path := strings.TrimSpace(configPath.v)
	if path == "" {
		path = DefaultConfigPath
	}
	fc, err := loadFileConfig(path, configPath.set)
	if err != nil {
		return Config{}, err
	}

	if s := strings.TrimSpace(fc.Table); s != "" {
		cfg.TablePath = s
	}
	if s := strings.TrimSpace(fc.ArkPassive); s != "" {
		cfg.ArkPassivePath = s
	}
	typ := strings.TrimSpace(fc.Type)
	if fc.Trace != nil {
		cfg.Trace = *fc.Trace
	}
	if fc.JSON != nil {
		cfg.JSON = *fc.JSON
	}
	cfg.XLSXPath = strings.TrimSpace(fc.XLSX)
	cfg.EngravingsPath = strings.TrimSpace(fc.Engravings)
	cfg.Fetch = cleanNames(fc.Fetch)
	if s := strings.TrimSpace(fc.OutDir); s != "" {
		cfg.OutDir = s
	}
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	level := strings.TrimSpace(fc.LogLevel)
	cfg.APIToken = strings.TrimSpace(fc.APIToken)

	if tableOpt.set {
		cfg.TablePath = strings.TrimSpace(tableOpt.v)
	}
	if arkOpt.set {
		cfg.ArkPassivePath = strings.TrimSpace(arkOpt.v)
	}
	if typeOpt.set {
		typ = strings.TrimSpace(typeOpt.v)
	}
	if traceOpt.set {
		cfg.Trace = traceOpt.v
	}
	if jsonOpt.set {
		cfg.JSON = jsonOpt.v
	}
	if xlsxOpt.set {
		cfg.XLSXPath = strings.TrimSpace(xlsxOpt.v)
	}
	if engravingsOpt.set {
		cfg.EngravingsPath = strings.TrimSpace(engravingsOpt.v)
	}
	if fetchOpt.set {
		cfg.Fetch = cleanNames(strings.Split(fetchOpt.v, ","))
	}
	if outDirOpt.set {
		cfg.OutDir = strings.TrimSpace(outDirOpt.v)
	}
	if workersOpt.set {
		cfg.Workers = workersOpt.v
	}
	if logLevelOpt.set {
		level = strings.TrimSpace(logLevelOpt.v)
	}
	if cfg.APIToken == "" && getenv != nil {
		cfg.APIToken = strings.TrimSpace(getenv(TokenEnv))
	}
	cfg.Files = fs.Args()

	if typ != "" {
		st, ok := battlepoint.ParseScoreType(typ)
		if !ok {
			return Config{}, fmt.Errorf("invalid score type %q (expected attack or defense)", typ)
		}
		cfg.ScoreType = st
	}
	if level != "" {
		lvl, err := zerolog.ParseLevel(level)
		if err != nil {
			return Config{}, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.LogLevel = lvl
	}
	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if len(cfg.Fetch) > 0 && cfg.APIToken == "" {
		return Config{}, fmt.Errorf("-fetch needs an API token (set apiToken or %s)", TokenEnv)
	}
	if len(cfg.Fetch) == 0 && len(cfg.Files) == 0 && cfg.EngravingsPath == "" {
		return Config{}, errors.New("no snapshot files given")
	}
	return cfg, nil
}

// loadFileConfig reads the YAML file. A missing file is fine unless the
// user named it explicitly.
func loadFileConfig(path string, required bool) (FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("read config yaml %s: %w", path, err)
	}

	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return FileConfig{}, fmt.Errorf("parse config yaml %s: %w", path, err)
	}
	return fc, nil
}

func cleanNames(names []string) []string {
	var out []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
