package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bytedance/sonic"

	"lostark-battlepoint/internal/armory"
	"lostark-battlepoint/internal/battlepoint"
)

const (
	tablePath      = "testdata/BattlePoint.json"
	arkPassivePath = "testdata/ArkPassive.json"
	snapshotPath   = "testdata/character_berserker.json"

	wantAttack       = 172610492
	wantDefenseValue = 57536815
	wantDefenseCare  = 4622259
	wantDefenseTotal = 57583037
)

func loadTestEngine(t *testing.T) *battlepoint.Engine {
	t.Helper()
	table, err := battlepoint.LoadTableFile(tablePath)
	if err != nil {
		t.Fatalf("LoadTableFile: %v", err)
	}
	costs, err := battlepoint.LoadActivationCostsFile(arkPassivePath)
	if err != nil {
		t.Fatalf("LoadActivationCostsFile: %v", err)
	}
	return battlepoint.New(table, costs)
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunBatchKeepsOrderAndContinues(t *testing.T) {
	e := loadTestEngine(t)
	dir := t.TempDir()
	bad := writeFile(t, dir, "character_bad.json", `{"ArmoryProfile": null}`)
	files := []string{snapshotPath, bad, snapshotPath, filepath.Join(dir, "missing.json")}

	cfg := DefaultConfig()
	cfg.Workers = 3
	results := runBatch(e, files, cfg)
	if len(results) != len(files) {
		t.Fatalf("got %d results, want %d", len(results), len(files))
	}
	for i, r := range results {
		if r.File != files[i] {
			t.Errorf("result %d is for %s, want %s", i, r.File, files[i])
		}
	}
	for _, i := range []int{0, 2} {
		if results[i].Err != nil || results[i].Score.Total != wantAttack {
			t.Errorf("result %d = %d, %v; want %d", i, results[i].Score.Total, results[i].Err, wantAttack)
		}
	}
	if !errors.Is(results[1].Err, armory.ErrSchema) {
		t.Errorf("bad snapshot err = %v, want schema error", results[1].Err)
	}
	if results[3].Err == nil {
		t.Error("missing file should fail")
	}
}

func TestRunJSONDefense(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{
		"-table", tablePath, "-arkpassive", arkPassivePath,
		"-type", "defense", "-json", "-trace", "-workers", "1",
		snapshotPath,
	}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit %d, stderr:\n%s", code, stderr.String())
	}

	var out BatchOutput
	if err := sonic.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout.String())
	}
	if len(out.Results) != 1 || out.Failed != 0 {
		t.Fatalf("results = %+v", out)
	}
	r := out.Results[0]
	if r.Score != wantDefenseValue || r.Care != wantDefenseCare || r.Total != wantDefenseTotal {
		t.Errorf("defense = %d/%d/%d, want %d/%d/%d", r.Score, r.Care, r.Total, wantDefenseValue, wantDefenseCare, wantDefenseTotal)
	}
	if r.Name != "테스트버서커" || r.ScoreType != "defense" || r.Reported != "1,954.33" {
		t.Errorf("result = %+v", r)
	}
	if len(r.Steps) == 0 || r.Steps[len(r.Steps)-1].Score != wantDefenseCare {
		t.Errorf("trace should end on the care accumulator, got %d steps", len(r.Steps))
	}
	if !strings.Contains(stderr.String(), "battle point step") {
		t.Error("trace steps were not logged")
	}
}

func TestRunTableAndXLSX(t *testing.T) {
	dir := t.TempDir()
	xlsx := filepath.Join(dir, "out", "results.xlsx")
	engravings := filepath.Join(dir, "engravings.xlsx")
	bad := writeFile(t, dir, "character_bad.json", `{`)

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"-table", tablePath, "-arkpassive", arkPassivePath,
		"-xlsx", xlsx, "-engravings", engravings, "-log-level", "warn",
		snapshotPath, bad,
	}, &stdout, &stderr)
	if code != exitFailed {
		t.Errorf("exit %d, want %d", code, exitFailed)
	}
	out := stdout.String()
	for _, want := range []string{"테스트버서커", "172610492", "172.61", "1,954.33", "1 scored, 1 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("table lacks %q:\n%s", want, out)
		}
	}
	for _, p := range []string{xlsx, engravings} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s not written: %v", p, err)
		}
	}
}

func TestRunConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no files", []string{"-table", tablePath}, exitConfig},
		{"bad type", []string{"-type", "support", snapshotPath}, exitConfig},
		{"bad flag", []string{"-nope", snapshotPath}, exitConfig},
		{"missing table", []string{"-table", "testdata/none.json", snapshotPath}, exitConfig},
		{"help", []string{"-h"}, exitOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != tt.want {
				t.Errorf("exit %d, want %d; stderr:\n%s", code, tt.want, stderr.String())
			}
		})
	}
}

func TestLoadConfigLayering(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "battlepoint.yaml", `
table: tables/BattlePoint.json
type: defense
workers: 3
trace: true
fetch: [" 캐릭A ", "캐릭B"]
`)
	env := func(key string) string {
		if key == TokenEnv {
			return " token-from-env "
		}
		return ""
	}

	cfg, err := LoadConfig([]string{"-config", path, "-workers", "5", "-trace=false"}, env)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.TablePath != "tables/BattlePoint.json" || cfg.ArkPassivePath != "ArkPassive.json" {
		t.Errorf("paths = %q, %q", cfg.TablePath, cfg.ArkPassivePath)
	}
	if cfg.ScoreType != battlepoint.ScoreDefense || cfg.Workers != 5 || cfg.Trace {
		t.Errorf("cfg = %+v", cfg)
	}
	if strings.Join(cfg.Fetch, ",") != "캐릭A,캐릭B" || cfg.APIToken != "token-from-env" {
		t.Errorf("fetch %q token %q", cfg.Fetch, cfg.APIToken)
	}

	cfg, err = LoadConfig([]string{"-config", path, "-fetch", "캐릭C", "-type", "attack"}, env)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if strings.Join(cfg.Fetch, ",") != "캐릭C" || cfg.ScoreType != battlepoint.ScoreAttack {
		t.Errorf("flags did not override: %+v", cfg)
	}

	unknown := writeFile(t, dir, "unknown.yaml", "tabel: x\n")
	if _, err := LoadConfig([]string{"-config", unknown, snapshotPath}, env); err == nil {
		t.Error("unknown yaml key should fail")
	}
	if _, err := LoadConfig([]string{"-config", filepath.Join(dir, "none.yaml"), snapshotPath}, env); err == nil {
		t.Error("explicit missing config should fail")
	}
	if _, err := LoadConfig([]string{"-config", path}, func(string) string { return "" }); err == nil {
		t.Error("fetch without a token should fail")
	}
	if _, err := LoadConfig([]string{"-workers", "0", snapshotPath}, env); err == nil {
		t.Error("zero workers should fail")
	}
}

func TestCombatPowerFormatting(t *testing.T) {
	format := []struct {
		in   int64
		want string
	}{
		{1954331234, "1,954.33"},
		{wantAttack, "172.61"},
		{0, "0.00"},
		{12345678999999, "12,345,678.99"},
		{-1500000, "-1.50"},
	}
	for _, tt := range format {
		if got := FormatCombatPower(tt.in); got != tt.want {
			t.Errorf("FormatCombatPower(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}

	parse := []struct {
		in   string
		want int64
	}{
		{"1,954.33", 1954330000},
		{"173", 173000000},
		{" 2,001.5 ", 2001500000},
		{"0.1234567", 123456},
	}
	for _, tt := range parse {
		got, err := ParseCombatPower(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseCombatPower(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
	for _, in := range []string{"", "abc", "1.x"} {
		if _, err := ParseCombatPower(in); err == nil {
			t.Errorf("ParseCombatPower(%q) should fail", in)
		}
	}
}

func TestLambdaHandler(t *testing.T) {
	h := newHandler(loadTestEngine(t))
	snapshot, err := os.ReadFile(snapshotPath)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	resp, err := h(ctx, events.LambdaFunctionURLRequest{
		Body:                  base64.StdEncoding.EncodeToString(snapshot),
		IsBase64Encoded:       true,
		QueryStringParameters: map[string]string{"type": "defense"},
	})
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, err %v, body %s", resp.StatusCode, err, resp.Body)
	}
	var got scoreResponse
	if err := sonic.Unmarshal([]byte(resp.Body), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := scoreResponse{
		Name: "테스트버서커", Class: "버서커", ScoreType: "defense",
		Score: wantDefenseValue, Care: wantDefenseCare, Total: wantDefenseTotal,
		CombatPower: "57.58", Reported: "1,954.33",
	}
	if got != want {
		t.Errorf("response = %+v, want %+v", got, want)
	}

	cases := []struct {
		name string
		req  events.LambdaFunctionURLRequest
		code int
	}{
		{"empty", events.LambdaFunctionURLRequest{}, http.StatusBadRequest},
		{"bad base64", events.LambdaFunctionURLRequest{Body: "%%%", IsBase64Encoded: true}, http.StatusBadRequest},
		{"bad type", events.LambdaFunctionURLRequest{Body: string(snapshot), QueryStringParameters: map[string]string{"type": "x"}}, http.StatusBadRequest},
		{"bad snapshot", events.LambdaFunctionURLRequest{Body: `{"ArmoryProfile": {}}`}, http.StatusUnprocessableEntity},
	}
	for _, tt := range cases {
		resp, err := h(ctx, tt.req)
		if err != nil || resp.StatusCode != tt.code || !strings.Contains(resp.Body, `"error"`) {
			t.Errorf("%s: status %d body %s err %v; want %d", tt.name, resp.StatusCode, resp.Body, err, tt.code)
		}
	}
}

type fakeFetcher map[string]string

func (f fakeFetcher) FetchCharacter(_ context.Context, name string) ([]byte, error) {
	body, ok := f[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(body), nil
}

func TestFetchAll(t *testing.T) {
	dir := t.TempDir()
	snapshot, err := os.ReadFile(snapshotPath)
	if err != nil {
		t.Fatal(err)
	}
	f := fakeFetcher{"테스트버서커": string(snapshot)}

	paths, failed := fetchAll(context.Background(), f, []string{"테스트버서커", "없음"}, dir)
	if failed != 1 || len(paths) != 1 {
		t.Fatalf("paths %v failed %d", paths, failed)
	}
	if filepath.Base(paths[0]) != "character_테스트버서커.json" {
		t.Errorf("path = %s", paths[0])
	}
	results := runBatch(loadTestEngine(t), paths, DefaultConfig())
	if results[0].Err != nil || results[0].Score.Total != wantAttack {
		t.Errorf("fetched snapshot scored %d, %v", results[0].Score.Total, results[0].Err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if paths, failed := fetchAll(ctx, f, []string{"테스트버서커", "없음"}, dir); len(paths) != 0 || failed != 2 {
		t.Errorf("cancelled fetch = %v, %d", paths, failed)
	}
}
