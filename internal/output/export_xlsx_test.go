package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"lostark-battlepoint/internal/battlepoint"
)

func testTable(t *testing.T) *battlepoint.Table {
	t.Helper()
	table, err := battlepoint.LoadTable([]byte(`{
		"attack": {
			"base_attack_point": 1,
			"ability_attack": {"원한": {"13": 1800, "33": 1925, "93": 2500}, "아드레날린": {"9": 600}}
		},
		"defense": {
			"base_attack_point": 1,
			"ability_defense": {"각성": {"13": -25}}
		}
	}`))
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	return table
}

func TestEngravingGrids(t *testing.T) {
	grids := EngravingGrids(testTable(t))
	if len(grids) != 3 {
		t.Fatalf("got %d grids, want 3", len(grids))
	}
	g := grids[0]
	if g.Title != "원한 - 딜러 전투력" {
		t.Errorf("title = %q", g.Title)
	}
	// Row 4 is activation 13; stone 0 → key 13, stone 1 → 33, stone 4 → 93.
	if g.Cells[4][0] != "18.00%" || g.Cells[4][1] != "19.25%" || g.Cells[4][4] != "25.00%" {
		t.Errorf("row 13 = %q", g.Cells[4])
	}
	if g.Cells[0][0] != "" {
		t.Errorf("missing key rendered as %q", g.Cells[0][0])
	}
	if grids[1].Cells[0][0] != "6.00%" {
		t.Errorf("아드레날린 key 9 = %q", grids[1].Cells[0][0])
	}
	if grids[2].Title != "각성 - 서폿 케어 전투력" || grids[2].Cells[4][0] != "-0.25%" {
		t.Errorf("care grid = %+v", grids[2])
	}
	if ActiveLabel(4) != "유각 20장" {
		t.Errorf("ActiveLabel(4) = %q", ActiveLabel(4))
	}
}

func TestExportEngravings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report", "engravings.xlsx")
	if err := ExportEngravings(path, EngravingGrids(testTable(t))); err != nil {
		t.Fatalf("ExportEngravings: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	checks := map[string]string{
		"A1": "원한 - 딜러 전투력",
		"A2": "어빌스톤 레벨",
		"C2": "1",
		"A7": "유각 20장",
		"C7": "19.25%",
		"A9": "아드레날린 - 딜러 전투력",
	}
	for cell, want := range checks {
		got, err := f.GetCellValue("Engravings", cell)
		if err != nil || got != want {
			t.Errorf("%s = %q, %v; want %q", cell, got, err, want)
		}
	}
}

func TestExportResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	rows := []ResultRow{
		{File: "a.json", Name: "테스트버서커", Class: "버서커", ScoreType: "attack", Score: 172610492, Total: 172610492, CombatPower: "172.61", Reported: "1,954.33"},
		{File: "b.json", ScoreType: "attack", Error: "schema error: ArmoryProfile missing"},
	}
	if err := ExportResults(path, rows); err != nil {
		t.Fatalf("ExportResults: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	got, err := f.GetRows("Results")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}
	if strings.Join(got[0], ",") != strings.Join(resultHeader, ",") {
		t.Errorf("header = %v", got[0])
	}
	if got[1][1] != "테스트버서커" || got[1][4] != "172610492" || got[1][7] != "172.61" {
		t.Errorf("row 1 = %v", got[1])
	}
	if v, _ := f.GetCellValue("Results", "E3"); v != "" {
		t.Errorf("failed row has score %q", v)
	}
	if v, _ := f.GetCellValue("Results", "J3"); !strings.HasPrefix(v, "schema error") {
		t.Errorf("failed row error = %q", v)
	}
}

func TestWriteSnapshot(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteSnapshot(dir, "이름 with/slash", []byte(`{"ArmoryProfile":{"CharacterName":"x"}}`))
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if filepath.Base(path) != "character_이름_with_slash.json" {
		t.Errorf("path = %s", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "\n  \"ArmoryProfile\"") {
		t.Errorf("snapshot not indented:\n%s", b)
	}
}
