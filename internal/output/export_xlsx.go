package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"lostark-battlepoint/internal/battlepoint"
)

// ResultRow is one scored (or failed) character of a batch.
type ResultRow struct {
	File        string
	Name        string
	Class       string
	ScoreType   string
	Score       int64
	Care        int64
	Total       int64
	CombatPower string
	Reported    string
	Error       string
}

// Ability-stone levels and activation levels covered by the engraving grid.
const (
	StoneLevels  = 5
	ActiveLevels = 5
	firstActive  = 9
)

// EngravingGrid is the percent contribution of one engraving across
// ability-stone level (columns) and activation level 9..13 (rows).
type EngravingGrid struct {
	Title     string
	Engraving string
	Cells     [ActiveLevels][StoneLevels]string
}

var gridReports = []struct {
	scoreType battlepoint.ScoreType
	factor    string
	title     string
}{
	{battlepoint.ScoreAttack, battlepoint.FactorAbilityAttack, "딜러 전투력"},
	{battlepoint.ScoreDefense, battlepoint.FactorAbilityAttack, "서폿 버프 전투력"},
	{battlepoint.ScoreDefense, battlepoint.FactorAbilityDefense, "서폿 케어 전투력"},
}

// EngravingGrids builds every grid the table supports. Sections or factors
// the table lacks are skipped; missing cells stay empty.
func EngravingGrids(t *battlepoint.Table) []EngravingGrid {
	var grids []EngravingGrid
	for _, r := range gridReports {
		c, ok := t.Section(r.scoreType)
		if !ok {
			continue
		}
		for _, name := range c.Keys(r.factor) {
			g := EngravingGrid{Title: name + " - " + r.title, Engraving: name}
			for a := 0; a < ActiveLevels; a++ {
				for s := 0; s < StoneLevels; s++ {
					key := strconv.Itoa(s*20 + firstActive + a)
					if v, ok := c.Lookup2(r.factor, name, key); ok {
						g.Cells[a][s] = formatPercent(v)
					}
				}
			}
			grids = append(grids, g)
		}
	}
	return grids
}

// formatPercent renders a coefficient in hundredths of a percent.
func formatPercent(v int64) string {
	return strconv.FormatFloat(float64(v)/100, 'f', 2, 64) + "%"
}

// ActiveLabel is the row label for activation row a: the number of awakened
// cards that level stands for.
func ActiveLabel(a int) string {
	return fmt.Sprintf("유각 %d장", a*5)
}

var resultHeader = []string{"File", "Name", "Class", "Type", "Score", "Care", "Total", "Combat Power", "Reported", "Error"}

// ExportResults writes a batch to a single-sheet workbook at path.
func ExportResults(path string, rows []ResultRow) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Results"
	_ = f.SetSheetName("Sheet1", sheet)

	for i, h := range resultHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "J1", headerStyle); err != nil {
		return err
	}

	for i, r := range rows {
		row := i + 2
		values := []any{r.File, r.Name, r.Class, r.ScoreType, r.Score, r.Care, r.Total, r.CombatPower, r.Reported, r.Error}
		if r.Error != "" {
			values = []any{r.File, r.Name, r.Class, r.ScoreType, nil, nil, nil, nil, r.Reported, r.Error}
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "I", 14); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "J", "J", 60); err != nil {
		return err
	}
	return save(f, path)
}

// ExportEngravings writes one block per grid, separated by a blank row.
func ExportEngravings(path string, grids []EngravingGrid) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Engravings"
	_ = f.SetSheetName("Sheet1", sheet)

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	centered, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Horizontal: "center"}})
	if err != nil {
		return err
	}

	row := 1
	for gi, g := range grids {
		if gi > 0 {
			row++
		}
		title := fmt.Sprintf("A%d", row)
		f.SetCellValue(sheet, title, g.Title)
		_ = f.MergeCell(sheet, title, fmt.Sprintf("F%d", row))
		_ = f.SetCellStyle(sheet, title, fmt.Sprintf("F%d", row), titleStyle)
		row++

		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "어빌스톤 레벨")
		for s := 0; s < StoneLevels; s++ {
			cell, _ := excelize.CoordinatesToCellName(s+2, row)
			f.SetCellValue(sheet, cell, s)
		}
		_ = f.SetCellStyle(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("F%d", row), centered)
		row++

		for a := 0; a < ActiveLevels; a++ {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), ActiveLabel(a))
			for s := 0; s < StoneLevels; s++ {
				cell, _ := excelize.CoordinatesToCellName(s+2, row)
				f.SetCellValue(sheet, cell, g.Cells[a][s])
			}
			row++
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "F", 10); err != nil {
		return err
	}
	return save(f, path)
}

func save(f *excelize.File, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
