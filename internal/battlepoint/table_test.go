package battlepoint

import (
	"reflect"
	"strings"
	"testing"

	"lostark-battlepoint/internal/armory"
)

func TestLoadTableShapes(t *testing.T) {
	table := mustTable(t, `{
		"attack": {
			"base_attack_point": 300,
			"level": {"70": 1000, "60": 500},
			"gem": {"4": {"8": 440}, "3": {"7": 300}}
		},
		"unused": {"x": 1}
	}`)
	c, ok := table.Section(ScoreAttack)
	if !ok {
		t.Fatal("attack section missing")
	}
	if v, ok := c.Scalar(FactorBaseAttackPoint); !ok || v != 300 {
		t.Errorf("Scalar = %d, %v", v, ok)
	}
	if v, ok := c.Lookup(FactorLevel, "60"); !ok || v != 500 {
		t.Errorf("Lookup = %d, %v", v, ok)
	}
	if v, ok := c.Lookup2(FactorGem, "3", "7"); !ok || v != 300 {
		t.Errorf("Lookup2 = %d, %v", v, ok)
	}
	if _, ok := c.Lookup2(FactorGem, "3", "8"); ok {
		t.Error("Lookup2 found absent key")
	}
	if _, ok := c.Lookup(FactorGem, "3"); ok {
		t.Error("Lookup on a two-level factor should miss")
	}
	if got, want := c.Keys(FactorLevel), []string{"70", "60"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys(level) = %v, want %v", got, want)
	}
	if got, want := c.Keys(FactorGem), []string{"4", "3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys(gem) = %v, want %v", got, want)
	}
	if _, ok := table.Section(ScoreDefense); ok {
		t.Error("defense section should be absent")
	}
}

func TestLoadTableErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"not json", `{"attack":`, "not a JSON document"},
		{"no attack", `{"defense": {"base_attack_point": 1}}`, "attack section missing"},
		{"no seed", `{"attack": {"level": {"70": 1}}}`, "attack.base_attack_point missing"},
		{"defense no seed", `{"attack": {"base_attack_point": 1}, "defense": {"level": {}}}`, "defense.base_attack_point missing"},
		{"mixed nesting", `{"attack": {"base_attack_point": 1, "gem": {"4": {"8": 1}, "3": 2}}}`, "attack.gem.3: mixed nesting"},
		{"string value", `{"attack": {"base_attack_point": 1, "level": {"70": "x"}}}`, `attack.level.70: want number`},
		{"bad pattern", `{"attack": {"base_attack_point": 1, "bracelet_stattype": {"치명 +(": 1}}}`, "bracelet_stattype: pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTable([]byte(tt.doc))
			if err == nil {
				t.Fatal("LoadTable succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadActivationCosts(t *testing.T) {
	a, err := LoadActivationCosts([]byte(`{
		"진화": {"예리한 감각": 10},
		"깨달음": {"바드": {"세레나데": 24}},
		"도약": {"바드": {"잠재력 해방": 5}}
	}`))
	if err != nil {
		t.Fatalf("LoadActivationCosts: %v", err)
	}
	tests := []struct {
		branch armory.Branch
		class  string
		node   string
		want   int
		ok     bool
	}{
		{armory.BranchEvolution, "버서커", "예리한 감각", 10, true},
		{armory.BranchEvolution, "", "예리한 감각", 10, true},
		{armory.BranchEnlightenment, "바드", "세레나데", 24, true},
		{armory.BranchEnlightenment, "버서커", "세레나데", 0, false},
		{armory.BranchLeap, "바드", "잠재력 해방", 5, true},
		{armory.BranchLeap, "바드", "없음", 0, false},
	}
	for _, tt := range tests {
		got, ok := a.Cost(tt.branch, tt.class, tt.node)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Cost(%s, %s, %s) = %d, %v; want %d, %v", tt.branch, tt.class, tt.node, got, ok, tt.want, tt.ok)
		}
	}

	if _, err := LoadActivationCosts([]byte(`{"깨달음": {}}`)); err == nil {
		t.Error("missing evolution section should fail")
	}
	if _, err := LoadActivationCostsFile(testdata + "missing.json"); err == nil {
		t.Error("missing file should fail")
	}
}

func TestParseScoreType(t *testing.T) {
	for in, want := range map[string]ScoreType{"attack": ScoreAttack, "defense": ScoreDefense} {
		if got, ok := ParseScoreType(in); !ok || got != want {
			t.Errorf("ParseScoreType(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseScoreType("support"); ok {
		t.Error("ParseScoreType accepted an unknown type")
	}
}
