package battlepoint

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"

	"lostark-battlepoint/internal/armory"
)

// ActivationCosts holds the points each ark-passive node costs per level.
// Evolution nodes are shared by every class; the other two branches are
// keyed by class name first.
type ActivationCosts struct {
	Evolution     map[string]int            `json:"진화"`
	Enlightenment map[string]map[string]int `json:"깨달음"`
	Leap          map[string]map[string]int `json:"도약"`
}

func LoadActivationCostsFile(path string) (*ActivationCosts, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	a, err := LoadActivationCosts(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// LoadActivationCosts parses an ArkPassive.json document.
func LoadActivationCosts(data []byte) (*ActivationCosts, error) {
	var a ActivationCosts
	if err := sonic.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("activation cost table: %w", err)
	}
	if a.Evolution == nil {
		return nil, fmt.Errorf("activation cost table: %s section missing", armory.BranchEvolution)
	}
	return &a, nil
}

// Cost returns the per-level cost of a node. class is ignored for evolution.
func (a *ActivationCosts) Cost(b armory.Branch, class, node string) (int, bool) {
	var m map[string]int
	switch b {
	case armory.BranchEvolution:
		m = a.Evolution
	case armory.BranchEnlightenment:
		m = a.Enlightenment[class]
	case armory.BranchLeap:
		m = a.Leap[class]
	}
	v, ok := m[node]
	return v, ok
}
