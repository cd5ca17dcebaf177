// Package output writes batch results, engraving reports and fetched
// snapshots to disk.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/pretty"
)

// WriteSnapshot stores a fetched document as dir/character_<name>.json,
// indented with two spaces.
func WriteSnapshot(dir, name string, body []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "character_"+sanitizeFilenamePart(name)+".json")
	opts := &pretty.Options{Width: 80, Indent: "  "}
	if err := os.WriteFile(path, pretty.PrettyOptions(body, opts), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func sanitizeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "_"
	}
	repl := strings.NewReplacer(
		"<", "_",
		">", "_",
		":", "_",
		"\"", "_",
		"/", "_",
		"\\", "_",
		"|", "_",
		"?", "_",
		"*", "_",
		" ", "_",
	)
	s = repl.Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}
