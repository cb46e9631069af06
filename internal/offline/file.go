package offline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	"github.com/pofactory/po-translator/pkg/log"
)

// Glossary files are flat JSON maps from source term to target term, named
// glossary.<src>-<dst>.json. Keys containing a space become phrase rules,
// single tokens become word rules.

// Filename returns the glossary filename for a direction, using 2-letter
// base codes.
func Filename(source, target string) string {
	return "glossary." + baseCode(source) + "-" + baseCode(target) + ".json"
}

// FilePath returns the full glossary path inside dir.
func FilePath(dir, source, target string) string {
	return filepath.Join(dir, Filename(source, target))
}

// FindInAncestors walks up from startDir looking for a glossary file for
// the given direction. Returns the first hit or the empty string.
func FindInAncestors(startDir, source, target string) string {
	name := Filename(source, target)
	dir := startDir
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadFile reads one glossary file.
func LoadFile(path string) (Glossary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Glossary{}, err
	}

	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err != nil {
		return Glossary{}, fmt.Errorf("parse glossary %s: %w", path, err)
	}

	g := Glossary{Phrases: map[string]string{}, Words: map[string]string{}}
	for k, v := range flat {
		if strings.ContainsRune(strings.TrimSpace(k), ' ') {
			g.Phrases[k] = v
		} else {
			g.Words[k] = v
		}
	}
	return g, nil
}

// LoadDir registers every glossary.<src>-<dst>.json found directly in dir
// and returns how many files were loaded. Files that fail to parse are
// skipped with a warning.
func (e *Engine) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		source, target, ok := pairFromFilename(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		g, err := LoadFile(path)
		if err != nil {
			log.Warn("offline: skipping glossary %s: %v", path, err)
			continue
		}
		e.Add(source, target, g)
		loaded++
	}
	return loaded, nil
}

// pairFromFilename extracts the direction from a glossary filename.
func pairFromFilename(name string) (source, target string, ok bool) {
	if !strings.HasPrefix(name, "glossary.") || !strings.HasSuffix(name, ".json") {
		return "", "", false
	}
	pair := strings.TrimSuffix(strings.TrimPrefix(name, "glossary."), ".json")
	source, target, found := strings.Cut(pair, "-")
	if !found || source == "" || target == "" {
		return "", "", false
	}
	return source, target, true
}

// baseCode parses a language string down to its 2-letter base code.
func baseCode(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return normalizeLang(lang)
	}
	base, _ := tag.Base()
	return base.String()
}
