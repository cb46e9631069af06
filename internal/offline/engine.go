// Package offline is a heuristic glossary translator for catalog entries.
// It substitutes known ERP phrases and words while keeping format
// placeholders byte-identical, so it can run where no model is reachable.
package offline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// placeholderPattern recognises every interpolation style that shows up in
// catalog texts. The double-brace alternative sits before the single-brace
// one so "{{name}}" is stashed whole.
var placeholderPattern = regexp.MustCompile(`%\([^)]+\)s|%s|\{\{[^}]+\}\}|\$\{[^}]+\}|\{[^}]+\}`)

// wordPattern matches maximal runs of Latin letters, so substitutions only
// ever replace whole tokens.
var wordPattern = regexp.MustCompile(`[A-Za-zÀ-ÖØ-öø-ÿ']+`)

// interiorSpace matches whitespace runs that carry no newline.
var interiorSpace = regexp.MustCompile(`[^\S\n]+`)

// Placeholders returns the interpolation tokens of text in order of
// appearance. Shared with the orchestrator's response validation.
func Placeholders(text string) []string {
	return placeholderPattern.FindAllString(text, -1)
}

// Engine translates texts between language pairs it has a glossary for.
// Safe for concurrent use.
type Engine struct {
	mu         sync.RWMutex
	glossaries map[pairKey]*compiledGlossary
}

// NewEngine builds an Engine preloaded with the built-in ERP glossaries.
func NewEngine() *Engine {
	e := &Engine{glossaries: make(map[pairKey]*compiledGlossary, len(builtinGlossaries))}
	for pair, g := range builtinGlossaries {
		e.glossaries[pair] = compile(g)
	}
	return e
}

// Add registers a glossary for a direction, merging over any existing rules
// for the same pair. Later additions win on key collisions.
func (e *Engine) Add(source, target string, g Glossary) {
	pair := pairKey{normalizeLang(source), normalizeLang(target)}

	e.mu.Lock()
	defer e.mu.Unlock()
	existing, ok := e.glossaries[pair]
	if !ok {
		e.glossaries[pair] = compile(g)
		return
	}
	merged := Glossary{
		Phrases: make(map[string]string, len(existing.source.Phrases)+len(g.Phrases)),
		Words:   make(map[string]string, len(existing.source.Words)+len(g.Words)),
	}
	for k, v := range existing.source.Phrases {
		merged.Phrases[k] = v
	}
	for k, v := range existing.source.Words {
		merged.Words[k] = v
	}
	for k, v := range g.Phrases {
		merged.Phrases[normalizeToken(k)] = v
	}
	for k, v := range g.Words {
		merged.Words[normalizeToken(k)] = v
	}
	e.glossaries[pair] = compile(merged)
}

// Supports reports whether a direction has a glossary.
func (e *Engine) Supports(source, target string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.glossaries[pairKey{normalizeLang(source), normalizeLang(target)}]
	return ok
}

// Pairs lists the supported directions as "src→dst", sorted.
func (e *Engine) Pairs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.glossaries))
	for pair := range e.glossaries {
		out = append(out, pair.String())
	}
	sort.Strings(out)
	return out
}

// Translate rewrites text from source to target using the pair's glossary.
// ok is false when the pair has no glossary; empty input comes back
// unchanged. Placeholders survive byte-identical, original casing is
// mirrored onto substitutions, and interior whitespace runs collapse to a
// single space while newlines stay put.
func (e *Engine) Translate(text, source, target string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return text, true
	}

	e.mu.RLock()
	rules, ok := e.glossaries[pairKey{normalizeLang(source), normalizeLang(target)}]
	e.mu.RUnlock()
	if !ok {
		return "", false
	}

	working, stash := stashPlaceholders(text)

	for _, rule := range rules.phrases {
		working = applyPhrase(working, rule)
	}

	working = wordPattern.ReplaceAllStringFunc(working, func(token string) string {
		replacement, ok := rules.words[normalizeToken(token)]
		if !ok {
			return token
		}
		return matchCase(token, replacement)
	})

	working = interiorSpace.ReplaceAllString(working, " ")
	working = strings.TrimSpace(working)

	for i, original := range stash {
		working = strings.Replace(working, marker(i), original, 1)
	}
	return working, true
}

// stashPlaceholders swaps every placeholder for an opaque marker and
// returns the markers' original values in order.
func stashPlaceholders(text string) (string, []string) {
	var stash []string
	out := placeholderPattern.ReplaceAllStringFunc(text, func(ph string) string {
		stash = append(stash, ph)
		return marker(len(stash) - 1)
	})
	return out, stash
}

func marker(i int) string { return fmt.Sprintf("__PH_%d__", i) }

// applyPhrase substitutes one phrase rule everywhere it matches on whole
// word boundaries, mirroring the casing of each occurrence.
func applyPhrase(text string, rule phraseRule) string {
	locs := rule.re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, loc := range locs {
		if loc[0] < last || !letterBoundary(text, loc[0], loc[1]) {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(matchCase(text[loc[0]:loc[1]], rule.replacement))
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// letterBoundary reports whether text[start:end] is flanked by non-letters,
// so phrase rules never rewrite the inside of a longer word.
func letterBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// matchCase shapes replacement after the casing of source: all-caps stays
// all-caps, title case stays title case, a bare leading capital carries
// over, anything else takes the replacement as written.
func matchCase(source, replacement string) string {
	if source == "" || replacement == "" {
		return replacement
	}
	switch {
	case isUpper(source):
		return strings.ToUpper(replacement)
	case isLower(source):
		return strings.ToLower(replacement)
	case isTitle(source):
		return cases.Title(language.Und).String(replacement)
	case firstRuneUpper(source):
		return upperFirst(replacement)
	default:
		return replacement
	}
}

func isUpper(s string) bool {
	return s == strings.ToUpper(s) && s != strings.ToLower(s)
}

func isLower(s string) bool {
	return s == strings.ToLower(s) && s != strings.ToUpper(s)
}

// isTitle reports whether every word of s starts with an uppercase letter
// followed only by lowercase ones.
func isTitle(s string) bool {
	hasCased := false
	prevLetter := false
	for _, r := range s {
		if !unicode.IsLetter(r) {
			prevLetter = false
			continue
		}
		switch {
		case unicode.IsUpper(r):
			if prevLetter {
				return false
			}
			hasCased = true
		case unicode.IsLower(r):
			if !prevLetter {
				return false
			}
			hasCased = true
		}
		prevLetter = true
	}
	return hasCased
}

func firstRuneUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func normalizeToken(s string) string { return strings.ToLower(s) }

// normalizeLang lowercases a language code and drops any region subtag.
func normalizeLang(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	return code
}
