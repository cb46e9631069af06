// Package merge consolidates entries from many PO catalogs into one
// canonical, module-indexed entry set.
package merge

import (
	"sort"
	"strings"

	"github.com/pofactory/po-translator/internal/catalog"
	"github.com/pofactory/po-translator/pkg/log"
)

// EntryID is a stable opaque handle for a merged entry. IDs are
// assigned at ingest and never reused within a Result.
type EntryID uint64

// Entry is one canonical source/translation pair plus the metadata
// merged from every catalog that contributed it.
type Entry struct {
	ID          EntryID
	Source      string
	Translation string
	Obsolete    bool
	Module      string

	// Plural passthrough: dedup policy only considers Translation,
	// but plural forms survive the merge untouched.
	Plural             string
	PluralTranslations map[int]string

	Comments   []string
	References []string
	Flags      []string
}

// IsTranslated reports whether the entry carries any translation.
func (e *Entry) IsTranslated() bool {
	if e.Plural != "" {
		for _, v := range e.PluralTranslations {
			if v != "" {
				return true
			}
		}
		return false
	}
	return e.Translation != ""
}

// Stats are counters for one merge pass.
type Stats struct {
	Files      int
	Parsed     int
	Skipped    int
	Entries    int
	Duplicates int
	Conflicts  int
	Dropped    int
}

// Merger loads and consolidates catalogs.
type Merger struct {
	includeObsolete bool
	project         string
}

// Option configures a Merger.
type Option func(*Merger)

// WithObsolete keeps obsolete entries instead of excluding them before
// the merge.
func WithObsolete(include bool) Option {
	return func(m *Merger) { m.includeObsolete = include }
}

// WithProject sets the Project-Id-Version used in exported headers.
func WithProject(name string) Option {
	return func(m *Merger) { m.project = name }
}

// NewMerger creates a Merger.
func NewMerger(opts ...Option) *Merger {
	m := &Merger{project: "merged catalog"}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge loads each catalog, cleans and deduplicates its entries and
// returns the canonical set. A catalog that fails to parse is skipped
// with a logged error; per-file failures are never fatal to the pass.
func (m *Merger) Merge(paths []string) *Result {
	result := newResult(m.project)

	for _, path := range paths {
		result.stats.Files++
		file, err := catalog.ParseFile(path)
		if err != nil {
			log.Error("Skipping catalog %s: %v", path, err)
			result.stats.Skipped++
			continue
		}
		result.stats.Parsed++

		module := ModuleFromPath(path)
		for _, entry := range file.Entries {
			if entry.Obsolete && !m.includeObsolete {
				continue
			}
			m.ingest(result, entry, module)
		}
	}

	result.stats.Entries = len(result.arena)
	log.Info("Merged %d catalogs: %d entries, %d duplicates, %d conflicts, %d skipped files",
		result.stats.Parsed, result.stats.Entries, result.stats.Duplicates,
		result.stats.Conflicts, result.stats.Skipped)
	return result
}

// ingest cleans one catalog entry and folds it into the result under
// the dedup policy: non-empty translation beats empty, first-seen wins
// when both sides disagree with non-empty translations.
func (m *Merger) ingest(result *Result, src *catalog.Entry, module string) {
	source := strings.TrimSpace(src.MsgID)
	if source == "" {
		result.stats.Dropped++
		return
	}
	translation := strings.TrimSpace(src.MsgStr)

	if id, ok := result.byKey[source]; ok {
		existing := result.arena[id-1]
		result.stats.Duplicates++

		if existing.Translation == "" && translation != "" {
			existing.Translation = translation
		} else if existing.Translation != "" && translation != "" && existing.Translation != translation {
			result.stats.Conflicts++
		}
		existing.References = appendMissing(existing.References, src.References)
		// Module association follows the most recent contributor.
		existing.Module = module
		result.index.Add(source, module)
		return
	}

	entry := &Entry{
		ID:          EntryID(len(result.arena) + 1),
		Source:      source,
		Translation: translation,
		Obsolete:    src.Obsolete,
		Module:      module,
		Plural:      src.MsgIDPlural,
		Comments:    src.TranslatorComments,
		References:  src.References,
		Flags:       src.Flags,
	}
	if len(src.MsgStrPlural) > 0 {
		entry.PluralTranslations = make(map[int]string, len(src.MsgStrPlural))
		for idx, v := range src.MsgStrPlural {
			entry.PluralTranslations[idx] = v
		}
	}

	result.arena = append(result.arena, entry)
	result.byKey[source] = entry.ID
	result.index.Add(source, module)
}

func appendMissing(dst []string, add []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range add {
		if _, ok := seen[v]; !ok {
			dst = append(dst, v)
			seen[v] = struct{}{}
		}
	}
	return dst
}

// Result is the canonical entry set of one merge pass. All entries live
// in a single arena addressed by EntryID; key lookups resolve through
// the handle, never through pointer identity.
type Result struct {
	project string
	arena   []*Entry
	byKey   map[string]EntryID
	index   *Index
	stats   Stats
}

func newResult(project string) *Result {
	return &Result{
		project: project,
		arena:   make([]*Entry, 0),
		byKey:   make(map[string]EntryID),
		index:   NewIndex(),
	}
}

// Get resolves an entry handle. Returns nil for unknown or stale IDs.
func (r *Result) Get(id EntryID) *Entry {
	if id == 0 || int(id) > len(r.arena) {
		return nil
	}
	return r.arena[id-1]
}

// Lookup finds an entry by its source text.
func (r *Result) Lookup(source string) (*Entry, bool) {
	id, ok := r.byKey[source]
	if !ok {
		return nil, false
	}
	return r.arena[id-1], true
}

// Len returns the number of canonical entries.
func (r *Result) Len() int {
	return len(r.arena)
}

// Stats returns the counters of the merge pass that built this result.
func (r *Result) Stats() Stats {
	return r.stats
}

// Index exposes the module index built during the merge.
func (r *Result) Index() *Index {
	return r.index
}

// Entries returns the canonical entries sorted by source text
// ascending, byte-wise, so exports are deterministic across runs.
func (r *Result) Entries() []*Entry {
	entries := make([]*Entry, len(r.arena))
	copy(entries, r.arena)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Source < entries[j].Source
	})
	return entries
}

// EntriesOfModule returns the sorted entries belonging to one module.
func (r *Result) EntriesOfModule(module string) []*Entry {
	keys := r.index.EntriesOf(module)
	entries := make([]*Entry, 0, len(keys))
	for _, key := range keys {
		if e, ok := r.Lookup(key); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// UpdateEntry renames an entry key and/or rewrites its translation.
// The module association survives a rename. Returns false when the
// source key does not exist; callers must check the result.
func (r *Result) UpdateEntry(source string, newSource, newTranslation *string) bool {
	id, ok := r.byKey[source]
	if !ok {
		return false
	}
	entry := r.arena[id-1]

	if newSource != nil && *newSource != entry.Source {
		trimmed := strings.TrimSpace(*newSource)
		if trimmed == "" {
			return false
		}
		if _, taken := r.byKey[trimmed]; taken {
			return false
		}
		delete(r.byKey, entry.Source)
		r.byKey[trimmed] = id
		r.index.Rename(entry.Source, trimmed)
		entry.Source = trimmed
	}
	if newTranslation != nil {
		entry.Translation = *newTranslation
	}
	return true
}

// Export serializes the canonical set into a catalog for the given
// target language.
func (r *Result) Export(language string) *catalog.File {
	file := catalog.NewFile(language)
	file.SetHeaderField("Project-Id-Version", r.project)

	for _, e := range r.Entries() {
		ce := &catalog.Entry{
			TranslatorComments: e.Comments,
			References:         e.References,
			Flags:              e.Flags,
			MsgID:              e.Source,
			MsgIDPlural:        e.Plural,
			MsgStr:             e.Translation,
			Obsolete:           e.Obsolete,
		}
		if len(e.PluralTranslations) > 0 {
			ce.MsgStrPlural = make(map[int]string, len(e.PluralTranslations))
			for idx, v := range e.PluralTranslations {
				ce.MsgStrPlural[idx] = v
			}
		}
		file.AddEntry(ce)
	}
	return file
}

// WritePO exports the canonical set to a PO file on disk.
func (r *Result) WritePO(path, language string) error {
	return r.Export(language).WriteFile(path)
}

// WriteMO exports the canonical set to a compiled MO file on disk.
func (r *Result) WriteMO(path, language string) error {
	return r.Export(language).WriteMOFile(path)
}
