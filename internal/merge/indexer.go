package merge

import (
	"regexp"
	"sort"
)

// UnknownModule is assigned to entries whose catalog path does not
// follow the addons/modules layout convention.
const UnknownModule = "unknown"

// modulePattern matches .../{addons|modules}/<name>/i18n/... with either
// path separator.
var modulePattern = regexp.MustCompile(`(?:addons|modules)[/\\]([^/\\]+)[/\\]i18n`)

// ModuleFromPath derives the originating module name from a catalog
// path, or UnknownModule when the path does not follow the convention.
func ModuleFromPath(path string) string {
	if m := modulePattern.FindStringSubmatch(path); m != nil {
		return m[1]
	}
	return UnknownModule
}

// Index is the bidirectional mapping between entry keys (source texts)
// and module names. Every indexed key has exactly one module; adding a
// key again under a different module moves it (last writer wins).
type Index struct {
	byKey    map[string]string
	byModule map[string]map[string]struct{}
}

// NewIndex creates an empty module index.
func NewIndex() *Index {
	return &Index{
		byKey:    make(map[string]string),
		byModule: make(map[string]map[string]struct{}),
	}
}

// Add associates an entry key with a module, replacing any previous
// association.
func (ix *Index) Add(key, module string) {
	if module == "" {
		module = UnknownModule
	}
	if prev, ok := ix.byKey[key]; ok {
		if prev == module {
			return
		}
		delete(ix.byModule[prev], key)
		if len(ix.byModule[prev]) == 0 {
			delete(ix.byModule, prev)
		}
	}
	ix.byKey[key] = module
	if ix.byModule[module] == nil {
		ix.byModule[module] = make(map[string]struct{})
	}
	ix.byModule[module][key] = struct{}{}
}

// ModuleOf returns the module of a key, or UnknownModule when the key
// was never indexed.
func (ix *Index) ModuleOf(key string) string {
	if module, ok := ix.byKey[key]; ok {
		return module
	}
	return UnknownModule
}

// EntriesOf returns the sorted keys belonging to a module.
func (ix *Index) EntriesOf(module string) []string {
	keys := make([]string, 0, len(ix.byModule[module]))
	for key := range ix.byModule[module] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Modules returns the sorted module names present in the index.
func (ix *Index) Modules() []string {
	modules := make([]string, 0, len(ix.byModule))
	for module := range ix.byModule {
		modules = append(modules, module)
	}
	sort.Strings(modules)
	return modules
}

// Rename moves the module association from one key to another,
// preserving the module. A missing old key is a no-op.
func (ix *Index) Rename(oldKey, newKey string) {
	module, ok := ix.byKey[oldKey]
	if !ok {
		return
	}
	ix.Remove(oldKey)
	ix.Add(newKey, module)
}

// Remove drops a key from the index.
func (ix *Index) Remove(key string) {
	module, ok := ix.byKey[key]
	if !ok {
		return
	}
	delete(ix.byKey, key)
	delete(ix.byModule[module], key)
	if len(ix.byModule[module]) == 0 {
		delete(ix.byModule, module)
	}
}

// Len returns the number of indexed keys.
func (ix *Index) Len() int {
	return len(ix.byKey)
}

// Clear empties the index so a fresh merge pass can rebuild it.
func (ix *Index) Clear() {
	ix.byKey = make(map[string]string)
	ix.byModule = make(map[string]map[string]struct{})
}
