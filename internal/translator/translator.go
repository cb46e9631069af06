// Package translator coordinates translation of merged catalog entries
// across three tiers: the persistent cache, the offline glossary engine,
// and an online chat-completion model. Language detection decides each
// entry's direction before any tier runs.
package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pofactory/po-translator/internal/cache"
	"github.com/pofactory/po-translator/internal/langdetect"
	"github.com/pofactory/po-translator/internal/llm"
	"github.com/pofactory/po-translator/internal/merge"
	"github.com/pofactory/po-translator/internal/offline"
	"github.com/pofactory/po-translator/pkg/log"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultWorkers      = 4
	DefaultMaxRetries   = 2
	DefaultRateInterval = 100 * time.Millisecond
	DefaultRetryBackoff = 500 * time.Millisecond

	defaultContextLabel = "ERP catalog"
)

// errInvalidReply marks a model reply that never passed validation.
var errInvalidReply = errors.New("no valid translation in model reply")

// OnlineClient is the remote translation backend. *llm.Client satisfies
// it; tests substitute fakes.
type OnlineClient interface {
	SimpleChat(ctx context.Context, prompt string, systemPrompt string) (string, error)
}

// Config carries the orchestration settings. Zero values fall back to
// the defaults above; negative Workers, MaxRetries, RateInterval, and
// RetryBackoff mean "none" rather than "default".
type Config struct {
	SourceLang string // assumed source language, default "en"
	TargetLang string // translation target, default "fr"
	AutoDetect bool   // detect the source language per entry
	Offline    bool   // glossary-only mode, no remote calls

	Workers      int           // batch worker count
	MaxRetries   int           // online retries after the first attempt
	RateInterval time.Duration // minimum spacing between remote calls
	RetryBackoff time.Duration // pause before each online retry
	Context      string        // fallback context label for prompts and cache keys
}

func (c Config) withDefaults() Config {
	c.SourceLang = strings.ToLower(strings.TrimSpace(c.SourceLang))
	c.TargetLang = strings.ToLower(strings.TrimSpace(c.TargetLang))
	if c.SourceLang == "" {
		c.SourceLang = "en"
	}
	if c.TargetLang == "" {
		c.TargetLang = "fr"
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	switch {
	case c.MaxRetries == 0:
		c.MaxRetries = DefaultMaxRetries
	case c.MaxRetries < 0:
		c.MaxRetries = 0
	}
	switch {
	case c.RateInterval == 0:
		c.RateInterval = DefaultRateInterval
	case c.RateInterval < 0:
		c.RateInterval = 0
	}
	switch {
	case c.RetryBackoff == 0:
		c.RetryBackoff = DefaultRetryBackoff
	case c.RetryBackoff < 0:
		c.RetryBackoff = 0
	}
	return c
}

// Deps are the collaborating components. A nil Detector and a nil
// Offline engine are replaced with defaults; a nil Cache disables
// caching; a nil Client makes online requests fall back to the
// glossary engine.
type Deps struct {
	Detector *langdetect.Detector
	Offline  *offline.Engine
	Cache    *cache.Cache
	Client   OnlineClient
}

// Orchestrator resolves single texts and whole entry batches through
// the cache, offline, and online tiers. Safe for concurrent use.
type Orchestrator struct {
	mu   sync.RWMutex // guards cfg after New
	cfg  Config
	deps Deps

	gate        *rateGate
	stats       counters
	warnedPairs sync.Map // glossary pairs already logged as uncovered
}

// New builds an Orchestrator.
func New(cfg Config, deps Deps) *Orchestrator {
	cfg = cfg.withDefaults()
	if deps.Detector == nil {
		deps.Detector = langdetect.New()
	}
	if deps.Offline == nil {
		deps.Offline = offline.NewEngine()
	}
	return &Orchestrator{
		cfg:  cfg,
		deps: deps,
		gate: newRateGate(cfg.RateInterval),
	}
}

func (o *Orchestrator) snapshot() Config {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.cfg
}

// ConfigureLanguages switches the translation direction at runtime.
// Empty strings leave the corresponding language unchanged. Unsupported
// codes are rejected with a warning and nothing changes.
func (o *Orchestrator) ConfigureLanguages(source, target string, autoDetect bool) bool {
	src := strings.ToLower(strings.TrimSpace(source))
	dst := strings.ToLower(strings.TrimSpace(target))
	if src != "" && !langdetect.IsSupported(src) {
		log.Warn("translator: unsupported source language %q", source)
		return false
	}
	if dst != "" && !langdetect.IsSupported(dst) {
		log.Warn("translator: unsupported target language %q", target)
		return false
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if src != "" {
		o.cfg.SourceLang = src
	}
	if dst != "" {
		o.cfg.TargetLang = dst
	}
	o.cfg.AutoDetect = autoDetect
	log.Info("translator: direction set to %s → %s (auto-detect %v)",
		o.cfg.SourceLang, o.cfg.TargetLang, autoDetect)
	return true
}

// Translate resolves one text through the tiers. It always returns
// usable text: on degradation the original comes back together with a
// non-nil error describing why.
func (o *Orchestrator) Translate(ctx context.Context, text, from, to, label string) (string, error) {
	if text == "" {
		return text, nil
	}
	cfg := o.snapshot()
	if from == "" {
		from = cfg.SourceLang
	}
	if to == "" {
		to = cfg.TargetLang
	}
	if label == "" {
		label = contextLabel("", cfg.Context)
	}
	o.stats.total.Add(1)

	cacheCtx := from + "→" + to + "|" + label
	if o.deps.Cache != nil {
		if hit, ok := o.deps.Cache.Get(text, cacheCtx); ok {
			o.stats.cacheHits.Add(1)
			log.Debug("translator: cache hit for %q", snippet(text))
			return hit, nil
		}
	}

	if cfg.Offline || o.deps.Client == nil {
		return o.translateOffline(text, from, to, cacheCtx), nil
	}
	return o.translateOnline(ctx, cfg, text, from, to, label, cacheCtx)
}

// translateOffline never fails: texts the glossary cannot handle pass
// through unchanged. Uncovered pairs are logged once per run.
func (o *Orchestrator) translateOffline(text, from, to, cacheCtx string) string {
	o.stats.offlineRequests.Add(1)
	translation, ok := o.deps.Offline.Translate(text, from, to)
	if !ok {
		pair := from + "→" + to
		if _, seen := o.warnedPairs.LoadOrStore(pair, struct{}{}); !seen {
			log.Warn("translator: no offline glossary for %s, leaving texts unchanged", pair)
		}
		// Cached as-is so the unsupported pair costs one engine miss, not one per call.
		translation = text
	}
	if translation == "" {
		translation = text
	}
	if o.deps.Cache != nil {
		o.deps.Cache.Set(text, translation, cacheCtx)
	}
	return translation
}

func (o *Orchestrator) translateOnline(ctx context.Context, cfg Config, text, from, to, label, cacheCtx string) (string, error) {
	prompt := buildPrompt(from, to, label, text)
	system := buildSystemPrompt(from, to)

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, cfg.RetryBackoff); err != nil {
				return text, err
			}
		}
		if err := o.gate.wait(ctx); err != nil {
			return text, err
		}

		o.stats.apiCalls.Add(1)
		reply, err := o.deps.Client.SimpleChat(ctx, prompt, system)
		if err != nil {
			if ctx.Err() != nil {
				return text, ctx.Err()
			}
			o.stats.errors.Add(1)
			lastErr = err
			log.Error("translator: attempt %d/%d failed for %q: %v",
				attempt+1, cfg.MaxRetries+1, snippet(text), err)
			continue
		}

		translation := cleanReply(reply)
		if validTranslation(text, translation) {
			if o.deps.Cache != nil {
				o.deps.Cache.Set(text, translation, cacheCtx)
			}
			log.Debug("translator: %q -> %q", snippet(text), snippet(translation))
			return translation, nil
		}
		lastErr = errInvalidReply
		if attempt < cfg.MaxRetries {
			o.stats.retries.Add(1)
			log.Warn("translator: reply failed validation for %q, retrying", snippet(text))
		}
	}

	if errors.Is(lastErr, errInvalidReply) {
		o.stats.errors.Add(1)
	}
	log.Error("translator: giving up on %q after %d attempts: %v",
		snippet(text), cfg.MaxRetries+1, lastErr)
	return text, fmt.Errorf("translate %q: %w", snippet(text), lastErr)
}

type entryOutcome int

const (
	outcomeSkipped entryOutcome = iota
	outcomeTranslated
	outcomeFailed
)

// TranslateEntry runs the skip ladder and, when the entry qualifies,
// translates it in place. It reports whether the entry changed. The
// module name wins over entry.Module as the context label; force
// retranslates entries the ladder would otherwise skip.
func (o *Orchestrator) TranslateEntry(ctx context.Context, entry *merge.Entry, module string, force bool) bool {
	return o.translateEntry(ctx, entry, module, force) == outcomeTranslated
}

func (o *Orchestrator) translateEntry(ctx context.Context, entry *merge.Entry, module string, force bool) entryOutcome {
	if entry == nil || ctx.Err() != nil {
		return outcomeSkipped
	}
	text := strings.TrimSpace(entry.Source)
	if text == "" {
		return outcomeSkipped
	}
	cfg := o.snapshot()
	if !force && entry.Translation != "" && entry.Translation != entry.Source {
		return outcomeSkipped
	}
	if !force {
		if h := o.deps.Detector.Heuristic(text); h.Code == cfg.TargetLang {
			log.Debug("translator: already %s: %q", cfg.TargetLang, snippet(text))
			return outcomeSkipped
		}
	}

	from := cfg.SourceLang
	if cfg.AutoDetect {
		if v := o.deps.Detector.Detect(ctx, text); v.Code != "" {
			switch {
			case v.Code == cfg.TargetLang && !force:
				log.Debug("translator: detected %s, already in target language: %q", v.Code, snippet(text))
				return outcomeSkipped
			case v.Code == cfg.TargetLang:
				log.Warn("translator: detected %s but retranslating on force: %q", v.Code, snippet(text))
			case v.Code != cfg.SourceLang:
				log.Info("translator: detected %s, translating %s → %s: %q",
					v.Code, v.Code, cfg.TargetLang, snippet(text))
				from = v.Code
			}
		}
	}

	if module == "" {
		module = entry.Module
	}
	translation, err := o.Translate(ctx, text, from, cfg.TargetLang, contextLabel(module, cfg.Context))
	if err != nil {
		if ctx.Err() != nil {
			return outcomeSkipped
		}
		return outcomeFailed
	}
	if translation == "" || translation == text {
		return outcomeSkipped
	}
	if ctx.Err() != nil {
		return outcomeSkipped
	}
	entry.Translation = translation
	return outcomeTranslated
}

// ClearCache drops every cached translation, in memory and on disk.
func (o *Orchestrator) ClearCache() error {
	if o.deps.Cache == nil {
		return nil
	}
	return o.deps.Cache.Clear()
}

// Stats returns a snapshot of the run counters.
func (o *Orchestrator) Stats() Stats { return o.stats.snapshot() }

// ResetStats zeroes the run counters.
func (o *Orchestrator) ResetStats() { o.stats.reset() }

// contextLabel picks the cache/prompt context for an entry.
func contextLabel(module, fallback string) string {
	if module != "" {
		return "module: " + module
	}
	if fallback != "" {
		return fallback
	}
	return defaultContextLabel
}

// cleanReply extracts the translated text from a model reply. Replies
// honoring the output contract carry {"translation": "..."}; anything
// else falls back to the first line with surrounding quotes stripped.
func cleanReply(reply string) string {
	if t, ok := llm.ExtractTranslation(reply); ok {
		return strings.TrimSpace(t)
	}
	s := strings.TrimSpace(reply)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return strings.Trim(s, `"'`)
}

// validTranslation rejects empty replies and replies that corrupt
// placeholders.
func validTranslation(source, translation string) bool {
	if strings.TrimSpace(translation) == "" {
		return false
	}
	if !samePlaceholders(source, translation) {
		log.Warn("translator: placeholder mismatch: %q vs %q", snippet(source), snippet(translation))
		return false
	}
	return true
}

// samePlaceholders compares the placeholder sets of two strings,
// ignoring order and repetition.
func samePlaceholders(a, b string) bool {
	want := placeholderSet(a)
	got := placeholderSet(b)
	if len(want) != len(got) {
		return false
	}
	for p := range want {
		if _, ok := got[p]; !ok {
			return false
		}
	}
	return true
}

func placeholderSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, p := range offline.Placeholders(s) {
		set[p] = struct{}{}
	}
	return set
}

// snippet shortens text for log lines.
func snippet(s string) string {
	r := []rune(s)
	if len(r) <= 40 {
		return s
	}
	return string(r[:40]) + "..."
}
