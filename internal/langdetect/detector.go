// Package langdetect identifies the language of catalog source texts.
//
// Detection runs as a cascade: a lexical heuristic tuned for ERP vocabulary,
// a trigram classifier restricted to a closed candidate set, an optional
// external provider, and an unrestricted classifier pass for longer texts.
// Each stage only runs when the previous one failed to clear the confidence
// threshold, so the cheap stages absorb almost all real catalog traffic.
package langdetect

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/sync/singleflight"

	"github.com/pofactory/po-translator/pkg/log"
)

const (
	// DefaultThreshold is the minimum confidence a stage must reach for
	// its verdict to be accepted.
	DefaultThreshold = 0.7

	// DefaultCacheSize bounds the classifier and provider memo caches.
	DefaultCacheSize = 256

	heuristicConfidence = 0.95
	frenchReclassFloor  = 0.82
	englishReclassFloor = 0.80

	// fallbackMinWords gates the unrestricted classifier pass; below this
	// the trigram statistics are too thin to beat the restricted pass.
	fallbackMinWords = 3
)

// Verdict is a detection result. A zero Verdict means no language could be
// named at all.
type Verdict struct {
	Code       string
	Confidence float64
}

// Provider is an optional external language-identification service consulted
// when the local stages are unsure.
type Provider interface {
	// Available reports whether the provider can currently be queried.
	Available() bool
	// Detect identifies the language of text.
	Detect(ctx context.Context, text string) (Verdict, error)
	// OnFailure is invoked once, with the triggering error, when the
	// provider is dropped from the cascade for the rest of the process.
	OnFailure(err error)
}

// Detector runs the detection cascade. It is safe for concurrent use.
type Detector struct {
	threshold    float64
	provider     Provider
	providerDown atomic.Bool
	classifyMemo *verdictCache
	providerMemo *verdictCache
	flight       singleflight.Group
}

// Option adjusts detector construction.
type Option func(*Detector)

// WithThreshold overrides the confidence threshold.
func WithThreshold(v float64) Option {
	return func(d *Detector) {
		if v > 0 {
			d.threshold = v
		}
	}
}

// WithProvider installs an external detection provider as the third stage.
func WithProvider(p Provider) Option {
	return func(d *Detector) { d.provider = p }
}

// WithCacheSize overrides the memo cache bound.
func WithCacheSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.classifyMemo = newVerdictCache(n)
			d.providerMemo = newVerdictCache(n)
		}
	}
}

// New builds a Detector with the default threshold and cache size.
func New(opts ...Option) *Detector {
	d := &Detector{
		threshold:    DefaultThreshold,
		classifyMemo: newVerdictCache(DefaultCacheSize),
		providerMemo: newVerdictCache(DefaultCacheSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect names the language of text. Empty or whitespace-only input yields
// a zero Verdict immediately. When no stage clears the threshold the best
// available guess is returned with its own confidence, heuristic first,
// classifier second, provider last.
func (d *Detector) Detect(ctx context.Context, text string) Verdict {
	if strings.TrimSpace(text) == "" {
		return Verdict{}
	}

	heur := d.Heuristic(text)
	if heur.Code != "" && heur.Confidence >= d.threshold {
		return heur
	}

	cls := d.classify(text)
	if cls.Code != "" && cls.Confidence >= d.threshold {
		return cls
	}

	prov := d.providerDetect(ctx, text)
	if prov.Code != "" && prov.Confidence >= d.threshold {
		return prov
	}

	if len(strings.Fields(text)) >= fallbackMinWords {
		if fb := d.fallback(text); fb.Code != "" {
			return fb
		}
	}

	switch {
	case heur.Code != "":
		return heur
	case cls.Code != "":
		return cls
	default:
		return prov
	}
}

// DetectCode is the simplified entry point: it returns the detected code and
// whether the verdict cleared the confidence threshold.
func (d *Detector) DetectCode(ctx context.Context, text string) (string, bool) {
	v := d.Detect(ctx, text)
	return v.Code, v.Code != "" && v.Confidence >= d.threshold
}

// Heuristic runs only the lexical indicator stage. It is cheap enough for
// per-entry pre-checks; a zero Verdict means neither vocabulary won.
func (d *Detector) Heuristic(text string) Verdict {
	fr, en := indicatorCounts(text)
	switch {
	case fr > en && fr >= 1:
		return Verdict{Code: "fr", Confidence: heuristicConfidence}
	case en > fr && en >= 1:
		return Verdict{Code: "en", Confidence: heuristicConfidence}
	default:
		return Verdict{}
	}
}

// Reset re-arms a tripped provider and drops all memoized verdicts.
func (d *Detector) Reset() {
	d.providerDown.Store(false)
	d.classifyMemo.purge()
	d.providerMemo.purge()
}

// classify runs the whitelist-restricted trigram classifier, reclassifies
// known confusions, and memoizes the result by input text.
func (d *Detector) classify(text string) Verdict {
	if v, ok := d.classifyMemo.get(text); ok {
		return v
	}
	info := whatlanggo.DetectWithOptions(text, whatlanggo.Options{Whitelist: candidateList})
	v := d.reclassify(verdictFromInfo(info), text)
	d.classifyMemo.add(text, v)
	return v
}

// fallback runs the unrestricted classifier for longer texts. The same
// confusion rules apply; the verdict keeps the classifier's own confidence.
func (d *Detector) fallback(text string) Verdict {
	info := whatlanggo.Detect(text)
	return d.reclassify(verdictFromInfo(info), text)
}

// reclassify corrects the two systematic confusions seen in ERP catalogs:
// Romance languages outside the primary set being picked over French, and
// Scandinavian languages being picked over English.
func (d *Detector) reclassify(v Verdict, text string) Verdict {
	if v.Code == "" {
		return v
	}
	fr, en := indicatorCounts(text)
	switch v.Code {
	case "ca", "ro", "gl":
		if fr >= 3 {
			conf := max(v.Confidence, frenchReclassFloor)
			log.Debug("langdetect: reclassified %s as fr (%d French indicators)", v.Code, fr)
			return Verdict{Code: "fr", Confidence: conf}
		}
	case "da", "sv", "nb":
		if en >= 1 {
			conf := max(v.Confidence, englishReclassFloor)
			log.Debug("langdetect: reclassified %s as en (%d English indicators)", v.Code, en)
			return Verdict{Code: "en", Confidence: conf}
		}
	}
	return v
}

// providerDetect consults the external provider, if any. Concurrent calls
// for the same text are collapsed, successful verdicts are memoized, and
// the first failure takes the provider out of the cascade until Reset.
func (d *Detector) providerDetect(ctx context.Context, text string) Verdict {
	if d.provider == nil || d.providerDown.Load() || !d.provider.Available() {
		return Verdict{}
	}
	if v, ok := d.providerMemo.get(text); ok {
		return v
	}

	res, err, _ := d.flight.Do(text, func() (any, error) {
		return d.provider.Detect(ctx, text)
	})
	if err != nil {
		if d.providerDown.CompareAndSwap(false, true) {
			log.Warn("langdetect: provider failed, disabling for this run: %v", err)
			d.provider.OnFailure(err)
		}
		return Verdict{}
	}

	v := res.(Verdict)
	v.Code = normalizeCode(v.Code)
	if v.Code != "" {
		d.providerMemo.add(text, v)
	}
	return v
}

func verdictFromInfo(info whatlanggo.Info) Verdict {
	if info.Lang < 0 {
		return Verdict{}
	}
	code := normalizeCode(info.Lang.Iso6391())
	if code == "" {
		return Verdict{}
	}
	return Verdict{Code: code, Confidence: info.Confidence}
}
