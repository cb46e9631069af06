package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pofactory/po-translator/internal/cache"
	"github.com/pofactory/po-translator/internal/config"
	"github.com/pofactory/po-translator/internal/langdetect"
	"github.com/pofactory/po-translator/internal/llm"
	"github.com/pofactory/po-translator/internal/merge"
	"github.com/pofactory/po-translator/internal/offline"
	"github.com/pofactory/po-translator/internal/translator"
	"github.com/pofactory/po-translator/pkg/file"
	"github.com/pofactory/po-translator/pkg/log"
	"github.com/spf13/cobra"
)

func newTranslateCmd() *cobra.Command {
	var (
		sourceDir    string
		output       string
		sourceLang   string
		targetLang   string
		module       string
		offlineMode  bool
		force        bool
		noAutoDetect bool
		dryRun       bool
		workers      int
		writeMO      bool
		glossaryDir  string
	)

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Merge catalogs and translate the untranslated entries",
		Long: `translate merges every .po catalog under the source tree, runs the missing
entries through the translation pipeline (glossaries offline, an
OpenAI-compatible chat API online) and writes the filled catalog.

Already-translated entries are kept unless --force is given. With
--dry-run nothing is translated; the command only reports how many
entries the pipeline would pick up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(func(c *config.Config) {
				if sourceLang != "" {
					c.Translate.SourceLang = sourceLang
				}
				if targetLang != "" {
					c.Translate.TargetLang = targetLang
				}
				if cmd.Flags().Changed("offline") {
					c.Translate.Offline = offlineMode
				}
				if noAutoDetect {
					c.Translate.AutoDetect = false
				}
				if cmd.Flags().Changed("workers") {
					c.Translate.Workers = workers
				}
				if glossaryDir != "" {
					c.Paths.GlossaryDir = glossaryDir
				}
			})
			if err != nil {
				return err
			}
			return runTranslate(cmd.Context(), cmd.OutOrStdout(), cfg, passArgs{
				sourceDir: sourceDir,
				output:    output,
				module:    module,
				force:     force,
				writeMO:   writeMO,
			}, dryRun)
		},
	}

	cmd.Flags().StringVarP(&sourceDir, "source-dir", "s", ".", "directory tree to scan for .po files")
	cmd.Flags().StringVarP(&output, "output", "o", "merged.po", "path of the translated catalog")
	cmd.Flags().StringVar(&sourceLang, "source-lang", "", "source language code (default from config)")
	cmd.Flags().StringVar(&targetLang, "target-lang", "", "target language code (default from config)")
	cmd.Flags().StringVarP(&module, "module", "m", "", "only translate entries of this module")
	cmd.Flags().BoolVar(&offlineMode, "offline", false, "translate from glossaries only, no API calls")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "retranslate entries that already have a translation")
	cmd.Flags().BoolVar(&noAutoDetect, "no-auto-detect", false, "trust the configured source language, skip detection")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be translated without doing it")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent translation workers (default from config)")
	cmd.Flags().BoolVar(&writeMO, "mo", false, "also compile a binary .mo next to the output")
	cmd.Flags().StringVar(&glossaryDir, "glossary-dir", "", "directory holding glossary.<src>-<dst>.json files")

	return cmd
}

func runTranslate(ctx context.Context, out io.Writer, cfg *config.Config, args passArgs, dryRun bool) error {
	if err := checkLanguages(cfg); err != nil {
		return err
	}
	args.language = cfg.Translate.TargetLang

	if dryRun {
		result, entries, err := mergeTree(args.sourceDir, args.module)
		if err != nil {
			return err
		}
		pending := countPending(entries, args.force)
		fmt.Fprintf(out, "Would translate up to %d of %d entries (%d catalogs) from %s to %s\n",
			pending, result.Len(), result.Stats().Parsed,
			langdetect.LanguageName(cfg.Translate.SourceLang), langdetect.LanguageName(cfg.Translate.TargetLang))
		return nil
	}

	orch, cleanup, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := runPass(ctx, orch, args)
	if err != nil {
		return err
	}
	printSummary(out, res, orch.Stats(), args.output)
	if res.Failed > 0 {
		return fmt.Errorf("%d entries failed to translate", res.Failed)
	}
	return nil
}

// passArgs carries one merge-and-translate sweep's parameters. The watch
// command reuses it for every scheduled run.
type passArgs struct {
	sourceDir string
	output    string
	module    string
	language  string
	force     bool
	writeMO   bool
}

// runPass merges the source tree, pushes the entries through the
// orchestrator and writes the consolidated catalog.
func runPass(ctx context.Context, orch *translator.Orchestrator, args passArgs) (translator.BatchResult, error) {
	result, entries, err := mergeTree(args.sourceDir, args.module)
	if err != nil {
		return translator.BatchResult{}, err
	}

	res := orch.TranslateBatch(ctx, entries, args.module, args.force, translator.WithProgress(logProgress()))

	if err := result.WritePO(args.output, args.language); err != nil {
		return res, fmt.Errorf("write %s: %w", args.output, err)
	}
	if args.writeMO {
		moPath := file.ReplaceExt(args.output, ".mo")
		if err := result.WriteMO(moPath, args.language); err != nil {
			return res, fmt.Errorf("compile %s: %w", moPath, err)
		}
	}
	return res, nil
}

func mergeTree(sourceDir, module string) (*merge.Result, []*merge.Entry, error) {
	paths, err := file.FindPOFiles(sourceDir)
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s: %w", sourceDir, err)
	}
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("no .po files under %s", sourceDir)
	}
	result := merge.NewMerger().Merge(paths)
	if result.Stats().Parsed == 0 {
		return nil, nil, fmt.Errorf("none of the %d catalogs could be parsed", len(paths))
	}
	entries := result.Entries()
	if module != "" {
		entries = result.EntriesOfModule(module)
	}
	return result, entries, nil
}

// countPending approximates how many entries the pipeline would pick up:
// non-empty sources that are untranslated or copied verbatim. Language
// detection may skip more at run time.
func countPending(entries []*merge.Entry, force bool) int {
	pending := 0
	for _, e := range entries {
		if strings.TrimSpace(e.Source) == "" {
			continue
		}
		if !force && e.Translation != "" && e.Translation != e.Source {
			continue
		}
		pending++
	}
	return pending
}

func checkLanguages(cfg *config.Config) error {
	for _, code := range []string{cfg.Translate.SourceLang, cfg.Translate.TargetLang} {
		if !langdetect.IsSupported(code) {
			return fmt.Errorf("unsupported language %q (supported: %s)", code, supportedCodes())
		}
	}
	return nil
}

func supportedCodes() string {
	langs := langdetect.SupportedLanguages()
	codes := make([]string, len(langs))
	for i, l := range langs {
		codes[i] = l.Code
	}
	return strings.Join(codes, ", ")
}

// buildOrchestrator assembles the translation pipeline from the effective
// configuration: glossary engine, sqlite cache and, when an API key is
// present and offline mode is off, the chat client. The returned cleanup
// closes the cache.
func buildOrchestrator(cfg *config.Config) (*translator.Orchestrator, func(), error) {
	engine := offline.NewEngine()
	loadGlossaries(engine, cfg)

	offlineMode := cfg.Translate.Offline
	var client translator.OnlineClient
	if !offlineMode {
		if !cfg.OnlineReady() {
			log.Warn("translate: no API key configured, falling back to offline glossaries")
			offlineMode = true
		} else {
			c, err := llm.NewClient(&cfg.LLM)
			if err != nil {
				return nil, nil, fmt.Errorf("llm client: %w", err)
			}
			client = c
		}
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, nil, err
	}
	store, err := cache.Open(cfg.Paths.CachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}

	orchCfg := orchestratorConfig(cfg)
	orchCfg.Offline = offlineMode
	orch := translator.New(orchCfg, translator.Deps{
		Offline: engine,
		Cache:   store,
		Client:  client,
	})
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn("cache: close: %v", err)
		}
	}
	return orch, cleanup, nil
}

func loadGlossaries(engine *offline.Engine, cfg *config.Config) {
	dir := cfg.Paths.GlossaryDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return
		}
		hit := offline.FindInAncestors(wd, cfg.Translate.SourceLang, cfg.Translate.TargetLang)
		if hit == "" {
			return
		}
		dir = filepath.Dir(hit)
	}
	n, err := engine.LoadDir(dir)
	if err != nil {
		log.Warn("glossaries: %v", err)
		return
	}
	if n > 0 {
		log.Info("glossaries: %d file(s) loaded from %s", n, dir)
	}
}

// orchestratorConfig maps configured values onto the orchestrator's
// knobs. Configured values are explicit, so zero means zero here; the
// orchestrator itself treats zero as "use the default".
func orchestratorConfig(cfg *config.Config) translator.Config {
	return translator.Config{
		SourceLang:   cfg.Translate.SourceLang,
		TargetLang:   cfg.Translate.TargetLang,
		AutoDetect:   cfg.Translate.AutoDetect,
		Offline:      cfg.Translate.Offline,
		Workers:      cfg.Translate.Workers,
		MaxRetries:   exactCount(cfg.Translate.MaxRetries),
		RateInterval: exactInterval(cfg.Translate.RateLimit),
		RetryBackoff: exactInterval(cfg.Translate.RetryBackoff),
		Context:      cfg.Translate.Context,
	}
}

func exactCount(n int) int {
	if n == 0 {
		return -1
	}
	return n
}

func exactInterval(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}

func logProgress() func(done, total int) {
	return func(done, total int) {
		if done%25 == 0 || done == total {
			log.Info("translate: %d/%d entries processed", done, total)
		}
	}
}

func printSummary(out io.Writer, res translator.BatchResult, st translator.Stats, output string) {
	fmt.Fprintf(out, "Translated %d, skipped %d, failed %d (of %d entries) -> %s\n",
		res.Translated, res.Skipped, res.Failed, res.Total, output)
	if st.Total > 0 {
		fmt.Fprintf(out, "Requests: %d, cache hits: %d (%.0f%%), API calls: %d, offline: %d, errors: %d, retries: %d\n",
			st.Total, st.CacheHits, st.CacheHitRate()*100, st.APICalls, st.OfflineRequests, st.Errors, st.Retries)
	}
}
