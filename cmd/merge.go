package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pofactory/po-translator/internal/merge"
	"github.com/pofactory/po-translator/pkg/file"
	"github.com/pofactory/po-translator/pkg/log"
	"github.com/spf13/cobra"
)

func newMergeCmd() *cobra.Command {
	var (
		sourceDir       string
		output          string
		modules         []string
		includeObsolete bool
		writeMO         bool
		project         string
		language        string
	)

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge PO catalogs from a source tree into one file",
		Long: `merge scans a directory tree for .po catalogs, deduplicates their entries
by source text and writes a single consolidated catalog. Entry origins are
tracked per module (addons/<name>/i18n or modules/<name>/i18n layout).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			return runMerge(cmd.OutOrStdout(), sourceDir, output, modules, includeObsolete, writeMO, project, language)
		},
	}

	cmd.Flags().StringVarP(&sourceDir, "source-dir", "s", ".", "directory tree to scan for .po files")
	cmd.Flags().StringVarP(&output, "output", "o", "merged.po", "path of the merged catalog")
	cmd.Flags().StringSliceVarP(&modules, "modules", "m", nil, "only merge catalogs of these modules")
	cmd.Flags().BoolVar(&includeObsolete, "include-obsolete", false, "keep #~ obsolete entries")
	cmd.Flags().BoolVar(&writeMO, "mo", false, "also compile a binary .mo next to the output")
	cmd.Flags().StringVar(&project, "project", "", "Project-Id-Version for the merged header")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Language header of the merged catalog")

	return cmd
}

func runMerge(out io.Writer, sourceDir, output string, modules []string, includeObsolete, writeMO bool, project, language string) error {
	paths, err := file.FindPOFiles(sourceDir)
	if err != nil {
		return fmt.Errorf("scan %s: %w", sourceDir, err)
	}
	if len(modules) > 0 {
		paths = filterByModule(paths, modules)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no matching .po files under %s", sourceDir)
	}

	merger := merge.NewMerger(merge.WithObsolete(includeObsolete), merge.WithProject(project))
	result := merger.Merge(paths)
	stats := result.Stats()
	if stats.Parsed == 0 {
		return fmt.Errorf("none of the %d catalogs could be parsed", stats.Files)
	}
	log.Info("merge: %d/%d catalogs parsed, %d entries (%d duplicates folded, %d conflicts, %d dropped)",
		stats.Parsed, stats.Files, stats.Entries, stats.Duplicates, stats.Conflicts, stats.Dropped)

	if err := result.WritePO(output, language); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintf(out, "Merged %d entries from %d catalogs into %s\n", result.Len(), stats.Parsed, output)

	if writeMO {
		moPath := file.ReplaceExt(output, ".mo")
		if err := result.WriteMO(moPath, language); err != nil {
			return fmt.Errorf("compile %s: %w", moPath, err)
		}
		fmt.Fprintf(out, "Compiled %s\n", moPath)
	}
	return nil
}

// filterByModule keeps only the catalogs whose path maps to one of the
// requested module names.
func filterByModule(paths, modules []string) []string {
	want := make(map[string]struct{}, len(modules))
	for _, m := range modules {
		if m = strings.TrimSpace(m); m != "" {
			want[m] = struct{}{}
		}
	}
	var kept []string
	for _, p := range paths {
		if _, ok := want[merge.ModuleFromPath(p)]; ok {
			kept = append(kept, p)
		}
	}
	return kept
}
