package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pofactory/po-translator/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// chdir mirrors testing.T.Chdir for toolchains older than Go 1.24: it enters
// dir for the duration of the test, sets PWD, and restores the previous
// working directory afterwards.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("chdir: getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("chdir: restore %q: %v", prev, err)
		}
	})
}

func writePO(t *testing.T, path string, entries [][2]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	var b strings.Builder
	b.WriteString("msgid \"\"\n")
	b.WriteString("msgstr \"\"\n")
	b.WriteString("\"Project-Id-Version: fixtures\\n\"\n")
	b.WriteString("\"Language: fr\\n\"\n")
	for _, e := range entries {
		b.WriteString("\nmsgid \"" + e[0] + "\"\n")
		b.WriteString("msgstr \"" + e[1] + "\"\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

// fixtureTree lays out two module catalogs sharing one source text, the
// addons/<module>/i18n layout the indexer expects.
func fixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writePO(t, filepath.Join(root, "addons", "sale", "i18n", "fr.po"), [][2]string{
		{"Create new invoice", ""},
		{"Quotation sent", "Devis envoyé"},
	})
	writePO(t, filepath.Join(root, "addons", "crm", "i18n", "fr.po"), [][2]string{
		{"Please confirm the order", ""},
		{"Create new invoice", ""},
	})
	return root
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "po-translator dev")
}

func TestUnknownFlagFails(t *testing.T) {
	_, err := runCLI(t, "merge", "--definitely-not-a-flag")
	require.Error(t, err)
}

func TestMergeCommand(t *testing.T) {
	chdir(t, t.TempDir())
	root := fixtureTree(t)
	out := filepath.Join(t.TempDir(), "merged.po")

	stdout, err := runCLI(t, "merge", "-s", root, "-o", out, "--language", "fr", "--project", "fixtures")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Merged 3 entries from 2 catalogs")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `msgid "Create new invoice"`)
	assert.Contains(t, string(data), `msgstr "Devis envoyé"`)
	assert.Contains(t, string(data), `msgid "Please confirm the order"`)
}

func TestMergeModuleFilter(t *testing.T) {
	chdir(t, t.TempDir())
	root := fixtureTree(t)
	out := filepath.Join(t.TempDir(), "sale.po")

	stdout, err := runCLI(t, "merge", "-s", root, "-o", out, "--modules", "sale")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Merged 2 entries from 1 catalogs")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Quotation sent")
	assert.NotContains(t, string(data), "Please confirm the order")
}

func TestMergeNoCatalogs(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := runCLI(t, "merge", "-s", t.TempDir(), "-o", filepath.Join(t.TempDir(), "out.po"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no matching .po files")
}

func TestTranslateDryRun(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PO_DATA_DIR", t.TempDir())
	root := fixtureTree(t)
	out := filepath.Join(t.TempDir(), "out.po")

	stdout, err := runCLI(t, "translate", "-s", root, "-o", out, "--dry-run", "--offline")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Would translate up to 2 of 3 entries")
	assert.NoFileExists(t, out)
}

func TestTranslateOfflineEndToEnd(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PO_DATA_DIR", t.TempDir())
	root := fixtureTree(t)
	out := filepath.Join(t.TempDir(), "out.po")

	stdout, err := runCLI(t, "translate", "-s", root, "-o", out, "--offline", "--source-lang", "en", "--target-lang", "fr")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Translated 2, skipped 1, failed 0 (of 3 entries)")
	assert.Contains(t, stdout, "offline: 2")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `msgstr "Créer nouveau facture"`)
	assert.Contains(t, string(data), `msgstr "Veuillez confirmer la commande"`)
	assert.Contains(t, string(data), `msgstr "Devis envoyé"`)

	// Both fresh translations went through the persistent cache.
	stats, err := runCLI(t, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, stats, "Entries: 2")
}

func TestTranslateModuleScope(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PO_DATA_DIR", t.TempDir())
	root := fixtureTree(t)
	out := filepath.Join(t.TempDir(), "out.po")

	stdout, err := runCLI(t, "translate", "-s", root, "-o", out, "--offline", "--module", "crm",
		"--source-lang", "en", "--target-lang", "fr")
	require.NoError(t, err)
	// crm owns the duplicated source, so both pending entries are in scope.
	assert.Contains(t, stdout, "failed 0")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `msgstr "Veuillez confirmer la commande"`)
}

func TestTranslateRejectsUnsupportedLanguage(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := runCLI(t, "translate", "-s", t.TempDir(), "--target-lang", "ja", "--dry-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported language")
}

func TestWatchRejectsBadCron(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PO_DATA_DIR", t.TempDir())
	_, err := runCLI(t, "watch", "-s", t.TempDir(), "--cron", "not a cron")
	require.Error(t, err)
}

func TestCacheCommands(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PO_DATA_DIR", t.TempDir())

	stdout, err := runCLI(t, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Entries: 0")

	stdout, err = runCLI(t, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Cleared 0")
}

func TestConfigShowAndInit(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("PO_DATA_DIR", t.TempDir())
	t.Setenv("LLM_API_KEY", "")

	stdout, err := runCLI(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "source_lang: en")
	assert.Contains(t, stdout, "target_lang: fr")
	assert.Contains(t, stdout, "api key set: false")

	stdout, err = runCLI(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote")
	assert.FileExists(t, filepath.Join(dir, config.SettingsFileName))

	_, err = runCLI(t, "config", "init")
	require.Error(t, err)

	_, err = runCLI(t, "config", "init", "--force")
	require.NoError(t, err)
}
