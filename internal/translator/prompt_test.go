package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPromptSections(t *testing.T) {
	prompt := buildPrompt("en", "fr", "module: account", "Create Invoice %(name)s")

	assert.Contains(t, prompt, "=== CONTEXT ===")
	assert.Contains(t, prompt, "Domain: module: account")
	assert.Contains(t, prompt, "Source language: English (en)")
	assert.Contains(t, prompt, "Target language: French (fr)")
	assert.Contains(t, prompt, "=== TERMINOLOGY ===")
	assert.Contains(t, prompt, `- "Invoice" = "Facture"`)
	assert.Contains(t, prompt, "=== TRANSLATION RULES ===")
	assert.Contains(t, prompt, "%(name)s, %s, {name}, {{name}}, ${name}")
	assert.Contains(t, prompt, "=== TEXT ===\nCreate Invoice %(name)s")
	assert.Contains(t, prompt, `{"translation": "<translated text>"}`)
}

func TestBuildPromptSkipsEmptyTerminology(t *testing.T) {
	prompt := buildPrompt("en", "fr", "x", "Hello there")
	assert.NotContains(t, prompt, "=== TERMINOLOGY ===")

	// no pinned vocabulary for Spanish yet
	prompt = buildPrompt("en", "es", "x", "Invoice")
	assert.NotContains(t, prompt, "=== TERMINOLOGY ===")
}

func TestMatchTerms(t *testing.T) {
	terms := matchTerms("fr", "confirm the PURCHASE ORDER and invoice")
	require.Len(t, terms, 2)
	assert.Equal(t, termPair{Term: "Invoice", Translation: "Facture"}, terms[0])
	assert.Equal(t, termPair{Term: "Purchase Order", Translation: "Bon de commande"}, terms[1])

	assert.Empty(t, matchTerms("fr", "nothing relevant here"))
	assert.Empty(t, matchTerms("de", "Invoice"))
}

func TestBuildSystemPrompt(t *testing.T) {
	system := buildSystemPrompt("en", "fr")
	assert.Contains(t, system, "English")
	assert.Contains(t, system, "French")
}

func TestContextLabel(t *testing.T) {
	assert.Equal(t, "module: sale", contextLabel("sale", "custom"))
	assert.Equal(t, "custom", contextLabel("", "custom"))
	assert.Equal(t, "ERP catalog", contextLabel("", ""))
}
