package offline

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate_PlaceholdersSurvive(t *testing.T) {
	e := NewEngine()
	out, ok := e.Translate("Create %(count)s new invoice", "en", "fr")
	require.True(t, ok)
	assert.Equal(t, "Créer %(count)s nouveau facture", out)
}

func TestTranslate_AllPlaceholderStyles(t *testing.T) {
	e := NewEngine()
	in := "Order %s for %(name)s with {count} items, ${var} and {{tpl}}"
	out, ok := e.Translate(in, "en", "fr")
	require.True(t, ok)

	want := Placeholders(in)
	got := Placeholders(out)
	sort.Strings(want)
	sort.Strings(got)
	assert.Equal(t, want, got, "placeholder multiset must survive")
	for _, ph := range []string{"%s", "%(name)s", "{count}", "${var}", "{{tpl}}"} {
		assert.Contains(t, out, ph)
	}
}

func TestTranslate_PhraseWinsOverWords(t *testing.T) {
	e := NewEngine()
	out, ok := e.Translate("Validate the purchase order", "en", "fr")
	require.True(t, ok)
	assert.Equal(t, "Valider the bon de commande", out)
}

func TestTranslate_NoPartialWordHits(t *testing.T) {
	e := NewEngine()
	// The phrase rule "quotation" must not fire inside "quotations".
	out, ok := e.Translate("Send quotations", "en", "fr")
	require.True(t, ok)
	assert.Equal(t, "Send devis", out)
}

func TestTranslate_CaseMirroring(t *testing.T) {
	e := NewEngine()
	tests := []struct {
		in   string
		want string
	}{
		{"INVOICE", "FACTURE"},
		{"invoice", "facture"},
		{"Invoice", "Facture"},
		{"InVoice", "Facture"},
		{"Purchase Order", "Bon De Commande"},
		{"purchase order", "bon de commande"},
	}
	for _, tt := range tests {
		out, ok := e.Translate(tt.in, "en", "fr")
		require.True(t, ok, tt.in)
		assert.Equal(t, tt.want, out, "input %q", tt.in)
	}
}

func TestTranslate_UnsupportedPair(t *testing.T) {
	e := NewEngine()
	out, ok := e.Translate("Confirm the order", "en", "de")
	assert.False(t, ok)
	assert.Empty(t, out)
}

func TestTranslate_EmptyTextPassesThrough(t *testing.T) {
	e := NewEngine()
	out, ok := e.Translate("", "en", "fr")
	assert.True(t, ok)
	assert.Empty(t, out)

	out, ok = e.Translate("   ", "en", "de")
	assert.True(t, ok, "empty input needs no glossary")
	assert.Equal(t, "   ", out)
}

func TestTranslate_WhitespaceCollapse(t *testing.T) {
	e := NewEngine()
	out, ok := e.Translate("Please   confirm\n\nthe   order", "en", "fr")
	require.True(t, ok)
	assert.Equal(t, "Veuillez confirmer\n\nthe commande", out)
}

func TestTranslate_Deterministic(t *testing.T) {
	e := NewEngine()
	first, ok := e.Translate("Confirm the order and create invoice", "en", "fr")
	require.True(t, ok)
	second, _ := e.Translate("Confirm the order and create invoice", "en", "fr")
	assert.Equal(t, first, second)
}

func TestTranslate_ReverseDirection(t *testing.T) {
	e := NewEngine()
	out, ok := e.Translate("Veuillez valider le bon de commande", "fr", "en")
	require.True(t, ok)
	assert.Contains(t, out, "purchase order")
	assert.Contains(t, out, "validate")
}

func TestPairs(t *testing.T) {
	e := NewEngine()
	assert.Equal(t, []string{"en→es", "en→fr", "es→en", "fr→en"}, e.Pairs())
}

func TestAdd_NewPair(t *testing.T) {
	e := NewEngine()
	require.False(t, e.Supports("en", "de"))

	e.Add("en", "de", Glossary{Words: map[string]string{"invoice": "rechnung"}})
	require.True(t, e.Supports("en", "de"))

	out, ok := e.Translate("invoice", "en", "de")
	require.True(t, ok)
	assert.Equal(t, "rechnung", out)
}

func TestAdd_MergesIntoExistingPair(t *testing.T) {
	e := NewEngine()
	e.Add("en", "fr", Glossary{Words: map[string]string{"widget": "gadget"}})

	out, ok := e.Translate("invoice widget", "en", "fr")
	require.True(t, ok)
	assert.Equal(t, "facture gadget", out, "built-in rules must survive the merge")
}

func TestSupports_NormalizesCodes(t *testing.T) {
	e := NewEngine()
	assert.True(t, e.Supports("EN", "fr"))
	assert.True(t, e.Supports("en-US", "fr-FR"))
	assert.False(t, e.Supports("fr", "fr"))
}

func TestPlaceholders_OrderAndGreediness(t *testing.T) {
	got := Placeholders("{{name}} then {x} then %s then %(id)s then ${v}")
	assert.Equal(t, []string{"{{name}}", "{x}", "%s", "%(id)s", "${v}"}, got)
	assert.Empty(t, Placeholders("no tokens here"))
}

func TestMatchCase(t *testing.T) {
	assert.Equal(t, "FACTURE", matchCase("ABC", "facture"))
	assert.Equal(t, "facture", matchCase("abc", "Facture"))
	assert.Equal(t, "Bon De Commande", matchCase("Abc Def", "bon de commande"))
	assert.Equal(t, "Facture", matchCase("Abc", "facture"))
	assert.Equal(t, "facTure", matchCase("aBC", "facTure"))
	assert.Equal(t, "", matchCase("ABC", ""))
}
