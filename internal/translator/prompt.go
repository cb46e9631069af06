package translator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pofactory/po-translator/internal/langdetect"
)

// erpTerms pins translations for vocabulary that must stay consistent
// across a catalog, keyed by target language code.
var erpTerms = map[string]map[string]string{
	"fr": {
		"Invoice":        "Facture",
		"Quotation":      "Devis",
		"Sales":          "Ventes",
		"Purchase Order": "Bon de commande",
		"Delivery Order": "Livraison",
		"Partner":        "Partenaire",
		"Customer":       "Client",
		"Vendor":         "Fournisseur",
		"Stock":          "Stock",
		"Warehouse":      "Entrepôt",
		"Payment":        "Paiement",
		"Accounting":     "Comptabilité",
	},
}

type termPair struct {
	Term        string
	Translation string
}

// matchTerms returns the pinned terms that occur in text, sorted for a
// stable prompt.
func matchTerms(target, text string) []termPair {
	table := erpTerms[target]
	if len(table) == 0 {
		return nil
	}
	lower := strings.ToLower(text)
	var pairs []termPair
	for term, translation := range table {
		if strings.Contains(lower, strings.ToLower(term)) {
			pairs = append(pairs, termPair{Term: term, Translation: translation})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Term < pairs[j].Term })
	return pairs
}

func buildSystemPrompt(from, to string) string {
	return fmt.Sprintf("You are a professional translator specializing in ERP and business software interfaces. You translate %s texts into %s using precise, conventional terminology.",
		langdetect.LanguageName(from), langdetect.LanguageName(to))
}

// buildPrompt assembles the user message for one text: catalog context,
// pinned terminology, the rules the reply must honor, and the strict
// output contract the reply parser expects.
func buildPrompt(from, to, label, text string) string {
	fromName := langdetect.LanguageName(from)
	toName := langdetect.LanguageName(to)

	var b strings.Builder

	b.WriteString("=== CONTEXT ===\n")
	fmt.Fprintf(&b, "Domain: %s\n", label)
	fmt.Fprintf(&b, "Source language: %s (%s)\n", fromName, from)
	fmt.Fprintf(&b, "Target language: %s (%s)\n", toName, to)
	b.WriteString("\n")

	if terms := matchTerms(to, text); len(terms) > 0 {
		b.WriteString("=== TERMINOLOGY ===\n")
		b.WriteString("Use these exact translations:\n")
		for _, t := range terms {
			fmt.Fprintf(&b, "- \"%s\" = \"%s\"\n", t.Term, t.Translation)
		}
		b.WriteString("\n")
	}

	b.WriteString("=== TRANSLATION RULES ===\n")
	b.WriteString("1. Keep every placeholder exactly as written: %(name)s, %s, {name}, {{name}}, ${name}\n")
	b.WriteString("2. Preserve HTML tags, entities, and line breaks\n")
	fmt.Fprintf(&b, "3. Use natural, professional %s as found in business software\n", toName)
	b.WriteString("4. Keep the translation close in length to the source text\n")
	b.WriteString("\n")

	b.WriteString("=== TEXT ===\n")
	b.WriteString(text)
	b.WriteString("\n\n")

	b.WriteString("=== OUTPUT FORMAT ===\n")
	b.WriteString("Return ONLY a JSON object of the form {\"translation\": \"<translated text>\"}.\n")
	b.WriteString("Do not include any explanations, code fences, or additional keys.\n")

	return b.String()
}
