package langdetect

import (
	"strings"
	"unicode"
)

// Indicator vocabularies for the two languages that dominate ERP catalogs.
// Function words alone misfire on short UI strings, so both sets mix
// articles and auxiliaries with the business vocabulary that actually shows
// up in module texts.
var frenchIndicators = newIndicatorSet(
	"le", "la", "les", "un", "une", "des", "du", "de", "à", "au", "aux",
	"est", "sont", "être", "avoir", "faire", "pour", "dans", "sur", "avec",
	"commande", "facture", "livraison", "client", "fournisseur", "article",
	"paiement", "devis", "partenaire", "bon", "créer", "confirmer", "annuler",
	"veuillez", "montant", "total", "calculé", "automatiquement", "saisir",
	"commentaires", "nouvelle", "ici",
)

var englishIndicators = newIndicatorSet(
	"the", "a", "an", "is", "are", "be", "have", "do",
	"for", "in", "on", "with",
	"order", "invoice", "delivery", "customer", "supplier", "product",
	"payment", "quotation", "partner", "create", "confirm", "cancel",
	"please", "amount", "total", "calculated", "automatically", "enter",
	"comments", "new", "here",
)

type indicatorSet map[string]struct{}

func newIndicatorSet(words ...string) indicatorSet {
	s := make(indicatorSet, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// hits counts how many distinct indicator words occur in tokens.
func (s indicatorSet) hits(tokens map[string]struct{}) int {
	n := 0
	for w := range s {
		if _, ok := tokens[w]; ok {
			n++
		}
	}
	return n
}

// tokenize lowercases text and splits it into letter-only tokens, so
// placeholders and punctuation never count as vocabulary.
func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}

// indicatorCounts returns the number of French and English indicator words
// present in text.
func indicatorCounts(text string) (fr, en int) {
	tokens := tokenize(text)
	return frenchIndicators.hits(tokens), englishIndicators.hits(tokens)
}
