package offline

import (
	"regexp"
	"sort"
)

// Glossary holds the substitution rules for one translation direction.
// Phrase keys span several words and are applied before word keys.
type Glossary struct {
	Phrases map[string]string
	Words   map[string]string
}

// builtinGlossaries covers the directions ERP catalogs actually need
// offline. Keys are matched case-insensitively against whole words.
var builtinGlossaries = map[pairKey]Glossary{
	{"en", "fr"}: {
		Phrases: map[string]string{
			"purchase order":    "bon de commande",
			"sales order":       "commande client",
			"delivery order":    "bon de livraison",
			"quotation":         "devis",
			"confirm the order": "confirmer la commande",
			"confirm order":     "confirmer la commande",
			"create invoice":    "créer la facture",
			"customer invoice":  "facture client",
			"vendor bill":       "facture fournisseur",
			"total amount":      "montant total",
			"payment terms":     "conditions de paiement",
		},
		Words: map[string]string{
			"confirm":       "confirmer",
			"confirming":    "confirmation",
			"confirmations": "confirmations",
			"order":         "commande",
			"orders":        "commandes",
			"customer":      "client",
			"customers":     "clients",
			"vendor":        "fournisseur",
			"vendors":       "fournisseurs",
			"invoice":       "facture",
			"invoices":      "factures",
			"quotation":     "devis",
			"quotations":    "devis",
			"delivery":      "livraison",
			"product":       "article",
			"products":      "articles",
			"amount":        "montant",
			"amounts":       "montants",
			"total":         "total",
			"create":        "créer",
			"new":           "nouveau",
			"draft":         "brouillon",
			"validate":      "valider",
			"warehouse":     "entrepôt",
			"stock":         "stock",
			"partner":       "partenaire",
			"payment":       "paiement",
			"payments":      "paiements",
			"due":           "dû",
			"deadline":      "échéance",
			"comment":       "commentaire",
			"comments":      "commentaires",
			"please":        "veuillez",
			"save":          "enregistrer",
			"cancel":        "annuler",
			"apply":         "appliquer",
			"lines":         "lignes",
		},
	},
	{"fr", "en"}: {
		Phrases: map[string]string{
			"bon de commande":       "purchase order",
			"bon de livraison":      "delivery order",
			"facture client":        "customer invoice",
			"facture fournisseur":   "vendor bill",
			"confirmer la commande": "confirm the order",
			"montant total":         "total amount",
		},
		Words: map[string]string{
			"commande":     "order",
			"commandes":    "orders",
			"client":       "customer",
			"clients":      "customers",
			"fournisseur":  "vendor",
			"fournisseurs": "vendors",
			"facture":      "invoice",
			"factures":     "invoices",
			"devis":        "quotation",
			"livraison":    "delivery",
			"article":      "product",
			"articles":     "products",
			"montant":      "amount",
			"montants":     "amounts",
			"paiement":     "payment",
			"paiements":    "payments",
			"valider":      "validate",
			"créer":        "create",
			"annuler":      "cancel",
			"enregistrer":  "save",
			"commentaire":  "comment",
			"commentaires": "comments",
			"entrepôt":     "warehouse",
		},
	},
	{"en", "es"}: {
		Phrases: map[string]string{
			"sales order":       "orden de venta",
			"purchase order":    "orden de compra",
			"confirm the order": "confirmar el pedido",
		},
		Words: map[string]string{
			"order":     "pedido",
			"orders":    "pedidos",
			"invoice":   "factura",
			"invoices":  "facturas",
			"customer":  "cliente",
			"customers": "clientes",
			"total":     "total",
			"amount":    "importe",
			"confirm":   "confirmar",
			"create":    "crear",
		},
	},
	{"es", "en"}: {
		Phrases: map[string]string{
			"orden de venta":  "sales order",
			"orden de compra": "purchase order",
		},
		Words: map[string]string{
			"pedido":    "order",
			"pedidos":   "orders",
			"factura":   "invoice",
			"facturas":  "invoices",
			"cliente":   "customer",
			"clientes":  "customers",
			"confirmar": "confirm",
			"crear":     "create",
		},
	},
}

type pairKey struct {
	source string
	target string
}

func (p pairKey) String() string { return p.source + "→" + p.target }

// compiledGlossary is the match-ready form: phrase patterns sorted longest
// first so "purchase order" wins over "order", and a lowercase word map.
// The normalized source rules are kept so later additions can merge.
type compiledGlossary struct {
	source  Glossary
	phrases []phraseRule
	words   map[string]string
}

type phraseRule struct {
	re          *regexp.Regexp
	replacement string
}

func compile(g Glossary) *compiledGlossary {
	normalized := Glossary{
		Phrases: make(map[string]string, len(g.Phrases)),
		Words:   make(map[string]string, len(g.Words)),
	}
	for k, v := range g.Phrases {
		normalized.Phrases[normalizeToken(k)] = v
	}
	for k, v := range g.Words {
		normalized.Words[normalizeToken(k)] = v
	}

	keys := make([]string, 0, len(normalized.Phrases))
	for k := range normalized.Phrases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	c := &compiledGlossary{
		source:  normalized,
		phrases: make([]phraseRule, 0, len(keys)),
		words:   normalized.Words,
	}
	for _, k := range keys {
		c.phrases = append(c.phrases, phraseRule{
			re:          regexp.MustCompile(`(?i)` + regexp.QuoteMeta(k)),
			replacement: normalized.Phrases[k],
		})
	}
	return c
}
