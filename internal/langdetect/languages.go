package langdetect

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language pairs an ISO 639-1 code with its English display name.
type Language struct {
	Code string
	Name string
}

// primaryLanguages are the codes the detector is expected to tell apart in
// ERP catalogs. relatedLanguages are close relatives the classifier tends to
// confuse with a primary language; they stay in the candidate set so a
// confusion can be recognised and reclassified instead of trusted.
var (
	primaryLanguages = []string{"en", "fr", "es", "de", "it", "pt", "nl", "ar"}
	relatedLanguages = []string{"ca", "ro", "da", "sv", "nb", "fi", "gl"}
)

// candidateList is the trigram whitelist handed to whatlanggo. Galician and
// Catalan have no trigram profile in whatlanggo, so they are reachable only
// through an external provider or reclassification, never from the
// classifier itself.
var candidateList = map[whatlanggo.Lang]bool{
	whatlanggo.Eng: true,
	whatlanggo.Fra: true,
	whatlanggo.Spa: true,
	whatlanggo.Deu: true,
	whatlanggo.Ita: true,
	whatlanggo.Por: true,
	whatlanggo.Nld: true,
	whatlanggo.Arb: true,
	whatlanggo.Ron: true,
	whatlanggo.Dan: true,
	whatlanggo.Swe: true,
	whatlanggo.Nob: true,
	whatlanggo.Fin: true,
}

// SupportedLanguages lists every language the detector can name, primary
// set first, related set after, each in its English display name.
func SupportedLanguages() []Language {
	codes := make([]string, 0, len(primaryLanguages)+len(relatedLanguages))
	codes = append(codes, primaryLanguages...)
	codes = append(codes, relatedLanguages...)

	out := make([]Language, 0, len(codes))
	for _, code := range codes {
		out = append(out, Language{Code: code, Name: LanguageName(code)})
	}
	return out
}

// IsSupported reports whether code names a language the detector knows.
func IsSupported(code string) bool {
	code = normalizeCode(code)
	for _, c := range primaryLanguages {
		if c == code {
			return true
		}
	}
	for _, c := range relatedLanguages {
		if c == code {
			return true
		}
	}
	return false
}

// LanguageName resolves an ISO 639-1 code to its English display name.
// Unknown codes come back unchanged so log lines stay readable.
func LanguageName(code string) string {
	tag, err := language.Parse(normalizeCode(code))
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// normalizeCode lowercases a language code and strips any region subtag,
// mapping values like "FR" or "pt-BR" onto the bare primary code.
func normalizeCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	if code == "no" {
		return "nb"
	}
	return code
}
