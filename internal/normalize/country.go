// Package normalize canonicalizes country references, expands campaign
// keywords across languages, and derives canonical domains from raw URLs.
package normalize

import (
	"strings"

	"golang.org/x/text/language"
)

// Country is a resolved country reference.
type Country struct {
	ISO  string // ISO 3166-1 alpha-2, uppercase
	Name string // canonical English name
}

type countryEntry struct {
	iso      string
	name     string
	language language.Tag
	// suffixes are common business domain endings for the market,
	// most specific first.
	suffixes []string
	variants []string
}

// countries is the supported market table. Variants cover native-language
// names, common abbreviations, and historical or alternate names.
var countries = []countryEntry{
	{"BR", "Brazil", language.BrazilianPortuguese, []string{".com.br", ".ind.br", ".br"},
		[]string{"brasil", "brazilian", "república federativa do brasil"}},
	{"AR", "Argentina", language.LatinAmericanSpanish, []string{".com.ar", ".ar"},
		[]string{"argentine", "república argentina"}},
	{"CL", "Chile", language.LatinAmericanSpanish, []string{".cl"},
		[]string{"chilean", "república de chile"}},
	{"CO", "Colombia", language.LatinAmericanSpanish, []string{".com.co", ".co"},
		[]string{"colombian", "república de colombia"}},
	{"MX", "Mexico", language.LatinAmericanSpanish, []string{".com.mx", ".mx"},
		[]string{"méxico", "mejico", "estados unidos mexicanos"}},
	{"PE", "Peru", language.LatinAmericanSpanish, []string{".com.pe", ".pe"},
		[]string{"perú", "república del perú"}},
	{"UY", "Uruguay", language.LatinAmericanSpanish, []string{".com.uy", ".uy"},
		[]string{"república oriental del uruguay"}},
	{"PY", "Paraguay", language.LatinAmericanSpanish, []string{".com.py", ".py"},
		[]string{"república del paraguay"}},
	{"EC", "Ecuador", language.LatinAmericanSpanish, []string{".com.ec", ".ec"},
		[]string{"república del ecuador"}},
	{"BO", "Bolivia", language.LatinAmericanSpanish, []string{".com.bo", ".bo"},
		[]string{"estado plurinacional de bolivia"}},
	{"US", "United States", language.AmericanEnglish, []string{".com", ".us"},
		[]string{"usa", "u.s.", "u.s.a.", "united states of america", "estados unidos", "america"}},
	{"CA", "Canada", language.AmericanEnglish, []string{".ca"},
		[]string{"canadá"}},
	{"GB", "United Kingdom", language.BritishEnglish, []string{".co.uk", ".uk"},
		[]string{"uk", "great britain", "britain", "england", "reino unido"}},
	{"DE", "Germany", language.German, []string{".de"},
		[]string{"deutschland", "alemania", "alemanha", "west germany", "federal republic of germany"}},
	{"FR", "France", language.French, []string{".fr"},
		[]string{"francia", "frança", "république française"}},
	{"IT", "Italy", language.Italian, []string{".it"},
		[]string{"italia", "repubblica italiana"}},
	{"ES", "Spain", language.EuropeanSpanish, []string{".es"},
		[]string{"españa", "espanha", "reino de españa"}},
	{"PT", "Portugal", language.EuropeanPortuguese, []string{".pt"},
		[]string{"república portuguesa"}},
	{"NL", "Netherlands", language.Dutch, []string{".nl"},
		[]string{"holland", "nederland", "the netherlands", "holanda"}},
	{"AU", "Australia", language.English, []string{".com.au", ".au"},
		[]string{"commonwealth of australia"}},
	{"NZ", "New Zealand", language.English, []string{".co.nz", ".nz"},
		[]string{"aotearoa", "nueva zelanda"}},
	{"JP", "Japan", language.Japanese, []string{".co.jp", ".jp"},
		[]string{"nippon", "nihon", "japón", "japão"}},
	{"ZA", "South Africa", language.English, []string{".co.za", ".za"},
		[]string{"república de sudáfrica", "sudáfrica"}},
	{"IN", "India", language.English, []string{".co.in", ".in"},
		[]string{"bharat", "republic of india"}},
}

var (
	countryByISO  = map[string]*countryEntry{}
	countryByText = map[string]*countryEntry{}
)

func init() {
	for i := range countries {
		e := &countries[i]
		countryByISO[e.iso] = e
		countryByText[strings.ToLower(e.name)] = e
		countryByText[strings.ToLower(e.iso)] = e
		for _, v := range e.variants {
			// Keys are stored dot-trimmed to mirror the lookup side.
			countryByText[strings.Trim(v, ".")] = e
		}
	}
}

// NormalizeCountry resolves free-form country text to an ISO code and
// canonical name. The second return is false when the text matches no
// supported market; callers decide the fallback, never this function.
func NormalizeCountry(text string) (Country, bool) {
	key := strings.ToLower(strings.TrimSpace(text))
	key = strings.Trim(key, ".")
	if key == "" {
		return Country{}, false
	}
	if e, ok := countryByText[key]; ok {
		return Country{ISO: e.iso, Name: e.name}, true
	}
	return Country{}, false
}

// CanonicalName returns the canonical English name for a supported ISO
// code, or "" when the code is outside the supported set.
func CanonicalName(iso string) string {
	if e, ok := countryByISO[strings.ToUpper(iso)]; ok {
		return e.name
	}
	return ""
}

// SupportedISOCodes returns the ISO codes of every supported market in
// table order.
func SupportedISOCodes() []string {
	codes := make([]string, 0, len(countries))
	for i := range countries {
		codes = append(codes, countries[i].iso)
	}
	return codes
}

// BusinessSuffixes returns the common business domain suffixes for a
// market, most specific first. Empty for unsupported codes.
func BusinessSuffixes(iso string) []string {
	if e, ok := countryByISO[strings.ToUpper(iso)]; ok {
		return e.suffixes
	}
	return nil
}

// MarketLanguage returns the primary language tag for a supported market,
// falling back to English for unknown codes.
func MarketLanguage(iso string) language.Tag {
	if e, ok := countryByISO[strings.ToUpper(iso)]; ok {
		return e.language
	}
	return language.English
}
