package normalize

import (
	"net/url"
	"regexp"
	"strings"
)

// legalSuffixes are common entity suffixes stripped during name
// normalization for dedup keys.
var legalSuffixes = []string{
	" LTDA", " LTDA.", " EIRELI", " EPP", " ME", " S.A.", " S/A", " SA",
	" LLC", " L.L.C.", " INC", " INC.", " INCORPORATED",
	" CORP", " CORP.", " CORPORATION", " LTD", " LTD.", " LIMITED",
	" GMBH", " S.R.L.", " SRL", " S.L.", " B.V.", " BV", " PTY",
	" CO", " CO.",
}

var (
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	domainRe     = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)
)

// CanonicalDomain derives the canonical domain from a raw URL or
// bare hostname: protocol, www prefix, port, path, and query are
// stripped. Returns "" when the input has no resolvable domain form.
func CanonicalDomain(urlOrName string) string {
	s := strings.ToLower(strings.TrimSpace(urlOrName))
	if s == "" {
		return ""
	}

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil || u.Hostname() == "" {
			return ""
		}
		s = u.Hostname()
	} else {
		// Bare host, possibly with path or query.
		if i := strings.IndexAny(s, "/?#"); i >= 0 {
			s = s[:i]
		}
		if i := strings.Index(s, ":"); i >= 0 {
			s = s[:i]
		}
	}

	s = strings.TrimPrefix(s, "www.")
	if !domainRe.MatchString(s) {
		return ""
	}
	return s
}

// NormalizeName standardizes an entity name for dedup matching: trims,
// uppercases, strips one trailing legal suffix and punctuation, and
// collapses whitespace.
func NormalizeName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return ""
	}

	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}

	name = strings.NewReplacer(
		",", "",
		".", "",
		"'", "",
		"\"", "",
		"&", "AND",
		"-", " ",
	).Replace(name)

	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// nameStopwords are tokens skipped when picking the significant token of
// an entity name.
var nameStopwords = map[string]bool{
	"the": true, "a": true, "of": true, "de": true, "do": true,
	"da": true, "el": true, "la": true, "los": true, "las": true,
}

// SignificantToken returns the first meaningful token of an entity name,
// lowercased, for name-in-domain and name-in-title matching. Returns ""
// when the name has no token longer than two characters.
func SignificantToken(name string) string {
	for _, tok := range strings.Fields(strings.ToLower(NormalizeName(name))) {
		if len([]rune(tok)) > 2 && !nameStopwords[tok] {
			return tok
		}
	}
	return ""
}
