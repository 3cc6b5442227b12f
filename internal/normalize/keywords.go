package normalize

import (
	"strings"

	"golang.org/x/text/language"
)

// vocabulary maps controlled domain terms to per-language equivalents,
// keyed by base language. Terms outside the vocabulary pass through
// unchanged; a translation is never fabricated.
var vocabulary = map[string]map[string][]string{
	"dealer": {
		"pt": {"revendedor", "revenda"},
		"es": {"concesionario", "revendedor"},
		"de": {"händler"},
		"fr": {"revendeur"},
		"it": {"rivenditore"},
	},
	"distributor": {
		"pt": {"distribuidor", "distribuidora"},
		"es": {"distribuidor", "distribuidora"},
		"de": {"vertriebspartner"},
		"fr": {"distributeur"},
		"it": {"distributore"},
	},
	"importer": {
		"pt": {"importador", "importadora"},
		"es": {"importador", "importadora"},
		"de": {"importeur"},
		"fr": {"importateur"},
		"it": {"importatore"},
	},
	"wholesaler": {
		"pt": {"atacadista"},
		"es": {"mayorista"},
		"de": {"großhändler"},
		"fr": {"grossiste"},
		"it": {"grossista"},
	},
	"supplier": {
		"pt": {"fornecedor"},
		"es": {"proveedor"},
		"de": {"lieferant"},
		"fr": {"fournisseur"},
		"it": {"fornitore"},
	},
	"equipment": {
		"pt": {"equipamento", "equipamentos"},
		"es": {"equipo", "equipamiento"},
		"de": {"geräte"},
		"fr": {"équipement"},
		"it": {"attrezzatura"},
	},
	"studio": {
		"pt": {"estúdio"},
		"es": {"estudio"},
		"fr": {"studio"},
	},
	"physiotherapy": {
		"pt": {"fisioterapia"},
		"es": {"fisioterapia"},
		"de": {"physiotherapie"},
		"fr": {"kinésithérapie"},
		"it": {"fisioterapia"},
	},
}

// ExpandKeywords produces the union of the base terms and their
// translations for the target languages. Order follows the base list,
// with each term's translations appended in language order; duplicates
// are dropped.
func ExpandKeywords(base []string, targets []language.Tag) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(kw string) {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			return
		}
		key := strings.ToLower(kw)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, kw)
	}

	for _, kw := range base {
		add(kw)
		translations, ok := vocabulary[strings.ToLower(strings.TrimSpace(kw))]
		if !ok {
			continue
		}
		for _, tag := range targets {
			b, _ := tag.Base()
			for _, t := range translations[b.String()] {
				add(t)
			}
		}
	}
	return out
}
