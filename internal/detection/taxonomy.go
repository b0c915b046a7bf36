package detection

import (
	"strings"
)

// taxonomyFieldCount is the number of fields in a well-formed SpeciesNet
// label: id;class;order;family;genus;species;common_name
const taxonomyFieldCount = 7

// Taxonomy holds the species information parsed from a SpeciesNet label.
type Taxonomy struct {
	Species        string
	ScientificName string
	CommonName     string
	Category       Category
}

// ParseTaxonomy extracts species information from a SpeciesNet prediction
// label using fixed field positions. A label with fewer than seven fields is
// treated as malformed: the raw string is used as both species and scientific
// name and the category falls back to unknown.
func ParseTaxonomy(label string) Taxonomy {
	parts := strings.Split(label, ";")
	if len(parts) < taxonomyFieldCount {
		return Taxonomy{
			Species:        label,
			ScientificName: label,
			CommonName:     "",
			Category:       CategoryUnknown,
		}
	}

	class := strings.TrimSpace(parts[1])
	genus := strings.TrimSpace(parts[4])
	species := strings.TrimSpace(parts[5])
	common := strings.TrimSpace(parts[6])

	t := Taxonomy{
		CommonName: common,
		Category:   CategoryFromClass(class),
	}

	switch {
	case genus != "" && species != "":
		binomial := capitalize(genus) + " " + species
		t.Species = binomial
		t.ScientificName = binomial
	case common != "":
		t.Species = common
		t.ScientificName = common
	default:
		t.Species = label
		t.ScientificName = label
	}

	return t
}

// capitalize uppercases the first byte of an ASCII genus name.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
