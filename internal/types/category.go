// README: Aid category vocabulary.
package types

// Aid categories a ticket can request and a provider can declare.
const (
	CategoryFood      = "food"
	CategoryMedical   = "medical"
	CategoryTransport = "transport"
	CategoryShelter   = "shelter"
)

// KnownCategories lists every category the matching engine understands.
var KnownCategories = []string{
	CategoryFood,
	CategoryMedical,
	CategoryTransport,
	CategoryShelter,
}

// IsKnownCategory reports whether c is part of the category vocabulary.
func IsKnownCategory(c string) bool {
	for _, k := range KnownCategories {
		if k == c {
			return true
		}
	}
	return false
}
