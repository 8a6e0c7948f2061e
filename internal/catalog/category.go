// Package catalog holds the category registry and the product validation
// engine. Validation accepts loosely typed candidate fields so that wrong
// JSON types surface as field-level messages instead of decode failures.
package catalog

// allowedCategories is the fixed, closed set of category labels. It is static
// for the process lifetime.
var allowedCategories = []string{"food", "beverage", "household", "clothing"}

// Categories returns the allowed category labels in their fixed order.
func Categories() []string {
	out := make([]string, len(allowedCategories))
	copy(out, allowedCategories)
	return out
}

// IsAllowedCategory reports whether category is a member of the registry.
// The match is exact and case-sensitive.
func IsAllowedCategory(category string) bool {
	for _, c := range allowedCategories {
		if c == category {
			return true
		}
	}
	return false
}
