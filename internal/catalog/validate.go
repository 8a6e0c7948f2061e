package catalog

import (
	"strings"
	"unicode/utf8"
)

// ProductInput is a candidate product as delivered by the transport layer.
// Fields are deliberately untyped: a request that sends the wrong JSON type
// for a field must produce a validation message, not a decode error.
type ProductInput struct {
	Name     any `json:"name"`
	Sku      any `json:"sku"`
	Price    any `json:"price"`
	Stock    any `json:"stock"`
	Category any `json:"category"`
}

// AsString coerces a loosely typed field to a string.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsNumber coerces a loosely typed field to a float64. JSON numbers decode to
// float64; the integer cases cover values constructed in code.
func AsNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// ValidateProduct checks a candidate product against the structural and
// business rules and returns the ordered list of messages for every rule that
// failed. All rules are evaluated; nothing short-circuits across fields.
//
// skuTaken reports whether a product with exactly the given sku already
// exists; it is consulted only when isUpdate is false. The probe uses the sku
// as given, before trimming.
func ValidateProduct(in ProductInput, isUpdate bool, skuTaken func(sku string) bool) []string {
	var errs []string

	if name, ok := AsString(in.Name); !ok || strings.TrimSpace(name) == "" {
		errs = append(errs, "product name must not be empty")
	}

	if sku, ok := AsString(in.Sku); !ok || strings.TrimSpace(sku) == "" {
		errs = append(errs, "sku must not be empty")
	} else if utf8.RuneCountInString(sku) < 3 {
		errs = append(errs, "sku must be at least 3 characters")
	} else if !isUpdate && skuTaken != nil && skuTaken(sku) {
		errs = append(errs, "sku already exists")
	}

	if in.Price == nil {
		errs = append(errs, "price must not be empty")
	} else if price, ok := AsNumber(in.Price); !ok || price <= 0 {
		errs = append(errs, "price must be greater than 0")
	}

	if in.Stock == nil {
		errs = append(errs, "stock must not be empty")
	} else if stock, ok := AsNumber(in.Stock); !ok || stock < 0 {
		errs = append(errs, "stock must not be negative")
	}

	if category, ok := AsString(in.Category); !ok || strings.TrimSpace(category) == "" {
		errs = append(errs, "category must not be empty")
	} else if !IsAllowedCategory(category) {
		errs = append(errs, "category must be one of: "+strings.Join(allowedCategories, ", "))
	}

	return errs
}
