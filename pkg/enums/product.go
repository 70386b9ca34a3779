package enums

import (
	"fmt"
	"strconv"
	"strings"
)

// ProductCategory is the numeric category served by the product backend.
type ProductCategory uint8

const (
	ProductCategoryHelmet ProductCategory = 0
	ProductCategoryBike   ProductCategory = 1
)

var productCategoryNames = map[ProductCategory]string{
	ProductCategoryHelmet: "helmet",
	ProductCategoryBike:   "bike",
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	if name, ok := productCategoryNames[c]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(c)) + ")"
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	_, ok := productCategoryNames[c]
	return ok
}

// ParseProductCategory accepts either the name ("bike") or the wire number ("1").
func ParseProductCategory(value string) (ProductCategory, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for candidate, name := range productCategoryNames {
		if name == value {
			return candidate, nil
		}
	}
	if n, err := strconv.ParseUint(value, 10, 8); err == nil && ProductCategory(n).IsValid() {
		return ProductCategory(n), nil
	}
	return 0, fmt.Errorf("invalid product category %q", value)
}
