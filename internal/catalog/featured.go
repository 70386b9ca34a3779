package catalog

import "github.com/angelmondragon/bikeshop-bff/pkg/enums"

// MostAdvantageous picks the product with the highest discount for the home banner.
// Ties keep the earliest product in catalog order.
func MostAdvantageous(products []Product) (Product, bool) {
	if len(products) == 0 {
		return Product{}, false
	}
	best := 0
	for i := 1; i < len(products); i++ {
		if products[i].Discount > products[best].Discount {
			best = i
		}
	}
	return products[best], true
}

// Filter keeps the products of one category, preserving order.
func Filter(products []Product, category enums.ProductCategory) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}
