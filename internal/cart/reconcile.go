package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bikeshop-bff/internal/catalog"
)

// Line is a catalog product that is in the cart.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Summary totals a set of lines. Money values are rounded to cents.
type Summary struct {
	Items    int             `json:"items"`
	Units    int             `json:"units"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Reconcile returns the products that are in the cart, in catalog order. Cart ids with
// no product are left out of the result and left in the cart.
func Reconcile(products []catalog.Product, c Cart) []Line {
	quantities := make(map[string]int, c.Len())
	for _, e := range c.entries {
		quantities[e.ID] = e.Quantity
	}
	lines := make([]Line, 0, c.Len())
	for _, p := range products {
		if qty, ok := quantities[p.ID]; ok {
			lines = append(lines, Line{Product: p, Quantity: qty})
		}
	}
	return lines
}

// Dangling returns the cart ids that have no product in the catalog, in cart order.
func Dangling(products []catalog.Product, c Cart) []string {
	known := productIDSet(products)
	out := make([]string, 0)
	for _, e := range c.entries {
		if _, ok := known[e.ID]; !ok {
			out = append(out, e.ID)
		}
	}
	return out
}

var hundred = decimal.NewFromInt(100)

// Summarize computes price * qty * (100 - discount) / 100 per line.
func Summarize(lines []Line) Summary {
	subtotal := decimal.Zero
	total := decimal.Zero
	units := 0
	for _, l := range lines {
		gross := decimal.NewFromFloat(l.Product.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
		net := gross.Mul(hundred.Sub(decimal.NewFromInt(int64(l.Product.Discount)))).Div(hundred)
		subtotal = subtotal.Add(gross)
		total = total.Add(net)
		units += l.Quantity
	}
	subtotal = subtotal.Round(2)
	total = total.Round(2)
	return Summary{
		Items:    len(lines),
		Units:    units,
		Subtotal: subtotal,
		Discount: subtotal.Sub(total),
		Total:    total,
	}
}

func productIDSet(products []catalog.Product) map[string]struct{} {
	set := make(map[string]struct{}, len(products))
	for _, p := range products {
		set[p.ID] = struct{}{}
	}
	return set
}
