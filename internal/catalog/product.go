package catalog

import (
	"encoding/json"

	"github.com/angelmondragon/bikeshop-bff/pkg/enums"
)

// Product is one catalog entry as served by the product backend. It is read-only here.
type Product struct {
	ID          string                `json:"_id" validate:"required"`
	Name        string                `json:"name" validate:"min=2"`
	Price       float64               `json:"price" validate:"gte=0"`
	Description string                `json:"description" validate:"min=2"`
	Images      []string              `json:"images"`
	Discount    int                   `json:"discount" validate:"gte=0,lte=100"`
	Category    enums.ProductCategory `json:"category" validate:"lte=1"`
}

// UnmarshalJSON accepts "id" when the backend omits "_id".
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	var raw struct {
		alias
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Product(raw.alias)
	if p.ID == "" {
		p.ID = raw.AltID
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return nil
}

// Thumbnail is the first image, which the cart row renders.
func (p Product) Thumbnail() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
