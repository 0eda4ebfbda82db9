package domain

// Pricing holds product-level prices, VAT inclusive and exclusive, with
// optional sale overrides.
type Pricing struct {
	Price         float64 `json:"price" bson:"price"`
	PriceExVat    float64 `json:"priceExVat" bson:"price_ex_vat"`
	SalePrice     float64 `json:"salePrice,omitempty" bson:"sale_price,omitempty"`
	SalePriceExVat float64 `json:"salePriceExVat,omitempty" bson:"sale_price_ex_vat,omitempty"`
}

// ProductVariant is one purchasable variation of a product. Variant prices,
// when set, override the product-level pricing.
type ProductVariant struct {
	ID         string            `json:"id" bson:"id"`
	Name       string            `json:"name" bson:"name"`
	SKU        string            `json:"sku" bson:"sku"`
	Price      float64           `json:"price,omitempty" bson:"price,omitempty"`
	SalePrice  float64           `json:"salePrice,omitempty" bson:"sale_price,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty" bson:"attributes,omitempty"`
}

// Product is the catalog entity a cart line references.
type Product struct {
	ID       string           `json:"id" bson:"id"`
	Slug     string           `json:"slug" bson:"slug"`
	Name     string           `json:"name" bson:"name"`
	Category string           `json:"category" bson:"category"`
	Image    string           `json:"image,omitempty" bson:"image,omitempty"`
	Colour   string           `json:"colour,omitempty" bson:"colour,omitempty"`
	Pricing  Pricing          `json:"pricing" bson:"pricing"`
	Variants []ProductVariant `json:"variants,omitempty" bson:"variants,omitempty"`
}

// EffectiveUnitPrice resolves the price actually charged per unit:
// variant sale price, else variant price, else product sale price, else
// product price. The first price that is set wins.
func EffectiveUnitPrice(p Product, v *ProductVariant) float64 {
	if v != nil {
		if v.SalePrice > 0 {
			return v.SalePrice
		}
		if v.Price > 0 {
			return v.Price
		}
	}
	if p.Pricing.SalePrice > 0 {
		return p.Pricing.SalePrice
	}
	return p.Pricing.Price
}

// LineFromProduct lowers a product (and optional variant) into a LineItem
// carrying the resolved unit price. Quantity is left for the store to set.
func LineFromProduct(p Product, v *ProductVariant) LineItem {
	li := LineItem{
		ID:         p.ID,
		Slug:       p.Slug,
		Name:       p.Name,
		Image:      p.Image,
		Colour:     p.Colour,
		Category:   p.Category,
		Price:      EffectiveUnitPrice(p, v),
		PriceExVat: p.Pricing.PriceExVat,
	}
	if v != nil {
		li.VariantID = v.ID
		if colour, ok := v.Attributes["color"]; ok {
			li.Colour = colour
		}
	}
	return li
}
