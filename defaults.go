package tcgscrape

// DefaultListingSelectors are the listing layouts seen on card search pages,
// newest first.
func DefaultListingSelectors() []string {
	return []string{
		".productListing",
		".search-result",
		".product-grid-item",
		".product-card",
	}
}

func DefaultFields() Fields {
	return Fields{
		Name: []Locator{
			Text(".productDetailTitle a"),
			Text(".search-result__title"),
			Text(".product-title"),
		},
		Price: []Locator{
			Text(".pricePoint"),
			Text(".price--direct"),
			Text(".product-price"),
		},
		Condition: []Locator{
			Text(".condition"),
			Text(".search-result__condition"),
			Text(".product-condition"),
		},
	}
}
