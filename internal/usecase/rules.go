package usecase

// ScrapeRules holds the storefront DOM selectors the pipeline drives. The
// defaults match a stock Shopify theme; they are configuration, not code,
// so a different storefront only needs a different rule set.
type ScrapeRules struct {
	// Substrings identifying collection and product links in anchor hrefs.
	CollectionLinkPattern string
	ProductLinkPattern    string

	// Static product-page containers.
	TitleSelector       string
	DescriptionSelector string
	PriceSelector       string
	// Zoom image: the attribute carrying the full-size image URL, often
	// protocol-relative.
	ZoomImageSelector  string
	ZoomImageAttribute string

	// Option controls: one container per option axis, holding a label and
	// a dropdown.
	OptionControlSelector string
	OptionLabelSelector   string
	OptionSelectSelector  string

	// Variant image keyed by the option's position in its dropdown; the
	// selector carries one %d verb for that index.
	VariantImageSelector  string
	VariantImageAttribute string
}

// DefaultScrapeRules returns the selector set for the target storefront.
func DefaultScrapeRules() ScrapeRules {
	return ScrapeRules{
		CollectionLinkPattern: "/collections/",
		ProductLinkPattern:    "/products/",

		TitleSelector:       ".product__title h1",
		DescriptionSelector: ".product__description",
		PriceSelector:       ".price__regular .price-item",
		ZoomImageSelector:   ".product__media img",
		ZoomImageAttribute:  "data-zoom-image",

		OptionControlSelector: ".product-form__input--dropdown",
		OptionLabelSelector:   ".form__label",
		OptionSelectSelector:  "select",

		VariantImageSelector:  `img[data-media-index="%d"]`,
		VariantImageAttribute: "src",
	}
}
