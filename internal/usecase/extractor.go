package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/user/catalog-agent/internal/entity"
	"github.com/user/catalog-agent/internal/repository"
	"github.com/user/catalog-agent/pkg/config"
	"github.com/user/catalog-agent/pkg/metrics"
	"github.com/user/catalog-agent/pkg/utils"
)

// titleSentinel is recorded when neither access path yields a usable title.
const titleSentinel = "Not Found"

// ProductExtractor scrapes one product URL and reconciles the result into
// the catalog store.
type ProductExtractor interface {
	// ExtractProduct loads the page through both access paths, enumerates
	// the option combinations and upserts product, options, variants and
	// images. On success the product's AllowUpdate flag is cleared; on a
	// session-level failure it is left set so the next batch pass retries.
	ExtractProduct(ctx context.Context, productURL string) error
}

// ExtractorConfig carries the tunables the extractor needs.
type ExtractorConfig struct {
	SettleInterval time.Duration
	// Enumeration is config.EnumerationPerControl or
	// config.EnumerationCartesian.
	Enumeration string
	// CollapseByPrice keys variants by price alone (legacy behavior)
	// instead of the full option-value tuple.
	CollapseByPrice bool
}

type extractorUseCase struct {
	fetcher  repository.PageFetcher
	browser  repository.Browser
	products repository.ProductRepository
	images   repository.ImageRepository
	options  repository.OptionRepository
	variants repository.VariantRepository
	rules    ScrapeRules
	cfg      ExtractorConfig
}

// NewProductExtractor creates the product extraction use case.
func NewProductExtractor(
	fetcher repository.PageFetcher,
	browser repository.Browser,
	products repository.ProductRepository,
	images repository.ImageRepository,
	options repository.OptionRepository,
	variants repository.VariantRepository,
	rules ScrapeRules,
	cfg ExtractorConfig,
) ProductExtractor {
	return &extractorUseCase{
		fetcher:  fetcher,
		browser:  browser,
		products: products,
		images:   images,
		options:  options,
		variants: variants,
		rules:    rules,
		cfg:      cfg,
	}
}

// staticFields is what the plain-HTTP pass yields. Each field degrades to
// its sentinel independently.
type staticFields struct {
	Title       string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	ImageAlt    string
}

// optionControl is one option axis on the live page.
type optionControl struct {
	Category string
	Selector string
	Values   []string
}

// combination is one enumerated option selection with its observed price
// and, optionally, a variant-specific image.
type combination struct {
	Selections []selection
	Price      decimal.Decimal
	ImageURL   string
}

type selection struct {
	Category string
	Value    string
}

func (uc *extractorUseCase) ExtractProduct(ctx context.Context, productURL string) error {
	start := time.Now()
	slog.Info("Extracting product", "url", productURL)

	static := uc.extractStatic(ctx, productURL)

	product := &entity.Product{
		Title:       static.Title,
		Description: static.Description,
		Price:       static.Price,
		SourceURL:   productURL,
	}
	if err := uc.products.Upsert(ctx, product); err != nil {
		uc.recordFailure(productURL, start, "persistence")
		return fmt.Errorf("failed to upsert product %s: %w", productURL, err)
	}

	var primaryImage *entity.Image
	if static.ImageURL != "" {
		primaryImage = &entity.Image{
			ProductID: product.ID,
			URL:       static.ImageURL,
			AltText:   static.ImageAlt,
		}
		if err := uc.images.Upsert(ctx, primaryImage); err != nil {
			uc.recordFailure(productURL, start, "persistence")
			return fmt.Errorf("failed to upsert image for %s: %w", productURL, err)
		}
	}

	// The browser session is owned by this call and released on every exit
	// path; there is no external process reaping.
	session, err := uc.browser.Open(ctx, productURL)
	if err != nil {
		uc.recordFailure(productURL, start, "navigation")
		return fmt.Errorf("failed to open browser session for %s: %w", productURL, err)
	}
	defer session.Close()

	controls, err := uc.readOptionControls(ctx, session)
	if err != nil {
		uc.recordFailure(productURL, start, "extraction")
		return fmt.Errorf("failed to read option controls for %s: %w", productURL, err)
	}

	var combos []combination
	if uc.cfg.Enumeration == config.EnumerationCartesian {
		combos = uc.enumerateCartesian(ctx, session, controls)
	} else {
		combos = uc.enumeratePerControl(ctx, session, controls)
	}

	for _, combo := range combos {
		if err := uc.persistCombination(ctx, product, combo); err != nil {
			uc.recordFailure(productURL, start, "persistence")
			return fmt.Errorf("failed to persist variant of %s: %w", productURL, err)
		}
		metrics.VariantsDiscovered.Inc()
	}

	// Fully scraped: batch passes skip this product until the flag is
	// reset explicitly.
	if err := uc.products.SetAllowUpdate(ctx, product.ID, false); err != nil {
		uc.recordFailure(productURL, start, "persistence")
		return fmt.Errorf("failed to clear allow_update for %s: %w", productURL, err)
	}

	metrics.ExtractionsTotal.WithLabelValues("success", "").Inc()
	metrics.ExtractionDuration.WithLabelValues(domainOf(productURL)).
		Observe(time.Since(start).Seconds())
	slog.Info("Product extracted", "url", productURL,
		"variants", len(combos), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// extractStatic pulls title, description, base price and the primary image
// from a plain HTTP fetch. Every field degrades to its sentinel on its own;
// a failed fetch degrades them all.
func (uc *extractorUseCase) extractStatic(ctx context.Context, productURL string) staticFields {
	fields := staticFields{
		Title: utils.TitleFromSlug(productURL),
		Price: decimal.Zero,
	}
	if fields.Title == "" {
		fields.Title = titleSentinel
	}

	html, err := uc.fetcher.Fetch(ctx, productURL)
	if err != nil {
		slog.Error("Static fetch failed, falling back to sentinels",
			"url", productURL, "error", err)
		return fields
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Error("Static parse failed, falling back to sentinels",
			"url", productURL, "error", err)
		return fields
	}

	if title := strings.TrimSpace(doc.Find(uc.rules.TitleSelector).First().Text()); title != "" {
		fields.Title = title
	} else {
		slog.Warn("Title not found", "url", productURL, "selector", uc.rules.TitleSelector)
	}

	fields.Description = strings.TrimSpace(doc.Find(uc.rules.DescriptionSelector).First().Text())

	priceText := doc.Find(uc.rules.PriceSelector).First().Text()
	if price, err := utils.ParsePrice(priceText); err == nil {
		fields.Price = price
	} else {
		slog.Warn("Base price not parseable, defaulting to zero",
			"url", productURL, "text", priceText, "error", err)
	}

	img := doc.Find(uc.rules.ZoomImageSelector).First()
	if zoom, ok := img.Attr(uc.rules.ZoomImageAttribute); ok && strings.TrimSpace(zoom) != "" {
		fields.ImageURL = utils.EnsureProtocol(strings.TrimSpace(zoom))
		fields.ImageAlt, _ = img.Attr("alt")
	}

	return fields
}

// readOptionControls parses the rendered document for option selector
// controls: a category label plus a dropdown of values.
func (uc *extractorUseCase) readOptionControls(ctx context.Context, session repository.BrowserSession) ([]optionControl, error) {
	html, err := session.HTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var controls []optionControl
	doc.Find(uc.rules.OptionControlSelector).Each(func(i int, s *goquery.Selection) {
		category := strings.TrimSpace(s.Find(uc.rules.OptionLabelSelector).First().Text())
		sel := s.Find(uc.rules.OptionSelectSelector).First()
		if category == "" || sel.Length() == 0 {
			return
		}

		control := optionControl{
			Category: category,
			Selector: selectorFor(sel, uc.rules.OptionSelectSelector, i),
		}
		sel.Find("option").Each(func(j int, opt *goquery.Selection) {
			value, ok := opt.Attr("value")
			if !ok || strings.TrimSpace(value) == "" {
				return
			}
			control.Values = append(control.Values, value)
		})
		if len(control.Values) > 0 {
			controls = append(controls, control)
		}
	})
	return controls, nil
}

// selectorFor addresses one live select element: by id when it has one, by
// name otherwise, and by document position as a last resort.
func selectorFor(sel *goquery.Selection, selectSelector string, position int) string {
	if id, ok := sel.Attr("id"); ok && id != "" {
		return "#" + id
	}
	if name, ok := sel.Attr("name"); ok && name != "" {
		return fmt.Sprintf(`%s[name=%q]`, selectSelector, name)
	}
	return fmt.Sprintf("%s:nth-of-type(%d)", selectSelector, position+1)
}

// enumeratePerControl treats each (category, value) pair independently:
// m+n single-attribute combinations for two controls of m and n values.
func (uc *extractorUseCase) enumeratePerControl(ctx context.Context, session repository.BrowserSession, controls []optionControl) []combination {
	var combos []combination
	for _, control := range controls {
		for idx, value := range control.Values {
			combo, err := uc.observeSelection(ctx, session,
				[]selectionStep{{control: control, valueIndex: idx}})
			if err != nil {
				slog.Error("Option value unavailable, continuing",
					"category", control.Category, "value", value, "error", err)
				continue
			}
			combos = append(combos, combo)
		}
	}
	return combos
}

// enumerateCartesian walks the full cross-product of all controls' values.
func (uc *extractorUseCase) enumerateCartesian(ctx context.Context, session repository.BrowserSession, controls []optionControl) []combination {
	if len(controls) == 0 {
		return nil
	}

	indices := make([]int, len(controls))
	var combos []combination
	for {
		steps := make([]selectionStep, len(controls))
		for i := range controls {
			steps[i] = selectionStep{control: controls[i], valueIndex: indices[i]}
		}
		combo, err := uc.observeSelection(ctx, session, steps)
		if err != nil {
			slog.Error("Combination unavailable, continuing",
				"indices", fmt.Sprint(indices), "error", err)
		} else {
			combos = append(combos, combo)
		}

		// Odometer increment over the value indices.
		pos := len(indices) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(controls[pos].Values) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			return combos
		}
	}
}

type selectionStep struct {
	control    optionControl
	valueIndex int
}

// observeSelection drives the given control values, waits for the page to
// settle, then reads the now-current price and a positional variant image.
// A failed price read degrades to zero, a failed image read to no image.
func (uc *extractorUseCase) observeSelection(ctx context.Context, session repository.BrowserSession, steps []selectionStep) (combination, error) {
	combo := combination{Price: decimal.Zero}
	for _, step := range steps {
		value := step.control.Values[step.valueIndex]
		if err := session.SelectOption(ctx, step.control.Selector, value); err != nil {
			return combo, err
		}
		combo.Selections = append(combo.Selections, selection{
			Category: step.control.Category,
			Value:    value,
		})
	}
	if err := sleep(ctx, uc.cfg.SettleInterval); err != nil {
		return combo, err
	}

	priceText, err := session.ReadText(ctx, uc.rules.PriceSelector)
	if err != nil {
		slog.Warn("Variant price unavailable, defaulting to zero", "error", err)
	} else if price, perr := utils.ParsePrice(priceText); perr == nil {
		combo.Price = price
	} else {
		slog.Warn("Variant price not parseable, defaulting to zero",
			"text", priceText, "error", perr)
	}

	// Variant image keyed by the first selection's dropdown position.
	imageSelector := fmt.Sprintf(uc.rules.VariantImageSelector, steps[0].valueIndex)
	if src, err := session.ReadAttribute(ctx, imageSelector, uc.rules.VariantImageAttribute); err == nil {
		combo.ImageURL = utils.EnsureProtocol(strings.TrimSpace(src))
	}

	return combo, nil
}

// persistCombination reconciles one observed combination into option
// categories, option values and a variant row.
func (uc *extractorUseCase) persistCombination(ctx context.Context, product *entity.Product, combo combination) error {
	var (
		valueIDs   []int64
		selections []entity.OptionSelection
	)
	for _, sel := range combo.Selections {
		category, err := uc.options.GetOrCreateCategory(ctx, sel.Category)
		if err != nil {
			return err
		}
		value, err := uc.options.GetOrCreateValue(ctx, category.ID, sel.Value)
		if err != nil {
			return err
		}
		valueIDs = append(valueIDs, value.ID)
		selections = append(selections, entity.OptionSelection{
			ValueID:  value.ID,
			Category: category.Name,
			Value:    value.Value,
		})
	}

	variant := &entity.Variant{
		ProductID: product.ID,
		Price:     combo.Price,
		Options:   selections,
	}
	if uc.cfg.CollapseByPrice {
		variant.OptionKey = entity.VariantPriceKey(combo.Price)
	} else {
		variant.OptionKey = entity.VariantOptionKey(valueIDs)
	}

	if combo.ImageURL != "" {
		img := &entity.Image{ProductID: product.ID, URL: combo.ImageURL}
		if err := uc.images.Upsert(ctx, img); err != nil {
			return err
		}
		variant.Images = append(variant.Images, *img)
	}

	return uc.variants.Upsert(ctx, variant)
}

func (uc *extractorUseCase) recordFailure(productURL string, start time.Time, errorType string) {
	metrics.ExtractionsTotal.WithLabelValues("failure", errorType).Inc()
	metrics.ExtractionDuration.WithLabelValues(domainOf(productURL)).
		Observe(time.Since(start).Seconds())
}

func domainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "unknown"
	}
	return parsed.Hostname()
}
