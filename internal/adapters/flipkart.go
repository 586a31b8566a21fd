package adapters

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/marketlens/price-intel-scraper/internal/models"
)

const flipkartPlatform = "Flipkart"

// Flipkart scrapes flipkart search results and product pages. Flipkart ships
// several card layouts at once (grid vs list cohorts), hence the longer
// fallback chains.
type Flipkart struct {
	baseURL string

	cardSelectors   selectorChain
	titleSelectors  selectorChain
	linkSelectors   selectorChain
	priceSelectors  selectorChain
	ratingSelectors selectorChain

	productTitleSelectors  selectorChain
	productPriceSelectors  selectorChain
	productRatingSelectors selectorChain
}

// NewFlipkart builds the adapter.
func NewFlipkart(baseURL string) *Flipkart {
	if baseURL == "" {
		baseURL = "https://www.flipkart.com"
	}
	return &Flipkart{
		baseURL: baseURL,

		cardSelectors:   selectorChain{"div._13oc-S", "div._1AtVbE"},
		titleSelectors:  selectorChain{"div._4rR01T", "a.s1Q9rs"},
		linkSelectors:   selectorChain{"a._1fQZEK", "a.s1Q9rs"},
		priceSelectors:  selectorChain{"div._30jeq3"},
		ratingSelectors: selectorChain{"div._3LWZlK"},

		productTitleSelectors:  selectorChain{"span.VU-ZEz", "span.B_NuCI"},
		productPriceSelectors:  selectorChain{"div._30jeq3"},
		productRatingSelectors: selectorChain{"div._3LWZlK"},
	}
}

func (f *Flipkart) PlatformTag() string {
	return flipkartPlatform
}

func (f *Flipkart) BuildSearchURL(query string) string {
	return fmt.Sprintf("%s/search?q=%s", f.baseURL, url.QueryEscape(query))
}

func (f *Flipkart) ParseListing(markup string) []models.RawField {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var fields []models.RawField
	firstMatch(doc, f.cardSelectors).Each(func(_ int, card *goquery.Selection) {
		name := f.titleSelectors.text(card)
		href := f.linkSelectors.attr(card, "href")
		if name == "" || href == "" {
			return
		}

		fields = append(fields, models.RawField{
			Name:       name,
			PriceText:  f.priceSelectors.text(card),
			RatingText: f.ratingSelectors.text(card),
			URL:        resolveURL(f.baseURL, href),
			Platform:   flipkartPlatform,
		})
	})
	return fields
}

func (f *Flipkart) ParseProduct(markup string, pageURL string) *models.RawField {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	name := f.productTitleSelectors.text(doc.Selection)
	if name == "" {
		return nil
	}

	return &models.RawField{
		Name:       name,
		PriceText:  f.productPriceSelectors.text(doc.Selection),
		RatingText: f.productRatingSelectors.text(doc.Selection),
		URL:        pageURL,
		Platform:   flipkartPlatform,
	}
}
