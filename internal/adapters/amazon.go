package adapters

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/marketlens/price-intel-scraper/internal/models"
)

const amazonPlatform = "Amazon"

// Amazon scrapes amazon search results and product pages.
type Amazon struct {
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

// NewAmazon builds the adapter. baseURL defaults to the Indian storefront.
func NewAmazon(baseURL string) *Amazon {
	if baseURL == "" {
		baseURL = "https://www.amazon.in"
	}
	return &Amazon{
		baseURL: baseURL,

		cardSelectors:   selectorChain{"div[data-component-type='s-search-result']"},
		titleSelectors:  selectorChain{"h2 a span", "h2 span"},
		linkSelectors:   selectorChain{"h2 a", "a.a-link-normal.s-no-outline"},
		priceSelectors:  selectorChain{"span.a-price span.a-offscreen"},
		ratingSelectors: selectorChain{"span.a-icon-alt"},

		productTitleSelectors:  selectorChain{"#productTitle"},
		productPriceSelectors:  selectorChain{"#corePriceDisplay_desktop_feature_div .a-price span.a-offscreen", "span.a-price span.a-offscreen"},
		productRatingSelectors: selectorChain{"#averageCustomerReviews span.a-icon-alt", "span.a-icon-alt"},
	}
}

func (a *Amazon) PlatformTag() string {
	return amazonPlatform
}

func (a *Amazon) BuildSearchURL(query string) string {
	return fmt.Sprintf("%s/s?k=%s", a.baseURL, url.QueryEscape(query))
}

func (a *Amazon) ParseListing(markup string) []models.RawField {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var fields []models.RawField
	firstMatch(doc, a.cardSelectors).Each(func(_ int, card *goquery.Selection) {
		name := a.titleSelectors.text(card)
		href := a.linkSelectors.attr(card, "href")
		// Partial markup is expected; a card without a name and link is not
		// an error, it just is not a product.
		if name == "" || href == "" {
			return
		}

		fields = append(fields, models.RawField{
			Name:       name,
			PriceText:  a.priceSelectors.text(card),
			RatingText: a.ratingSelectors.text(card),
			URL:        resolveURL(a.baseURL, href),
			Platform:   amazonPlatform,
		})
	})
	return fields
}

func (a *Amazon) ParseProduct(markup string, pageURL string) *models.RawField {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	name := a.productTitleSelectors.text(doc.Selection)
	if name == "" {
		return nil
	}

	return &models.RawField{
		Name:       name,
		PriceText:  a.productPriceSelectors.text(doc.Selection),
		RatingText: a.productRatingSelectors.text(doc.Selection),
		URL:        pageURL,
		Platform:   amazonPlatform,
	}
}
