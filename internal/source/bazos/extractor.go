package bazos

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"listing_harvester/internal/domain"
)

const listingSelector = "div.inzeraty.inzeratyflex"

var errIncompleteCard = errors.New("card has no title link")

// Extractor turns a result page into raw listings, one per card.
type Extractor struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger: logger,
		now:    time.Now,
	}
}

// Extract returns the listings of every well-formed card on the page. A card
// that fails to extract is logged and skipped.
func (e *Extractor) Extract(doc *goquery.Document, category, baseURL string) []domain.Listing {
	base, err := url.Parse(baseURL + "/")
	if err != nil {
		e.logger.Error("invalid base url", "base_url", baseURL, "error", err)
		return nil
	}

	var listings []domain.Listing
	doc.Find(listingSelector).Each(func(i int, card *goquery.Selection) {
		listing, err := e.extractCard(card, category, base)
		if errors.Is(err, errIncompleteCard) {
			return
		}
		if err != nil {
			e.logger.Warn("failed to extract listing", "card", i, "error", err)
			return
		}
		listings = append(listings, listing)
	})

	return listings
}

func (e *Extractor) extractCard(card *goquery.Selection, category string, base *url.URL) (domain.Listing, error) {
	link := card.Find("h2.nadpis a").First()
	title := cleanText(link)
	href, _ := link.Attr("href")
	if link.Length() == 0 || title == "" || strings.TrimSpace(href) == "" {
		return domain.Listing{}, errIncompleteCard
	}

	listingURL, err := resolve(base, href)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("resolve listing url %q: %w", href, err)
	}

	listing := domain.Listing{
		ID:          parseListingID(listingURL),
		Title:       title,
		URL:         listingURL,
		Category:    category,
		Description: cleanText(card.Find("div.popis").First()),
		Location:    cleanText(card.Find("div.inzeratylok").First()),
		Views:       parseViews(cleanText(card.Find("div.inzeratyview").First())),
		ScrapedAt:   e.now(),
	}

	if src, ok := card.Find("div.inzeratynadpis img.obrazek").First().Attr("src"); ok && src != "" {
		imageURL, err := resolve(base, src)
		if err != nil {
			return domain.Listing{}, fmt.Errorf("resolve image url %q: %w", src, err)
		}
		listing.ImageURL = &imageURL
	}

	listing.PriceText = cleanText(card.Find("div.inzeratycena").First())
	listing.Price = parsePrice(listing.PriceText)

	dateInfo := cleanText(card.Find("span.velikost10").First())
	listing.IsTop = strings.Contains(dateInfo, "TOP")
	listing.Date = parseDate(dateInfo)

	return listing, nil
}

func resolve(base *url.URL, ref string) (string, error) {
	if strings.HasPrefix(ref, "http") {
		return ref, nil
	}
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}
