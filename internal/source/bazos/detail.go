package bazos

import (
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"listing_harvester/internal/domain"
)

const (
	nameLabel   = "Jméno:"
	phoneLabel  = "Telefon:"
	phoneHidden = "zobraz číslo"
)

// Enricher fills in the fields only present on a listing's detail page.
type Enricher struct {
	fetcher PageFetcher
	logger  *slog.Logger
}

func NewEnricher(fetcher PageFetcher, logger *slog.Logger) *Enricher {
	return &Enricher{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Enrich fetches the detail page of listing and merges what it finds. On any
// failure the listing is returned unchanged and ok is false.
func (e *Enricher) Enrich(ctx context.Context, listing domain.Listing) (enriched domain.Listing, ok bool) {
	doc, err := e.fetcher.Fetch(ctx, listing.URL)
	if err != nil {
		e.logger.Warn("failed to fetch listing detail",
			"listing_id", listing.ID,
			"url", listing.URL,
			"error", err,
		)
		return listing, false
	}

	mergeDetails(&listing, doc)

	e.logger.Debug("enriched listing", "listing_id", listing.ID)
	return listing, true
}

// mergeDetails overwrites only the fields found on the page.
func mergeDetails(l *domain.Listing, doc *goquery.Document) {
	if desc := doc.Find("div.popisdetail").First(); desc.Length() > 0 {
		text := cleanText(desc)
		l.FullDescription = &text
	}

	contact := doc.Find(`table[width="100%"]`)
	if contact.Length() > 0 {
		if name, ok := labelledCell(contact, nameLabel); ok {
			l.ContactName = &name
		}

		if phone, ok := labelledCell(contact, phoneLabel); ok && phone != "" && !containsFold(phone, phoneHidden) {
			l.Phone = &phone
		}

		contact.Find(`a[href*="google.com/maps"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			lat, lng, ok := parseCoordinates(href)
			if !ok {
				return true
			}
			l.Coordinates = &domain.Coordinates{Latitude: lat, Longitude: lng}
			return false
		})
	}

	if carousel := doc.Find("div.carousel").First(); carousel.Length() > 0 {
		images := []string{}
		carousel.Find("img.carousel-cell-image").Each(func(_ int, img *goquery.Selection) {
			src, _ := img.Attr("data-flickity-lazyload")
			if src == "" {
				src, _ = img.Attr("src")
			}
			if src != "" {
				images = append(images, src)
			}
		})
		l.Images = images
	}

	if similar := doc.Find("div.podobne").First(); similar.Length() > 0 {
		stubs := []domain.SimilarListing{}
		similar.Find(listingSelector).Each(func(_ int, card *goquery.Selection) {
			a := card.Find("a").First()
			if a.Length() == 0 {
				return
			}
			href, _ := a.Attr("href")
			stubs = append(stubs, domain.SimilarListing{
				Title: cleanText(a),
				URL:   href,
			})
		})
		l.SimilarListings = stubs
	}
}

// labelledCell finds the innermost cell whose text contains label and returns
// the text of the next cell in the same row.
func labelledCell(scope *goquery.Selection, label string) (string, bool) {
	var value string
	var found bool

	scope.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		if td.Find("td").Length() > 0 || !containsFold(cleanText(td), label) {
			return true
		}
		next := td.NextAllFiltered("td").First()
		if next.Length() == 0 {
			return true
		}
		value = cleanText(next)
		found = true
		return false
	})

	return value, found
}
