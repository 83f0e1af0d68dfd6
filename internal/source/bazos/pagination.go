package bazos

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultPageSize is the number of cards on a full result page.
	DefaultPageSize = 20

	paginationSelector = "div.strankovani"
	summarySelector    = "div.listainzerat.inzeratyflex"
)

var (
	pathOffset   = regexp.MustCompile(`/(\d+)/`)
	nextLinkText = regexp.MustCompile(`Další|Next`)
	shownOfTotal = regexp.MustCompile(`Zobrazeno\s*\d+\s*[-–]\s*\d+\s*inzerát\S*\s*z\s*(\d[\d ]*)`)
)

// Detector is one strategy for finding the offset of the next result page.
// ok is false when the strategy has no evidence of a next page.
type Detector interface {
	Detect(doc *goquery.Document, currentOffset int) (nextOffset int, ok bool)
}

// Advancer tries its detectors in order and stops at the first verdict.
type Advancer struct {
	detectors []Detector
}

// NewAdvancer returns the standard chain: explicit navigation, then the
// full-page heuristic, then the "shown A-B of N" summary.
func NewAdvancer(pageSize int) *Advancer {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return NewAdvancerWithDetectors(
		NextLinkDetector{},
		FullPageDetector{PageSize: pageSize},
		TotalCountDetector{PageSize: pageSize},
	)
}

func NewAdvancerWithDetectors(detectors ...Detector) *Advancer {
	return &Advancer{detectors: detectors}
}

// Next reports whether another page follows and its offset. It depends only on
// the document and currentOffset, and never returns an offset below it.
func (a *Advancer) Next(doc *goquery.Document, currentOffset int) (bool, int) {
	for _, d := range a.detectors {
		if next, ok := d.Detect(doc, currentOffset); ok && next > currentOffset {
			return true, next
		}
	}
	return false, currentOffset
}

// NextLinkDetector reads the pagination bar. It prefers the "next" anchor and
// otherwise picks the smallest linked offset beyond the current one.
type NextLinkDetector struct{}

func (NextLinkDetector) Detect(doc *goquery.Document, currentOffset int) (int, bool) {
	bar := doc.Find(paginationSelector)
	if bar.Length() == 0 {
		return 0, false
	}

	anchors := bar.Find("a")

	next := anchors.FilterFunction(func(_ int, a *goquery.Selection) bool {
		return nextLinkText.MatchString(a.Text())
	}).First()
	if next.Length() > 0 {
		href, _ := next.Attr("href")
		if offset, ok := hrefOffset(href); ok && offset > currentOffset {
			return offset, true
		}
	}

	best, found := 0, false
	anchors.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		offset, ok := hrefOffset(href)
		if !ok || offset <= currentOffset {
			return
		}
		if !found || offset < best {
			best, found = offset, true
		}
	})

	return best, found
}

// FullPageDetector assumes more results follow a page with a full set of cards.
type FullPageDetector struct {
	PageSize int
}

func (d FullPageDetector) Detect(doc *goquery.Document, currentOffset int) (int, bool) {
	if doc.Find(listingSelector).Length() >= d.PageSize {
		return currentOffset + d.PageSize, true
	}
	return 0, false
}

// TotalCountDetector compares the next offset against the total found in a
// "Zobrazeno 1-20 inzerátů z 421" summary.
type TotalCountDetector struct {
	PageSize int
}

func (d TotalCountDetector) Detect(doc *goquery.Document, currentOffset int) (int, bool) {
	summary := doc.Find(summarySelector)
	if summary.Length() == 0 {
		return 0, false
	}

	m := shownOfTotal.FindStringSubmatch(cleanText(summary))
	if m == nil {
		return 0, false
	}

	total, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(m[1]), " ", ""))
	if err != nil {
		return 0, false
	}

	next := currentOffset + d.PageSize
	if next < total {
		return next, true
	}
	return 0, false
}

// hrefOffset reads a positive offset from a "/<n>/" path segment.
func hrefOffset(href string) (int, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return 0, false
	}

	path := u.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}

	m := pathOffset.FindStringSubmatch(path)
	if m == nil {
		return 0, false
	}
	offset, err := strconv.Atoi(m[1])
	if err != nil || offset <= 0 {
		return 0, false
	}
	return offset, true
}
