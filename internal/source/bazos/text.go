package bazos

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	listingIDPattern = regexp.MustCompile(`/inzerat/(\d+)/`)
	digitRun         = regexp.MustCompile(`\d+`)
	bracketedDate    = regexp.MustCompile(`\[([^\]]+)\]`)
	mapPlace         = regexp.MustCompile(`place/(-?[0-9.]+),(-?[0-9.]+)`)
)

// breaking elements separate the text around them, unlike inline markup.
var breaking = map[string]bool{
	"br": true, "div": true, "p": true, "li": true, "td": true, "th": true, "tr": true,
}

// cleanText returns the text of s with whitespace runs collapsed. Line breaks
// and block elements count as whitespace.
func cleanText(s *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range s.Nodes {
		writeText(&sb, n)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		if breaking[n.Data] {
			sb.WriteByte(' ')
			defer sb.WriteByte(' ')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}
}

// fold normalizes s for case-insensitive comparison of Czech labels.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

func containsFold(s, substr string) bool {
	return strings.Contains(fold(s), fold(substr))
}

func parseListingID(u string) string {
	m := listingIDPattern.FindStringSubmatch(u)
	if m == nil {
		return ""
	}
	return m[1]
}

// parsePrice drops whitespace (including no-break spaces used as thousands
// separators) and reads the first digit run.
func parsePrice(text string) *int64 {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)

	m := digitRun.FindString(compact)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseViews(text string) int {
	m := digitRun.FindString(text)
	if m == "" {
		return 0
	}
	v, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return v
}

func parseDate(text string) string {
	m := bracketedDate.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// parseCoordinates reads "place/<lat>,<lng>" out of a map link.
func parseCoordinates(href string) (lat, lng float64, ok bool) {
	m := mapPlace.FindStringSubmatch(href)
	if m == nil {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lng, true
}
