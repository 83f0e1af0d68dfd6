package bazos

import (
	"net/url"
	"strconv"
	"strings"
)

// Query holds the optional search filters of a category scrape.
type Query struct {
	SearchQuery string
	Location    string
	PriceMin    int
	PriceMax    int
}

// searchURL builds a result-page URL. Offset 0 is the first page and is
// left out of the path. Filters are appended in a fixed order when set.
func searchURL(baseURL string, offset int, q Query) string {
	var sb strings.Builder
	sb.WriteString(baseURL)
	sb.WriteString("/")
	if offset > 0 {
		sb.WriteString(strconv.Itoa(offset))
		sb.WriteString("/")
	}

	var params []string
	if q.SearchQuery != "" {
		params = append(params, "hledat="+url.QueryEscape(q.SearchQuery))
	}
	if q.Location != "" {
		params = append(params, "hlokalita="+url.QueryEscape(q.Location))
	}
	if q.PriceMin > 0 {
		params = append(params, "cenaod="+strconv.Itoa(q.PriceMin))
	}
	if q.PriceMax > 0 {
		params = append(params, "cenado="+strconv.Itoa(q.PriceMax))
	}

	if len(params) > 0 {
		sb.WriteString("?")
		sb.WriteString(strings.Join(params, "&"))
	}

	return sb.String()
}
