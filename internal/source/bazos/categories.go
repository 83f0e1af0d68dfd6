package bazos

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownCategory = errors.New("unknown category")

// categories are the site sections, each served from its own subdomain.
var categories = map[string]struct{}{
	"auto":      {},
	"deti":      {},
	"dum":       {},
	"elektro":   {},
	"foto":      {},
	"hudba":     {},
	"knihy":     {},
	"mobil":     {},
	"motorky":   {},
	"nabytek":   {},
	"obleceni":  {},
	"pc":        {},
	"prace":     {},
	"reality":   {},
	"sluzby":    {},
	"sport":     {},
	"stroje":    {},
	"vstupenky": {},
	"zvirata":   {},
	"ostatni":   {},
}

// KnownCategory reports whether category is a site section.
func KnownCategory(category string) bool {
	_, ok := categories[category]
	return ok
}

// CategoryBaseURL renders the base URL of a category from a host template
// such as "https://%s.bazos.cz". A template without a verb is used as is.
func CategoryBaseURL(template, category string) (string, error) {
	if !KnownCategory(category) {
		return "", fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	if !strings.Contains(template, "%s") {
		return strings.TrimRight(template, "/"), nil
	}
	return strings.TrimRight(fmt.Sprintf(template, category), "/"), nil
}
