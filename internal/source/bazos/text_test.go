package bazos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		text string
		want *int64
	}{
		{"1 500 Kč", ptr(int64(1500))},
		{"1\u00a0500\u00a0Kč", ptr(int64(1500))},
		{"250 000 Kč", ptr(int64(250000))},
		{"Dohodou", nil},
		{"", nil},
		{"V textu", nil},
		{"12 Kč / 3 ks", ptr(int64(12))},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePrice(tt.text))
		})
	}
}

func TestParseViews(t *testing.T) {
	assert.Equal(t, 153, parseViews("153 x"))
	assert.Equal(t, 0, parseViews(""))
	assert.Equal(t, 0, parseViews("nikdo"))
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, "15.9. 2025", parseDate("- TOP - [15.9. 2025]"))
	assert.Equal(t, "", parseDate("no date"))
}

func TestParseListingID(t *testing.T) {
	assert.Equal(t, "187443539", parseListingID("https://auto.bazos.cz/inzerat/187443539/skoda-octavia.php"))
	assert.Equal(t, "", parseListingID("https://auto.bazos.cz/something/else"))
}

func TestParseCoordinates(t *testing.T) {
	lat, lng, ok := parseCoordinates("https://www.google.com/maps/place/50.0755,14.4378")
	require.True(t, ok)
	assert.InDelta(t, 50.0755, lat, 1e-9)
	assert.InDelta(t, 14.4378, lng, 1e-9)

	_, _, ok = parseCoordinates("https://www.google.com/maps/search/Praha")
	assert.False(t, ok)
}

func TestContainsFold(t *testing.T) {
	assert.True(t, containsFold("Zobraz číslo", "zobraz číslo"))
	assert.True(t, containsFold("ZOBRAZ ČÍSLO", "zobraz číslo"))
	assert.False(t, containsFold("777 123 456", "zobraz číslo"))
}

func ptr[T any](v T) *T {
	return &v
}
