package bazos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "https://auto.bazos.cz"

func TestExtractor_Extract_Card(t *testing.T) {
	html := `<html><body>
<div class="inzeraty inzeratyflex">
  <div class="inzeratynadpis">
    <img class="obrazek" src="/img/1/187443539.jpg">
    <h2 class="nadpis"><a href="/inzerat/187443539/skoda-octavia.php">Škoda Octavia 1.9 TDI</a></h2>
    <span class="velikost10"> - TOP - [15.9. 2025]</span>
    <div class="popis">Prodám  octavii,
      STK 2027</div>
  </div>
  <div class="inzeratycena"><b>1 500 Kč</b></div>
  <div class="inzeratylok">Praha<br>110 00</div>
  <div class="inzeratyview">153 x</div>
</div>
</body></html>`

	now := time.Date(2025, 9, 15, 10, 0, 0, 0, time.UTC)
	e := NewExtractor(discardLogger())
	e.now = func() time.Time { return now }

	listings := e.Extract(mustDoc(t, html), "auto", base)
	require.Len(t, listings, 1)

	l := listings[0]
	assert.Equal(t, "187443539", l.ID)
	assert.Equal(t, "Škoda Octavia 1.9 TDI", l.Title)
	assert.Equal(t, "https://auto.bazos.cz/inzerat/187443539/skoda-octavia.php", l.URL)
	assert.Equal(t, "auto", l.Category)
	require.NotNil(t, l.Price)
	assert.Equal(t, int64(1500), *l.Price)
	assert.Equal(t, "1 500 Kč", l.PriceText)
	assert.Equal(t, "Prodám octavii, STK 2027", l.Description)
	assert.Equal(t, "Praha 110 00", l.Location)
	assert.Equal(t, 153, l.Views)
	assert.Equal(t, "15.9. 2025", l.Date)
	assert.True(t, l.IsTop)
	require.NotNil(t, l.ImageURL)
	assert.Equal(t, "https://auto.bazos.cz/img/1/187443539.jpg", *l.ImageURL)
	assert.Equal(t, now, l.ScrapedAt)
}

func TestExtractor_Extract_PriceWithoutDigits(t *testing.T) {
	html := `<div class="inzeraty inzeratyflex">
  <h2 class="nadpis"><a href="/inzerat/5/x.php">Kolo</a></h2>
  <div class="inzeratycena">Dohodou</div>
</div>`

	listings := NewExtractor(discardLogger()).Extract(mustDoc(t, html), "sport", base)
	require.Len(t, listings, 1)
	assert.Nil(t, listings[0].Price)
	assert.Equal(t, "Dohodou", listings[0].PriceText)
	assert.False(t, listings[0].IsTop)
	assert.Nil(t, listings[0].ImageURL)
	assert.Equal(t, 0, listings[0].Views)
}

func TestExtractor_Extract_SkipsBrokenCards(t *testing.T) {
	html := `<html><body>
<div class="inzeraty inzeratyflex"><div class="popis">no title at all</div></div>
<div class="inzeraty inzeratyflex"><h2 class="nadpis">Title without link</h2></div>
<div class="inzeraty inzeratyflex"><h2 class="nadpis"><a>Link without href</a></h2></div>
<div class="inzeraty inzeratyflex"><h2 class="nadpis"><a href="/inzerat/7/ok.php">Good</a></h2></div>
<div class="inzeraty inzeratyflex"><h2 class="nadpis"><a href="/jinde/ok.php">No id</a></h2></div>
</body></html>`

	listings := NewExtractor(discardLogger()).Extract(mustDoc(t, html), "auto", base)
	require.Len(t, listings, 2)
	assert.Equal(t, "7", listings[0].ID)
	assert.Equal(t, "", listings[1].ID, "unmatched url yields an empty id")
	assert.Equal(t, "No id", listings[1].Title)
}

func TestExtractor_Extract_AbsoluteImageKept(t *testing.T) {
	html := `<div class="inzeraty inzeratyflex">
  <div class="inzeratynadpis"><img class="obrazek" src="https://www.bazos.cz/img/1t/9.jpg"></div>
  <h2 class="nadpis"><a href="https://auto.bazos.cz/inzerat/9/x.php">X</a></h2>
</div>`

	listings := NewExtractor(discardLogger()).Extract(mustDoc(t, html), "auto", base)
	require.Len(t, listings, 1)
	assert.Equal(t, "https://www.bazos.cz/img/1t/9.jpg", *listings[0].ImageURL)
	assert.Equal(t, "https://auto.bazos.cz/inzerat/9/x.php", listings[0].URL)
}

func TestExtractor_Extract_EmptyPage(t *testing.T) {
	listings := NewExtractor(discardLogger()).Extract(mustDoc(t, "<html><body></body></html>"), "auto", base)
	assert.Empty(t, listings)
}
