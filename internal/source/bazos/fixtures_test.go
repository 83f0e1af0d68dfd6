package bazos

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

// card renders one result-page card for listing id.
func card(id int) string {
	return fmt.Sprintf(`
<div class="inzeraty inzeratyflex">
  <div class="inzeratynadpis">
    <a href="/inzerat/%[1]d/inzerat-%[1]d.php"><img class="obrazek" src="/img/%[1]d.jpg"></a>
    <h2 class="nadpis"><a href="/inzerat/%[1]d/inzerat-%[1]d.php">Inzerát %[1]d</a></h2>
    <span class="velikost10"> - [15.9. 2025]</span>
    <div class="popis">Popis %[1]d</div>
  </div>
  <div class="inzeratycena"><b>1 %[1]d Kč</b></div>
  <div class="inzeratylok">Praha<br>110 00</div>
  <div class="inzeratyview">%[1]d x</div>
</div>`, id)
}

type pageOpts struct {
	nav     string
	summary string
}

// resultPage renders a result page with one card per id.
func resultPage(ids []int, opts pageOpts) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	if opts.summary != "" {
		sb.WriteString(`<div class="listainzerat inzeratyflex">` + opts.summary + `</div>`)
	}
	for _, id := range ids {
		sb.WriteString(card(id))
	}
	if opts.nav != "" {
		sb.WriteString(`<div class="strankovani">` + opts.nav + `</div>`)
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func idRange(from, n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = from + i
	}
	return ids
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stringsReader(s string) *strings.Reader {
	return strings.NewReader(s)
}
