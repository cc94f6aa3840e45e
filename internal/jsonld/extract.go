package jsonld

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/grappling-events/internal/logger"
)

// ContentType is the script type attribute that marks a data island
const ContentType = "application/ld+json"

// Selector matches structured-data islands in a document
const Selector = `script[type="application/ld+json"]`

// Extract parses every data island in an HTML document. Malformed islands
// are skipped. Blocks are returned in document order.
func Extract(html string) []Node {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Debug("Unparseable HTML document", logger.Fields{"error": err.Error()})
		return nil
	}
	return FromDocument(doc)
}

// FromDocument parses every data island in an already-parsed document
func FromDocument(doc *goquery.Document) []Node {
	blocks := make([]Node, 0)

	doc.Find("script[type]").Each(func(i int, sel *goquery.Selection) {
		typ, _ := sel.Attr("type")
		if !strings.EqualFold(strings.TrimSpace(typ), ContentType) {
			return
		}

		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		n, err := Parse([]byte(raw))
		if err != nil {
			logger.Debug("Skipping malformed data island", logger.Fields{
				"index": i,
				"error": err.Error(),
			})
			return
		}
		blocks = append(blocks, n)
	})

	return blocks
}
