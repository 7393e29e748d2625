package adapters

import (
	"bytes"
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

// HTMLAdapter extracts visible text from HTML documents such as emailed invoices
type HTMLAdapter struct{}

// NewHTMLAdapter creates a new HTML adapter
func NewHTMLAdapter() *HTMLAdapter {
	return &HTMLAdapter{}
}

// Name returns the adapter name
func (a *HTMLAdapter) Name() string {
	return "html"
}

// CanHandle checks for HTML media types
func (a *HTMLAdapter) CanHandle(mediaType string) bool {
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// ExtractText parses the document and returns its visible text
func (a *HTMLAdapter) ExtractText(_ context.Context, data []byte, _ string) (Result, error) {
	text, err := decodeText(data)
	if err != nil {
		return Result{}, err
	}
	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return Result{}, eris.Wrap(err, "parse html")
	}
	return Result{Text: visibleText(doc)}, nil
}

// visibleText extracts text nodes, skipping scripts and styles.
// Block elements end a line so table rows stay separate.
func visibleText(n *html.Node) string {
	var buf bytes.Buffer

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			case "br":
				buf.WriteString("\n")
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && isBlock(n.Data) {
			buf.WriteString("\n")
		}
	}

	walk(n)
	return cleanText(buf.String())
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "tr", "li", "table", "h1", "h2", "h3", "h4", "h5", "h6", "section", "header", "footer":
		return true
	}
	return false
}
