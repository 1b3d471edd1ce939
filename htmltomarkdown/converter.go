// Package htmltomarkdown converts downloaded HTML documentation into
// markdown that the indexer can scan.
package htmltomarkdown

import (
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/docpkg"
	"golang.org/x/net/html"
)

// Ensure Converter implements docpkg.Converter at compile time.
var _ docpkg.Converter = (*Converter)(nil)

// Converter wraps html-to-markdown to convert HTML to Markdown. The
// document <title> is carried over as a front matter title when the
// converted body does not open with a level one heading.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown.
func (c *Converter) Convert(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", docpkg.Errorf(docpkg.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(input)
	if err != nil {
		return "", err
	}

	title := Title(input)
	if title == "" || strings.HasPrefix(strings.TrimSpace(result), "# ") {
		return result, nil
	}
	return "---\ntitle: " + strconv.Quote(title) + "\n---\n\n" + result, nil
}

// Title returns the trimmed text of the first <title> element, or "".
func Title(input string) string {
	doc, err := html.Parse(strings.NewReader(input))
	if err != nil {
		return ""
	}
	var find func(*html.Node) string
	find = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "title" {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			return strings.Join(strings.Fields(sb.String()), " ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := find(c); t != "" {
				return t
			}
		}
		return ""
	}
	return find(doc)
}
