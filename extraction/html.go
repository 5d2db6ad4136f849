package extraction

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// HTMLProcessor strips markup from an HTML payload and returns the
// remaining text, whitespace collapsed to single spaces, as one item.
type HTMLProcessor struct{}

func (HTMLProcessor) Extract(data []byte) ([]string, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("decode html: %w", ErrDecode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style").Remove()

	var parts []string
	for _, node := range doc.Selection.Nodes {
		collectText(node, &parts)
	}

	return []string{strings.Join(parts, " ")}, nil
}

// collectText gathers trimmed text nodes in document order, which keeps a
// single space between text from adjacent elements.
func collectText(node *html.Node, parts *[]string) {
	if node.Type == html.TextNode {
		for _, field := range strings.Fields(node.Data) {
			*parts = append(*parts, field)
		}
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, parts)
	}
}

var _ Processor = HTMLProcessor{}
