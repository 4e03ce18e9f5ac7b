package pagetext

import (
	"fmt"
	"io"
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
	"golang.org/x/net/html"
)

// HTMLExtractor handles HTML files. Output is a single page where every
// heading and block element sits on its own line, which keeps item
// headings detectable by the anchor scan.
type HTMLExtractor struct{}

func (e *HTMLExtractor) Extract(r io.Reader, _ string) ([]filing.Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6", "p", "li", "blockquote":
				if t := textContent(n); t != "" {
					lines = append(lines, t)
				}
				return
			case "tr":
				if t := tableRowText(n); t != "" {
					lines = append(lines, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	return []filing.Page{{Number: 1, Text: strings.Join(lines, "\n")}}, nil
}

// tableRowText joins a row's cells with a double space so the row reads
// as one line of columns.
func tableRowText(tr *html.Node) string {
	var cells []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th") {
			if t := textContent(n); t != "" {
				cells = append(cells, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(tr)
	return strings.Join(cells, "  ")
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
