package pagetext

import (
	"bytes"
	"io"
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor handles Markdown files using goldmark. Headings and
// block content land on separate lines of a single page.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Extract(r io.Reader, _ string) ([]filing.Page, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var lines []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if t := string(node.Text(src)); t != "" {
				lines = append(lines, t)
			}
		default:
			if t := extractText(n, src); t != "" {
				lines = append(lines, t)
			}
		}
	}

	return []filing.Page{{Number: 1, Text: strings.Join(lines, "\n")}}, nil
}

// extractText gets the text content of a goldmark AST node. Leaf blocks
// come straight from their source lines; container blocks recurse with
// one line per child.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		if t := extractText(c, src); t != "" {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(t)
		}
	}
	return strings.TrimSpace(buf.String())
}
