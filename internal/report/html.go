package report

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// htmlRenderer converts the assembled Markdown. The table extension is
// required for the tables the financial sections emit.
var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

func renderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := htmlRenderer.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render report html: %w", err)
	}
	return buf.String(), nil
}
