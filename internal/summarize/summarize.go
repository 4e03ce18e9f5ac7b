// Package summarize produces bullet summaries for report sections through
// an OpenAI-compatible chat endpoint. The rest of the service only sees
// the Summarizer interface; without an API key the no-op implementation is
// wired in and reports fall back to snippet bullets.
package summarize

import "context"

// Summarizer turns page-tagged section excerpts into bullet text.
type Summarizer interface {
	SummarizeSection(ctx context.Context, title string, excerpts []string, pages []int) (string, error)
}

// Noop returns no summary. Injected when OPENAI_API_KEY is empty.
type Noop struct{}

func (Noop) SummarizeSection(ctx context.Context, title string, excerpts []string, pages []int) (string, error) {
	return "", nil
}
