// Package report renders a stored analysis result into an analyst report:
// a Markdown document, its HTML rendering, and a metadata block counting
// what went in. Section summaries come from the configured summarizer,
// degrading to snippet bullets when it produces nothing.
package report

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dmorhan/filingsift/internal/filing"
	"github.com/dmorhan/filingsift/internal/store"
	"github.com/dmorhan/filingsift/internal/summarize"
)

// Report is one rendered analyst report.
type Report struct {
	Markdown string   `json:"markdown"`
	HTML     string   `json:"html"`
	Metadata Metadata `json:"metadata"`
}

// SectionRef locates one summarized section in the source document.
type SectionRef struct {
	Title     string `json:"title"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
}

// Metadata counts what went into a report.
type Metadata struct {
	CitationsCount  int          `json:"citations_count"`
	Sections        []SectionRef `json:"sections"`
	KPICount        int          `json:"kpi_count"`
	FinancialTables int          `json:"financial_tables"`
	NonGAAPItems    int          `json:"non_gaap_items"`
	RiskCount       int          `json:"risk_count"`
}

// sectionSummary pairs a sliced section with its rendered summary text.
type sectionSummary struct {
	filing.Section
	Summary string
}

// Builder renders reports from stored records.
type Builder struct {
	summarizer summarize.Summarizer
	log        *slog.Logger
}

// NewBuilder returns a Builder. A nil summarizer falls back to the no-op
// implementation and a nil logger to slog.Default.
func NewBuilder(s summarize.Summarizer, log *slog.Logger) *Builder {
	if s == nil {
		s = summarize.Noop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Builder{summarizer: s, log: log}
}

// Build renders the record's analysis result into a Report. The error
// paths are a record without a result and a cancelled context; summarizer
// failures degrade to fallback bullets instead.
func (b *Builder) Build(ctx context.Context, rec *store.Record) (*Report, error) {
	if rec == nil || rec.Result == nil {
		return nil, errors.New("record has no analysis result")
	}
	res := rec.Result

	sections, err := b.summarizeSections(ctx, res)
	if err != nil {
		return nil, err
	}

	md := renderMarkdown(rec, sections)
	html, err := renderHTML(md)
	if err != nil {
		return nil, err
	}

	return &Report{
		Markdown: md,
		HTML:     html,
		Metadata: buildMetadata(res, sections),
	}, nil
}

// summarizeSections runs each section through the summarizer. A section
// whose summary comes back blank gets bullets built from its first
// snippet instead.
func (b *Builder) summarizeSections(ctx context.Context, res *filing.AnalysisResult) ([]sectionSummary, error) {
	out := make([]sectionSummary, 0, len(res.Sections))
	for _, s := range res.Sections {
		chunks, pages := sectionChunks(s.Content)
		b.log.Info("summarizing section",
			"title", s.Title,
			"start_page", s.StartPage,
			"end_page", s.EndPage,
			"items", len(s.Content),
			"chunks", len(chunks))

		summary := ""
		if len(chunks) > 0 {
			got, err := b.summarizer.SummarizeSection(ctx, s.Title, chunks, pages)
			switch {
			case err != nil && ctx.Err() != nil:
				return nil, err
			case err != nil:
				b.log.Warn("section summary failed", "title", s.Title, "error", err)
			default:
				summary = got
			}
		}
		if strings.TrimSpace(summary) == "" {
			summary = fallbackSummary(s.Content)
		}
		out = append(out, sectionSummary{Section: s, Summary: summary})
	}
	return out, nil
}

// fallbackSummary bullets the first three non-blank lines of the
// section's first snippet.
func fallbackSummary(content []filing.PageContent) string {
	if len(content) == 0 {
		return "(no content in section)"
	}
	var lines []string
	for _, ln := range strings.Split(content[0].Snippet, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, "- "+ln)
		}
		if len(lines) == 3 {
			break
		}
	}
	if len(lines) == 0 {
		return "(no text extracted)"
	}
	return strings.Join(lines, "\n")
}

// quoteNormalizer maps curly quotes to their ASCII forms so title matching
// survives typeset source documents.
var quoteNormalizer = strings.NewReplacer(
	"’", "'", "‘", "'",
	"“", `"`, "”", `"`,
)

// mdnaSummary returns the summary of the MD&A section, located by a
// quote-normalized title match.
func mdnaSummary(sections []sectionSummary) string {
	for _, s := range sections {
		title := strings.ToLower(quoteNormalizer.Replace(s.Title))
		if strings.Contains(title, "management's discussion") {
			return s.Summary
		}
	}
	return ""
}

func buildMetadata(res *filing.AnalysisResult, sections []sectionSummary) Metadata {
	refs := make([]SectionRef, 0, len(sections))
	for _, s := range sections {
		refs = append(refs, SectionRef{Title: s.Title, StartPage: s.StartPage, EndPage: s.EndPage})
	}
	return Metadata{
		CitationsCount:  len(res.Citations),
		Sections:        refs,
		KPICount:        len(res.Derived.KPIs),
		FinancialTables: len(res.Derived.Financials),
		NonGAAPItems:    len(res.Derived.NonGAAP),
		RiskCount:       len(res.Derived.Risks),
	}
}
