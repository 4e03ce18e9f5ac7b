package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dmorhan/filingsift/internal/config"
	"github.com/dmorhan/filingsift/internal/filing"
	"github.com/dmorhan/filingsift/internal/pagetext"
	"github.com/dmorhan/filingsift/internal/parse"
	"github.com/dmorhan/filingsift/internal/store"
)

// Worker processes a single filing job.
type Worker struct {
	results store.ResultStore
	heur    parse.Heuristics
	log     *slog.Logger
	cfg     config.Config
}

func NewWorker(results store.ResultStore, heur parse.Heuristics, log *slog.Logger, cfg config.Config) *Worker {
	return &Worker{
		results: results,
		heur:    heur,
		log:     log,
		cfg:     cfg,
	}
}

// Process runs the full analysis pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filing_id", job.FilingID)

	data := job.FileData()
	defer job.ClearFileData()

	hash := ContentHashHex(data)
	job.SetContentHash(hash)

	analyzer := parse.NewAnalyzer(w.heur)
	analyzer.Progress = func(section string, percent int) {
		job.SetProgress(section, percent)
	}

	// Phase 1: extract page text.
	job.SetStatus(StatusExtractingText, "extracting page text")
	var result filing.AnalysisResult
	ex, err := w.extractor(job.Filename)
	if err != nil {
		// Uploads are whitelisted, but reanalyzed files can carry any
		// extension. A foreign format yields a placeholder result.
		log.Warn("unsupported format, storing placeholder result", "filename", job.Filename, "error", err)
		result = analyzer.Degenerate()
		job.SetPages(result.DocMeta.Pages)
	} else {
		pages, err := ex.Extract(bytes.NewReader(data), job.Filename)
		if err != nil {
			log.Error("page extraction failed", "error", err)
			job.AddError(fmt.Sprintf("extract: %s", err))
			job.SetStatus(StatusFailed, "extracting page text")
			return
		}
		job.SetPages(len(pages))
		log.Info("extracted pages", "pages", len(pages))

		// Phase 2: analyze.
		job.SetStatus(StatusAnalyzing, "analyzing")
		result = analyzer.Analyze(pages)
	}

	// Phase 3: persist the record.
	job.SetStatus(StatusStoring, "storing")
	rec := &store.Record{
		ID:          job.FilingID,
		Filename:    job.Filename,
		DocType:     job.DocType,
		ContentHash: hash,
		CreatedAt:   job.CreatedAt,
		Result:      &result,
	}
	if err := w.results.Save(ctx, rec); err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	if len(result.Derived.StageErrors) > 0 {
		for stage, msg := range result.Derived.StageErrors {
			job.AddError(fmt.Sprintf("%s: %s", stage, msg))
		}
		log.Warn("analysis completed with stage errors", "stages", len(result.Derived.StageErrors))
		job.SetStatus(StatusCompletedErrors, "done")
		return
	}

	log.Info("analysis complete", "pages", result.DocMeta.Pages, "sections", len(result.Sections))
	job.SetStatus(StatusCompleted, "done")
}

// AnalyzeBytes extracts and analyzes one document without job tracking.
// Unsupported extensions yield the placeholder result; extraction failures
// are returned to the caller.
func (w *Worker) AnalyzeBytes(data []byte, filename string) (filing.AnalysisResult, error) {
	analyzer := parse.NewAnalyzer(w.heur)
	ex, err := w.extractor(filename)
	if err != nil {
		return analyzer.Degenerate(), nil
	}
	pages, err := ex.Extract(bytes.NewReader(data), filename)
	if err != nil {
		return filing.AnalysisResult{}, fmt.Errorf("extract %s: %w", filename, err)
	}
	return analyzer.Analyze(pages), nil
}

// extractor picks the page extractor for a filename with config applied.
func (w *Worker) extractor(filename string) (pagetext.Extractor, error) {
	ex, err := pagetext.ForFile(filename)
	if err != nil {
		return nil, err
	}
	if pdf, ok := ex.(*pagetext.PDFExtractor); ok {
		pdf.FallbackPdftotext = w.cfg.PdftotextFallback
	}
	return ex, nil
}
