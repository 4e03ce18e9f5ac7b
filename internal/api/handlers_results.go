package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmorhan/filingsift/internal/export"
	"github.com/dmorhan/filingsift/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleListFilings lists stored filings, newest first.
func (s *Server) handleListFilings(w http.ResponseWriter, r *http.Request) {
	recs, err := s.orchestrator.Results().List(r.Context(), 0)
	if err != nil {
		jsonError(w, "failed to list filings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	type item struct {
		ID        string    `json:"id"`
		Filename  string    `json:"filename"`
		DocType   string    `json:"doc_type"`
		CreatedAt time.Time `json:"created_at"`
		Pages     int       `json:"pages"`
	}
	items := make([]item, 0, len(recs))
	for _, rec := range recs {
		it := item{
			ID:        rec.ID,
			Filename:  rec.Filename,
			DocType:   rec.DocType,
			CreatedAt: rec.CreatedAt,
		}
		if rec.Result != nil {
			if it.DocType == "" {
				it.DocType = rec.Result.DocMeta.DocType
			}
			it.Pages = rec.Result.DocMeta.Pages
		}
		items = append(items, it)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"filings": items})
}

// handleResult returns the stored analysis result for a filing.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.lookupRecord(r.Context(), id)
	if err != nil {
		jsonError(w, "failed to load result: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil || rec.Result == nil {
		jsonError(w, "filing not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec.Result)
}

// handleReport builds the analyst report for a filing.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.lookupRecord(r.Context(), id)
	if err != nil {
		jsonError(w, "failed to load result: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil || rec.Result == nil {
		jsonError(w, "filing not found", http.StatusNotFound)
		return
	}

	rep, err := s.reports.Build(r.Context(), rec)
	if err != nil {
		s.log.Error("report build failed", "filing_id", id, "error", err)
		jsonError(w, "failed to build report", http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		io.WriteString(w, rep.Markdown)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rep)
}

// handleExport streams the XLSX workbook for a filing.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.lookupRecord(r.Context(), id)
	if err != nil {
		jsonError(w, "failed to load result: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil || rec.Result == nil {
		jsonError(w, "filing not found", http.StatusNotFound)
		return
	}

	wb, err := export.BuildWorkbook(rec)
	if err != nil {
		s.log.Error("export build failed", "filing_id", id, "error", err)
		jsonError(w, "failed to build export", http.StatusInternalServerError)
		return
	}
	defer wb.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="filing_%s.xlsx"`, id))
	if _, err := wb.WriteTo(w); err != nil {
		s.log.Error("export write failed", "filing_id", id, "error", err)
	}
}

// handleDeleteFiling removes the stored record and the saved upload.
func (s *Server) handleDeleteFiling(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.orchestrator.Results().Delete(r.Context(), id); err != nil {
		jsonError(w, "failed to delete filing: "+err.Error(), http.StatusInternalServerError)
		return
	}
	removed := removeStoredFile(s.orchestrator.DataDir(), id)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"deleted":      id,
		"file_removed": removed,
	})
}

// lookupRecord fetches a stored record, reanalyzing the saved upload when
// the store has no entry (fresh process with the memory backend).
func (s *Server) lookupRecord(ctx context.Context, id string) (*store.Record, error) {
	rec, err := s.orchestrator.Results().Get(ctx, id)
	if err != nil || rec != nil {
		return rec, err
	}
	return s.orchestrator.Reanalyze(ctx, id)
}
