package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmorhan/filingsift/internal/pagetext"
	"github.com/dmorhan/filingsift/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("upload exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !pagetext.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if len(data) == 0 {
		jsonError(w, "empty file", http.StatusBadRequest)
		return
	}

	filingID := uuid.NewString()
	if err := s.saveUpload(filingID, filename, data); err != nil {
		s.log.Error("saving upload failed", "filing_id", filingID, "error", err)
		jsonError(w, "failed to save upload", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	job := &pipeline.Job{
		ID:        uuid.NewString(),
		FilingID:  filingID,
		Status:    pipeline.StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		DocType:   r.FormValue("doc_type"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.SetFileData(data)

	if err := s.orchestrator.Submit(job); err != nil {
		removeStoredFile(s.orchestrator.DataDir(), filingID)
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"filing_id": filingID,
		"job_id":    job.ID,
		"status":    job.Status,
		"poll_url":  fmt.Sprintf("/api/filings/%s/status", filingID),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job := s.orchestrator.GetJob(id)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// saveUpload keeps the original bytes under the data dir as {id}{ext} so
// results can be rebuilt after a restart.
func (s *Server) saveUpload(id, filename string, data []byte) error {
	dir := s.orchestrator.DataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	return os.WriteFile(filepath.Join(dir, id+ext), data, 0o644)
}

// removeStoredFile deletes the saved upload for a filing, if present.
func removeStoredFile(dataDir, id string) bool {
	if id == "" || strings.ContainsAny(id, `/\*?[`) {
		return false
	}
	matches, err := filepath.Glob(filepath.Join(dataDir, id+".*"))
	if err != nil {
		return false
	}
	removed := false
	for _, m := range matches {
		if os.Remove(m) == nil {
			removed = true
		}
	}
	return removed
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
