package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmorhan/filingsift/internal/config"
	"github.com/dmorhan/filingsift/internal/parse"
	"github.com/dmorhan/filingsift/internal/pipeline"
	"github.com/dmorhan/filingsift/internal/report"
	"github.com/dmorhan/filingsift/internal/store"
	"github.com/dmorhan/filingsift/internal/summarize"
)

const sampleFiling = "Item 1. Business\nWe make widgets.\fItem 1A. Risk Factors\nDemand may decline and our business could be harmed."

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Port:           "0",
		DataDir:        t.TempDir(),
		MaxUploadBytes: 1 << 20,
		WorkerCount:    2,
		MaxQueueSize:   8,
		JobTTL:         time.Hour,
		StoreBackend:   "memory",
	}
}

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, store.NewMemoryStore(), parse.DefaultHeuristics(), log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, report.NewBuilder(summarize.Noop{}, log), nil, log, cfg)
}

func uploadFiling(t *testing.T, srv *Server, filename, content string, fields map[string]string) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/filings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return resp
}

func waitForTerminal(t *testing.T, srv *Server, filingID string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/filings/"+filingID+"/status", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("status request failed: %d %s", rr.Code, rr.Body.String())
		}
		var snap map[string]any
		if err := json.NewDecoder(rr.Body).Decode(&snap); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		switch snap["status"] {
		case "completed", "completed_with_errors", "failed":
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never finished, last status %v", snap["status"])
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHealth_Public(t *testing.T) {
	cfg := testConfig(t)
	cfg.APIKey = "sekrit"
	srv := newTestServer(t, cfg)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health body: %s", rr.Body.String())
	}
}

func TestAuth_RequiredWhenConfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.APIKey = "sekrit"
	srv := newTestServer(t, cfg)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/filings", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/filings", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with bad token, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/filings", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 with good token, got %d", rr.Code)
	}
}

func TestAuth_SkippedWhenUnset(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/filings", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 without auth configured, got %d", rr.Code)
	}
}

func TestUpload_RejectsUnsupportedExtension(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "report.exe")
	fw.Write([]byte("MZ"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/filings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "unsupported file type") {
		t.Errorf("unexpected error body: %s", rr.Body.String())
	}
}

func TestUpload_RejectsEmptyFile(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.CreateFormFile("file", "empty.txt")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/filings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "empty file") {
		t.Errorf("unexpected error body: %s", rr.Body.String())
	}
}

func TestUpload_RejectsOversizedFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxUploadBytes = 16
	srv := newTestServer(t, cfg)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "big.txt")
	fw.Write(bytes.Repeat([]byte("a"), 100))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/filings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestUpload_QueueFullReturns503(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxQueueSize = 1
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	// Orchestrator is never started, so the first job occupies the queue.
	orch := pipeline.NewOrchestrator(cfg, store.NewMemoryStore(), parse.DefaultHeuristics(), log)
	srv := NewServer(orch, report.NewBuilder(summarize.Noop{}, log), nil, log, cfg)

	uploadFiling(t, srv, "first.txt", sampleFiling, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "second.txt")
	fw.Write([]byte(sampleFiling))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/filings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestUpload_ProcessesFilingEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	srv := newTestServer(t, cfg)

	resp := uploadFiling(t, srv, "annual.txt", sampleFiling, map[string]string{"doc_type": "10-K"})
	filingID, _ := resp["filing_id"].(string)
	if filingID == "" {
		t.Fatalf("expected filing_id in response, got %v", resp)
	}
	if resp["poll_url"] != "/api/filings/"+filingID+"/status" {
		t.Errorf("unexpected poll_url %v", resp["poll_url"])
	}

	snap := waitForTerminal(t, srv, filingID)
	if snap["status"] != "completed" {
		t.Fatalf("expected completed, got %v (errors %v)", snap["status"], snap["progress"])
	}

	// Original upload is kept on disk for reanalysis.
	if _, err := os.Stat(filepath.Join(cfg.DataDir, filingID+".txt")); err != nil {
		t.Errorf("expected saved upload on disk: %v", err)
	}

	// Result carries the analysis.
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/filings/"+filingID+"/result", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("result request failed: %d %s", rr.Code, rr.Body.String())
	}
	var result struct {
		DocMeta struct {
			Pages int `json:"pages"`
		} `json:"doc_meta"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.DocMeta.Pages != 2 {
		t.Errorf("expected 2 pages, got %d", result.DocMeta.Pages)
	}

	// The listing shows the declared doc type.
	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/filings", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("list request failed: %d", rr.Code)
	}
	var list struct {
		Filings []struct {
			ID      string `json:"id"`
			DocType string `json:"doc_type"`
			Pages   int    `json:"pages"`
		} `json:"filings"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Filings) != 1 {
		t.Fatalf("expected 1 filing, got %d", len(list.Filings))
	}
	if list.Filings[0].DocType != "10-K" {
		t.Errorf("expected declared doc type %q, got %q", "10-K", list.Filings[0].DocType)
	}
	if list.Filings[0].Pages != 2 {
		t.Errorf("expected 2 pages in listing, got %d", list.Filings[0].Pages)
	}

	// Delete removes both the record and the file.
	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/filings/"+filingID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("delete request failed: %d %s", rr.Code, rr.Body.String())
	}
	if _, err := os.Stat(filepath.Join(cfg.DataDir, filingID+".txt")); !os.IsNotExist(err) {
		t.Errorf("expected saved upload to be removed, stat err %v", err)
	}

	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/filings/"+filingID+"/result", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestReport_FormatsMarkdownAndJSON(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	resp := uploadFiling(t, srv, "annual.txt", sampleFiling, nil)
	filingID := resp["filing_id"].(string)
	waitForTerminal(t, srv, filingID)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/filings/"+filingID+"/report?format=markdown", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("markdown report failed: %d %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("expected markdown content type, got %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "# Analyst Report") {
		t.Errorf("expected report heading, got %q", rr.Body.String()[:min(80, rr.Body.Len())])
	}

	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/filings/"+filingID+"/report", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("json report failed: %d", rr.Code)
	}
	var rep struct {
		Markdown string         `json:"markdown"`
		HTML     string         `json:"html"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Markdown == "" || rep.HTML == "" {
		t.Error("expected both markdown and html in the JSON report")
	}
	if _, ok := rep.Metadata["citations_count"]; !ok {
		t.Errorf("expected citations_count in metadata, got %v", rep.Metadata)
	}
}

func TestExport_ReturnsWorkbookAttachment(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	resp := uploadFiling(t, srv, "annual.txt", sampleFiling, nil)
	filingID := resp["filing_id"].(string)
	waitForTerminal(t, srv, filingID)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/filings/"+filingID+"/export", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("export failed: %d %s", rr.Code, rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "filing_"+filingID+".xlsx") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if body := rr.Body.Bytes(); len(body) < 2 || body[0] != 'P' || body[1] != 'K' {
		t.Error("expected xlsx (zip) payload")
	}
}

func TestResult_LazyReanalysisAfterRestart(t *testing.T) {
	cfg := testConfig(t)
	srv := newTestServer(t, cfg)

	// A file on disk with no stored record, as after a process restart
	// with the memory backend.
	id := "11111111-2222-3333-4444-555555555555"
	if err := os.WriteFile(filepath.Join(cfg.DataDir, id+".txt"), []byte(sampleFiling), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/filings/"+id+"/result", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected lazy reanalysis to serve the result, got %d: %s", rr.Code, rr.Body.String())
	}
	var result struct {
		DocMeta struct {
			Pages int `json:"pages"`
		} `json:"doc_meta"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.DocMeta.Pages != 2 {
		t.Errorf("expected 2 pages, got %d", result.DocMeta.Pages)
	}
}

func TestStatus_UnknownJob(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/filings/nope/status", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

func TestLLMStats_UnavailableWithoutClient(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a summarizer client, got %d", rr.Code)
	}
}

func TestLLMStats_SnapshotWhenConfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.SummaryModel = "gpt-5-mini"
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, store.NewMemoryStore(), parse.DefaultHeuristics(), log)
	stats := summarize.NewStats(time.Hour)
	stats.Record(120, false)
	srv := NewServer(orch, report.NewBuilder(summarize.Noop{}, log), stats, log, cfg)

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Model string `json:"model"`
		Stats struct {
			Count int `json:"count"`
		} `json:"stats"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if resp.Model != "gpt-5-mini" {
		t.Errorf("expected model gpt-5-mini, got %q", resp.Model)
	}
	if resp.Stats.Count != 1 {
		t.Errorf("expected 1 recorded call, got %d", resp.Stats.Count)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"dir/nested/file.txt", "file.txt"},
		{"..", "_"},
		{"", "unnamed"},
		{"weird..name.pdf", "weird_name.pdf"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
