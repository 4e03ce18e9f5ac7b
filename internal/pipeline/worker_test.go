package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmorhan/filingsift/internal/config"
	"github.com/dmorhan/filingsift/internal/parse"
	"github.com/dmorhan/filingsift/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testWorker(results store.ResultStore) *Worker {
	return NewWorker(results, parse.DefaultHeuristics(), testLogger(), config.Config{})
}

// failStore refuses every save.
type failStore struct{}

func (failStore) Save(context.Context, *store.Record) error          { return errors.New("connection refused") }
func (failStore) Get(context.Context, string) (*store.Record, error) { return nil, nil }
func (failStore) List(context.Context, int) ([]*store.Record, error) {
	return nil, nil
}
func (failStore) Delete(context.Context, string) error { return nil }
func (failStore) Close()                               {}

func queuedJob(filename string, data []byte) *Job {
	job := &Job{
		ID:        "job-1",
		FilingID:  "filing-1",
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	job.SetFileData(data)
	return job
}

func TestWorker_ProcessTextFiling(t *testing.T) {
	results := store.NewMemoryStore()
	w := testWorker(results)

	text := "Item 1. Business\nWe make widgets.\fItem 1A. Risk Factors\nDemand may decline and our business could be harmed."
	job := queuedJob("annual.txt", []byte(text))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q (errors: %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Pages != 2 {
		t.Errorf("expected 2 pages, got %d", snap.Progress.Pages)
	}
	if snap.ContentHash == "" {
		t.Error("expected content hash to be recorded")
	}
	if job.FileData() != nil {
		t.Error("expected file bytes to be released after processing")
	}

	rec, err := results.Get(context.Background(), "filing-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a stored record")
	}
	if rec.Filename != "annual.txt" {
		t.Errorf("expected filename %q, got %q", "annual.txt", rec.Filename)
	}
	if rec.Result == nil || rec.Result.DocMeta.Pages != 2 {
		t.Errorf("expected stored result with 2 pages, got %+v", rec.Result)
	}
	if rec.ContentHash != snap.ContentHash {
		t.Errorf("expected record hash %q to match job hash %q", rec.ContentHash, snap.ContentHash)
	}
}

func TestWorker_ProcessUnsupportedExtension(t *testing.T) {
	results := store.NewMemoryStore()
	w := testWorker(results)

	job := queuedJob("scan.tiff", []byte{0x49, 0x49, 0x2a, 0x00})
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected placeholder result to complete, got %q", snap.Status)
	}

	rec, err := results.Get(context.Background(), "filing-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec == nil || rec.Result == nil {
		t.Fatal("expected a stored placeholder record")
	}
	if rec.Result.DocMeta.DocType != "unknown" {
		t.Errorf("expected doc type %q, got %q", "unknown", rec.Result.DocMeta.DocType)
	}
	if rec.Result.DocMeta.Pages != 1 {
		t.Errorf("expected 1 placeholder page, got %d", rec.Result.DocMeta.Pages)
	}
}

func TestWorker_ProcessStoreFailure(t *testing.T) {
	w := testWorker(failStore{})

	job := queuedJob("annual.txt", []byte("Item 1. Business\nWe make widgets."))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected status %q, got %q", StatusFailed, snap.Status)
	}
	if snap.Phase != "storing" {
		t.Errorf("expected failure in phase %q, got %q", "storing", snap.Phase)
	}
	if len(snap.Progress.Errors) == 0 {
		t.Error("expected the store error to be recorded on the job")
	}
	if job.FileData() != nil {
		t.Error("expected file bytes to be released even on failure")
	}
}

func TestOrchestrator_SubmitQueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, store.NewMemoryStore(), parse.DefaultHeuristics(), testLogger())
	// Not started, so nothing drains the queue.

	first := queuedJob("a.txt", []byte("x"))
	if err := o.Submit(first); err != nil {
		t.Fatalf("first submit should fit the queue: %v", err)
	}

	second := &Job{ID: "job-2", FilingID: "filing-2", Status: StatusQueued, Filename: "b.txt"}
	err := o.Submit(second)
	if err == nil {
		t.Fatal("expected queue-full error")
	}
	if second.Snapshot().Status != StatusFailed {
		t.Errorf("expected overflow job to be marked failed, got %q", second.Snapshot().Status)
	}
	if o.GetJob("job-2") == nil {
		t.Error("expected overflow job to stay visible for status polling")
	}
}

func TestOrchestrator_ProcessesSubmittedJob(t *testing.T) {
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 4, JobTTL: time.Hour}
	results := store.NewMemoryStore()
	o := NewOrchestrator(cfg, results, parse.DefaultHeuristics(), testLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := queuedJob("annual.txt", []byte("Item 1. Business\nWe make widgets."))
	if err := o.Submit(job); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if job.Snapshot().Status.Terminal() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, status %q", job.Snapshot().Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("expected status %q, got %q", StatusCompleted, got)
	}
	rec, err := results.Get(context.Background(), "filing-1")
	if err != nil || rec == nil {
		t.Fatalf("expected stored record, got rec=%v err=%v", rec, err)
	}
}

func TestOrchestrator_Reanalyze(t *testing.T) {
	dir := t.TempDir()
	id := "9f2d3c1e-registered"
	text := "Item 1. Business\nWe make widgets.\fItem 1A. Risk Factors\nDemand may decline."
	if err := os.WriteFile(filepath.Join(dir, id+".txt"), []byte(text), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg := config.Config{DataDir: dir, WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	results := store.NewMemoryStore()
	o := NewOrchestrator(cfg, results, parse.DefaultHeuristics(), testLogger())

	rec, err := o.Reanalyze(context.Background(), id)
	if err != nil {
		t.Fatalf("Reanalyze: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a record for the on-disk filing")
	}
	if rec.Filename != id+".txt" {
		t.Errorf("expected filename %q, got %q", id+".txt", rec.Filename)
	}
	if rec.Result == nil || rec.Result.DocMeta.Pages != 2 {
		t.Errorf("expected reanalyzed result with 2 pages, got %+v", rec.Result)
	}

	stored, err := results.Get(context.Background(), id)
	if err != nil || stored == nil {
		t.Fatalf("expected record to be saved, got rec=%v err=%v", stored, err)
	}
}

func TestOrchestrator_ReanalyzeMissingFile(t *testing.T) {
	cfg := config.Config{DataDir: t.TempDir(), WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, store.NewMemoryStore(), parse.DefaultHeuristics(), testLogger())

	rec, err := o.Reanalyze(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("Reanalyze: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil record for unknown id, got %+v", rec)
	}
}

func TestOrchestrator_ReanalyzeRejectsPathCharacters(t *testing.T) {
	cfg := config.Config{DataDir: t.TempDir(), WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, store.NewMemoryStore(), parse.DefaultHeuristics(), testLogger())

	for _, id := range []string{"", "../etc/passwd", "a/b", "*"} {
		rec, err := o.Reanalyze(context.Background(), id)
		if err != nil {
			t.Errorf("Reanalyze(%q): unexpected error %v", id, err)
		}
		if rec != nil {
			t.Errorf("Reanalyze(%q): expected nil record", id)
		}
	}
}
