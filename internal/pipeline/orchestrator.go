package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmorhan/filingsift/internal/config"
	"github.com/dmorhan/filingsift/internal/parse"
	"github.com/dmorhan/filingsift/internal/store"
)

// Orchestrator manages the filing analysis pipeline.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	results store.ResultStore
	heur    parse.Heuristics
	log     *slog.Logger
	cfg     config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, results store.ResultStore, heur parse.Heuristics, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		results: results,
		heur:    heur,
		log:     log,
		cfg:     cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.results, o.heur, o.log, o.cfg)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by job or filing ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Results returns the result store for direct use by API handlers.
func (o *Orchestrator) Results() store.ResultStore {
	return o.results
}

// DataDir returns the directory holding the original uploaded files.
func (o *Orchestrator) DataDir() string {
	return o.cfg.DataDir
}

// Reanalyze re-runs extraction and analysis for a filing whose original
// file is still under the data dir, synchronously, and saves the record.
// It returns nil when no file for the id exists.
func (o *Orchestrator) Reanalyze(ctx context.Context, id string) (*store.Record, error) {
	// IDs are UUIDs; path or glob characters cannot name a stored filing.
	if id == "" || strings.ContainsAny(id, `/\*?[`) {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(o.cfg.DataDir, id+".*"))
	if err != nil {
		return nil, fmt.Errorf("locate filing %s: %w", id, err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	path := matches[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read filing %s: %w", id, err)
	}

	w := NewWorker(o.results, o.heur, o.log, o.cfg)
	result, err := w.AnalyzeBytes(data, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("reanalyze filing %s: %w", id, err)
	}

	rec := &store.Record{
		ID:          id,
		Filename:    filepath.Base(path),
		ContentHash: ContentHashHex(data),
		CreatedAt:   time.Now().UTC(),
		Result:      &result,
	}
	if err := o.results.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save filing %s: %w", id, err)
	}
	o.log.Info("reanalyzed filing", "filing_id", id, "pages", result.DocMeta.Pages)
	return rec, nil
}
