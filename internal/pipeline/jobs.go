package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of an analysis job.
type JobStatus string

const (
	StatusQueued          JobStatus = "queued"
	StatusExtractingText  JobStatus = "extracting_text"
	StatusAnalyzing       JobStatus = "analyzing"
	StatusStoring         JobStatus = "storing"
	StatusCompleted       JobStatus = "completed"
	StatusCompletedErrors JobStatus = "completed_with_errors"
	StatusFailed          JobStatus = "failed"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCompletedErrors, StatusFailed:
		return true
	}
	return false
}

// Job tracks the state of a single filing analysis.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	FilingID string `json:"filing_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	DocType  string    `json:"doc_type,omitempty"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress tracks analysis progress.
type Progress struct {
	Percent int      `json:"percent"`
	Stage   string   `json:"stage"`
	Pages   int      `json:"pages"`
	Errors  []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
// Jobs are indexed under both their job ID and their filing ID so status
// lookups work with either.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	if job.FilingID != "" {
		s.jobs[job.FilingID] = job
	}
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes terminal jobs that have been idle past the TTL.
// In-flight jobs stay registered however old they are.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		status, updated := job.state()
		if status.Terminal() && now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// state reads status and last update under the job lock.
func (j *Job) state() (JobStatus, time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status, j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetProgress records the analysis stage currently running and how far
// through the document it is.
func (j *Job) SetProgress(stage string, percent int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Stage = stage
	j.Progress.Percent = percent
	j.UpdatedAt = time.Now()
}

// SetPages records the extracted page count.
func (j *Job) SetPages(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Pages = n
	j.UpdatedAt = time.Now()
}

// SetContentHash records the sha256 of the uploaded bytes.
func (j *Job) SetContentHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// ClearFileData releases the upload bytes once processing ends.
func (j *Job) ClearFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	FilingID    string    `json:"filing_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	DocType     string    `json:"doc_type,omitempty"`
	Progress    Progress  `json:"progress"`
	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:          j.ID,
		FilingID:    j.FilingID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		DocType:     j.DocType,
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		Progress: Progress{
			Percent: j.Progress.Percent,
			Stage:   j.Progress.Stage,
			Pages:   j.Progress.Pages,
			Errors:  errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
