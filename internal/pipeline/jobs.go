package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/booksplit/internal/config"
)

// JobStatus represents the state of a split job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusAnalyzing  JobStatus = "analyzing"
	StatusExtracting JobStatus = "extracting"
	StatusTagging    JobStatus = "tagging"
	StatusLinking    JobStatus = "linking"
	StatusPublishing JobStatus = "publishing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// Terminal reports whether no further transitions happen.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusPartial
}

// Job tracks the state of a single document split.
type Job struct {
	mu sync.Mutex

	ID      string `json:"job_id"`
	BatchID string `json:"batch_id,omitempty"`
	BookID  string `json:"book_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	opts     *config.Options
	result   *Result
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	Units        int      `json:"units"`
	Blocks       int      `json:"blocks"`
	BlocksTagged int      `json:"blocks_tagged"`
	Warnings     int      `json:"warnings"`
	Published    int      `json:"published"`
	Errors       []string `json:"errors"`
}

// NewJob returns a queued job for filename.
func NewJob(filename, title string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        newJobID(),
		BookID:    ContentHashHex(data)[:16],
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	batches map[string][]string
	ttl     time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs:    make(map[string]*Job),
		batches: make(map[string][]string),
		ttl:     ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	if job.BatchID != "" {
		s.batches[job.BatchID] = append(s.batches[job.BatchID], job.ID)
	}
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Batch returns the jobs submitted under batchID in submission order.
func (s *JobStore) Batch(batchID string) []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Job
	for _, id := range s.batches[batchID] {
		if j, ok := s.jobs[id]; ok {
			out = append(out, j)
		}
	}
	return out
}

// Cleanup removes expired jobs and empty batches.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
	for bid, ids := range s.batches {
		live := ids[:0]
		for _, id := range ids {
			if _, ok := s.jobs[id]; ok {
				live = append(live, id)
			}
		}
		if len(live) == 0 {
			delete(s.batches, bid)
		} else {
			s.batches[bid] = live
		}
	}
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

// SetUnits records the unit and block counts once extraction is done.
func (j *Job) SetUnits(units, blocks int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Units = units
	j.Progress.Blocks = blocks
	j.UpdatedAt = time.Now()
}

// IncrBlocksTagged atomically increments tagged blocks.
func (j *Job) IncrBlocksTagged() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.BlocksTagged++
	j.UpdatedAt = time.Now()
}

// AddPublished records published node counts.
func (j *Job) AddPublished(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Published += n
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

// SetOptions overrides the orchestrator's split options for this job.
func (j *Job) SetOptions(opts config.Options) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.opts = &opts
}

func (j *Job) options(fallback config.Options) config.Options {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.opts != nil {
		return *j.opts
	}
	return fallback
}

// SetResult stores the run output and releases the raw upload.
func (j *Job) SetResult(res *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	j.fileData = nil
	j.Progress.Warnings = len(res.Warnings)
	j.UpdatedAt = time.Now()
}

// Result returns the run output, or nil before the run finished.
func (j *Job) Result() *Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	BatchID  string    `json:"batch_id,omitempty"`
	BookID   string    `json:"book_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:       j.ID,
		BatchID:  j.BatchID,
		BookID:   j.BookID,
		Status:   j.Status,
		Phase:    j.Phase,
		Filename: j.Filename,
		Title:    j.Title,
		Progress: p,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
