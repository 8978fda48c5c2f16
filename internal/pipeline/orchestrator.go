package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/booksplit/internal/config"
	"github.com/dgallion1/booksplit/internal/pathstore"
)

// Orchestrator manages the asynchronous split pipeline.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	ps    *pathstore.Client
	log   *slog.Logger
	cfg   config.Config
	opts  config.Options
	stats *LatencyStats

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. ps may be nil when publishing is
// disabled.
func NewOrchestrator(cfg config.Config, opts config.Options, ps *pathstore.Client, log *slog.Logger) *Orchestrator {
	if opts.TagConcurrency > cfg.MaxConcurrentTagging && cfg.MaxConcurrentTagging > 0 {
		opts.TagConcurrency = cfg.MaxConcurrentTagging
	}
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		ps:    ps,
		log:   log,
		cfg:   cfg,
		opts:  opts,
		stats: NewLatencyStats(time.Hour),
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
			w := NewWorker(o.ps, o.log, o.stats, o.opts, o.cfg)
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

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// GetBatch returns the jobs of a batch.
func (o *Orchestrator) GetBatch(id string) []*Job {
	return o.jobs.Batch(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Options returns the default split options jobs run with.
func (o *Orchestrator) Options() config.Options {
	return o.opts
}

// Stats returns per-stage latency statistics.
func (o *Orchestrator) Stats() map[string]StatsSnapshot {
	return o.stats.Snapshot()
}

// PathstoreClient returns the pathstore client for direct use by API
// handlers, or nil when publishing is disabled.
func (o *Orchestrator) PathstoreClient() *pathstore.Client {
	return o.ps
}
