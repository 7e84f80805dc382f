package worker

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/models"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/redis"
)

// JobFetcher retrieves the live state of a fine-tuning job from the vendor.
type JobFetcher interface {
	RetrieveJob(ctx context.Context, jobID string) (models.FineTuneJob, error)
}

// Recorder persists observed job states between restarts.
type Recorder interface {
	UpsertJobRecord(ctx context.Context, job models.FineTuneJob) error
	ActiveJobIDs(ctx context.Context) ([]string, error)
}

const retrieveTimeout = 30 * time.Second

// Poller tracks running fine-tuning jobs in the background: every interval
// it asks the vendor for each watched job, caches the snapshot, and records
// the state locally. Jobs leave the watch set once they reach a terminal
// status, after one final update.
type Poller struct {
	fetcher  JobFetcher
	store    Recorder
	cache    *jobCache
	interval time.Duration

	mu      sync.Mutex
	watched map[string]struct{}
}

// NewPoller constructs a poller; cacheClient may be nil, which disables the
// snapshot cache but not the polling itself.
func NewPoller(fetcher JobFetcher, store Recorder, cacheClient *redis.Client, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		fetcher:  fetcher,
		store:    store,
		cache:    newJobCache(cacheClient),
		interval: interval,
		watched:  make(map[string]struct{}),
	}
}

// Start resumes watches for jobs that were still running when the process
// last stopped, then runs the polling loop until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	if p.store != nil {
		ids, err := p.store.ActiveJobIDs(ctx)
		if err != nil {
			log.Printf("resume job watches failed: %v", err)
		}
		for _, id := range ids {
			p.Watch(id)
		}
	}
	go p.loop(ctx)
}

// Watch adds a job to the watch set.
func (p *Poller) Watch(jobID string) {
	if jobID == "" {
		return
	}
	p.mu.Lock()
	p.watched[jobID] = struct{}{}
	p.mu.Unlock()
	debugLog("[poller] watching job %s", jobID)
}

// Unwatch drops a job from the watch set.
func (p *Poller) Unwatch(jobID string) {
	p.mu.Lock()
	delete(p.watched, jobID)
	p.mu.Unlock()
}

// Watching returns the watched job ids in stable order.
func (p *Poller) Watching() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.watched))
	for id := range p.watched {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns the cached state of a job, if any.
func (p *Poller) Snapshot(ctx context.Context, jobID string) (*models.FineTuneJob, bool) {
	return p.cache.loadJob(ctx, jobID)
}

// Invalidate drops the cached snapshot so the next read goes to the vendor.
func (p *Poller) Invalidate(ctx context.Context, jobID string) {
	p.cache.invalidate(ctx, jobID)
}

// Record caches and persists a job state observed outside the polling loop,
// such as the response to a job creation call.
func (p *Poller) Record(ctx context.Context, job models.FineTuneJob) {
	p.cache.cacheJob(ctx, job)
	if p.store != nil {
		if err := p.store.UpsertJobRecord(ctx, job); err != nil {
			log.Printf("record job %s failed: %v", job.ID, err)
		}
	}
}

func (p *Poller) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	for _, jobID := range p.Watching() {
		callCtx, cancel := context.WithTimeout(ctx, retrieveTimeout)
		job, err := p.fetcher.RetrieveJob(callCtx, jobID)
		cancel()
		if err != nil {
			log.Printf("poll job %s failed: %v", jobID, err)
			continue
		}
		p.Record(ctx, job)
		if job.Terminal() {
			debugLog("[poller] job %s reached %s, dropping watch", jobID, job.Status)
			p.Unwatch(jobID)
		}
	}
}
