package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/models"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/redis"
)

const jobCacheTTL = 30 * time.Minute

// jobCache holds the latest observed job state in redis so status reads do
// not have to hit the vendor. All methods tolerate a nil client: with no
// redis the cache is simply always a miss.
type jobCache struct {
	client *redis.Client
}

func newJobCache(client *redis.Client) *jobCache {
	return &jobCache{client: client}
}

func jobKey(jobID string) string {
	return fmt.Sprintf("jobs:status:%s", jobID)
}

func (c *jobCache) cacheJob(ctx context.Context, job models.FineTuneJob) {
	if c == nil || c.client == nil || job.ID == "" {
		return
	}
	data, err := json.Marshal(job)
	if err != nil {
		log.Printf("job cache marshal failed: %v", err)
		return
	}
	if err := c.client.Set(ctx, jobKey(job.ID), data, jobCacheTTL); err != nil {
		log.Printf("job cache set failed: %v", err)
	}
}

func (c *jobCache) loadJob(ctx context.Context, jobID string) (*models.FineTuneJob, bool) {
	if c == nil || c.client == nil || jobID == "" {
		return nil, false
	}
	raw, err := c.client.Get(ctx, jobKey(jobID))
	if err != nil {
		if err != redis.ErrCacheMiss {
			log.Printf("job cache get failed: %v", err)
		}
		return nil, false
	}
	var job models.FineTuneJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Printf("job cache decode failed: %v", err)
		return nil, false
	}
	return &job, true
}

func (c *jobCache) invalidate(ctx context.Context, jobID string) {
	if c == nil || c.client == nil || jobID == "" {
		return
	}
	if err := c.client.Del(ctx, jobKey(jobID)); err != nil && err != redis.ErrCacheMiss {
		log.Printf("job cache invalidate failed: %v", err)
	}
}
