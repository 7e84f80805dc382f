package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/models"
)

// The pinned SDK version has no list call for /fine_tuning/jobs, so the
// endpoint is hit directly and the body picked apart with gjson.

// ListJobs returns up to limit fine-tuning jobs, newest first.
func (s *Service) ListJobs(ctx context.Context, limit int) ([]models.FineTuneJob, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = 50
	}

	url := fmt.Sprintf("%s/fine_tuning/jobs?limit=%d", s.baseURL, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("list jobs: read body: %w", err)
	}
	parsed := gjson.ParseBytes(body)

	if resp.StatusCode != http.StatusOK {
		if msg := parsed.Get("error.message"); msg.Exists() {
			return nil, fmt.Errorf("list jobs: %s", msg.String())
		}
		return nil, fmt.Errorf("list jobs: unexpected status %d", resp.StatusCode)
	}

	data := parsed.Get("data")
	if !data.IsArray() {
		return nil, errors.New("list jobs: malformed response")
	}
	var jobs []models.FineTuneJob
	data.ForEach(func(_, v gjson.Result) bool {
		jobs = append(jobs, models.FineTuneJob{
			ID:             v.Get("id").String(),
			Model:          v.Get("model").String(),
			FineTunedModel: v.Get("fine_tuned_model").String(),
			Status:         v.Get("status").String(),
			TrainingFile:   v.Get("training_file").String(),
			Error:          v.Get("error.message").String(),
			CreatedAt:      v.Get("created_at").Int(),
			FinishedAt:     v.Get("finished_at").Int(),
		})
		return true
	})
	return jobs, nil
}

// ModelOption is a fine-tuned model offered in the chat page selector.
type ModelOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SucceededModels lists the fine-tuned models produced by succeeded jobs.
func (s *Service) SucceededModels(ctx context.Context) ([]ModelOption, error) {
	jobs, err := s.ListJobs(ctx, 50)
	if err != nil {
		return nil, err
	}
	var opts []ModelOption
	for _, j := range jobs {
		if j.Status != "succeeded" || j.FineTunedModel == "" {
			continue
		}
		parts := strings.Split(j.FineTunedModel, ":")
		opts = append(opts, ModelOption{
			ID:   j.FineTunedModel,
			Name: parts[len(parts)-1],
		})
	}
	return opts, nil
}
