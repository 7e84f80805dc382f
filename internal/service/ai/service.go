package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/config"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/models"
)

// ErrNotConfigured is returned from every call while no API key is set.
// The message is surfaced to the browser as-is.
var ErrNotConfigured = errors.New("API キーが設定されていません")

const defaultBaseURL = "https://api.openai.com/v1"

// Service wraps the OpenAI client for file, fine-tuning job, model, and
// chat completion calls.
type Service struct {
	client        *openai.Client
	baseURL       string
	apiKey        string
	chatMaxTokens int
}

// NewService builds the vendor client. A missing API key is not an error:
// the pages should still render, showing the API as disconnected, so the
// returned service answers every call with ErrNotConfigured instead.
func NewService(cfg config.OpenAIConfig) *Service {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	maxTokens := cfg.ChatMaxTokens
	if maxTokens <= 0 {
		maxTokens = config.DefaultChatMaxTokens
	}

	s := &Service{
		baseURL:       baseURL,
		apiKey:        strings.TrimSpace(cfg.APIKey),
		chatMaxTokens: maxTokens,
	}
	if s.apiKey != "" {
		clientCfg := openai.DefaultConfig(s.apiKey)
		clientCfg.BaseURL = baseURL
		s.client = openai.NewClientWithConfig(clientCfg)
	}
	return s
}

// Configured reports whether an API key is available.
func (s *Service) Configured() bool {
	return s.client != nil
}

// ListTrainingFiles returns the fine-tune purpose files on the vendor side.
func (s *Service) ListTrainingFiles(ctx context.Context) ([]models.TrainingFile, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}
	list, err := s.client.ListFiles(ctx)
	if err != nil {
		return nil, vendorError("list files", err)
	}
	files := make([]models.TrainingFile, 0, len(list.Files))
	for _, f := range list.Files {
		if f.Purpose != string(openai.PurposeFineTune) {
			continue
		}
		files = append(files, models.TrainingFile{
			ID:        f.ID,
			Filename:  f.FileName,
			Purpose:   f.Purpose,
			Bytes:     int64(f.Bytes),
			Status:    f.Status,
			CreatedAt: f.CreatedAt,
		})
	}
	return files, nil
}

// UploadTrainingFile pushes validated JSONL content to the vendor.
func (s *Service) UploadTrainingFile(ctx context.Context, name string, content []byte) (models.TrainingFile, error) {
	if s.client == nil {
		return models.TrainingFile{}, ErrNotConfigured
	}
	uploaded, err := s.client.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    name,
		Bytes:   content,
		Purpose: openai.PurposeFineTune,
	})
	if err != nil {
		return models.TrainingFile{}, vendorError("upload file", err)
	}
	return models.TrainingFile{
		ID:        uploaded.ID,
		Filename:  uploaded.FileName,
		Purpose:   uploaded.Purpose,
		Bytes:     int64(uploaded.Bytes),
		Status:    uploaded.Status,
		CreatedAt: uploaded.CreatedAt,
	}, nil
}

// DeleteFile removes an uploaded file on the vendor side.
func (s *Service) DeleteFile(ctx context.Context, fileID string) error {
	if s.client == nil {
		return ErrNotConfigured
	}
	if err := s.client.DeleteFile(ctx, fileID); err != nil {
		return vendorError("delete file", err)
	}
	return nil
}

// CreateJob starts a fine-tuning job for an uploaded training file.
func (s *Service) CreateJob(ctx context.Context, trainingFileID, model, suffix string, epochs int) (models.FineTuneJob, error) {
	if s.client == nil {
		return models.FineTuneJob{}, ErrNotConfigured
	}
	if epochs <= 0 {
		epochs = config.DefaultEpochs
	}
	req := openai.FineTuningJobRequest{
		TrainingFile:    trainingFileID,
		Model:           model,
		Suffix:          suffix,
		Hyperparameters: &openai.Hyperparameters{Epochs: epochs},
	}
	job, err := s.client.CreateFineTuningJob(ctx, req)
	if err != nil {
		return models.FineTuneJob{}, vendorError("create job", err)
	}
	return convertJob(job), nil
}

// RetrieveJob fetches the current state of one fine-tuning job.
func (s *Service) RetrieveJob(ctx context.Context, jobID string) (models.FineTuneJob, error) {
	if s.client == nil {
		return models.FineTuneJob{}, ErrNotConfigured
	}
	job, err := s.client.RetrieveFineTuningJob(ctx, jobID)
	if err != nil {
		return models.FineTuneJob{}, vendorError("retrieve job", err)
	}
	return convertJob(job), nil
}

// CancelJob aborts a running fine-tuning job.
func (s *Service) CancelJob(ctx context.Context, jobID string) error {
	if s.client == nil {
		return ErrNotConfigured
	}
	if _, err := s.client.CancelFineTuningJob(ctx, jobID); err != nil {
		return vendorError("cancel job", err)
	}
	return nil
}

// ListJobEvents returns the most recent progress events for a job, oldest
// first so they read top to bottom.
func (s *Service) ListJobEvents(ctx context.Context, jobID string, limit int) ([]models.JobEvent, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = 5
	}
	list, err := s.client.ListFineTuningJobEvents(ctx, jobID, openai.ListFineTuningJobEventsWithLimit(limit))
	if err != nil {
		return nil, vendorError("list job events", err)
	}
	events := make([]models.JobEvent, 0, len(list.Data))
	for i := len(list.Data) - 1; i >= 0; i-- {
		e := list.Data[i]
		events = append(events, models.JobEvent{
			CreatedAt: int64(e.CreatedAt),
			Level:     e.Level,
			Message:   e.Message,
		})
	}
	return events, nil
}

// DeleteModel removes a fine-tuned model from the account.
func (s *Service) DeleteModel(ctx context.Context, modelID string) error {
	if s.client == nil {
		return ErrNotConfigured
	}
	if _, err := s.client.DeleteFineTuneModel(ctx, modelID); err != nil {
		return vendorError("delete model", err)
	}
	return nil
}

// Chat runs a single-turn chat completion against the given model.
func (s *Service) Chat(ctx context.Context, model, systemPrompt, message string) (string, error) {
	if s.client == nil {
		return "", ErrNotConfigured
	}
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: s.chatMaxTokens,
	})
	if err != nil {
		return "", vendorError("chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func convertJob(job openai.FineTuningJob) models.FineTuneJob {
	return models.FineTuneJob{
		ID:             job.ID,
		Model:          job.Model,
		FineTunedModel: job.FineTunedModel,
		Status:         job.Status,
		TrainingFile:   job.TrainingFile,
		CreatedAt:      job.CreatedAt,
		FinishedAt:     job.FinishedAt,
	}
}

// vendorError strips the SDK wrapper down to the API's own message so the
// reason shown in the browser matches what the vendor said.
func vendorError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Errorf("%s: %s", op, apiErr.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}
