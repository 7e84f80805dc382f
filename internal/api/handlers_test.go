package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/config"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/models"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/service/ai"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/service/manager"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/storage"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/worker"
)

type mockAI struct {
	configured bool
	files      []models.TrainingFile
	jobs       map[string]models.FineTuneJob
	canceled   []string
	deleted    []string
	chatReply  string
	failWith   error
}

func newMockAI() *mockAI {
	return &mockAI{
		configured: true,
		jobs:       make(map[string]models.FineTuneJob),
		chatReply:  "こんにちは!",
	}
}

func (m *mockAI) Configured() bool { return m.configured }

func (m *mockAI) ListTrainingFiles(context.Context) ([]models.TrainingFile, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.files, nil
}

func (m *mockAI) UploadTrainingFile(_ context.Context, name string, content []byte) (models.TrainingFile, error) {
	if m.failWith != nil {
		return models.TrainingFile{}, m.failWith
	}
	file := models.TrainingFile{
		ID:        "file-mock123",
		Filename:  name,
		Purpose:   "fine-tune",
		Bytes:     int64(len(content)),
		Status:    "processed",
		CreatedAt: time.Now().Unix(),
	}
	m.files = append(m.files, file)
	return file, nil
}

func (m *mockAI) DeleteFile(_ context.Context, fileID string) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.deleted = append(m.deleted, fileID)
	return nil
}

func (m *mockAI) CreateJob(_ context.Context, trainingFileID, model, suffix string, epochs int) (models.FineTuneJob, error) {
	if m.failWith != nil {
		return models.FineTuneJob{}, m.failWith
	}
	job := models.FineTuneJob{
		ID:           "ftjob-mock123",
		Model:        model,
		Status:       "queued",
		TrainingFile: trainingFileID,
		CreatedAt:    time.Now().Unix(),
	}
	m.jobs[job.ID] = job
	return job, nil
}

func (m *mockAI) RetrieveJob(_ context.Context, jobID string) (models.FineTuneJob, error) {
	if m.failWith != nil {
		return models.FineTuneJob{}, m.failWith
	}
	job, ok := m.jobs[jobID]
	if !ok {
		return models.FineTuneJob{}, errors.New("job not found")
	}
	return job, nil
}

func (m *mockAI) CancelJob(_ context.Context, jobID string) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.canceled = append(m.canceled, jobID)
	if job, ok := m.jobs[jobID]; ok {
		job.Status = "cancelled"
		m.jobs[jobID] = job
	}
	return nil
}

func (m *mockAI) ListJobEvents(context.Context, string, int) ([]models.JobEvent, error) {
	return []models.JobEvent{{CreatedAt: time.Now().Unix(), Level: "info", Message: "Created fine-tuning job"}}, nil
}

func (m *mockAI) ListJobs(context.Context, int) ([]models.FineTuneJob, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	jobs := make([]models.FineTuneJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (m *mockAI) SucceededModels(context.Context) ([]ai.ModelOption, error) {
	return []ai.ModelOption{{ID: "ft:gpt-4o-mini-2024-07-18:acme:demo:abc", Name: "abc"}}, nil
}

func (m *mockAI) DeleteModel(_ context.Context, modelID string) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.deleted = append(m.deleted, modelID)
	return nil
}

func (m *mockAI) Chat(_ context.Context, model, systemPrompt, message string) (string, error) {
	if m.failWith != nil {
		return "", m.failWith
	}
	return m.chatReply, nil
}

func newTestServer(t *testing.T) (*gin.Engine, *sql.DB, *mockAI, *manager.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	cfg.ApplyDefaults()

	db, err := storage.Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	mock := newMockAI()
	store := manager.NewService(db, "sqlite3")
	poller := worker.NewPoller(mock, store, nil, time.Minute)
	handler := NewHandler(mock, store, poller, nil, cfg)

	router := gin.New()
	handler.RegisterRoutes(router)
	return router, db, mock, store
}

func doJSONRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func doFormRequest(t *testing.T, router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func doUpload(t *testing.T, router *gin.Engine, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/files/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode json: %v", err)
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("unexpected status %d, body: %s", rec.Code, rec.Body.String())
	}
}

func TestPagesRender(t *testing.T) {
	router, db, _, _ := newTestServer(t)
	defer db.Close()

	for _, path := range []string{"/", "/files", "/jobs", "/chat"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: unexpected status %d", path, rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
			t.Fatalf("GET %s: expected HTML, got %s", path, rec.Header().Get("Content-Type"))
		}
	}
}

func TestJobsPageRendersConfiguredDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	cfg.ApplyDefaults()
	cfg.OpenAI.DefaultModel = "gpt-test-base"
	cfg.OpenAI.DefaultEpochs = 7

	db, err := storage.Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	mock := newMockAI()
	store := manager.NewService(db, "sqlite3")
	poller := worker.NewPoller(mock, store, nil, time.Minute)
	router := gin.New()
	NewHandler(mock, store, poller, nil, cfg).RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	assertStatus(t, rec, http.StatusOK)

	body := rec.Body.String()
	if !strings.Contains(body, `value="gpt-test-base"`) {
		t.Fatal("job form does not prefill the configured base model")
	}
	if !strings.Contains(body, `value="7"`) {
		t.Fatal("job form does not prefill the configured epoch count")
	}
}

func TestUploadValidChatFormat(t *testing.T) {
	router, db, _, store := newTestServer(t)
	defer db.Close()

	content := `{"messages": [{"role": "user", "content": "こんにちは"}, {"role": "assistant", "content": "はい"}]}
{"messages": [{"role": "user", "content": "質問"}, {"role": "assistant", "content": "回答"}]}
`
	rec := doUpload(t, router, "train.jsonl", content)
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		Success  bool   `json:"success"`
		FileID   string `json:"file_id"`
		Filename string `json:"filename"`
		Message  string `json:"message"`
	}
	decodeJSON(t, rec.Body.Bytes(), &body)
	if !body.Success || body.FileID != "file-mock123" {
		t.Fatalf("unexpected upload response: %+v", body)
	}
	if !strings.HasPrefix(body.Message, "アップロード成功: ") {
		t.Fatalf("unexpected upload message: %s", body.Message)
	}
	if !strings.Contains(body.Message, "2サンプル") {
		t.Fatalf("expected sample count in message: %s", body.Message)
	}

	uploads, err := store.ListUploads(context.Background(), 10)
	if err != nil {
		t.Fatalf("list uploads: %v", err)
	}
	if len(uploads) != 1 || uploads[0].FileID != "file-mock123" {
		t.Fatalf("expected one audit record for file-mock123, got %+v", uploads)
	}
}

func TestUploadInvalidJSONL(t *testing.T) {
	router, db, _, _ := newTestServer(t)
	defer db.Close()

	rec := doUpload(t, router, "bad.jsonl", "not json at all\n")
	assertStatus(t, rec, http.StatusBadRequest)

	var body struct {
		Error string `json:"error"`
	}
	decodeJSON(t, rec.Body.Bytes(), &body)
	if !strings.HasPrefix(body.Error, "行1") {
		t.Fatalf("expected line-1 validation error, got %s", body.Error)
	}
}

func TestUploadEmptyFile(t *testing.T) {
	router, db, _, _ := newTestServer(t)
	defer db.Close()

	rec := doUpload(t, router, "empty.jsonl", "\n\n")
	assertStatus(t, rec, http.StatusBadRequest)

	var body struct {
		Error string `json:"error"`
	}
	decodeJSON(t, rec.Body.Bytes(), &body)
	if body.Error != "学習データが空です" {
		t.Fatalf("unexpected error: %s", body.Error)
	}
}

func TestCreateJobRegistersWatch(t *testing.T) {
	router, db, mock, store := newTestServer(t)
	defer db.Close()

	rec := doFormRequest(t, router, "/api/jobs/create", url.Values{
		"training_file_id": {"file-mock123"},
		"suffix":           {"demo"},
		"epochs":           {"5"},
	})
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		Success bool   `json:"success"`
		JobID   string `json:"job_id"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	decodeJSON(t, rec.Body.Bytes(), &body)
	if !body.Success || body.JobID != "ftjob-mock123" || body.Message != "ジョブを作成しました" {
		t.Fatalf("unexpected create response: %+v", body)
	}
	if body.Status != "queued" {
		t.Fatalf("unexpected status: %s", body.Status)
	}
	if _, ok := mock.jobs[body.JobID]; !ok {
		t.Fatalf("job not created on vendor")
	}

	record, err := store.GetJobRecord(context.Background(), body.JobID)
	if err != nil {
		t.Fatalf("get job record: %v", err)
	}
	if record.Status != "queued" {
		t.Fatalf("expected queued record, got %s", record.Status)
	}
}

func TestCreateJobRequiresTrainingFile(t *testing.T) {
	router, db, _, _ := newTestServer(t)
	defer db.Close()

	rec := doFormRequest(t, router, "/api/jobs/create", url.Values{})
	assertStatus(t, rec, http.StatusBadRequest)
}

func TestJobStatusFallsBackToVendor(t *testing.T) {
	router, db, mock, _ := newTestServer(t)
	defer db.Close()

	mock.jobs["ftjob-live"] = models.FineTuneJob{
		ID:        "ftjob-live",
		Model:     "gpt-4o-mini-2024-07-18",
		Status:    "running",
		CreatedAt: time.Now().Unix(),
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/ftjob-live", nil))
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		ID     string      `json:"id"`
		Status string      `json:"status"`
		Events []eventView `json:"events"`
	}
	decodeJSON(t, rec.Body.Bytes(), &body)
	if body.ID != "ftjob-live" || body.Status != "running" {
		t.Fatalf("unexpected status response: %+v", body)
	}
	if len(body.Events) != 1 {
		t.Fatalf("expected one event, got %d", len(body.Events))
	}
}

func TestListJobsServesLocalRecordsWhenVendorFails(t *testing.T) {
	router, db, mock, store := newTestServer(t)
	defer db.Close()

	if err := store.UpsertJobRecord(context.Background(), models.FineTuneJob{
		ID:        "ftjob-local",
		Model:     "gpt-4o-mini-2024-07-18",
		Status:    "succeeded",
		CreatedAt: time.Now().Unix(),
	}); err != nil {
		t.Fatalf("seed job record: %v", err)
	}
	mock.failWith = errors.New("vendor down")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		Jobs  []jobView `json:"jobs"`
		Stale bool      `json:"stale"`
	}
	decodeJSON(t, rec.Body.Bytes(), &body)
	if len(body.Jobs) != 1 || body.Jobs[0].ID != "ftjob-local" {
		t.Fatalf("expected the locally recorded job, got %+v", body.Jobs)
	}
	if !body.Stale {
		t.Fatal("expected the response to be marked stale")
	}
}

func TestListJobsVendorFailureWithoutLocalRecords(t *testing.T) {
	router, db, mock, _ := newTestServer(t)
	defer db.Close()

	mock.failWith = errors.New("vendor down")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	assertStatus(t, rec, http.StatusInternalServerError)
}

func TestCollectStatsReportsDegradedSnapshots(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	cfg.ApplyDefaults()

	db, err := storage.Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	mock := newMockAI()
	store := manager.NewService(db, "sqlite3")
	poller := worker.NewPoller(mock, store, nil, time.Minute)
	handler := NewHandler(mock, store, poller, nil, cfg)

	if _, complete := handler.collectStats(context.Background()); !complete {
		t.Fatal("expected a complete snapshot while the vendor is healthy")
	}

	mock.failWith = errors.New("vendor down")
	stats, complete := handler.collectStats(context.Background())
	if complete {
		t.Fatal("expected the snapshot to be marked incomplete when vendor calls fail")
	}
	if !stats.APIConnected {
		t.Fatal("a failed vendor call must not flip the configured flag")
	}
}

func TestCancelJob(t *testing.T) {
	router, db, mock, _ := newTestServer(t)
	defer db.Close()

	mock.jobs["ftjob-live"] = models.FineTuneJob{ID: "ftjob-live", Status: "running"}

	rec := doJSONRequest(t, router, http.MethodPost, "/api/jobs/ftjob-live/cancel", nil)
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeJSON(t, rec.Body.Bytes(), &body)
	if !body.Success || body.Message != "ジョブをキャンセルしました" {
		t.Fatalf("unexpected cancel response: %+v", body)
	}
	if len(mock.canceled) != 1 || mock.canceled[0] != "ftjob-live" {
		t.Fatalf("cancel not forwarded to vendor: %v", mock.canceled)
	}
}

func TestDeleteModelWildcardPath(t *testing.T) {
	router, db, mock, _ := newTestServer(t)
	defer db.Close()

	modelID := "ft:gpt-4o-mini-2024-07-18:acme:demo:abc"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/models/"+modelID, nil))
	assertStatus(t, rec, http.StatusOK)

	if len(mock.deleted) != 1 || mock.deleted[0] != modelID {
		t.Fatalf("expected model id with colons intact, got %v", mock.deleted)
	}
}

func TestChatSuccessPersistsTranscript(t *testing.T) {
	router, db, _, store := newTestServer(t)
	defer db.Close()

	rec := doJSONRequest(t, router, http.MethodPost, "/api/chat", map[string]interface{}{
		"model":   "ft:gpt-4o-mini-2024-07-18:acme:demo:abc",
		"message": "  会社について教えて  ",
	})
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		Response  string `json:"response"`
		SessionID int64  `json:"session_id"`
	}
	decodeJSON(t, rec.Body.Bytes(), &body)
	if body.Response != "こんにちは!" {
		t.Fatalf("unexpected reply: %s", body.Response)
	}
	if body.SessionID <= 0 {
		t.Fatalf("expected a new session id")
	}

	_, messages, err := store.GetSessionWithMessages(context.Background(), body.SessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected user and assistant messages, got %d", len(messages))
	}
	if messages[0].Role != models.RoleUser || messages[0].Content != "会社について教えて" {
		t.Fatalf("user message not trimmed and persisted: %+v", messages[0])
	}
	if messages[1].Role != models.RoleAssistant {
		t.Fatalf("expected assistant message second: %+v", messages[1])
	}

	// Follow-up on the same session appends rather than creating a new one.
	rec2 := doJSONRequest(t, router, http.MethodPost, "/api/chat", map[string]interface{}{
		"model":      "ft:gpt-4o-mini-2024-07-18:acme:demo:abc",
		"message":    "続きを教えて",
		"session_id": body.SessionID,
	})
	assertStatus(t, rec2, http.StatusOK)
	_, messages, err = store.GetSessionWithMessages(context.Background(), body.SessionID)
	if err != nil {
		t.Fatalf("get session after follow-up: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages after follow-up, got %d", len(messages))
	}
}

func TestChatRequiresModelAndMessage(t *testing.T) {
	router, db, _, _ := newTestServer(t)
	defer db.Close()

	cases := []map[string]interface{}{
		{"message": "モデルなし"},
		{"model": "ft:x"},
		{"model": "ft:x", "message": "   "},
	}
	for _, payload := range cases {
		rec := doJSONRequest(t, router, http.MethodPost, "/api/chat", payload)
		assertStatus(t, rec, http.StatusBadRequest)
		var body struct {
			Error string `json:"error"`
		}
		decodeJSON(t, rec.Body.Bytes(), &body)
		if body.Error != "モデルとメッセージは必須です" {
			t.Fatalf("unexpected error for %v: %s", payload, body.Error)
		}
	}
}

func TestChatVendorFailure(t *testing.T) {
	router, db, mock, _ := newTestServer(t)
	defer db.Close()

	mock.failWith = errors.New("model overloaded")
	rec := doJSONRequest(t, router, http.MethodPost, "/api/chat", map[string]interface{}{
		"model":   "ft:x",
		"message": "テスト",
	})
	assertStatus(t, rec, http.StatusInternalServerError)

	var body struct {
		Error string `json:"error"`
	}
	decodeJSON(t, rec.Body.Bytes(), &body)
	if body.Error != "model overloaded" {
		t.Fatalf("unexpected error body: %s", body.Error)
	}
}

func TestChatNotConfigured(t *testing.T) {
	router, db, mock, _ := newTestServer(t)
	defer db.Close()

	mock.failWith = ai.ErrNotConfigured
	rec := doJSONRequest(t, router, http.MethodPost, "/api/chat", map[string]interface{}{
		"model":   "ft:x",
		"message": "テスト",
	})
	assertStatus(t, rec, http.StatusInternalServerError)

	var body struct {
		Error string `json:"error"`
	}
	decodeJSON(t, rec.Body.Bytes(), &body)
	if body.Error != ai.ErrNotConfigured.Error() {
		t.Fatalf("unexpected error body: %s", body.Error)
	}
}

func TestChatUnknownSession(t *testing.T) {
	router, db, _, _ := newTestServer(t)
	defer db.Close()

	rec := doJSONRequest(t, router, http.MethodPost, "/api/chat", map[string]interface{}{
		"model":      "ft:x",
		"message":    "テスト",
		"session_id": 9999,
	})
	assertStatus(t, rec, http.StatusNotFound)
}

func TestChatSessionEndpoints(t *testing.T) {
	router, db, _, _ := newTestServer(t)
	defer db.Close()

	rec := doJSONRequest(t, router, http.MethodPost, "/api/chat", map[string]interface{}{
		"model":   "ft:x",
		"message": "一件目",
	})
	assertStatus(t, rec, http.StatusOK)
	var chatBody struct {
		SessionID int64 `json:"session_id"`
	}
	decodeJSON(t, rec.Body.Bytes(), &chatBody)

	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/api/chat/sessions", nil))
	assertStatus(t, listRec, http.StatusOK)
	var listBody struct {
		Sessions []models.Session `json:"sessions"`
	}
	decodeJSON(t, listRec.Body.Bytes(), &listBody)
	if len(listBody.Sessions) != 1 || listBody.Sessions[0].ID != chatBody.SessionID {
		t.Fatalf("unexpected session list: %+v", listBody.Sessions)
	}
	if listBody.Sessions[0].Title != "一件目" {
		t.Fatalf("expected title from opening message, got %q", listBody.Sessions[0].Title)
	}

	msgRec := httptest.NewRecorder()
	router.ServeHTTP(msgRec, httptest.NewRequest(http.MethodGet,
		"/api/chat/sessions/"+strconv.FormatInt(chatBody.SessionID, 10)+"/messages", nil))
	assertStatus(t, msgRec, http.StatusOK)

	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, httptest.NewRequest(http.MethodDelete,
		"/api/chat/sessions/"+strconv.FormatInt(chatBody.SessionID, 10), nil))
	assertStatus(t, delRec, http.StatusNoContent)

	missingRec := httptest.NewRecorder()
	router.ServeHTTP(missingRec, httptest.NewRequest(http.MethodDelete,
		"/api/chat/sessions/"+strconv.FormatInt(chatBody.SessionID, 10), nil))
	assertStatus(t, missingRec, http.StatusNotFound)
}

func TestHTMXPartials(t *testing.T) {
	router, db, mock, _ := newTestServer(t)
	defer db.Close()

	mock.files = []models.TrainingFile{{
		ID: "file-1", Filename: "train.jsonl", Purpose: "fine-tune",
		Bytes: 2048, Status: "processed", CreatedAt: time.Now().Unix(),
	}}
	mock.jobs["ftjob-1"] = models.FineTuneJob{
		ID: "ftjob-1", Model: "gpt-4o-mini-2024-07-18", Status: "running",
		CreatedAt: time.Now().Unix(),
	}

	filesRec := httptest.NewRecorder()
	router.ServeHTTP(filesRec, httptest.NewRequest(http.MethodGet, "/htmx/files-list", nil))
	assertStatus(t, filesRec, http.StatusOK)
	if !strings.Contains(filesRec.Body.String(), "train.jsonl") {
		t.Fatalf("file name missing from partial: %s", filesRec.Body.String())
	}
	if !strings.Contains(filesRec.Body.String(), "2.00 KB") {
		t.Fatalf("formatted size missing from partial: %s", filesRec.Body.String())
	}

	jobsRec := httptest.NewRecorder()
	router.ServeHTTP(jobsRec, httptest.NewRequest(http.MethodGet, "/htmx/jobs-list", nil))
	assertStatus(t, jobsRec, http.StatusOK)
	if !strings.Contains(jobsRec.Body.String(), "ftjob-1") {
		t.Fatalf("job id missing from partial: %s", jobsRec.Body.String())
	}

	statusRec := httptest.NewRecorder()
	router.ServeHTTP(statusRec, httptest.NewRequest(http.MethodGet, "/htmx/job-status/ftjob-1", nil))
	assertStatus(t, statusRec, http.StatusOK)
	if !strings.Contains(statusRec.Body.String(), "running") {
		t.Fatalf("job status missing from partial: %s", statusRec.Body.String())
	}
}
