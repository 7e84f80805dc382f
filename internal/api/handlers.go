package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/config"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/jsonl"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/models"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/redis"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/service/ai"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/service/manager"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/internal/worker"
	"github.com/Araiseimitsu/finetuning-for-chatgpt/web"
)

const statsCacheKey = "dashboard:stats"

type AIClient interface {
	Configured() bool
	ListTrainingFiles(ctx context.Context) ([]models.TrainingFile, error)
	UploadTrainingFile(ctx context.Context, name string, content []byte) (models.TrainingFile, error)
	DeleteFile(ctx context.Context, fileID string) error
	CreateJob(ctx context.Context, trainingFileID, model, suffix string, epochs int) (models.FineTuneJob, error)
	RetrieveJob(ctx context.Context, jobID string) (models.FineTuneJob, error)
	CancelJob(ctx context.Context, jobID string) error
	ListJobEvents(ctx context.Context, jobID string, limit int) ([]models.JobEvent, error)
	ListJobs(ctx context.Context, limit int) ([]models.FineTuneJob, error)
	SucceededModels(ctx context.Context) ([]ai.ModelOption, error)
	DeleteModel(ctx context.Context, modelID string) error
	Chat(ctx context.Context, model, systemPrompt, message string) (string, error)
}

// Handler wires HTTP routes to the vendor client, the transcript store and the
// background job watcher.
type Handler struct {
	ai            AIClient
	store         *manager.Service
	poller        *worker.Poller
	cache         *redis.Client
	maxUpload     int64
	statsTTL      time.Duration
	defaultModel  string
	defaultEpochs int
}

// NewHandler constructs a Handler instance. cacheClient may be nil.
func NewHandler(client AIClient, store *manager.Service, poller *worker.Poller, cacheClient *redis.Client, cfg *config.Config) *Handler {
	return &Handler{
		ai:            client,
		store:         store,
		poller:        poller,
		cache:         cacheClient,
		maxUpload:     int64(cfg.BasicConfig.MaxUploadMB) << 20,
		statsTTL:      time.Duration(cfg.BasicConfig.StatsCacheTTL) * time.Second,
		defaultModel:  cfg.OpenAI.DefaultModel,
		defaultEpochs: cfg.OpenAI.DefaultEpochs,
	}
}

// RegisterRoutes attaches all HTTP routes, templates and static assets to the
// router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(web.Templates())
	router.StaticFS("/static", http.FS(web.Static()))

	router.GET("/", h.indexPage)
	router.GET("/files", h.filesPage)
	router.GET("/jobs", h.jobsPage)
	router.GET("/chat", h.chatPage)

	api := router.Group("/api")
	api.POST("/files/upload", h.uploadFile)
	api.DELETE("/files/:id", h.deleteFile)
	api.POST("/jobs/create", h.createJob)
	api.GET("/jobs", h.listJobs)
	api.GET("/jobs/:id", h.jobStatus)
	api.POST("/jobs/:id/cancel", h.cancelJob)
	api.DELETE("/models/*id", h.deleteModel)
	api.POST("/chat", h.chat)
	api.GET("/chat/sessions", h.listChatSessions)
	api.GET("/chat/sessions/:id/messages", h.chatSessionMessages)
	api.DELETE("/chat/sessions/:id", h.deleteChatSession)

	htmx := router.Group("/htmx")
	htmx.GET("/files-list", h.htmxFilesList)
	htmx.GET("/jobs-list", h.htmxJobsList)
	htmx.GET("/job-status/:id", h.htmxJobStatus)
}

// View models carry pre-formatted values into the templates.
type fileView struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Purpose   string `json:"purpose"`
	Bytes     string `json:"bytes"`
	CreatedAt string `json:"created_at"`
	Status    string `json:"status"`
}

type jobView struct {
	ID             string `json:"id"`
	Model          string `json:"model"`
	FineTunedModel string `json:"fine_tuned_model"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
	FinishedAt     string `json:"finished_at"`
}

type eventView struct {
	Time    string `json:"time"`
	Message string `json:"message"`
}

func fileViews(files []models.TrainingFile) []fileView {
	views := make([]fileView, 0, len(files))
	for _, f := range files {
		views = append(views, fileView{
			ID:        f.ID,
			Filename:  f.Filename,
			Purpose:   f.Purpose,
			Bytes:     formatBytes(f.Bytes),
			CreatedAt: formatTimestamp(f.CreatedAt),
			Status:    f.Status,
		})
	}
	return views
}

func jobViews(jobs []models.FineTuneJob) []jobView {
	views := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, jobView{
			ID:             j.ID,
			Model:          j.Model,
			FineTunedModel: j.FineTunedModel,
			Status:         j.Status,
			CreatedAt:      formatTimestamp(j.CreatedAt),
			FinishedAt:     formatTimestamp(j.FinishedAt),
		})
	}
	return views
}

func eventViews(events []models.JobEvent) []eventView {
	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, eventView{
			Time:    formatTimestamp(e.CreatedAt),
			Message: e.Message,
		})
	}
	return views
}

// dashboardStats builds the dashboard counters, serving from the cache when a
// fresh snapshot exists. Vendor failures degrade to zero counts.
func (h *Handler) dashboardStats(ctx context.Context) models.DashboardStats {
	if h.cache != nil {
		if raw, err := h.cache.Get(ctx, statsCacheKey); err == nil {
			var stats models.DashboardStats
			if json.Unmarshal([]byte(raw), &stats) == nil {
				return stats
			}
		} else if !errors.Is(err, redis.ErrCacheMiss) {
			log.Printf("dashboard stats cache read failed: %v", err)
		}
	}

	stats, complete := h.collectStats(ctx)

	// A snapshot with a failed vendor call would pin zero counts on the
	// dashboard for the whole TTL, so only complete snapshots are cached.
	if h.cache != nil && complete {
		if raw, err := json.Marshal(stats); err == nil {
			if err := h.cache.Set(ctx, statsCacheKey, raw, h.statsTTL); err != nil {
				log.Printf("dashboard stats cache write failed: %v", err)
			}
		}
	}
	return stats
}

// collectStats queries the vendor for the dashboard counters. complete is
// false when any vendor call failed and the counts are partial.
func (h *Handler) collectStats(ctx context.Context) (stats models.DashboardStats, complete bool) {
	stats.APIConnected = h.ai.Configured()
	complete = true
	if !stats.APIConnected {
		return stats, complete
	}

	if files, err := h.ai.ListTrainingFiles(ctx); err == nil {
		stats.Files = len(files)
	} else {
		log.Printf("dashboard stats: list files failed: %v", err)
		complete = false
	}
	if jobs, err := h.ai.ListJobs(ctx, 100); err == nil {
		stats.Jobs = len(jobs)
		for _, j := range jobs {
			if j.Status == "succeeded" {
				stats.Models++
			}
		}
	} else {
		log.Printf("dashboard stats: list jobs failed: %v", err)
		complete = false
	}
	return stats, complete
}

// Pages

func (h *Handler) indexPage(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"stats": h.dashboardStats(c.Request.Context()),
		"page":  "dashboard",
	})
}

func (h *Handler) filesPage(c *gin.Context) {
	var files []fileView
	if h.ai.Configured() {
		if list, err := h.ai.ListTrainingFiles(c.Request.Context()); err == nil {
			files = fileViews(list)
		}
	}
	c.HTML(http.StatusOK, "files.html", gin.H{
		"stats": gin.H{"APIConnected": h.ai.Configured()},
		"files": files,
		"page":  "files",
	})
}

func (h *Handler) jobsPage(c *gin.Context) {
	var jobs []jobView
	var files []fileView
	if h.ai.Configured() {
		ctx := c.Request.Context()
		if list, err := h.ai.ListJobs(ctx, 50); err == nil {
			jobs = jobViews(list)
		}
		if list, err := h.ai.ListTrainingFiles(ctx); err == nil {
			for _, f := range list {
				if f.Status != "processed" {
					continue
				}
				files = append(files, fileView{ID: f.ID, Filename: f.Filename})
			}
		}
	}
	c.HTML(http.StatusOK, "jobs.html", gin.H{
		"stats":          gin.H{"APIConnected": h.ai.Configured()},
		"jobs":           jobs,
		"files":          files,
		"default_model":  h.defaultModel,
		"default_epochs": h.defaultEpochs,
		"page":           "jobs",
	})
}

func (h *Handler) chatPage(c *gin.Context) {
	var options []ai.ModelOption
	if h.ai.Configured() {
		if list, err := h.ai.SucceededModels(c.Request.Context()); err == nil {
			options = list
		}
	}
	c.HTML(http.StatusOK, "chat.html", gin.H{
		"stats":  gin.H{"APIConnected": h.ai.Configured()},
		"models": options,
		"page":   "chat",
	})
}

// API endpoints

func (h *Handler) uploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ファイルが指定されていません"})
		return
	}
	if fileHeader.Size > h.maxUpload {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ファイルサイズが上限を超えています"})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ファイルを読み込めませんでした"})
		return
	}
	defer src.Close()
	content, err := io.ReadAll(io.LimitReader(src, h.maxUpload+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ファイルを読み込めませんでした"})
		return
	}
	if int64(len(content)) > h.maxUpload {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ファイルサイズが上限を超えています"})
		return
	}

	result, err := jsonl.Validate(string(content))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	uploaded, err := h.ai.UploadTrainingFile(c.Request.Context(), fileHeader.Filename, content)
	if err != nil {
		h.vendorError(c, err)
		return
	}

	if _, err := h.store.RecordUpload(c.Request.Context(), models.UploadRecord{
		FileID:   uploaded.ID,
		Filename: uploaded.Filename,
		Size:     uploaded.Bytes,
		Format:   string(result.Format),
		Samples:  result.Samples,
	}); err != nil {
		log.Printf("record upload audit failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"file_id":  uploaded.ID,
		"filename": uploaded.Filename,
		"message":  "アップロード成功: " + result.Message(),
	})
}

func (h *Handler) deleteFile(c *gin.Context) {
	if err := h.ai.DeleteFile(c.Request.Context(), c.Param("id")); err != nil {
		h.vendorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "ファイルを削除しました"})
}

func (h *Handler) createJob(c *gin.Context) {
	trainingFileID := strings.TrimSpace(c.PostForm("training_file_id"))
	if trainingFileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "学習ファイルを指定してください"})
		return
	}
	model := strings.TrimSpace(c.PostForm("model"))
	if model == "" {
		model = h.defaultModel
	}
	suffix := strings.TrimSpace(c.PostForm("suffix"))
	epochs := h.defaultEpochs
	if raw := strings.TrimSpace(c.PostForm("epochs")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "エポック数が不正です"})
			return
		}
		epochs = parsed
	}

	job, err := h.ai.CreateJob(c.Request.Context(), trainingFileID, model, suffix, epochs)
	if err != nil {
		h.vendorError(c, err)
		return
	}

	h.poller.Record(c.Request.Context(), job)
	h.poller.Watch(job.ID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job_id":  job.ID,
		"status":  job.Status,
		"message": "ジョブを作成しました",
	})
}

func (h *Handler) listJobs(c *gin.Context) {
	ctx := c.Request.Context()
	jobs, err := h.ai.ListJobs(ctx, 50)
	if err != nil {
		// Serve the locally recorded job history when the vendor is
		// unreachable, so the jobs page keeps working offline.
		local, localErr := h.store.ListJobRecords(ctx)
		if localErr != nil || len(local) == 0 {
			h.vendorError(c, err)
			return
		}
		log.Printf("list jobs from vendor failed, serving %d local records: %v", len(local), err)
		c.JSON(http.StatusOK, gin.H{"jobs": jobViews(local), "stale": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobViews(jobs)})
}

func (h *Handler) jobStatus(c *gin.Context) {
	jobID := c.Param("id")
	ctx := c.Request.Context()

	job, cached := h.poller.Snapshot(ctx, jobID)
	if !cached {
		fetched, err := h.ai.RetrieveJob(ctx, jobID)
		if err != nil {
			h.vendorError(c, err)
			return
		}
		h.poller.Record(ctx, fetched)
		job = &fetched
	}

	events, err := h.ai.ListJobEvents(ctx, jobID, 5)
	if err != nil {
		log.Printf("list events for %s failed: %v", jobID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"id":               job.ID,
		"status":           job.Status,
		"model":            job.Model,
		"fine_tuned_model": job.FineTunedModel,
		"created_at":       formatTimestamp(job.CreatedAt),
		"finished_at":      formatTimestamp(job.FinishedAt),
		"events":           eventViews(events),
	})
}

func (h *Handler) cancelJob(c *gin.Context) {
	jobID := c.Param("id")
	if err := h.ai.CancelJob(c.Request.Context(), jobID); err != nil {
		h.vendorError(c, err)
		return
	}
	// Drop the snapshot so the next status read reflects the cancellation,
	// and keep watching until the vendor reports the terminal state.
	h.poller.Invalidate(c.Request.Context(), jobID)
	h.poller.Watch(jobID)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "ジョブをキャンセルしました"})
}

func (h *Handler) deleteModel(c *gin.Context) {
	modelID := strings.TrimPrefix(c.Param("id"), "/")
	if modelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "モデルIDが指定されていません"})
		return
	}
	if err := h.ai.DeleteModel(c.Request.Context(), modelID); err != nil {
		h.vendorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "モデルを削除しました"})
}

func (h *Handler) chat(c *gin.Context) {
	var req struct {
		Model        string `json:"model"`
		Message      string `json:"message"`
		SystemPrompt string `json:"system_prompt"`
		SessionID    int64  `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if req.Model == "" || message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "モデルとメッセージは必須です"})
		return
	}

	ctx := c.Request.Context()
	sessionID := req.SessionID
	if sessionID == 0 {
		session, err := h.store.CreateSession(ctx, req.Model, sessionTitle(message))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		sessionID = session.ID
	}

	if _, err := h.store.AppendMessage(ctx, sessionID, models.RoleUser, message); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "セッションが見つかりません"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.ai.Chat(ctx, req.Model, req.SystemPrompt, message)
	if err != nil {
		h.vendorError(c, err)
		return
	}

	if _, err := h.store.AppendMessage(ctx, sessionID, models.RoleAssistant, reply); err != nil {
		log.Printf("persist assistant message failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"response": reply, "session_id": sessionID})
}

func (h *Handler) listChatSessions(c *gin.Context) {
	sessions, err := h.store.ListSessions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sessions == nil {
		sessions = make([]models.Session, 0)
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *Handler) chatSessionMessages(c *gin.Context) {
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	session, messages, err := h.store.GetSessionWithMessages(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "セッションが見つかりません"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "messages": messages})
}

func (h *Handler) deleteChatSession(c *gin.Context) {
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	if err := h.store.DeleteSession(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "セッションが見つかりません"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// HTMX partials

func (h *Handler) htmxFilesList(c *gin.Context) {
	var files []fileView
	if h.ai.Configured() {
		if list, err := h.ai.ListTrainingFiles(c.Request.Context()); err == nil {
			files = fileViews(list)
		}
	}
	c.HTML(http.StatusOK, "partials/files_list.html", gin.H{"files": files})
}

func (h *Handler) htmxJobsList(c *gin.Context) {
	var jobs []jobView
	if h.ai.Configured() {
		if list, err := h.ai.ListJobs(c.Request.Context(), 50); err == nil {
			jobs = jobViews(list)
		}
	}
	c.HTML(http.StatusOK, "partials/jobs_list.html", gin.H{"jobs": jobs})
}

func (h *Handler) htmxJobStatus(c *gin.Context) {
	jobID := c.Param("id")
	ctx := c.Request.Context()

	var data gin.H
	job, cached := h.poller.Snapshot(ctx, jobID)
	if !cached {
		if fetched, err := h.ai.RetrieveJob(ctx, jobID); err == nil {
			h.poller.Record(ctx, fetched)
			job = &fetched
		}
	}
	if job != nil {
		events, err := h.ai.ListJobEvents(ctx, jobID, 10)
		if err != nil {
			log.Printf("list events for %s failed: %v", jobID, err)
		}
		data = gin.H{
			"ID":             job.ID,
			"Status":         job.Status,
			"Model":          job.Model,
			"FineTunedModel": job.FineTunedModel,
			"CreatedAt":      formatTimestamp(job.CreatedAt),
			"FinishedAt":     formatTimestamp(job.FinishedAt),
			"Events":         eventViews(events),
		}
	}
	c.HTML(http.StatusOK, "partials/job_status.html", gin.H{"job": data})
}

// vendorError maps a vendor client failure to an HTTP response.
func (h *Handler) vendorError(c *gin.Context, err error) {
	if errors.Is(err, ai.ErrNotConfigured) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": ai.ErrNotConfigured.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// sessionTitle derives a transcript title from the opening message.
func sessionTitle(message string) string {
	runes := []rune(message)
	if len(runes) > 30 {
		return string(runes[:30])
	}
	return message
}
