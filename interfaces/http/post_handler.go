package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"postqueue/domain/model"
	"postqueue/infrastructure/logger"
	"postqueue/usecase"
)

type IPostHandler interface {
	CreatePost(ctx *gin.Context)
	GetPosts(ctx *gin.Context)
	GetPost(ctx *gin.Context)
	DeletePost(ctx *gin.Context)
	PublishPost(ctx *gin.Context)
	ProcessDue(ctx *gin.Context)
}

type PostHandler struct {
	postUsecase usecase.IPostUsecase
	scheduler   *usecase.Scheduler
}

func NewPostHandler(postUsecase usecase.IPostUsecase, scheduler *usecase.Scheduler) IPostHandler {
	return &PostHandler{postUsecase: postUsecase, scheduler: scheduler}
}

type createPostRequest struct {
	IntegrationID    int64              `json:"integration_id"`
	Content          string             `json:"content"`
	ScheduledAt      *time.Time         `json:"scheduled_at"`
	Destination      *model.Destination `json:"destination"`
	AdditionalFields map[string]string  `json:"additional_fields"`
}

func (h *PostHandler) CreatePost(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	req, err := bindCreatePost(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	post, err := h.postUsecase.CreatePost(ctx.Request.Context(), userID, req)
	if err != nil {
		if post != nil {
			// Created but the immediate publish failed; hand back the failed
			// post with the reason instead of losing it.
			ctx.JSON(http.StatusOK, gin.H{"post": post, "publish_error": err.Error()})
			return
		}
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"post": post})
}

// bindCreatePost accepts JSON or, when media is attached, multipart form
// fields with JSON-encoded destination and additional_fields.
func bindCreatePost(ctx *gin.Context) (*usecase.CreatePostRequest, error) {
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		return bindMultipartPost(ctx)
	}
	var body createPostRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, errors.New("invalid request body")
	}
	return &usecase.CreatePostRequest{
		IntegrationID:    body.IntegrationID,
		Content:          body.Content,
		ScheduledAt:      body.ScheduledAt,
		Destination:      body.Destination,
		AdditionalFields: body.AdditionalFields,
	}, nil
}

func bindMultipartPost(ctx *gin.Context) (*usecase.CreatePostRequest, error) {
	integrationID, err := strconv.ParseInt(ctx.PostForm("integration_id"), 10, 64)
	if err != nil {
		return nil, errors.New("integration_id is required")
	}
	req := &usecase.CreatePostRequest{
		IntegrationID: integrationID,
		Content:       ctx.PostForm("content"),
	}
	if v := ctx.PostForm("scheduled_at"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, errors.New("scheduled_at must be RFC3339")
		}
		req.ScheduledAt = &ts
	}
	if v := ctx.PostForm("destination"); v != "" {
		var dest model.Destination
		if err := json.Unmarshal([]byte(v), &dest); err != nil {
			return nil, errors.New("destination must be a JSON object")
		}
		req.Destination = &dest
	}
	if v := ctx.PostForm("additional_fields"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.AdditionalFields); err != nil {
			return nil, errors.New("additional_fields must be a JSON object")
		}
	}
	if file, err := ctx.FormFile("media"); err == nil {
		opened, err := file.Open()
		if err != nil {
			return nil, errors.New("could not read media upload")
		}
		defer opened.Close()
		data, err := io.ReadAll(opened)
		if err != nil {
			return nil, errors.New("could not read media upload")
		}
		mimeType := file.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = http.DetectContentType(data)
		}
		req.Media = &model.Media{Data: data, MimeType: mimeType}
	}
	return req, nil
}

func (h *PostHandler) GetPosts(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	limit := 50
	if v := ctx.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	posts, err := h.postUsecase.GetPosts(ctx.Request.Context(), userID, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if posts == nil {
		posts = []*model.Post{}
	}
	ctx.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *PostHandler) GetPost(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	id, err := strconv.ParseInt(ctx.Param("postId"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}
	post, err := h.postUsecase.GetPost(ctx.Request.Context(), userID, id)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"post": post})
}

func (h *PostHandler) DeletePost(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	id, err := strconv.ParseInt(ctx.Param("postId"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}
	if err := h.postUsecase.DeletePost(ctx.Request.Context(), userID, id); err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *PostHandler) PublishPost(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	id, err := strconv.ParseInt(ctx.Param("postId"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}
	post, err := h.postUsecase.Publish(ctx.Request.Context(), userID, id)
	if err != nil {
		if post != nil {
			ctx.JSON(http.StatusOK, gin.H{"post": post, "publish_error": err.Error()})
			return
		}
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"post": post})
}

// ProcessDue triggers one scheduler tick on demand (admin/dev utility).
func (h *PostHandler) ProcessDue(ctx *gin.Context) {
	if h.scheduler == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler is not running"})
		return
	}
	if err := h.scheduler.TickOnce(ctx.Request.Context(), time.Now().UTC()); err != nil {
		logger.GetLogger().WithField("error", err).Error("Manual tick failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"processed": false, "error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"processed": true})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, usecase.ErrCredentialsNotConfigured):
		return http.StatusPreconditionFailed
	default:
		return http.StatusBadRequest
	}
}
