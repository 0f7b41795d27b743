package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"postqueue/domain/model"
	"postqueue/usecase"
)

type IDestinationHandler interface {
	GetRecent(ctx *gin.Context)
	Create(ctx *gin.Context)
	Search(ctx *gin.Context)
}

type DestinationHandler struct {
	destinationUsecase usecase.IDestinationUsecase
}

func NewDestinationHandler(destinationUsecase usecase.IDestinationUsecase) IDestinationHandler {
	return &DestinationHandler{destinationUsecase: destinationUsecase}
}

func platformParam(ctx *gin.Context) (model.Platform, bool) {
	raw := ctx.Param("platform")
	if !model.IsValidPlatform(raw) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform " + raw})
		return "", false
	}
	return model.Platform(raw), true
}

func (h *DestinationHandler) GetRecent(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	platform, ok := platformParam(ctx)
	if !ok {
		return
	}
	limit := 10
	if v := ctx.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}
	list, err := h.destinationUsecase.GetRecent(ctx.Request.Context(), userID, platform, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	destinations := make([]gin.H, 0, len(list))
	for _, recent := range list {
		destinations = append(destinations, gin.H{
			"id":           recent.DestinationID,
			"type":         recent.Type,
			"name":         recent.Name,
			"description":  recent.Description,
			"metadata":     usecase.ParseRecentMetadata(recent),
			"use_count":    recent.UseCount,
			"last_used_at": recent.LastUsedAt,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"destinations": destinations})
}

type createDestinationRequest struct {
	Input         string `json:"input"`
	IntegrationID int64  `json:"integration_id"`
}

func (h *DestinationHandler) Create(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	platform, ok := platformParam(ctx)
	if !ok {
		return
	}
	var req createDestinationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Input == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "input is required"})
		return
	}
	dest, err := h.destinationUsecase.CreateFromInput(ctx.Request.Context(), userID, platform, req.Input, req.IntegrationID)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"destination": dest})
}

func (h *DestinationHandler) Search(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	platform, ok := platformParam(ctx)
	if !ok {
		return
	}
	q := ctx.Query("q")
	if q == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	integrationID, _ := strconv.ParseInt(ctx.Query("integration_id"), 10, 64)
	list, err := h.destinationUsecase.Search(ctx.Request.Context(), userID, platform, q, integrationID)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []*model.Destination{}
	}
	ctx.JSON(http.StatusOK, gin.H{"destinations": list})
}
