package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"postqueue/domain/model"
	"postqueue/usecase"
)

type IIntegrationHandler interface {
	List(ctx *gin.Context)
	Delete(ctx *gin.Context)
	Import(ctx *gin.Context)
}

type IntegrationHandler struct {
	integrationUsecase usecase.IIntegrationUsecase
	importUsecase      usecase.IImportUsecase
}

func NewIntegrationHandler(integrationUsecase usecase.IIntegrationUsecase, importUsecase usecase.IImportUsecase) IIntegrationHandler {
	return &IntegrationHandler{integrationUsecase: integrationUsecase, importUsecase: importUsecase}
}

func (h *IntegrationHandler) List(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	list, err := h.integrationUsecase.GetIntegrations(ctx.Request.Context(), userID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []*model.Integration{}
	}
	ctx.JSON(http.StatusOK, gin.H{"integrations": list})
}

func (h *IntegrationHandler) Delete(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	id, err := strconv.ParseInt(ctx.Param("integrationId"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid integration id"})
		return
	}
	if err := h.integrationUsecase.DeleteIntegration(ctx.Request.Context(), userID, id); err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Import pulls the account's recent posts from the platform and stores the
// ones not already known locally.
func (h *IntegrationHandler) Import(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	id, err := strconv.ParseInt(ctx.Param("integrationId"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid integration id"})
		return
	}
	summary, err := h.importUsecase.FetchRecentSocialPosts(ctx.Request.Context(), userID, id)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, summary)
}
