package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"postqueue/usecase"
)

type ICredentialHandler interface {
	Put(ctx *gin.Context)
	Get(ctx *gin.Context)
	Delete(ctx *gin.Context)
}

type CredentialHandler struct {
	credentialUsecase usecase.ICredentialUsecase
}

func NewCredentialHandler(credentialUsecase usecase.ICredentialUsecase) ICredentialHandler {
	return &CredentialHandler{credentialUsecase: credentialUsecase}
}

type putCredentialRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Put validates the pair live against the platform before persisting it.
func (h *CredentialHandler) Put(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	platform, ok := platformParam(ctx)
	if !ok {
		return
	}
	var req putCredentialRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.credentialUsecase.Save(ctx.Request.Context(), userID, platform, req.ClientID, req.ClientSecret); err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"saved": true})
}

func (h *CredentialHandler) Get(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	platform, ok := platformParam(ctx)
	if !ok {
		return
	}
	status, err := h.credentialUsecase.Status(ctx.Request.Context(), userID, platform)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, status)
}

func (h *CredentialHandler) Delete(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	platform, ok := platformParam(ctx)
	if !ok {
		return
	}
	if err := h.credentialUsecase.Delete(ctx.Request.Context(), userID, platform); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}
