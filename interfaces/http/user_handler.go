package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"postqueue/usecase"
)

type IUserHandler interface {
	Login(ctx *gin.Context)
}

type UserHandler struct {
	userUsecase usecase.IUserUsecase
}

func NewUserHandler(userUsecase usecase.IUserUsecase) IUserHandler {
	return &UserHandler{userUsecase: userUsecase}
}

type loginRequest struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

func (h *UserHandler) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := h.userUsecase.Login(ctx.Request.Context(), req.UserName, req.Password)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, result)
}
