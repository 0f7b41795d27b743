package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"postqueue/domain/model"
	"postqueue/infrastructure/logger"
	"postqueue/usecase"
)

// stateCookieTTL bounds how long a pending OAuth handshake stays valid.
const stateCookieTTL = 15 * time.Minute

type IConnectHandler interface {
	GetAuthURL(ctx *gin.Context)
	Callback(ctx *gin.Context)
}

// ConnectHandler drives the OAuth connect flow. The handshake state lives
// in a short-lived httpOnly cookie so the unauthenticated callback can
// still be tied back to the initiating user.
type ConnectHandler struct {
	integrationUsecase usecase.IIntegrationUsecase
}

func NewConnectHandler(integrationUsecase usecase.IIntegrationUsecase) IConnectHandler {
	return &ConnectHandler{integrationUsecase: integrationUsecase}
}

type flowCookie struct {
	UserID string `json:"user_id"`
	Secret string `json:"secret"`
	State  string `json:"state"`
}

func cookieName(platform model.Platform) string {
	return "oauth_flow_" + string(platform)
}

func (h *ConnectHandler) GetAuthURL(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	platform, ok := platformParam(ctx)
	if !ok {
		return
	}
	session, err := h.integrationUsecase.StartAuth(ctx.Request.Context(), userID, platform)
	if err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	payload, err := json.Marshal(flowCookie{UserID: userID, Secret: session.Secret, State: session.State})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not start authorization"})
		return
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(cookieName(platform), string(payload), int(stateCookieTTL.Seconds()), "/", "", true, true)
	ctx.JSON(http.StatusOK, gin.H{"auth_url": session.URL, "state": session.State})
}

func (h *ConnectHandler) Callback(ctx *gin.Context) {
	platform, ok := platformParam(ctx)
	if !ok {
		return
	}
	raw, err := ctx.Cookie(cookieName(platform))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "authorization session expired; restart the connect flow"})
		return
	}
	var flow flowCookie
	if err := json.Unmarshal([]byte(raw), &flow); err != nil || flow.UserID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "authorization session is invalid; restart the connect flow"})
		return
	}
	// One-shot cookie: consumed on callback regardless of outcome.
	ctx.SetCookie(cookieName(platform), "", -1, "/", "", true, true)

	if denied := ctx.Query("error"); denied != "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "authorization was denied: " + denied})
		return
	}
	cb := &model.AuthCallback{
		Code:          ctx.Query("code"),
		State:         ctx.Query("state"),
		OAuthToken:    ctx.Query("oauth_token"),
		OAuthVerifier: ctx.Query("oauth_verifier"),
		CookieSecret:  flow.Secret,
	}
	integration, err := h.integrationUsecase.CompleteAuth(ctx.Request.Context(), flow.UserID, platform, cb)
	if err != nil {
		logger.GetLogger().WithField("platform", platform).WithField("error", err).Warn("OAuth callback failed")
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"connected": true, "integration": integration})
}
