package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"postqueue/infrastructure/realtime"
	httpHandler "postqueue/interfaces/http"
	"postqueue/interfaces/middleware"
)

func InitiateRouter(
	userHandler httpHandler.IUserHandler,
	postHandler httpHandler.IPostHandler,
	destinationHandler httpHandler.IDestinationHandler,
	integrationHandler httpHandler.IIntegrationHandler,
	credentialHandler httpHandler.ICredentialHandler,
	connectHandler httpHandler.IConnectHandler,
	hub *realtime.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "https://localhost:4200", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/login", userHandler.Login)
	router.POST("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Connect flow: starting requires a session, the platform redirect
	// back does not (identity rides the flow cookie).
	router.GET("/auth/:platform", middleware.Auth(), connectHandler.GetAuthURL)
	router.GET("/auth/:platform/callback", connectHandler.Callback)

	api := router.Group("api")
	api.Use(middleware.Auth())

	posts := api.Group("/posts")
	{
		posts.POST("", postHandler.CreatePost)
		posts.GET("", postHandler.GetPosts)
		posts.GET("/stream", hub.Serve)
		posts.POST("/process-due", postHandler.ProcessDue)
		posts.GET("/:postId", postHandler.GetPost)
		posts.DELETE("/:postId", postHandler.DeletePost)
		posts.POST("/:postId/publish", postHandler.PublishPost)
	}

	destinations := api.Group("/destinations/:platform")
	{
		destinations.GET("/recent", destinationHandler.GetRecent)
		destinations.GET("/search", destinationHandler.Search)
		destinations.POST("", destinationHandler.Create)
	}

	integrations := api.Group("/integrations")
	{
		integrations.GET("", integrationHandler.List)
		integrations.DELETE("/:integrationId", integrationHandler.Delete)
		integrations.POST("/:integrationId/import", integrationHandler.Import)
	}

	credentials := api.Group("/credentials/:platform")
	{
		credentials.PUT("", credentialHandler.Put)
		credentials.GET("", credentialHandler.Get)
		credentials.DELETE("", credentialHandler.Delete)
	}

	return router
}
