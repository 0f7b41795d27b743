package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"postqueue/domain/repository"
	"postqueue/infrastructure/cache"
	"postqueue/infrastructure/clients/social"
	"postqueue/infrastructure/configuration"
	"postqueue/infrastructure/logger"
	"postqueue/infrastructure/persistence"
	"postqueue/infrastructure/pubsub"
	"postqueue/infrastructure/realtime"
	"postqueue/infrastructure/servicebus"
	httpHandler "postqueue/interfaces/http"
	"postqueue/server"
	"postqueue/usecase"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	psqlDb, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		os.Exit(1)
	}
	if err := persistence.EnsureSchema(psqlDb); err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed ensuring database schema")
		os.Exit(1)
	}

	// Mongo backs media storage; posting without media works when it is down.
	var mediaStore repository.IMediaStore
	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without media storage")
	} else {
		mediaStore = persistence.NewMediaStorage(mongoDb, configuration.C.Database.Mongo.Name)
		logger.GetLogger().Info("MongoDB connected successfully")
	}

	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - destination caching disabled")
		redisClient = nil
	}

	postRepository := persistence.NewPostRepository(psqlDb)
	integrationRepository := persistence.NewIntegrationRepository(psqlDb)
	destinationRepository := persistence.NewDestinationRepository(psqlDb)
	credentialRepository := persistence.NewCredentialRepository(psqlDb)
	userRepository := persistence.NewUserRepository(psqlDb)

	registry := social.NewRegistry()
	resolver := usecase.NewCredentialResolver(credentialRepository)
	hub := realtime.NewPostHub()

	postUsecase := usecase.NewPostUsecase(postRepository, integrationRepository, mediaStore, registry, resolver).
		WithBroadcaster(hub)

	// Best-effort post-event buses; either, both or neither may be configured.
	if configuration.C.Pubsub.ProjectID != "" {
		pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Google Pub/Sub not available - continuing without it")
		} else {
			postUsecase.WithEvents(pubsub.NewPostEventPublisher(pubSubClient, configuration.C.Pubsub.Topic))
		}
	}
	if configuration.C.ServiceBus.Namespace != "" {
		sbClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without it")
		} else {
			postUsecase.WithEvents(servicebus.NewPostEventPublisher(sbClient, configuration.C.ServiceBus.Queue))
		}
	}

	scheduler := usecase.NewScheduler(
		postRepository,
		postUsecase,
		time.Duration(configuration.C.Scheduler.IntervalSeconds)*time.Second,
		configuration.C.Scheduler.RetryCap,
		configuration.C.Scheduler.BatchSize,
	)
	g.Go(func() error {
		scheduler.Start(ctx)
		return nil
	})

	userUsecase := usecase.NewUserUsecase(userRepository)
	integrationUsecase := usecase.NewIntegrationUsecase(integrationRepository, registry, resolver)
	importUsecase := usecase.NewImportUsecase(postRepository, integrationRepository, registry, resolver)
	destinationUsecase := usecase.NewDestinationUsecase(destinationRepository, integrationRepository, registry, cache.NewDestinationCache(redisClient))
	credentialUsecase := usecase.NewCredentialUsecase(credentialRepository, registry, resolver)

	router := server.InitiateRouter(
		httpHandler.NewUserHandler(userUsecase),
		httpHandler.NewPostHandler(postUsecase, scheduler),
		httpHandler.NewDestinationHandler(destinationUsecase),
		httpHandler.NewIntegrationHandler(integrationUsecase, importUsecase),
		httpHandler.NewCredentialHandler(credentialUsecase),
		httpHandler.NewConnectHandler(integrationUsecase),
		hub,
	)

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if app.TLSEnabled && app.TLSCertFile != "" && app.TLSKeyFile != "" {
			if err := httpServer.ListenAndServeTLS(app.TLSCertFile, app.TLSKeyFile); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
		if app.TLSEnabled {
			logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}
