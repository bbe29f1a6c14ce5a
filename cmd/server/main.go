// Package main is the application entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"basal-backend-go/internal/config"
	"basal-backend-go/internal/handler"
	"basal-backend-go/internal/middleware"
	"basal-backend-go/internal/model"
	"basal-backend-go/internal/pipeline"
	"basal-backend-go/internal/repository"
	"basal-backend-go/internal/service"
	"basal-backend-go/pkg/database"
	"basal-backend-go/pkg/drive"
	"basal-backend-go/pkg/extract"
	"basal-backend-go/pkg/log"
	"basal-backend-go/pkg/mlserver"
	"basal-backend-go/pkg/queue"
	"basal-backend-go/pkg/storage"
	"basal-backend-go/pkg/token"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("logger initialized")

	// Backing stores.
	db, err := database.NewPostgres(cfg.Database.Postgres.DSN)
	if err != nil {
		log.Fatal("failed to connect to postgres", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.ResumeAnalysis{},
		&model.Source{},
		&model.SourceChunk{},
		&model.Conversation{},
		&model.ChatMessage{},
		&model.Feedback{},
	); err != nil {
		log.Fatal("failed to migrate schema", err)
	}
	rdb, err := database.NewRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err != nil {
		log.Fatal("failed to connect to redis", err)
	}
	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatal("failed to connect to object storage", err)
	}

	// Outbound clients.
	mlClient := mlserver.NewClient(cfg.MLServer)
	driveClient := drive.NewClient(cfg.Drive)
	extractClient := extract.NewClient(cfg.Extract)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	producer := queue.NewProducer(cfg.Kafka)
	defer producer.Close()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)
	sourceRepo := repository.NewSourceRepository(db)
	convRepo := repository.NewConversationRepository(db, rdb)
	feedbackRepo := repository.NewFeedbackRepository(db)

	// Services.
	userService := service.NewUserService(userRepo, jwtManager)
	systemService := service.NewSystemService(mlClient)
	ingestService := service.NewIngestService(sourceRepo, analysisRepo, userRepo, store, driveClient, producer, cfg.Drive)
	chatService := service.NewChatService(convRepo, sourceRepo, mlClient, cfg.Chat)
	sourceService := service.NewSourceService(sourceRepo)
	historyService := service.NewHistoryService(analysisRepo, store)
	feedbackService := service.NewFeedbackService(feedbackRepo)
	adminService := service.NewAdminService(sourceRepo, convRepo)

	// Background processing.
	processor, err := pipeline.NewProcessor(mlClient, analysisRepo, sourceRepo, store, cfg.MLServer, cfg.Pipeline)
	if err != nil {
		log.Fatal("failed to create processor", err)
	}
	defer processor.Release()

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()
	go queue.StartConsumer(consumerCtx, cfg.Kafka, processor)
	go pipeline.NewReaper(analysisRepo, sourceRepo, cfg.Pipeline).Run(consumerCtx)

	// The first real request usually hits a cold remote instance; start it
	// booting now.
	systemService.WarmUp()

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.FrontendOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := handler.NewHealthHandler(systemService)
	authHandler := handler.NewAuthHandler(userService, systemService)
	ingestHandler := handler.NewIngestHandler(ingestService)
	describeHandler := handler.NewDescribeHandler(extractClient)
	sourceHandler := handler.NewSourceHandler(sourceService)
	chatHandler := handler.NewChatHandler(chatService)
	historyHandler := handler.NewHistoryHandler(historyService)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService)
	adminHandler := handler.NewAdminHandler(adminService)

	// Public routes.
	r.GET("/", healthHandler.Root)
	r.GET("/health", healthHandler.Health)
	r.GET("/ml-server/health", healthHandler.MLHealth)
	r.POST("/connect", authHandler.Connect)
	r.POST("/feedback", feedbackHandler.Submit)
	r.POST("/get-description", describeHandler.GetDescription)

	// Sync callbacks from the processing side, guarded by the shared key.
	callbacks := r.Group("/", middleware.CallbackAuth(cfg.JWT.CallbackAPIKey))
	{
		callbacks.PATCH("/update-source-status", sourceHandler.UpdateStatus)
		callbacks.POST("/update-source-chunks", sourceHandler.UpdateChunks)
	}

	// Authenticated routes.
	authed := r.Group("/", middleware.Auth(jwtManager, userService))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.POST("/ingest-document", ingestHandler.IngestDocument)
		authed.POST("/ingest-video", ingestHandler.IngestVideo)
		authed.POST("/get-folder", ingestHandler.GetFolder)
		authed.POST("/upload", ingestHandler.Upload)
		authed.GET("/get-sources", sourceHandler.List)
		authed.GET("/history", historyHandler.List)
		authed.DELETE("/reset-history", historyHandler.Reset)
		authed.POST("/chat", chatHandler.Chat)
		authed.GET("/conversations", chatHandler.ListConversations)
		authed.GET("/conversations/:id/messages", chatHandler.Messages)

		admin := authed.Group("/admin", middleware.AdminAuth())
		{
			admin.GET("/sources", adminHandler.Sources)
			admin.GET("/conversations", adminHandler.Conversations)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server failed: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received, stopping...")

	cancelConsumer()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("http server shutdown failed", err)
	}
	log.Info("server stopped")
}
