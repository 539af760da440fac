package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"structured-docs/auth"
	"structured-docs/internal/config"
	"structured-docs/internal/db"
	"structured-docs/internal/document"
	"structured-docs/internal/extraction"
	"structured-docs/internal/middleware"
	"structured-docs/internal/rowset"
	"structured-docs/internal/settings"
	"structured-docs/internal/template"
	"structured-docs/internal/user"
	"structured-docs/internal/worker"
	"structured-docs/redis"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Connect to database
	db.ConnectDb()
	defer db.CloseDb()

	// Migrate database schema
	db.Migrate()

	// Seed database with initial data (for development)
	db.SeedData()

	// Initialize Redis
	redis.InitRedis()
	cache := redis.NewCache()

	// Background workers for off-request side writes
	pool := worker.NewWorkerPool(4)
	defer pool.Shutdown()

	// Initialize repositories
	userRepo := user.NewRepository(db.AppDb)
	docRepo := document.NewRepository(db.AppDb)
	templateRepo := template.NewRepository(db.AppDb)
	settingsRepo := settings.NewRepository(db.AppDb)
	auditRepo := extraction.NewAuditRepository(db.AppDb)

	// Row sessions are shared between the row service and document deletion,
	// which must invalidate them
	sessionRegistry := rowset.NewRegistry()

	// Initialize services
	userService := user.NewService(userRepo)
	docService := document.NewService(docRepo, cache, sessionRegistry)
	templateService := template.NewService(templateRepo, docRepo)
	rowService := rowset.NewService(
		sessionRegistry,
		docRepo,
		rowset.Options{DiscardPendingOnReload: config.AppConfig.DiscardPendingOnReload},
	)
	extractionClient := extraction.NewClient(config.AppConfig.ExtractionTimeout)

	// Initialize handlers
	userHandler := user.NewHandler(userService)
	docHandler := document.NewHandler(docService)
	templateHandler := template.NewHandler(templateService)
	rowHandler := rowset.NewHandler(rowService)
	settingsHandler := settings.NewHandler(settingsRepo)
	extractionHandler := extraction.NewHandler(
		extractionClient,
		settingsRepo,
		extraction.NewSimulator(),
		auditRepo,
		pool,
		config.AppConfig.MaxUploadBytes,
	)

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.ErrorHandler())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}

	if config.AppConfig.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	// User routes
	router.POST("/register", userHandler.Register)
	router.POST("/login", userHandler.Login)
	router.DELETE("/logout", auth.AuthMiddleWare(), userHandler.Logout)
	router.GET("/profile", auth.AuthMiddleWare(), userHandler.GetProfile)

	// Document routes
	router.POST("/documents", auth.AuthMiddleWare(), docHandler.Create)
	router.GET("/documents", auth.AuthMiddleWare(), docHandler.ShowUserDocuments)
	router.GET("/documents/:id", auth.AuthMiddleWare(), docHandler.ShowDocument)
	router.PUT("/documents/:id", auth.AuthMiddleWare(), docHandler.UpdateInfo)
	router.PUT("/documents/:id/fields", auth.AuthMiddleWare(), docHandler.SaveFields)
	router.DELETE("/documents/:id", auth.AuthMiddleWare(), docHandler.DeleteDocument)

	// Row routes (per-session pending rows + durable rows)
	router.GET("/documents/:id/rows", auth.AuthMiddleWare(), rowHandler.ShowRows)
	router.POST("/documents/:id/rows", auth.AuthMiddleWare(), rowHandler.CreateRow)
	router.PATCH("/documents/:id/rows/:rowId", auth.AuthMiddleWare(), rowHandler.UpdateRowField)
	router.PUT("/documents/:id/rows/:rowId", auth.AuthMiddleWare(), rowHandler.SaveRow)
	router.POST("/documents/:id/rows/:rowId/commit", auth.AuthMiddleWare(), rowHandler.CommitRow)
	router.DELETE("/documents/:id/rows/:rowId", auth.AuthMiddleWare(), rowHandler.DeleteRow)
	router.POST("/documents/:id/reload", auth.AuthMiddleWare(), rowHandler.Reload)

	// Template routes
	router.GET("/templates", auth.AuthMiddleWare(), templateHandler.ShowUserTemplates)
	router.POST("/templates", auth.AuthMiddleWare(), templateHandler.Create)
	router.POST("/templates/from-document", auth.AuthMiddleWare(), templateHandler.SaveAsTemplate)
	router.GET("/templates/:id", auth.AuthMiddleWare(), templateHandler.ShowTemplate)
	router.GET("/templates/:id/fields", auth.AuthMiddleWare(), templateHandler.LoadFields)
	router.POST("/templates/:id/apply", auth.AuthMiddleWare(), templateHandler.Apply)
	router.POST("/templates/:id/duplicate", auth.AuthMiddleWare(), templateHandler.Duplicate)
	router.PUT("/templates/:id", auth.AuthMiddleWare(), templateHandler.Update)
	router.DELETE("/templates/:id", auth.AuthMiddleWare(), templateHandler.Delete)

	// Upload proxy + extraction routes
	router.POST("/upload-proxy", auth.AuthMiddleWare(), extractionHandler.UploadProxy)
	router.POST("/extraction/simulate", auth.AuthMiddleWare(), extractionHandler.Simulate)
	router.GET("/uploads", auth.AuthMiddleWare(), extractionHandler.ShowUploads)

	// Settings routes
	router.GET("/settings/extraction-endpoint", auth.AuthMiddleWare(), settingsHandler.ShowEndpoint)
	router.PUT("/settings/extraction-endpoint", auth.AuthMiddleWare(), settingsHandler.SetEndpoint)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Printf("Server listening on port %s", serverPort)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Println("Server shutdown error:", err)
	}

	<-ctx.Done()
	log.Println("Server shutdown complete")
}
