package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"note-sharing-service/internal/config"
	"note-sharing-service/internal/db"
	"note-sharing-service/internal/middleware"
	"note-sharing-service/internal/note"
	"note-sharing-service/internal/user"
	"note-sharing-service/internal/worker"
	"note-sharing-service/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Connect to database
	database, err := db.Connect()
	if err != nil {
		log.Fatalf("error connecting to db %v", err)
	}
	defer db.Close(database)

	// Migrate database schema
	db.Migrate(database)

	// Initialize cache (nil-safe when redis is down)
	cache := redis.NewCache(config.AppConfig.RedisAddress)

	// Worker pool for shared-index repair passes
	pool := worker.NewWorkerPool(config.AppConfig.RepairWorkers, 1000)
	defer pool.Shutdown()

	// Initialize repositories
	userRepo := user.NewRepository(database)
	noteRepo := note.NewRepository(database)
	permRepo := note.NewPermissionRepository(database)
	indexRepo := note.NewSharedIndexRepository(database)

	// Initialize services
	userService := user.NewService(userRepo)
	noteService := note.NewService(noteRepo, permRepo, indexRepo, userService, cache, pool)

	// Initialize handlers
	userHandler := user.NewHandler(userService)
	noteHandler := note.NewHandler(noteService)

	authMiddleware := &middleware.Auth{UserService: userService}

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.ErrorHandler())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}

	if config.AppConfig.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	// User routes
	router.POST("/register", userHandler.Register)
	router.POST("/login", userHandler.Login)
	router.POST("/refresh", userHandler.RefreshToken)
	router.DELETE("/logout", authMiddleware.AuthMiddleWare(), userHandler.Logout)
	router.GET("/profile", authMiddleware.AuthMiddleWare(), userHandler.GetProfile)
	router.PUT("/profile", authMiddleware.AuthMiddleWare(), userHandler.UpdateProfile)
	router.DELETE("/profile", authMiddleware.AuthMiddleWare(), userHandler.DeleteAccount)

	// Note routes
	notes := router.Group("/notes", authMiddleware.AuthMiddleWare())
	notes.POST("", noteHandler.Create)
	notes.GET("", noteHandler.ListVisible)
	notes.GET("/:ownerId/:noteId", noteHandler.Show)
	notes.PUT("/:ownerId/:noteId", noteHandler.Edit)
	notes.DELETE("/:ownerId/:noteId", noteHandler.Delete)
	notes.POST("/:ownerId/:noteId/share", noteHandler.Share)
	notes.DELETE("/:ownerId/:noteId/share", noteHandler.DeleteShare)
	notes.PUT("/:ownerId/:noteId/permissions", noteHandler.SetPermission)
	notes.GET("/:ownerId/:noteId/permissions", noteHandler.ShowPermissions)

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

	log.Println("Server shutdown complete")
}
