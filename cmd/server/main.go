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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/tendant/simple-posts/pkg/simpleposts"
	"github.com/tendant/simple-posts/pkg/simpleposts/api"
	"github.com/tendant/simple-posts/pkg/simpleposts/config"
)

func main() {
	// Load configuration from environment
	serverConfig, err := config.Load(config.WithEnv())
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	// Build service from configuration
	svc, err := serverConfig.BuildService(context.Background())
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	jwtSecret := serverConfig.JWTSecret
	if jwtSecret == "" {
		// Development fallback; production requires JWT_SECRET (config.Validate)
		jwtSecret = "dev-secret"
	}
	tokenAuth := jwtauth.New("HS256", []byte(jwtSecret), nil)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: routes(svc, serverConfig, tokenAuth),
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Simple Posts Server starting on port %s (env: %s)", serverConfig.Port, serverConfig.Environment)
		log.Printf("Database: %s, storage: %s, namespace: %s",
			serverConfig.DatabaseType, serverConfig.StorageType, serverConfig.Namespace)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

func routes(svc simpleposts.Service, serverConfig *config.ServerConfig, tokenAuth *jwtauth.JWTAuth) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS for development
	if serverConfig.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

				if r.Method == "OPTIONS" {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	postHandler := api.NewPostHandler(svc)
	r.Mount("/posts", postHandler.Routes(tokenAuth))

	return r
}
