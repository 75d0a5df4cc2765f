package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/Noe001/work-optimizer-sub001/internal/config"
	"github.com/Noe001/work-optimizer-sub001/internal/database"
	"github.com/Noe001/work-optimizer-sub001/internal/middleware"
	"github.com/Noe001/work-optimizer-sub001/internal/routes"
	"github.com/Noe001/work-optimizer-sub001/internal/services"
	"github.com/Noe001/work-optimizer-sub001/internal/tasks"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	// Connect to PostgreSQL
	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Token manager backs both JWT and Redis-session auth
	services.InitTokenManager(cfg.JWTSecret)

	// Attachment storage (Cloudinary). Missing credentials disable uploads
	// but the rest of the chat service keeps working.
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		store, err := services.NewAttachmentStore(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("Message attachments will not be available")
		} else {
			services.InitAttachmentStore(store)
			log.Println("✅ Cloudinary attachment store initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. Message attachments will not be available")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background task dispatcher (read-state batches, notifications)
	tasks.Init(ctx)
	defer tasks.Default().Wait()

	// Bridge Redis pub/sub into the in-process chat hub
	services.StartRedisChatSubscriber(ctx)
	log.Println("✅ Redis chat subscriber started")

	// Setup router
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Production: security headers + in-process per-IP limiting.
	// Non-production: Redis-based rate limit only.
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP rate limiting)")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	// Health check (no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r)

	log.Printf("🚀 Chat service running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
