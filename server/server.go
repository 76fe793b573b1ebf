package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/alanhabib/elmify-backend-sub000/cache"
	"github.com/alanhabib/elmify-backend-sub000/config"
	"github.com/alanhabib/elmify-backend-sub000/core/auth"
	"github.com/alanhabib/elmify-backend-sub000/core/manifest"
	"github.com/alanhabib/elmify-backend-sub000/core/stream"
	"github.com/alanhabib/elmify-backend-sub000/db"
	"github.com/alanhabib/elmify-backend-sub000/logger"
	"github.com/alanhabib/elmify-backend-sub000/repository"
	"github.com/alanhabib/elmify-backend-sub000/storage"
)

// Start initializes all backends and runs the HTTP server until interrupted.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogOutput,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	auth.SetSecret(cfg.JWTSecret)

	objectStore, err := storage.NewMinioStore(cfg)
	if err != nil {
		logger.Fatal("failed to initialize object store", logger.ErrorField(err))
	}

	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
	}
	defer cache.CloseRedis()

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		logger.Fatal("failed to initialize database schema", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	lectureRepo := repository.NewGormLectureRepository(db.GormDB)
	manifestStore := cache.NewManifestStore(cache.RedisClient)

	proxy := stream.NewProxy(objectStore, cfg.MaxChunkSize)
	resolver := manifest.NewResolver(objectStore, manifestStore, lectureRepo, manifest.Config{
		SignedURLTTL:          cfg.SignedURLTTL,
		CacheTTL:              cfg.CacheTTL,
		SafetyMargin:          cfg.CacheSafetyMargin,
		MaxConcurrentSignings: cfg.MaxConcurrentSignings,
	})

	streamHandler := NewStreamHandler(proxy)
	manifestHandler := NewManifestHandler(resolver, lectureRepo, cfg.AdminTokenHash)

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(requestIDMiddleware)

	// Audio byte-range delivery.
	router.Handle("/audio/{key:.+}", streamHandler).Methods(http.MethodGet, http.MethodHead)

	// Playlist manifests.
	router.HandleFunc("/api/playlists/{id}/manifest", manifestHandler.GetManifestHandler).
		Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/api/playlists/{id}/manifest", manifestHandler.InvalidateHandler).
		Methods(http.MethodDelete)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // range responses can take a while on slow links
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting",
			logger.String("addr", cfg.ServerAddr),
			logger.Int64("maxChunkSize", cfg.MaxChunkSize),
			logger.Duration("signedUrlTtl", cfg.SignedURLTTL),
			logger.Duration("cacheTtl", cfg.CacheTTL))

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("server stopped")
}
