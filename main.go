package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"naskahweb/config"
	"naskahweb/config/database"
	"naskahweb/internal/backend"
	"naskahweb/internal/profile/repository"
	profileService "naskahweb/internal/profile/service"
	"naskahweb/middleware"
	"naskahweb/pkg/logger"
	"naskahweb/router"
	"naskahweb/socket"

	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	if envErr != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifier, err := middleware.NewVerifier(ctx, cfg.JWTSecret, cfg.JWKSURL)
	if err != nil {
		logger.Sugar.Fatalf("Failed to set up token verification: %v", err)
	}

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)

	store, closeStore, err := openProfileStore(ctx, cfg)
	if err != nil {
		logger.Sugar.Fatalf("Failed to open %s profile store: %v", cfg.ProfileStore, err)
	}
	defer closeStore()

	profiles := profileService.NewProfileService(store, client)

	hub := socket.NewHub(profiles)
	go hub.Run()

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router.Setup(cfg, verifier, client, profiles, hub),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Sugar.Infof("naskahweb listening on :%s (backend %s)", cfg.Port, cfg.BackendURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Sugar.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.Shutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Sugar.Errorf("Graceful shutdown failed: %v", err)
	}
}

// openProfileStore builds the resolved-profile cache selected by
// PROFILE_STORE. The returned func releases its connections.
func openProfileStore(ctx context.Context, cfg config.Config) (repository.Store, func(), error) {
	switch cfg.ProfileStore {
	case "redis":
		store, err := repository.NewRedisStore(cfg.RedisURL, cfg.ProfileCacheTTL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil

	case "postgres":
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewPostgresStore(db, cfg.ProfileCacheTTL)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		go purgeExpiredProfiles(ctx, store, cfg.ProfileCacheTTL)
		return store, func() { db.Close() }, nil

	default:
		return repository.NewMemoryStore(cfg.ProfileCacheTTL), func() {}, nil
	}
}

// purgeExpiredProfiles trims rows that can no longer be read back.
func purgeExpiredProfiles(ctx context.Context, store *repository.PostgresStore, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := store.Purge(ctx); err == nil && n > 0 {
				logger.Sugar.Debugf("Purged %d expired profiles", n)
			}
		}
	}
}
