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

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"fizibilite/internal/cache"
	"fizibilite/internal/config"
	"fizibilite/internal/db"
	"fizibilite/internal/handlers"
	"fizibilite/internal/logger"
	"fizibilite/internal/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.WithModule("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer conn.Close()

	if err := db.RunMigrations(ctx, conn); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	if err := seedAdminUser(ctx, cfg, conn); err != nil {
		log.WithError(err).Warn("failed to seed admin user")
	}

	exportCache := cache.New(cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.CacheTTL,
	})
	if err := exportCache.Connect(ctx); err != nil {
		// The cache is best-effort; exports are built from the database.
		log.WithError(err).Warn("redis unavailable, export cache disabled")
	}
	defer exportCache.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(cfg, conn, exportCache),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
	}()

	log.WithFields(logrus.Fields{
		"port":  cfg.Port,
		"cache": exportCache.Enabled(),
	}).Info("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server failed")
	}
	log.Info("server stopped")
}

func seedAdminUser(ctx context.Context, cfg *config.Config, q models.Querier) error {
	_, err := models.GetUserByEmail(ctx, q, cfg.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if _, err := models.CreateUser(ctx, q, cfg.AdminEmail, string(hashedPassword), models.RoleAdmin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.WithModule("server").WithField("email", cfg.AdminEmail).Info("created default admin user")
	return nil
}
