// Package main is the entry point for the food-sharing API server.
//
// main stays minimal: read configuration, build the logger, hand both to
// the server package. All wiring lives in internal/server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/shareplate/shareplate/internal/auth"
	"github.com/shareplate/shareplate/internal/server"
)

func main() {
	// .env is a dev convenience; in production the variables come from
	// the real environment and the file simply isn't there.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
		port = p
	}

	dbPath := getEnv("DB_PATH", "data/shareplate.db")
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required (openssl rand -hex 32)")
		os.Exit(1)
	}

	callbackURL := getEnv("AUTH_CALLBACK_URL",
		fmt.Sprintf("http://localhost:%d/api/callback", port))

	cfg := server.Config{
		Port:      port,
		DBPath:    dbPath,
		JWTSecret: jwtSecret,
		Provider: auth.ProviderConfig{
			ClientID:     os.Getenv("AUTH_CLIENT_ID"),
			ClientSecret: os.Getenv("AUTH_CLIENT_SECRET"),
			AuthURL:      os.Getenv("AUTH_AUTHORIZE_URL"),
			TokenURL:     os.Getenv("AUTH_TOKEN_URL"),
			UserinfoURL:  os.Getenv("AUTH_USERINFO_URL"),
			CallbackURL:  callbackURL,
		},
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
