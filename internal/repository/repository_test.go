package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stwalsh4118/wealthmap/internal/config"
	"github.com/stwalsh4118/wealthmap/internal/database"
)

// getTestConfig returns database configuration for integration tests.
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "host.docker.internal"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "wealthmap"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		PoolMin:  2,
		PoolMax:  5,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupTestDatabase connects and migrates, skipping in short mode.
func setupTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, getTestConfig())
	if err != nil {
		t.Fatalf("Failed to create database connection: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		t.Fatalf("Failed to migrate database: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

// testUser returns a user id unique to this test run so rows never collide.
func testUser() string {
	return "test-" + uuid.NewString()
}
