// Package testutils holds helpers shared by package tests.
package testutils

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/achufistov/shortypanel/internal/app/auth"
	"github.com/achufistov/shortypanel/internal/app/config"
	"github.com/achufistov/shortypanel/internal/app/models"
	"github.com/achufistov/shortypanel/internal/app/storage"
)

// TestAdminPassword is the bootstrap admin password of CreateTestConfig.
const TestAdminPassword = "admin-password"

// CreateTestConfig creates a test configuration with temporary files and environment variables.
// If secretContent is empty, uses a default test secret.
func CreateTestConfig(t *testing.T, secretContent string) *config.Config {
	t.Helper()

	// Use default secret if none provided
	if secretContent == "" {
		secretContent = "test-secret-key"
	}

	secretFile := filepath.Join(t.TempDir(), "secret.key")
	if err := os.WriteFile(secretFile, []byte(secretContent), 0644); err != nil {
		t.Fatalf("Failed to create test secret file: %v", err)
	}

	t.Setenv("SERVER_ADDRESS", "localhost:8080")
	t.Setenv("BASE_URL", "http://localhost:8080")
	t.Setenv("FILE_STORAGE_PATH", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("ADMIN_LOGIN", "admin")
	t.Setenv("ADMIN_PASSWORD", TestAdminPassword)
	t.Setenv("TOKEN_TTL", time.Hour.String())
	t.Setenv("JWT_SECRET_FILE", secretFile)

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load test config: %v", err)
	}
	return cfg
}

// CreateTestConfigWithDefaults creates a test configuration with default secret content.
func CreateTestConfigWithDefaults(t *testing.T) *config.Config {
	return CreateTestConfig(t, "")
}

// SeedUser stores a user with a bcrypt hash of password and returns it.
func SeedUser(t *testing.T, s storage.Storage, login, password string, role models.Role) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	u, err := s.CreateUser(context.Background(), login, hash, role)
	if err != nil {
		t.Fatalf("Failed to seed user %q: %v", login, err)
	}
	return u
}

// SeedURL stores a URL owned by userID under code and returns it.
func SeedURL(t *testing.T, s storage.Storage, userID int64, code, longURL string) models.URL {
	t.Helper()
	u, err := s.CreateURL(context.Background(), models.URL{OriginalURL: longURL, UserID: userID, ShortURL: code})
	if err != nil {
		t.Fatalf("Failed to seed url %q: %v", code, err)
	}
	return u
}

// SeedVisits records n visits of urlID.
func SeedVisits(t *testing.T, s storage.Storage, urlID int64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := s.AddVisit(context.Background(), models.Visit{VisitorIP: "192.0.2.1", URLID: urlID, VisitDate: time.Now()})
		if err != nil {
			t.Fatalf("Failed to seed visit: %v", err)
		}
	}
}
