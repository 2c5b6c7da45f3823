package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	// Save original env
	originalDB := os.Getenv("INKWELL_DATABASE_URL")
	defer func() {
		if originalDB != "" {
			os.Setenv("INKWELL_DATABASE_URL", originalDB)
		} else {
			os.Unsetenv("INKWELL_DATABASE_URL")
		}
	}()

	// Test with environment variable
	os.Setenv("INKWELL_DATABASE_URL", "host=localhost user=test dbname=testdb")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Database.URL != "host=localhost user=test dbname=testdb" {
		t.Errorf("Expected database URL from env, got: %s", cfg.Database.URL)
	}

	// Redis 未配置时实时通知关闭
	if cfg.Redis.Enabled && os.Getenv("INKWELL_REDIS_URL") == "" {
		t.Error("Redis should be disabled without redis_url")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{URL: "host=localhost user=test dbname=test"},
		Server:   ServerConfig{Port: 8080},
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Valid config should not error: %v", err)
	}

	// Test invalid port
	cfg.Server.Port = 99999
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for invalid port")
	}

	// Storage 启用但缺 bucket
	cfg.Server.Port = 8080
	cfg.Storage = StorageConfig{Enabled: true, Endpoint: "minio:9000"}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for storage without bucket")
	}
}
