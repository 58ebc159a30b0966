package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Database.Driver != "postgres" {
		t.Errorf("Expected postgres driver, got %s", cfg.Database.Driver)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected default postgres port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("Expected max open conns 25, got %d", cfg.Database.MaxOpenConns)
	}

	if cfg.Network.ConnectTimeoutSeconds != 10 {
		t.Errorf("Expected 10s connect timeout, got %d", cfg.Network.ConnectTimeoutSeconds)
	}
	if cfg.Network.TotalTimeoutSeconds != 30 {
		t.Errorf("Expected 30s total timeout, got %d", cfg.Network.TotalTimeoutSeconds)
	}
	if cfg.Network.MaxRetries != 3 {
		t.Errorf("Expected 3 max retries, got %d", cfg.Network.MaxRetries)
	}
	if cfg.Network.InitialRetryDelaySeconds != 5 {
		t.Errorf("Expected 5s initial retry delay, got %d", cfg.Network.InitialRetryDelaySeconds)
	}

	if cfg.Ingest.TickIntervalSeconds != 60 {
		t.Errorf("Expected 60s tick interval, got %d", cfg.Ingest.TickIntervalSeconds)
	}

	if cfg.Summarizer.RetentionDays != 7 {
		t.Errorf("Expected 7 day archive retention, got %d", cfg.Summarizer.RetentionDays)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("Expected no error for non-existent file, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected default config, got nil")
	}
	if cfg.Ingest.TickIntervalSeconds != 60 {
		t.Error("Did not get default config for non-existent file")
	}
}

func TestLoadValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.json")

	testConfig := DefaultConfig()
	testConfig.Database.Host = "db.example.com"
	testConfig.Database.Port = 5433
	testConfig.Network.URL = "https://test.example/data.json"
	testConfig.Ingest.TickIntervalSeconds = 15

	data, err := json.MarshalIndent(testConfig, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal test config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Database.Host != "db.example.com" {
		t.Errorf("Expected db.example.com, got %s", cfg.Database.Host)
	}
	if cfg.Ingest.TickIntervalSeconds != 15 {
		t.Errorf("Expected tick interval 15, got %d", cfg.Ingest.TickIntervalSeconds)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.json")

	if err := os.WriteFile(configPath, []byte("{ invalid json }"), 0644); err != nil {
		t.Fatalf("Failed to write invalid config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Expected error for invalid JSON, got nil")
	}
}

func TestSaveConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "saved-config.json")

	cfg := DefaultConfig()
	cfg.Ingest.TickIntervalSeconds = 30
	cfg.Geo.BoundaryFile = "/data/boundary.json"

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.Ingest.TickIntervalSeconds != 30 {
		t.Errorf("Expected tick interval 30, got %d", loaded.Ingest.TickIntervalSeconds)
	}
	if loaded.Geo.BoundaryFile != "/data/boundary.json" {
		t.Errorf("Expected boundary file path preserved, got %s", loaded.Geo.BoundaryFile)
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "dir", "config.json")

	cfg := DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Failed to save config with nested directory: %v", err)
	}

	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Directory was not created")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	os.Setenv("ATC_INGEST_DB_HOST", "env-db-host")
	os.Setenv("ATC_INGEST_DB_PASSWORD", "env-password")
	os.Setenv("ATC_INGEST_NETWORK_URL", "https://env.example/data.json")
	os.Setenv("ATC_INGEST_LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("ATC_INGEST_DB_HOST")
		os.Unsetenv("ATC_INGEST_DB_PASSWORD")
		os.Unsetenv("ATC_INGEST_NETWORK_URL")
		os.Unsetenv("ATC_INGEST_LOG_LEVEL")
	}()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	testCfg := DefaultConfig()
	testCfg.Database.Host = "localhost"
	testCfg.Database.Password = "original-password"

	data, _ := json.Marshal(testCfg)
	os.WriteFile(configPath, data, 0644)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Database.Host != "env-db-host" {
		t.Errorf("Expected env-db-host from env, got %s", cfg.Database.Host)
	}
	if cfg.Database.Password != "env-password" {
		t.Errorf("Expected env-password from env, got %s", cfg.Database.Password)
	}
	if cfg.Network.URL != "https://env.example/data.json" {
		t.Errorf("Expected network URL from env, got %s", cfg.Network.URL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug log level from env, got %s", cfg.Logging.Level)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "roundtrip.json")

	original := DefaultConfig()
	original.Ingest.TickIntervalSeconds = 45
	original.Controllers.RadiusOverridesNM = map[string]float64{"center": 250}

	if err := original.Save(configPath); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}

	if loaded.Ingest.TickIntervalSeconds != original.Ingest.TickIntervalSeconds {
		t.Error("Tick interval not preserved in round trip")
	}
	if loaded.Controllers.RadiusOverridesNM["center"] != 250 {
		t.Error("Controller radius override not preserved in round trip")
	}
}
