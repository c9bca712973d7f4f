package configs

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("PORT", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("MAX_HISTORY_SIZE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("Expected default environment development, got %s", cfg.Environment)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Errorf("Expected no default origins, got %v", cfg.AllowedOrigins)
	}
	if cfg.MaxHistorySize != DefaultMaxHistorySize {
		t.Errorf("Expected default history cap %d, got %d", DefaultMaxHistorySize, cfg.MaxHistorySize)
	}
}

func TestLoadConfigCustomValues(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "https://draw.example.com, https://app.example.com")
	t.Setenv("MAX_HISTORY_SIZE", "250")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Environment != "production" {
		t.Errorf("Expected production, got %s", cfg.Environment)
	}
	if cfg.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://draw.example.com" {
		t.Errorf("Unexpected origins: %v", cfg.AllowedOrigins)
	}
	if cfg.MaxHistorySize != 250 {
		t.Errorf("Expected history cap 250, got %d", cfg.MaxHistorySize)
	}
}

func TestLoadConfigRejectsBadPort(t *testing.T) {
	cases := []string{"abc", "80", "70000"}
	for _, port := range cases {
		t.Setenv("PORT", port)
		if _, err := LoadConfig(); err == nil {
			t.Errorf("PORT=%s should be rejected", port)
		}
	}
}

func TestLoadConfigRejectsBadHistorySize(t *testing.T) {
	t.Setenv("PORT", "")

	cases := []string{"zero", "0", "-5"}
	for _, size := range cases {
		t.Setenv("MAX_HISTORY_SIZE", size)
		if _, err := LoadConfig(); err == nil {
			t.Errorf("MAX_HISTORY_SIZE=%s should be rejected", size)
		}
	}
}
