package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// setBaseEnv clears every variable Load reads and sets the minimum for a valid config.
func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_NAME", "APP_VERSION", "APP_ENV", "APP_PORT",
		"HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "UPLOAD_TIMEOUT", "HTTP_IDLE_TIMEOUT", "HTTP_SHUTDOWN_TIMEOUT",
		"CORS_ALLOWED_ORIGINS",
		"AUTH_ENABLED", "JWT_ISSUER_URI", "JWT_JWK_SET_URI", "JWT_AUDIENCE", "AUTH_CLOCK_SKEW", "AUTH_BYPASS_PATHS",
		"AUTH_DEV_USER_ID", "LOG_LEVEL",
		"UPLOAD_MAX_BYTES", "UPLOAD_ALLOWED_TYPES", "UPLOAD_COST", "TAX_TOLERANCE",
		"CREDIT_BACKEND", "CREDIT_SIGNUP_GRANT",
		"ORACLE_PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL", "OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL",
		"ORACLE_TIMEOUT", "ORACLE_MAX_CONCURRENT", "ORACLE_BREAKER_FAILURES", "ORACLE_BREAKER_COOLDOWN",
		"GST_REGISTRY_URL", "GST_REGISTRY_API_KEY", "GST_REGISTRY_TIMEOUT", "GST_CACHE_TTL",
		"AUDIT_ENABLED", "REDIS_ADDR", "DB_HOST", "DB_PORT", "DB_NAME",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("GEMINI_API_KEY", "test-gemini-key")
}

func TestLoad_DefaultValues(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Name != "gstlens" {
		t.Errorf("expected default app name 'gstlens', got %q", cfg.App.Name)
	}
	if cfg.App.Environment != "local" {
		t.Errorf("expected default environment 'local', got %q", cfg.App.Environment)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.UploadTimeout != 60*time.Second {
		t.Errorf("expected upload timeout 60s, got %v", cfg.HTTP.UploadTimeout)
	}
	if cfg.Upload.MaxBytes != 1<<20 {
		t.Errorf("expected max upload 1MiB, got %d", cfg.Upload.MaxBytes)
	}
	if cfg.Upload.Cost != 1 {
		t.Errorf("expected upload cost 1, got %d", cfg.Upload.Cost)
	}
	if len(cfg.Upload.AllowedTypes) != 3 {
		t.Errorf("expected 3 allowed types, got %v", cfg.Upload.AllowedTypes)
	}
	if cfg.Validation.TaxTolerance != 2.0 {
		t.Errorf("expected tax tolerance 2.0, got %v", cfg.Validation.TaxTolerance)
	}
	if cfg.Credits.Backend != CreditBackendMemory {
		t.Errorf("expected memory backend, got %q", cfg.Credits.Backend)
	}
	if cfg.Credits.SignupGrant != 5 {
		t.Errorf("expected signup grant 5, got %d", cfg.Credits.SignupGrant)
	}
	if cfg.Oracle.Provider != OracleProviderGemini {
		t.Errorf("expected gemini provider, got %q", cfg.Oracle.Provider)
	}
	if cfg.Oracle.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("expected model gemini-2.5-flash, got %q", cfg.Oracle.GeminiModel)
	}
	if strings.Join(cfg.Auth.BypassPaths, ",") != "/,/health" {
		t.Errorf("expected bypass paths / and /health, got %v", cfg.Auth.BypassPaths)
	}
	if cfg.Auth.Enabled {
		t.Error("expected auth disabled as set in test")
	}
}

func TestLoad_WithCustomValues(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_NAME", "test-app")
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("UPLOAD_MAX_BYTES", "2048")
	t.Setenv("UPLOAD_COST", "3")
	t.Setenv("TAX_TOLERANCE", "0.5")
	t.Setenv("CREDIT_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("ORACLE_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ORACLE_BREAKER_COOLDOWN", "1m")
	t.Setenv("GST_CACHE_TTL", "15m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Name != "test-app" {
		t.Errorf("expected app name 'test-app', got %q", cfg.App.Name)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Upload.MaxBytes != 2048 {
		t.Errorf("expected max bytes 2048, got %d", cfg.Upload.MaxBytes)
	}
	if cfg.Upload.Cost != 3 {
		t.Errorf("expected cost 3, got %d", cfg.Upload.Cost)
	}
	if cfg.Validation.TaxTolerance != 0.5 {
		t.Errorf("expected tolerance 0.5, got %v", cfg.Validation.TaxTolerance)
	}
	if cfg.Credits.Backend != CreditBackendRedis {
		t.Errorf("expected redis backend, got %q", cfg.Credits.Backend)
	}
	if cfg.Redis.Addr != "redis:6380" {
		t.Errorf("expected redis addr redis:6380, got %q", cfg.Redis.Addr)
	}
	if cfg.Oracle.Provider != OracleProviderOpenAI {
		t.Errorf("expected openai provider, got %q", cfg.Oracle.Provider)
	}
	if cfg.Oracle.BreakerCooldown != time.Minute {
		t.Errorf("expected breaker cooldown 1m, got %v", cfg.Oracle.BreakerCooldown)
	}
	if cfg.Registry.CacheTTL != 15*time.Minute {
		t.Errorf("expected cache ttl 15m, got %v", cfg.Registry.CacheTTL)
	}
	if len(cfg.HTTP.CORSAllowedOrigins) != 2 || cfg.HTTP.CORSAllowedOrigins[1] != "https://admin.example.com" {
		t.Errorf("expected two CORS origins, got %v", cfg.HTTP.CORSAllowedOrigins)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		message string
	}{
		{
			name:    "unknown credit backend",
			env:     map[string]string{"CREDIT_BACKEND": "mongo"},
			message: "CREDIT_BACKEND",
		},
		{
			name:    "zero size cap",
			env:     map[string]string{"UPLOAD_MAX_BYTES": "0"},
			message: "UPLOAD_MAX_BYTES",
		},
		{
			name:    "negative cost",
			env:     map[string]string{"UPLOAD_COST": "-1"},
			message: "UPLOAD_COST",
		},
		{
			name:    "negative tolerance",
			env:     map[string]string{"TAX_TOLERANCE": "-0.1"},
			message: "TAX_TOLERANCE",
		},
		{
			name:    "unknown oracle provider",
			env:     map[string]string{"ORACLE_PROVIDER": "llama"},
			message: "ORACLE_PROVIDER",
		},
		{
			name:    "gemini without key",
			env:     map[string]string{"GEMINI_API_KEY": ""},
			message: "GEMINI_API_KEY",
		},
		{
			name:    "openai without key",
			env:     map[string]string{"ORACLE_PROVIDER": "openai"},
			message: "OPENAI_API_KEY",
		},
		{
			name:    "auth enabled without issuer",
			env:     map[string]string{"AUTH_ENABLED": "true", "JWT_JWK_SET_URI": "https://issuer.example.com/jwks"},
			message: "JWT_ISSUER_URI",
		},
		{
			name:    "auth enabled without jwks",
			env:     map[string]string{"AUTH_ENABLED": "true", "JWT_ISSUER_URI": "https://issuer.example.com"},
			message: "JWT_JWK_SET_URI",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("expected error mentioning %s, got %v", tt.message, err)
			}
		})
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback float64
		expected float64
	}{
		{"valid float", "2.5", 0, 2.5},
		{"integer", "3", 0, 3},
		{"padded", " 0.25 ", 0, 0.25},
		{"invalid value", "two", 2, 2},
		{"missing key", "", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_FLOAT", tt.envValue)
			} else {
				os.Unsetenv("TEST_FLOAT")
			}

			result := getEnvAsFloat("TEST_FLOAT", tt.fallback)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestHTTPSettings_Address(t *testing.T) {
	settings := HTTPSettings{Port: 8080}
	addr := settings.Address()

	if addr != ":8080" {
		t.Errorf("expected address ':8080', got %q", addr)
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_KEY", "test-value")
	defer os.Unsetenv("TEST_KEY")

	value := getEnv("TEST_KEY", "default")
	if value != "test-value" {
		t.Errorf("expected 'test-value', got %q", value)
	}

	value = getEnv("NON_EXISTENT_KEY", "default-value")
	if value != "default-value" {
		t.Errorf("expected 'default-value', got %q", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback bool
		expected bool
	}{
		{"true value", "true", false, true},
		{"false value", "false", true, false},
		{"True value", "True", false, true},
		{"FALSE value", "FALSE", true, false},
		{"invalid value", "invalid", true, true},
		{"missing key", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_BOOL", tt.envValue)
				defer os.Unsetenv("TEST_BOOL")
			} else {
				os.Unsetenv("TEST_BOOL")
			}

			result := getEnvAsBool("TEST_BOOL", tt.fallback)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback int
		expected int
	}{
		{"valid int", "123", 0, 123},
		{"zero", "0", 999, 0},
		{"negative", "-10", 0, -10},
		{"invalid value", "not-a-number", 42, 42},
		{"missing key", "", 42, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_INT", tt.envValue)
				defer os.Unsetenv("TEST_INT")
			} else {
				os.Unsetenv("TEST_INT")
			}

			result := getEnvAsInt("TEST_INT", tt.fallback)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback time.Duration
		expected time.Duration
	}{
		{"valid duration", "10s", 0, 10 * time.Second},
		{"minutes", "5m", 0, 5 * time.Minute},
		{"hours", "2h", 0, 2 * time.Hour},
		{"invalid value", "not-a-duration", 30 * time.Second, 30 * time.Second},
		{"empty value", "", 30 * time.Second, 30 * time.Second},
		{"missing key", "", 30 * time.Second, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_DURATION", tt.envValue)
				defer os.Unsetenv("TEST_DURATION")
			} else {
				os.Unsetenv("TEST_DURATION")
			}

			result := getEnvAsDuration("TEST_DURATION", tt.fallback)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsCSV(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback []string
		expected []string
	}{
		{
			name:     "single value",
			envValue: "value1",
			fallback: []string{"default"},
			expected: []string{"value1"},
		},
		{
			name:     "multiple values",
			envValue: "value1,value2,value3",
			fallback: []string{"default"},
			expected: []string{"value1", "value2", "value3"},
		},
		{
			name:     "with spaces",
			envValue: "value1, value2 , value3",
			fallback: []string{"default"},
			expected: []string{"value1", "value2", "value3"},
		},
		{
			name:     "empty values filtered",
			envValue: "value1,,value2, ,value3",
			fallback: []string{"default"},
			expected: []string{"value1", "value2", "value3"},
		},
		{
			name:     "empty string",
			envValue: "",
			fallback: []string{"default"},
			expected: []string{"default"},
		},
		{
			name:     "only spaces",
			envValue: " , , ",
			fallback: []string{"default"},
			expected: []string{"default"},
		},
		{
			name:     "missing key",
			envValue: "",
			fallback: []string{"default1", "default2"},
			expected: []string{"default1", "default2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_CSV", tt.envValue)
				defer os.Unsetenv("TEST_CSV")
			} else {
				os.Unsetenv("TEST_CSV")
			}

			result := getEnvAsCSV("TEST_CSV", tt.fallback)
			if len(result) != len(tt.expected) {
				t.Errorf("expected %d values, got %d", len(tt.expected), len(result))
				return
			}

			for i, expected := range tt.expected {
				if result[i] != expected {
					t.Errorf("expected[%d] %q, got %q", i, expected, result[i])
				}
			}
		})
	}
}
