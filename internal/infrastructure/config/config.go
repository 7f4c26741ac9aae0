package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Credit ledger backends.
const (
	CreditBackendMemory   = "memory"
	CreditBackendPostgres = "postgres"
	CreditBackendRedis    = "redis"
)

// Oracle providers.
const (
	OracleProviderGemini = "gemini"
	OracleProviderOpenAI = "openai"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App        AppSettings
	HTTP       HTTPSettings
	Auth       AuthSettings
	Log        LogSettings
	Upload     UploadSettings
	Validation ValidationSettings
	Credits    CreditSettings
	Database   DatabaseSettings
	Redis      RedisSettings
	Oracle     OracleSettings
	Registry   RegistrySettings
	Audit      AuditSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	UploadTimeout      time.Duration // Request deadline for /upload; covers the oracle round trip
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	Audience    string
	ClockSkew   time.Duration
	BypassPaths []string
	DevUserID   string // Identity injected when Enabled is false
}

type LogSettings struct {
	Level string
}

type UploadSettings struct {
	MaxBytes     int64
	AllowedTypes []string
	Cost         int64
}

type ValidationSettings struct {
	TaxTolerance float64 // Currency units
}

type CreditSettings struct {
	Backend     string
	SignupGrant int64
}

type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisSettings struct {
	Addr     string
	Password string
	DB       int
}

type OracleSettings struct {
	Provider        string
	GeminiAPIKey    string
	GeminiModel     string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	Timeout         time.Duration
	MaxConcurrent   int
	BreakerFailures int
	BreakerCooldown time.Duration
}

type RegistrySettings struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type AuditSettings struct {
	Enabled     bool
	LogBodies   bool // Log sanitized bodies of outbound registry calls
	MaxBodySize int
}

// Load resolves the application configuration from environment variables.
// It first attempts to load variables from a .env file if it exists.
// Environment variables set in the system take precedence over .env file values.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "gstlens"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:               getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:        getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:       getEnvAsDuration("HTTP_WRITE_TIMEOUT", 90*time.Second),
			UploadTimeout:      getEnvAsDuration("UPLOAD_TIMEOUT", 60*time.Second),
			IdleTimeout:        getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout:    getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
			CORSAllowedOrigins: getEnvAsCSV("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Auth: AuthSettings{
			Enabled:     getEnvAsBool("AUTH_ENABLED", true),
			IssuerURI:   strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:   strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			Audience:    strings.TrimSpace(os.Getenv("JWT_AUDIENCE")),
			ClockSkew:   getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/", "/health"}),
			DevUserID:   getEnv("AUTH_DEV_USER_ID", "dev-user"),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Upload: UploadSettings{
			MaxBytes:     int64(getEnvAsInt("UPLOAD_MAX_BYTES", 1<<20)),
			AllowedTypes: getEnvAsCSV("UPLOAD_ALLOWED_TYPES", []string{"application/pdf", "image/jpeg", "image/png"}),
			Cost:         int64(getEnvAsInt("UPLOAD_COST", 1)),
		},
		Validation: ValidationSettings{
			TaxTolerance: getEnvAsFloat("TAX_TOLERANCE", 2.0),
		},
		Credits: CreditSettings{
			Backend:     strings.ToLower(getEnv("CREDIT_BACKEND", CreditBackendMemory)),
			SignupGrant: int64(getEnvAsInt("CREDIT_SIGNUP_GRANT", 5)),
		},
		Database: DatabaseSettings{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "gstlens"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisSettings{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Oracle: OracleSettings{
			Provider:        strings.ToLower(getEnv("ORACLE_PROVIDER", OracleProviderGemini)),
			GeminiAPIKey:    strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			OpenAIAPIKey:    strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			OpenAIBaseURL:   strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
			OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Timeout:         getEnvAsDuration("ORACLE_TIMEOUT", 45*time.Second),
			MaxConcurrent:   getEnvAsInt("ORACLE_MAX_CONCURRENT", 8),
			BreakerFailures: getEnvAsInt("ORACLE_BREAKER_FAILURES", 5),
			BreakerCooldown: getEnvAsDuration("ORACLE_BREAKER_COOLDOWN", 30*time.Second),
		},
		Registry: RegistrySettings{
			BaseURL:  strings.TrimSpace(os.Getenv("GST_REGISTRY_URL")),
			APIKey:   strings.TrimSpace(os.Getenv("GST_REGISTRY_API_KEY")),
			Timeout:  getEnvAsDuration("GST_REGISTRY_TIMEOUT", 10*time.Second),
			CacheTTL: getEnvAsDuration("GST_CACHE_TTL", 6*time.Hour),
		},
		Audit: AuditSettings{
			Enabled:     getEnvAsBool("AUDIT_ENABLED", true),
			LogBodies:   getEnvAsBool("AUDIT_LOG_BODIES", false),
			MaxBodySize: getEnvAsInt("AUDIT_MAX_BODY_SIZE", 102400),
		},
	}

	return cfg, cfg.Validate()
}

// Validate reports the first inconsistent setting.
func (cfg AppConfig) Validate() error {
	switch cfg.Credits.Backend {
	case CreditBackendMemory, CreditBackendPostgres, CreditBackendRedis:
	default:
		return fmt.Errorf("invalid config: CREDIT_BACKEND must be one of memory, postgres, redis, got %q", cfg.Credits.Backend)
	}

	if cfg.Upload.MaxBytes <= 0 {
		return errors.New("invalid config: UPLOAD_MAX_BYTES must be greater than 0")
	}
	if cfg.Upload.Cost <= 0 {
		return errors.New("invalid config: UPLOAD_COST must be greater than 0")
	}
	if len(cfg.Upload.AllowedTypes) == 0 {
		return errors.New("invalid config: UPLOAD_ALLOWED_TYPES must not be empty")
	}
	if cfg.Validation.TaxTolerance < 0 {
		return errors.New("invalid config: TAX_TOLERANCE must not be negative")
	}
	if cfg.Credits.SignupGrant < 0 {
		return errors.New("invalid config: CREDIT_SIGNUP_GRANT must not be negative")
	}

	switch cfg.Oracle.Provider {
	case OracleProviderGemini:
		if cfg.Oracle.GeminiAPIKey == "" {
			return errors.New("invalid config: GEMINI_API_KEY is required when ORACLE_PROVIDER=gemini")
		}
	case OracleProviderOpenAI:
		if cfg.Oracle.OpenAIAPIKey == "" {
			return errors.New("invalid config: OPENAI_API_KEY is required when ORACLE_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("invalid config: ORACLE_PROVIDER must be gemini or openai, got %q", cfg.Oracle.Provider)
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.IssuerURI == "" {
			return errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if cfg.Auth.JWKSetURI == "" {
			return errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}

	return nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
