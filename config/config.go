package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	BlobBackendDatabase = "database"
	BlobBackendMinio    = "minio"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	// Store
	DBDriver     string
	DatabaseURL  string
	DatabaseName string

	// Blob store
	BlobBackend    string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Auth
	JWTSecret string
	JWTTTL    time.Duration

	UploadMaxSize      int64
	RateLimitPerMinute int
	RateLimitBurst     int

	// Email Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string

	SeedData bool
	SeedFile string

	// Housekeeping
	CleanupInterval        time.Duration
	FriendRequestRetention time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:     strings.ToLower(getEnv("DB_DRIVER", DriverMySQL)),
		DatabaseURL:  getEnv("DATABASE_URL", "user:password@tcp(localhost:3306)"),
		DatabaseName: getEnv("DATABASE_NAME", "sushicount"),

		BlobBackend:    strings.ToLower(getEnv("BLOB_BACKEND", BlobBackendDatabase)),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "session-images"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		JWTSecret: getEnv("JWT_SECRET", "change-me-sushi-secret"),
		JWTTTL:    time.Duration(getEnvInt("JWT_TTL_HOURS", 168)) * time.Hour,

		UploadMaxSize:      getEnvInt64("UPLOAD_MAX_SIZE", 5<<20),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@sushicount.app"),
		FromName:     getEnv("FROM_NAME", "SushiCount"),

		SeedData: getEnvBool("SEED_DATA", true),
		SeedFile: getEnv("SEED_FILE", ""),

		CleanupInterval:        time.Duration(getEnvInt("CLEANUP_INTERVAL_MINUTES", 60)) * time.Minute,
		FriendRequestRetention: time.Duration(getEnvInt("FRIEND_REQUEST_RETENTION_DAYS", 30)) * 24 * time.Hour,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME is required")
	}
	switch c.BlobBackend {
	case BlobBackendDatabase:
	case BlobBackendMinio:
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			return fmt.Errorf("MINIO_ENDPOINT and MINIO_BUCKET are required for the minio blob backend")
		}
	default:
		return fmt.Errorf("unsupported BLOB_BACKEND %q", c.BlobBackend)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.UploadMaxSize <= 0 {
		return fmt.Errorf("UPLOAD_MAX_SIZE must be positive")
	}
	return nil
}

// DSN joins the connection string and the database name the way each driver expects.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case DriverPostgres:
		return strings.TrimSpace(fmt.Sprintf("%s dbname=%s", c.DatabaseURL, c.DatabaseName))
	case DriverSQLite:
		dir := c.DatabaseURL
		if dir == "" {
			dir = "."
		}
		return filepath.Join(dir, c.DatabaseName+".db")
	default:
		return fmt.Sprintf("%s/%s?charset=utf8mb4&parseTime=True&loc=Local",
			strings.TrimRight(c.DatabaseURL, "/"), c.DatabaseName)
	}
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// EmailEnabled reports whether an SMTP relay is configured.
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
