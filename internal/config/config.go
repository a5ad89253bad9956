package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	JWT      JWTConfig
	S3       S3Config
	Log      LogConfig
	Analyzer AnalyzerConfig
	CORS     CORSConfig
	Worker   WorkerConfig
	Token    TokenConfig
}

// TokenConfig holds processing-token lifecycle settings.
type TokenConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// WorkerConfig holds background processing settings.
type WorkerConfig struct {
	Concurrency   int           `mapstructure:"concurrency"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	JobTimeout    time.Duration `mapstructure:"job_timeout"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AnalyzerConfig holds settings for the multimodal receipt analyzer.
type AnalyzerConfig struct {
	Provider     string        `mapstructure:"provider"`
	APIKey       string        `mapstructure:"api_key"`
	DefaultModel string        `mapstructure:"default_model"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	TimeoutSecs  int           `mapstructure:"timeout_secs"`
	BackoffBase  time.Duration `mapstructure:"backoff_base"`
	BackoffMax   time.Duration `mapstructure:"backoff_max"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT verification settings.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings for uploaded media.
type S3Config struct {
	Region         string `mapstructure:"region"`
	Bucket         string `mapstructure:"bucket"`
	Endpoint       string `mapstructure:"endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	MaxImageSizeMB int64  `mapstructure:"max_image_size_mb"`
	MaxVideoSizeMB int64  `mapstructure:"max_video_size_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the LLENS_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "ledgerlens")
	v.SetDefault("db.password", "ledgerlens_secret")
	v.SetDefault("db.name", "ledgerlens_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "ledgerlens")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "ledgerlens-media")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_image_size_mb", 10)
	v.SetDefault("s3.max_video_size_mb", 100)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Worker defaults
	v.SetDefault("worker.concurrency", 8)
	v.SetDefault("worker.sweep_interval", "30s")
	v.SetDefault("worker.job_timeout", "5m")

	// Token defaults
	v.SetDefault("token.ttl", "10m")

	// Analyzer defaults
	v.SetDefault("analyzer.provider", "gemini")
	v.SetDefault("analyzer.api_key", "")
	v.SetDefault("analyzer.default_model", "gemini-2.0-flash")
	v.SetDefault("analyzer.max_attempts", 3)
	v.SetDefault("analyzer.timeout_secs", 120)
	v.SetDefault("analyzer.backoff_base", "2s")
	v.SetDefault("analyzer.backoff_max", "30s")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":            "LLENS_SERVER_PORT",
		"server.read_timeout":    "LLENS_SERVER_READ_TIMEOUT",
		"server.write_timeout":   "LLENS_SERVER_WRITE_TIMEOUT",
		"server.environment":     "LLENS_SERVER_ENVIRONMENT",
		"db.host":                "LLENS_DB_HOST",
		"db.port":                "LLENS_DB_PORT",
		"db.user":                "LLENS_DB_USER",
		"db.password":            "LLENS_DB_PASSWORD",
		"db.name":                "LLENS_DB_NAME",
		"db.sslmode":             "LLENS_DB_SSLMODE",
		"db.max_open":            "LLENS_DB_MAX_OPEN",
		"db.max_idle":            "LLENS_DB_MAX_IDLE",
		"jwt.secret":             "LLENS_JWT_SECRET",
		"jwt.issuer":             "LLENS_JWT_ISSUER",
		"s3.region":              "LLENS_S3_REGION",
		"s3.bucket":              "LLENS_S3_BUCKET",
		"s3.endpoint":            "LLENS_S3_ENDPOINT",
		"s3.access_key":          "LLENS_S3_ACCESS_KEY",
		"s3.secret_key":          "LLENS_S3_SECRET_KEY",
		"s3.max_image_size_mb":   "LLENS_S3_MAX_IMAGE_SIZE_MB",
		"s3.max_video_size_mb":   "LLENS_S3_MAX_VIDEO_SIZE_MB",
		"log.level":              "LLENS_LOG_LEVEL",
		"log.format":             "LLENS_LOG_FORMAT",
		"cors.allowed_origins":   "LLENS_CORS_ALLOWED_ORIGINS",
		"worker.concurrency":     "LLENS_WORKER_CONCURRENCY",
		"worker.sweep_interval":  "LLENS_WORKER_SWEEP_INTERVAL",
		"worker.job_timeout":     "LLENS_WORKER_JOB_TIMEOUT",
		"token.ttl":              "LLENS_TOKEN_TTL",
		"analyzer.provider":      "LLENS_ANALYZER_PROVIDER",
		"analyzer.api_key":       "LLENS_ANALYZER_API_KEY",
		"analyzer.default_model": "LLENS_ANALYZER_DEFAULT_MODEL",
		"analyzer.max_attempts":  "LLENS_ANALYZER_MAX_ATTEMPTS",
		"analyzer.timeout_secs":  "LLENS_ANALYZER_TIMEOUT_SECS",
		"analyzer.backoff_base":  "LLENS_ANALYZER_BACKOFF_BASE",
		"analyzer.backoff_max":   "LLENS_ANALYZER_BACKOFF_MAX",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if LLENS_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("LLENS_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:         v.GetString("s3.region"),
		Bucket:         v.GetString("s3.bucket"),
		Endpoint:       v.GetString("s3.endpoint"),
		AccessKey:      v.GetString("s3.access_key"),
		SecretKey:      v.GetString("s3.secret_key"),
		MaxImageSizeMB: v.GetInt64("s3.max_image_size_mb"),
		MaxVideoSizeMB: v.GetInt64("s3.max_video_size_mb"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Analyzer = AnalyzerConfig{
		Provider:     v.GetString("analyzer.provider"),
		APIKey:       v.GetString("analyzer.api_key"),
		DefaultModel: v.GetString("analyzer.default_model"),
		MaxAttempts:  v.GetInt("analyzer.max_attempts"),
		TimeoutSecs:  v.GetInt("analyzer.timeout_secs"),
		BackoffBase:  v.GetDuration("analyzer.backoff_base"),
		BackoffMax:   v.GetDuration("analyzer.backoff_max"),
	}

	cfg.Worker = WorkerConfig{
		Concurrency:   v.GetInt("worker.concurrency"),
		SweepInterval: v.GetDuration("worker.sweep_interval"),
		JobTimeout:    v.GetDuration("worker.job_timeout"),
	}

	cfg.Token = TokenConfig{
		TTL: v.GetDuration("token.ttl"),
	}

	return cfg, nil
}
