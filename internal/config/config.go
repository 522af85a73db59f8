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
	OCR      OCRConfig
	Pipeline PipelineConfig
	Enrich   EnrichConfig
	CORS     CORSConfig
	Queue    QueueConfig
	Email    EmailConfig
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	FrontendURL string `mapstructure:"frontend_url"`
}

// QueueConfig holds retry queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AnalyzerProviderConfig holds settings for a single LLM analyzer provider.
type AnalyzerProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// AnalyzerConfig holds LLM analyzer settings with multi-provider support.
type AnalyzerConfig struct {
	// Legacy flat fields (backwards-compatible)
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`

	// Multi-provider fields
	Primary   AnalyzerProviderConfig `mapstructure:"primary"`
	Secondary AnalyzerProviderConfig `mapstructure:"secondary"`
	Tertiary  AnalyzerProviderConfig `mapstructure:"tertiary"`
}

// PrimaryConfig returns the primary analyzer provider config, falling back to legacy flat fields.
func (a *AnalyzerConfig) PrimaryConfig() *AnalyzerProviderConfig {
	if a.Primary.Provider != "" {
		return &a.Primary
	}
	return &AnalyzerProviderConfig{
		Provider:     a.Provider,
		APIKey:       a.APIKey,
		DefaultModel: a.DefaultModel,
		MaxRetries:   a.MaxRetries,
		TimeoutSecs:  a.TimeoutSecs,
	}
}

// SecondaryConfig returns the secondary analyzer provider config, or nil if not configured.
func (a *AnalyzerConfig) SecondaryConfig() *AnalyzerProviderConfig {
	if a.Secondary.Provider != "" {
		return &a.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary analyzer provider config, or nil if not configured.
func (a *AnalyzerConfig) TertiaryConfig() *AnalyzerProviderConfig {
	if a.Tertiary.Provider != "" {
		return &a.Tertiary
	}
	return nil
}

// OCRConfig holds image-to-text engine settings. Provider "none" disables
// vision OCR entirely; the extraction cascade then stops after markup
// recovery.
type OCRConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
	Languages   string `mapstructure:"languages"`
}

// PipelineConfig holds extraction pipeline settings.
type PipelineConfig struct {
	PageWorkers int `mapstructure:"page_workers"`
	RasterDPI   int `mapstructure:"raster_dpi"`
}

// SearchConfig holds directory search (Google Custom Search) settings.
type SearchConfig struct {
	APIKey      string `mapstructure:"api_key"`
	EngineID    string `mapstructure:"engine_id"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// ProfileConfig holds profile lookup (Unipile) settings.
type ProfileConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	AccountID   string `mapstructure:"account_id"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// EnrichConfig holds entity enrichment settings.
type EnrichConfig struct {
	MaxCandidates int           `mapstructure:"max_candidates"`
	Concurrency   int           `mapstructure:"concurrency"`
	Search        SearchConfig  `mapstructure:"search"`
	Profile       ProfileConfig `mapstructure:"profile"`
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
	// ConnMaxLifetime bounds how long a pooled connection is reused.
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds JWT validation settings. An empty secret disables bearer
// auth on the API.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings. An empty bucket disables upload archival.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the DECKLENS_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DECKLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "decklens")
	v.SetDefault("db.password", "decklens_secret")
	v.SetDefault("db.name", "decklens_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)
	v.SetDefault("db.conn_max_lifetime", "30m")

	// JWT defaults
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "decklens")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 50)
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_retries", 5)
	v.SetDefault("queue.concurrency", 2)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "noreply@decklens.io")
	v.SetDefault("email.from_name", "DeckLens")
	v.SetDefault("email.frontend_url", "http://localhost:3000")

	// Analyzer defaults (legacy flat)
	v.SetDefault("analyzer.provider", "openai")
	v.SetDefault("analyzer.api_key", "")
	v.SetDefault("analyzer.default_model", "gpt-5-mini")
	v.SetDefault("analyzer.max_retries", 2)
	v.SetDefault("analyzer.timeout_secs", 180)

	// Analyzer primary/secondary/tertiary defaults
	v.SetDefault("analyzer.primary.provider", "")
	v.SetDefault("analyzer.primary.api_key", "")
	v.SetDefault("analyzer.primary.default_model", "")
	v.SetDefault("analyzer.primary.max_retries", 2)
	v.SetDefault("analyzer.primary.timeout_secs", 180)
	v.SetDefault("analyzer.secondary.provider", "")
	v.SetDefault("analyzer.secondary.api_key", "")
	v.SetDefault("analyzer.secondary.default_model", "")
	v.SetDefault("analyzer.secondary.max_retries", 2)
	v.SetDefault("analyzer.secondary.timeout_secs", 180)
	v.SetDefault("analyzer.tertiary.provider", "")
	v.SetDefault("analyzer.tertiary.api_key", "")
	v.SetDefault("analyzer.tertiary.default_model", "")
	v.SetDefault("analyzer.tertiary.max_retries", 2)
	v.SetDefault("analyzer.tertiary.timeout_secs", 180)

	// OCR defaults
	v.SetDefault("ocr.provider", "tesseract")
	v.SetDefault("ocr.api_key", "")
	v.SetDefault("ocr.model", "gpt-4o-mini")
	v.SetDefault("ocr.timeout_secs", 120)
	v.SetDefault("ocr.languages", "eng")

	// Pipeline defaults
	v.SetDefault("pipeline.page_workers", 4)
	v.SetDefault("pipeline.raster_dpi", 300)

	// Enrichment defaults
	v.SetDefault("enrich.max_candidates", 3)
	v.SetDefault("enrich.concurrency", 3)
	v.SetDefault("enrich.search.api_key", "")
	v.SetDefault("enrich.search.engine_id", "")
	v.SetDefault("enrich.search.timeout_secs", 30)
	v.SetDefault("enrich.profile.base_url", "https://api22.unipile.com:15236")
	v.SetDefault("enrich.profile.api_key", "")
	v.SetDefault("enrich.profile.account_id", "")
	v.SetDefault("enrich.profile.timeout_secs", 30)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":          "DECKLENS_SERVER_PORT",
		"server.read_timeout":  "DECKLENS_SERVER_READ_TIMEOUT",
		"server.write_timeout": "DECKLENS_SERVER_WRITE_TIMEOUT",
		"server.environment":   "DECKLENS_SERVER_ENVIRONMENT",
		"db.host":              "DECKLENS_DB_HOST",
		"db.port":              "DECKLENS_DB_PORT",
		"db.user":              "DECKLENS_DB_USER",
		"db.password":          "DECKLENS_DB_PASSWORD",
		"db.name":              "DECKLENS_DB_NAME",
		"db.sslmode":           "DECKLENS_DB_SSLMODE",
		"db.max_open":          "DECKLENS_DB_MAX_OPEN",
		"db.max_idle":          "DECKLENS_DB_MAX_IDLE",
		"jwt.secret":           "DECKLENS_JWT_SECRET",
		"jwt.issuer":           "DECKLENS_JWT_ISSUER",
		"s3.region":            "DECKLENS_S3_REGION",
		"s3.bucket":            "DECKLENS_S3_BUCKET",
		"s3.endpoint":          "DECKLENS_S3_ENDPOINT",
		"s3.access_key":        "DECKLENS_S3_ACCESS_KEY",
		"s3.secret_key":        "DECKLENS_S3_SECRET_KEY",
		"s3.max_file_size_mb":  "DECKLENS_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":    "DECKLENS_S3_PRESIGN_EXPIRY",
		"log.level":            "DECKLENS_LOG_LEVEL",
		"log.format":           "DECKLENS_LOG_FORMAT",
		"cors.allowed_origins":             "DECKLENS_CORS_ALLOWED_ORIGINS",
		"queue.poll_interval_secs":         "DECKLENS_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_retries":                "DECKLENS_QUEUE_MAX_RETRIES",
		"queue.concurrency":                "DECKLENS_QUEUE_CONCURRENCY",
		"analyzer.provider":                "DECKLENS_ANALYZER_PROVIDER",
		"analyzer.api_key":                 "DECKLENS_ANALYZER_API_KEY",
		"analyzer.default_model":           "DECKLENS_ANALYZER_DEFAULT_MODEL",
		"analyzer.max_retries":             "DECKLENS_ANALYZER_MAX_RETRIES",
		"analyzer.timeout_secs":            "DECKLENS_ANALYZER_TIMEOUT_SECS",
		"analyzer.primary.provider":        "DECKLENS_ANALYZER_PRIMARY_PROVIDER",
		"analyzer.primary.api_key":         "DECKLENS_ANALYZER_PRIMARY_API_KEY",
		"analyzer.primary.default_model":   "DECKLENS_ANALYZER_PRIMARY_DEFAULT_MODEL",
		"analyzer.primary.max_retries":     "DECKLENS_ANALYZER_PRIMARY_MAX_RETRIES",
		"analyzer.primary.timeout_secs":    "DECKLENS_ANALYZER_PRIMARY_TIMEOUT_SECS",
		"analyzer.secondary.provider":      "DECKLENS_ANALYZER_SECONDARY_PROVIDER",
		"analyzer.secondary.api_key":       "DECKLENS_ANALYZER_SECONDARY_API_KEY",
		"analyzer.secondary.default_model": "DECKLENS_ANALYZER_SECONDARY_DEFAULT_MODEL",
		"analyzer.secondary.max_retries":   "DECKLENS_ANALYZER_SECONDARY_MAX_RETRIES",
		"analyzer.secondary.timeout_secs":  "DECKLENS_ANALYZER_SECONDARY_TIMEOUT_SECS",
		"analyzer.tertiary.provider":       "DECKLENS_ANALYZER_TERTIARY_PROVIDER",
		"analyzer.tertiary.api_key":        "DECKLENS_ANALYZER_TERTIARY_API_KEY",
		"analyzer.tertiary.default_model":  "DECKLENS_ANALYZER_TERTIARY_DEFAULT_MODEL",
		"analyzer.tertiary.max_retries":    "DECKLENS_ANALYZER_TERTIARY_MAX_RETRIES",
		"analyzer.tertiary.timeout_secs":   "DECKLENS_ANALYZER_TERTIARY_TIMEOUT_SECS",
		"ocr.provider":                     "DECKLENS_OCR_PROVIDER",
		"ocr.api_key":                      "DECKLENS_OCR_API_KEY",
		"ocr.model":                        "DECKLENS_OCR_MODEL",
		"ocr.timeout_secs":                 "DECKLENS_OCR_TIMEOUT_SECS",
		"ocr.languages":                    "DECKLENS_OCR_LANGUAGES",
		"pipeline.page_workers":            "DECKLENS_PIPELINE_PAGE_WORKERS",
		"pipeline.raster_dpi":              "DECKLENS_PIPELINE_RASTER_DPI",
		"enrich.max_candidates":            "DECKLENS_ENRICH_MAX_CANDIDATES",
		"enrich.concurrency":               "DECKLENS_ENRICH_CONCURRENCY",
		"enrich.search.api_key":            "DECKLENS_ENRICH_SEARCH_API_KEY",
		"enrich.search.engine_id":          "DECKLENS_ENRICH_SEARCH_ENGINE_ID",
		"enrich.search.timeout_secs":       "DECKLENS_ENRICH_SEARCH_TIMEOUT_SECS",
		"enrich.profile.base_url":          "DECKLENS_ENRICH_PROFILE_BASE_URL",
		"enrich.profile.api_key":           "DECKLENS_ENRICH_PROFILE_API_KEY",
		"enrich.profile.account_id":        "DECKLENS_ENRICH_PROFILE_ACCOUNT_ID",
		"enrich.profile.timeout_secs":      "DECKLENS_ENRICH_PROFILE_TIMEOUT_SECS",
		"email.provider":                   "DECKLENS_EMAIL_PROVIDER",
		"email.region":                     "DECKLENS_EMAIL_REGION",
		"email.from_address":               "DECKLENS_EMAIL_FROM_ADDRESS",
		"email.from_name":                  "DECKLENS_EMAIL_FROM_NAME",
		"email.frontend_url":               "DECKLENS_EMAIL_FRONTEND_URL",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if DECKLENS_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DECKLENS_SERVER_PORT") == "" {
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

		ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
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
		MaxRetries:   v.GetInt("analyzer.max_retries"),
		TimeoutSecs:  v.GetInt("analyzer.timeout_secs"),
		Primary: AnalyzerProviderConfig{
			Provider:     v.GetString("analyzer.primary.provider"),
			APIKey:       v.GetString("analyzer.primary.api_key"),
			DefaultModel: v.GetString("analyzer.primary.default_model"),
			MaxRetries:   v.GetInt("analyzer.primary.max_retries"),
			TimeoutSecs:  v.GetInt("analyzer.primary.timeout_secs"),
		},
		Secondary: AnalyzerProviderConfig{
			Provider:     v.GetString("analyzer.secondary.provider"),
			APIKey:       v.GetString("analyzer.secondary.api_key"),
			DefaultModel: v.GetString("analyzer.secondary.default_model"),
			MaxRetries:   v.GetInt("analyzer.secondary.max_retries"),
			TimeoutSecs:  v.GetInt("analyzer.secondary.timeout_secs"),
		},
		Tertiary: AnalyzerProviderConfig{
			Provider:     v.GetString("analyzer.tertiary.provider"),
			APIKey:       v.GetString("analyzer.tertiary.api_key"),
			DefaultModel: v.GetString("analyzer.tertiary.default_model"),
			MaxRetries:   v.GetInt("analyzer.tertiary.max_retries"),
			TimeoutSecs:  v.GetInt("analyzer.tertiary.timeout_secs"),
		},
	}

	cfg.OCR = OCRConfig{
		Provider:    v.GetString("ocr.provider"),
		APIKey:      v.GetString("ocr.api_key"),
		Model:       v.GetString("ocr.model"),
		TimeoutSecs: v.GetInt("ocr.timeout_secs"),
		Languages:   v.GetString("ocr.languages"),
	}

	cfg.Pipeline = PipelineConfig{
		PageWorkers: v.GetInt("pipeline.page_workers"),
		RasterDPI:   v.GetInt("pipeline.raster_dpi"),
	}

	cfg.Enrich = EnrichConfig{
		MaxCandidates: v.GetInt("enrich.max_candidates"),
		Concurrency:   v.GetInt("enrich.concurrency"),
		Search: SearchConfig{
			APIKey:      v.GetString("enrich.search.api_key"),
			EngineID:    v.GetString("enrich.search.engine_id"),
			TimeoutSecs: v.GetInt("enrich.search.timeout_secs"),
		},
		Profile: ProfileConfig{
			BaseURL:     v.GetString("enrich.profile.base_url"),
			APIKey:      v.GetString("enrich.profile.api_key"),
			AccountID:   v.GetString("enrich.profile.account_id"),
			TimeoutSecs: v.GetInt("enrich.profile.timeout_secs"),
		},
	}

	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxRetries:       v.GetInt("queue.max_retries"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}

	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		FrontendURL: v.GetString("email.frontend_url"),
	}

	return cfg, nil
}
