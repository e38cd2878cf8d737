package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/noah-isme/onboarding-portal-api/internal/onboarding"
)

// Storage drivers accepted for uploaded documents.
const (
	StorageDriverCloudinary = "cloudinary"
	StorageDriverLocal      = "local"
)

// DefaultTaskTemplates is the checklist seeded for every new client.
var DefaultTaskTemplates = onboarding.DefaultTaskTitles

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	StorageDriver          string
	StorageLocalPath       string
	StoragePublicBaseURL   string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxSizeBytes     int64
	DashboardCacheTTL      time.Duration
	ClientLockTTL          time.Duration
	NotificationChannel    string
	TaskTemplates          []string
	RateLimitMax           int
	RateLimitWindow        time.Duration
	CORSAllowedOrigins     []string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ONBOARDING")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Onboarding Portal API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("storage.driver", StorageDriverLocal)
	v.SetDefault("storage.local_path", "./data/uploads")
	v.SetDefault("storage.public_base_url", "/files")
	v.SetDefault("cloudinary.folder", "onboarding/documents")
	v.SetDefault("upload.max_size_mb", 25)
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("client_lock.ttl", "10s")
	v.SetDefault("notification.channel", "onboarding")
	v.SetDefault("task.templates", strings.Join(DefaultTaskTemplates, ","))
	v.SetDefault("rate_limit.max", 60)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("cors.allowed_origins", "*")

	cacheTTL, err := parseDuration(v, "dashboard.cache_ttl", 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	lockTTL, err := parseDuration(v, "client_lock.ttl", 10*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid client lock ttl: %w", err)
	}

	window, err := parseDuration(v, "rate_limit.window", time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	maxSizeMB := v.GetInt("upload.max_size_mb")
	if maxSizeMB <= 0 {
		maxSizeMB = 25
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		StorageDriver:          strings.ToLower(strings.TrimSpace(v.GetString("storage.driver"))),
		StorageLocalPath:       v.GetString("storage.local_path"),
		StoragePublicBaseURL:   v.GetString("storage.public_base_url"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxSizeBytes:     int64(maxSizeMB) << 20,
		DashboardCacheTTL:      cacheTTL,
		ClientLockTTL:          lockTTL,
		NotificationChannel:    v.GetString("notification.channel"),
		TaskTemplates:          splitList(v.GetString("task.templates")),
		RateLimitMax:           v.GetInt("rate_limit.max"),
		RateLimitWindow:        window,
		CORSAllowedOrigins:     splitList(v.GetString("cors.allowed_origins")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.StorageDriver {
	case StorageDriverLocal:
	case StorageDriverCloudinary:
		if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
			return Config{}, fmt.Errorf("cloudinary storage requires cloud name, api key and api secret")
		}
	default:
		return Config{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if len(cfg.TaskTemplates) == 0 {
		cfg.TaskTemplates = append([]string(nil), DefaultTaskTemplates...)
	}

	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 60
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

func splitList(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
