package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Logging     LoggingConfig
	Storage     StorageConfig
	Diffusion   DiffusionConfig
	Offline     OfflineConfig
	Replicate   ReplicateConfig
	HuggingFace HuggingFaceConfig `mapstructure:"hf"`
	OpenAI      OpenAIConfig
	Detector    DetectorConfig
	Catalog     CatalogConfig
	Vendors     VendorsConfig
	Budget      BudgetConfig
	Cache       CacheConfig
	RateLimit   RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	PublicBaseURL  string   `mapstructure:"public_base_url"` // prefix for returned image URLs
	MaxUploadMB    int      `mapstructure:"max_upload_mb"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// StorageConfig holds local image storage paths
type StorageConfig struct {
	UploadsDir   string `mapstructure:"uploads_dir"`
	GeneratedDir string `mapstructure:"generated_dir"`
}

// DiffusionConfig holds image-to-image generation parameters shared by all providers
type DiffusionConfig struct {
	Model          string  `mapstructure:"model"`
	Width          int     `mapstructure:"width"`
	Height         int     `mapstructure:"height"`
	Steps          int     `mapstructure:"steps"`
	GuidanceScale  float64 `mapstructure:"guidance_scale"`
	Strength       float64 `mapstructure:"strength"`
	PromptTemplate string  `mapstructure:"prompt_template"`
	NegativePrompt string  `mapstructure:"negative_prompt"`
}

// OfflineConfig points at the local inference runtime
type OfflineConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ReplicateConfig holds Replicate API configuration
type ReplicateConfig struct {
	APIToken     string        `mapstructure:"api_token"`
	BaseURL      string        `mapstructure:"base_url"`
	ModelVersion string        `mapstructure:"model_version"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// HuggingFaceConfig holds Hugging Face Inference API configuration
type HuggingFaceConfig struct {
	APIToken string        `mapstructure:"api_token"`
	BaseURL  string        `mapstructure:"base_url"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// OpenAIConfig holds OpenAI image edit configuration
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Size    string `mapstructure:"size"`
}

// DetectorConfig holds object detector configuration
type DetectorConfig struct {
	BaseURL             string            `mapstructure:"base_url"`
	Model               string            `mapstructure:"model"`
	ConfidenceThreshold float64           `mapstructure:"confidence_threshold"`
	Timeout             time.Duration     `mapstructure:"timeout"`
	Labels              map[string]string `mapstructure:"labels"` // detector label -> catalog category
}

// CatalogConfig holds furniture catalog configuration
type CatalogConfig struct {
	Source         string `mapstructure:"source"` // "file" or "postgres"
	Path           string `mapstructure:"path"`
	PostgresDSN    string `mapstructure:"postgres_dsn"`
	MaxPerCategory int    `mapstructure:"max_per_category"`
}

// VendorsConfig holds vendor directory configuration
type VendorsConfig struct {
	Path string `mapstructure:"path"` // empty uses the built-in directory
}

// BudgetConfig holds the style price table used for cost estimation
type BudgetConfig struct {
	StyleCosts  map[string]int64 `mapstructure:"style_costs"`
	DefaultCost int64            `mapstructure:"default_cost"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration, in requests per minute
type RateLimitConfig struct {
	PerIP    int `mapstructure:"per_ip"`
	Provider int `mapstructure:"provider"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/decorlens/")

	// Environment variable settings
	v.SetEnvPrefix("DECORLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile exports KEY=VALUE pairs from ./.env into the process
// environment. Variables that are already set are left untouched.
func loadEnvFile() error {
	if err := gotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
	})
	v.SetDefault("server.public_base_url", "http://localhost:8000")
	v.SetDefault("server.max_upload_mb", 20)

	v.SetDefault("logging.level", "info")

	// Storage defaults
	v.SetDefault("storage.uploads_dir", "storage/uploads")
	v.SetDefault("storage.generated_dir", "storage/generated")

	// Diffusion defaults
	v.SetDefault("diffusion.model", "runwayml/stable-diffusion-v1-5")
	v.SetDefault("diffusion.width", 512)
	v.SetDefault("diffusion.height", 512)
	v.SetDefault("diffusion.steps", 30)
	v.SetDefault("diffusion.guidance_scale", 7.5)
	v.SetDefault("diffusion.strength", 0.65)
	v.SetDefault("diffusion.prompt_template",
		"photorealistic {room_type} interior redesign, {style} style, "+
			"realistic lighting, high detail, wide angle, interior design render")
	v.SetDefault("diffusion.negative_prompt",
		"low quality, distorted, blurry, cartoon, sketch, deformed, "+
			"bad anatomy, disfigured, poorly drawn, extra limbs")

	// Provider defaults
	v.SetDefault("offline.base_url", "http://localhost:7860")
	v.SetDefault("offline.timeout", "10m")

	v.SetDefault("replicate.api_token", "")
	v.SetDefault("replicate.base_url", "https://api.replicate.com")
	v.SetDefault("replicate.model_version", "15a3689ee13b0d2616e98820eca31d4c3abcd36672df6afce5cb6feb1d66087d")
	v.SetDefault("replicate.timeout", "5m")

	v.SetDefault("hf.api_token", "")
	v.SetDefault("hf.base_url", "https://api-inference.huggingface.co")
	v.SetDefault("hf.model", "stabilityai/stable-diffusion-xl-refiner-1.0")
	v.SetDefault("hf.timeout", "5m")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "dall-e-2")
	v.SetDefault("openai.size", "512x512")

	// Detector defaults
	v.SetDefault("detector.base_url", "http://localhost:7860")
	v.SetDefault("detector.model", "yolov8n.pt")
	v.SetDefault("detector.confidence_threshold", 0.4)
	v.SetDefault("detector.timeout", "2m")

	// Catalog defaults
	v.SetDefault("catalog.source", "file")
	v.SetDefault("catalog.path", "data/furniture_catalog.json")
	v.SetDefault("catalog.postgres_dsn", "")
	v.SetDefault("catalog.max_per_category", 3)

	v.SetDefault("vendors.path", "")

	// Budget defaults
	v.SetDefault("budget.style_costs", map[string]int64{
		"minimalist":   150000,
		"modern":       250000,
		"vintage":      200000,
		"professional": 300000,
	})
	v.SetDefault("budget.default_cost", 200000)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.provider", 60)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative, got: %s", config.Cache.TTL)
	}

	if config.Catalog.Source != "file" && config.Catalog.Source != "postgres" {
		return fmt.Errorf("catalog source must be 'file' or 'postgres', got: %s", config.Catalog.Source)
	}

	if config.Catalog.Source == "postgres" && config.Catalog.PostgresDSN == "" {
		return fmt.Errorf("postgres DSN is required when catalog source is 'postgres' (set DECORLENS_CATALOG_POSTGRES_DSN)")
	}

	if config.Catalog.MaxPerCategory <= 0 {
		return fmt.Errorf("catalog max_per_category must be positive, got: %d", config.Catalog.MaxPerCategory)
	}

	if config.Detector.ConfidenceThreshold < 0 || config.Detector.ConfidenceThreshold > 1 {
		return fmt.Errorf("detector confidence threshold must be within [0, 1], got: %v", config.Detector.ConfidenceThreshold)
	}

	if config.Diffusion.Strength <= 0 || config.Diffusion.Strength > 1 {
		return fmt.Errorf("diffusion strength must be within (0, 1], got: %v", config.Diffusion.Strength)
	}

	if config.Diffusion.Width <= 0 || config.Diffusion.Height <= 0 {
		return fmt.Errorf("diffusion image size must be positive, got: %dx%d", config.Diffusion.Width, config.Diffusion.Height)
	}

	return nil
}
