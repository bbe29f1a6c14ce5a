// Package config loads the application configuration from a YAML file.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config mirrors the structure of config.yaml. It is loaded once in main and
// handed to constructors; nothing reads it as an ambient global.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MLServer MLServerConfig `mapstructure:"ml_server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Drive    DriveConfig    `mapstructure:"drive"`
	Extract  ExtractConfig  `mapstructure:"extract"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port            string   `mapstructure:"port"`
	Mode            string   `mapstructure:"mode"`
	FrontendOrigins []string `mapstructure:"frontend_origins"`
}

// DatabaseConfig groups the backing-store connections.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig holds the Postgres DSN. The database must have the pgvector
// extension installed; chunk embeddings live in a vector(768) column.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig holds the token-signing settings.
type JWTConfig struct {
	Secret         string `mapstructure:"secret"`
	ExpireHours    int    `mapstructure:"expire_hours"`
	CallbackAPIKey string `mapstructure:"callback_api_key"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig holds the ingestion task topic settings.
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// MLServerConfig holds the remote compute service settings. The service runs
// on a serverless platform and may need to be woken before expensive calls.
type MLServerConfig struct {
	BaseURL             string        `mapstructure:"base_url"`
	APIKey              string        `mapstructure:"api_key"`
	HealthTimeout       time.Duration `mapstructure:"health_timeout"`
	AnalyzeS3Timeout    time.Duration `mapstructure:"analyze_s3_timeout"`
	AnalyzeDriveTimeout time.Duration `mapstructure:"analyze_drive_timeout"`
	VectorTimeout       time.Duration `mapstructure:"vector_timeout"`
	GenerateTimeout     time.Duration `mapstructure:"generate_timeout"`
	WakeMaxRetries      int           `mapstructure:"wake_max_retries"`
	WakeRetryDelay      time.Duration `mapstructure:"wake_retry_delay"`
}

// StorageConfig holds the S3-compatible object store settings.
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// DriveConfig holds the cloud-drive listing settings.
type DriveConfig struct {
	BaseURL          string   `mapstructure:"base_url"`
	AllowedMimeTypes []string `mapstructure:"allowed_mime_types"`
}

// ExtractConfig holds the text-extraction sidecar settings.
type ExtractConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// ChatConfig holds retrieval and conversation settings.
type ChatConfig struct {
	TopK          int `mapstructure:"top_k"`
	TitleMaxChars int `mapstructure:"title_max_chars"`
}

// PipelineConfig holds background-processing settings.
type PipelineConfig struct {
	DrivePoolSize    int           `mapstructure:"drive_pool_size"`
	StuckAfter       time.Duration `mapstructure:"stuck_after"`
	ReaperInterval   time.Duration `mapstructure:"reaper_interval"`
	DeleteAfterwards bool          `mapstructure:"delete_s3_after_processing"`
}

// Load reads and parses the YAML file at configPath.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MLServer.HealthTimeout == 0 {
		c.MLServer.HealthTimeout = 10 * time.Second
	}
	if c.MLServer.AnalyzeS3Timeout == 0 {
		c.MLServer.AnalyzeS3Timeout = 120 * time.Second
	}
	if c.MLServer.AnalyzeDriveTimeout == 0 {
		c.MLServer.AnalyzeDriveTimeout = 180 * time.Second
	}
	if c.MLServer.VectorTimeout == 0 {
		c.MLServer.VectorTimeout = 20 * time.Second
	}
	if c.MLServer.GenerateTimeout == 0 {
		c.MLServer.GenerateTimeout = 90 * time.Second
	}
	if c.MLServer.WakeMaxRetries == 0 {
		c.MLServer.WakeMaxRetries = 12
	}
	if c.MLServer.WakeRetryDelay == 0 {
		c.MLServer.WakeRetryDelay = 10 * time.Second
	}
	if c.Drive.BaseURL == "" {
		c.Drive.BaseURL = "https://www.googleapis.com/drive/v3"
	}
	if c.Chat.TopK == 0 {
		c.Chat.TopK = 5
	}
	if c.Chat.TitleMaxChars == 0 {
		c.Chat.TitleMaxChars = 30
	}
	if c.Pipeline.DrivePoolSize == 0 {
		c.Pipeline.DrivePoolSize = 4
	}
	if c.Pipeline.StuckAfter == 0 {
		c.Pipeline.StuckAfter = 30 * time.Minute
	}
	if c.Pipeline.ReaperInterval == 0 {
		c.Pipeline.ReaperInterval = 5 * time.Minute
	}
}
