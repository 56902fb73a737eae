package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Model    ModelConfig    `mapstructure:"model"`
	Classify ClassifyConfig `mapstructure:"classify"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// ModelConfig points at the external classification model service.
type ModelConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxLength      int    `mapstructure:"max_length"`
}

// Timeout returns the per-chunk request timeout as a duration.
func (m ModelConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// ClassifyConfig controls batching and summary aggregation.
type ClassifyConfig struct {
	BatchSize  int      `mapstructure:"batch_size"`
	Threshold  float64  `mapstructure:"threshold"`
	Categories []string `mapstructure:"categories"`
}

type UploadConfig struct {
	MaxSizeMB int64 `mapstructure:"max_size_mb"`
}

// MaxSizeBytes returns the upload size cap in bytes.
func (u UploadConfig) MaxSizeBytes() int64 {
	return u.MaxSizeMB * 1024 * 1024
}

// StorageConfig selects where transient uploads live until the job
// controller deletes them.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // local, s3
	Dir       string `mapstructure:"dir"`  // local only
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
}

// DatabaseConfig selects the job store backend. The memory driver is the
// default; sqlite and postgres persist jobs through GORM.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // memory, sqlite, postgres
	Path            string        `mapstructure:"path"`   // sqlite only
	DSN             string        `mapstructure:"dsn"`    // postgres only
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", false)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:3001"})
	v.SetDefault("model.base_url", "http://localhost:8080")
	v.SetDefault("model.timeout_seconds", 120)
	v.SetDefault("model.max_length", 512)
	v.SetDefault("classify.batch_size", 32)
	v.SetDefault("classify.threshold", 0.5)
	v.SetDefault("classify.categories", []string{"neurological", "cardiovascular", "hepatorenal", "oncological"})
	v.SetDefault("upload.max_size_mb", 50)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.dir", "./uploads")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.bucket", "paperclass-uploads")
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.path", "./data/jobs.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for deployment-sensitive values
	v.BindEnv("model.base_url", "MODEL_URL")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.dsn", "DATABASE_DSN")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
