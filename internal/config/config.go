package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Service  ServiceConfig  `json:"service"`
	Storage  StorageConfig  `json:"storage"`
	Auth     AuthConfig     `json:"auth"`
	Branding BrandingConfig `json:"branding"`
	Worker   WorkerConfig   `json:"worker"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	URL            string        `json:"url"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
}

// ServiceConfig holds the privileged service credential used for
// internal service-to-service calls.
type ServiceConfig struct {
	APIKey string `json:"api_key"`
}

// StorageConfig represents object storage configuration
type StorageConfig struct {
	Endpoint        string        `json:"endpoint"`
	Region          string        `json:"region"`
	AccessKeyID     string        `json:"access_key_id"`
	SecretAccessKey string        `json:"secret_access_key"`
	Bucket          string        `json:"bucket"`
	UsePathStyle    bool          `json:"use_path_style"`
	PresignTTL      time.Duration `json:"presign_ttl"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

// BrandingConfig represents document branding configuration
type BrandingConfig struct {
	OrgName string `json:"org_name"`
}

// WorkerConfig represents background worker configuration
type WorkerConfig struct {
	ReconcileSchedule string `json:"reconcile_schedule"`
	BatchSize         int    `json:"batch_size"`
	Concurrency       int    `json:"concurrency"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			MaxConnections: 10,
			MaxIdleConns:   5,
			MaxLifetime:    30 * time.Minute,
		},
		Storage: StorageConfig{
			Region:       "us-east-1",
			Bucket:       "minute_book",
			UsePathStyle: true,
			PresignTTL:   15 * time.Minute,
		},
		Branding: BrandingConfig{
			OrgName: "Quorum Ops",
		},
		Worker: WorkerConfig{
			ReconcileSchedule: "*/5 * * * *",
			BatchSize:         50,
			Concurrency:       4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		config.Database.URL = url
	}
	if key := os.Getenv("SERVICE_API_KEY"); key != "" {
		config.Service.APIKey = key
	}
	if endpoint := os.Getenv("STORAGE_ENDPOINT"); endpoint != "" {
		config.Storage.Endpoint = endpoint
	}
	if region := os.Getenv("STORAGE_REGION"); region != "" {
		config.Storage.Region = region
	}
	if accessKey := os.Getenv("STORAGE_ACCESS_KEY_ID"); accessKey != "" {
		config.Storage.AccessKeyID = accessKey
	}
	if secretKey := os.Getenv("STORAGE_SECRET_ACCESS_KEY"); secretKey != "" {
		config.Storage.SecretAccessKey = secretKey
	}
	if bucket := os.Getenv("STORAGE_BUCKET"); bucket != "" {
		config.Storage.Bucket = bucket
	}
	if ttl := os.Getenv("STORAGE_PRESIGN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Storage.PresignTTL = d
		}
	}
	if secret := os.Getenv("AUTH_JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	if org := os.Getenv("BRAND_ORG_NAME"); org != "" {
		config.Branding.OrgName = org
	}
	if schedule := os.Getenv("RECONCILE_SCHEDULE"); schedule != "" {
		config.Worker.ReconcileSchedule = schedule
	}
	if batch := os.Getenv("RECONCILE_BATCH_SIZE"); batch != "" {
		if n, err := strconv.Atoi(batch); err == nil && n > 0 {
			config.Worker.BatchSize = n
		}
	}
	if conc := os.Getenv("RECONCILE_CONCURRENCY"); conc != "" {
		if n, err := strconv.Atoi(conc); err == nil && n > 0 {
			config.Worker.Concurrency = n
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// Validate checks that required settings are present. The service
// refuses to start without a database URL and the service credential.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Service.APIKey == "" {
		return fmt.Errorf("SERVICE_API_KEY is required")
	}
	return nil
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
