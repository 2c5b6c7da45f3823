package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	Storage  StorageConfig
	SMTP     SMTPConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration for the realtime change feed
type RedisConfig struct {
	URL     string
	Enabled bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          int
	Host          string
	SiteURL       string
	SessionSecret string
}

// StorageConfig holds object storage (MinIO) configuration
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string // 对外可访问的文件基础地址
	Enabled   bool
}

// SMTPConfig holds outgoing mail configuration
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix("INKWELL")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/inkwell")

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found; this is OK if we have env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL: viper.GetString("database_url"),
		},
		Redis: RedisConfig{
			URL:     viper.GetString("redis_url"),
			Enabled: viper.GetString("redis_url") != "",
		},
		Server: ServerConfig{
			Port:          viper.GetInt("http_server_port"),
			Host:          viper.GetString("http_server_host"),
			SiteURL:       viper.GetString("site_url"),
			SessionSecret: viper.GetString("session_secret"),
		},
		Storage: StorageConfig{
			Endpoint:  viper.GetString("storage_endpoint"),
			AccessKey: viper.GetString("storage_access_key"),
			SecretKey: viper.GetString("storage_secret_key"),
			Bucket:    viper.GetString("storage_bucket"),
			UseSSL:    viper.GetBool("storage_use_ssl"),
			PublicURL: viper.GetString("storage_public_url"),
			Enabled:   viper.GetString("storage_endpoint") != "",
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("smtp_host"),
			Port:     viper.GetString("smtp_port"),
			Username: viper.GetString("smtp_user"),
			Password: viper.GetString("smtp_pass"),
			From:     viper.GetString("smtp_from"),
		},
		Logging: LoggingConfig{
			Level:  viper.GetString("log_level"),
			Format: viper.GetString("log_format"),
		},
	}
	cfg.SMTP.Enabled = cfg.SMTP.Host != "" && cfg.SMTP.Port != "" && cfg.SMTP.From != ""

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("database_url", "host=localhost user=postgres password=postgres dbname=inkwell port=5432 sslmode=disable")
	viper.SetDefault("http_server_port", 8080)
	viper.SetDefault("http_server_host", "0.0.0.0")
	viper.SetDefault("site_url", "http://localhost:8080")
	viper.SetDefault("session_secret", "secret_key_change_me")
	viper.SetDefault("storage_bucket", "inkwell")
	viper.SetDefault("log_level", "INFO")
	viper.SetDefault("log_format", "text")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("http_server_port must be a valid port")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage_bucket is required when storage is configured")
	}
	return nil
}
