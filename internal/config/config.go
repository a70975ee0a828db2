package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Delivery DeliveryConfig `mapstructure:"delivery"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	LogLevel string         `mapstructure:"log_level"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// DeliveryConfig holds webhook delivery configuration
type DeliveryConfig struct {
	WebhookTimeout time.Duration `mapstructure:"webhook_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// SMTPConfig holds the relay used for forward deliveries
type SMTPConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Sender   string        `mapstructure:"sender"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MetricsConfig holds metrics refresh configuration
type MetricsConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	viper.AutomaticEnv()
	bindEnvVars()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)

	viper.SetDefault("delivery.webhook_timeout", "10s")
	viper.SetDefault("delivery.user_agent", "mail-routing-engine/1.0")

	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.timeout", "30s")

	viper.SetDefault("metrics.refresh_interval", "1m")

	viper.SetDefault("log_level", "info")
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	// Database
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")

	// Delivery
	viper.BindEnv("delivery.webhook_timeout", "DELIVERY_WEBHOOK_TIMEOUT")
	viper.BindEnv("delivery.user_agent", "DELIVERY_USER_AGENT")

	// SMTP relay
	viper.BindEnv("smtp.host", "SMTP_HOST")
	viper.BindEnv("smtp.port", "SMTP_PORT")
	viper.BindEnv("smtp.user", "SMTP_USER")
	viper.BindEnv("smtp.password", "SMTP_PASSWORD")
	viper.BindEnv("smtp.sender", "SMTP_SENDER")
	viper.BindEnv("smtp.timeout", "SMTP_TIMEOUT")

	// Metrics
	viper.BindEnv("metrics.refresh_interval", "METRICS_REFRESH_INTERVAL")

	viper.BindEnv("log_level", "LOG_LEVEL")
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host, user, and dbname are required")
	}

	if c.Delivery.WebhookTimeout <= 0 {
		return fmt.Errorf("webhook timeout must be greater than 0")
	}

	if c.SMTP.Host == "" || c.SMTP.Sender == "" {
		return fmt.Errorf("smtp host and sender are required")
	}

	if c.Metrics.RefreshInterval <= 0 {
		return fmt.Errorf("metrics refresh interval must be greater than 0")
	}

	return nil
}
