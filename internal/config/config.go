package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"rxtrack-backend/internal/models"

	"gopkg.in/yaml.v3"
)

// Submission backends
const (
	SubmissionSimulated = "simulated"
	SubmissionS3        = "s3"
)

// DefaultJWTSecret signs tokens when no secret is configured. Anyone can
// forge sessions with it.
const DefaultJWTSecret = "change-me"

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Auth        AuthConfig        `yaml:"auth"`
	Submission  SubmissionConfig  `yaml:"submission"`
	AWS         AWSConfig         `yaml:"aws"`
	APNs        APNsConfig        `yaml:"apns"`
	Delivery    DeliveryConfig    `yaml:"delivery"`
	Integration IntegrationConfig `yaml:"integration"`
	Log         LogConfig         `yaml:"log"`
	Pharmacies  []models.Pharmacy `yaml:"pharmacies"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	Host            string        `yaml:"host"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// AuthConfig holds session token configuration
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// SubmissionConfig selects where uploaded images go
type SubmissionConfig struct {
	Backend      string        `yaml:"backend"`
	Delay        time.Duration `yaml:"delay"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxImageSize int64         `yaml:"max_image_size"`
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"` // S3-compatible stores
}

// APNsConfig holds Apple push configuration
type APNsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CertificatePath string `yaml:"certificate_path"`
	Password        string `yaml:"password"`
	Topic           string `yaml:"topic"`
	Production      bool   `yaml:"production"`
}

// DeliveryConfig holds delivery estimate configuration
type DeliveryConfig struct {
	LeadTime time.Duration `yaml:"lead_time"`
}

// IntegrationConfig guards the pharmacy-side status routes
type IntegrationConfig struct {
	APIKey string `yaml:"api_key"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Auth: AuthConfig{
			JWTSecret: DefaultJWTSecret,
			TokenTTL:  365 * 24 * time.Hour,
		},
		Submission: SubmissionConfig{
			Backend:      SubmissionSimulated,
			Delay:        1500 * time.Millisecond,
			Timeout:      10 * time.Second,
			MaxImageSize: 5 << 20,
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		Delivery: DeliveryConfig{
			LeadTime: 48 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file on top of Default. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks for settings the server cannot start with
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	switch c.Submission.Backend {
	case SubmissionSimulated:
	case SubmissionS3:
		if c.AWS.S3Bucket == "" {
			return fmt.Errorf("aws.s3_bucket is required for the s3 submission backend")
		}
	default:
		return fmt.Errorf("unknown submission backend %q", c.Submission.Backend)
	}

	if c.Submission.MaxImageSize <= 0 {
		return fmt.Errorf("submission.max_image_size must be positive")
	}

	if c.APNs.Enabled && (c.APNs.CertificatePath == "" || c.APNs.Topic == "") {
		return fmt.Errorf("apns.certificate_path and apns.topic are required when apns is enabled")
	}

	seen := make(map[string]bool, len(c.Pharmacies))
	for _, p := range c.Pharmacies {
		if p.ID == "" || p.Name == "" {
			return fmt.Errorf("pharmacy entries need an id and a name")
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate pharmacy id %q", p.ID)
		}
		seen[p.ID] = true
	}

	return nil
}

// UsesDefaultJWTSecret reports whether tokens are signed with the built-in
// secret
func (c *AuthConfig) UsesDefaultJWTSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
