// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Database DatabaseConfig `mapstructure:"database"`
	Push     PushConfig     `mapstructure:"push"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// BackendConfig points at the order backend REST API. The backend itself is
// a black box; only the endpoints listed in the client are consumed.
type BackendConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Identity       string `mapstructure:"identity"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

func (b BackendConfig) Timeout() time.Duration {
	if b.RequestTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(b.RequestTimeout) * time.Millisecond
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Push Channel Configuration ---

// PushConfig holds settings for the notification channel and token sync.
// WorkerScript and VAPIDPublicKey are stable contracts: changing them breaks
// token issuance for existing web installs.
type PushConfig struct {
	Platform        string `mapstructure:"platform"` // web | ios | android
	IsAdmin         bool   `mapstructure:"is_admin"`
	WorkerScript    string `mapstructure:"worker_script"`
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	ExchangeDelay   int    `mapstructure:"exchange_delay"`   // milliseconds
	RegisterTimeout int    `mapstructure:"register_timeout"` // milliseconds

	// DeviceToken is the provisioned device token on kiosk installs, where
	// no interactive OS registration round trip exists.
	DeviceToken string `mapstructure:"device_token"`

	AWS AWSConfig `mapstructure:"aws"`
}

// AWSConfig carries the SNS platform application ARNs used for the native
// delivery-token exchange.
type AWSConfig struct {
	Region            string `mapstructure:"region"`
	PlatformAppARN    string `mapstructure:"platform_app_arn"`
	PlatformAppARNiOS string `mapstructure:"platform_app_arn_ios"`
}

func (p PushConfig) ExchangeDelayDuration() time.Duration {
	if p.ExchangeDelay <= 0 {
		return 2 * time.Second
	}
	return time.Duration(p.ExchangeDelay) * time.Millisecond
}

func (p PushConfig) RegisterTimeoutDuration() time.Duration {
	if p.RegisterTimeout <= 0 {
		return 15 * time.Second
	}
	return time.Duration(p.RegisterTimeout) * time.Millisecond
}

// --- Feed / Alerts Configuration ---

// FeedConfig holds the poller settings.
type FeedConfig struct {
	Interval   int `mapstructure:"interval"`    // milliseconds between ticks
	FetchLimit int `mapstructure:"fetch_limit"` // max orders per fetch, 0 = backend default
}

func (f FeedConfig) IntervalDuration() time.Duration {
	if f.Interval <= 0 {
		return 30 * time.Second
	}
	return time.Duration(f.Interval) * time.Millisecond
}

type AlertsConfig struct {
	SoundFile string `mapstructure:"sound_file"`
	Muted     bool   `mapstructure:"muted"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}
