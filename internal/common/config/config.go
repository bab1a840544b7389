// internal/common/config/config.go
package config

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	API           APIConfig           `mapstructure:"api"`
	Session       SessionConfig       `mapstructure:"session"`
	Financing     FinancingConfig     `mapstructure:"financing"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Relay         RelayConfig         `mapstructure:"relay"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// IsProduction gates development-only shortcuts such as mock fee payment.
func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// APIConfig points the client at the backend REST API.
type APIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

func (a APIConfig) Timeout() time.Duration {
	return GetDuration(a.TimeoutMs)
}

// SessionConfig selects where access/refresh tokens are persisted.
type SessionConfig struct {
	Store     string      `mapstructure:"store"` // file | redis | memory
	FilePath  string      `mapstructure:"file_path"`
	KeyPrefix string      `mapstructure:"key_prefix"`
	Redis     RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// FinancingConfig drives the local calculator preview and the apply form
// bounds. The backend recomputes everything on submission.
type FinancingConfig struct {
	FeePercentage       float64 `mapstructure:"fee_percentage"`
	MinFeePercentage    float64 `mapstructure:"min_fee_percentage"`
	MaxFeePercentage    float64 `mapstructure:"max_fee_percentage"`
	MinAmount           float64 `mapstructure:"min_amount"`
	MaxAmount           float64 `mapstructure:"max_amount"`
	MinPeriodMonths     int     `mapstructure:"min_period_months"`
	MaxPeriodMonths     int     `mapstructure:"max_period_months"`
	MockPaymentsEnabled bool    `mapstructure:"mock_payments_enabled"`
	ReturnBaseURL       string  `mapstructure:"return_base_url"`
}

func (f FinancingConfig) Fee() decimal.Decimal {
	return decimal.NewFromFloat(f.FeePercentage)
}

type NotificationsConfig struct {
	PollSchedule string `mapstructure:"poll_schedule"`
}

// RelayConfig configures the inbound webhook relay server.
type RelayConfig struct {
	ListenAddress  string  `mapstructure:"listen_address"`
	BackendURL     string  `mapstructure:"backend_url"`
	TimeoutMs      int     `mapstructure:"timeout_ms"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
