// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultBaseURL = "http://localhost:8000/api/v1"

// Load reads config.yaml, then config.<env>.yaml, then environment
// variables (API_BASE_URL overrides api.base_url).
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.AddConfigPath(userConfigDir())
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	cfg, err := finish(v)
	if err != nil {
		return nil, err
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = env
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	return v
}

// AutomaticEnv only resolves keys viper already knows about, so the
// env-only keys are bound explicitly.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"app.environment",
		"api.base_url",
		"api.timeout_ms",
		"session.store",
		"session.file_path",
		"session.key_prefix",
		"session.redis.address",
		"session.redis.password",
		"session.redis.db",
		"financing.fee_percentage",
		"financing.mock_payments_enabled",
		"financing.return_base_url",
		"notifications.poll_schedule",
		"relay.listen_address",
		"relay.backend_url",
		"relay.rate_limit_rps",
		"relay.rate_limit_burst",
		"metrics.enabled",
		"metrics.address",
		"logging.level",
		"logging.format",
		"logging.output",
	} {
		_ = v.BindEnv(key)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func userConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "nova")
}

// DefaultTokenFile is where the file session store keeps tokens.
func DefaultTokenFile() string {
	return filepath.Join(userConfigDir(), "session.json")
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "nova"
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	cfg.API.BaseURL = strings.TrimSuffix(cfg.API.BaseURL, "/")
	if cfg.API.TimeoutMs == 0 {
		cfg.API.TimeoutMs = 30000
	}

	if cfg.Session.Store == "" {
		cfg.Session.Store = "file"
	}
	if cfg.Session.FilePath == "" {
		cfg.Session.FilePath = DefaultTokenFile()
	}
	if cfg.Session.KeyPrefix == "" {
		cfg.Session.KeyPrefix = "nova:session"
	}

	if cfg.Financing.FeePercentage == 0 {
		cfg.Financing.FeePercentage = 4.0
	}
	if cfg.Financing.MinFeePercentage == 0 {
		cfg.Financing.MinFeePercentage = 3.0
	}
	if cfg.Financing.MaxFeePercentage == 0 {
		cfg.Financing.MaxFeePercentage = 5.0
	}
	if cfg.Financing.MinAmount == 0 {
		cfg.Financing.MinAmount = 500
	}
	if cfg.Financing.MaxAmount == 0 {
		cfg.Financing.MaxAmount = 100000
	}
	if cfg.Financing.MinPeriodMonths == 0 {
		cfg.Financing.MinPeriodMonths = 6
	}
	if cfg.Financing.MaxPeriodMonths == 0 {
		cfg.Financing.MaxPeriodMonths = 36
	}
	if cfg.Financing.ReturnBaseURL == "" {
		cfg.Financing.ReturnBaseURL = "http://localhost:3000"
	}

	if cfg.Notifications.PollSchedule == "" {
		cfg.Notifications.PollSchedule = "@every 30s"
	}

	if cfg.Relay.ListenAddress == "" {
		cfg.Relay.ListenAddress = ":8080"
	}
	if cfg.Relay.BackendURL == "" {
		cfg.Relay.BackendURL = cfg.API.BaseURL
	}
	cfg.Relay.BackendURL = strings.TrimSuffix(cfg.Relay.BackendURL, "/")
	if cfg.Relay.TimeoutMs == 0 {
		cfg.Relay.TimeoutMs = 15000
	}
	if cfg.Relay.RateLimitRPS > 0 && cfg.Relay.RateLimitBurst == 0 {
		cfg.Relay.RateLimitBurst = int(cfg.Relay.RateLimitRPS) + 1
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	if !strings.HasPrefix(cfg.API.BaseURL, "http://") && !strings.HasPrefix(cfg.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", cfg.API.BaseURL)
	}

	switch cfg.Session.Store {
	case "file", "memory":
	case "redis":
		if cfg.Session.Redis.Address == "" {
			return fmt.Errorf("session.redis.address is required when session.store is redis")
		}
	default:
		return fmt.Errorf("session.store must be one of file, redis, memory, got %q", cfg.Session.Store)
	}

	f := cfg.Financing
	if f.FeePercentage < f.MinFeePercentage || f.FeePercentage > f.MaxFeePercentage {
		return fmt.Errorf("financing.fee_percentage must be within [%.1f, %.1f]", f.MinFeePercentage, f.MaxFeePercentage)
	}
	if f.MinAmount > f.MaxAmount {
		return fmt.Errorf("financing.min_amount exceeds financing.max_amount")
	}
	if f.MinPeriodMonths > f.MaxPeriodMonths {
		return fmt.Errorf("financing.min_period_months exceeds financing.max_period_months")
	}

	if cfg.App.IsProduction() && f.MockPaymentsEnabled {
		return fmt.Errorf("financing.mock_payments_enabled cannot be set in production")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
