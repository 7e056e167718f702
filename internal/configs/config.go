package configs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Name     string `yaml:"name"`
		Env      string `yaml:"env"`
		Origin   string `yaml:"origin"`
		Timezone string `yaml:"timezone"`
	} `yaml:"app"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	DB DatabaseConfig `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"redis_addr"`
		Password string `yaml:"redis_password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	JWT struct {
		Secret     string        `yaml:"secret"`
		Issuer     string        `yaml:"issuer"`
		AccessTTL  time.Duration `yaml:"access_ttl"`
		RefreshTTL time.Duration `yaml:"refresh_ttl"`
	} `yaml:"jwt"`

	Mail MailConfig `yaml:"mail"`

	Messaging struct {
		Provider      string `yaml:"provider"`
		APIURL        string `yaml:"api_url"`
		PhoneNumberID string `yaml:"phone_number_id"`
		AccessToken   string `yaml:"access_token"`
		Async         bool   `yaml:"async"`
	} `yaml:"messaging"`

	Logging LoggingConfig `yaml:"logging"`

	Auth struct {
		MaxLoginAttempts  int           `yaml:"max_login_attempts"`
		LockoutWindow     time.Duration `yaml:"lockout_window"`
		VerificationTTL   time.Duration `yaml:"verification_ttl"`
		ResetTTL          time.Duration `yaml:"reset_ttl"`
		MinPasswordLength int           `yaml:"min_password_length"`
	} `yaml:"auth"`

	MockTest struct {
		Duration       time.Duration `yaml:"duration"`
		WarningDisplay time.Duration `yaml:"warning_display"`
		Retention      time.Duration `yaml:"retention"`
		MaxPerUser     int           `yaml:"max_sessions_per_user"`
	} `yaml:"mocktest"`

	Cache struct {
		ProfileTTL time.Duration `yaml:"profile_ttl"`
		MaxCost    int64         `yaml:"max_cost"`
	} `yaml:"cache"`
}

type DatabaseConfig struct {
	Driver  string `yaml:"driver"`
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"`
}

type MailConfig struct {
	Provider       string `yaml:"provider"`
	SenderEmail    string `yaml:"sender_email"`
	SMTPHost       string `yaml:"smtp_host"`
	SMTPPort       string `yaml:"smtp_port"`
	SMTPUsername   string `yaml:"smtp_username"`
	SMTPPassword   string `yaml:"smtp_password"`
	ResendAPIKey   string `yaml:"resend_api_key"`
	SendgridAPIKey string `yaml:"sendgrid_api_key"`
}

type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	OutputPath   string `yaml:"output_path"`
	RollbarToken string `yaml:"rollbar_token"`
}

// Load reads internal/configs/dev.yml, or prod.yml when env is "production".
// CONFIG_PATH points at a different file.
func Load(env string) (*Config, error) {
	configFile := "dev.yml"
	if env == "production" {
		configFile = "prod.yml"
	}

	configPath := filepath.Join("internal", "configs", configFile)
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	if env != "" {
		cfg.App.Env = env
	}

	return cfg, nil
}

// LoadFile decodes a YAML config after expanding ${VAR} references against the environment.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(raw)))))
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "Student Portal"
	}
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.App.Origin == "" {
		c.App.Origin = "http://localhost:3000"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite3"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "student-portal"
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = time.Hour
	}
	if c.JWT.RefreshTTL == 0 {
		c.JWT.RefreshTTL = 15 * 24 * time.Hour
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Auth.MaxLoginAttempts == 0 {
		c.Auth.MaxLoginAttempts = 5
	}
	if c.Auth.LockoutWindow == 0 {
		c.Auth.LockoutWindow = 15 * time.Minute
	}
	if c.Auth.VerificationTTL == 0 {
		c.Auth.VerificationTTL = 24 * time.Hour
	}
	if c.Auth.ResetTTL == 0 {
		c.Auth.ResetTTL = time.Hour
	}
	if c.Auth.MinPasswordLength == 0 {
		c.Auth.MinPasswordLength = 6
	}
	if c.MockTest.Duration == 0 {
		c.MockTest.Duration = 15 * time.Minute
	}
	if c.MockTest.WarningDisplay == 0 {
		c.MockTest.WarningDisplay = 5 * time.Second
	}
	if c.MockTest.Retention == 0 {
		c.MockTest.Retention = 30 * time.Minute
	}
	if c.MockTest.MaxPerUser == 0 {
		c.MockTest.MaxPerUser = 3
	}
	if c.Cache.ProfileTTL == 0 {
		c.Cache.ProfileTTL = 5 * time.Minute
	}
	if c.Cache.MaxCost == 0 {
		c.Cache.MaxCost = 10000
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Location resolves app.timezone; booking dates and times are interpreted in it.
func (c *Config) Location() *time.Location {
	if c.App.Timezone == "" || c.App.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
