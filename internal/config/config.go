package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every process-level setting. It is loaded once in main
// and passed into the pieces that need it; nothing reads the
// environment after startup.
type Config struct {
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	AccessTokenExpiry  time.Duration `mapstructure:"ACCESS_TOKEN_EXPIRY"`
	RefreshTokenExpiry time.Duration `mapstructure:"REFRESH_TOKEN_EXPIRY"`

	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`

	AllowedOrigins []string

	UploadDir     string `mapstructure:"UPLOAD_DIR"`
	MaxUploadSize int64  `mapstructure:"MAX_UPLOAD_SIZE"`

	// Optional fire-and-forget notification webhooks.
	SlackWebhook   string `mapstructure:"SLACK_WEBHOOK"`
	DiscordWebhook string `mapstructure:"DISCORD_WEBHOOK"`

	// How often the background sweep re-evaluates SLA windows.
	SLASweepInterval time.Duration `mapstructure:"SLA_SWEEP_INTERVAL"`

	DefaultPageSize int `mapstructure:"DEFAULT_PAGE_SIZE"`
	MaxPageSize     int `mapstructure:"MAX_PAGE_SIZE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("ACCESS_TOKEN_EXPIRY", 30*time.Minute)
	v.SetDefault("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour)
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("MAX_UPLOAD_SIZE", int64(10*1024*1024))
	v.SetDefault("SLA_SWEEP_INTERVAL", time.Hour)
	v.SetDefault("DEFAULT_PAGE_SIZE", 20)
	v.SetDefault("MAX_PAGE_SIZE", 100)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")

	// AutomaticEnv alone does not surface env vars through Unmarshal;
	// bind the keys we read explicitly.
	for _, key := range []string{
		"DATABASE_URL", "JWT_SECRET", "ACCESS_TOKEN_EXPIRY", "REFRESH_TOKEN_EXPIRY",
		"PORT", "ENVIRONMENT", "UPLOAD_DIR", "MAX_UPLOAD_SIZE",
		"SLACK_WEBHOOK", "DISCORD_WEBHOOK", "SLA_SWEEP_INTERVAL",
		"DEFAULT_PAGE_SIZE", "MAX_PAGE_SIZE", "ALLOWED_ORIGINS",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	for _, origin := range strings.Split(v.GetString("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	return &cfg, nil
}

func (c *Config) Production() bool {
	return c.Environment == "production"
}
