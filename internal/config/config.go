package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                 string
	AppEnv                  string
	AppPort                 string
	DatabaseURL             string
	RedisURL                string
	NATSURL                 string
	JWTSecret               string
	NotifyChannel           string
	NotifySender            string
	NotifyBuffer            int
	SummaryCacheTTL         time.Duration
	ClaimWindowDays         int
	ApprovalBatchLimit      int
	RedemptionAllowOverdraw bool
	RedemptionDeletePending bool
	MoreInfoRateLimit       int
	MoreInfoRateLimitWindow time.Duration
	SeedFile                string
	CORSAllowOrigins        string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("POINTS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Society Points API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("notify.channel", "societies")
	v.SetDefault("notify.sender", "societies@example.com")
	v.SetDefault("notify.buffer", 64)
	v.SetDefault("cache.summary_ttl", "5m")
	v.SetDefault("valuation.claim_window_days", 30)
	v.SetDefault("approval.batch_limit", 20)
	v.SetDefault("redemption.allow_overdraw", false)
	v.SetDefault("redemption.delete_pending_only", false)
	v.SetDefault("ratelimit.more_info", 10)
	v.SetDefault("ratelimit.more_info_window", "1m")
	v.SetDefault("cors.allow_origins", "*")

	ttl, err := parseDuration(v.GetString("cache.summary_ttl"), 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid summary cache ttl: %w", err)
	}

	window, err := parseDuration(v.GetString("ratelimit.more_info_window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid more info rate limit window: %w", err)
	}

	cfg := Config{
		AppName:                 v.GetString("app.name"),
		AppEnv:                  v.GetString("app.env"),
		AppPort:                 v.GetString("app.port"),
		DatabaseURL:             v.GetString("database.url"),
		RedisURL:                v.GetString("redis.url"),
		NATSURL:                 v.GetString("nats.url"),
		JWTSecret:               v.GetString("jwt.secret"),
		NotifyChannel:           v.GetString("notify.channel"),
		NotifySender:            v.GetString("notify.sender"),
		NotifyBuffer:            v.GetInt("notify.buffer"),
		SummaryCacheTTL:         ttl,
		ClaimWindowDays:         v.GetInt("valuation.claim_window_days"),
		ApprovalBatchLimit:      v.GetInt("approval.batch_limit"),
		RedemptionAllowOverdraw: v.GetBool("redemption.allow_overdraw"),
		RedemptionDeletePending: v.GetBool("redemption.delete_pending_only"),
		MoreInfoRateLimit:       v.GetInt("ratelimit.more_info"),
		MoreInfoRateLimitWindow: window,
		SeedFile:                v.GetString("seed.file"),
		CORSAllowOrigins:        v.GetString("cors.allow_origins"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ClaimWindowDays <= 0 {
		cfg.ClaimWindowDays = 30
	}

	if cfg.ApprovalBatchLimit <= 0 {
		cfg.ApprovalBatchLimit = 20
	}

	if cfg.NotifyBuffer <= 0 {
		cfg.NotifyBuffer = 64
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
