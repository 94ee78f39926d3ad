package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/noah-isme/gema-contest-api/internal/leaderboard"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JudgeSubject      string
	JWTSecret         string
	LogLevel          string
	LogFile           string
	PointsSource      leaderboard.PointsSource
	TimeSource        leaderboard.TimeSource
	LockTTL           time.Duration
	LockWait          time.Duration
	SubmitRateLimit   int
	MaxCodeBytes      int
	RecentSubmissions int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// ScoringOptions returns the aggregation policy selected by configuration.
func (c Config) ScoringOptions() leaderboard.Options {
	opts := leaderboard.DefaultOptions()
	if c.PointsSource != "" {
		opts.Points = c.PointsSource
	}
	if c.TimeSource != "" {
		opts.Time = c.TimeSource
	}
	return opts
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "GEMA Contest API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("judge.subject", "gema.judge")
	v.SetDefault("log.level", "info")
	v.SetDefault("scoring.points_source", string(leaderboard.PointsAuthored))
	v.SetDefault("scoring.time_source", string(leaderboard.TimeExecution))
	v.SetDefault("submission.lock_ttl", "10s")
	v.SetDefault("submission.lock_wait", "5s")
	v.SetDefault("submission.rate_limit", 30)
	v.SetDefault("submission.max_code_bytes", 64*1024)
	v.SetDefault("submission.recent_limit", 5)

	lockTTL, err := time.ParseDuration(v.GetString("submission.lock_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid submission lock ttl: %w", err)
	}

	lockWait, err := time.ParseDuration(v.GetString("submission.lock_wait"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid submission lock wait: %w", err)
	}

	points, err := leaderboard.ParsePointsSource(v.GetString("scoring.points_source"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid scoring configuration: %w", err)
	}

	timeSource, err := leaderboard.ParseTimeSource(v.GetString("scoring.time_source"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid scoring configuration: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JudgeSubject:      v.GetString("judge.subject"),
		JWTSecret:         v.GetString("jwt.secret"),
		LogLevel:          strings.ToLower(v.GetString("log.level")),
		LogFile:           v.GetString("log.file"),
		PointsSource:      points,
		TimeSource:        timeSource,
		LockTTL:           lockTTL,
		LockWait:          lockWait,
		SubmitRateLimit:   v.GetInt("submission.rate_limit"),
		MaxCodeBytes:      v.GetInt("submission.max_code_bytes"),
		RecentSubmissions: v.GetInt("submission.recent_limit"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.SubmitRateLimit <= 0 {
		cfg.SubmitRateLimit = 30
	}

	if cfg.MaxCodeBytes <= 0 {
		cfg.MaxCodeBytes = 64 * 1024
	}

	if cfg.RecentSubmissions <= 0 {
		cfg.RecentSubmissions = 5
	}

	return cfg, nil
}
