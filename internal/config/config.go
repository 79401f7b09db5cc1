package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the server needs, loaded from the environment.
// A .env file is honored when present.
type Config struct {
	Port        string
	DatabaseURL string

	LogLevel  string
	LogFormat string

	JWTSecret string
	TokenTTL  time.Duration

	// HourlyRate is the billing rate in whole currency units per hour.
	HourlyRate int64
	// CheckInGraceBefore is how early a driver may check in ahead of the
	// reserved start time.
	CheckInGraceBefore time.Duration
	// ReservePastGrace is how far in the past a requested start time may
	// lie before the reservation is rejected.
	ReservePastGrace time.Duration
	// ExpireSpec is the cron spec for the stale-reservation sweep.
	ExpireSpec string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	StripeSecretKey  string
	StripeSuccessURL string
	StripeCancelURL  string
}

// Load reads the environment (and .env, if any) into a Config.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		ExpireSpec: getEnv("EXPIRE_CRON", "@every 1m"),

		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail: os.Getenv("SENDGRID_FROM_EMAIL"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "ParkIt"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),

		StripeSecretKey:  os.Getenv("STRIPE_SECRET_KEY"),
		StripeSuccessURL: os.Getenv("STRIPE_SUCCESS_URL"),
		StripeCancelURL:  os.Getenv("STRIPE_CANCEL_URL"),
	}

	var err error
	if cfg.HourlyRate, err = getEnvInt64("HOURLY_RATE", 100); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = getEnvDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CheckInGraceBefore, err = getEnvDuration("CHECKIN_GRACE", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReservePastGrace, err = getEnvDuration("RESERVE_PAST_GRACE", time.Minute); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
