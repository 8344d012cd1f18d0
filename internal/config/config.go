// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration. Each field maps to one
// environment variable.
type Config struct {
	Env            string // APP_ENV (dev, test, prod)
	Port           string // APP_PORT
	DBUser         string
	DBPass         string // may be empty
	DBHost         string
	DBPort         string
	DBName         string
	JWTSecret      string
	AccessTTLMin   int // ACCESS_TOKEN_TTL_MIN
	RefreshTTLDays int // REFRESH_TOKEN_TTL_DAYS
	BcryptCost     int

	BaseURL      string // APP_BASE_URL, prefix of emailed links
	MailFrom     string
	ResendAPIKey string // empty selects the noop sender

	DelegateDefaultPassword string
	AccreditedByDefault     string

	ActivationTTL      time.Duration
	ResetTTL           time.Duration
	SessionIdleTimeout time.Duration

	RabbitMQURL string // empty sends mail inline
	CronEnabled bool
	LogLevel    string
}

// LoadDotenv reads .env files into the environment when present. Values
// already set in the environment win.
func LoadDotenv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("config: cannot load %s: %v", f, err)
		}
	}
}

// Load reads configuration values from the environment. Missing required
// variables stop the process.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		BaseURL:      envStr("APP_BASE_URL", "http://localhost:8080"),
		MailFrom:     envStr("MAIL_FROM", "COP Side Events <no-reply@example.org>"),
		ResendAPIKey: os.Getenv("RESEND_API_KEY"),

		DelegateDefaultPassword: must("DELEGATE_DEFAULT_PASSWORD"),
		AccreditedByDefault:     envStr("ACCREDITED_BY_DEFAULT", "NCCC"),

		ActivationTTL:      envDur("ACTIVATION_TOKEN_TTL", 72*time.Hour),
		ResetTTL:           envDur("RESET_TOKEN_TTL", time.Hour),
		SessionIdleTimeout: envDur("SESSION_IDLE_TIMEOUT", 30*time.Minute),

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
		CronEnabled: envBool("CRON_ENABLED", true),
		LogLevel:    envStr("LOG_LEVEL", "info"),
	}
}

// Validate checks rules that span more than one variable.
func (c Config) Validate() error {
	var errs []error
	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT: invalid port %q", c.Port))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST: %d outside [4,31]", c.BcryptCost))
	}
	if c.AccessTTLMin <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL_MIN must be positive"))
	}
	if c.RefreshTTLDays <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL_DAYS must be positive"))
	}
	for name, d := range map[string]time.Duration{
		"ACTIVATION_TOKEN_TTL": c.ActivationTTL,
		"RESET_TOKEN_TTL":      c.ResetTTL,
		"SESSION_IDLE_TIMEOUT": c.SessionIdleTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	return errors.Join(errs...)
}

// must retrieves the value of a required environment variable and exits
// when it is unset or empty.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must but converts the value into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
