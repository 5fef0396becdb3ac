package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret signs tokens when JWT_SECRET is unset. It is public, so
// Validate refuses it outside dev and test.
const DevJWTSecret = "dev-secret-change-me"

var ErrInsecureJWTSecret = errors.New("JWT_SECRET must be set to a private value outside dev and test")

type Config struct {
	Env      string
	Port     int
	LogLevel string

	StorageDriver string
	DBURL         string
	DBMaxConns    int
	DBMinConns    int

	JWTSecret string

	// mail provider, read once at startup
	SendGridKey  string
	MailFrom     string
	MailFromName string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	OTelEnabled     bool
	OTelEndpoint    string
	OTelSampleRatio float64
	ServiceName     string

	CORSOrigins  []string
	MaxBodyBytes int64

	AdminEmail    string
	AdminPassword string
	AdminName     string
	AdminNick     string
	AdminRole     string
}

func Load() Config {
	// .env is optional, real environment wins
	_ = godotenv.Load()

	return Config{
		Env:      getEnv("APP_ENV", "dev"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", ""),

		StorageDriver: getEnv("STORAGE_DRIVER", "postgres"),
		DBURL:         buildDBURL(),
		DBMaxConns:    getEnvInt("DB_MAX_CONNS", 5),
		DBMinConns:    getEnvInt("DB_MIN_CONNS", 0),

		JWTSecret: getEnv("JWT_SECRET", DevJWTSecret),

		SendGridKey:  getEnv("SENDGRID_KEY", ""),
		MailFrom:     getEnv("SENDGRID_MAIL_FROM", "no-reply@worldofhackaton.dev"),
		MailFromName: getEnv("SENDGRID_MAIL_FROM_NAME", "WorldofHackaton"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 30)) * time.Second,

		OTelEnabled:     getEnv("OTEL_ENABLED", "false") == "true",
		OTelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: getEnvFloat("OTEL_TRACES_SAMPLER_ARG", 1),
		ServiceName:     getEnv("OTEL_SERVICE_NAME", "worldofhackaton-api"),

		CORSOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Admin"),
		AdminNick:     getEnv("ADMIN_NICK", "admin01"),
		AdminRole:     getEnv("ADMIN_ROLE", "admin"),
	}
}

// Validate rejects settings that are only safe on a developer machine.
func (c Config) Validate() error {
	switch c.Env {
	case "dev", "test":
		return nil
	}

	if strings.TrimSpace(c.JWTSecret) == "" || c.JWTSecret == DevJWTSecret {
		return fmt.Errorf("config (APP_ENV=%s): %w", c.Env, ErrInsecureJWTSecret)
	}
	return nil
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "hackaton")
	pass := getEnv("DB_PASSWORD", "hackaton")
	name := getEnv("DB_NAME", "hackaton")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not an integer, using %d\n", key, v, fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)

		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not a number, using %g\n", key, v, fallback)
			return fallback
		}

		return f
	}
	return fallback
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
