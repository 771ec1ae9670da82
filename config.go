package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	awspkg "storefront-service/pkg/aws"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds all environment variables for the storefront service.
type Config struct {
	Port         string
	Env          string
	DatabaseURL  string // mongodb://... or memory://
	DatabaseName string
	RedisURL     string

	JWTSecret string
	JWTTTL    time.Duration

	UploadDir     string
	MaxUploadSize int64
	ArchiveBucket string
	ArchivePrefix string

	MailDriver           string // smtp, sns or log
	SMTPHost             string
	SMTPPort             string
	SMTPUser             string
	SMTPPassword         string
	MailFrom             string
	PublicBaseURL        string
	VerificationTopicARN string

	RequireAdmin   bool
	AllowedOrigins string

	CloudWatchEnabled bool
	LogGroup          string
	MetricsEnabled    bool
	AWS               awspkg.Options
}

type secretGetter interface {
	GetSecret(ctx context.Context, key string) (string, error)
}

// LoadConfig loads environment variables into Config and validates them.
// If AWS_USE_SECRETS=true the credentials are read from Secrets Manager,
// falling back to the environment on failure.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := configFromEnv()
	if err != nil {
		return nil, err
	}

	if getEnv("AWS_USE_SECRETS", "false") == "true" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		awsCfg, err := awspkg.LoadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			zap.L().Warn("Secrets Manager unavailable, using environment", zap.Error(err))
		} else {
			applySecrets(ctx, cfg, awspkg.NewSecretsClient(awsCfg, getEnv("AWS_SECRET_PREFIX", awspkg.DefaultSecretPrefix)))
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFromEnv() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "3000"),
		Env:                  getEnv("APP_ENV", "development"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		DatabaseName:         getEnv("DATABASE_NAME", "storefront"),
		RedisURL:             os.Getenv("REDIS_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		UploadDir:            getEnv("UPLOAD_DIR", "uploads"),
		ArchiveBucket:        os.Getenv("IMPORT_ARCHIVE_BUCKET"),
		ArchivePrefix:        getEnv("IMPORT_ARCHIVE_PREFIX", "imports"),
		MailDriver:           strings.ToLower(getEnv("MAIL_DRIVER", "smtp")),
		SMTPHost:             getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:             getEnv("SMTP_PORT", "587"),
		SMTPUser:             os.Getenv("SMTP_USER"),
		SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
		MailFrom:             os.Getenv("MAIL_FROM"),
		PublicBaseURL:        getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
		VerificationTopicARN: os.Getenv("VERIFICATION_TOPIC_ARN"),
		RequireAdmin:         getEnv("REQUIRE_ADMIN", "false") == "true",
		AllowedOrigins:       os.Getenv("ALLOWED_ORIGINS"),
		CloudWatchEnabled:    getEnv("CLOUDWATCH_ENABLED", "false") == "true",
		LogGroup:             getEnv("CLOUDWATCH_LOG_GROUP", "/storefront/service"),
		MetricsEnabled:       getEnv("METRICS_ENABLED", "false") == "true",
		AWS: awspkg.Options{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Endpoint:        os.Getenv("AWS_ENDPOINT"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	cfg.JWTTTL = ttl

	mb, err := strconv.ParseInt(getEnv("MAX_UPLOAD_MB", "50"), 10, 64)
	if err != nil || mb <= 0 {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB %q", os.Getenv("MAX_UPLOAD_MB"))
	}
	cfg.MaxUploadSize = mb * 1024 * 1024

	return cfg, nil
}

// applySecrets overrides credentials with their Secrets Manager values.
// Missing secrets keep the environment value.
func applySecrets(ctx context.Context, cfg *Config, sm secretGetter) {
	overrides := map[string]*string{
		"JWT_SECRET":    &cfg.JWTSecret,
		"DATABASE_URL":  &cfg.DatabaseURL,
		"SMTP_PASSWORD": &cfg.SMTPPassword,
	}
	for key, dst := range overrides {
		val, err := sm.GetSecret(ctx, key)
		if err != nil || val == "" {
			zap.L().Debug("Secret not loaded", zap.String("key", key), zap.Error(err))
			continue
		}
		*dst = val
	}
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.MailDriver {
	case "smtp", "log":
	case "sns":
		if c.VerificationTopicARN == "" {
			return fmt.Errorf("VERIFICATION_TOPIC_ARN is required when MAIL_DRIVER=sns")
		}
	default:
		return fmt.Errorf("unknown MAIL_DRIVER %q", c.MailDriver)
	}
	return nil
}

// needsAWS reports whether any configured feature talks to AWS.
func (c *Config) needsAWS() bool {
	return c.CloudWatchEnabled || c.MetricsEnabled || c.ArchiveBucket != "" || c.MailDriver == "sns"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
