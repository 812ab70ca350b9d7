package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port          string
	AppEnv        string
	AppURL        string
	MongoURI      string
	DBName        string
	JWTSecret     string
	AuthEmail     string
	AuthPass      string
	S3Bucket      string
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	MailFrom      string
	MaxUploadMB   int64
}

func Load() (*Config, error) {
	maxMB := int64(10)
	if v := getEnv("MAX_UPLOAD_MB", "10"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxMB = n
		}
	}
	smtpPort := 587
	if v := getEnv("SMTP_PORT", "587"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			smtpPort = n
		}
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		AppEnv:        getEnv("APP_ENV", "development"),
		AppURL:        getEnv("APP_URL", "http://localhost:8080"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:        getEnv("MONGODB_DB", "library"),
		JWTSecret:     getEnv("JWT_SECRET", "change-me-in-production"),
		AuthEmail:     getEnv("AUTH_EMAIL", ""),
		AuthPass:      getEnv("AUTH_PASSWORD", ""),
		S3Bucket:      getEnv("AWS_S3_BUCKET", ""),
		S3Region:      getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      smtpPort,
		SMTPUser:      getEnv("SMTP_USERNAME", ""),
		SMTPPass:      getEnv("SMTP_PASSWORD", ""),
		MailFrom:      getEnv("MAIL_FROM", "library@localhost"),
		MaxUploadMB:   maxMB,
	}

	if cfg.AppEnv == "production" && cfg.JWTSecret == "change-me-in-production" {
		return nil, fmt.Errorf("JWT_SECRET must be set to a strong secret in production")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
