package config

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AIConfig struct {
	APIKey  string
	URL     string
	Model   string
	Timeout time.Duration
}

type StorageConfig struct {
	Driver        string // local | s3
	S3Bucket      string
	S3Region      string
	PublicBaseURL string
}

type MailConfig struct {
	SMTPAddr string // host:port; empty disables mail
	SMTPHost string
	User     string
	Password string
	From     string
	ResetURL string // reset token is appended
}

type Config struct {
	Port           string
	DBDSN          string
	MediaDir       string
	LogFile        string
	Debug          bool
	JWTSecret      string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	CORSOrigins    []string
	PaymentBaseURL string
	AI             AIConfig
	Storage        StorageConfig
	Mail           MailConfig
}

// Load reads .env (if present) and the process environment. Call once at
// startup and pass the result down.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] could not read .env: %v", err)
	}

	cfg := Config{
		Port:           env("PORT", "8000"),
		DBDSN:          env("DB_DSN", "storefront.db"),
		MediaDir:       env("MEDIA_DIR", "./media"),
		LogFile:        env("LOG_FILE", ""),
		Debug:          envBool("DEBUG", false),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTTL:      envDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTTL:     envDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		CORSOrigins:    envList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		PaymentBaseURL: env("PAYMENT_BASE_URL", "https://pay.example.com/order/"),
		AI: AIConfig{
			APIKey:  os.Getenv("AI_API_KEY"),
			URL:     env("AI_API_URL", "https://api.siliconflow.cn/v1/chat/completions"),
			Model:   env("AI_MODEL", "deepseek-ai/DeepSeek-R1-0528-Qwen3-8B"),
			Timeout: envDuration("AI_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Driver:        env("STORAGE_DRIVER", "local"),
			S3Bucket:      os.Getenv("S3_BUCKET"),
			S3Region:      env("S3_REGION", "us-east-1"),
			PublicBaseURL: env("PUBLIC_BASE_URL", "/media"),
		},
		Mail: MailConfig{
			SMTPAddr: os.Getenv("SMTP_ADDR"),
			SMTPHost: os.Getenv("SMTP_HOST"),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     env("MAIL_FROM", "no-reply@storefront.local"),
			ResetURL: env("RESET_URL", "http://localhost:5173/reset-password?token="),
		},
	}
	if cfg.JWTSecret == "" {
		// tokens issued with a random secret do not survive a restart
		cfg.JWTSecret = randomSecret()
		log.Printf("[config] JWT_SECRET not set, using an ephemeral secret")
	}

	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s DEBUG=%t STORAGE=%s AI_KEY_SET=%t SMTP_SET=%t",
		cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.LogFile, cfg.Debug, cfg.Storage.Driver, cfg.AI.APIKey != "", cfg.Mail.SMTPAddr != "")
	return cfg
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func envList(key string, def []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
