package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full startup configuration. Missing required values abort
// startup, so everything past Load() can assume a complete config.
type Config struct {
	BotToken      string
	WebhookSecret string
	Port          string

	CredentialsFile string
	SpreadsheetURL  string

	AdminIDs []int64

	MaxRetries int
	RetryDelay time.Duration
	CacheTTL   time.Duration
}

// LoadEnv loads .env if present without overwriting already-set variables,
// so real environment always wins over the file.
func LoadEnv() {
	envMap, err := godotenv.Read()
	if err != nil {
		return
	}
	for k, v := range envMap {
		if os.Getenv(k) == "" {
			os.Setenv(k, v)
		}
	}
}

// Load validates and assembles the configuration from the environment.
func Load() (*Config, error) {
	required := []string{"BOT_TOKEN", "DB_USER", "DB_PASS", "DB_NAME", "GOOGLE_SHEETS_CREDENTIALS_FILE", "GOOGLE_SHEETS_URL", "ADMIN_IDS"}
	for _, key := range required {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			return nil, fmt.Errorf("required environment variable %s is not set", key)
		}
	}

	credsFile := os.Getenv("GOOGLE_SHEETS_CREDENTIALS_FILE")
	if _, err := os.Stat(credsFile); err != nil {
		return nil, fmt.Errorf("credentials file not found at %s: %w", credsFile, err)
	}

	admins, err := parseAdminIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, err
	}
	if len(admins) == 0 {
		return nil, fmt.Errorf("ADMIN_IDS is empty")
	}

	cfg := &Config{
		BotToken:        os.Getenv("BOT_TOKEN"),
		WebhookSecret:   os.Getenv("WEBHOOK_SECRET"),
		Port:            getenv("PORT", "8080"),
		CredentialsFile: credsFile,
		SpreadsheetURL:  os.Getenv("GOOGLE_SHEETS_URL"),
		AdminIDs:        admins,
		MaxRetries:      getenvInt("MAX_RETRIES", 3),
		RetryDelay:      time.Duration(getenvInt("RETRY_DELAY", 5)) * time.Second,
		CacheTTL:        time.Duration(getenvInt("CACHE_TTL", 300)) * time.Second,
	}
	return cfg, nil
}

func parseAdminIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q in ADMIN_IDS", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getenvInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v > 0 {
			return v
		}
	}
	return def
}
