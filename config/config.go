package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is read once at startup from the environment (after .env is loaded).
type Config struct {
	Env      string
	Port     string
	LogLevel string

	MongoURI      string
	MongoDatabase string

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	RedisAddress    string
	RedisPassword   string
	RedisDB         int
	IssueLimitQueue string
	IssueRateLimit  int
	IssueRateWindow time.Duration

	LoginRatePerMinute int
	CORSOrigins        []string

	Storage StorageConfig

	KafkaBrokers    []string
	KafkaIssueTopic string
}

// StorageConfig points at an S3-compatible bucket (Cloudflare R2 in production).
type StorageConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
}

func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != "" && s.AccessKeyID != "" && s.SecretAccessKey != "" && s.PublicURL != ""
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

func (c *Config) RedisEnabled() bool { return c.RedisAddress != "" }

func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Load reads the configuration and reports every missing required key at once.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("GO_ENV", "development"),
		Port:     getEnv("PORT", "5000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		MongoURI:      os.Getenv("MONGODB_URI"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "civicreport"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		TokenTTL:   getEnvAsDuration("TOKEN_TTL", 7*24*time.Hour),
		BcryptCost: getEnvAsInt("BCRYPT_COST", 10),

		RedisAddress:    os.Getenv("REDIS_ADDRESS"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         getEnvAsInt("REDIS_DB", 0),
		IssueLimitQueue: getEnv("REDIS_QUEUE_FOR_ISSUE_LIMIT", "issue-limit"),
		IssueRateLimit:  getEnvAsInt("ISSUE_RATE_LIMIT", 10),
		IssueRateWindow: getEnvAsDuration("ISSUE_RATE_WINDOW", 24*time.Hour),

		LoginRatePerMinute: getEnvAsInt("LOGIN_RATE_PER_MINUTE", 10),
		CORSOrigins:        getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		Storage: StorageConfig{
			Endpoint:        storageEndpoint(),
			Region:          getEnv("STORAGE_REGION", "auto"),
			AccessKeyID:     os.Getenv("STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("STORAGE_SECRET_ACCESS_KEY"),
			Bucket:          os.Getenv("STORAGE_BUCKET"),
			PublicURL:       strings.TrimRight(os.Getenv("STORAGE_PUBLIC_URL"), "/"),
		},

		KafkaBrokers:    getEnvAsList("KAFKA_BROKERS", nil),
		KafkaIssueTopic: getEnv("KAFKA_ISSUE_TOPIC", "issue-events"),
	}

	var missing []string
	if cfg.MongoURI == "" {
		missing = append(missing, "MONGODB_URI")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(cfg.JWTSecret) < 16 {
		return nil, errors.New("JWT_SECRET must be at least 16 characters")
	}
	return cfg, nil
}

// storageEndpoint prefers an explicit endpoint and otherwise derives the R2 one
// from the account id.
func storageEndpoint() string {
	if v := os.Getenv("STORAGE_ENDPOINT"); v != "" {
		return v
	}
	if account := os.Getenv("R2_ACCOUNT_ID"); account != "" {
		return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", account)
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
