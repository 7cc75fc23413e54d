package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Email    EmailConfig
	Kafka    KafkaConfig
	Listing  ListingConfig
	Seed     SeedConfig
}

type ServerConfig struct {
	Port          string
	Environment   string
	BodyLimit     int
	MaxRequests   int
	RateWindow    time.Duration
	CheckoutDelay time.Duration
}

type DatabaseConfig struct {
	URL string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	SettingsTTL time.Duration
}

type StorageConfig struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

type EmailConfig struct {
	ResendAPIKey string
	From         string
}

type KafkaConfig struct {
	Broker       string
	Topic        string
	RetryMax     int
	RetryBackoff time.Duration
}

// ListingConfig holds the listing lifecycle limits.
type ListingConfig struct {
	ExpiryDays      int
	MaxCreateImages int
	MaxImages       int
}

type SeedConfig struct {
	Enabled       bool
	AdminEmail    string
	AdminPassword string
}

func Load() *Config {
	godotenv.Load() // .env is optional outside local development

	return &Config{
		Server: ServerConfig{
			Port:          getEnv("PORT", "3000"),
			Environment:   getEnv("GO_ENV", "development"),
			BodyLimit:     getEnvInt("SERVER_BODY_LIMIT", 40*1024*1024),
			MaxRequests:   getEnvInt("SERVER_MAX_REQUESTS", 20),
			RateWindow:    getEnvDuration("SERVER_RATE_WINDOW", time.Minute),
			CheckoutDelay: getEnvDuration("CHECKOUT_DELAY", 1500*time.Millisecond),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "bazaar-dev-secret"),
			Expiration: getEnvDuration("JWT_EXPIRATION", 24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", ""),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvInt("REDIS_DB", 0),
			SettingsTTL: getEnvDuration("SETTINGS_CACHE_TTL", 5*time.Minute),
		},
		Storage: StorageConfig{
			Bucket:        getEnv("STORAGE_BUCKET", "product-images"),
			Region:        getEnv("STORAGE_REGION", "auto"),
			Endpoint:      getEnv("STORAGE_ENDPOINT", ""),
			AccessKey:     getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:     getEnv("STORAGE_SECRET_KEY", ""),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_URL", ""),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("EMAIL_FROM", "Bazaar <noreply@bazaar.local>"),
		},
		Kafka: KafkaConfig{
			Broker:       getEnv("KAFKA_BROKER", ""),
			Topic:        getEnv("KAFKA_TOPIC", "marketplace-events"),
			RetryMax:     getEnvInt("KAFKA_RETRY_MAX", 5),
			RetryBackoff: getEnvDuration("KAFKA_RETRY_BACKOFF", 500*time.Millisecond),
		},
		Listing: ListingConfig{
			ExpiryDays:      getEnvInt("LISTING_EXPIRY_DAYS", 14),
			MaxCreateImages: getEnvInt("LISTING_MAX_CREATE_IMAGES", 5),
			MaxImages:       getEnvInt("LISTING_MAX_IMAGES", 8),
		},
		Seed: SeedConfig{
			Enabled:       getEnv("SEED", "") == "true",
			AdminEmail:    getEnv("ADMIN_EMAIL", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
	}
}

// ListingTTL is how long a new listing stays live.
func (l ListingConfig) ListingTTL() time.Duration {
	return time.Duration(l.ExpiryDays) * 24 * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("90s", "24h").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
