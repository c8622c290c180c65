package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// PlaceholderWebAppID marks an endpoint that was never replaced with a deployed web app URL.
const PlaceholderWebAppID = "PASTE_YOUR_DEPLOYED_WEB_APP_ID"

type Config struct {
	Port            string
	SheetsWebAppURL string
	Timezone        string
	SessionTTL      time.Duration
	DeliveryTimeout time.Duration
	JWTSecretKey    string
	UploadDir       string

	AttachmentSweepInterval time.Duration

	ReceiptBackend string
	ReceiptDir     string

	OSSEndpoint        string
	OSSAccessKeyID     string
	OSSAccessKeySecret string
	OSSBucketName      string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	NATSUrl         string
	BeaconSubject   string
	BeaconQueueSize int

	RedisURL string

	DiscordWebhookID    string
	DiscordWebhookToken string

	LogLevel  string
	LogFormat string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	return &Config{
		Port:            getEnv("PORT", "8081"),
		SheetsWebAppURL: getEnv("SHEETS_WEBAPP_URL", "https://script.google.com/macros/s/"+PlaceholderWebAppID+"/exec"),
		Timezone:        getEnv("TIMEZONE", "Asia/Jakarta"),
		SessionTTL:      getDuration("SESSION_TTL", 2*time.Hour),
		DeliveryTimeout: getDuration("DELIVERY_TIMEOUT", 30*time.Second),
		JWTSecretKey:    getEnv("JWT_SECRET_KEY", ""),
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),

		AttachmentSweepInterval: getDuration("ATTACHMENT_SWEEP_INTERVAL", 10*time.Minute),

		ReceiptBackend: strings.ToLower(getEnv("RECEIPT_BACKEND", "local")),
		ReceiptDir:     getEnv("RECEIPT_DIR", "receipts"),

		OSSEndpoint:        getEnv("OSS_ENDPOINT", ""),
		OSSAccessKeyID:     getEnv("OSS_ACCESS_KEY_ID", ""),
		OSSAccessKeySecret: getEnv("OSS_ACCESS_KEY_SECRET", ""),
		OSSBucketName:      getEnv("OSS_BUCKET_NAME", ""),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "nup-receipts"),
		MinioUseSSL:    getBool("MINIO_USE_SSL", false),

		NATSUrl:         getEnv("NATS_URL", ""),
		BeaconSubject:   getEnv("BEACON_SUBJECT", "nup.registrations"),
		BeaconQueueSize: getInt("BEACON_QUEUE_SIZE", 64),

		RedisURL: getEnv("REDIS_URL", ""),

		DiscordWebhookID:    getEnv("DISCORD_WEBHOOK_ID", ""),
		DiscordWebhookToken: getEnv("DISCORD_WEBHOOK_TOKEN", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Location resolves the configured time zone, falling back to the host zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.WithError(err).Warnf("Unknown TIMEZONE %q, using local time", c.Timezone)
		return time.Local
	}
	return loc
}

// EndpointConfigured reports whether the Sheets web app URL was filled in.
func (c *Config) EndpointConfigured() bool {
	return c.SheetsWebAppURL != "" && !strings.Contains(c.SheetsWebAppURL, PlaceholderWebAppID)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warnf("Invalid duration for %s: %q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Warnf("Invalid integer for %s: %q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
