package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	// APIKey authenticates every write endpoint and most read endpoints
	// via the X-API-Key header.
	APIKey string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	APNs ChannelAPNs
	FCM  ChannelFCM

	// DeliveryConcurrency caps how many push deliveries run in parallel.
	DeliveryConcurrency int

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Devices       string
	InAppMessages string
	DeliveryLogs  string
}

// ChannelAPNs holds the APNs provider-token credentials. The channel is
// enabled only when KeyPath, KeyID, TeamID and BundleID are all set.
type ChannelAPNs struct {
	KeyPath    string
	KeyID      string
	TeamID     string
	BundleID   string
	Production bool
}

// Configured reports whether the credential set is complete.
func (c ChannelAPNs) Configured() bool {
	return c.KeyPath != "" && c.KeyID != "" && c.TeamID != "" && c.BundleID != ""
}

// ChannelFCM holds the FCM service-account credentials. The channel is
// enabled only when ProjectID and CredentialsPath are both set.
type ChannelFCM struct {
	ProjectID       string
	CredentialsPath string
}

// Configured reports whether the credential set is complete.
func (c ChannelFCM) Configured() bool {
	return c.ProjectID != "" && c.CredentialsPath != ""
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),
		APIKey:  getEnv("API_KEY", ""),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Devices:       getEnv("DYNAMO_TABLE_DEVICES", "devices"),
			InAppMessages: getEnv("DYNAMO_TABLE_IN_APP_MESSAGES", "in_app_messages"),
			DeliveryLogs:  getEnv("DYNAMO_TABLE_DELIVERY_LOGS", "delivery_logs"),
		},
		APNs: ChannelAPNs{
			KeyPath:    getEnv("APNS_KEY_PATH", ""),
			KeyID:      getEnv("APNS_KEY_ID", ""),
			TeamID:     getEnv("APNS_TEAM_ID", ""),
			BundleID:   getEnv("APNS_BUNDLE_ID", ""),
			Production: getEnvBool("APNS_PRODUCTION", false),
		},
		FCM: ChannelFCM{
			ProjectID:       getEnv("FCM_PROJECT_ID", ""),
			CredentialsPath: getEnv("FCM_CREDENTIALS_PATH", ""),
		},
		DeliveryConcurrency: getEnvInt("DELIVERY_CONCURRENCY", 10),
		AllowedOrigins:      strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
