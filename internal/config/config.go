package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTables DynamoTables
	S3BucketName string

	JWTPrivateKeyPath      string
	JWTPublicKeyPath       string
	JWTExpiryDays          int
	RefreshTokenExpiryDays int

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion   string // empty disables the SMS channel
	SNSSenderID string // optional alphanumeric sender shown on SMS

	// Verification-code issuance limits per contact address.
	// The 10-minute code lifetime itself is fixed and not configurable.
	ResendInterval  time.Duration
	MaxCodesPerHour int

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users          string
	Sessions       string
	Jobs           string
	Applications   string
	ChatRequests   string
	Conversations  string
	Messages       string
	Notifications  string
	Documents      string
	EmailCodes     string
	PhoneCodes     string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:      getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Jobs:          getEnv("DYNAMO_TABLE_JOBS", "jobs"),
			Applications:  getEnv("DYNAMO_TABLE_APPLICATIONS", "applications"),
			ChatRequests:  getEnv("DYNAMO_TABLE_CHAT_REQUESTS", "chat_requests"),
			Conversations: getEnv("DYNAMO_TABLE_CONVERSATIONS", "conversations"),
			Messages:      getEnv("DYNAMO_TABLE_MESSAGES", "messages"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			Documents:     getEnv("DYNAMO_TABLE_DOCUMENTS", "documents"),
			EmailCodes:    getEnv("DYNAMO_TABLE_EMAIL_CODES", "email_verification_codes"),
			PhoneCodes:    getEnv("DYNAMO_TABLE_PHONE_CODES", "phone_verification_codes"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "campusboard-files"),

		JWTPrivateKeyPath:      getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:       getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiryDays:          getEnvInt("JWT_EXPIRY_DAYS", 7),
		RefreshTokenExpiryDays: getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@campusboard.example"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion:   getEnv("SNS_REGION", ""),
		SNSSenderID: getEnv("SNS_SENDER_ID", ""),

		ResendInterval:  time.Duration(getEnvInt("VERIFICATION_RESEND_INTERVAL_SECONDS", 60)) * time.Second,
		MaxCodesPerHour: getEnvInt("VERIFICATION_MAX_PER_HOUR", 5),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
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
