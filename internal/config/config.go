package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	PublicBaseURL  string // used to build gateway callback and return URLs
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string
	ImageURLTTL    time.Duration

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SNSRegion    string
	SMSEnabled   bool
	EmailEnabled bool

	// AdminUserID pins the operator that receives admin notifications.
	// When empty the first enabled admin user is looked up on every dispatch.
	AdminUserID string

	ChapaBaseURL   string
	ChapaSecretKey string
	ChapaTimeout   time.Duration
	Currency       string
	WeeklyPrice    int
	MonthlyPrice   int

	SchedulerEnabled    bool
	AutoDeleteSchedule  string
	ExpiryScanSchedule  string
	ExpirySweepSchedule string
	JobTimeout          time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users            string
	Properties       string
	PropertyImages   string
	Notifications    string
	FeaturedPayments string
	Favorites        string
	PropertyViews    string
	RecentlyViewed   string
	Reviews          string
	Conversations    string
	Messages         string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:            getEnv("DYNAMO_TABLE_USERS", "users"),
			Properties:       getEnv("DYNAMO_TABLE_PROPERTIES", "properties"),
			PropertyImages:   getEnv("DYNAMO_TABLE_PROPERTY_IMAGES", "property_images"),
			Notifications:    getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			FeaturedPayments: getEnv("DYNAMO_TABLE_FEATURED_PAYMENTS", "featured_payments"),
			Favorites:        getEnv("DYNAMO_TABLE_FAVORITES", "favorites"),
			PropertyViews:    getEnv("DYNAMO_TABLE_PROPERTY_VIEWS", "property_views"),
			RecentlyViewed:   getEnv("DYNAMO_TABLE_RECENTLY_VIEWED", "recently_viewed"),
			Reviews:          getEnv("DYNAMO_TABLE_REVIEWS", "property_reviews"),
			Conversations:    getEnv("DYNAMO_TABLE_CONVERSATIONS", "conversations"),
			Messages:         getEnv("DYNAMO_TABLE_MESSAGES", "messages"),
		},
		S3BucketName:        getEnv("S3_BUCKET_NAME", "rental-media"),
		ImageURLTTL:         getEnvDuration("IMAGE_URL_TTL", time.Hour),
		JWTPrivateKeyPath:   getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:    getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:           time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		SMTPHost:            getEnv("SMTP_HOST", "localhost"),
		SMTPPort:            getEnv("SMTP_PORT", "1025"),
		SMTPFrom:            getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		SNSRegion:           getEnv("SNS_REGION", "us-east-1"),
		SMSEnabled:          getEnvBool("NOTIFY_SMS_ENABLED", false),
		EmailEnabled:        getEnvBool("NOTIFY_EMAIL_ENABLED", false),
		AdminUserID:         getEnv("ADMIN_USER_ID", ""),
		ChapaBaseURL:        getEnv("CHAPA_BASE_URL", "https://api.chapa.co"),
		ChapaSecretKey:      getEnv("CHAPA_SECRET_KEY", ""),
		ChapaTimeout:        getEnvDuration("CHAPA_TIMEOUT", 30*time.Second),
		Currency:            getEnv("FEATURED_CURRENCY", "ETB"),
		WeeklyPrice:         getEnvInt("FEATURED_WEEKLY_PRICE", 500),
		MonthlyPrice:        getEnvInt("FEATURED_MONTHLY_PRICE", 1500),
		SchedulerEnabled:    getEnvBool("SCHEDULER_ENABLED", true),
		AutoDeleteSchedule:  getEnv("AUTO_DELETE_SCHEDULE", "@every 15m"),
		ExpiryScanSchedule:  getEnv("EXPIRY_SCAN_SCHEDULE", "0 9 * * *"),
		ExpirySweepSchedule: getEnv("EXPIRY_SWEEP_SCHEDULE", "@hourly"),
		JobTimeout:          getEnvDuration("JOB_TIMEOUT", 5*time.Minute),
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
