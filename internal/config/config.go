package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// App
	AppName  string
	AppDebug bool
	Port     string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Sessions (phone/guest channels)
	JWTSecret string
	JWTExpiry time.Duration

	// Google channel
	GoogleClientID     string
	GoogleTokenInfoURL string
	GoogleRevokeURL    string

	// SMS gateway (OTP dispatch)
	SMSAPIURL string
	SMSAPIKey string

	// Verification codes
	OTPExpiry time.Duration

	// Admin
	AdminToken string

	// Server
	CORSOrigins string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppName:  getEnv("APP_NAME", "bazaar"),
		AppDebug: getEnv("APP_DEBUG", "false") == "true",
		Port:     getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "bazaar_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: parseDuration(getEnv("JWT_EXPIRY", "336h"), 336*time.Hour),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleTokenInfoURL: getEnv("GOOGLE_TOKENINFO_URL", "https://oauth2.googleapis.com/tokeninfo"),
		GoogleRevokeURL:    getEnv("GOOGLE_REVOKE_URL", "https://oauth2.googleapis.com/revoke"),

		SMSAPIURL: getEnv("SMS_API_URL", ""),
		SMSAPIKey: getEnv("SMS_API_KEY", ""),

		OTPExpiry: parseDuration(getEnv("OTP_EXPIRY", "2m"), 2*time.Minute),

		AdminToken: getEnv("ADMIN_TOKEN", ""),

		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
