package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config carries everything the process needs. It is built once in main and
// handed to each component; nothing reads the environment after startup.
type Config struct {
	Port  string
	DBURL string
	CORS  string

	JWTSecret    string
	OIDCIssuer   string
	OIDCAudience string

	StripeSecretKey     string
	StripeWebhookSecret string
	FrontendURL         string

	PriceStarter  string
	PriceStandard string
	PricePremium  string

	SMTPFrom     string
	SMTPPassword string
	SMTPHost     string
	SMTPPort     string

	INSEEClientID     string
	INSEEClientSecret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	return &Config{
		Port:  getEnv("PORT", "8080"),
		DBURL: mustEnv("DB_URL"),
		CORS:  getEnv("CORS_ORIGIN", "*"),

		JWTSecret:    mustEnv("JWT_SECRET"),
		OIDCIssuer:   getEnv("OIDC_ISSUER", ""),
		OIDCAudience: getEnv("OIDC_AUDIENCE", ""),

		StripeSecretKey:     mustEnv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: mustEnv("STRIPE_WEBHOOK_SECRET"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:5173"),

		PriceStarter:  mustEnv("STRIPE_PRICE_STARTER"),
		PriceStandard: mustEnv("STRIPE_PRICE_STANDARD"),
		PricePremium:  mustEnv("STRIPE_PRICE_PREMIUM"),

		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),

		INSEEClientID:     getEnv("INSEE_CLIENT_ID", ""),
		INSEEClientSecret: getEnv("INSEE_CLIENT_SECRET", ""),
	}
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
