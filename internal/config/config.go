package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	MercadoPagoAccessToken string
	PixWebhookToken        string
	// PixExpiration is how long a PIX charge stays payable. Kept
	// configurable: the store has run with both 5 and 15 minute windows.
	PixExpiration time.Duration

	WhatsAppNumber string
	JWTSecret      string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:                 os.Getenv("DB_HOST"),
		DBUser:                 os.Getenv("DB_USER"),
		DBPassword:             os.Getenv("DB_PASSWORD"),
		DBName:                 os.Getenv("DB_NAME"),
		DBPort:                 os.Getenv("DB_PORT"),
		AppPort:                os.Getenv("APP_PORT"),
		AppEnv:                 os.Getenv("APP_ENV"),
		MercadoPagoAccessToken: os.Getenv("MERCADO_PAGO_ACCESS_TOKEN"),
		PixWebhookToken:        os.Getenv("PIX_WEBHOOK_TOKEN"),
		PixExpiration:          pixExpirationFromEnv(),
		WhatsAppNumber:         os.Getenv("WHATSAPP_NUMBER"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func pixExpirationFromEnv() time.Duration {
	const defaultMinutes = 15

	raw := os.Getenv("PIX_EXPIRATION_MINUTES")
	if raw == "" {
		return defaultMinutes * time.Minute
	}

	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		log.Printf("invalid PIX_EXPIRATION_MINUTES %q, falling back to default", raw)
		return defaultMinutes * time.Minute
	}

	return time.Duration(minutes) * time.Minute
}
