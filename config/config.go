package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	BotToken       string
	DatabaseDriver string
	DatabaseURL    string

	RenterUsername string
	OwnerUsername  string
	OperatorChatID int64

	SendGridAPIKey     string
	SendGridTemplateID string
	FromEmail          string
	ToEmail            string

	HeatingLogin      string
	HeatingPassword   string
	HeatingLoginAPI   string
	HeatingBillAPI    string
	HeatingProviderID string

	ExchangeRateURL string
	HTTPTimeout     time.Duration
	MetricsAddr     string

	ReminderSchedule string
	AutopaySchedule  string
	BackupSchedule   string

	SeedPaidYear  int
	SeedPaidMonth int

	Location *time.Location
}

// HeatingEnabled сообщает, заданы ли учётные данные сервиса отопления
func (c *AppConfig) HeatingEnabled() bool {
	return c.HeatingLogin != "" && c.HeatingLoginAPI != "" && c.HeatingBillAPI != ""
}

// MailEnabled сообщает, настроена ли отправка счетов по почте
func (c *AppConfig) MailEnabled() bool {
	return c.SendGridAPIKey != "" && c.SendGridTemplateID != "" && c.ToEmail != ""
}

// LoadConfig читает .env (если есть) и переменные окружения
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, relying on environment variables")
	}

	cfg := &AppConfig{
		BotToken:       os.Getenv("BOT_TOKEN"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		RenterUsername: os.Getenv("RENTER_USERNAME"),
		OwnerUsername:  os.Getenv("OWNER_USERNAME"),
		OperatorChatID: getEnvAsInt64("OPERATOR_CHAT_ID", 0),

		SendGridAPIKey:     os.Getenv("SENDGRID_API_KEY"),
		SendGridTemplateID: os.Getenv("SENDGRID_TEMPLATE_ID"),
		FromEmail:          os.Getenv("FROM_EMAIL"),
		ToEmail:            os.Getenv("TO_EMAIL"),

		HeatingLogin:      os.Getenv("HEATING_LOGIN"),
		HeatingPassword:   os.Getenv("HEATING_PASSWORD"),
		HeatingLoginAPI:   os.Getenv("HEATING_LOGIN_API"),
		HeatingBillAPI:    os.Getenv("HEATING_BILL_API"),
		HeatingProviderID: os.Getenv("HEATING_PROVIDER_ID"),

		ExchangeRateURL: getEnv("EXCHANGE_RATE_URL", "https://api.privatbank.ua/p24api/pubinfo?json&exchange&coursid=5"),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),
		MetricsAddr:     getEnv("METRICS_ADDR", ":8080"),

		ReminderSchedule: getEnv("REMINDER_SCHEDULE", "0 10 25 * *"),
		AutopaySchedule:  getEnv("AUTOPAY_SCHEDULE", "0 9 1 * *"),
		BackupSchedule:   getEnv("BACKUP_SCHEDULE", "0 3 * * *"),

		SeedPaidYear:  int(getEnvAsInt64("SEED_PAID_YEAR", 0)),
		SeedPaidMonth: int(getEnvAsInt64("SEED_PAID_MONTH", 0)),
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Europe/Kyiv"))
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required but not set in environment variables")
	}
	return cfg, nil
}

// RequireBot проверяет переменные, без которых бот не запускается
func (c *AppConfig) RequireBot() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN is required but not set in environment variables")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
