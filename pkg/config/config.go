package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string
	HostURL     string

	JWTAccessSecret []byte
	AccessTTL       time.Duration

	AdminUsername string
	AdminPassword string

	TelegramBotToken string
	TelegramChatID   int64

	NotifyWorkers   int
	NotifyQueueSize int
	NotifyMaxTries  int
	NotifyTimeout   time.Duration

	PayPalClientID     string
	PayPalClientSecret string
	PayPalMode         string
	PaymentCurrency    string
	PaymentTimeout     time.Duration

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	InvoiceFontPath string
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "gypsum_shop"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		HostURL:     strings.TrimRight(os.Getenv("HOST_URL"), "/"),

		JWTAccessSecret: []byte(os.Getenv("JWT_SECRET")),
		AccessTTL:       EnvDurationDefault("JWT_ACCESS_TTL", 24*time.Hour),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   EnvInt64Default("TELEGRAM_CHAT_ID", 0),

		NotifyWorkers:   EnvIntDefault("NOTIFY_WORKERS", 2),
		NotifyQueueSize: EnvIntDefault("NOTIFY_QUEUE_SIZE", 100),
		NotifyMaxTries:  EnvIntDefault("NOTIFY_MAX_TRIES", 3),
		NotifyTimeout:   EnvDurationDefault("NOTIFY_TIMEOUT", 10*time.Second),

		PayPalClientID:     os.Getenv("PAYPAL_CLIENT_ID"),
		PayPalClientSecret: os.Getenv("PAYPAL_CLIENT_SECRET"),
		PayPalMode:         EnvDefault("PAYPAL_MODE", "sandbox"),
		PaymentCurrency:    strings.ToUpper(EnvDefault("PAYMENT_CURRENCY", "USD")),
		PaymentTimeout:     EnvDurationDefault("PAYPAL_TIMEOUT", 15*time.Second),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "product"),

		InvoiceFontPath: os.Getenv("INVOICE_FONT_PATH"),
	}
}

// Validate reports every missing or malformed required setting at once.
func (c Config) Validate() error {
	var errs []error
	required := []struct{ env, value string }{
		{"DATABASE_URL", c.DatabaseURL},
		{"HOST_URL", c.HostURL},
		{"JWT_SECRET", string(c.JWTAccessSecret)},
		{"TELEGRAM_BOT_TOKEN", c.TelegramBotToken},
		{"PAYPAL_CLIENT_ID", c.PayPalClientID},
		{"PAYPAL_CLIENT_SECRET", c.PayPalClientSecret},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("missing required env %s", r.env))
		}
	}
	if c.TelegramChatID == 0 {
		errs = append(errs, errors.New("missing required env TELEGRAM_CHAT_ID"))
	}
	if c.PayPalMode != "sandbox" && c.PayPalMode != "live" {
		errs = append(errs, fmt.Errorf("PAYPAL_MODE must be sandbox or live, got %q", c.PayPalMode))
	}
	if len(c.PaymentCurrency) != 3 {
		errs = append(errs, fmt.Errorf("PAYMENT_CURRENCY must be a 3-letter code, got %q", c.PaymentCurrency))
	}
	return errors.Join(errs...)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvInt64Default(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
