package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultShippingFee is the flat fee charged once per order that ships.
var DefaultShippingFee = decimal.NewFromInt(30)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort int
	GRPCPort int

	ShippingFee    decimal.Decimal
	IdempotencyTTL time.Duration

	// An empty value disables the integration.
	CheckoutLogPath string
	RedisAddr       string
	RabbitMQURL     string
	OTLPEndpoint    string

	RabbitMQQueue   string
	ChannelPoolSize int
	ServiceName     string
}

func Load() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPPort: getEnvInt("HTTP_PORT", 8080),
		GRPCPort: getEnvInt("GRPC_PORT", 8081),

		ShippingFee:    getEnvDecimal("SHIPPING_FEE", DefaultShippingFee),
		IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		CheckoutLogPath: lookupEnv("CHECKOUT_LOG_PATH", "checkout.db"),
		RedisAddr:       lookupEnv("REDIS_ADDR", ""),
		RabbitMQURL:     lookupEnv("RABBITMQ_URL", ""),
		OTLPEndpoint:    lookupEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		RabbitMQQueue:   getEnv("RABBITMQ_QUEUE", "warehouse_shipments"),
		ChannelPoolSize: getEnvInt("CHANNEL_POOL_SIZE", 5),
		ServiceName:     getEnv("OTEL_SERVICE_NAME", "checkout-service"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// lookupEnv differs from getEnv in that a variable set to "" wins over def.
func lookupEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
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

func getEnvDecimal(key string, def decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return def
	}
	return d
}

func getEnvDuration(key string, def time.Duration) time.Duration {
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
