package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/oponmeta/service-checkout/internal/domain/money"
	"github.com/oponmeta/service-checkout/internal/domain/pricing"
	"github.com/oponmeta/service-checkout/internal/platform/database"
)

// RedisConfig holds cart store settings. An empty Addr selects the in-memory store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CartTTL  time.Duration
}

// KafkaConfig holds broker and topic settings.
type KafkaConfig struct {
	Brokers       []string
	GroupPrefix   string
	CheckoutTopic string
	CatalogTopic  string
}

// StripeConfig holds Stripe-specific configuration.
type StripeConfig struct {
	SecretKey string
}

// PaymentConfig selects gateways per currency.
type PaymentConfig struct {
	// Mode is "mock" or "live". Live mode needs a Stripe secret key.
	Mode           string
	Gateways       pricing.GatewayTable
	DefaultGateway string
}

// ServiceConfig holds all configuration for the checkout service.
type ServiceConfig struct {
	Port               string
	AppEnv             string
	DBConfig           database.PostgresConfig
	MigrationsDir      string
	RedisConfig        RedisConfig
	KafkaConfig        KafkaConfig
	StripeConfig       StripeConfig
	PaymentConfig      PaymentConfig
	RegionRules        []pricing.RegionRule
	AdminToken         string
	// CORSAllowedOrigins lists storefront origins allowed to call the API.
	CORSAllowedOrigins []string
}

// Load reads configuration from the environment and an optional config file.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("checkout")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper builds a ServiceConfig from an already populated viper instance.
func FromViper(v *viper.Viper) (*ServiceConfig, error) {
	rules, err := ParseRegionRules(v.GetString("REGION_PRICING"))
	if err != nil {
		return nil, err
	}
	gateways, err := ParseGatewayTable(v.GetString("GATEWAY_TABLE"))
	if err != nil {
		return nil, err
	}

	mode := strings.ToLower(v.GetString("PAYMENT_MODE"))
	if mode != "mock" && mode != "live" {
		return nil, fmt.Errorf("PAYMENT_MODE must be mock or live, got %q", mode)
	}
	if mode == "live" && v.GetString("STRIPE_SECRET_KEY") == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required in live payment mode")
	}

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &ServiceConfig{
		Port:   port,
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		MigrationsDir: v.GetString("MIGRATIONS_DIR"),
		RedisConfig: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			CartTTL:  v.GetDuration("CART_TTL"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:       splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix:   v.GetString("KAFKA_GROUP_PREFIX"),
			CheckoutTopic: v.GetString("KAFKA_CHECKOUT_TOPIC"),
			CatalogTopic:  v.GetString("KAFKA_CATALOG_TOPIC"),
		},
		StripeConfig: StripeConfig{
			SecretKey: v.GetString("STRIPE_SECRET_KEY"),
		},
		PaymentConfig: PaymentConfig{
			Mode:           mode,
			Gateways:       gateways,
			DefaultGateway: strings.ToLower(v.GetString("DEFAULT_GATEWAY")),
		},
		RegionRules:        rules,
		AdminToken:         v.GetString("ADMIN_TOKEN"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "oponmeta_checkout")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CART_TTL", "168h")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "oponmeta.")
	v.SetDefault("KAFKA_CHECKOUT_TOPIC", "checkout.events")
	v.SetDefault("KAFKA_CATALOG_TOPIC", "catalog.events")
	v.SetDefault("PAYMENT_MODE", "mock")
	v.SetDefault("GATEWAY_TABLE", "USD:stripe,EUR:stripe,GBP:stripe,NGN:paystack,GHS:flutterwave,KES:flutterwave,ZAR:flutterwave")
	v.SetDefault("DEFAULT_GATEWAY", "stripe")
	v.SetDefault("REGION_PRICING", "NG,GH,KE:0.7;IN,PK,BD:0.6")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

// ParseRegionRules parses "NG,GH:0.7;IN:0.6" into validated rules, keeping order.
func ParseRegionRules(s string) ([]pricing.RegionRule, error) {
	var rules []pricing.RegionRule
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		regions, mult, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("REGION_PRICING entry %q: expected regions:multiplier", entry)
		}
		m, err := decimal.NewFromString(strings.TrimSpace(mult))
		if err != nil {
			return nil, fmt.Errorf("REGION_PRICING entry %q: %w", entry, err)
		}
		rule, err := pricing.NewRegionRule(m, strings.Split(regions, ",")...)
		if err != nil {
			return nil, fmt.Errorf("REGION_PRICING entry %q: %w", entry, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// ParseGatewayTable parses "USD:stripe,NGN:paystack".
func ParseGatewayTable(s string) (pricing.GatewayTable, error) {
	table := make(pricing.GatewayTable)
	for _, entry := range splitList(s) {
		currency, gw, ok := strings.Cut(entry, ":")
		currency = money.NormalizeCurrency(currency)
		gw = strings.ToLower(strings.TrimSpace(gw))
		if !ok || currency == "" || gw == "" {
			return nil, fmt.Errorf("GATEWAY_TABLE entry %q: expected CURRENCY:gateway", entry)
		}
		table[currency] = gw
	}
	return table, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
