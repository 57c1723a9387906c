package config

import (
	"errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oponmeta/service-checkout/internal/domain"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "mock", cfg.PaymentConfig.Mode)
	assert.Equal(t, "paystack", cfg.PaymentConfig.Gateways["NGN"])
	assert.Equal(t, "stripe", cfg.PaymentConfig.DefaultGateway)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaConfig.Brokers)
	assert.Equal(t, "168h0m0s", cfg.RedisConfig.CartTTL.String())
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	require.Len(t, cfg.RegionRules, 2)
	assert.Equal(t, []string{"NG", "GH", "KE"}, cfg.RegionRules[0].RegionCodes)
}

func TestFromViper_LiveModeNeedsStripeKey(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("PAYMENT_MODE", "live")

	_, err := FromViper(v)
	assert.Error(t, err)

	v.Set("STRIPE_SECRET_KEY", "sk_test_123")
	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "sk_test_123", cfg.StripeConfig.SecretKey)
}

func TestParseRegionRules(t *testing.T) {
	rules, err := ParseRegionRules(" ng , gh:0.7 ; IN:0.55 ;")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, []string{"NG", "GH"}, rules[0].RegionCodes)
	assert.Equal(t, "0.55", rules[1].Multiplier.String())
}

func TestParseRegionRules_Invalid(t *testing.T) {
	_, err := ParseRegionRules("NG:1.3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidPricingRule))

	_, err = ParseRegionRules("NG")
	assert.Error(t, err)

	_, err = ParseRegionRules("NG:abc")
	assert.Error(t, err)
}

func TestParseGatewayTable(t *testing.T) {
	table, err := ParseGatewayTable("usd:Stripe, NGN:paystack")
	require.NoError(t, err)
	assert.Equal(t, "stripe", table["USD"])
	assert.Equal(t, "paystack", table["NGN"])

	_, err = ParseGatewayTable("USD")
	assert.Error(t, err)
}
