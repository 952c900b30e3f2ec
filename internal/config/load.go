package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/pod-fulfillment-service/internal/domain"
)

const (
	defaultMaxOrdersPerRun = 10
	defaultPartnerBaseUrl  = "https://api.printify.com"
	defaultHTTPAddr        = ":8080"
)

var defaultEligibleStates = []string{
	string(domain.OrderPaymentSettled),
	string(domain.OrderPartiallyFulfilled),
}

// Load читает конфигурацию из окружения один раз при старте. Любая ошибка
// здесь фатальна: частичной работы без настроек нет.
func Load() (Config, error) {
	var cfg Config
	var err error

	if cfg.OrderAPI.BaseUrl, err = requiredString("ORDER_API_URL"); err != nil {
		return Config{}, err
	}
	if cfg.OrderAPI.Username, err = requiredString("ORDER_API_USERNAME"); err != nil {
		return Config{}, err
	}
	if cfg.OrderAPI.Password, err = requiredString("ORDER_API_PASSWORD"); err != nil {
		return Config{}, err
	}
	if cfg.OrderAPI.Timeout, err = durationWithDefault("ORDER_API_TIMEOUT", 20*time.Second); err != nil {
		return Config{}, err
	}

	if cfg.Fulfillment.DryRun, err = boolWithDefault("DRY_RUN", false); err != nil {
		return Config{}, err
	}
	if cfg.Fulfillment.MaxOrdersPerRun, err = intWithDefault("MAX_ORDERS_PER_RUN", defaultMaxOrdersPerRun); err != nil {
		return Config{}, err
	}
	if cfg.Fulfillment.MaxOrdersPerRun <= 0 {
		return Config{}, fmt.Errorf("MAX_ORDERS_PER_RUN must be positive, got %d", cfg.Fulfillment.MaxOrdersPerRun)
	}
	cfg.Fulfillment.HandlerCode = stringWithDefault("FULFILLMENT_HANDLER_CODE", domain.ManualFulfillmentHandler)
	for _, state := range listWithDefault("ELIGIBLE_ORDER_STATES", defaultEligibleStates) {
		cfg.Fulfillment.EligibleStates = append(cfg.Fulfillment.EligibleStates, domain.OrderState(state))
	}
	cfg.Fulfillment.MappingFile = stringWithDefault("SKU_MAPPING_FILE", "")
	cfg.Fulfillment.MappingJSON = stringWithDefault("SKU_MAPPING_JSON", "")
	if cfg.Fulfillment.MappingFile == "" && cfg.Fulfillment.MappingJSON == "" {
		return Config{}, errors.New("missing required env var: SKU_MAPPING_FILE or SKU_MAPPING_JSON")
	}

	cfg.Partner.BaseUrl = stringWithDefault("PARTNER_API_URL", defaultPartnerBaseUrl)
	cfg.Partner.Token = stringWithDefault("PARTNER_API_TOKEN", "")
	cfg.Partner.ShopID = stringWithDefault("PARTNER_SHOP_ID", "")
	if !cfg.Fulfillment.DryRun && (cfg.Partner.Token == "" || cfg.Partner.ShopID == "") {
		return Config{}, errors.New("missing required env var: PARTNER_API_TOKEN and PARTNER_SHOP_ID are required unless DRY_RUN is set")
	}
	if cfg.Partner.ShippingMethod, err = intWithDefault("PARTNER_SHIPPING_METHOD", 1); err != nil {
		return Config{}, err
	}
	if cfg.Partner.Timeout, err = durationWithDefault("PARTNER_TIMEOUT", 20*time.Second); err != nil {
		return Config{}, err
	}

	cfg.Security = SecurityConfig{
		JobSecret:           stringWithDefault("JOB_SECRET", ""),
		WebhookSecret:       stringWithDefault("WEBHOOK_SECRET", ""),
		WebhookBypassSecret: stringWithDefault("WEBHOOK_BYPASS_SECRET", ""),
	}

	cfg.TelegramBot = TelegramBotConfig{
		ChatId: stringWithDefault("TELEGRAM_CHAT_ID", ""),
		Token:  stringWithDefault("TELEGRAM_BOT_TOKEN", ""),
	}

	cfg.Database.URL = stringWithDefault("DATABASE_URL", "")

	cfg.Stan = LoadStan()

	cfg.HTTPAddr = stringWithDefault("HTTP_ADDR", defaultHTTPAddr)
	cfg.LogLevel = stringWithDefault("LOG_LEVEL", "info")

	return cfg, nil
}

// LoadStan читает только настройки очереди; нужен публикатору, которому
// остальная конфигурация не требуется.
func LoadStan() StanConfig {
	return StanConfig{
		URL:       stringWithDefault("NATS_URL", ""),
		ClusterID: stringWithDefault("STAN_CLUSTER_ID", ""),
		ClientID:  stringWithDefault("STAN_CLIENT_ID", ""),
		Subject:   stringWithDefault("STAN_SUBJECT", "partner-webhooks"),
		Durable:   stringWithDefault("STAN_DURABLE", "pod-fulfillment-durable"),
	}
}
