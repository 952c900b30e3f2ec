package config

import (
	"time"

	"github.com/example/pod-fulfillment-service/internal/domain"
)

type Config struct {
	OrderAPI    OrderAPIConfig
	Partner     PartnerConfig
	Fulfillment FulfillmentConfig
	Security    SecurityConfig
	TelegramBot TelegramBotConfig
	Database    DatabaseConfig
	Stan        StanConfig
	HTTPAddr    string
	LogLevel    string
}

type OrderAPIConfig struct {
	BaseUrl  string
	Username string
	Password string
	Timeout  time.Duration
}

type PartnerConfig struct {
	BaseUrl        string
	Token          string
	ShopID         string
	ShippingMethod int
	Timeout        time.Duration
}

type FulfillmentConfig struct {
	HandlerCode     string
	EligibleStates  []domain.OrderState
	DryRun          bool
	MaxOrdersPerRun int
	MappingFile     string
	MappingJSON     string
}

// SecurityConfig — общие секреты триггера и вебхука. Пустой WebhookSecret
// включает режим приёма неподписанных вебхуков.
type SecurityConfig struct {
	JobSecret           string
	WebhookSecret       string
	WebhookBypassSecret string
}

type TelegramBotConfig struct {
	ChatId string
	Token  string
}

type DatabaseConfig struct {
	URL string
}

type StanConfig struct {
	URL       string
	ClusterID string
	ClientID  string
	Subject   string
	Durable   string
}

func (s StanConfig) Enabled() bool {
	return s.URL != "" && s.ClusterID != ""
}
