package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Configはアプリ全体の設定。環境変数から読む。
type Config struct {
	Port  string `env:"PORT" envDefault:"8080"`
	GoEnv string `env:"GO_ENV" envDefault:"dev" validate:"oneof=dev prod"`

	// DB。DATABASE_URLがあれば最優先、なければPOSTGRES_*から組み立て
	DatabaseURL      string `env:"DATABASE_URL"`
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"riya_collections"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// JWT署名シークレット（認証APIと共有）
	JWTSecret string `env:"JWT_SECRET,required" validate:"required"`

	// 決済ゲートウェイ
	GatewayBaseURL       string `env:"GATEWAY_BASE_URL" envDefault:"https://api.razorpay.com/v1" validate:"url"`
	GatewayKeyID         string `env:"GATEWAY_KEY_ID,required" validate:"required"`
	GatewayKeySecret     string `env:"GATEWAY_KEY_SECRET,required" validate:"required"`
	GatewayWebhookSecret string `env:"GATEWAY_WEBHOOK_SECRET,required" validate:"required"`

	// 金額まわり（整数ルピー）
	ShippingFee      int64 `env:"SHIPPING_FEE" envDefault:"50" validate:"min=0"`
	FreeShippingOver int64 `env:"FREE_SHIPPING_OVER" envDefault:"500" validate:"min=0"`
	TaxRatePercent   int64 `env:"TAX_RATE_PERCENT" envDefault:"18" validate:"min=0,max=100"`

	// COD
	CODMaxAmount int64    `env:"COD_MAX_AMOUNT" envDefault:"5000" validate:"min=0"`
	CODRegions   []string `env:"COD_REGIONS" envSeparator:","`

	// webhook重複排除キャッシュ
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisURL      string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis"`

	// ドメインイベント発行。空なら発行しない
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// メール通知（Resend）。キー未設定なら通知はログだけ
	ResendAPIKey string `env:"RESEND_API_KEY"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"orders@riyacollections.in"`

	// フロントURL（CORS）
	FEURL string `env:"FE_URL" envDefault:"http://localhost:3000"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
}

var configValidator = validator.New()

// Loadは環境変数を読み、必須チェックまで済ませて返す
func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := configValidator.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DSNはgorm/postgresに渡す接続文字列。DATABASE_URL優先
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}
