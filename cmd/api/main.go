package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/vishwas0229/Riya-Coliections-sub007/internal/cache"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/config"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/domain/model"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/event"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/gateway"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/handler"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/infra/db"
	infraRepo "github.com/vishwas0229/Riya-Coliections-sub007/internal/infra/repository"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/notification"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/server"
	"github.com/vishwas0229/Riya-Coliections-sub007/internal/usecase"
)

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel}))
}

func main() {
	//.envは無くてもいい（本番は環境変数を直接渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	slog.SetDefault(newLogger(cfg))

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		panic(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Address{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.Coupon{},
		&model.CODTracking{},
		&model.OrderStatusHistory{},
		&model.InventoryAdjustment{},
	); err != nil {
		panic(err)
	}

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)

	//webhook重複排除に使うKVS
	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider: cfg.CacheProvider,
		RedisURL: cfg.RedisURL,
	})
	if err != nil {
		panic(err)
	}
	defer cacheProvider.Close()

	//ドメインイベント。brokers未設定なら外に出さない
	var events event.Publisher = event.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := event.NewKafkaPublisher(cfg.KafkaBrokers)
		if err != nil {
			panic(err)
		}
		events = kp
	}
	defer events.Close()

	//通知メール。APIキー未設定ならログに落とすだけ
	var notifier notification.Notifier = notification.DisabledNotifier{}
	if cfg.ResendAPIKey != "" {
		notifier = notification.NewResendNotifier(cfg.ResendAPIKey, cfg.MailFrom)
	}

	//決済ゲートウェイ
	gw := gateway.NewRESTClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret)

	pricing := usecase.PricingConfig{
		ShippingFee:      cfg.ShippingFee,
		FreeShippingOver: cfg.FreeShippingOver,
		TaxRatePercent:   cfg.TaxRatePercent,
	}

	//Usecase生成
	orderUC := usecase.NewOrderUsecase(txManager, addressRepo, userRepo, pricing, events, notifier)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, userRepo, events, notifier)
	paymentUC := usecase.NewPaymentUsecase(txManager, gw, userRepo, events, notifier, cfg.GatewayKeyID, cfg.GatewayKeySecret)
	codUC := usecase.NewCODUsecase(txManager, addressRepo, userRepo, events, notifier, cfg.CODMaxAmount, cfg.CODRegions)
	webhookUC := usecase.NewWebhookUsecase(txManager, cacheProvider, events, cfg.GatewayWebhookSecret)

	//Handler生成
	handlers := server.Handlers{
		Order:      handler.NewOrderHandler(orderUC),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC),
		Payment:    handler.NewPaymentHandler(paymentUC, codUC),
		Webhook:    handler.NewWebhookHandler(webhookUC),
	}

	//Server起動
	e := server.New(cfg, handlers, userRepo)
	if err := server.Start(e, cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
