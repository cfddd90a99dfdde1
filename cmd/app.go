package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"job-board/domain"
	"job-board/infrastructure"
	"job-board/usecase"
)

// app holds everything the commands share.
type app struct {
	cfg    *infrastructure.Config
	logger *logrus.Logger
	log    *logrus.Entry
	db     *gorm.DB
	redis  *redis.Client
	cache  *infrastructure.Cache
	jwt    *infrastructure.JWTManager

	rabbit *infrastructure.RabbitMQ
	inline *infrastructure.InlineEvents

	listings   *usecase.ListingUsecase
	favorites  *usecase.FavoriteUsecase
	auth       *usecase.AuthUsecase
	blog       *usecase.BlogUsecase
	cvs        *usecase.CVUsecase
	assistant  *usecase.AssistantUsecase
	chat       *usecase.ChatUsecase
	promotions *usecase.PromotionUsecase
	sitemap    *usecase.SitemapUsecase
}

// bootstrap loads config, connects storage and the event bus, and builds
// the usecases.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := infrastructure.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := infrastructure.NewLogger(cfg.LogLevel, cfg.LogFormat)
	a := &app{cfg: cfg, logger: logger, log: infrastructure.Component(logger, "app")}

	if err := infrastructure.ConfigureUnidoc(cfg.UnidocLicenseKey); err != nil {
		a.log.WithError(err).Warn("pdf license not applied, documents will carry a watermark")
	}

	a.db, err = infrastructure.OpenDatabase(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := infrastructure.Migrate(a.db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	var events usecase.EventPublisher
	switch cfg.EventsDriver {
	case "rabbitmq":
		a.rabbit, err = infrastructure.NewRabbitMQ(cfg.RabbitMQURL, infrastructure.Component(logger, "rabbitmq"))
		if err != nil {
			return nil, err
		}
		events = a.rabbit
	default:
		a.inline = infrastructure.NewInlineEvents()
		events = a.inline
	}

	cacheLog := infrastructure.Component(logger, "cache")
	a.redis = infrastructure.NewRedisClient(ctx, cfg.RedisURL, cacheLog)
	a.cache = infrastructure.NewCache(a.redis, cfg.CacheTTL, cfg.CacheMaxEntries, cacheLog)

	generator, err := infrastructure.NewGenerator(ctx, cfg, infrastructure.Component(logger, "ai"))
	if err != nil {
		return nil, fmt.Errorf("failed to init ai provider: %w", err)
	}

	a.jwt = infrastructure.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	if err := a.jwt.Validate(); err != nil {
		return nil, err
	}
	users := infrastructure.NewUserRepository(a.db)
	listingRepo := infrastructure.NewListingRepository(a.db)

	a.listings = usecase.NewListingUsecase(listingRepo, a.cache, events, cfg.ListingTTL, infrastructure.Component(logger, "listings"))
	a.favorites = usecase.NewFavoriteUsecase(infrastructure.NewFavoriteRepository(a.db), listingRepo)
	a.auth = usecase.NewAuthUsecase(users, a.jwt,
		infrastructure.NewLogMailer(cfg.SiteURL, infrastructure.Component(logger, "mailer")),
		a.listings, infrastructure.Component(logger, "auth"))
	a.blog = usecase.NewBlogUsecase(infrastructure.NewBlogRepository(a.db), infrastructure.Component(logger, "blog"))
	a.cvs = usecase.NewCVUsecase(infrastructure.NewCVRepository(a.db),
		infrastructure.NewDocumentExtractor(infrastructure.Component(logger, "documents")),
		infrastructure.NewCVRenderer())
	a.assistant = usecase.NewAssistantUsecase(generator, infrastructure.Component(logger, "assistant"))
	a.chat = usecase.NewChatUsecase(infrastructure.NewChatRepository(a.db), a.assistant, infrastructure.Component(logger, "chat"))

	gateway := infrastructure.NewPaymentGateway(infrastructure.PaymentGatewayConfig{
		MerchantID:  cfg.PaymentMerchantID,
		MerchantKey: cfg.PaymentMerchantKey,
		Salt:        cfg.PaymentSalt,
		TokenURL:    cfg.PaymentTokenURL,
		CheckoutURL: cfg.PaymentCheckoutURL,
		TestMode:    cfg.PaymentTestMode,
	})
	a.promotions = usecase.NewPromotionUsecase(infrastructure.NewPaymentRepository(a.db), users, a.listings, gateway,
		usecase.PromotionPlans(cfg.PriceWeek, cfg.PriceMonth, cfg.PaymentCurrency),
		infrastructure.Component(logger, "promotions"))

	sitemapLog := infrastructure.Component(logger, "sitemap")
	a.sitemap = usecase.NewSitemapUsecase(a.listings, a.blog,
		infrastructure.NewSitemapWriter(cfg.SitemapDir, cfg.SiteURL),
		infrastructure.NewSitemapPinger(cfg.PingURLs(), sitemapLog),
		cfg.SiteURL, sitemapLog)

	if cfg.AdminEmail != "" {
		if err := a.auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *app) Close() {
	if a.rabbit != nil {
		_ = a.rabbit.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// brokerLost fires when the RabbitMQ connection drops. Without a broker it
// never fires.
func (a *app) brokerLost() <-chan error {
	if a.rabbit == nil {
		return nil
	}
	lost := make(chan error, 1)
	go func() {
		err, ok := <-a.rabbit.Lost()
		if !ok || err == nil {
			err = errors.New("rabbitmq connection closed")
		}
		lost <- err
	}()
	return lost
}

// subscribe delivers listing events to handler. With RabbitMQ, queue ""
// gets a private queue for this process and a named queue is shared by
// every consumer.
func (a *app) subscribe(queue string, handler func(domain.ListingEvent)) error {
	if a.rabbit != nil {
		return a.rabbit.Consume(queue, handler)
	}
	a.inline.Subscribe(handler)
	return nil
}
