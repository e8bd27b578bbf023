package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"divemanager/internal/cache"
	"divemanager/internal/config"
	"divemanager/internal/database"
	"divemanager/internal/gateway"
	"divemanager/internal/middleware"
	"divemanager/internal/modules/booking"
	"divemanager/internal/modules/cancellation"
	"divemanager/internal/modules/lead"
	"divemanager/internal/modules/member"
	"divemanager/internal/modules/notify"
	"divemanager/internal/modules/payment"
	"divemanager/internal/modules/settings"
	jwtsvc "divemanager/internal/pkg/jwt"
	"divemanager/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.AppEnv)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	if err := database.Migrate(db, repository.Models()...); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	redisClient, err := cache.NewClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("redis connect failed", zap.Error(err))
	}

	tenantRepo := repository.NewTenantRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	leadRepo := repository.NewLeadRepository(db)

	jwtService := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	settingsCache := cache.NewSettingsCache(tenantRepo, redisClient, cfg.SettingsCacheTTL, logger)
	stripeGateway := gateway.NewStripe(cfg.StripeSecretKey)

	hub := notify.NewHub()
	defer hub.Close()
	notifier := notify.NewService(hub, logger)
	notifyHandler := notify.NewHandler(hub, logger)

	memberService := member.NewService(memberRepo, jwtService, logger)
	memberHandler := member.NewHandler(memberService)

	leadService := lead.NewService(leadRepo, logger)
	leadHandler := lead.NewHandler(leadService)

	bookingService := booking.NewService(bookingRepo, notifier,
		time.Duration(cfg.PaymentDueHours)*time.Hour, logger)
	bookingHandler := booking.NewHandler(bookingService)

	paymentService := payment.NewService(bookingRepo, paymentRepo, notifier, logger)
	paymentHandler := payment.NewHandler(paymentService)
	webhookHandler := payment.NewWebhookHandler(paymentService, cfg.StripeWebhookSecret, logger)

	cancellationService := cancellation.NewService(
		bookingRepo, paymentRepo, stripeGateway, settingsCache, notifier, logger)
	cancellationHandler := cancellation.NewHandler(cancellationService)

	settingsService := settings.NewService(tenantRepo, settingsCache, logger)
	settingsHandler := settings.NewHandler(settingsService)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")
	{
		// public, tenant resolved from the X-Tenant-ID header
		public := v1.Group("/")
		public.Use(middleware.ResolveTenant())
		{
			memberHandler.RegisterRoutes(public)
			leadHandler.RegisterRoutes(public)
		}

		// gateway callbacks authenticate by signature, not by token
		webhookHandler.RegisterRoutes(v1)

		authed := v1.Group("/")
		authed.Use(middleware.JWTAuth(jwtService))
		{
			bookingHandler.RegisterPortalRoutes(authed)
			cancellationHandler.RegisterPortalRoutes(authed)

			staff := authed.Group("/")
			staff.Use(middleware.StaffOnly())
			{
				bookingHandler.RegisterStaffRoutes(staff)
				paymentHandler.RegisterStaffRoutes(staff)
				cancellationHandler.RegisterStaffRoutes(staff)
				settingsHandler.RegisterStaffRoutes(staff)
				notifyHandler.RegisterStaffRoutes(staff)
			}
		}
	}

	addr := ":" + envOrDefault("PORT", "8080")
	logger.Info("api listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(appEnv string) (*zap.Logger, error) {
	if appEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
