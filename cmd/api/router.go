// Package main 是应用程序入口
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tatchunari/neatly-backend/internal/common/cache"
	"github.com/tatchunari/neatly-backend/internal/common/config"
	"github.com/tatchunari/neatly-backend/internal/common/jwt"
	"github.com/tatchunari/neatly-backend/internal/common/metrics"
	adminHandler "github.com/tatchunari/neatly-backend/internal/handler/admin"
	authHandler "github.com/tatchunari/neatly-backend/internal/handler/auth"
	bookingHandler "github.com/tatchunari/neatly-backend/internal/handler/booking"
	chatbotHandler "github.com/tatchunari/neatly-backend/internal/handler/chatbot"
	contentHandler "github.com/tatchunari/neatly-backend/internal/handler/content"
	paymentHandler "github.com/tatchunari/neatly-backend/internal/handler/payment"
	promotionHandler "github.com/tatchunari/neatly-backend/internal/handler/promotion"
	roomHandler "github.com/tatchunari/neatly-backend/internal/handler/room"
	"github.com/tatchunari/neatly-backend/internal/middleware"
	"github.com/tatchunari/neatly-backend/internal/repository"
	adminService "github.com/tatchunari/neatly-backend/internal/service/admin"
	authService "github.com/tatchunari/neatly-backend/internal/service/auth"
	bookingService "github.com/tatchunari/neatly-backend/internal/service/booking"
	catalogService "github.com/tatchunari/neatly-backend/internal/service/catalog"
	chatbotService "github.com/tatchunari/neatly-backend/internal/service/chatbot"
	contentService "github.com/tatchunari/neatly-backend/internal/service/content"
	notificationService "github.com/tatchunari/neatly-backend/internal/service/notification"
	paymentService "github.com/tatchunari/neatly-backend/internal/service/payment"
	promotionService "github.com/tatchunari/neatly-backend/internal/service/promotion"
	"github.com/tatchunari/neatly-backend/pkg/mailer"
	"github.com/tatchunari/neatly-backend/pkg/paygate"
	"github.com/tatchunari/neatly-backend/pkg/sms"
)

// setupRouter 设置路由
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) {
	// 创建 JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	// 初始化仓储
	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	promoRepo := repository.NewPromoRepository(db)
	contentRepo := repository.NewContentRepository(db)
	chatRepo := repository.NewChatRepository(db)

	// 初始化外部服务客户端
	// 未配置网关地址时使用 Mock，便于本地开发
	var processor paygate.Processor
	if cfg.Payment.GatewayURL != "" {
		processor = paygate.NewClient(&paygate.Config{
			BaseURL:    cfg.Payment.GatewayURL,
			MerchantID: cfg.Payment.MerchantID,
			APIKey:     cfg.Payment.APIKey,
			Timeout:    cfg.Payment.GatewayTimeout(),
		})
	} else {
		processor = paygate.NewMockProcessor()
	}

	var mailSender mailer.Sender
	if cfg.Mail.Host != "" {
		mailSender = mailer.NewSMTPSender(&mailer.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			FromName: cfg.Mail.FromName,
		})
	}

	var smsSender sms.Sender
	if cfg.SMS.Enabled {
		aliyunSender, err := sms.NewAliyunSender(&sms.AliyunConfig{
			AccessKeyID:     cfg.SMS.AccessKeyID,
			AccessKeySecret: cfg.SMS.AccessKeySecret,
			SignName:        cfg.SMS.SignName,
		})
		if err != nil {
			logger.Warn("Failed to init SMS sender, SMS notifications disabled", zap.Error(err))
		} else {
			smsSender = aliyunSender
		}
	}

	var idempotency *cache.Idempotency
	if redisClient != nil {
		idempotency = cache.NewIdempotency(redisClient, "payment:idem:", cfg.Payment.IdempotencyDuration())
	}

	// 初始化服务
	notifySvc := notificationService.NewService(mailSender, smsSender)
	promoSvc := promotionService.NewService(promoRepo)
	catalogSvc := catalogService.NewService(roomRepo, bookingRepo)
	bookingSvc := bookingService.NewService(db, bookingRepo, roomRepo, promoSvc, notifySvc)
	paymentSvc := paymentService.NewService(db, paymentRepo, bookingRepo, processor, idempotency, notifySvc, cfg.Payment.PromptPayID)
	bookingSvc.SetRefunder(paymentSvc)

	authSvc := authService.NewService(userRepo, jwtManager)
	contentSvc := contentService.NewService(contentRepo)
	chatbotSvc := chatbotService.NewService(chatRepo, contentRepo)
	dashboardSvc := adminService.NewService(bookingRepo, paymentRepo, roomRepo, userRepo)

	// 初始化处理器
	authH := authHandler.NewHandler(authSvc)
	roomH := roomHandler.NewHandler(catalogSvc, bookingSvc)
	bookingH := bookingHandler.NewHandler(bookingSvc)
	paymentH := paymentHandler.NewHandler(paymentSvc)
	promotionH := promotionHandler.NewHandler(promoSvc)
	contentH := contentHandler.NewHandler(contentSvc)
	chatbotH := chatbotHandler.NewHandler(chatbotSvc)

	adminDashboardH := adminHandler.NewDashboardHandler(dashboardSvc)
	adminRoomH := adminHandler.NewRoomHandler(catalogSvc)
	adminBookingH := adminHandler.NewBookingHandler(bookingSvc)
	adminPaymentH := adminHandler.NewPaymentHandler(paymentSvc)
	adminPromotionH := adminHandler.NewPromotionHandler(promoSvc)
	adminContentH := adminHandler.NewContentHandler(contentSvc)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsConfig = &middleware.CORSConfig{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     cfg.CORS.AllowedMethods,
			AllowHeaders:     cfg.CORS.AllowedHeaders,
			ExposeHeaders:    cfg.CORS.ExposedHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           cfg.CORS.MaxAge,
		}
	}
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.RequestSizeLimiter(1 << 20))
	r.Use(middleware.AccessLog(logger))

	// 指标采集
	if cfg.Metrics.Enabled {
		m := metrics.Init("neatly")
		r.Use(m.Middleware())
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	if cfg.RateLimit.Enabled && redisClient != nil {
		v1.Use(middleware.IPRateLimit(redisClient, cfg.RateLimit.RequestsPerMinute, time.Minute))
	}
	{
		// 公开接口（无需认证）
		public := v1.Group("")
		{
			authH.RegisterRoutes(public)
			roomH.RegisterRoutes(public)
			contentH.RegisterRoutes(public)
			promotionH.RegisterRoutes(public)
		}

		// 聊天机器人（访客可用，登录用户关联账号）
		chat := v1.Group("")
		chat.Use(middleware.OptionalAuth(jwtManager))
		if redisClient != nil {
			chat.Use(middleware.ChatRateLimit(redisClient, 20, time.Minute))
		}
		{
			chatbotH.RegisterRoutes(chat)
		}

		// 用户端接口（需要用户认证）
		user := v1.Group("")
		user.Use(middleware.UserAuth(jwtManager))
		if redisClient != nil {
			user.Use(middleware.UserRateLimit(redisClient, cfg.RateLimit.RequestsPerMinute, time.Minute))
		}
		{
			authH.RegisterProtectedRoutes(user)
			bookingH.RegisterRoutes(user)
			paymentH.RegisterRoutes(user)
		}
	}

	// 管理后台 API
	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuth(jwtManager), middleware.RequireRoles("admin"))
	{
		adminDashboardH.RegisterRoutes(admin)
		adminRoomH.RegisterRoutes(admin)
		adminBookingH.RegisterRoutes(admin)
		adminPaymentH.RegisterRoutes(admin)
		adminPromotionH.RegisterRoutes(admin)
		adminContentH.RegisterRoutes(admin)
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    404,
			"message": "接口不存在",
		})
	})
}
