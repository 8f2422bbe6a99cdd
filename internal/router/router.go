package router

import (
	"fmt"
	"strings"

	"github.com/freightlane/internal/cache"
	"github.com/freightlane/internal/config"
	"github.com/freightlane/internal/constants"
	adminhandlers "github.com/freightlane/internal/http/handlers/admin"
	publichandlers "github.com/freightlane/internal/http/handlers/public"
	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/metrics"
	"github.com/freightlane/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	otpVerifyRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:otp_verify", redisPrefix),
		WindowSeconds: cfg.Security.OtpVerifyRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.OtpVerifyRateLimit.MaxRequests,
	}
	otpRequestRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:otp_request", redisPrefix),
		WindowSeconds: cfg.Security.OtpRequestRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.OtpRequestRateLimit.MaxRequests,
	}

	// 中间件
	metricsPath := strings.TrimSpace(cfg.Metrics.Path)
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware(log, "/health", metricsPath))
	r.Use(CORSMiddleware(cfg.CORS))
	if cfg.Metrics.Enabled {
		r.Use(metrics.GinMiddleware())
		r.GET(metricsPath, gin.WrapH(metrics.Handler()))
	}

	apiV1 := r.Group("/api/v1")
	apiV1.Use(ActorAuthMiddleware(c.TokenService))
	{
		// 货源
		apiV1.POST("/loads", publicHandler.CreateLoad)
		apiV1.GET("/loads", publicHandler.ListLoads)
		apiV1.GET("/loads/:id", publicHandler.GetLoad)
		apiV1.PATCH("/loads/:id/status", publicHandler.UpdateLoadStatus)
		apiV1.POST("/loads/:id/cancel", publicHandler.CancelLoad)
		apiV1.POST("/loads/:id/unavailable", publicHandler.MakeLoadUnavailable)
		apiV1.POST("/loads/:id/resubmit", publicHandler.ResubmitLoad)
		apiV1.GET("/loads/:id/shipment", publicHandler.GetLoadShipment)
		apiV1.GET("/loads/:id/invoice", publicHandler.GetLoadInvoice)

		// 报价
		apiV1.POST("/loads/:id/bids", publicHandler.CreateBid)
		apiV1.GET("/loads/:id/bids", publicHandler.ListLoadBids)
		apiV1.GET("/bids", publicHandler.ListBids)
		apiV1.POST("/bids/:id/accept", publicHandler.AcceptBid)
		apiV1.POST("/bids/:id/accept-counter", publicHandler.AcceptCounter)
		apiV1.POST("/bids/:id/counter", publicHandler.CounterBid)
		apiV1.POST("/bids/:id/reject", publicHandler.RejectBid)
		apiV1.POST("/bids/:id/reject-counter", publicHandler.RejectCounter)
		apiV1.POST("/bids/:id/withdraw", publicHandler.WithdrawBid)

		// 运单与验证码
		apiV1.GET("/shipments/:id", publicHandler.GetShipment)
		apiV1.PUT("/shipments/:id/resources", publicHandler.AssignShipmentResources)
		apiV1.POST("/shipments/:id/otp-requests", RateLimitMiddleware(redisClient, otpRequestRule, KeyByActorAndParam("id")), publicHandler.RequestOtp)
		apiV1.POST("/shipments/:id/otp/verify", RateLimitMiddleware(redisClient, otpVerifyRule, KeyByActorAndParam("id")), publicHandler.VerifyOtp)

		// 账单
		apiV1.GET("/invoices/:id", publicHandler.GetInvoice)
		apiV1.POST("/invoices/:id/acknowledge", publicHandler.AcknowledgeInvoice)

		// 证件与车队
		apiV1.POST("/documents", publicHandler.RegisterDocument)
		apiV1.GET("/documents", publicHandler.ListDocuments)
		apiV1.GET("/carriers/:id", publicHandler.GetCarrier)
		apiV1.GET("/carriers/:id/compliance", publicHandler.GetComplianceRecord)
		apiV1.GET("/carriers/:id/trucks", publicHandler.ListCarrierTrucks)
		apiV1.GET("/carriers/:id/drivers", publicHandler.ListCarrierDrivers)

		// 实时推送
		apiV1.GET("/ws", publicHandler.ServeEvents)

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(RequireRoles(constants.RoleAdmin))
		{
			admin.POST("/loads/:id/price", adminHandler.PriceLoad)
			admin.POST("/loads/:id/post", adminHandler.PostLoad)
			admin.POST("/loads/:id/open", adminHandler.OpenLoadForBids)
			admin.POST("/loads/:id/close", adminHandler.CloseLoad)
			admin.POST("/loads/:id/invoice", adminHandler.CreateInvoice)
			admin.GET("/transitions", adminHandler.ListTransitionHistory)

			admin.GET("/otp-requests", adminHandler.ListOtpRequests)
			admin.POST("/otp-requests/:id/approve", adminHandler.ApproveOtp)
			admin.POST("/otp-requests/:id/regenerate", adminHandler.RegenerateOtp)
			admin.POST("/otp-requests/:id/reject", adminHandler.RejectOtp)

			admin.POST("/invoices/:id/send", adminHandler.SendInvoice)
			admin.POST("/invoices/:id/paid", adminHandler.MarkInvoicePaid)

			admin.POST("/carriers", adminHandler.CreateCarrier)
			admin.PUT("/carriers/:id/status", adminHandler.SetCarrierStatus)
			admin.POST("/trucks", adminHandler.CreateTruck)
			admin.POST("/drivers", adminHandler.CreateDriver)

			// 权限管理
			admin.GET("/authz/catalog", adminHandler.GetAuthzCatalog)
			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
