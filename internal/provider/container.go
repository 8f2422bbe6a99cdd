package provider

import (
	"time"

	"github.com/freightlane/internal/authz"
	"github.com/freightlane/internal/cache"
	"github.com/freightlane/internal/config"
	"github.com/freightlane/internal/events"
	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/queue"
	"github.com/freightlane/internal/repository"
	"github.com/freightlane/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	EventBus    *events.Bus
	Hub         *events.Hub
	KafkaSink   *events.KafkaSink

	// Repositories
	LoadRepo          repository.LoadRepository
	BidRepo           repository.BidRepository
	ShipmentRepo      repository.ShipmentRepository
	OtpRepo           repository.OtpRepository
	InvoiceRepo       repository.InvoiceRepository
	DocumentRepo      repository.DocumentRepository
	FleetRepo         repository.FleetRepository
	TransitionLogRepo repository.TransitionLogRepository

	// Services
	AuthzService      *authz.Service
	TokenService      *service.TokenService
	ComplianceService *service.ComplianceService
	LoadService       *service.LoadService
	BidService        *service.BidService
	ShipmentService   *service.ShipmentService
	OtpService        *service.OtpService
	InvoiceService    *service.InvoiceService
	DocumentService   *service.DocumentService
	FleetService      *service.FleetService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initEvents()
	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initEvents() {
	c.EventBus = events.NewBus(events.WithRedelivery(c.QueueClient))

	wsCfg := c.Config.Events.Websocket
	if wsCfg.Enabled {
		c.Hub = events.NewHub(
			time.Duration(wsCfg.WriteTimeoutSeconds)*time.Second,
			time.Duration(wsCfg.PongWaitSeconds)*time.Second,
		)
		c.EventBus.Subscribe(c.Hub)
	}

	kafkaCfg := c.Config.Events.Kafka
	if kafkaCfg.Enabled && len(kafkaCfg.Brokers) > 0 {
		c.KafkaSink = events.NewKafkaSink(kafkaCfg.Brokers, kafkaCfg.Topic)
		c.EventBus.Subscribe(c.KafkaSink)
		logger.Infow("provider_kafka_sink_enabled", "brokers", kafkaCfg.Brokers, "topic", kafkaCfg.Topic)
	}
}

func (c *Container) initRepositories() {
	db := models.DB
	c.LoadRepo = repository.NewLoadRepository(db)
	c.BidRepo = repository.NewBidRepository(db)
	c.ShipmentRepo = repository.NewShipmentRepository(db)
	c.OtpRepo = repository.NewOtpRepository(db)
	c.InvoiceRepo = repository.NewInvoiceRepository(db)
	c.DocumentRepo = repository.NewDocumentRepository(db)
	c.FleetRepo = repository.NewFleetRepository(db)
	c.TransitionLogRepo = repository.NewTransitionLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	publisher := c.EventBus
	c.TokenService = service.NewTokenService(c.Config.JWT)
	c.ComplianceService = service.NewComplianceService(c.DocumentRepo, c.FleetRepo, c.Config.Compliance)
	c.LoadService = service.NewLoadService(c.LoadRepo, c.BidRepo, c.ShipmentRepo, c.InvoiceRepo, c.TransitionLogRepo, c.AuthzService, publisher, c.Config.Lifecycle)
	c.BidService = service.NewBidService(c.LoadRepo, c.BidRepo, c.ShipmentRepo, c.FleetRepo, c.TransitionLogRepo, c.ComplianceService, c.AuthzService, publisher)
	c.ShipmentService = service.NewShipmentService(c.ShipmentRepo, c.LoadRepo, c.FleetRepo, c.AuthzService)
	c.OtpService = service.NewOtpService(c.OtpRepo, c.ShipmentRepo, c.LoadRepo, c.FleetRepo, c.TransitionLogRepo, c.ComplianceService, c.AuthzService, publisher, c.Config.Otp)
	c.InvoiceService = service.NewInvoiceService(c.InvoiceRepo, c.LoadRepo, c.TransitionLogRepo, c.AuthzService, publisher)
	c.DocumentService = service.NewDocumentService(c.DocumentRepo, c.FleetRepo, c.ComplianceService, c.AuthzService, publisher)
	c.FleetService = service.NewFleetService(c.FleetRepo, c.AuthzService)
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.KafkaSink != nil {
		if err := c.KafkaSink.Close(); err != nil {
			logger.Warnw("provider_close_kafka_failed", "error", err)
		}
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
