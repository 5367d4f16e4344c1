package provider

import (
	"github.com/tablespin/internal/authz"
	"github.com/tablespin/internal/cache"
	"github.com/tablespin/internal/config"
	"github.com/tablespin/internal/logger"
	"github.com/tablespin/internal/models"
	"github.com/tablespin/internal/queue"
	"github.com/tablespin/internal/repository"
	"github.com/tablespin/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AccountRepo repository.AccountRepository
	PoolRepo    repository.PoolRepository
	PrizeRepo   repository.PrizeRepository
	CouponRepo  repository.CouponRepository
	AuditRepo   repository.SpinAuditRepository

	// Services
	AuthzService   *authz.Service
	AuthService    *service.AuthService
	BalanceService *service.BalanceService
	SpinService    *service.SpinService
	CouponService  *service.CouponService
	PoolService    *service.PoolService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AccountRepo = repository.NewAccountRepository(db)
	c.PoolRepo = repository.NewPoolRepository(db)
	c.PrizeRepo = repository.NewPrizeRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.AuditRepo = repository.NewSpinAuditRepository(db)
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

	c.AuthService = service.NewAuthService(c.Config, c.AccountRepo)
	c.BalanceService = service.NewBalanceService(c.Config, c.AccountRepo, c.AuditRepo)
	c.SpinService = service.NewSpinService(
		c.Config,
		c.AccountRepo,
		c.PoolRepo,
		c.PrizeRepo,
		c.CouponRepo,
		c.AuditRepo,
		c.QueueClient,
	)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.PrizeRepo, c.AuditRepo)
	c.PoolService = service.NewPoolService(c.PoolRepo, c.PrizeRepo)
}
