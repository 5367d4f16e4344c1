package router

import (
	"fmt"
	"strings"

	"github.com/tablespin/internal/cache"
	"github.com/tablespin/internal/config"
	adminhandlers "github.com/tablespin/internal/http/handlers/admin"
	publichandlers "github.com/tablespin/internal/http/handlers/public"
	staffhandlers "github.com/tablespin/internal/http/handlers/staff"
	"github.com/tablespin/internal/logger"
	"github.com/tablespin/internal/provider"

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
	staffHandler := staffhandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ts"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "登录尝试过于频繁",
	}
	spinRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:spin", redisPrefix),
		WindowSeconds: cfg.Security.SpinRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.SpinRateLimit.MaxAttempts,
		Message:       "抽奖请求过于频繁",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// 顾客接口（需鉴权）
		customer := apiV1.Group("")
		customer.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AccountRepo))
		{
			customer.GET("/me", publicHandler.GetMe)
			customer.GET("/wheel", publicHandler.GetWheel)
			customer.POST("/spin", RateLimitMiddleware(redisClient, spinRule, KeyByAccountID), publicHandler.Spin)
			customer.GET("/balance", publicHandler.GetBalance)
			customer.POST("/balance/convert", publicHandler.ConvertPoints)
			customer.GET("/coupons", publicHandler.ListMyCoupons)
			customer.GET("/spins", publicHandler.ListSpinHistory)
		}

		// 员工接口（需鉴权 + RBAC）
		staff := apiV1.Group("/staff")
		staff.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AccountRepo))
		staff.Use(RBACMiddleware(c.AuthzService))
		{
			staff.GET("/coupons/:code", staffHandler.GetCoupon)
			staff.POST("/coupons/:code/redeem", staffHandler.RedeemCoupon)
			staff.GET("/accounts/:public_id", staffHandler.GetAccountByPublicID)
			staff.POST("/accounts/:public_id/award-points", staffHandler.AwardPoints)
			staff.GET("/redemptions", staffHandler.ListRedemptions)
		}

		// 管理接口（需鉴权 + RBAC）
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AccountRepo))
		admin.Use(RBACMiddleware(c.AuthzService))
		{
			admin.GET("/pools", adminHandler.ListPools)
			admin.POST("/pools", adminHandler.CreatePool)
			admin.GET("/pools/:id", adminHandler.GetPool)
			admin.POST("/pools/:id/publish", adminHandler.PublishPool)
			admin.POST("/pools/:id/prizes", adminHandler.AddPrize)
			admin.PUT("/pools/:id/prizes/:prize_id", adminHandler.UpdatePrize)
			admin.DELETE("/pools/:id/prizes/:prize_id", adminHandler.RemovePrize)

			admin.GET("/accounts", adminHandler.ListAccounts)
			admin.POST("/accounts", adminHandler.CreateStaff)
			admin.PUT("/accounts/:id/status", adminHandler.SetAccountStatus)
			admin.POST("/accounts/:id/adjust", adminHandler.AdjustBalance)

			admin.GET("/audits", adminHandler.ListAudits)
			admin.GET("/coupons", adminHandler.ListCoupons)

			admin.GET("/authz/roles", adminHandler.ListRoles)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetRolePolicies)
			admin.POST("/authz/roles/:role/policies", adminHandler.GrantRolePolicy)
			admin.DELETE("/authz/roles/:role/policies", adminHandler.RevokeRolePolicy)
		}
	}

	return r
}
