package main

import (
	"time"

	"github.com/tablespin/internal/config"
	"github.com/tablespin/internal/constants"
	"github.com/tablespin/internal/logger"
	"github.com/tablespin/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 演示奖池（发布态）
	var existingPool models.PrizePoolVersion
	if err := models.DB.Where("name = ?", "demo-wheel").First(&existingPool).Error; err == nil {
		stdLog.Printf("Demo pool already exists: %d", existingPool.ID)
		return
	}

	now := time.Now()
	pool := models.PrizePoolVersion{
		Name:        "demo-wheel",
		Status:      constants.PoolStatusPublished,
		PublishedAt: &now,
	}
	if err := models.DB.Create(&pool).Error; err != nil {
		stdLog.Fatalf("Failed to create demo pool: %v", err)
	}
	stdLog.Printf("Created demo pool: %d", pool.ID)

	prizes := []models.PrizeDefinition{
		{
			PoolID:         pool.ID,
			Name:           "九五折券",
			Type:           constants.PrizeTypeDiscount,
			Weight:         50,
			Active:         true,
			TotalAvailable: constants.StockUnlimited,
			WinLimit:       constants.WinLimitNone,
			Value:          models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		},
		{
			PoolID:         pool.ID,
			Name:           "免费甜品",
			Type:           constants.PrizeTypeFreeItem,
			Weight:         20,
			Active:         true,
			TotalAvailable: 100,
			WinLimit:       constants.WinLimitDaily,
		},
		{
			PoolID:         pool.ID,
			Name:           "招牌主菜免单",
			Type:           constants.PrizeTypeFreeItem,
			Weight:         2,
			Active:         true,
			TotalAvailable: 5,
			WinLimit:       constants.WinLimitPerUser,
		},
		{
			PoolID:         pool.ID,
			Name:           "谢谢参与",
			Type:           constants.PrizeTypeNoWin,
			Weight:         80,
			Active:         true,
			TotalAvailable: constants.StockUnlimited,
			WinLimit:       constants.WinLimitNone,
		},
	}
	for _, prize := range prizes {
		if err := models.DB.Create(&prize).Error; err != nil {
			stdLog.Printf("Failed to create prize %s: %v", prize.Name, err)
		} else {
			stdLog.Printf("Created prize: %s", prize.Name)
		}
	}

	// 演示账号
	seedAccounts := []struct {
		email  string
		role   string
		points int64
		spins  int64
	}{
		{"customer@example.com", constants.RoleCustomer, 500, 3},
		{"staff@example.com", constants.RoleStaff, 0, 0},
	}
	for _, seed := range seedAccounts {
		var existing models.Account
		if err := models.DB.Where("email = ?", seed.email).First(&existing).Error; err == nil {
			stdLog.Printf("Account already exists: %s", seed.email)
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			stdLog.Printf("Failed to hash password for %s: %v", seed.email, err)
			continue
		}
		account := models.Account{
			PublicID:     models.NewPublicID(),
			Email:        seed.email,
			PasswordHash: string(hash),
			Role:         seed.role,
			Status:       constants.AccountStatusActive,
			Points:       seed.points,
			Spins:        seed.spins,
		}
		if err := models.DB.Create(&account).Error; err != nil {
			stdLog.Printf("Failed to create account %s: %v", seed.email, err)
		} else {
			stdLog.Printf("Created account: %s (%s)", seed.email, account.PublicID)
		}
	}

	stdLog.Printf("Seed completed")
}
