package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tablespin/internal/config"
	"github.com/tablespin/internal/constants"
	"github.com/tablespin/internal/models"
	"github.com/tablespin/internal/queue"
	"github.com/tablespin/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupSpinServiceTest(t *testing.T) (*SpinService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:spin_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Account{},
		&models.PrizePoolVersion{},
		&models.PrizeDefinition{},
		&models.PrizeWin{},
		&models.Coupon{},
		&models.SpinAudit{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{}
	cfg.Wheel.PointsPerSpin = 100
	cfg.Wheel.CommitRetries = 1
	cfg.Wheel.CouponExpireDays = 30

	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("init queue client failed: %v", err)
	}

	svc := NewSpinService(
		cfg,
		repository.NewAccountRepository(db),
		repository.NewPoolRepository(db),
		repository.NewPrizeRepository(db),
		repository.NewCouponRepository(db),
		repository.NewSpinAuditRepository(db),
		queueClient,
	)
	return svc, db
}

func createSpinAccount(t *testing.T, db *gorm.DB, id uint, points, spins int64) {
	t.Helper()
	account := models.Account{
		ID:           id,
		PublicID:     fmt.Sprintf("spin-acct-%d", id),
		Email:        fmt.Sprintf("spin_%d@example.com", id),
		PasswordHash: "hash",
		Role:         constants.RoleCustomer,
		Status:       constants.AccountStatusActive,
		Points:       points,
		Spins:        spins,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create account failed: %v", err)
	}
}

func createPublishedPool(t *testing.T, db *gorm.DB) *models.PrizePoolVersion {
	t.Helper()
	now := time.Now()
	pool := &models.PrizePoolVersion{
		Name:        "测试转盘",
		Status:      constants.PoolStatusPublished,
		PublishedAt: &now,
	}
	if err := db.Create(pool).Error; err != nil {
		t.Fatalf("create pool failed: %v", err)
	}
	return pool
}

func createPrize(t *testing.T, db *gorm.DB, poolID uint, prizeType string, weight, stock int64, winLimit string) *models.PrizeDefinition {
	t.Helper()
	if winLimit == "" {
		winLimit = constants.WinLimitNone
	}
	def := &models.PrizeDefinition{
		PoolID:         poolID,
		Name:           "测试奖品",
		Type:           prizeType,
		Weight:         weight,
		Active:         true,
		TotalAvailable: stock,
		WinLimit:       winLimit,
	}
	if err := db.Create(def).Error; err != nil {
		t.Fatalf("create prize failed: %v", err)
	}
	return def
}

func accountSpins(t *testing.T, db *gorm.DB, id uint) int64 {
	t.Helper()
	var account models.Account
	if err := db.First(&account, id).Error; err != nil {
		t.Fatalf("load account failed: %v", err)
	}
	return account.Spins
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count rows failed: %v", err)
	}
	return count
}

func TestResolveSpinNoPublishedPool(t *testing.T) {
	svc, db := setupSpinServiceTest(t)
	createSpinAccount(t, db, 1, 0, 3)

	if _, err := svc.ResolveSpin(1); !errors.Is(err, ErrNoEligiblePool) {
		t.Fatalf("expected ErrNoEligiblePool, got %v", err)
	}
	if spins := accountSpins(t, db, 1); spins != 3 {
		t.Fatalf("spins must not change on refusal, got %d", spins)
	}
	if count := countRows(t, db, &models.SpinAudit{}); count != 0 {
		t.Fatalf("refusal must not write audit, got %d rows", count)
	}
}

func TestResolveSpinPoolExhaustedFailsClosed(t *testing.T) {
	svc, db := setupSpinServiceTest(t)
	createSpinAccount(t, db, 1, 0, 3)
	pool := createPublishedPool(t, db)
	createPrize(t, db, pool.ID, constants.PrizeTypeFreeItem, 100, 0, "")

	if _, err := svc.ResolveSpin(1); !errors.Is(err, ErrNoEligiblePool) {
		t.Fatalf("expected ErrNoEligiblePool for exhausted pool, got %v", err)
	}
	if spins := accountSpins(t, db, 1); spins != 3 {
		t.Fatalf("spins must not change on refusal, got %d", spins)
	}
}

func TestResolveSpinInsufficientSpins(t *testing.T) {
	svc, db := setupSpinServiceTest(t)
	createSpinAccount(t, db, 1, 500, 0)
	pool := createPublishedPool(t, db)
	createPrize(t, db, pool.ID, constants.PrizeTypeNoWin, 80, constants.StockUnlimited, "")

	if _, err := svc.ResolveSpin(1); !errors.Is(err, ErrInsufficientSpins) {
		t.Fatalf("expected ErrInsufficientSpins, got %v", err)
	}
	if count := countRows(t, db, &models.SpinAudit{}); count != 0 {
		t.Fatalf("failed spin must not write audit, got %d rows", count)
	}
}

func TestResolveSpinWinIssuesCoupon(t *testing.T) {
	svc, db := setupSpinServiceTest(t)
	createSpinAccount(t, db, 1, 200, 2)
	pool := createPublishedPool(t, db)
	prize := createPrize(t, db, pool.ID, constants.PrizeTypeFreeItem, 100, 5, "")

	result, err := svc.ResolveSpin(1)
	if err != nil {
		t.Fatalf("spin failed: %v", err)
	}
	if result.Outcome != constants.SpinOutcomeWin {
		t.Fatalf("single eligible prize must win, got %s", result.Outcome)
	}
	if result.Downgraded {
		t.Fatalf("unexpected downgrade")
	}
	if result.Prize == nil || result.Prize.ID != prize.ID {
		t.Fatalf("unexpected prize in result: %+v", result.Prize)
	}
	if result.Coupon == nil || result.Coupon.Status != constants.CouponStatusActive {
		t.Fatalf("win must issue an active coupon: %+v", result.Coupon)
	}
	if result.Coupon.ExpiresAt == nil {
		t.Fatalf("coupon must carry expiry")
	}
	if result.SpinsAfter != 1 {
		t.Fatalf("expected 1 spin left, got %d", result.SpinsAfter)
	}

	var updated models.PrizeDefinition
	if err := db.First(&updated, prize.ID).Error; err != nil {
		t.Fatalf("load prize failed: %v", err)
	}
	if updated.TotalAvailable != 4 {
		t.Fatalf("stock must decrement to 4, got %d", updated.TotalAvailable)
	}

	var audit models.SpinAudit
	if err := db.Where("account_id = ? AND type = ?", 1, constants.AuditTypeSpin).First(&audit).Error; err != nil {
		t.Fatalf("load audit failed: %v", err)
	}
	if audit.Outcome != constants.SpinOutcomeWin || audit.PrizeID == nil || audit.CouponID == nil {
		t.Fatalf("audit must record win with prize and coupon: %+v", audit)
	}
	if count := countRows(t, db, &models.PrizeWin{}); count != 1 {
		t.Fatalf("win must record a prize_win row, got %d", count)
	}
}

func TestResolveSpinNoWinPlaceholder(t *testing.T) {
	svc, db := setupSpinServiceTest(t)
	createSpinAccount(t, db, 1, 0, 1)
	pool := createPublishedPool(t, db)
	createPrize(t, db, pool.ID, constants.PrizeTypeNoWin, 80, constants.StockUnlimited, "")

	result, err := svc.ResolveSpin(1)
	if err != nil {
		t.Fatalf("spin failed: %v", err)
	}
	if result.Outcome != constants.SpinOutcomeNoWin || result.Downgraded {
		t.Fatalf("placeholder pool must yield plain NO_WIN: %+v", result)
	}
	if result.Coupon != nil {
		t.Fatalf("NO_WIN must not issue coupon")
	}
	if spins := accountSpins(t, db, 1); spins != 0 {
		t.Fatalf("NO_WIN still consumes the spin, got %d left", spins)
	}
	if count := countRows(t, db, &models.Coupon{}); count != 0 {
		t.Fatalf("unexpected coupon rows: %d", count)
	}
}

func TestResolveSpinStockExhaustionFailsClosed(t *testing.T) {
	svc, db := setupSpinServiceTest(t)
	createSpinAccount(t, db, 1, 0, 2)
	pool := createPublishedPool(t, db)
	createPrize(t, db, pool.ID, constants.PrizeTypeFreeItem, 100, 1, "")

	first, err := svc.ResolveSpin(1)
	if err != nil {
		t.Fatalf("first spin failed: %v", err)
	}
	if first.Outcome != constants.SpinOutcomeWin {
		t.Fatalf("first spin must win, got %s", first.Outcome)
	}

	if _, err := svc.ResolveSpin(1); !errors.Is(err, ErrNoEligiblePool) {
		t.Fatalf("empty pool must fail closed, got %v", err)
	}
	if spins := accountSpins(t, db, 1); spins != 1 {
		t.Fatalf("refused spin must not be consumed, got %d left", spins)
	}
	if count := countRows(t, db, &models.Coupon{}); count != 1 {
		t.Fatalf("stock 1 must cap coupons at 1, got %d", count)
	}
}

func TestResolveSpinStockCapsCoupons(t *testing.T) {
	svc, db := setupSpinServiceTest(t)
	createSpinAccount(t, db, 1, 0, 6)
	pool := createPublishedPool(t, db)
	createPrize(t, db, pool.ID, constants.PrizeTypeFreeItem, 40, 2, "")
	createPrize(t, db, pool.ID, constants.PrizeTypeNoWin, 60, constants.StockUnlimited, "")

	for i := 0; i < 6; i++ {
		if _, err := svc.ResolveSpin(1); err != nil {
			t.Fatalf("spin %d failed: %v", i+1, err)
		}
	}
	if spins := accountSpins(t, db, 1); spins != 0 {
		t.Fatalf("all spins must be consumed, got %d left", spins)
	}
	if count := countRows(t, db, &models.Coupon{}); count > 2 {
		t.Fatalf("coupons must never exceed stock, got %d", count)
	}
	if count := countRows(t, db, &models.SpinAudit{}); count != 6 {
		t.Fatalf("every spin must be audited, got %d rows", count)
	}
}

func TestResolveSpinPerUserWinLimit(t *testing.T) {
	svc, db := setupSpinServiceTest(t)
	createSpinAccount(t, db, 1, 0, 2)
	pool := createPublishedPool(t, db)
	createPrize(t, db, pool.ID, constants.PrizeTypeFreeItem, 100, constants.StockUnlimited, constants.WinLimitPerUser)

	first, err := svc.ResolveSpin(1)
	if err != nil {
		t.Fatalf("first spin failed: %v", err)
	}
	if first.Outcome != constants.SpinOutcomeWin {
		t.Fatalf("first spin must win, got %s", first.Outcome)
	}

	second, err := svc.ResolveSpin(1)
	if err != nil {
		t.Fatalf("second spin failed: %v", err)
	}
	if second.Outcome != constants.SpinOutcomeNoWin {
		t.Fatalf("per-user limit must force NO_WIN, got %s", second.Outcome)
	}
	if spins := accountSpins(t, db, 1); spins != 0 {
		t.Fatalf("limited spin still consumes the attempt, got %d left", spins)
	}
	if count := countRows(t, db, &models.Coupon{}); count != 1 {
		t.Fatalf("per-user limit must cap coupons at 1, got %d", count)
	}
}

func TestResolveSpinDailyWinLimit(t *testing.T) {
	svc, db := setupSpinServiceTest(t)
	createSpinAccount(t, db, 1, 0, 1)
	pool := createPublishedPool(t, db)
	prize := createPrize(t, db, pool.ID, constants.PrizeTypeFreeItem, 100, constants.StockUnlimited, constants.WinLimitDaily)

	// 昨天的中奖不占用今天的限额
	yesterday := models.PrizeWin{PrizeID: prize.ID, AccountID: 1, WonAt: time.Now().Add(-24 * time.Hour)}
	if err := db.Create(&yesterday).Error; err != nil {
		t.Fatalf("seed win failed: %v", err)
	}

	result, err := svc.ResolveSpin(1)
	if err != nil {
		t.Fatalf("spin failed: %v", err)
	}
	if result.Outcome != constants.SpinOutcomeWin {
		t.Fatalf("yesterday's win must not block today, got %s", result.Outcome)
	}
}

func TestResolveSpinDailyWinLimitExhausted(t *testing.T) {
	svc, db := setupSpinServiceTest(t)
	createSpinAccount(t, db, 1, 0, 1)
	pool := createPublishedPool(t, db)
	prize := createPrize(t, db, pool.ID, constants.PrizeTypeFreeItem, 100, constants.StockUnlimited, constants.WinLimitDaily)

	today := models.PrizeWin{PrizeID: prize.ID, AccountID: 1, WonAt: time.Now()}
	if err := db.Create(&today).Error; err != nil {
		t.Fatalf("seed win failed: %v", err)
	}

	result, err := svc.ResolveSpin(1)
	if err != nil {
		t.Fatalf("spin failed: %v", err)
	}
	if result.Outcome != constants.SpinOutcomeNoWin {
		t.Fatalf("daily limit must force NO_WIN, got %s", result.Outcome)
	}
	if spins := accountSpins(t, db, 1); spins != 0 {
		t.Fatalf("limited spin still consumes the attempt, got %d left", spins)
	}
}

// stubPrizeRepo 模拟提交时库存竞争：事务内扣库存总是失败
type stubPrizeRepo struct {
	repository.PrizeRepository
}

func (s *stubPrizeRepo) TryDecrementStock(prizeID uint) (bool, error) {
	return false, nil
}

func (s *stubPrizeRepo) WithTx(tx *gorm.DB) repository.PrizeRepository {
	return &stubPrizeRepo{PrizeRepository: s.PrizeRepository.WithTx(tx)}
}

func TestResolveSpinDowngradeOnStockContention(t *testing.T) {
	svc, db := setupSpinServiceTest(t)
	createSpinAccount(t, db, 1, 0, 1)
	pool := createPublishedPool(t, db)
	createPrize(t, db, pool.ID, constants.PrizeTypeFreeItem, 100, 3, "")
	svc.prizeRepo = &stubPrizeRepo{PrizeRepository: svc.prizeRepo}

	result, err := svc.ResolveSpin(1)
	if err != nil {
		t.Fatalf("spin failed: %v", err)
	}
	if result.Outcome != constants.SpinOutcomeNoWin {
		t.Fatalf("contention must downgrade to NO_WIN, got %s", result.Outcome)
	}
	if !result.Downgraded {
		t.Fatalf("downgrade flag must be set")
	}
	if result.Coupon != nil {
		t.Fatalf("downgraded spin must not issue coupon")
	}
	if spins := accountSpins(t, db, 1); spins != 0 {
		t.Fatalf("downgraded spin still consumes the attempt, got %d left", spins)
	}

	var audit models.SpinAudit
	if err := db.Where("account_id = ?", 1).First(&audit).Error; err != nil {
		t.Fatalf("load audit failed: %v", err)
	}
	if !audit.Downgraded || audit.Outcome != constants.SpinOutcomeNoWin {
		t.Fatalf("audit must record the downgrade: %+v", audit)
	}
}

// failingCouponRepo 模拟发券失败，验证整个提交回滚
type failingCouponRepo struct {
	repository.CouponRepository
}

func (f *failingCouponRepo) Create(coupon *models.Coupon) error {
	return errors.New("发券失败")
}

func (f *failingCouponRepo) WithTx(tx *gorm.DB) repository.CouponRepository {
	return &failingCouponRepo{CouponRepository: f.CouponRepository.WithTx(tx)}
}

func TestResolveSpinRollbackOnCouponFailure(t *testing.T) {
	svc, db := setupSpinServiceTest(t)
	createSpinAccount(t, db, 1, 0, 2)
	pool := createPublishedPool(t, db)
	prize := createPrize(t, db, pool.ID, constants.PrizeTypeFreeItem, 100, 5, "")
	svc.couponRepo = &failingCouponRepo{CouponRepository: svc.couponRepo}

	if _, err := svc.ResolveSpin(1); err == nil {
		t.Fatalf("coupon failure must surface as error")
	}
	if spins := accountSpins(t, db, 1); spins != 2 {
		t.Fatalf("failed commit must roll back spin decrement, got %d", spins)
	}
	var updated models.PrizeDefinition
	if err := db.First(&updated, prize.ID).Error; err != nil {
		t.Fatalf("load prize failed: %v", err)
	}
	if updated.TotalAvailable != 5 {
		t.Fatalf("failed commit must roll back stock, got %d", updated.TotalAvailable)
	}
	if count := countRows(t, db, &models.SpinAudit{}); count != 0 {
		t.Fatalf("failed commit must roll back audit, got %d rows", count)
	}
	if count := countRows(t, db, &models.PrizeWin{}); count != 0 {
		t.Fatalf("failed commit must roll back win record, got %d rows", count)
	}
}

func TestResolveSpinExhaustsBalance(t *testing.T) {
	svc, db := setupSpinServiceTest(t)
	createSpinAccount(t, db, 1, 0, 2)
	pool := createPublishedPool(t, db)
	createPrize(t, db, pool.ID, constants.PrizeTypeNoWin, 80, constants.StockUnlimited, "")

	for i := 0; i < 2; i++ {
		if _, err := svc.ResolveSpin(1); err != nil {
			t.Fatalf("spin %d failed: %v", i+1, err)
		}
	}
	if _, err := svc.ResolveSpin(1); !errors.Is(err, ErrInsufficientSpins) {
		t.Fatalf("expected ErrInsufficientSpins after exhaustion, got %v", err)
	}
	if spins := accountSpins(t, db, 1); spins != 0 {
		t.Fatalf("spins must never go negative, got %d", spins)
	}
	if count := countRows(t, db, &models.SpinAudit{}); count != 2 {
		t.Fatalf("only successful spins are audited, got %d rows", count)
	}
}
