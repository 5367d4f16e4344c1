package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tablespin/internal/config"
	"github.com/tablespin/internal/constants"
	"github.com/tablespin/internal/models"
	"github.com/tablespin/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupBalanceServiceTest(t *testing.T) (*BalanceService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:balance_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Account{}, &models.SpinAudit{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{}
	cfg.Wheel.PointsPerSpin = 100

	svc := NewBalanceService(cfg, repository.NewAccountRepository(db), repository.NewSpinAuditRepository(db))
	return svc, db
}

func createBalanceAccount(t *testing.T, db *gorm.DB, id uint, points, spins int64) {
	t.Helper()
	account := models.Account{
		ID:           id,
		PublicID:     fmt.Sprintf("bal-acct-%d", id),
		Email:        fmt.Sprintf("balance_%d@example.com", id),
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

func TestConvertPoints(t *testing.T) {
	svc, db := setupBalanceServiceTest(t)
	createBalanceAccount(t, db, 1, 250, 0)

	balance, err := svc.ConvertPoints(1, 1)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if balance.Points != 150 || balance.Spins != 1 {
		t.Fatalf("expected 150 points / 1 spin, got %d / %d", balance.Points, balance.Spins)
	}

	var audit models.SpinAudit
	if err := db.Where("account_id = ? AND type = ?", 1, constants.AuditTypeConvert).First(&audit).Error; err != nil {
		t.Fatalf("load audit failed: %v", err)
	}
	if audit.PointsAfter != 150 || audit.SpinsAfter != 1 {
		t.Fatalf("audit balances wrong: %+v", audit)
	}
}

func TestConvertPointsInsufficient(t *testing.T) {
	svc, db := setupBalanceServiceTest(t)
	createBalanceAccount(t, db, 1, 250, 0)

	if _, err := svc.ConvertPoints(1, 3); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}

	var account models.Account
	if err := db.First(&account, 1).Error; err != nil {
		t.Fatalf("load account failed: %v", err)
	}
	if account.Points != 250 || account.Spins != 0 {
		t.Fatalf("partial conversion is forbidden, got %d / %d", account.Points, account.Spins)
	}
	var count int64
	if err := db.Model(&models.SpinAudit{}).Count(&count).Error; err != nil {
		t.Fatalf("count audits failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed conversion must not be audited, got %d rows", count)
	}
}

func TestConvertPointsInvalidInput(t *testing.T) {
	svc, db := setupBalanceServiceTest(t)
	createBalanceAccount(t, db, 1, 250, 0)

	if _, err := svc.ConvertPoints(1, 0); !errors.Is(err, ErrInvalidSpinCount) {
		t.Fatalf("expected ErrInvalidSpinCount, got %v", err)
	}
	if _, err := svc.ConvertPoints(1, -2); !errors.Is(err, ErrInvalidSpinCount) {
		t.Fatalf("expected ErrInvalidSpinCount, got %v", err)
	}
	if _, err := svc.ConvertPoints(99, 1); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAwardPoints(t *testing.T) {
	svc, db := setupBalanceServiceTest(t)
	createBalanceAccount(t, db, 1, 40, 0)

	balance, err := svc.AwardPoints(1, 60, "堂食消费")
	if err != nil {
		t.Fatalf("award failed: %v", err)
	}
	if balance.Points != 100 {
		t.Fatalf("expected 100 points, got %d", balance.Points)
	}

	if _, err := svc.AwardPoints(1, 0, ""); !errors.Is(err, ErrInvalidPointsDelta) {
		t.Fatalf("expected ErrInvalidPointsDelta, got %v", err)
	}
	if _, err := svc.AwardPoints(1, -5, ""); !errors.Is(err, ErrInvalidPointsDelta) {
		t.Fatalf("expected ErrInvalidPointsDelta for negative award, got %v", err)
	}

	var audit models.SpinAudit
	if err := db.Where("type = ?", constants.AuditTypeAwardPoints).First(&audit).Error; err != nil {
		t.Fatalf("load audit failed: %v", err)
	}
	if audit.Remark != "堂食消费" {
		t.Fatalf("audit remark wrong: %q", audit.Remark)
	}
}

func TestAdminAdjust(t *testing.T) {
	svc, db := setupBalanceServiceTest(t)
	createBalanceAccount(t, db, 1, 100, 2)

	balance, err := svc.AdminAdjust(1, -30, 1, "人工修正")
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if balance.Points != 70 || balance.Spins != 3 {
		t.Fatalf("expected 70 points / 3 spins, got %d / %d", balance.Points, balance.Spins)
	}

	if _, err := svc.AdminAdjust(1, -200, 0, "超扣"); !errors.Is(err, ErrBalanceWouldGoNegative) {
		t.Fatalf("expected ErrBalanceWouldGoNegative, got %v", err)
	}
	if _, err := svc.AdminAdjust(1, 0, -10, "超扣"); !errors.Is(err, ErrBalanceWouldGoNegative) {
		t.Fatalf("expected ErrBalanceWouldGoNegative, got %v", err)
	}
	if _, err := svc.AdminAdjust(1, 0, 0, ""); !errors.Is(err, ErrInvalidPointsDelta) {
		t.Fatalf("expected ErrInvalidPointsDelta for empty adjust, got %v", err)
	}

	var account models.Account
	if err := db.First(&account, 1).Error; err != nil {
		t.Fatalf("load account failed: %v", err)
	}
	if account.Points != 70 || account.Spins != 3 {
		t.Fatalf("rejected adjusts must not change balances, got %d / %d", account.Points, account.Spins)
	}
}

func TestGetBalance(t *testing.T) {
	svc, db := setupBalanceServiceTest(t)
	createBalanceAccount(t, db, 1, 500, 3)

	balance, err := svc.GetBalance(1)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance.Points != 500 || balance.Spins != 3 || balance.PointsPerSpin != 100 {
		t.Fatalf("unexpected balance: %+v", balance)
	}

	if _, err := svc.GetBalance(42); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
