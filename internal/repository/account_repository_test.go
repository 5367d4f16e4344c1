package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/tablespin/internal/constants"
	"github.com/tablespin/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAccountRepositoryTest(t *testing.T) (*GormAccountRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:account_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Account{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewAccountRepository(db), db
}

func seedAccount(t *testing.T, db *gorm.DB, id uint, points, spins int64) {
	t.Helper()
	account := models.Account{
		ID:           id,
		PublicID:     fmt.Sprintf("ACCT%04d", id),
		Email:        fmt.Sprintf("repo_%d@example.com", id),
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

func TestTryDecrementSpins(t *testing.T) {
	repo, db := setupAccountRepositoryTest(t)
	seedAccount(t, db, 1, 0, 2)

	ok, err := repo.TryDecrementSpins(1, 1)
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if !ok {
		t.Fatalf("decrement with balance must succeed")
	}

	ok, err = repo.TryDecrementSpins(1, 2)
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if ok {
		t.Fatalf("decrement past balance must be refused")
	}

	account, err := repo.GetByID(1)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if account.Spins != 1 {
		t.Fatalf("refused decrement must not change spins, got %d", account.Spins)
	}

	if _, err := repo.TryDecrementSpins(1, 0); err == nil {
		t.Fatalf("non-positive decrement must be rejected")
	}
}

func TestApplyPointsAndSpinsDelta(t *testing.T) {
	repo, db := setupAccountRepositoryTest(t)
	seedAccount(t, db, 1, 100, 1)

	ok, err := repo.ApplyPointsAndSpinsDelta(1, -100, 1)
	if err != nil {
		t.Fatalf("delta failed: %v", err)
	}
	if !ok {
		t.Fatalf("affordable delta must succeed")
	}

	account, err := repo.GetByID(1)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if account.Points != 0 || account.Spins != 2 {
		t.Fatalf("expected 0 points / 2 spins, got %d / %d", account.Points, account.Spins)
	}

	// 任一余额透支则两项都不变
	ok, err = repo.ApplyPointsAndSpinsDelta(1, 50, -3)
	if err != nil {
		t.Fatalf("delta failed: %v", err)
	}
	if ok {
		t.Fatalf("overdraft delta must be refused")
	}
	account, err = repo.GetByID(1)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if account.Points != 0 || account.Spins != 2 {
		t.Fatalf("refused delta must change nothing, got %d / %d", account.Points, account.Spins)
	}
}

func TestGetByPublicID(t *testing.T) {
	repo, db := setupAccountRepositoryTest(t)
	seedAccount(t, db, 5, 0, 0)

	account, err := repo.GetByPublicID("acct0005")
	if err != nil {
		t.Fatalf("get by public id failed: %v", err)
	}
	if account == nil || account.ID != 5 {
		t.Fatalf("lookup must be case insensitive, got %+v", account)
	}

	missing, err := repo.GetByPublicID("ACCT9999")
	if err != nil {
		t.Fatalf("get missing failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing public id must return nil")
	}
}

func TestAccountList(t *testing.T) {
	repo, db := setupAccountRepositoryTest(t)
	seedAccount(t, db, 1, 0, 0)
	seedAccount(t, db, 2, 0, 0)
	staff := models.Account{
		ID:           3,
		PublicID:     "ACCT0003",
		Email:        "staff_repo@example.com",
		PasswordHash: "hash",
		Role:         constants.RoleStaff,
		Status:       constants.AccountStatusActive,
	}
	if err := db.Create(&staff).Error; err != nil {
		t.Fatalf("create staff failed: %v", err)
	}

	accounts, total, err := repo.List(AccountListFilter{Role: constants.RoleCustomer, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(accounts) != 2 {
		t.Fatalf("expected 2 customers, got %d (%d)", len(accounts), total)
	}

	accounts, total, err = repo.List(AccountListFilter{Search: "staff_repo", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 1 || accounts[0].ID != 3 {
		t.Fatalf("search must match email, got %+v (%d)", accounts, total)
	}
}
