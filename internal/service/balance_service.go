package service

import (
	"fmt"

	"github.com/tablespin/internal/config"
	"github.com/tablespin/internal/constants"
	"github.com/tablespin/internal/models"
	"github.com/tablespin/internal/repository"

	"gorm.io/gorm"
)

// BalanceService 积分与抽奖次数余额服务
type BalanceService struct {
	cfg         *config.Config
	accountRepo repository.AccountRepository
	auditRepo   repository.SpinAuditRepository
}

// NewBalanceService 创建余额服务
func NewBalanceService(cfg *config.Config, accountRepo repository.AccountRepository, auditRepo repository.SpinAuditRepository) *BalanceService {
	return &BalanceService{
		cfg:         cfg,
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
	}
}

// Balance 账号余额快照
type Balance struct {
	AccountID     uint  `json:"account_id"`
	Points        int64 `json:"points"`
	Spins         int64 `json:"spins"`
	PointsPerSpin int64 `json:"points_per_spin"`
}

// GetBalance 获取账号当前余额
func (s *BalanceService) GetBalance(accountID uint) (*Balance, error) {
	account, err := s.accountRepo.GetByID(accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return &Balance{
		AccountID:     account.ID,
		Points:        account.Points,
		Spins:         account.Spins,
		PointsPerSpin: s.pointsPerSpin(),
	}, nil
}

// ConvertPoints 将积分兑换为抽奖次数。兑换按整次进行，
// 积分不足以覆盖请求的全部次数时整体拒绝，不做部分兑换。
func (s *BalanceService) ConvertPoints(accountID uint, spins int64) (*Balance, error) {
	if accountID == 0 {
		return nil, ErrAccountNotFound
	}
	if spins <= 0 {
		return nil, ErrInvalidSpinCount
	}
	rate := s.pointsPerSpin()
	cost := rate * spins

	var balance *Balance
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		accountRepo := s.accountRepo.WithTx(tx)
		exist, err := accountRepo.GetByID(accountID)
		if err != nil {
			return err
		}
		if exist == nil {
			return ErrAccountNotFound
		}
		ok, err := accountRepo.ApplyPointsAndSpinsDelta(accountID, -cost, spins)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientPoints
		}
		account, err := accountRepo.GetByID(accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrAccountNotFound
		}
		if err := s.auditRepo.WithTx(tx).Append(&models.SpinAudit{
			AccountID:   accountID,
			Type:        constants.AuditTypeConvert,
			PointsAfter: account.Points,
			SpinsAfter:  account.Spins,
			Remark:      fmt.Sprintf("convert %d points to %d spins", cost, spins),
		}); err != nil {
			return err
		}
		balance = &Balance{
			AccountID:     account.ID,
			Points:        account.Points,
			Spins:         account.Spins,
			PointsPerSpin: rate,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// AwardPoints 员工为顾客发放消费积分
func (s *BalanceService) AwardPoints(accountID uint, points int64, remark string) (*Balance, error) {
	if points <= 0 {
		return nil, ErrInvalidPointsDelta
	}
	return s.applyDelta(accountID, points, 0, constants.AuditTypeAwardPoints, remark)
}

// AdminAdjust 管理员调整积分或抽奖次数，可正可负，
// 任一余额会变为负数时整体拒绝。
func (s *BalanceService) AdminAdjust(accountID uint, pointsDelta, spinsDelta int64, remark string) (*Balance, error) {
	if pointsDelta == 0 && spinsDelta == 0 {
		return nil, ErrInvalidPointsDelta
	}
	return s.applyDelta(accountID, pointsDelta, spinsDelta, constants.AuditTypeAdminAdjust, remark)
}

func (s *BalanceService) applyDelta(accountID uint, pointsDelta, spinsDelta int64, auditType, remark string) (*Balance, error) {
	if accountID == 0 {
		return nil, ErrAccountNotFound
	}
	var balance *Balance
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		accountRepo := s.accountRepo.WithTx(tx)
		exist, err := accountRepo.GetByID(accountID)
		if err != nil {
			return err
		}
		if exist == nil {
			return ErrAccountNotFound
		}
		ok, err := accountRepo.ApplyPointsAndSpinsDelta(accountID, pointsDelta, spinsDelta)
		if err != nil {
			return err
		}
		if !ok {
			return ErrBalanceWouldGoNegative
		}
		account, err := accountRepo.GetByID(accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrAccountNotFound
		}
		if err := s.auditRepo.WithTx(tx).Append(&models.SpinAudit{
			AccountID:   accountID,
			Type:        auditType,
			PointsAfter: account.Points,
			SpinsAfter:  account.Spins,
			Remark:      remark,
		}); err != nil {
			return err
		}
		balance = &Balance{
			AccountID:     account.ID,
			Points:        account.Points,
			Spins:         account.Spins,
			PointsPerSpin: s.pointsPerSpin(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

func (s *BalanceService) pointsPerSpin() int64 {
	rate := s.cfg.Wheel.PointsPerSpin
	if rate <= 0 {
		rate = 100
	}
	return rate
}
