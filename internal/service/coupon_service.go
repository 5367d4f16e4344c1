package service

import (
	"strings"
	"time"

	"github.com/tablespin/internal/constants"
	"github.com/tablespin/internal/logger"
	"github.com/tablespin/internal/models"
	"github.com/tablespin/internal/repository"
)

// CouponService 优惠券查询与核销服务
type CouponService struct {
	couponRepo repository.CouponRepository
	prizeRepo  repository.PrizeRepository
	auditRepo  repository.SpinAuditRepository
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository, prizeRepo repository.PrizeRepository, auditRepo repository.SpinAuditRepository) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		prizeRepo:  prizeRepo,
		auditRepo:  auditRepo,
	}
}

// CouponDetail 券与奖品聚合视图
type CouponDetail struct {
	Coupon *models.Coupon          `json:"coupon"`
	Prize  *models.PrizeDefinition `json:"prize,omitempty"`
}

// GetByCode 按券码查询券详情（员工核销前查看）
func (s *CouponService) GetByCode(code string) (*CouponDetail, error) {
	coupon, err := s.couponRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	prize, err := s.prizeRepo.GetByID(coupon.PrizeID)
	if err != nil {
		return nil, err
	}
	return &CouponDetail{Coupon: coupon, Prize: prize}, nil
}

// Redeem 员工核销一张券。核销是单次的：
// 已核销或已过期的券拒绝，并发重复核销只有一次成功。
func (s *CouponService) Redeem(code string, staffID uint) (*CouponDetail, error) {
	if staffID == 0 {
		return nil, ErrPermissionDenied
	}
	coupon, err := s.couponRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	switch strings.ToLower(coupon.Status) {
	case constants.CouponStatusRedeemed:
		return nil, ErrCouponAlreadyRedeemed
	case constants.CouponStatusExpired:
		return nil, ErrCouponExpired
	case constants.CouponStatusActive:
	default:
		return nil, ErrCouponNotActive
	}
	if coupon.ExpiresAt != nil && time.Now().After(*coupon.ExpiresAt) {
		if _, err := s.couponRepo.MarkExpired(coupon.ID); err != nil {
			logger.Warnw("coupon_lazy_expire_failed", "coupon_id", coupon.ID, "error", err)
		}
		return nil, ErrCouponExpired
	}

	ok, err := s.couponRepo.TryRedeem(coupon.ID, staffID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCouponAlreadyRedeemed
	}

	redeemed, err := s.couponRepo.GetByID(coupon.ID)
	if err != nil {
		return nil, err
	}
	prize, err := s.prizeRepo.GetByID(coupon.PrizeID)
	if err != nil {
		return nil, err
	}

	couponID := coupon.ID
	if err := s.auditRepo.Append(&models.SpinAudit{
		AccountID: coupon.OwnerID,
		Type:      constants.AuditTypeCouponRedeem,
		PrizeID:   &coupon.PrizeID,
		CouponID:  &couponID,
		Remark:    "redeemed by staff",
	}); err != nil {
		logger.Warnw("coupon_redeem_audit_failed", "coupon_id", coupon.ID, "error", err)
	}

	return &CouponDetail{Coupon: redeemed, Prize: prize}, nil
}

// ListByOwner 查询顾客名下的券
func (s *CouponService) ListByOwner(ownerID uint, page, pageSize int) ([]models.Coupon, int64, error) {
	if ownerID == 0 {
		return nil, 0, ErrAccountNotFound
	}
	return s.couponRepo.ListByOwner(ownerID, page, pageSize)
}

// List 管理端查询券
func (s *CouponService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.couponRepo.List(filter)
}

// MarkExpired 将单张到期券置为失效（异步任务回调）
func (s *CouponService) MarkExpired(couponID uint) error {
	coupon, err := s.couponRepo.GetByID(couponID)
	if err != nil {
		return err
	}
	if coupon == nil || strings.ToLower(coupon.Status) != constants.CouponStatusActive {
		return nil
	}
	if coupon.ExpiresAt != nil && time.Now().Before(*coupon.ExpiresAt) {
		return nil
	}
	_, err = s.couponRepo.MarkExpired(couponID)
	return err
}

// ExpireDue 批量失效所有到期未核销的券（周期巡检）
func (s *CouponService) ExpireDue() (int64, error) {
	affected, err := s.couponRepo.ExpireDue(time.Now())
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		logger.Infow("coupons_expired", "count", affected)
	}
	return affected, nil
}
