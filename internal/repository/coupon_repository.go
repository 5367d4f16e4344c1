package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/tablespin/internal/constants"
	"github.com/tablespin/internal/models"

	"gorm.io/gorm"
)

// CouponRepository 优惠券数据访问接口
type CouponRepository interface {
	Create(coupon *models.Coupon) error
	GetByID(id uint) (*models.Coupon, error)
	GetByCode(code string) (*models.Coupon, error)
	TryRedeem(couponID, staffID uint) (bool, error)
	ExpireDue(now time.Time) (int64, error)
	MarkExpired(couponID uint) (bool, error)
	ListByOwner(ownerID uint, page, pageSize int) ([]models.Coupon, int64, error)
	List(filter CouponListFilter) ([]models.Coupon, int64, error)
	WithTx(tx *gorm.DB) CouponRepository
}

// GormCouponRepository GORM 优惠券仓储实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓储
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) CouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// Create 创建优惠券
func (r *GormCouponRepository) Create(coupon *models.Coupon) error {
	return r.db.Create(coupon).Error
}

// GetByID 按ID获取优惠券
func (r *GormCouponRepository) GetByID(id uint) (*models.Coupon, error) {
	if id == 0 {
		return nil, nil
	}
	var coupon models.Coupon
	if err := r.db.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// GetByCode 按券码获取优惠券
func (r *GormCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	var coupon models.Coupon
	if err := r.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// TryRedeem 条件核销：仅当券仍处于 active 状态时生效，
// 并发重复核销只有一次会成功。
func (r *GormCouponRepository) TryRedeem(couponID, staffID uint) (bool, error) {
	if couponID == 0 || staffID == 0 {
		return false, errors.New("invalid redeem params")
	}
	now := time.Now()
	result := r.db.Model(&models.Coupon{}).
		Where("id = ? AND status = ?", couponID, constants.CouponStatusActive).
		Updates(map[string]interface{}{
			"status":      constants.CouponStatusRedeemed,
			"redeemed_at": now,
			"redeemed_by": staffID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ExpireDue 批量将过期未核销的券置为 expired，返回受影响行数
func (r *GormCouponRepository) ExpireDue(now time.Time) (int64, error) {
	result := r.db.Model(&models.Coupon{}).
		Where("status = ? AND expires_at <= ?", constants.CouponStatusActive, now).
		Update("status", constants.CouponStatusExpired)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkExpired 将单张券置为 expired，仅对 active 状态生效
func (r *GormCouponRepository) MarkExpired(couponID uint) (bool, error) {
	if couponID == 0 {
		return false, errors.New("invalid coupon id")
	}
	result := r.db.Model(&models.Coupon{}).
		Where("id = ? AND status = ?", couponID, constants.CouponStatusActive).
		Update("status", constants.CouponStatusExpired)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListByOwner 分页查询持有人的优惠券
func (r *GormCouponRepository) ListByOwner(ownerID uint, page, pageSize int) ([]models.Coupon, int64, error) {
	return r.List(CouponListFilter{OwnerID: ownerID, Page: page, PageSize: pageSize})
}

// List 分页查询优惠券
func (r *GormCouponRepository) List(filter CouponListFilter) ([]models.Coupon, int64, error) {
	query := r.db.Model(&models.Coupon{})
	if filter.OwnerID > 0 {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var coupons []models.Coupon
	if err := query.Order("id desc").Find(&coupons).Error; err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}
