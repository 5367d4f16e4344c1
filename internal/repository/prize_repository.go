package repository

import (
	"errors"
	"time"

	"github.com/tablespin/internal/constants"
	"github.com/tablespin/internal/models"

	"gorm.io/gorm"
)

// PrizeRepository 奖品与中奖记录数据访问接口
type PrizeRepository interface {
	GetByID(id uint) (*models.PrizeDefinition, error)
	ListActiveByPool(poolID uint) ([]models.PrizeDefinition, error)
	ListByPool(poolID uint) ([]models.PrizeDefinition, error)
	Create(def *models.PrizeDefinition) error
	Update(def *models.PrizeDefinition) error
	Delete(id uint) error
	TryDecrementStock(prizeID uint) (bool, error)
	CountWinsByAccount(prizeID, accountID uint) (int64, error)
	CountWinsByAccountSince(prizeID, accountID uint, since time.Time) (int64, error)
	RecordWin(win *models.PrizeWin) error
	WithTx(tx *gorm.DB) PrizeRepository
}

// GormPrizeRepository GORM 奖品仓储实现
type GormPrizeRepository struct {
	db *gorm.DB
}

// NewPrizeRepository 创建奖品仓储
func NewPrizeRepository(db *gorm.DB) *GormPrizeRepository {
	return &GormPrizeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPrizeRepository) WithTx(tx *gorm.DB) PrizeRepository {
	if tx == nil {
		return r
	}
	return &GormPrizeRepository{db: tx}
}

// GetByID 按ID获取奖品定义
func (r *GormPrizeRepository) GetByID(id uint) (*models.PrizeDefinition, error) {
	if id == 0 {
		return nil, nil
	}
	var def models.PrizeDefinition
	if err := r.db.First(&def, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &def, nil
}

// ListActiveByPool 获取奖池内启用的奖品定义，按ID升序，顺序稳定
func (r *GormPrizeRepository) ListActiveByPool(poolID uint) ([]models.PrizeDefinition, error) {
	var defs []models.PrizeDefinition
	if err := r.db.Where("pool_id = ? AND active = ?", poolID, true).
		Order("id asc").Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

// ListByPool 获取奖池内全部奖品定义
func (r *GormPrizeRepository) ListByPool(poolID uint) ([]models.PrizeDefinition, error) {
	var defs []models.PrizeDefinition
	if err := r.db.Where("pool_id = ?", poolID).
		Order("id asc").Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

// Create 创建奖品定义
func (r *GormPrizeRepository) Create(def *models.PrizeDefinition) error {
	return r.db.Create(def).Error
}

// Update 更新奖品定义
func (r *GormPrizeRepository) Update(def *models.PrizeDefinition) error {
	return r.db.Save(def).Error
}

// Delete 删除奖品定义
func (r *GormPrizeRepository) Delete(id uint) error {
	if id == 0 {
		return errors.New("invalid prize id")
	}
	return r.db.Delete(&models.PrizeDefinition{}, id).Error
}

// TryDecrementStock 条件扣减奖品库存，库存已为零或不限量时不做变更。
// 不限量奖品（total_available = -1）视为扣减成功。
func (r *GormPrizeRepository) TryDecrementStock(prizeID uint) (bool, error) {
	if prizeID == 0 {
		return false, errors.New("invalid prize id")
	}
	def, err := r.GetByID(prizeID)
	if err != nil {
		return false, err
	}
	if def == nil {
		return false, nil
	}
	if def.Unlimited() {
		return true, nil
	}
	result := r.db.Model(&models.PrizeDefinition{}).
		Where("id = ? AND total_available > 0", prizeID).
		UpdateColumn("total_available", gorm.Expr("total_available - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountWinsByAccount 统计账号历史上赢得某奖品的次数
func (r *GormPrizeRepository) CountWinsByAccount(prizeID, accountID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.PrizeWin{}).
		Where("prize_id = ? AND account_id = ?", prizeID, accountID).
		Count(&count).Error
	return count, err
}

// CountWinsByAccountSince 统计账号自某时刻起赢得某奖品的次数
func (r *GormPrizeRepository) CountWinsByAccountSince(prizeID, accountID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.PrizeWin{}).
		Where("prize_id = ? AND account_id = ? AND won_at >= ?", prizeID, accountID, since).
		Count(&count).Error
	return count, err
}

// RecordWin 写入中奖记录
func (r *GormPrizeRepository) RecordWin(win *models.PrizeWin) error {
	if win.WonAt.IsZero() {
		win.WonAt = time.Now()
	}
	return r.db.Create(win).Error
}

// PoolRepository 奖池版本数据访问接口
type PoolRepository interface {
	GetByID(id uint) (*models.PrizePoolVersion, error)
	GetPublished() (*models.PrizePoolVersion, error)
	Create(pool *models.PrizePoolVersion) error
	Update(pool *models.PrizePoolVersion) error
	List(filter PoolListFilter) ([]models.PrizePoolVersion, int64, error)
	Publish(poolID uint) error
	WithTx(tx *gorm.DB) PoolRepository
}

// GormPoolRepository GORM 奖池仓储实现
type GormPoolRepository struct {
	db *gorm.DB
}

// NewPoolRepository 创建奖池仓储
func NewPoolRepository(db *gorm.DB) *GormPoolRepository {
	return &GormPoolRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPoolRepository) WithTx(tx *gorm.DB) PoolRepository {
	if tx == nil {
		return r
	}
	return &GormPoolRepository{db: tx}
}

// GetByID 按ID获取奖池版本
func (r *GormPoolRepository) GetByID(id uint) (*models.PrizePoolVersion, error) {
	if id == 0 {
		return nil, nil
	}
	var pool models.PrizePoolVersion
	if err := r.db.First(&pool, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pool, nil
}

// GetPublished 获取当前已发布奖池版本（至多一个）
func (r *GormPoolRepository) GetPublished() (*models.PrizePoolVersion, error) {
	var pool models.PrizePoolVersion
	if err := r.db.Where("status = ?", constants.PoolStatusPublished).
		Order("published_at desc").First(&pool).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pool, nil
}

// Create 创建奖池版本
func (r *GormPoolRepository) Create(pool *models.PrizePoolVersion) error {
	return r.db.Create(pool).Error
}

// Update 更新奖池版本
func (r *GormPoolRepository) Update(pool *models.PrizePoolVersion) error {
	return r.db.Save(pool).Error
}

// List 分页查询奖池版本
func (r *GormPoolRepository) List(filter PoolListFilter) ([]models.PrizePoolVersion, int64, error) {
	query := r.db.Model(&models.PrizePoolVersion{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var pools []models.PrizePoolVersion
	if err := query.Order("id desc").Find(&pools).Error; err != nil {
		return nil, 0, err
	}
	return pools, total, nil
}

// Publish 原子切换发布：旧的已发布版本归档，目标版本置为已发布
func (r *GormPoolRepository) Publish(poolID uint) error {
	if poolID == 0 {
		return errors.New("invalid pool id")
	}
	now := time.Now()
	if err := r.db.Model(&models.PrizePoolVersion{}).
		Where("status = ? AND id <> ?", constants.PoolStatusPublished, poolID).
		Update("status", constants.PoolStatusArchived).Error; err != nil {
		return err
	}
	return r.db.Model(&models.PrizePoolVersion{}).
		Where("id = ?", poolID).
		Updates(map[string]interface{}{
			"status":       constants.PoolStatusPublished,
			"published_at": now,
		}).Error
}
