package repository

import (
	"github.com/tablespin/internal/models"

	"gorm.io/gorm"
)

// SpinAuditRepository 审计流水数据访问接口
type SpinAuditRepository interface {
	Append(entry *models.SpinAudit) error
	List(filter AuditListFilter) ([]models.SpinAudit, int64, error)
	WithTx(tx *gorm.DB) SpinAuditRepository
}

// GormSpinAuditRepository GORM 审计仓储实现
type GormSpinAuditRepository struct {
	db *gorm.DB
}

// NewSpinAuditRepository 创建审计仓储
func NewSpinAuditRepository(db *gorm.DB) *GormSpinAuditRepository {
	return &GormSpinAuditRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSpinAuditRepository) WithTx(tx *gorm.DB) SpinAuditRepository {
	if tx == nil {
		return r
	}
	return &GormSpinAuditRepository{db: tx}
}

// Append 追加一条审计记录，流水只增不改
func (r *GormSpinAuditRepository) Append(entry *models.SpinAudit) error {
	return r.db.Create(entry).Error
}

// List 分页查询审计流水
func (r *GormSpinAuditRepository) List(filter AuditListFilter) ([]models.SpinAudit, int64, error) {
	query := r.db.Model(&models.SpinAudit{})
	if filter.AccountID > 0 {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var entries []models.SpinAudit
	if err := query.Order("id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
