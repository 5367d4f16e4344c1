package repository

import (
	"errors"
	"strings"

	"github.com/tablespin/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountRepository 账号数据访问接口
type AccountRepository interface {
	GetByID(id uint) (*models.Account, error)
	GetByIDForUpdate(id uint) (*models.Account, error)
	GetByEmail(email string) (*models.Account, error)
	GetByPublicID(publicID string) (*models.Account, error)
	Create(account *models.Account) error
	Update(account *models.Account) error
	List(filter AccountListFilter) ([]models.Account, int64, error)
	TryDecrementSpins(accountID uint, n int64) (bool, error)
	ApplyPointsAndSpinsDelta(accountID uint, pointsDelta, spinsDelta int64) (bool, error)
	WithTx(tx *gorm.DB) AccountRepository
}

// GormAccountRepository GORM 账号仓储实现
type GormAccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository 创建账号仓储
func NewAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAccountRepository) WithTx(tx *gorm.DB) AccountRepository {
	if tx == nil {
		return r
	}
	return &GormAccountRepository{db: tx}
}

// GetByID 按ID获取账号
func (r *GormAccountRepository) GetByID(id uint) (*models.Account, error) {
	if id == 0 {
		return nil, nil
	}
	var account models.Account
	if err := r.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByIDForUpdate 按ID加锁获取账号
func (r *GormAccountRepository) GetByIDForUpdate(id uint) (*models.Account, error) {
	if id == 0 {
		return nil, nil
	}
	var account models.Account
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByEmail 按邮箱获取账号
func (r *GormAccountRepository) GetByEmail(email string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var account models.Account
	if err := r.db.Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByPublicID 按对外短码获取账号
func (r *GormAccountRepository) GetByPublicID(publicID string) (*models.Account, error) {
	publicID = strings.ToUpper(strings.TrimSpace(publicID))
	if publicID == "" {
		return nil, nil
	}
	var account models.Account
	if err := r.db.Where("public_id = ?", publicID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// Create 创建账号
func (r *GormAccountRepository) Create(account *models.Account) error {
	return r.db.Create(account).Error
}

// Update 更新账号
func (r *GormAccountRepository) Update(account *models.Account) error {
	return r.db.Save(account).Error
}

// List 分页查询账号
func (r *GormAccountRepository) List(filter AccountListFilter) ([]models.Account, int64, error) {
	query := r.db.Model(&models.Account{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("(email LIKE ? OR display_name LIKE ? OR public_id LIKE ?)", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var accounts []models.Account
	if err := query.Order("id desc").Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// TryDecrementSpins 条件扣减抽奖次数（余额不足返回 false，不做任何变更）
func (r *GormAccountRepository) TryDecrementSpins(accountID uint, n int64) (bool, error) {
	if accountID == 0 || n <= 0 {
		return false, errors.New("invalid spins decrement params")
	}
	result := r.db.Model(&models.Account{}).
		Where("id = ? AND spins >= ?", accountID, n).
		UpdateColumn("spins", gorm.Expr("spins - ?", n))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ApplyPointsAndSpinsDelta 在同一条 UPDATE 内变更积分与抽奖次数，
// 任一余额会变为负数时整体拒绝（返回 false）。
func (r *GormAccountRepository) ApplyPointsAndSpinsDelta(accountID uint, pointsDelta, spinsDelta int64) (bool, error) {
	if accountID == 0 {
		return false, errors.New("invalid balance delta params")
	}
	result := r.db.Model(&models.Account{}).
		Where("id = ? AND points + ? >= 0 AND spins + ? >= 0", accountID, pointsDelta, spinsDelta).
		UpdateColumns(map[string]interface{}{
			"points": gorm.Expr("points + ?", pointsDelta),
			"spins":  gorm.Expr("spins + ?", spinsDelta),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
