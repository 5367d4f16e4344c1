package models

import (
	"time"

	"gorm.io/gorm"
)

// Account 账号表（顾客/员工/管理员共用，按 role 区分）
type Account struct {
	ID           uint           `gorm:"primarykey" json:"id"`                  // 主键
	PublicID     string         `gorm:"uniqueIndex;not null" json:"public_id"` // 对外展示的短码（到店扫码用）
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`     // 邮箱
	PasswordHash string         `gorm:"not null" json:"-"`                     // 密码哈希（不返回给前端）
	DisplayName  string         `gorm:"default:''" json:"display_name"`        // 昵称
	Role         string         `gorm:"index;not null" json:"role"`            // 角色（customer/staff/admin）
	Status       string         `gorm:"default:'active'" json:"status"`        // 账号状态
	Points       int64          `gorm:"not null;default:0" json:"points"`      // 积分余额（非负）
	Spins        int64          `gorm:"not null;default:0" json:"spins"`       // 抽奖次数余额（非负）
	TokenVersion uint64         `gorm:"not null;default:0" json:"-"`           // Token 版本（用于全量失效）
	LastLoginAt  *time.Time     `json:"last_login_at"`                         // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`               // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`               // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                        // 软删除时间
}

// TableName 指定表名
func (Account) TableName() string {
	return "accounts"
}
