package models

import (
	"time"

	"gorm.io/gorm"
)

// PrizePoolVersion 奖池版本（同一时刻最多一个 published）
type PrizePoolVersion struct {
	ID          uint           `gorm:"primarykey" json:"id"`          // 主键
	Name        string         `gorm:"not null" json:"name"`          // 版本名称
	Status      string         `gorm:"index;not null" json:"status"`  // 状态（draft/published）
	PublishedAt *time.Time     `gorm:"index" json:"published_at"`     // 发布时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`       // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`       // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                // 软删除时间
}

// TableName 指定表名
func (PrizePoolVersion) TableName() string {
	return "prize_pool_versions"
}
