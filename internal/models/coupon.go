package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 中奖券（每次中奖精确生成一张，单次核销）
type Coupon struct {
	ID         uint           `gorm:"primarykey" json:"id"`             // 主键
	Code       string         `gorm:"uniqueIndex;not null" json:"code"` // 券码（唯一）
	PrizeID    uint           `gorm:"index;not null" json:"prize_id"`   // 对应奖品ID
	OwnerID    uint           `gorm:"index;not null" json:"owner_id"`   // 持有账号ID
	Status     string         `gorm:"index;not null" json:"status"`     // 状态（active/redeemed/expired）
	ExpiresAt  *time.Time     `gorm:"index" json:"expires_at"`          // 过期时间
	RedeemedAt *time.Time     `json:"redeemed_at"`                      // 核销时间
	RedeemedBy *uint          `json:"redeemed_by"`                      // 核销员工账号ID
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`          // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`          // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                   // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
