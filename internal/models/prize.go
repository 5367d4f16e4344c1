package models

import (
	"time"

	"github.com/tablespin/internal/constants"

	"gorm.io/gorm"
)

// PrizeDefinition 奖品定义（归属于唯一的奖池版本）
type PrizeDefinition struct {
	ID             uint           `gorm:"primarykey" json:"id"`                           // 主键
	PoolID         uint           `gorm:"index;not null" json:"pool_id"`                  // 所属奖池版本ID
	Name           string         `gorm:"not null" json:"name"`                           // 奖品名称
	Type           string         `gorm:"not null" json:"type"`                           // 类型（discount/free_item/no_win）
	Weight         int64          `gorm:"not null" json:"weight"`                         // 相对权重（正整数）
	Active         bool           `gorm:"not null;default:true" json:"active"`            // 是否参与抽奖
	TotalAvailable int64          `gorm:"not null;default:-1" json:"total_available"`     // 剩余库存（-1 表示不限量）
	WinLimit       string         `gorm:"not null;default:'none'" json:"win_limit"`       // 中奖频率限制（none/1:day/1:user）
	Value          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"value"` // 折扣金额（discount 类型使用）
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间
}

// TableName 指定表名
func (PrizeDefinition) TableName() string {
	return "prize_definitions"
}

// Unlimited 判断是否不限量
func (p *PrizeDefinition) Unlimited() bool {
	return p != nil && p.TotalAvailable == constants.StockUnlimited
}

// IsNoWin 判断是否为未中奖占位奖品
func (p *PrizeDefinition) IsNoWin() bool {
	return p != nil && p.Type == constants.PrizeTypeNoWin
}
