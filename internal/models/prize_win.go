package models

import "time"

// PrizeWin 中奖记录（用于按账号维度执行中奖频率限制）
type PrizeWin struct {
	ID        uint      `gorm:"primarykey" json:"id"`              // 主键
	PrizeID   uint      `gorm:"index;not null" json:"prize_id"`    // 奖品ID
	AccountID uint      `gorm:"index;not null" json:"account_id"`  // 账号ID
	WonAt     time.Time `gorm:"index;not null" json:"won_at"`      // 中奖时间
}

// TableName 指定表名
func (PrizeWin) TableName() string {
	return "prize_wins"
}
