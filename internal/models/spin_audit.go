package models

import "time"

// SpinAudit 抽奖与余额变更审计日志（只追加，不修改）
type SpinAudit struct {
	ID          uint      `gorm:"primarykey" json:"id"`             // 主键
	AccountID   uint      `gorm:"index;not null" json:"account_id"` // 账号ID
	Type        string    `gorm:"index;not null" json:"type"`       // 事件类型（spin/convert/...）
	Outcome     string    `gorm:"default:''" json:"outcome"`        // 抽奖结果（WIN/NO_WIN，非抽奖事件为空）
	PrizeID     *uint     `gorm:"index" json:"prize_id"`            // 中奖奖品ID
	CouponID    *uint     `json:"coupon_id"`                        // 生成的券ID
	Downgraded  bool      `gorm:"not null;default:false" json:"downgraded"` // 是否因库存/限额竞争降级为未中奖
	PointsAfter int64     `gorm:"not null" json:"points_after"`     // 事件后的积分余额
	SpinsAfter  int64     `gorm:"not null" json:"spins_after"`      // 事件后的抽奖次数余额
	Remark      string    `gorm:"default:''" json:"remark"`         // 备注
	CreatedAt   time.Time `gorm:"index" json:"created_at"`          // 创建时间
}

// TableName 指定表名
func (SpinAudit) TableName() string {
	return "spin_audits"
}
