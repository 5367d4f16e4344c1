package repository

import "time"

// AccountListFilter 查询账号列表的过滤条件
type AccountListFilter struct {
	Page     int
	PageSize int
	Role     string
	Search   string
}

// CouponListFilter 查询优惠券列表的过滤条件
type CouponListFilter struct {
	Page        int
	PageSize    int
	OwnerID     uint
	PrizeID     uint
	Status      string
	Code        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AuditListFilter 查询审计日志的过滤条件
type AuditListFilter struct {
	Page        int
	PageSize    int
	AccountID   uint
	Type        string
	Outcome     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PoolListFilter 查询奖池版本列表的过滤条件
type PoolListFilter struct {
	Page     int
	PageSize int
	Status   string
}
