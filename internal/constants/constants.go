package constants

// 账号角色
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// 账号状态
const (
	AccountStatusActive   = "active"
	AccountStatusDisabled = "disabled"
)

// 奖池版本状态
const (
	PoolStatusDraft     = "draft"
	PoolStatusPublished = "published"
	PoolStatusArchived  = "archived"
)

// 奖品类型
const (
	PrizeTypeDiscount = "discount"  // 折扣券
	PrizeTypeFreeItem = "free_item" // 免费菜品
	PrizeTypeNoWin    = "no_win"    // 未中奖占位
)

// StockUnlimited 库存无限的哨兵值
const StockUnlimited = -1

// 中奖频率限制策略
const (
	WinLimitNone    = "none"
	WinLimitDaily   = "1/day"
	WinLimitPerUser = "1/user"
)

// 抽奖结果
const (
	SpinOutcomeWin   = "WIN"
	SpinOutcomeNoWin = "NO_WIN"
)

// 优惠券状态
const (
	CouponStatusActive   = "active"
	CouponStatusRedeemed = "redeemed"
	CouponStatusExpired  = "expired"
)

// 审计事件类型
const (
	AuditTypeSpin         = "spin"
	AuditTypeConvert      = "convert"
	AuditTypeAwardPoints  = "award_points"
	AuditTypeAdminAdjust  = "admin_adjust"
	AuditTypeCouponRedeem = "coupon_redeem"
)

// 队列名称
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskCouponExpire = "coupon:expire"
)
