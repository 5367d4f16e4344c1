package service

import "errors"

// 服务层哨兵错误，handler 据此映射业务码
var (
	ErrNotFound           = errors.New("记录不存在")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrEmailExists        = errors.New("邮箱已被注册")
	ErrAccountDisabled    = errors.New("账号已被禁用")
	ErrAccountNotFound    = errors.New("账号不存在")
	ErrPermissionDenied   = errors.New("无权执行该操作")

	ErrInsufficientPoints = errors.New("积分不足")
	ErrInsufficientSpins  = errors.New("抽奖次数不足")
	ErrInvalidSpinCount   = errors.New("兑换次数必须为正整数")
	ErrInvalidPointsDelta = errors.New("积分变更数值无效")
	ErrBalanceWouldGoNegative = errors.New("余额不足以完成该变更")

	ErrNoEligiblePool   = errors.New("当前没有可用的奖池")
	ErrPoolNotFound     = errors.New("奖池不存在")
	ErrPoolNotDraft     = errors.New("只有草稿状态的奖池可以修改")
	ErrPoolEmpty        = errors.New("奖池没有可用奖品，无法发布")
	ErrPrizeNotFound    = errors.New("奖品不存在")
	ErrInvalidPrize     = errors.New("奖品定义无效")

	ErrCouponNotFound        = errors.New("优惠券不存在")
	ErrCouponAlreadyRedeemed = errors.New("优惠券已被核销")
	ErrCouponExpired         = errors.New("优惠券已过期")
	ErrCouponNotActive       = errors.New("优惠券状态不可核销")
)
