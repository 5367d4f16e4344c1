package queue

import (
	"encoding/json"

	"github.com/tablespin/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCouponExpire 优惠券到期失效任务
	TaskCouponExpire = constants.TaskCouponExpire
)

// CouponExpirePayload 优惠券过期任务载荷
type CouponExpirePayload struct {
	CouponID uint `json:"coupon_id"`
}

// NewCouponExpireTask 创建优惠券过期任务
func NewCouponExpireTask(payload CouponExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCouponExpire, body), nil
}
