package worker

import (
	"context"
	"encoding/json"

	"github.com/tablespin/internal/logger"
	"github.com/tablespin/internal/provider"
	"github.com/tablespin/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCouponExpire, c.handleCouponExpire)
}

func (c *Consumer) handleCouponExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_coupon_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CouponExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_coupon_expire_unmarshal_failed", "error", err)
		return err
	}
	if payload.CouponID == 0 {
		logger.Debugw("worker_coupon_expire_skip_invalid_payload", "coupon_id", payload.CouponID)
		return nil
	}
	if c.CouponService == nil {
		logger.Warnw("worker_coupon_expire_skip_service_nil", "coupon_id", payload.CouponID)
		return nil
	}
	if err := c.CouponService.MarkExpired(payload.CouponID); err != nil {
		logger.Warnw("worker_coupon_expire_failed", "coupon_id", payload.CouponID, "error", err)
		return err
	}
	return nil
}
