package worker

import (
	"context"
	"errors"
	"time"

	"github.com/tablespin/internal/config"
	"github.com/tablespin/internal/logger"
	"github.com/tablespin/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	couponSweepInterval = time.Minute
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.CouponService != nil {
		go s.runCouponSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runCouponSweepLoop 周期性批量失效到期券，兜底延迟任务丢失的情况
func (s *Service) runCouponSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.CouponService == nil {
		return
	}
	runOnce := func() {
		if _, err := s.consumer.CouponService.ExpireDue(); err != nil {
			logger.Warnw("worker_coupon_sweep_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(couponSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
