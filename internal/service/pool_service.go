package service

import (
	"context"
	"strings"
	"time"

	"github.com/tablespin/internal/cache"
	"github.com/tablespin/internal/constants"
	"github.com/tablespin/internal/logger"
	"github.com/tablespin/internal/models"
	"github.com/tablespin/internal/repository"

	"gorm.io/gorm"
)

const (
	wheelSnapshotCacheKey = "wheel:published"
	wheelSnapshotCacheTTL = 5 * time.Minute
)

// PoolService 奖池版本管理服务
type PoolService struct {
	poolRepo  repository.PoolRepository
	prizeRepo repository.PrizeRepository
}

// NewPoolService 创建奖池服务
func NewPoolService(poolRepo repository.PoolRepository, prizeRepo repository.PrizeRepository) *PoolService {
	return &PoolService{
		poolRepo:  poolRepo,
		prizeRepo: prizeRepo,
	}
}

// WheelSlot 转盘展示用的单个槽位
type WheelSlot struct {
	PrizeID uint   `json:"prize_id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Weight  int64  `json:"weight"`
	InStock bool   `json:"in_stock"`
}

// WheelSnapshot 当前已发布转盘的展示快照
type WheelSnapshot struct {
	PoolID      uint        `json:"pool_id"`
	PoolName    string      `json:"pool_name"`
	PublishedAt *time.Time  `json:"published_at"`
	Slots       []WheelSlot `json:"slots"`
	GeneratedAt int64       `json:"generated_at"`
}

// PrizeInput 奖品定义输入
type PrizeInput struct {
	Name           string       `json:"name"`
	Type           string       `json:"type"`
	Weight         int64        `json:"weight"`
	Active         *bool        `json:"active"`
	TotalAvailable int64        `json:"total_available"`
	WinLimit       string       `json:"win_limit"`
	Value          models.Money `json:"value"`
}

// GetPublishedWheel 获取当前已发布转盘快照，优先走 Redis 缓存
func (s *PoolService) GetPublishedWheel(ctx context.Context) (*WheelSnapshot, error) {
	var cached WheelSnapshot
	if hit, err := cache.GetJSON(ctx, wheelSnapshotCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	pool, err := s.poolRepo.GetPublished()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrNoEligiblePool
	}
	defs, err := s.prizeRepo.ListActiveByPool(pool.ID)
	if err != nil {
		return nil, err
	}

	snapshot := &WheelSnapshot{
		PoolID:      pool.ID,
		PoolName:    pool.Name,
		PublishedAt: pool.PublishedAt,
		Slots:       make([]WheelSlot, 0, len(defs)),
		GeneratedAt: time.Now().Unix(),
	}
	for _, def := range defs {
		if def.Weight <= 0 {
			continue
		}
		snapshot.Slots = append(snapshot.Slots, WheelSlot{
			PrizeID: def.ID,
			Name:    def.Name,
			Type:    def.Type,
			Weight:  def.Weight,
			InStock: def.Unlimited() || def.TotalAvailable > 0,
		})
	}

	if err := cache.SetJSON(ctx, wheelSnapshotCacheKey, snapshot, wheelSnapshotCacheTTL); err != nil {
		logger.Warnw("wheel_snapshot_cache_set_failed", "error", err)
	}
	return snapshot, nil
}

// InvalidateWheelCache 清除转盘快照缓存
func (s *PoolService) InvalidateWheelCache(ctx context.Context) {
	if err := cache.Del(ctx, wheelSnapshotCacheKey); err != nil {
		logger.Warnw("wheel_snapshot_cache_del_failed", "error", err)
	}
}

// CreatePool 创建草稿奖池版本
func (s *PoolService) CreatePool(name string) (*models.PrizePoolVersion, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrPoolNotFound
	}
	pool := &models.PrizePoolVersion{
		Name:   name,
		Status: constants.PoolStatusDraft,
	}
	if err := s.poolRepo.Create(pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// GetPool 获取奖池版本及其全部奖品
func (s *PoolService) GetPool(poolID uint) (*models.PrizePoolVersion, []models.PrizeDefinition, error) {
	pool, err := s.poolRepo.GetByID(poolID)
	if err != nil {
		return nil, nil, err
	}
	if pool == nil {
		return nil, nil, ErrPoolNotFound
	}
	defs, err := s.prizeRepo.ListByPool(pool.ID)
	if err != nil {
		return nil, nil, err
	}
	return pool, defs, nil
}

// ListPools 分页查询奖池版本
func (s *PoolService) ListPools(filter repository.PoolListFilter) ([]models.PrizePoolVersion, int64, error) {
	return s.poolRepo.List(filter)
}

// AddPrize 向草稿奖池添加奖品
func (s *PoolService) AddPrize(poolID uint, input PrizeInput) (*models.PrizeDefinition, error) {
	pool, err := s.requireDraftPool(poolID)
	if err != nil {
		return nil, err
	}
	def := &models.PrizeDefinition{
		PoolID: pool.ID,
		Active: true,
	}
	if err := applyPrizeInput(def, input); err != nil {
		return nil, err
	}
	if err := s.prizeRepo.Create(def); err != nil {
		return nil, err
	}
	return def, nil
}

// UpdatePrize 修改草稿奖池内的奖品
func (s *PoolService) UpdatePrize(poolID, prizeID uint, input PrizeInput) (*models.PrizeDefinition, error) {
	if _, err := s.requireDraftPool(poolID); err != nil {
		return nil, err
	}
	def, err := s.prizeRepo.GetByID(prizeID)
	if err != nil {
		return nil, err
	}
	if def == nil || def.PoolID != poolID {
		return nil, ErrPrizeNotFound
	}
	if err := applyPrizeInput(def, input); err != nil {
		return nil, err
	}
	if err := s.prizeRepo.Update(def); err != nil {
		return nil, err
	}
	return def, nil
}

// RemovePrize 删除草稿奖池内的奖品
func (s *PoolService) RemovePrize(poolID, prizeID uint) error {
	if _, err := s.requireDraftPool(poolID); err != nil {
		return err
	}
	def, err := s.prizeRepo.GetByID(prizeID)
	if err != nil {
		return err
	}
	if def == nil || def.PoolID != poolID {
		return ErrPrizeNotFound
	}
	return s.prizeRepo.Delete(prizeID)
}

// Publish 发布奖池版本：校验至少一个可用奖品，
// 单事务内归档旧版本并切换新版本，随后清缓存。
func (s *PoolService) Publish(ctx context.Context, poolID uint) (*models.PrizePoolVersion, error) {
	pool, err := s.poolRepo.GetByID(poolID)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrPoolNotFound
	}
	if pool.Status != constants.PoolStatusDraft {
		return nil, ErrPoolNotDraft
	}

	defs, err := s.prizeRepo.ListActiveByPool(poolID)
	if err != nil {
		return nil, err
	}
	if len(filterEligible(defs, nil)) == 0 {
		return nil, ErrPoolEmpty
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		return s.poolRepo.WithTx(tx).Publish(poolID)
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateWheelCache(ctx)
	logger.Infow("prize_pool_published", "pool_id", poolID, "name", pool.Name)
	return s.poolRepo.GetByID(poolID)
}

func (s *PoolService) requireDraftPool(poolID uint) (*models.PrizePoolVersion, error) {
	pool, err := s.poolRepo.GetByID(poolID)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrPoolNotFound
	}
	if pool.Status != constants.PoolStatusDraft {
		return nil, ErrPoolNotDraft
	}
	return pool, nil
}

func applyPrizeInput(def *models.PrizeDefinition, input PrizeInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return ErrInvalidPrize
	}
	switch input.Type {
	case constants.PrizeTypeDiscount, constants.PrizeTypeFreeItem, constants.PrizeTypeNoWin:
	default:
		return ErrInvalidPrize
	}
	if input.Weight <= 0 {
		return ErrInvalidPrize
	}
	if input.TotalAvailable < constants.StockUnlimited {
		return ErrInvalidPrize
	}
	winLimit := input.WinLimit
	if winLimit == "" {
		winLimit = constants.WinLimitNone
	}
	switch winLimit {
	case constants.WinLimitNone, constants.WinLimitDaily, constants.WinLimitPerUser:
	default:
		return ErrInvalidPrize
	}

	def.Name = name
	def.Type = input.Type
	def.Weight = input.Weight
	def.TotalAvailable = input.TotalAvailable
	def.WinLimit = winLimit
	def.Value = input.Value
	if input.Active != nil {
		def.Active = *input.Active
	}
	return nil
}
