package service

import (
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/tablespin/internal/config"
	"github.com/tablespin/internal/constants"
	"github.com/tablespin/internal/logger"
	"github.com/tablespin/internal/models"
	"github.com/tablespin/internal/queue"
	"github.com/tablespin/internal/repository"

	"gorm.io/gorm"
)

const couponCodePrefix = "TS"

// SpinService 转盘抽奖服务
type SpinService struct {
	cfg         *config.Config
	accountRepo repository.AccountRepository
	poolRepo    repository.PoolRepository
	prizeRepo   repository.PrizeRepository
	couponRepo  repository.CouponRepository
	auditRepo   repository.SpinAuditRepository
	queueClient *queue.Client
}

// NewSpinService 创建抽奖服务
func NewSpinService(
	cfg *config.Config,
	accountRepo repository.AccountRepository,
	poolRepo repository.PoolRepository,
	prizeRepo repository.PrizeRepository,
	couponRepo repository.CouponRepository,
	auditRepo repository.SpinAuditRepository,
	queueClient *queue.Client,
) *SpinService {
	return &SpinService{
		cfg:         cfg,
		accountRepo: accountRepo,
		poolRepo:    poolRepo,
		prizeRepo:   prizeRepo,
		couponRepo:  couponRepo,
		auditRepo:   auditRepo,
		queueClient: queueClient,
	}
}

// SpinResult 单次抽奖的最终结果
type SpinResult struct {
	Outcome     string                  `json:"outcome"`
	Prize       *models.PrizeDefinition `json:"prize,omitempty"`
	Coupon      *models.Coupon          `json:"coupon,omitempty"`
	Downgraded  bool                    `json:"downgraded"`
	PointsAfter int64                   `json:"points_after"`
	SpinsAfter  int64                   `json:"spins_after"`
}

// ResolveSpin 消耗一次抽奖次数并结算结果。
// 选中的奖品在提交时因库存或限额竞争不可用时降级为未中奖，
// 抽奖次数照常扣减并留审计记录，绝不回滚重抽。
func (s *SpinService) ResolveSpin(accountID uint) (*SpinResult, error) {
	if accountID == 0 {
		return nil, ErrAccountNotFound
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

	// 奖池级可用性：至少一个启用且有库存的奖品，否则拒绝抽奖且不扣次数
	poolEligible := filterEligible(defs, nil)
	if len(poolEligible) == 0 {
		return nil, ErrNoEligiblePool
	}

	// 叠加调用者自身的中奖频率限制
	limited, err := s.collectLimitedPrizeIDs(poolEligible, accountID)
	if err != nil {
		return nil, err
	}
	eligible := filterEligible(poolEligible, limited)

	retries := s.cfg.Wheel.CommitRetries
	if retries <= 0 {
		retries = 1
	}

	var result *SpinResult
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		result, lastErr = s.commitSpin(accountID, eligible)
		if lastErr == nil {
			break
		}
		if errors.Is(lastErr, ErrInsufficientSpins) || errors.Is(lastErr, ErrNoEligiblePool) {
			return nil, lastErr
		}
		logger.Warnw("spin_commit_retry",
			"account_id", accountID,
			"attempt", attempt+1,
			"error", lastErr,
		)
	}
	if lastErr != nil {
		return nil, lastErr
	}

	s.scheduleCouponExpire(result.Coupon)
	return result, nil
}

// commitSpin 在单个事务内扣减次数、结算奖品、发券并写审计
func (s *SpinService) commitSpin(accountID uint, eligible []models.PrizeDefinition) (*SpinResult, error) {
	var result *SpinResult
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		accountRepo := s.accountRepo.WithTx(tx)
		prizeRepo := s.prizeRepo.WithTx(tx)
		couponRepo := s.couponRepo.WithTx(tx)
		auditRepo := s.auditRepo.WithTx(tx)

		ok, err := accountRepo.TryDecrementSpins(accountID, 1)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientSpins
		}

		account, err := accountRepo.GetByID(accountID)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrAccountNotFound
		}

		res := &SpinResult{
			Outcome:     constants.SpinOutcomeNoWin,
			PointsAfter: account.Points,
			SpinsAfter:  account.Spins,
		}

		var selected *models.PrizeDefinition
		if len(eligible) > 0 {
			draw, err := drawValue(totalWeight(eligible))
			if err != nil {
				return err
			}
			selected = selectPrize(eligible, draw)
		}

		if selected != nil && !selected.IsNoWin() {
			win, downgraded, err := s.settleWin(prizeRepo, selected, accountID)
			if err != nil {
				return err
			}
			res.Downgraded = downgraded
			if win {
				coupon, err := s.issueCoupon(couponRepo, selected, accountID)
				if err != nil {
					return err
				}
				res.Outcome = constants.SpinOutcomeWin
				res.Prize = selected
				res.Coupon = coupon
			}
		}

		entry := &models.SpinAudit{
			AccountID:   accountID,
			Type:        constants.AuditTypeSpin,
			Outcome:     res.Outcome,
			Downgraded:  res.Downgraded,
			PointsAfter: res.PointsAfter,
			SpinsAfter:  res.SpinsAfter,
		}
		if res.Prize != nil {
			entry.PrizeID = &res.Prize.ID
		}
		if res.Coupon != nil {
			entry.CouponID = &res.Coupon.ID
		}
		if err := auditRepo.Append(entry); err != nil {
			return err
		}

		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// settleWin 事务内复核限额并扣库存，失败时降级而非中止
func (s *SpinService) settleWin(prizeRepo repository.PrizeRepository, selected *models.PrizeDefinition, accountID uint) (bool, bool, error) {
	exhausted, err := s.winLimitExhausted(prizeRepo, selected, accountID)
	if err != nil {
		return false, false, err
	}
	if exhausted {
		return false, true, nil
	}
	ok, err := prizeRepo.TryDecrementStock(selected.ID)
	if err != nil {
		return false, false, err
	}
	if !ok {
		return false, true, nil
	}
	if err := prizeRepo.RecordWin(&models.PrizeWin{
		PrizeID:   selected.ID,
		AccountID: accountID,
		WonAt:     time.Now(),
	}); err != nil {
		return false, false, err
	}
	return true, false, nil
}

// issueCoupon 为中奖生成一张唯一券
func (s *SpinService) issueCoupon(couponRepo repository.CouponRepository, prize *models.PrizeDefinition, accountID uint) (*models.Coupon, error) {
	expireDays := s.cfg.Wheel.CouponExpireDays
	if expireDays <= 0 {
		expireDays = 30
	}
	expiresAt := time.Now().Add(time.Duration(expireDays) * 24 * time.Hour)
	coupon := &models.Coupon{
		Code:      generateCouponCode(time.Now()),
		PrizeID:   prize.ID,
		OwnerID:   accountID,
		Status:    constants.CouponStatusActive,
		ExpiresAt: &expiresAt,
	}
	if err := couponRepo.Create(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// collectLimitedPrizeIDs 找出调用者已达中奖频率上限的奖品
func (s *SpinService) collectLimitedPrizeIDs(defs []models.PrizeDefinition, accountID uint) (map[uint]bool, error) {
	limited := make(map[uint]bool)
	for i := range defs {
		exhausted, err := s.winLimitExhausted(s.prizeRepo, &defs[i], accountID)
		if err != nil {
			return nil, err
		}
		if exhausted {
			limited[defs[i].ID] = true
		}
	}
	return limited, nil
}

func (s *SpinService) winLimitExhausted(prizeRepo repository.PrizeRepository, def *models.PrizeDefinition, accountID uint) (bool, error) {
	if def == nil || def.IsNoWin() {
		return false, nil
	}
	switch def.WinLimit {
	case constants.WinLimitPerUser:
		count, err := prizeRepo.CountWinsByAccount(def.ID, accountID)
		if err != nil {
			return false, err
		}
		return count > 0, nil
	case constants.WinLimitDaily:
		now := time.Now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		count, err := prizeRepo.CountWinsByAccountSince(def.ID, accountID, startOfDay)
		if err != nil {
			return false, err
		}
		return count > 0, nil
	default:
		return false, nil
	}
}

func (s *SpinService) scheduleCouponExpire(coupon *models.Coupon) {
	if coupon == nil || coupon.ExpiresAt == nil || !s.queueClient.Enabled() {
		return
	}
	delay := time.Until(*coupon.ExpiresAt)
	if err := s.queueClient.EnqueueCouponExpire(queue.CouponExpirePayload{CouponID: coupon.ID}, delay); err != nil {
		logger.Warnw("coupon_expire_enqueue_failed", "coupon_id", coupon.ID, "error", err)
	}
}

// filterEligible 过滤出可参与抽签的奖品：启用、权重为正、有库存、
// 未命中 limited 集合。no_win 占位奖品不受库存与限额约束。
func filterEligible(defs []models.PrizeDefinition, limited map[uint]bool) []models.PrizeDefinition {
	eligible := make([]models.PrizeDefinition, 0, len(defs))
	for _, def := range defs {
		if !def.Active || def.Weight <= 0 {
			continue
		}
		if !def.IsNoWin() {
			if !def.Unlimited() && def.TotalAvailable <= 0 {
				continue
			}
			if limited != nil && limited[def.ID] {
				continue
			}
		}
		eligible = append(eligible, def)
	}
	return eligible
}

// totalWeight 计算候选集的总权重
func totalWeight(defs []models.PrizeDefinition) int64 {
	var total int64
	for _, def := range defs {
		total += def.Weight
	}
	return total
}

// selectPrize 按累积权重选中奖品。defs 须按ID升序排列，
// draw 落在 [0, totalWeight) 区间内，顺序稳定保证结果可复现。
func selectPrize(defs []models.PrizeDefinition, draw int64) *models.PrizeDefinition {
	if len(defs) == 0 || draw < 0 {
		return nil
	}
	var cursor int64
	for i := range defs {
		cursor += defs[i].Weight
		if draw < cursor {
			return &defs[i]
		}
	}
	return nil
}

// drawValue 在 [0, total) 区间内取密码学随机数
func drawValue(total int64) (int64, error) {
	if total <= 0 {
		return 0, errors.New("总权重必须为正")
	}
	n, err := crand.Int(crand.Reader, big.NewInt(total))
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}

func generateCouponCode(now time.Time) string {
	return strings.ToUpper(fmt.Sprintf("%s%s%s", couponCodePrefix, now.Format("060102150405"), randomHex(5)))
}

func randomHex(n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	if _, err := crand.Read(buf); err != nil {
		fallback := make([]byte, n)
		for i := range fallback {
			fallback[i] = byte('A' + (i % 26))
		}
		return hex.EncodeToString(fallback)
	}
	return hex.EncodeToString(buf)
}
