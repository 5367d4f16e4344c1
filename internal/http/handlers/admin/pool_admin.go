package admin

import (
	"errors"
	"strconv"

	"github.com/tablespin/internal/http/response"
	"github.com/tablespin/internal/repository"
	"github.com/tablespin/internal/service"

	"github.com/gin-gonic/gin"
)

// CreatePoolRequest 创建奖池版本请求
type CreatePoolRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreatePool 创建草稿奖池版本
func (h *Handler) CreatePool(c *gin.Context) {
	var req CreatePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	pool, err := h.PoolService.CreatePool(req.Name)
	if err != nil {
		respondError(c, response.CodeInternal, "创建奖池失败", err)
		return
	}
	response.Success(c, pool)
}

// ListPools 分页查询奖池版本
func (h *Handler) ListPools(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	pools, total, err := h.PoolService.ListPools(repository.PoolListFilter{
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询奖池失败", err)
		return
	}
	response.SuccessWithPage(c, pools, response.BuildPagination(page, pageSize, total))
}

// GetPool 获取奖池版本及其全部奖品
func (h *Handler) GetPool(c *gin.Context) {
	poolID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	pool, defs, err := h.PoolService.GetPool(poolID)
	if err != nil {
		if errors.Is(err, service.ErrPoolNotFound) {
			response.NotFound(c, "奖池不存在")
			return
		}
		respondError(c, response.CodeInternal, "查询奖池失败", err)
		return
	}
	response.Success(c, gin.H{
		"pool":   pool,
		"prizes": defs,
	})
}

// AddPrize 向草稿奖池添加奖品
func (h *Handler) AddPrize(c *gin.Context) {
	poolID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var input service.PrizeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	def, err := h.PoolService.AddPrize(poolID, input)
	if err != nil {
		respondPoolError(c, err, "添加奖品失败")
		return
	}
	response.Success(c, def)
}

// UpdatePrize 修改草稿奖池内的奖品
func (h *Handler) UpdatePrize(c *gin.Context) {
	poolID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	prizeID, ok := paramUint(c, "prize_id")
	if !ok {
		return
	}
	var input service.PrizeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	def, err := h.PoolService.UpdatePrize(poolID, prizeID, input)
	if err != nil {
		respondPoolError(c, err, "更新奖品失败")
		return
	}
	response.Success(c, def)
}

// RemovePrize 删除草稿奖池内的奖品
func (h *Handler) RemovePrize(c *gin.Context) {
	poolID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	prizeID, ok := paramUint(c, "prize_id")
	if !ok {
		return
	}
	if err := h.PoolService.RemovePrize(poolID, prizeID); err != nil {
		respondPoolError(c, err, "删除奖品失败")
		return
	}
	response.Success(c, nil)
}

// PublishPool 发布奖池版本
func (h *Handler) PublishPool(c *gin.Context) {
	poolID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	pool, err := h.PoolService.Publish(c.Request.Context(), poolID)
	if err != nil {
		respondPoolError(c, err, "发布奖池失败")
		return
	}
	response.Success(c, pool)
}

func respondPoolError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrPoolNotFound):
		response.NotFound(c, "奖池不存在")
	case errors.Is(err, service.ErrPoolNotDraft):
		response.BadRequest(c, "只有草稿状态的奖池可以修改")
	case errors.Is(err, service.ErrPoolEmpty):
		response.BadRequest(c, "奖池没有可用奖品，无法发布")
	case errors.Is(err, service.ErrPrizeNotFound):
		response.NotFound(c, "奖品不存在")
	case errors.Is(err, service.ErrInvalidPrize):
		response.BadRequest(c, "奖品定义无效")
	default:
		respondError(c, response.CodeInternal, fallbackMsg, err)
	}
}

func paramUint(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || value == 0 {
		response.BadRequest(c, "路径参数无效")
		return 0, false
	}
	return uint(value), true
}
