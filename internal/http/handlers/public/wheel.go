package public

import (
	"errors"
	"strconv"

	"github.com/tablespin/internal/constants"
	"github.com/tablespin/internal/http/response"
	"github.com/tablespin/internal/repository"
	"github.com/tablespin/internal/service"

	"github.com/gin-gonic/gin"
)

// GetWheel 获取当前已发布转盘的展示快照
func (h *Handler) GetWheel(c *gin.Context) {
	snapshot, err := h.PoolService.GetPublishedWheel(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoEligiblePool) {
			response.NotFound(c, "当前没有可用的奖池")
			return
		}
		respondError(c, response.CodeInternal, "查询转盘失败", err)
		return
	}
	response.Success(c, snapshot)
}

// Spin 消耗一次抽奖次数并返回结算结果
func (h *Handler) Spin(c *gin.Context) {
	uid, ok := getAccountID(c)
	if !ok {
		return
	}
	result, err := h.SpinService.ResolveSpin(uid)
	if err != nil {
		respondWithMappedError(c, err, spinErrorRules, response.CodeInternal, "抽奖失败")
		return
	}
	response.Success(c, result)
}

// ListSpinHistory 查询当前账号的抽奖历史
func (h *Handler) ListSpinHistory(c *gin.Context) {
	uid, ok := getAccountID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	entries, total, err := h.AuditRepo.List(repository.AuditListFilter{
		AccountID: uid,
		Type:      constants.AuditTypeSpin,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询抽奖历史失败", err)
		return
	}
	response.SuccessWithPage(c, entries, response.BuildPagination(page, pageSize, total))
}
