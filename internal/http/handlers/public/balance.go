package public

import (
	"strconv"

	"github.com/tablespin/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ConvertRequest 积分兑换抽奖次数请求
type ConvertRequest struct {
	Spins int64 `json:"spins" binding:"required"`
}

// GetBalance 获取当前账号余额
func (h *Handler) GetBalance(c *gin.Context) {
	uid, ok := getAccountID(c)
	if !ok {
		return
	}
	balance, err := h.BalanceService.GetBalance(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "查询余额失败", err)
		return
	}
	response.Success(c, balance)
}

// ConvertPoints 将积分兑换为抽奖次数
func (h *Handler) ConvertPoints(c *gin.Context) {
	uid, ok := getAccountID(c)
	if !ok {
		return
	}
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	balance, err := h.BalanceService.ConvertPoints(uid, req.Spins)
	if err != nil {
		respondWithMappedError(c, err, convertErrorRules, response.CodeInternal, "兑换失败")
		return
	}
	response.Success(c, balance)
}

// ListMyCoupons 查询当前账号名下的券
func (h *Handler) ListMyCoupons(c *gin.Context) {
	uid, ok := getAccountID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	coupons, total, err := h.CouponService.ListByOwner(uid, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "查询优惠券失败", err)
		return
	}
	response.SuccessWithPage(c, coupons, response.BuildPagination(page, pageSize, total))
}
