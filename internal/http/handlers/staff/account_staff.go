package staff

import (
	"errors"

	"github.com/tablespin/internal/http/response"
	"github.com/tablespin/internal/service"

	"github.com/gin-gonic/gin"
)

// AwardPointsRequest 发放消费积分请求
type AwardPointsRequest struct {
	Points int64  `json:"points" binding:"required"`
	Remark string `json:"remark"`
}

// GetAccountByPublicID 按到店短码查询顾客账号
func (h *Handler) GetAccountByPublicID(c *gin.Context) {
	account, err := h.AccountRepo.GetByPublicID(c.Param("public_id"))
	if err != nil {
		respondError(c, response.CodeInternal, "查询账号失败", err)
		return
	}
	if account == nil {
		response.NotFound(c, "账号不存在")
		return
	}
	response.Success(c, gin.H{
		"id":           account.ID,
		"public_id":    account.PublicID,
		"display_name": account.DisplayName,
		"points":       account.Points,
		"spins":        account.Spins,
	})
}

// AwardPoints 为顾客发放消费积分
func (h *Handler) AwardPoints(c *gin.Context) {
	var req AwardPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	account, err := h.AccountRepo.GetByPublicID(c.Param("public_id"))
	if err != nil {
		respondError(c, response.CodeInternal, "查询账号失败", err)
		return
	}
	if account == nil {
		response.NotFound(c, "账号不存在")
		return
	}
	balance, err := h.BalanceService.AwardPoints(account.ID, req.Points, req.Remark)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPointsDelta) {
			response.BadRequest(c, "积分必须为正整数")
			return
		}
		respondError(c, response.CodeInternal, "发放积分失败", err)
		return
	}
	response.Success(c, balance)
}
