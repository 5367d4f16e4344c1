package admin

import (
	"errors"
	"strconv"

	"github.com/tablespin/internal/http/response"
	"github.com/tablespin/internal/repository"
	"github.com/tablespin/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateStaffRequest 创建员工/管理员账号请求
type CreateStaffRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role" binding:"required"`
}

// SetStatusRequest 账号状态变更请求
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdjustBalanceRequest 管理员余额调整请求
type AdjustBalanceRequest struct {
	PointsDelta int64  `json:"points_delta"`
	SpinsDelta  int64  `json:"spins_delta"`
	Remark      string `json:"remark"`
}

// ListAccounts 分页查询账号
func (h *Handler) ListAccounts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	accounts, total, err := h.AccountRepo.List(repository.AccountListFilter{
		Role:     c.Query("role"),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询账号失败", err)
		return
	}
	response.SuccessWithPage(c, accounts, response.BuildPagination(page, pageSize, total))
}

// CreateStaff 创建员工/管理员账号
func (h *Handler) CreateStaff(c *gin.Context) {
	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	account, err := h.AuthService.CreateStaffAccount(req.Email, req.Password, req.DisplayName, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			response.BadRequest(c, "邮箱已被注册")
			return
		}
		respondError(c, response.CodeBadRequest, "创建账号失败", err)
		return
	}
	response.Success(c, account)
}

// SetAccountStatus 启用/禁用账号
func (h *Handler) SetAccountStatus(c *gin.Context) {
	accountID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	account, err := h.AuthService.SetAccountStatus(accountID, req.Status)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			response.NotFound(c, "账号不存在")
			return
		}
		respondError(c, response.CodeBadRequest, "更新账号状态失败", err)
		return
	}
	response.Success(c, account)
}

// AdjustBalance 管理员调整账号积分或抽奖次数
func (h *Handler) AdjustBalance(c *gin.Context) {
	accountID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	balance, err := h.BalanceService.AdminAdjust(accountID, req.PointsDelta, req.SpinsDelta, req.Remark)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			response.NotFound(c, "账号不存在")
		case errors.Is(err, service.ErrBalanceWouldGoNegative):
			response.BadRequest(c, "余额不足以完成该变更")
		case errors.Is(err, service.ErrInvalidPointsDelta):
			response.BadRequest(c, "变更数值无效")
		default:
			respondError(c, response.CodeInternal, "调整余额失败", err)
		}
		return
	}
	response.Success(c, balance)
}
