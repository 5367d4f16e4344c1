package admin

import (
	"strconv"

	"github.com/tablespin/internal/http/response"
	"github.com/tablespin/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListAudits 分页查询抽奖与余额审计流水
func (h *Handler) ListAudits(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	accountID, _ := strconv.ParseUint(c.Query("account_id"), 10, 64)

	entries, total, err := h.AuditRepo.List(repository.AuditListFilter{
		AccountID: uint(accountID),
		Type:      c.Query("type"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询审计流水失败", err)
		return
	}
	response.SuccessWithPage(c, entries, response.BuildPagination(page, pageSize, total))
}

// ListCoupons 管理端分页查询优惠券
func (h *Handler) ListCoupons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	ownerID, _ := strconv.ParseUint(c.Query("owner_id"), 10, 64)

	coupons, total, err := h.CouponService.List(repository.CouponListFilter{
		OwnerID:  uint(ownerID),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询优惠券失败", err)
		return
	}
	response.SuccessWithPage(c, coupons, response.BuildPagination(page, pageSize, total))
}
