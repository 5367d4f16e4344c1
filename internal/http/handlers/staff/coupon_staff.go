package staff

import (
	"errors"
	"strconv"

	"github.com/tablespin/internal/constants"
	"github.com/tablespin/internal/http/response"
	"github.com/tablespin/internal/repository"
	"github.com/tablespin/internal/service"

	"github.com/gin-gonic/gin"
)

// GetCoupon 按券码查看券详情（核销前确认）
func (h *Handler) GetCoupon(c *gin.Context) {
	detail, err := h.CouponService.GetByCode(c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			response.NotFound(c, "优惠券不存在")
			return
		}
		respondError(c, response.CodeInternal, "查询优惠券失败", err)
		return
	}
	response.Success(c, detail)
}

// ListRedemptions 查询最近核销记录
func (h *Handler) ListRedemptions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	coupons, total, err := h.CouponService.List(repository.CouponListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   constants.CouponStatusRedeemed,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询核销记录失败", err)
		return
	}
	response.SuccessWithPage(c, coupons, response.BuildPagination(page, pageSize, total))
}

// RedeemCoupon 核销一张券
func (h *Handler) RedeemCoupon(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	detail, err := h.CouponService.Redeem(c.Param("code"), staffID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			response.NotFound(c, "优惠券不存在")
		case errors.Is(err, service.ErrCouponAlreadyRedeemed):
			response.BadRequest(c, "优惠券已被核销")
		case errors.Is(err, service.ErrCouponExpired):
			response.BadRequest(c, "优惠券已过期")
		case errors.Is(err, service.ErrCouponNotActive):
			response.BadRequest(c, "优惠券状态不可核销")
		default:
			respondError(c, response.CodeInternal, "核销失败", err)
		}
		return
	}
	response.Success(c, detail)
}
