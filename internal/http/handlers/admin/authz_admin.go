package admin

import (
	"github.com/tablespin/internal/http/response"

	"github.com/gin-gonic/gin"
)

// PolicyRequest 策略授予/撤销请求
type PolicyRequest struct {
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// ListRoles 列出授权角色
func (h *Handler) ListRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "查询角色失败", err)
		return
	}
	response.Success(c, roles)
}

// GetRolePolicies 查询角色策略
func (h *Handler) GetRolePolicies(c *gin.Context) {
	policies, err := h.AuthzService.GetRolePolicies(c.Param("role"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "查询角色策略失败", err)
		return
	}
	response.Success(c, policies)
}

// GrantRolePolicy 为角色授予策略
func (h *Handler) GrantRolePolicy(c *gin.Context) {
	var req PolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	if err := h.AuthzService.GrantRolePolicy(c.Param("role"), req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "授予策略失败", err)
		return
	}
	response.Success(c, nil)
}

// RevokeRolePolicy 撤销角色策略
func (h *Handler) RevokeRolePolicy(c *gin.Context) {
	var req PolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(c.Param("role"), req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "撤销策略失败", err)
		return
	}
	response.Success(c, nil)
}
