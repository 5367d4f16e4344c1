package public

import (
	"github.com/tablespin/internal/http/response"
	"github.com/tablespin/internal/models"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 顾客注册请求
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 顾客注册
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	account, token, expiresAt, err := h.AuthService.Register(req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeBadRequest, "注册失败")
		return
	}
	response.Success(c, gin.H{
		"account":    accountView(account),
		"token":      token,
		"expires_at": expiresAt,
	})
}

// Login 账号登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	account, token, expiresAt, err := h.AuthService.Login(req.Email, req.Password)
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeBadRequest, "登录失败")
		return
	}
	response.Success(c, gin.H{
		"account":    accountView(account),
		"token":      token,
		"expires_at": expiresAt,
	})
}

// GetMe 获取当前账号信息
func (h *Handler) GetMe(c *gin.Context) {
	uid, ok := getAccountID(c)
	if !ok {
		return
	}
	account, err := h.AccountRepo.GetByID(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "查询账号失败", err)
		return
	}
	if account == nil {
		response.NotFound(c, "账号不存在")
		return
	}
	response.Success(c, accountView(account))
}

func accountView(account *models.Account) gin.H {
	if account == nil {
		return nil
	}
	return gin.H{
		"id":           account.ID,
		"public_id":    account.PublicID,
		"email":        account.Email,
		"display_name": account.DisplayName,
		"role":         account.Role,
		"status":       account.Status,
		"points":       account.Points,
		"spins":        account.Spins,
	}
}
