package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/tablespin/internal/cache"
	"github.com/tablespin/internal/config"
	"github.com/tablespin/internal/constants"
	"github.com/tablespin/internal/models"
	"github.com/tablespin/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 账号认证服务
type AuthService struct {
	cfg         *config.Config
	accountRepo repository.AccountRepository
}

// NewAuthService 创建认证服务
func NewAuthService(cfg *config.Config, accountRepo repository.AccountRepository) *AuthService {
	return &AuthService{
		cfg:         cfg,
		accountRepo: accountRepo,
	}
}

// JWTClaims 账号 JWT 声明
type JWTClaims struct {
	AccountID    uint   `json:"account_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成账号 JWT Token
func (s *AuthService) GenerateJWT(account *models.Account) (string, time.Time, error) {
	expireHours := s.cfg.JWT.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	expiresAt := time.Now().Add(time.Duration(expireHours) * time.Hour)
	claims := JWTClaims{
		AccountID:    account.ID,
		Email:        account.Email,
		Role:         account.Role,
		TokenVersion: account.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析账号 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &JWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}

// Register 顾客注册
func (s *AuthService) Register(email, password, displayName string) (*models.Account, string, time.Time, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if len(password) < 8 {
		return nil, "", time.Time{}, errors.New("密码长度至少 8 位")
	}

	exist, err := s.accountRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if exist != nil {
		return nil, "", time.Time{}, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	if strings.TrimSpace(displayName) == "" {
		displayName = resolveNameFromEmail(normalized)
	}
	account := &models.Account{
		PublicID:     models.NewPublicID(),
		Email:        normalized,
		PasswordHash: string(hashedPassword),
		DisplayName:  strings.TrimSpace(displayName),
		Role:         constants.RoleCustomer,
		Status:       constants.AccountStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accountRepo.Create(account); err != nil {
		return nil, "", time.Time{}, err
	}

	token, expiresAt, err := s.GenerateJWT(account)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	account.LastLoginAt = &now
	if err := s.accountRepo.Update(account); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetAccountAuthState(context.Background(), cache.BuildAccountAuthState(account))

	return account, token, expiresAt, nil
}

// Login 账号登录（顾客/员工/管理员共用）
func (s *AuthService) Login(email, password string) (*models.Account, string, time.Time, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	account, err := s.accountRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if account == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if strings.ToLower(account.Status) != constants.AccountStatusActive {
		return nil, "", time.Time{}, ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(account)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	account.LastLoginAt = &now
	if err := s.accountRepo.Update(account); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetAccountAuthState(context.Background(), cache.BuildAccountAuthState(account))

	return account, token, expiresAt, nil
}

// ValidateClaims 校验声明对应的账号当前仍然有效
func (s *AuthService) ValidateClaims(ctx context.Context, claims *JWTClaims) (*models.Account, error) {
	if claims == nil || claims.AccountID == 0 {
		return nil, ErrAccountNotFound
	}

	if state, hit, err := cache.GetAccountAuthState(ctx, claims.AccountID); err == nil && hit {
		if state.TokenVersion != claims.TokenVersion {
			return nil, errors.New("token 已失效")
		}
		if strings.ToLower(state.Status) != constants.AccountStatusActive {
			return nil, ErrAccountDisabled
		}
	}

	account, err := s.accountRepo.GetByID(claims.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if account.TokenVersion != claims.TokenVersion {
		return nil, errors.New("token 已失效")
	}
	if strings.ToLower(account.Status) != constants.AccountStatusActive {
		return nil, ErrAccountDisabled
	}
	_ = cache.SetAccountAuthState(ctx, cache.BuildAccountAuthState(account))
	return account, nil
}

// CreateStaffAccount 管理员创建员工/管理员账号
func (s *AuthService) CreateStaffAccount(email, password, displayName, role string) (*models.Account, error) {
	if role != constants.RoleStaff && role != constants.RoleAdmin {
		return nil, errors.New("角色必须为 staff 或 admin")
	}
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < 8 {
		return nil, errors.New("密码长度至少 8 位")
	}
	exist, err := s.accountRepo.GetByEmail(normalized)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrEmailExists
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = resolveNameFromEmail(normalized)
	}
	account := &models.Account{
		PublicID:     models.NewPublicID(),
		Email:        normalized,
		PasswordHash: string(hashedPassword),
		DisplayName:  strings.TrimSpace(displayName),
		Role:         role,
		Status:       constants.AccountStatusActive,
	}
	if err := s.accountRepo.Create(account); err != nil {
		return nil, err
	}
	return account, nil
}

// SetAccountStatus 启用/禁用账号，禁用时令既有 token 全部失效
func (s *AuthService) SetAccountStatus(accountID uint, status string) (*models.Account, error) {
	if status != constants.AccountStatusActive && status != constants.AccountStatusDisabled {
		return nil, errors.New("账号状态无效")
	}
	account, err := s.accountRepo.GetByID(accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	account.Status = status
	if status == constants.AccountStatusDisabled {
		account.TokenVersion++
	}
	if err := s.accountRepo.Update(account); err != nil {
		return nil, err
	}
	_ = cache.DelAccountAuthState(context.Background(), account.ID)
	return account, nil
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", errors.New("邮箱不能为空")
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", errors.New("邮箱格式无效")
	}
	return trimmed, nil
}

func resolveNameFromEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return email
	}
	return email[:at]
}
