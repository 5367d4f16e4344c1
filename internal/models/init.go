package models

import (
	crand "crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/tablespin/internal/constants"
	"github.com/tablespin/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// NewPublicID 生成对外展示的账号短码（到店扫码/报号用）
func NewPublicID() string {
	buf := make([]byte, 4)
	if _, err := crand.Read(buf); err != nil {
		return "T0000000"
	}
	return "T" + strings.ToUpper(hex.EncodeToString(buf))[:7]
}

// InitDefaultAdmin 初始化默认管理员账号
func InitDefaultAdmin(email, password string) error {
	var count int64
	DB.Model(&Account{}).Where("role = ?", constants.RoleAdmin).Count(&count)
	if count > 0 {
		return nil
	}

	if email == "" {
		email = "admin@tablespin.local"
	}
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := Account{
		PublicID:     NewPublicID(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  "admin",
		Role:         constants.RoleAdmin,
		Status:       constants.AccountStatusActive,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	if password == "admin123" {
		logger.Warnw("default_admin_created_with_default_password", "email", email)
		logger.Warnw("default_admin_password_change_required", "email", email)
	} else {
		logger.Warnw("default_admin_created", "email", email, "password_hidden", true)
	}
	return nil
}
