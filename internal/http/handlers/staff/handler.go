package staff

import (
	handlershared "github.com/tablespin/internal/http/handlers/shared"
	"github.com/tablespin/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 员工侧接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建员工侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func getStaffID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "account_id")
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}
