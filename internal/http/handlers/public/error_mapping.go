package public

import (
	"errors"

	"github.com/tablespin/internal/http/response"
	"github.com/tablespin/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var spinErrorRules = []mappedHandlerError{
	{target: service.ErrInsufficientSpins, code: response.CodeBadRequest, msg: "抽奖次数不足"},
	{target: service.ErrNoEligiblePool, code: response.CodeBadRequest, msg: "当前没有可用的奖池"},
	{target: service.ErrAccountNotFound, code: response.CodeUnauthorized, msg: "账号不存在"},
}

var convertErrorRules = []mappedHandlerError{
	{target: service.ErrInsufficientPoints, code: response.CodeBadRequest, msg: "积分不足"},
	{target: service.ErrInvalidSpinCount, code: response.CodeBadRequest, msg: "兑换次数必须为正整数"},
	{target: service.ErrAccountNotFound, code: response.CodeUnauthorized, msg: "账号不存在"},
}

var authErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCredentials, code: response.CodeBadRequest, msg: "邮箱或密码错误"},
	{target: service.ErrEmailExists, code: response.CodeBadRequest, msg: "邮箱已被注册"},
	{target: service.ErrAccountDisabled, code: response.CodeForbidden, msg: "账号已被禁用"},
}
