package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"course-eval/backend/internal/service"
	pkgerrors "course-eval/backend/pkg/errors"
	"course-eval/backend/pkg/response"
)

// ── 业务错误码 ──
//
//	10xxx 通用  11xxx 认证  12xxx 评价  13xxx 课表  14xxx AI 摘要

const (
	codeValidation   = 10001
	codeUnauthorized = 10002
	codeForbidden    = 10003
	codeNotFound     = 10006
	codeConflict     = 10007
	codeUnavailable  = 10008
)

// specificCodes 需要前端区分处理的错误
var specificCodes = []struct {
	err  error
	code int
}{
	{service.ErrInvalidCredentials, 11001},
	{service.ErrUsernameTaken, 11002},
	{service.ErrEmailTaken, 11003},
	{service.ErrDuplicateReview, 12001},
	{service.ErrInvalidVoteType, 12002},
	{service.ErrSlotConflict, 13001},
	{service.ErrICSInvalid, 13002},
	{service.ErrSummaryInProgress, 14001},
	{service.ErrSummaryDisabled, 14002},
	{service.ErrSummaryFailed, 14003},
	{service.ErrSweepInProgress, 14004},
}

// handleError 按错误类别映射 HTTP 状态：
// NotFound→404 Validation→400 Conflict→409 Unavailable→503 Unauthorized→401 Forbidden→403，其余 500
func handleError(c *gin.Context, err error) {
	var bizErr *pkgerrors.Error
	if !errors.As(err, &bizErr) {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	// 只返回业务错误自身的信息，不暴露上游原因
	msg := bizErr.Error()
	code := 0
	for _, sc := range specificCodes {
		if errors.Is(err, sc.err) {
			code = sc.code
			break
		}
	}
	pick := func(fallback int) int {
		if code != 0 {
			return code
		}
		return fallback
	}

	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, pick(codeNotFound), msg)
	case errors.Is(err, pkgerrors.ErrValidation):
		response.BadRequest(c, pick(codeValidation), msg)
	case errors.Is(err, pkgerrors.ErrConflict):
		response.Conflict(c, pick(codeConflict), msg)
	case errors.Is(err, pkgerrors.ErrUnavailable):
		_ = c.Error(err)
		response.ServiceUnavailable(c, pick(codeUnavailable), msg)
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		response.Unauthorized(c, pick(codeUnauthorized), msg)
	case errors.Is(err, pkgerrors.ErrForbidden):
		response.Forbidden(c, pick(codeForbidden), msg)
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// bindFailed 参数绑定失败统一响应
func bindFailed(c *gin.Context) {
	response.BadRequest(c, codeValidation, "参数校验失败")
}
