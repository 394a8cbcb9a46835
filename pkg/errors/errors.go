package errors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ── 错误类别 ──
//
// 业务错误按类别区分，Handler 层据此映射 HTTP 状态：
//   - ErrNotFound    → 404
//   - ErrValidation  → 400
//   - ErrConflict    → 409
//   - ErrUnavailable → 503
//   - ErrUnauthorized → 401
//   - ErrForbidden   → 403

var (
	ErrNotFound     = errors.New("资源不存在")
	ErrValidation   = errors.New("参数校验失败")
	ErrConflict     = errors.New("业务规则冲突")
	ErrUnavailable  = errors.New("服务暂不可用")
	ErrUnauthorized = errors.New("未认证")
	ErrForbidden    = errors.New("无权操作")
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrDuplicateKey 唯一约束冲突（由 Repository 层从驱动错误翻译而来）
var ErrDuplicateKey = errors.New("唯一约束冲突")

// pgUniqueViolation PostgreSQL unique_violation SQLSTATE
const pgUniqueViolation = "23505"

// Error 带类别的业务错误
type Error struct {
	kind error
	msg  string
}

// New 创建指定类别的业务错误
func New(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Is 使 errors.Is(err, ErrConflict) 等类别判断成立
func (e *Error) Is(target error) bool { return target == e.kind }

// Kind 返回错误类别
func (e *Error) Kind() error { return e.kind }

// IsUniqueViolation 判断是否为唯一约束冲突
// 同时兼容 gorm TranslateError 与未翻译的 pgx 原始错误
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateKey) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// TranslateDuplicate 将唯一约束冲突统一翻译为 ErrDuplicateKey，其余错误原样返回
func TranslateDuplicate(err error) error {
	if IsUniqueViolation(err) {
		return ErrDuplicateKey
	}
	return err
}
