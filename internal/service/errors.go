package service

import (
	"errors"

	"gorm.io/gorm"

	pkgerrors "course-eval/backend/pkg/errors"
)

// ── 通用业务错误 ──
// Handler 层通过 errors.Is(err, pkgerrors.ErrXxx) 按类别映射 HTTP 状态

var (
	ErrUserNotFound     = pkgerrors.New(pkgerrors.ErrNotFound, "用户不存在")
	ErrCourseNotFound   = pkgerrors.New(pkgerrors.ErrNotFound, "课程不存在")
	ErrReviewNotFound   = pkgerrors.New(pkgerrors.ErrNotFound, "评价不存在")
	ErrScheduleNotFound = pkgerrors.New(pkgerrors.ErrNotFound, "课表记录不存在")
	ErrPermissionDenied = pkgerrors.New(pkgerrors.ErrForbidden, "无权操作该资源")
)

// notFoundAs 将 gorm.ErrRecordNotFound 替换为业务错误，其余错误原样返回
func notFoundAs(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

// validationError 将校验失败信息包装为 ErrValidation 类别
func validationError(err error) error {
	return pkgerrors.New(pkgerrors.ErrValidation, err.Error())
}
