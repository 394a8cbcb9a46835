package handler

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"course-eval/backend/internal/model"
)

const (
	notBlankTag = "notblank"
	voteTypeTag = "vote_type"
)

// RegisterValidators 在 gin 的校验引擎上注册自定义规则，启动时调用一次
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation(notBlankTag, notBlankValidation); err != nil {
		return err
	}
	return v.RegisterValidation(voteTypeTag, voteTypeValidation)
}

// notBlankValidation 字符串去除空白后不能为空
func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func voteTypeValidation(fl validator.FieldLevel) bool {
	return model.VoteType(fl.Field().String()).IsValid()
}
