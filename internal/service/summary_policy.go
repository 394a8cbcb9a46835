package service

import (
	"course-eval/backend/config"
	"course-eval/backend/internal/model"
)

// ShouldRegenerate 判断课程摘要是否需要（再）生成
//
//  1. 已通过评价数 < MinReviewCount → 否
//  2. 尚无缓存摘要 → 是
//  3. 有摘要但未记录生成时的评价数基线 → 是
//  4. 否则新增评价数超过 ReviewChangeThreshold 时再生成
func ShouldRegenerate(course *model.Course, approvedCount int64, cfg config.SummaryConfig) bool {
	if approvedCount < int64(cfg.MinReviewCount) {
		return false
	}
	if !course.HasCachedSummary() {
		return true
	}
	if course.AISummaryReviewCount == nil {
		return true
	}
	return approvedCount-int64(*course.AISummaryReviewCount) > int64(cfg.ReviewChangeThreshold)
}
