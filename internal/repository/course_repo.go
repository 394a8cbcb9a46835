package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"course-eval/backend/internal/model"
	pkgerrors "course-eval/backend/pkg/errors"
)

// CourseRepository 课程数据访问接口
// 课程的增删改由管理后台负责，这里只提供读取与 AI 摘要写回
type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*model.Course, error)
	Exists(ctx context.Context, id string) (bool, error)
	ListAll(ctx context.Context) ([]model.Course, error)
	// UpdateSummary 原子写入摘要三字段；已有更新的基线时返回 ErrOptimisticLock
	UpdateSummary(ctx context.Context, courseID string, summary datatypes.JSON, generatedAt time.Time, reviewCount int) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Preload("Faculty").
		Preload("Teacher").
		Where("course_id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Course{}).Where("course_id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *courseRepo) ListAll(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).Order("code ASC").Find(&courses).Error
	return courses, err
}

func (r *courseRepo) UpdateSummary(ctx context.Context, courseID string, summary datatypes.JSON, generatedAt time.Time, reviewCount int) error {
	// 单条 UPDATE 同时写三字段；基线只前进不后退
	result := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("course_id = ? AND (ai_summary_review_count IS NULL OR ai_summary_review_count <= ?)", courseID, reviewCount).
		Updates(map[string]interface{}{
			"ai_summary":              summary,
			"ai_summary_generated_at": generatedAt,
			"ai_summary_review_count": reviewCount,
			"updated_at":              gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}
