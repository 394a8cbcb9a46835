package repository

import (
	"context"

	"gorm.io/gorm"

	"course-eval/backend/internal/model"
	pkgerrors "course-eval/backend/pkg/errors"
)

// RatingStats 课程评分统计
type RatingStats struct {
	Count   int64
	Average float64
}

// ReviewRepository 评价数据访问接口
type ReviewRepository interface {
	// Create 插入评价；命中 (user_id, course_id) 部分唯一索引时返回 ErrDuplicateKey
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id string) (*model.Review, error)
	Exists(ctx context.Context, id string) (bool, error)
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*model.Review, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id string) error
	CountApproved(ctx context.Context, courseID string) (int64, error)
	ListApproved(ctx context.Context, courseID string) ([]model.Review, error)
	ListApprovedPage(ctx context.Context, courseID string, offset, limit int) ([]model.Review, int64, error)
	ApprovedRatingStats(ctx context.Context, courseID string) (RatingStats, error)
}

type reviewRepo struct {
	db *gorm.DB
}

// NewReviewRepo 创建 ReviewRepository 实例
func NewReviewRepo(db *gorm.DB) ReviewRepository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) Create(ctx context.Context, review *model.Review) error {
	return pkgerrors.TranslateDuplicate(r.db.WithContext(ctx).Create(review).Error)
}

func (r *reviewRepo) GetByID(ctx context.Context, id string) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("review_id = ?", id).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepo) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Review{}).Where("review_id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *reviewRepo) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("created_at ASC").
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepo) Update(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("review_id = ?", review.ReviewID).
		Updates(map[string]interface{}{
			"content":      review.Content,
			"rating":       review.Rating,
			"is_anonymous": review.IsAnonymous,
			"is_pinned":    review.IsPinned,
			"status":       review.Status,
			"updated_at":   gorm.Expr("NOW()"),
		}).Error
}

func (r *reviewRepo) Delete(ctx context.Context, id string) error {
	// 点赞记录由外键 ON DELETE CASCADE 一并删除
	return r.db.WithContext(ctx).Where("review_id = ?", id).Delete(&model.Review{}).Error
}

func (r *reviewRepo) CountApproved(ctx context.Context, courseID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("course_id = ? AND status = ?", courseID, model.ReviewApproved).
		Count(&n).Error
	return n, err
}

func (r *reviewRepo) ListApproved(ctx context.Context, courseID string) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND status = ?", courseID, model.ReviewApproved).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepo) ListApprovedPage(ctx context.Context, courseID string, offset, limit int) ([]model.Review, int64, error) {
	var reviews []model.Review
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("course_id = ? AND status = ?", courseID, model.ReviewApproved)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Order("is_pinned DESC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&reviews).Error; err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

func (r *reviewRepo) ApprovedRatingStats(ctx context.Context, courseID string) (RatingStats, error) {
	var stats struct {
		Count   int64
		Average float64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("course_id = ? AND status = ?", courseID, model.ReviewApproved).
		Scan(&stats).Error
	return RatingStats{Count: stats.Count, Average: stats.Average}, err
}
