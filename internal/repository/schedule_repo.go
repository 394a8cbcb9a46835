package repository

import (
	"context"

	"gorm.io/gorm"

	"course-eval/backend/internal/model"
	pkgerrors "course-eval/backend/pkg/errors"
)

// CourseScheduleRepository 课程周课表数据访问接口
type CourseScheduleRepository interface {
	Create(ctx context.Context, s *model.CourseSchedule) error
	GetByID(ctx context.Context, id string) (*model.CourseSchedule, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.CourseSchedule, error)
	// ExistsSlot 判断格子是否已被占用；excludeID 非空时排除该行（用于移动）
	ExistsSlot(ctx context.Context, courseID string, day, period int, excludeID string) (bool, error)
	Update(ctx context.Context, s *model.CourseSchedule) error
	Delete(ctx context.Context, id string) error
}

type courseScheduleRepo struct {
	db *gorm.DB
}

// NewCourseScheduleRepo 创建 CourseScheduleRepository 实例
func NewCourseScheduleRepo(db *gorm.DB) CourseScheduleRepository {
	return &courseScheduleRepo{db: db}
}

func (r *courseScheduleRepo) Create(ctx context.Context, s *model.CourseSchedule) error {
	return pkgerrors.TranslateDuplicate(r.db.WithContext(ctx).Create(s).Error)
}

func (r *courseScheduleRepo) GetByID(ctx context.Context, id string) (*model.CourseSchedule, error) {
	var s model.CourseSchedule
	err := r.db.WithContext(ctx).Where("course_schedule_id = ?", id).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *courseScheduleRepo) ListByCourse(ctx context.Context, courseID string) ([]model.CourseSchedule, error) {
	var list []model.CourseSchedule
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("day_of_week ASC, time_period ASC").
		Find(&list).Error
	return list, err
}

func (r *courseScheduleRepo) ExistsSlot(ctx context.Context, courseID string, day, period int, excludeID string) (bool, error) {
	var n int64
	db := r.db.WithContext(ctx).
		Model(&model.CourseSchedule{}).
		Where("course_id = ? AND day_of_week = ? AND time_period = ?", courseID, day, period)
	if excludeID != "" {
		db = db.Where("course_schedule_id <> ?", excludeID)
	}
	err := db.Count(&n).Error
	return n > 0, err
}

func (r *courseScheduleRepo) Update(ctx context.Context, s *model.CourseSchedule) error {
	err := r.db.WithContext(ctx).
		Model(&model.CourseSchedule{}).
		Where("course_schedule_id = ?", s.CourseScheduleID).
		Updates(map[string]interface{}{
			"day_of_week": s.DayOfWeek,
			"time_period": s.TimePeriod,
			"location":    s.Location,
			"updated_at":  gorm.Expr("NOW()"),
		}).Error
	return pkgerrors.TranslateDuplicate(err)
}

func (r *courseScheduleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("course_schedule_id = ?", id).Delete(&model.CourseSchedule{}).Error
}

// UserScheduleRepository 个人周课表数据访问接口
type UserScheduleRepository interface {
	Create(ctx context.Context, s *model.UserSchedule) error
	GetByID(ctx context.Context, id string) (*model.UserSchedule, error)
	ListByUser(ctx context.Context, userID string) ([]model.UserSchedule, error)
	ExistsSlot(ctx context.Context, userID string, day, period int, excludeID string) (bool, error)
	Update(ctx context.Context, s *model.UserSchedule) error
	Delete(ctx context.Context, id string) error
	// ReplaceByUser 在事务中全量替换用户课表：先删除旧数据，再批量插入新数据
	ReplaceByUser(ctx context.Context, userID string, list []model.UserSchedule) error
}

type userScheduleRepo struct {
	db *gorm.DB
}

// NewUserScheduleRepo 创建 UserScheduleRepository 实例
func NewUserScheduleRepo(db *gorm.DB) UserScheduleRepository {
	return &userScheduleRepo{db: db}
}

func (r *userScheduleRepo) Create(ctx context.Context, s *model.UserSchedule) error {
	return pkgerrors.TranslateDuplicate(r.db.WithContext(ctx).Create(s).Error)
}

func (r *userScheduleRepo) GetByID(ctx context.Context, id string) (*model.UserSchedule, error) {
	var s model.UserSchedule
	err := r.db.WithContext(ctx).Where("user_schedule_id = ?", id).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *userScheduleRepo) ListByUser(ctx context.Context, userID string) ([]model.UserSchedule, error) {
	var list []model.UserSchedule
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("day_of_week ASC, time_period ASC").
		Find(&list).Error
	return list, err
}

func (r *userScheduleRepo) ExistsSlot(ctx context.Context, userID string, day, period int, excludeID string) (bool, error) {
	var n int64
	db := r.db.WithContext(ctx).
		Model(&model.UserSchedule{}).
		Where("user_id = ? AND day_of_week = ? AND time_period = ?", userID, day, period)
	if excludeID != "" {
		db = db.Where("user_schedule_id <> ?", excludeID)
	}
	err := db.Count(&n).Error
	return n > 0, err
}

func (r *userScheduleRepo) Update(ctx context.Context, s *model.UserSchedule) error {
	err := r.db.WithContext(ctx).
		Model(&model.UserSchedule{}).
		Where("user_schedule_id = ?", s.UserScheduleID).
		Updates(map[string]interface{}{
			"day_of_week": s.DayOfWeek,
			"time_period": s.TimePeriod,
			"course_name": s.CourseName,
			"location":    s.Location,
			"updated_at":  gorm.Expr("NOW()"),
		}).Error
	return pkgerrors.TranslateDuplicate(err)
}

func (r *userScheduleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("user_schedule_id = ?", id).Delete(&model.UserSchedule{}).Error
}

func (r *userScheduleRepo) ReplaceByUser(ctx context.Context, userID string, list []model.UserSchedule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.UserSchedule{}).Error; err != nil {
			return err
		}
		if len(list) > 0 {
			if err := tx.Create(&list).Error; err != nil {
				return pkgerrors.TranslateDuplicate(err)
			}
		}
		return nil
	})
}
