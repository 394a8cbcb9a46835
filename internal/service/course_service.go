package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"course-eval/backend/internal/dto"
	"course-eval/backend/internal/repository"
)

// CourseService 课程只读业务接口
type CourseService interface {
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrCourseNotFound)
	}

	stats, err := s.repo.Review.ApprovedRatingStats(ctx, id)
	if err != nil {
		s.logger.Error("统计课程评分失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}

	schedules, err := s.repo.CourseSchedule.ListByCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &dto.CourseResponse{
		ID:                  course.CourseID,
		Code:                course.Code,
		Name:                course.Name,
		Credit:              course.Credit,
		CourseType:          string(course.CourseType),
		Description:         course.Description,
		AssessmentCriteria:  course.AssessmentCriteria,
		ApprovedReviewCount: stats.Count,
		AverageRating:       math.Round(stats.Average*10) / 10,
		Schedules:           make([]dto.ScheduleResponse, 0, len(schedules)),
	}
	if course.Faculty != nil {
		resp.FacultyName = course.Faculty.Name
	}
	if course.Teacher != nil {
		resp.TeacherName = course.Teacher.Name
	}
	for i := range schedules {
		resp.Schedules = append(resp.Schedules, courseScheduleResponse(&schedules[i]))
	}
	return resp, nil
}
