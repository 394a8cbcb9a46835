package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User           UserRepository
	Course         CourseRepository
	Review         ReviewRepository
	ReviewVote     ReviewVoteRepository
	CourseSchedule CourseScheduleRepository
	UserSchedule   UserScheduleRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:           NewUserRepo(db),
		Course:         NewCourseRepo(db),
		Review:         NewReviewRepo(db),
		ReviewVote:     NewReviewVoteRepo(db),
		CourseSchedule: NewCourseScheduleRepo(db),
		UserSchedule:   NewUserScheduleRepo(db),
	}
}
