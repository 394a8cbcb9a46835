package handler

import "course-eval/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth     *AuthHandler
	Course   *CourseHandler
	Review   *ReviewHandler
	Schedule *ScheduleHandler
	Export   *ExportHandler
	Admin    *AdminHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		Course:   NewCourseHandler(svc.Course, svc.Summary),
		Review:   NewReviewHandler(svc.Review, svc.Vote),
		Schedule: NewScheduleHandler(svc.Schedule),
		Export:   NewExportHandler(svc.Export),
		Admin:    NewAdminHandler(svc.Summary, svc.Sweep),
	}
}
