package service

import (
	"go.uber.org/zap"

	"course-eval/backend/config"
	"course-eval/backend/internal/repository"
	"course-eval/backend/pkg/jwt"
	"course-eval/backend/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth     AuthService
	Course   CourseService
	Review   ReviewService
	Vote     VoteService
	Schedule ScheduleService
	Summary  SummaryService
	Sweep    *SummarySweep
	Export   ExportService
}

// Deps 外部依赖；Redis 与 AI 均可缺省
type Deps struct {
	JWT       *jwt.Manager
	Blacklist TokenBlacklist
	Locker    SummaryLocker
	Generator SummaryGenerator
	Metrics   *metrics.Metrics
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	deps Deps,
	logger *zap.Logger,
) *Service {
	opts := []SummaryOption{WithSummaryMetrics(deps.Metrics)}
	if deps.Locker != nil {
		opts = append(opts, WithSummaryLocker(deps.Locker))
	}
	summary := NewSummaryService(repo, deps.Generator, cfg.Summary, logger, opts...)

	return &Service{
		Auth:     NewAuthService(repo, deps.JWT, deps.Blacklist, logger),
		Course:   NewCourseService(repo, logger),
		Review:   NewReviewService(repo, logger),
		Vote:     NewVoteService(repo, logger),
		Schedule: NewScheduleService(repo, logger),
		Summary:  summary,
		Sweep:    NewSummarySweep(repo, summary, cfg.Summary, deps.Metrics, logger, nil),
		Export:   NewExportService(repo, logger),
	}
}
