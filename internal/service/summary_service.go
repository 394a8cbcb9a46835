package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"course-eval/backend/config"
	"course-eval/backend/internal/dto"
	"course-eval/backend/internal/model"
	"course-eval/backend/internal/repository"
	"course-eval/backend/pkg/ai"
	pkgerrors "course-eval/backend/pkg/errors"
	"course-eval/backend/pkg/metrics"
)

// ── AI 摘要模块业务错误 ──

var (
	ErrSummaryDisabled   = pkgerrors.New(pkgerrors.ErrUnavailable, "AI 服务未启用")
	ErrSummaryFailed     = pkgerrors.New(pkgerrors.ErrUnavailable, "AI 摘要生成失败，请稍后重试")
	ErrSummaryInProgress = pkgerrors.New(pkgerrors.ErrConflict, "摘要正在生成中")
)

const (
	summaryResultGenerated = "generated"
	summaryResultSkipped   = "skipped"
	summaryResultFailed    = "failed"
)

// SummaryGenerator 外部摘要生成器（ai.Client 实现）
type SummaryGenerator interface {
	Available() bool
	GenerateSummary(ctx context.Context, course ai.CourseInput, reviews []ai.ReviewInput) (*ai.Summary, error)
}

// Clock 时间来源，测试可注入固定时间
type Clock func() time.Time

// SummaryService 课程 AI 摘要业务接口
type SummaryService interface {
	Available() bool
	ShouldRegenerate(course *model.Course, approvedCount int64) bool
	Regenerate(ctx context.Context, courseID string) (*dto.CourseSummaryResponse, error)
	GetCachedSummary(ctx context.Context, courseID string) (*dto.CourseSummaryResponse, error)
}

type summaryService struct {
	repo      *repository.Repository
	generator SummaryGenerator
	locker    SummaryLocker
	group     singleflight.Group
	cfg       config.SummaryConfig
	clock     Clock
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// SummaryOption 可选依赖
type SummaryOption func(*summaryService)

// WithSummaryLocker 使用分布式锁（Redis）
func WithSummaryLocker(l SummaryLocker) SummaryOption {
	return func(s *summaryService) { s.locker = l }
}

// WithClock 注入时间来源
func WithClock(c Clock) SummaryOption {
	return func(s *summaryService) { s.clock = c }
}

// WithSummaryMetrics 上报摘要生成指标
func WithSummaryMetrics(m *metrics.Metrics) SummaryOption {
	return func(s *summaryService) { s.metrics = m }
}

// NewSummaryService 创建 SummaryService 实例；generator 可为 nil（AI 未配置）
func NewSummaryService(
	repo *repository.Repository,
	generator SummaryGenerator,
	cfg config.SummaryConfig,
	logger *zap.Logger,
	opts ...SummaryOption,
) SummaryService {
	s := &summaryService{
		repo:      repo,
		generator: generator,
		cfg:       cfg,
		clock:     time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *summaryService) Available() bool {
	return s.generator != nil && s.generator.Available()
}

func (s *summaryService) ShouldRegenerate(course *model.Course, approvedCount int64) bool {
	return ShouldRegenerate(course, approvedCount, s.cfg)
}

// ────────────────────── Regenerate ──────────────────────

// Regenerate 重新生成课程摘要
//
// 同一课程的并发请求在进程内合并为一次生成，跨实例再由 Redis 锁互斥；
// 摘要、生成时间与评价数基线由一条条件 UPDATE 整体写入，基线只前进不后退。
// 生成失败时旧缓存保持不变。
func (s *summaryService) Regenerate(ctx context.Context, courseID string) (*dto.CourseSummaryResponse, error) {
	if !s.Available() {
		return nil, ErrSummaryDisabled
	}

	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		return nil, notFoundAs(err, ErrCourseNotFound)
	}

	key := summaryLockKey(courseID)
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.regenerate(ctx, key, course)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("复用同一课程进行中的摘要生成", zap.String("course_id", courseID))
	}

	// 合并的调用方共享同一结果，各自返回副本
	resp := *v.(*dto.CourseSummaryResponse)
	return &resp, nil
}

func (s *summaryService) regenerate(ctx context.Context, key string, course *model.Course) (*dto.CourseSummaryResponse, error) {
	courseID := course.CourseID

	if s.locker != nil {
		unlock, ok, err := s.locker.TryLock(ctx, key, s.cfg.LockTTL)
		switch {
		case err != nil:
			s.logger.Warn("Redis 锁不可用，仅在本实例内去重", zap.String("course_id", courseID), zap.Error(err))
		case !ok:
			return nil, ErrSummaryInProgress
		default:
			defer unlock()
		}
	}

	reviews, err := s.repo.Review.ListApproved(ctx, courseID)
	if err != nil {
		s.logger.Error("查询已通过评价失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	n := len(reviews)

	inputs := make([]ai.ReviewInput, 0, n)
	for _, r := range reviews {
		inputs = append(inputs, ai.ReviewInput{Rating: r.Rating, Content: r.Content})
	}

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerateTimeout)
	defer cancel()

	started := s.clock()
	summary, err := s.generator.GenerateSummary(genCtx, ai.CourseInput{
		Code:        course.Code,
		Name:        course.Name,
		Description: course.Description,
		Assessment:  course.AssessmentCriteria,
	}, inputs)
	if err != nil {
		s.metrics.ObserveSummary(summaryResultFailed, 0)
		s.logger.Warn("AI 摘要生成失败",
			zap.String("course_id", courseID),
			zap.Int("review_count", n),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrSummaryFailed, err)
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	err = s.repo.Course.UpdateSummary(ctx, courseID, datatypes.JSON(data), now, n)
	switch {
	case err == nil:
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		// 已有基于更多评价的摘要：丢弃本次结果，返回已持久化的版本
		s.logger.Info("已存在更新的摘要，丢弃本次结果",
			zap.String("course_id", courseID),
			zap.Int("review_count", n),
		)
		s.metrics.ObserveSummary(summaryResultSkipped, 0)
		cached, err := s.GetCachedSummary(ctx, courseID)
		if err != nil {
			return nil, err
		}
		cached.Superseded = true
		return cached, nil
	default:
		s.logger.Error("写入摘要失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	s.metrics.ObserveSummary(summaryResultGenerated, now.Sub(started))
	s.logger.Info("AI 摘要已更新",
		zap.String("course_id", courseID),
		zap.Int("review_count", n),
		zap.Duration("elapsed", now.Sub(started)),
	)

	return &dto.CourseSummaryResponse{
		Available:   true,
		ReviewCount: int64(n),
		Summary:     json.RawMessage(data),
		GeneratedAt: now.Format(dto.TimeFormat),
	}, nil
}

// ────────────────────── GetCachedSummary ──────────────────────

// GetCachedSummary 只读缓存，不会调用生成器
func (s *summaryService) GetCachedSummary(ctx context.Context, courseID string) (*dto.CourseSummaryResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		return nil, notFoundAs(err, ErrCourseNotFound)
	}
	n, err := s.repo.Review.CountApproved(ctx, courseID)
	if err != nil {
		return nil, err
	}

	resp := &dto.CourseSummaryResponse{ReviewCount: n}
	if course.HasCachedSummary() {
		resp.Available = true
		resp.Summary = json.RawMessage(course.AISummary)
		if course.AISummaryGeneratedAt != nil {
			resp.GeneratedAt = course.AISummaryGeneratedAt.Format(dto.TimeFormat)
		}
		return resp, nil
	}

	switch {
	case !s.Available():
		resp.Message = "AI 服务未启用"
	case n < int64(s.cfg.MinReviewCount):
		resp.Message = fmt.Sprintf("评价数量不足 %d 条，暂无 AI 摘要", s.cfg.MinReviewCount)
	default:
		resp.Message = "AI 摘要尚未生成"
	}
	return resp, nil
}
