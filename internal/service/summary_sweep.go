package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"course-eval/backend/config"
	"course-eval/backend/internal/dto"
	"course-eval/backend/internal/repository"
	pkgerrors "course-eval/backend/pkg/errors"
	"course-eval/backend/pkg/metrics"
)

var ErrSweepInProgress = pkgerrors.New(pkgerrors.ErrConflict, "摘要批量生成正在进行中")

// PauseFunc 两次生成调用之间的等待；ctx 取消时返回错误
type PauseFunc func(ctx context.Context, d time.Duration) error

// SummarySweep 批量检查所有课程并按策略再生成摘要
// 启动时在后台运行一次，管理员也可手动触发
type SummarySweep struct {
	repo    *repository.Repository
	summary SummaryService
	cfg     config.SummaryConfig
	pause   PauseFunc
	metrics *metrics.Metrics
	logger  *zap.Logger
	running atomic.Bool
}

// NewSummarySweep 创建 SummarySweep；pause 为 nil 时使用 sleepContext
func NewSummarySweep(
	repo *repository.Repository,
	summary SummaryService,
	cfg config.SummaryConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
	pause PauseFunc,
) *SummarySweep {
	if pause == nil {
		pause = sleepContext
	}
	return &SummarySweep{
		repo:    repo,
		summary: summary,
		cfg:     cfg,
		pause:   pause,
		metrics: m,
		logger:  logger,
	}
}

// Run 执行一次批量再生成
// 单门课程的失败只计数，不中断整体；ctx 取消后在课程之间停止
func (w *SummarySweep) Run(ctx context.Context) (*dto.SweepReport, error) {
	if !w.running.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer w.running.Store(false)

	courses, err := w.repo.Course.ListAll(ctx)
	if err != nil {
		w.logger.Error("摘要批量生成：查询课程失败", zap.Error(err))
		return nil, err
	}

	report := &dto.SweepReport{Total: len(courses)}

	if !w.summary.Available() {
		w.logger.Info("AI 服务未启用，跳过摘要批量生成", zap.Int("courses", len(courses)))
		report.Skipped = len(courses)
		return report, nil
	}

	started := time.Now()
	calls := 0

	for i := range courses {
		if ctx.Err() != nil {
			w.logger.Info("摘要批量生成已取消", zap.Int("processed", i))
			break
		}
		course := &courses[i]

		n, err := w.repo.Review.CountApproved(ctx, course.CourseID)
		if err != nil {
			report.Failed++
			w.metrics.ObserveSummary(summaryResultFailed, 0)
			w.logger.Warn("统计评价数失败", zap.String("course_id", course.CourseID), zap.Error(err))
			continue
		}

		if !w.summary.ShouldRegenerate(course, n) {
			report.Skipped++
			w.metrics.ObserveSummary(summaryResultSkipped, 0)
			continue
		}

		if calls > 0 {
			if err := w.pause(ctx, w.cfg.SweepPacing); err != nil {
				w.logger.Info("摘要批量生成已取消", zap.Int("processed", i))
				break
			}
		}
		calls++

		resp, err := w.summary.Regenerate(ctx, course.CourseID)
		switch {
		case err == nil && resp.Superseded:
			report.Skipped++
		case err == nil:
			report.Generated++
		case errors.Is(err, ErrSummaryInProgress):
			report.Skipped++
		default:
			report.Failed++
			w.logger.Warn("课程摘要生成失败",
				zap.String("course_id", course.CourseID),
				zap.String("code", course.Code),
				zap.Error(err),
			)
		}
	}

	w.logger.Info("摘要批量生成完成",
		zap.Int("total", report.Total),
		zap.Int("generated", report.Generated),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", time.Since(started)),
	)
	return report, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
