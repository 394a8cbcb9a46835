package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"course-eval/backend/config"
)

type pauseRecorder struct {
	calls []time.Duration
	// onPause 返回非 nil 时视为等待被取消
	onPause func() error
}

func (p *pauseRecorder) pause(_ context.Context, d time.Duration) error {
	p.calls = append(p.calls, d)
	if p.onPause != nil {
		return p.onPause()
	}
	return nil
}

func setupTestSweep(gen SummaryGenerator, opts ...SummaryOption) (*SummarySweep, *pauseRecorder, *mocks) {
	repo, m := newMockRepository()
	cfg := config.DefaultSummaryConfig()
	opts = append([]SummaryOption{WithClock(fixedClock(summaryNow))}, opts...)
	summary := NewSummaryService(repo, gen, cfg, zap.NewNop(), opts...)
	rec := &pauseRecorder{}
	return NewSummarySweep(repo, summary, cfg, nil, zap.NewNop(), rec.pause), rec, m
}

// seedCourse 创建课程并设置已通过评价数与已有基线（baselineCount < 0 表示无摘要）
func seedCourse(m *mocks, id string, approved, baselineCount int) {
	c := m.course.add(id)
	m.review.addApproved(id, approved)
	if baselineCount >= 0 {
		c.AISummary = datatypes.JSON(`{"overview":"旧摘要"}`)
		c.AISummaryReviewCount = &baselineCount
	}
}

func TestSummarySweep_Run_Mixed(t *testing.T) {
	gen := newFakeGenerator()
	sweep, rec, m := setupTestSweep(gen)
	seedCourse(m, "a", 12, -1) // 无摘要 → 生成
	seedCourse(m, "b", 3, -1)  // 评价不足 → 跳过
	seedCourse(m, "c", 15, 10) // 新增 5 条 → 跳过
	seedCourse(m, "d", 25, 10) // 新增 15 条 → 生成

	report, err := sweep.Run(context.Background())
	if err != nil {
		t.Fatalf("批量生成失败: %v", err)
	}
	if report.Total != 4 || report.Generated != 2 || report.Skipped != 2 || report.Failed != 0 {
		t.Errorf("报告不符: %+v", report)
	}
	if gen.callCount() != 2 {
		t.Errorf("期望调用生成器 2 次，实际 %d", gen.callCount())
	}
	// 仅在两次生成调用之间等待
	if len(rec.calls) != 1 || rec.calls[0] != time.Second {
		t.Errorf("等待记录不符: %v", rec.calls)
	}
	if b := baseline(m, "d"); b == nil || *b != 25 {
		t.Errorf("课程 d 基线应为 25，实际 %v", b)
	}
}

func TestSummarySweep_Run_FailureDoesNotAbort(t *testing.T) {
	gen := newFakeGenerator()
	gen.err = errors.New("上游超时")
	sweep, _, m := setupTestSweep(gen)
	seedCourse(m, "a", 12, -1)
	seedCourse(m, "b", 12, -1)

	report, err := sweep.Run(context.Background())
	if err != nil {
		t.Fatalf("单门课程失败不应中断: %v", err)
	}
	if report.Failed != 2 || report.Generated != 0 {
		t.Errorf("报告不符: %+v", report)
	}
	if gen.callCount() != 2 {
		t.Errorf("每门课程都应尝试生成，实际 %d 次", gen.callCount())
	}
}

func TestSummarySweep_Run_Unavailable(t *testing.T) {
	gen := newFakeGenerator()
	gen.available = false
	sweep, rec, m := setupTestSweep(gen)
	seedCourse(m, "a", 12, -1)
	seedCourse(m, "b", 30, -1)

	report, err := sweep.Run(context.Background())
	if err != nil {
		t.Fatalf("不可用时不应报错: %v", err)
	}
	if report.Total != 2 || report.Skipped != 2 {
		t.Errorf("应全部跳过: %+v", report)
	}
	if gen.callCount() != 0 || len(rec.calls) != 0 {
		t.Error("不可用时不应调用生成器或等待")
	}
}

func TestSummarySweep_Run_CancelledDuringPause(t *testing.T) {
	gen := newFakeGenerator()
	sweep, rec, m := setupTestSweep(gen)
	seedCourse(m, "a", 12, -1)
	seedCourse(m, "b", 12, -1)
	seedCourse(m, "c", 12, -1)
	rec.onPause = func() error { return context.Canceled }

	report, err := sweep.Run(context.Background())
	if err != nil {
		t.Fatalf("取消不应返回错误: %v", err)
	}
	if report.Total != 3 || report.Generated != 1 {
		t.Errorf("取消后应只保留已完成的课程: %+v", report)
	}
	if baseline(m, "b") != nil {
		t.Error("取消后未处理的课程不应被写入")
	}
}

func TestSummarySweep_Run_CancelledContext(t *testing.T) {
	gen := newFakeGenerator()
	sweep, _, m := setupTestSweep(gen)
	seedCourse(m, "a", 12, -1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := sweep.Run(ctx)
	if err != nil {
		t.Fatalf("取消不应返回错误: %v", err)
	}
	if report.Generated != 0 || gen.callCount() != 0 {
		t.Errorf("已取消的上下文不应生成: %+v", report)
	}
}

func TestSummarySweep_Run_LockBusyCountsAsSkipped(t *testing.T) {
	gen := newFakeGenerator()
	sweep, _, m := setupTestSweep(gen, WithSummaryLocker(&fakeLocker{busy: true}))
	seedCourse(m, "a", 12, -1)

	report, err := sweep.Run(context.Background())
	if err != nil {
		t.Fatalf("批量生成失败: %v", err)
	}
	if report.Skipped != 1 || report.Failed != 0 {
		t.Errorf("锁被占用应计为跳过: %+v", report)
	}
}

func TestSummarySweep_Run_RejectsConcurrentRun(t *testing.T) {
	gen := newFakeGenerator()
	sweep, _, m := setupTestSweep(gen)
	seedCourse(m, "a", 12, -1)

	var nestedErr error
	gen.onGenerate = func() {
		_, nestedErr = sweep.Run(context.Background())
	}

	if _, err := sweep.Run(context.Background()); err != nil {
		t.Fatalf("批量生成失败: %v", err)
	}
	if !errors.Is(nestedErr, ErrSweepInProgress) {
		t.Errorf("并发触发应被拒绝，实际: %v", nestedErr)
	}

	// 结束后可再次运行
	if _, err := sweep.Run(context.Background()); err != nil {
		t.Errorf("上一次结束后应可再次运行: %v", err)
	}
}

func TestSummarySweep_Run_SupersededCountsAsSkipped(t *testing.T) {
	gen := newFakeGenerator()
	sweep, _, m := setupTestSweep(gen)
	seedCourse(m, "a", 12, -1)

	// 生成期间另一实例已基于更多评价写入
	gen.onGenerate = func() {
		_ = m.course.UpdateSummary(context.Background(), "a", datatypes.JSON(`{"overview":"更新的摘要"}`), summaryNow, 20)
	}

	report, err := sweep.Run(context.Background())
	if err != nil {
		t.Fatalf("批量生成失败: %v", err)
	}
	if report.Generated != 0 || report.Skipped != 1 || report.Failed != 0 {
		t.Errorf("被丢弃的生成结果应计为跳过: %+v", report)
	}
	if b := baseline(m, "a"); b == nil || *b != 20 {
		t.Errorf("基线不应回退，实际 %v", b)
	}
}
