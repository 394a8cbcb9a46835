package service

import (
	"context"
	"sync"
	"time"

	"course-eval/backend/pkg/ai"
)

// fakeGenerator 可控的摘要生成器
type fakeGenerator struct {
	mu        sync.Mutex
	available bool
	err       error
	calls     int
	lastCount int
	// onGenerate 在返回前调用，可用于模拟生成期间发生的并发操作
	onGenerate func()
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{available: true}
}

func (g *fakeGenerator) Available() bool { return g.available }

func (g *fakeGenerator) GenerateSummary(ctx context.Context, course ai.CourseInput, reviews []ai.ReviewInput) (*ai.Summary, error) {
	g.mu.Lock()
	g.calls++
	g.lastCount = len(reviews)
	hook := g.onGenerate
	g.onGenerate = nil
	err := g.err
	g.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return &ai.Summary{Overview: course.Name + " 总体评价良好", Strengths: []string{"讲解清晰"}}, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// fixedClock 返回固定时间
func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// fakeLocker 模拟 Redis 锁
type fakeLocker struct {
	busy bool
	err  error
	keys []string
}

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, false, l.err
	}
	if l.busy {
		return nil, false, nil
	}
	return func() {}, true, nil
}
