package service

import (
	"context"
	"time"
)

// SummaryLocker 跨实例串行化摘要生成的锁（Redis 实现见 pkg/redis）
//
// 进程内的并发请求由 singleflight 合并，只有合并后的那一次调用会去抢这把锁。
type SummaryLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error)
}

func summaryLockKey(courseID string) string {
	return "summary:" + courseID
}
