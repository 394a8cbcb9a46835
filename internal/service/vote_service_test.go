package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"course-eval/backend/internal/model"
	pkgerrors "course-eval/backend/pkg/errors"
)

// ── 测试辅助 ──

func setupTestVoteService() (VoteService, *mocks) {
	repo, m := newMockRepository()
	m.course.add("course-1")
	_ = m.review.Create(context.Background(), &model.Review{
		ReviewID: "review-1",
		UserID:   "author",
		CourseID: "course-1",
		Content:  "讲得很清楚",
		Rating:   5,
		Status:   model.ReviewApproved,
	})
	return NewVoteService(repo, zap.NewNop()), m
}

func assertAggregate(t *testing.T, likes, dislikes int64, myVote string, likesGot, dislikesGot int64, myVoteGot *string) {
	t.Helper()
	if likesGot != likes || dislikesGot != dislikes {
		t.Errorf("期望 %d 赞 %d 踩，实际 %d 赞 %d 踩", likes, dislikes, likesGot, dislikesGot)
	}
	switch {
	case myVote == "" && myVoteGot != nil:
		t.Errorf("期望无投票，实际 %s", *myVoteGot)
	case myVote != "" && (myVoteGot == nil || *myVoteGot != myVote):
		t.Errorf("期望我的投票为 %s，实际 %v", myVote, myVoteGot)
	}
}

// ── Vote ──

func TestVoteService_Vote_Insert(t *testing.T) {
	svc, _ := setupTestVoteService()

	agg, err := svc.Vote(context.Background(), "review-1", "u1", model.VoteLike)
	if err != nil {
		t.Fatalf("投票失败: %v", err)
	}
	assertAggregate(t, 1, 0, "LIKE", agg.LikeCount, agg.DislikeCount, agg.MyVote)
}

func TestVoteService_Vote_SameTypeIdempotent(t *testing.T) {
	svc, m := setupTestVoteService()
	ctx := context.Background()

	first, _ := svc.Vote(ctx, "review-1", "u1", model.VoteLike)
	second, err := svc.Vote(ctx, "review-1", "u1", model.VoteLike)
	if err != nil {
		t.Fatalf("重复投票失败: %v", err)
	}
	assertAggregate(t, first.LikeCount, first.DislikeCount, "LIKE", second.LikeCount, second.DislikeCount, second.MyVote)
	if m.vote.createCalls != 1 || m.vote.updateCalls != 0 {
		t.Errorf("同类重复投票不应写入，create=%d update=%d", m.vote.createCalls, m.vote.updateCalls)
	}
}

func TestVoteService_Vote_Switch(t *testing.T) {
	svc, m := setupTestVoteService()
	ctx := context.Background()

	_, _ = svc.Vote(ctx, "review-1", "u1", model.VoteLike)
	_, _ = svc.Vote(ctx, "review-1", "u2", model.VoteLike)

	agg, err := svc.Vote(ctx, "review-1", "u1", model.VoteDislike)
	if err != nil {
		t.Fatalf("改投失败: %v", err)
	}
	assertAggregate(t, 1, 1, "DISLIKE", agg.LikeCount, agg.DislikeCount, agg.MyVote)
	if len(m.vote.votes) != 2 {
		t.Errorf("每人每条评价至多一票，实际 %d 票", len(m.vote.votes))
	}
}

func TestVoteService_Vote_ConcurrentInsertFallsBackToUpdate(t *testing.T) {
	svc, m := setupTestVoteService()

	// 本请求查询后、插入前，另一请求已为同一用户写入 LIKE
	m.vote.beforeCreate = func(v *model.ReviewVote) {
		m.vote.put(&model.ReviewVote{ReviewID: v.ReviewID, UserID: v.UserID, VoteType: model.VoteLike})
	}

	agg, err := svc.Vote(context.Background(), "review-1", "u1", model.VoteDislike)
	if err != nil {
		t.Fatalf("并发插入应改走更新路径，实际错误: %v", err)
	}
	assertAggregate(t, 0, 1, "DISLIKE", agg.LikeCount, agg.DislikeCount, agg.MyVote)
	if m.vote.updateCalls != 1 {
		t.Errorf("期望 1 次改投，实际 %d", m.vote.updateCalls)
	}
}

func TestVoteService_Vote_InvalidType(t *testing.T) {
	svc, _ := setupTestVoteService()

	_, err := svc.Vote(context.Background(), "review-1", "u1", model.VoteType("LOVE"))
	if !errors.Is(err, ErrInvalidVoteType) || !errors.Is(err, pkgerrors.ErrValidation) {
		t.Errorf("期望 ErrInvalidVoteType，实际: %v", err)
	}
}

func TestVoteService_Vote_ReviewNotFound(t *testing.T) {
	svc, _ := setupTestVoteService()

	_, err := svc.Vote(context.Background(), "missing", "u1", model.VoteLike)
	if !errors.Is(err, ErrReviewNotFound) {
		t.Errorf("期望 ErrReviewNotFound，实际: %v", err)
	}
}

// ── CancelVote ──

func TestVoteService_CancelVote(t *testing.T) {
	svc, _ := setupTestVoteService()
	ctx := context.Background()

	_, _ = svc.Vote(ctx, "review-1", "u1", model.VoteDislike)
	agg, err := svc.CancelVote(ctx, "review-1", "u1")
	if err != nil {
		t.Fatalf("取消投票失败: %v", err)
	}
	assertAggregate(t, 0, 0, "", agg.LikeCount, agg.DislikeCount, agg.MyVote)

	// 无票时取消为空操作
	agg, err = svc.CancelVote(ctx, "review-1", "u1")
	if err != nil {
		t.Fatalf("重复取消应成功: %v", err)
	}
	assertAggregate(t, 0, 0, "", agg.LikeCount, agg.DislikeCount, agg.MyVote)
}

func TestVoteService_CancelVote_ReviewNotFound(t *testing.T) {
	svc, _ := setupTestVoteService()

	_, err := svc.CancelVote(context.Background(), "missing", "u1")
	if !errors.Is(err, ErrReviewNotFound) {
		t.Errorf("期望 ErrReviewNotFound，实际: %v", err)
	}
}

func TestVoteService_GetAggregate(t *testing.T) {
	svc, _ := setupTestVoteService()
	ctx := context.Background()

	_, _ = svc.Vote(ctx, "review-1", "u1", model.VoteLike)
	_, _ = svc.Vote(ctx, "review-1", "u2", model.VoteLike)
	_, _ = svc.Vote(ctx, "review-1", "u3", model.VoteDislike)

	agg, err := svc.GetAggregate(ctx, "review-1", "u3")
	if err != nil {
		t.Fatalf("查询汇总失败: %v", err)
	}
	assertAggregate(t, 2, 1, "DISLIKE", agg.LikeCount, agg.DislikeCount, agg.MyVote)

	agg, _ = svc.GetAggregate(ctx, "review-1", "")
	assertAggregate(t, 2, 1, "", agg.LikeCount, agg.DislikeCount, agg.MyVote)
}
