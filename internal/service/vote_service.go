package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-eval/backend/internal/dto"
	"course-eval/backend/internal/model"
	"course-eval/backend/internal/repository"
	pkgerrors "course-eval/backend/pkg/errors"
)

// ── 点赞模块业务错误 ──

var (
	ErrInvalidVoteType = pkgerrors.New(pkgerrors.ErrValidation, "投票类型必须为 LIKE 或 DISLIKE")
)

// VoteService 评价点赞业务接口
//
// 每个用户对每条评价至多一票：
//   - 无票 → 新增
//   - 异类票 → 改投
//   - 同类票 → 幂等，不产生写入
type VoteService interface {
	Vote(ctx context.Context, reviewID, userID string, voteType model.VoteType) (*dto.VoteAggregateResponse, error)
	CancelVote(ctx context.Context, reviewID, userID string) (*dto.VoteAggregateResponse, error)
	GetAggregate(ctx context.Context, reviewID, userID string) (*dto.VoteAggregateResponse, error)
}

type voteService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewVoteService 创建 VoteService 实例
func NewVoteService(repo *repository.Repository, logger *zap.Logger) VoteService {
	return &voteService{repo: repo, logger: logger}
}

func (s *voteService) ensureReview(ctx context.Context, reviewID string) error {
	ok, err := s.repo.Review.Exists(ctx, reviewID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrReviewNotFound
	}
	return nil
}

func (s *voteService) Vote(ctx context.Context, reviewID, userID string, voteType model.VoteType) (*dto.VoteAggregateResponse, error) {
	if !voteType.IsValid() {
		return nil, ErrInvalidVoteType
	}
	if err := s.ensureReview(ctx, reviewID); err != nil {
		return nil, err
	}

	existing, err := s.repo.ReviewVote.GetByReviewAndUser(ctx, reviewID, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if existing == nil {
		vote := &model.ReviewVote{ReviewID: reviewID, UserID: userID, VoteType: voteType}
		err = s.repo.ReviewVote.Create(ctx, vote)
		switch {
		case err == nil:
			return s.aggregate(ctx, reviewID, userID)
		case errors.Is(err, pkgerrors.ErrDuplicateKey):
			// 并发请求抢先插入：改走更新路径
			existing, err = s.repo.ReviewVote.GetByReviewAndUser(ctx, reviewID, userID)
			if err != nil {
				return nil, err
			}
		default:
			s.logger.Error("新增投票失败", zap.String("review_id", reviewID), zap.Error(err))
			return nil, err
		}
	}

	if existing.VoteType != voteType {
		if err := s.repo.ReviewVote.UpdateType(ctx, existing.ReviewVoteID, voteType); err != nil {
			s.logger.Error("改投失败", zap.String("review_id", reviewID), zap.Error(err))
			return nil, err
		}
	}

	return s.aggregate(ctx, reviewID, userID)
}

func (s *voteService) CancelVote(ctx context.Context, reviewID, userID string) (*dto.VoteAggregateResponse, error) {
	if err := s.ensureReview(ctx, reviewID); err != nil {
		return nil, err
	}
	if _, err := s.repo.ReviewVote.DeleteByReviewAndUser(ctx, reviewID, userID); err != nil {
		s.logger.Error("取消投票失败", zap.String("review_id", reviewID), zap.Error(err))
		return nil, err
	}
	return s.aggregate(ctx, reviewID, userID)
}

func (s *voteService) GetAggregate(ctx context.Context, reviewID, userID string) (*dto.VoteAggregateResponse, error) {
	if err := s.ensureReview(ctx, reviewID); err != nil {
		return nil, err
	}
	return s.aggregate(ctx, reviewID, userID)
}

// aggregate 实时统计点赞数与当前用户的投票
func (s *voteService) aggregate(ctx context.Context, reviewID, userID string) (*dto.VoteAggregateResponse, error) {
	counts, err := s.repo.ReviewVote.CountByReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	resp := &dto.VoteAggregateResponse{
		ReviewID:     reviewID,
		LikeCount:    counts.Likes,
		DislikeCount: counts.Dislikes,
	}

	if userID != "" {
		mine, err := s.repo.ReviewVote.GetByReviewAndUser(ctx, reviewID, userID)
		switch {
		case err == nil:
			v := string(mine.VoteType)
			resp.MyVote = &v
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}
	return resp, nil
}
