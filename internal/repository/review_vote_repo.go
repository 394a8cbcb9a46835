package repository

import (
	"context"

	"gorm.io/gorm"

	"course-eval/backend/internal/model"
	pkgerrors "course-eval/backend/pkg/errors"
)

// VoteCounts 单条评价的点赞/点踩计数
type VoteCounts struct {
	Likes    int64
	Dislikes int64
}

// ReviewVoteRepository 评价点赞数据访问接口
// 计数总是从 review_votes 实时聚合，不维护冗余计数列
type ReviewVoteRepository interface {
	GetByReviewAndUser(ctx context.Context, reviewID, userID string) (*model.ReviewVote, error)
	// Create 插入投票；并发下命中 (review_id, user_id) 唯一索引时返回 ErrDuplicateKey
	Create(ctx context.Context, vote *model.ReviewVote) error
	UpdateType(ctx context.Context, voteID string, voteType model.VoteType) error
	DeleteByReviewAndUser(ctx context.Context, reviewID, userID string) (int64, error)
	CountByReview(ctx context.Context, reviewID string) (VoteCounts, error)
	CountByReviews(ctx context.Context, reviewIDs []string) (map[string]VoteCounts, error)
	ListUserVotes(ctx context.Context, userID string, reviewIDs []string) (map[string]model.VoteType, error)
}

type reviewVoteRepo struct {
	db *gorm.DB
}

// NewReviewVoteRepo 创建 ReviewVoteRepository 实例
func NewReviewVoteRepo(db *gorm.DB) ReviewVoteRepository {
	return &reviewVoteRepo{db: db}
}

func (r *reviewVoteRepo) GetByReviewAndUser(ctx context.Context, reviewID, userID string) (*model.ReviewVote, error) {
	var vote model.ReviewVote
	err := r.db.WithContext(ctx).
		Where("review_id = ? AND user_id = ?", reviewID, userID).
		First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *reviewVoteRepo) Create(ctx context.Context, vote *model.ReviewVote) error {
	return pkgerrors.TranslateDuplicate(r.db.WithContext(ctx).Create(vote).Error)
}

func (r *reviewVoteRepo) UpdateType(ctx context.Context, voteID string, voteType model.VoteType) error {
	return r.db.WithContext(ctx).
		Model(&model.ReviewVote{}).
		Where("review_vote_id = ?", voteID).
		Updates(map[string]interface{}{
			"vote_type":  voteType,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *reviewVoteRepo) DeleteByReviewAndUser(ctx context.Context, reviewID, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("review_id = ? AND user_id = ?", reviewID, userID).
		Delete(&model.ReviewVote{})
	return result.RowsAffected, result.Error
}

type voteCountRow struct {
	ReviewID string
	VoteType model.VoteType
	Cnt      int64
}

func (r *reviewVoteRepo) CountByReview(ctx context.Context, reviewID string) (VoteCounts, error) {
	counts, err := r.CountByReviews(ctx, []string{reviewID})
	if err != nil {
		return VoteCounts{}, err
	}
	return counts[reviewID], nil
}

func (r *reviewVoteRepo) CountByReviews(ctx context.Context, reviewIDs []string) (map[string]VoteCounts, error) {
	result := make(map[string]VoteCounts, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return result, nil
	}

	var rows []voteCountRow
	err := r.db.WithContext(ctx).
		Model(&model.ReviewVote{}).
		Select("review_id, vote_type, COUNT(*) AS cnt").
		Where("review_id IN ?", reviewIDs).
		Group("review_id, vote_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		c := result[row.ReviewID]
		switch row.VoteType {
		case model.VoteLike:
			c.Likes = row.Cnt
		case model.VoteDislike:
			c.Dislikes = row.Cnt
		}
		result[row.ReviewID] = c
	}
	return result, nil
}

func (r *reviewVoteRepo) ListUserVotes(ctx context.Context, userID string, reviewIDs []string) (map[string]model.VoteType, error) {
	result := make(map[string]model.VoteType)
	if userID == "" || len(reviewIDs) == 0 {
		return result, nil
	}

	var votes []model.ReviewVote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND review_id IN ?", userID, reviewIDs).
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	for _, v := range votes {
		result[v.ReviewID] = v.VoteType
	}
	return result, nil
}
