package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-eval/backend/internal/dto"
	"course-eval/backend/internal/model"
	"course-eval/backend/internal/repository"
	pkgerrors "course-eval/backend/pkg/errors"
)

// ── 评价模块业务错误 ──

var (
	ErrDuplicateReview = pkgerrors.New(pkgerrors.ErrConflict, "已经对这门课程发表过评价")
	ErrInvalidRating   = pkgerrors.New(pkgerrors.ErrValidation, "评分必须在 1-5 之间")
	ErrBlankContent    = pkgerrors.New(pkgerrors.ErrValidation, "评价内容不能为空")
	ErrInvalidStatus   = pkgerrors.New(pkgerrors.ErrValidation, "审核状态只能为 APPROVED 或 REJECTED")
)

const anonymousAuthorName = "匿名用户"

// Actor 当前操作者（来自 JWT）
type Actor struct {
	UserID string
	Role   model.Role
}

// ReviewService 评价业务接口
type ReviewService interface {
	Create(ctx context.Context, userID string, req *dto.CreateReviewRequest) (*dto.ReviewResponse, error)
	GetByID(ctx context.Context, id string, viewer Actor) (*dto.ReviewResponse, error)
	ListByCourse(ctx context.Context, courseID string, req *dto.ReviewListRequest, viewer Actor) ([]dto.ReviewResponse, int64, error)
	Update(ctx context.Context, actor Actor, id string, req *dto.UpdateReviewRequest) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, actor Actor, id string) error
	SetStatus(ctx context.Context, actor Actor, id string, status model.ReviewStatus) (*dto.ReviewResponse, error)
	SetPinned(ctx context.Context, actor Actor, id string, pinned bool) (*dto.ReviewResponse, error)
}

type reviewService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewReviewService 创建 ReviewService 实例
func NewReviewService(repo *repository.Repository, logger *zap.Logger) ReviewService {
	return &reviewService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

// Create 发表评价
// 非豁免角色每门课至多一条评价；存储层以部分唯一索引兜底并发插入
func (s *reviewService) Create(ctx context.Context, userID string, req *dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	if !model.IsValidRating(req.Rating) {
		return nil, ErrInvalidRating
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrBlankContent
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound)
	}
	ok, err := s.repo.Course.Exists(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCourseNotFound
	}

	exempt := model.IsExemptFromReviewUniqueness(user.Role)
	if !exempt {
		_, err := s.repo.Review.FindByUserAndCourse(ctx, userID, req.CourseID)
		switch {
		case err == nil:
			return nil, ErrDuplicateReview
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}

	review := &model.Review{
		UserID:           userID,
		CourseID:         req.CourseID,
		Content:          content,
		Rating:           req.Rating,
		IsAnonymous:      req.IsAnonymous,
		Status:           model.ReviewApproved,
		UniquenessExempt: exempt,
	}
	if err := s.repo.Review.Create(ctx, review); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicateKey) {
			return nil, ErrDuplicateReview
		}
		s.logger.Error("创建评价失败", zap.String("course_id", req.CourseID), zap.Error(err))
		return nil, err
	}
	review.User = user

	s.logger.Info("评价已发表",
		zap.String("review_id", review.ReviewID),
		zap.String("course_id", review.CourseID),
		zap.Bool("exempt", exempt),
	)

	viewer := Actor{UserID: userID, Role: user.Role}
	resp := toReviewResponse(review, repository.VoteCounts{}, "", viewer)
	return &resp, nil
}

// ────────────────────── Read ──────────────────────

func (s *reviewService) GetByID(ctx context.Context, id string, viewer Actor) (*dto.ReviewResponse, error) {
	review, err := s.repo.Review.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrReviewNotFound)
	}
	return s.withAggregates(ctx, review, viewer)
}

func (s *reviewService) ListByCourse(ctx context.Context, courseID string, req *dto.ReviewListRequest, viewer Actor) ([]dto.ReviewResponse, int64, error) {
	ok, err := s.repo.Course.Exists(ctx, courseID)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, ErrCourseNotFound
	}

	reviews, total, err := s.repo.Review.ListApprovedPage(ctx, courseID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询评价列表失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, 0, err
	}

	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.ReviewID)
	}
	counts, err := s.repo.ReviewVote.CountByReviews(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	mine, err := s.repo.ReviewVote.ListUserVotes(ctx, viewer.UserID, ids)
	if err != nil {
		return nil, 0, err
	}

	result := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		id := reviews[i].ReviewID
		result = append(result, toReviewResponse(&reviews[i], counts[id], mine[id], viewer))
	}
	return result, total, nil
}

// ────────────────────── Update / Delete ──────────────────────

// authorizeReviewWrite 作者本人或管理员可修改、删除评价
func authorizeReviewWrite(actor Actor, review *model.Review) error {
	if actor.UserID == review.UserID || actor.Role == model.RoleAdmin {
		return nil
	}
	return ErrPermissionDenied
}

func (s *reviewService) Update(ctx context.Context, actor Actor, id string, req *dto.UpdateReviewRequest) (*dto.ReviewResponse, error) {
	review, err := s.repo.Review.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrReviewNotFound)
	}
	if err := authorizeReviewWrite(actor, review); err != nil {
		return nil, err
	}

	if req.Rating != nil {
		if !model.IsValidRating(*req.Rating) {
			return nil, ErrInvalidRating
		}
		review.Rating = *req.Rating
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, ErrBlankContent
		}
		review.Content = content
	}
	if req.IsAnonymous != nil {
		review.IsAnonymous = *req.IsAnonymous
	}

	if err := s.repo.Review.Update(ctx, review); err != nil {
		s.logger.Error("更新评价失败", zap.String("review_id", id), zap.Error(err))
		return nil, err
	}
	return s.withAggregates(ctx, review, actor)
}

func (s *reviewService) Delete(ctx context.Context, actor Actor, id string) error {
	review, err := s.repo.Review.GetByID(ctx, id)
	if err != nil {
		return notFoundAs(err, ErrReviewNotFound)
	}
	if err := authorizeReviewWrite(actor, review); err != nil {
		return err
	}

	if err := s.repo.Review.Delete(ctx, id); err != nil {
		s.logger.Error("删除评价失败", zap.String("review_id", id), zap.Error(err))
		return err
	}
	s.logger.Info("评价已删除", zap.String("review_id", id), zap.String("operator", actor.UserID))
	return nil
}

// ────────────────────── 审核 ──────────────────────

func (s *reviewService) SetStatus(ctx context.Context, actor Actor, id string, status model.ReviewStatus) (*dto.ReviewResponse, error) {
	if !model.CanModerate(actor.Role) {
		return nil, ErrPermissionDenied
	}
	if status != model.ReviewApproved && status != model.ReviewRejected {
		return nil, ErrInvalidStatus
	}
	return s.moderate(ctx, actor, id, func(r *model.Review) { r.Status = status })
}

func (s *reviewService) SetPinned(ctx context.Context, actor Actor, id string, pinned bool) (*dto.ReviewResponse, error) {
	if !model.CanModerate(actor.Role) {
		return nil, ErrPermissionDenied
	}
	return s.moderate(ctx, actor, id, func(r *model.Review) { r.IsPinned = pinned })
}

func (s *reviewService) moderate(ctx context.Context, actor Actor, id string, apply func(*model.Review)) (*dto.ReviewResponse, error) {
	review, err := s.repo.Review.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrReviewNotFound)
	}
	apply(review)
	if err := s.repo.Review.Update(ctx, review); err != nil {
		s.logger.Error("审核评价失败", zap.String("review_id", id), zap.Error(err))
		return nil, err
	}
	s.logger.Info("评价审核",
		zap.String("review_id", id),
		zap.String("status", string(review.Status)),
		zap.Bool("pinned", review.IsPinned),
		zap.String("operator", actor.UserID),
	)
	return s.withAggregates(ctx, review, actor)
}

// ── 辅助函数 ──

func (s *reviewService) withAggregates(ctx context.Context, review *model.Review, viewer Actor) (*dto.ReviewResponse, error) {
	counts, err := s.repo.ReviewVote.CountByReview(ctx, review.ReviewID)
	if err != nil {
		return nil, err
	}
	mine, err := s.repo.ReviewVote.ListUserVotes(ctx, viewer.UserID, []string{review.ReviewID})
	if err != nil {
		return nil, err
	}
	resp := toReviewResponse(review, counts, mine[review.ReviewID], viewer)
	return &resp, nil
}

// toReviewResponse 匿名评价仅对作者本人与管理员展示作者信息
func toReviewResponse(r *model.Review, counts repository.VoteCounts, myVote model.VoteType, viewer Actor) dto.ReviewResponse {
	resp := dto.ReviewResponse{
		ID:           r.ReviewID,
		CourseID:     r.CourseID,
		Content:      r.Content,
		Rating:       r.Rating,
		IsAnonymous:  r.IsAnonymous,
		IsPinned:     r.IsPinned,
		Status:       string(r.Status),
		LikeCount:    counts.Likes,
		DislikeCount: counts.Dislikes,
		CreatedAt:    r.CreatedAt.Format(dto.TimeFormat),
		UpdatedAt:    r.UpdatedAt.Format(dto.TimeFormat),
	}
	if myVote != "" {
		v := string(myVote)
		resp.MyVote = &v
	}

	revealed := !r.IsAnonymous || viewer.UserID == r.UserID || viewer.Role == model.RoleAdmin
	if !revealed {
		resp.AuthorName = anonymousAuthorName
		return resp
	}

	authorID := r.UserID
	resp.AuthorID = &authorID
	if r.User != nil {
		resp.AuthorName = r.User.DisplayName()
	}
	return resp
}
