package handler

import (
	"github.com/gin-gonic/gin"

	"course-eval/backend/internal/dto"
	"course-eval/backend/internal/model"
	"course-eval/backend/internal/service"
	"course-eval/backend/pkg/response"
)

// ReviewHandler 评价与点赞模块 HTTP 处理器
type ReviewHandler struct {
	reviewSvc service.ReviewService
	voteSvc   service.VoteService
}

// NewReviewHandler 创建 ReviewHandler
func NewReviewHandler(reviewSvc service.ReviewService, voteSvc service.VoteService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: reviewSvc, voteSvc: voteSvc}
}

// ────────────────────── 评价 ──────────────────────

// ListCourseReviews 课程评价列表（置顶优先，其次按时间倒序）
// GET /api/v1/courses/:id/reviews
func (h *ReviewHandler) ListCourseReviews(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.ReviewListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c)
		return
	}

	list, total, err := h.reviewSvc.ListByCourse(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// CreateReview 发表评价
// POST /api/v1/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}

	review, err := h.reviewSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, review)
}

// GetReview 评价详情
// GET /api/v1/reviews/:id
func (h *ReviewHandler) GetReview(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	review, err := h.reviewSvc.GetByID(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, review)
}

// UpdateReview 修改评价（作者或管理员）
// PUT /api/v1/reviews/:id
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}

	review, err := h.reviewSvc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, review)
}

// DeleteReview 删除评价（作者或管理员），点赞记录随之删除
// DELETE /api/v1/reviews/:id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	if err := h.reviewSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, nil)
}

// ModerateReview 审核评价
// PUT /api/v1/reviews/:id/status
func (h *ReviewHandler) ModerateReview(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.ModerateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}

	review, err := h.reviewSvc.SetStatus(c.Request.Context(), actor, c.Param("id"), model.ReviewStatus(req.Status))
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, review)
}

// PinReview 置顶/取消置顶
// PUT /api/v1/reviews/:id/pin
func (h *ReviewHandler) PinReview(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.PinReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}

	review, err := h.reviewSvc.SetPinned(c.Request.Context(), actor, c.Param("id"), *req.Pinned)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, review)
}

// ────────────────────── 点赞 ──────────────────────

// Vote 点赞/点踩（同类重复投票幂等，异类覆盖）
// PUT /api/v1/reviews/:id/vote
func (h *ReviewHandler) Vote(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}

	agg, err := h.voteSvc.Vote(c.Request.Context(), c.Param("id"), userID, model.VoteType(req.Type))
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, agg)
}

// CancelVote 取消投票
// DELETE /api/v1/reviews/:id/vote
func (h *ReviewHandler) CancelVote(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	agg, err := h.voteSvc.CancelVote(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, agg)
}

// GetVotes 点赞汇总
// GET /api/v1/reviews/:id/votes
func (h *ReviewHandler) GetVotes(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	agg, err := h.voteSvc.GetAggregate(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, agg)
}
