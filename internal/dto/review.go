package dto

// ── 评价模块 DTO ──

// CreateReviewRequest 发表评价请求
type CreateReviewRequest struct {
	CourseID    string `json:"course_id"    binding:"required,uuid"`
	Rating      int    `json:"rating"       binding:"required,min=1,max=5"`
	Content     string `json:"content"      binding:"required,notblank,max=2000"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// UpdateReviewRequest 修改评价请求
type UpdateReviewRequest struct {
	Rating      *int    `json:"rating"       binding:"omitempty,min=1,max=5"`
	Content     *string `json:"content"      binding:"omitempty,notblank,max=2000"`
	IsAnonymous *bool   `json:"is_anonymous"`
}

// ModerateReviewRequest 审核评价请求
type ModerateReviewRequest struct {
	Status string `json:"status" binding:"required,oneof=APPROVED REJECTED"`
}

// PinReviewRequest 置顶评价请求
type PinReviewRequest struct {
	Pinned *bool `json:"pinned" binding:"required"`
}

// ReviewListRequest 课程评价列表查询参数
type ReviewListRequest struct {
	PaginationRequest
}

// ReviewResponse 评价信息响应（含实时点赞统计）
type ReviewResponse struct {
	ID           string  `json:"id"`
	CourseID     string  `json:"course_id"`
	AuthorID     *string `json:"author_id,omitempty"` // 匿名评价对他人隐藏
	AuthorName   string  `json:"author_name"`
	Content      string  `json:"content"`
	Rating       int     `json:"rating"`
	IsAnonymous  bool    `json:"is_anonymous"`
	IsPinned     bool    `json:"is_pinned"`
	Status       string  `json:"status"`
	LikeCount    int64   `json:"like_count"`
	DislikeCount int64   `json:"dislike_count"`
	MyVote       *string `json:"my_vote,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// ── 点赞 ──

// VoteRequest 点赞/点踩请求
type VoteRequest struct {
	Type string `json:"type" binding:"required,vote_type"`
}

// VoteAggregateResponse 评价点赞汇总
type VoteAggregateResponse struct {
	ReviewID     string  `json:"review_id"`
	LikeCount    int64   `json:"like_count"`
	DislikeCount int64   `json:"dislike_count"`
	MyVote       *string `json:"my_vote,omitempty"`
}
