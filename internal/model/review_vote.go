package model

// VoteType 点赞类型
type VoteType string

const (
	VoteLike    VoteType = "LIKE"
	VoteDislike VoteType = "DISLIKE"
)

// IsValid 是否为合法点赞类型
func (t VoteType) IsValid() bool {
	return t == VoteLike || t == VoteDislike
}

// ReviewVote 评价点赞/点踩表，对应 review_votes
// (review_id, user_id) 唯一：每个用户对每条评价至多一票
type ReviewVote struct {
	ReviewVoteID string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"review_vote_id"`
	ReviewID     string   `gorm:"type:uuid;not null;uniqueIndex:uk_review_votes_review_user" json:"review_id"`
	UserID       string   `gorm:"type:uuid;not null;uniqueIndex:uk_review_votes_review_user" json:"user_id"`
	VoteType     VoteType `gorm:"type:varchar(10);not null"                      json:"vote_type"`
	BaseModel
}

// TableName 指定表名
func (ReviewVote) TableName() string { return "review_votes" }
