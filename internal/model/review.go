package model

// ReviewStatus 评价状态
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review 课程评价表，对应 reviews
//
// 唯一性：(user_id, course_id) 在 uniqueness_exempt = false 时唯一（部分唯一索引）。
type Review struct {
	ReviewID         string       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"review_id"`
	UserID           string       `gorm:"type:uuid;not null"                             json:"user_id"`
	CourseID         string       `gorm:"type:uuid;not null"                             json:"course_id"`
	Content          string       `gorm:"type:text;not null"                             json:"content"`
	Rating           int          `gorm:"type:smallint;not null"                         json:"rating"`
	IsAnonymous      bool         `gorm:"not null;default:false"                         json:"is_anonymous"`
	IsPinned         bool         `gorm:"not null;default:false"                         json:"is_pinned"`
	Status           ReviewStatus `gorm:"type:varchar(20);not null;default:'APPROVED'"   json:"status"`
	UniquenessExempt bool         `gorm:"not null;default:false"                         json:"-"`
	BaseModel

	// 关联
	User   *User   `gorm:"foreignKey:UserID;references:UserID"     json:"user,omitempty"`
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (Review) TableName() string { return "reviews" }

// IsValidRating 评分是否在 1-5 之间
func IsValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
