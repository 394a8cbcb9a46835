package model

// Role 用户角色（封闭集合）
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleStudent   Role = "student"
)

// ParseRole 解析角色字符串，未知值返回 false
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleModerator, RoleStudent:
		return Role(s), true
	}
	return "", false
}

// IsExemptFromReviewUniqueness 是否豁免“一人一课一评”规则
// 仅管理员豁免（用于录入示例/种子评价）
func IsExemptFromReviewUniqueness(r Role) bool {
	return r == RoleAdmin
}

// CanModerate 是否可执行评价审核与置顶
func CanModerate(r Role) bool {
	return r == RoleAdmin || r == RoleModerator
}

// User 用户表，对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username     string `gorm:"type:varchar(50);not null;uniqueIndex"          json:"username"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Nickname     string `gorm:"type:varchar(50)"                               json:"nickname,omitempty"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'student'"    json:"role"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// DisplayName 展示名：优先昵称
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}
