package model

import (
	"time"

	"gorm.io/datatypes"
)

// CourseType 课程类型
type CourseType string

const (
	CourseCompulsory CourseType = "COMPULSORY"
	CourseElective   CourseType = "ELECTIVE"
)

// Course 课程表，对应 courses
//
// AI 摘要三字段（AISummary / AISummaryGeneratedAt / AISummaryReviewCount）
// 只由摘要再生成流程整体写入；AISummaryReviewCount 为生成时的评价数基线，
// 首次生成前为 NULL，之后单调不减。
type Course struct {
	CourseID             string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Code                 string         `gorm:"type:varchar(30);not null;uniqueIndex"          json:"code"`
	Name                 string         `gorm:"type:varchar(100);not null"                     json:"name"`
	Credit               float64        `gorm:"type:numeric(3,1);not null;default:0"           json:"credit"`
	CourseType           CourseType     `gorm:"type:varchar(20);not null;default:'COMPULSORY'" json:"course_type"`
	Description          string         `gorm:"type:text"                                      json:"description,omitempty"`
	AssessmentCriteria   string         `gorm:"type:text"                                      json:"assessment_criteria,omitempty"`
	FacultyID            string         `gorm:"type:uuid;not null"                             json:"faculty_id"`
	TeacherID            *string        `gorm:"type:uuid"                                      json:"teacher_id,omitempty"`
	AISummary            datatypes.JSON `gorm:"type:jsonb"                                     json:"ai_summary,omitempty"`
	AISummaryGeneratedAt *time.Time     `                                                      json:"ai_summary_generated_at,omitempty"`
	AISummaryReviewCount *int           `                                                      json:"ai_summary_review_count,omitempty"`
	BaseModel

	// 关联
	Faculty *Faculty `gorm:"foreignKey:FacultyID;references:FacultyID" json:"faculty,omitempty"`
	Teacher *Teacher `gorm:"foreignKey:TeacherID;references:TeacherID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// HasCachedSummary 是否已有缓存的 AI 摘要
func (c *Course) HasCachedSummary() bool {
	return len(c.AISummary) > 0 && string(c.AISummary) != "null"
}
