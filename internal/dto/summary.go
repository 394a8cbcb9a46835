package dto

// ── 课程与 AI 摘要 DTO ──

// CourseResponse 课程详情
type CourseResponse struct {
	ID                  string             `json:"id"`
	Code                string             `json:"code"`
	Name                string             `json:"name"`
	Credit              float64            `json:"credit"`
	CourseType          string             `json:"course_type"`
	Description         string             `json:"description,omitempty"`
	AssessmentCriteria  string             `json:"assessment_criteria,omitempty"`
	FacultyName         string             `json:"faculty_name,omitempty"`
	TeacherName         string             `json:"teacher_name,omitempty"`
	ApprovedReviewCount int64              `json:"approved_review_count"`
	AverageRating       float64            `json:"average_rating"`
	Schedules           []ScheduleResponse `json:"schedules"`
}

// CourseSummaryResponse AI 摘要读取结果（只读缓存，不触发生成）
type CourseSummaryResponse struct {
	Available   bool        `json:"available"`
	ReviewCount int64       `json:"review_count"`
	Summary     interface{} `json:"summary,omitempty"`
	GeneratedAt string      `json:"generated_at,omitempty"`
	Message     string      `json:"message,omitempty"`
	// Superseded 本次生成结果因已有更新的摘要而被丢弃，返回的是已持久化版本
	Superseded bool `json:"superseded,omitempty"`
}

// SweepReport 摘要批量再生成报告
type SweepReport struct {
	Total     int `json:"total"`
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}
