package dto

// ── 周课表模块 DTO ──

// SlotRequest 周课表格子
type SlotRequest struct {
	DayOfWeek  int `json:"day_of_week" binding:"required"`
	TimePeriod int `json:"time_period" binding:"required"`
}

// ConflictQuery 单个时段冲突查询参数
type ConflictQuery struct {
	DayOfWeek  int `form:"day_of_week" binding:"required"`
	TimePeriod int `form:"time_period" binding:"required"`
}

// BatchConflictRequest 批量冲突检测请求
type BatchConflictRequest struct {
	Slots []SlotRequest `json:"slots" binding:"required,min=1,max=28,dive"`
}

// CreateCourseScheduleRequest 添加课程课表请求
type CreateCourseScheduleRequest struct {
	DayOfWeek  int    `json:"day_of_week" binding:"required"`
	TimePeriod int    `json:"time_period" binding:"required"`
	Location   string `json:"location"    binding:"omitempty,max=100"`
}

// CreateUserScheduleRequest 添加个人课表请求
type CreateUserScheduleRequest struct {
	DayOfWeek  int    `json:"day_of_week" binding:"required"`
	TimePeriod int    `json:"time_period" binding:"required"`
	CourseName string `json:"course_name" binding:"omitempty,max=100"`
	Location   string `json:"location"    binding:"omitempty,max=100"`
}

// UpdateScheduleRequest 修改课表请求（课程课表忽略 CourseName）
type UpdateScheduleRequest struct {
	DayOfWeek  *int    `json:"day_of_week"`
	TimePeriod *int    `json:"time_period"`
	CourseName *string `json:"course_name" binding:"omitempty,max=100"`
	Location   *string `json:"location"    binding:"omitempty,max=100"`
}

// ScheduleResponse 课表行响应
type ScheduleResponse struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	DayOfWeek   int    `json:"day_of_week"`
	TimePeriod  int    `json:"time_period"`
	PeriodName  string `json:"period_name"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	CourseName  string `json:"course_name,omitempty"`
	Location    string `json:"location,omitempty"`
}

// ConflictResponse 单个时段冲突检测结果
type ConflictResponse struct {
	DayOfWeek   int  `json:"day_of_week"`
	TimePeriod  int  `json:"time_period"`
	HasConflict bool `json:"has_conflict"`
}

// BatchConflictResponse 批量冲突检测结果：仅列出与已有课表冲突的格子
type BatchConflictResponse struct {
	Conflicts []SlotRequest `json:"conflicts"`
}

// ImportICSResponse ICS 导入结果
type ImportICSResponse struct {
	ImportedCount int                `json:"imported_count"`
	SkippedCount  int                `json:"skipped_count"`
	Schedules     []ScheduleResponse `json:"schedules"`
}

// ImportICSRequest 通过 URL 导入 ICS（也支持 multipart 上传 file 字段）
type ImportICSRequest struct {
	URL string `json:"url" binding:"required,max=2048"`
}
