package model

// CourseSchedule 课程周课表，对应 course_schedules
// (course_id, day_of_week, time_period) 唯一
type CourseSchedule struct {
	CourseScheduleID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"           json:"course_schedule_id"`
	CourseID         string `gorm:"type:uuid;not null;uniqueIndex:uk_course_schedules_slot"  json:"course_id"`
	DayOfWeek        int    `gorm:"type:smallint;not null;uniqueIndex:uk_course_schedules_slot" json:"day_of_week"` // 1-7
	TimePeriod       int    `gorm:"type:smallint;not null;uniqueIndex:uk_course_schedules_slot" json:"time_period"` // 1-4
	Location         string `gorm:"type:varchar(100)"                                        json:"location,omitempty"`
	BaseModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (CourseSchedule) TableName() string { return "course_schedules" }

// UserSchedule 个人周课表，对应 user_schedules
// (user_id, day_of_week, time_period) 唯一
type UserSchedule struct {
	UserScheduleID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"          json:"user_schedule_id"`
	UserID         string `gorm:"type:uuid;not null;uniqueIndex:uk_user_schedules_slot"   json:"user_id"`
	DayOfWeek      int    `gorm:"type:smallint;not null;uniqueIndex:uk_user_schedules_slot" json:"day_of_week"`
	TimePeriod     int    `gorm:"type:smallint;not null;uniqueIndex:uk_user_schedules_slot" json:"time_period"`
	CourseName     string `gorm:"type:varchar(100)"                                       json:"course_name,omitempty"`
	Location       string `gorm:"type:varchar(100)"                                       json:"location,omitempty"`
	BaseModel
}

// TableName 指定表名
func (UserSchedule) TableName() string { return "user_schedules" }
