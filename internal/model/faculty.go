package model

// Faculty 学院表，对应 faculties
type Faculty struct {
	FacultyID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"faculty_id"`
	Name      string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	BaseModel
}

// TableName 指定表名
func (Faculty) TableName() string { return "faculties" }

// Teacher 教师表，对应 teachers
type Teacher struct {
	TeacherID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_id"`
	Name      string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Title     string  `gorm:"type:varchar(50)"                               json:"title,omitempty"`
	FacultyID *string `gorm:"type:uuid"                                      json:"faculty_id,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }
