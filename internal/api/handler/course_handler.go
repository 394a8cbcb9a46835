package handler

import (
	"github.com/gin-gonic/gin"

	"course-eval/backend/internal/service"
	"course-eval/backend/pkg/response"
)

// CourseHandler 课程与 AI 摘要读取
type CourseHandler struct {
	courseSvc  service.CourseService
	summarySvc service.SummaryService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService, summarySvc service.SummaryService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc, summarySvc: summarySvc}
}

// GetCourse 课程详情
// GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	course, err := h.courseSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, course)
}

// GetSummary 读取课程 AI 摘要缓存，不触发生成
// GET /api/v1/courses/:id/summary
func (h *CourseHandler) GetSummary(c *gin.Context) {
	summary, err := h.summarySvc.GetCachedSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, summary)
}
