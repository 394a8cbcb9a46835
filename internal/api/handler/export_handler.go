package handler

import (
	"net/url"

	"github.com/gin-gonic/gin"

	"course-eval/backend/internal/service"
	"course-eval/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportMySchedule 导出我的周课表
// GET /api/v1/me/schedules/export
func (h *ExportHandler) ExportMySchedule(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	buf, filename, err := h.exportSvc.ExportUserSchedule(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.Header("Content-Description", "File Transfer")
	response.File(c, xlsxContentType, url.QueryEscape(filename), buf.Bytes())
}

// ExportCourseSchedule 导出课程上课时间
// GET /api/v1/courses/:id/schedules/export
func (h *ExportHandler) ExportCourseSchedule(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportCourseSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.Header("Content-Description", "File Transfer")
	response.File(c, xlsxContentType, url.QueryEscape(filename), buf.Bytes())
}
