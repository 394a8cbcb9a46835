package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"course-eval/backend/internal/dto"
	"course-eval/backend/internal/model"
	"course-eval/backend/internal/service"
	"course-eval/backend/pkg/response"
)

// ScheduleHandler 周课表模块 HTTP 处理器
type ScheduleHandler struct {
	svc service.ScheduleService
	// fetchICS 获取远程 ICS，测试中可替换
	fetchICS func(c *gin.Context, url string) (io.ReadCloser, error)
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(svc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		svc: svc,
		fetchICS: func(c *gin.Context, url string) (io.ReadCloser, error) {
			return service.FetchICSContent(c.Request.Context(), url)
		},
	}
}

// ════════════════════ 课程课表 ════════════════════

// ListCourseSchedules 课程上课时间
// GET /api/v1/courses/:id/schedules
func (h *ScheduleHandler) ListCourseSchedules(c *gin.Context) {
	list, err := h.svc.ListCourseSchedules(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// CheckCourseConflict 单个时段冲突检测
// GET /api/v1/courses/:id/schedules/conflict?day_of_week=1&time_period=2
func (h *ScheduleHandler) CheckCourseConflict(c *gin.Context) {
	var q dto.ConflictQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c)
		return
	}
	slot := model.Slot{DayOfWeek: q.DayOfWeek, TimePeriod: q.TimePeriod}
	conflict, err := h.svc.HasCourseConflict(c.Request.Context(), c.Param("id"), slot)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, dto.ConflictResponse{DayOfWeek: slot.DayOfWeek, TimePeriod: slot.TimePeriod, HasConflict: conflict})
}

// CheckCourseConflicts 批量冲突检测
// POST /api/v1/courses/:id/schedules/conflicts
func (h *ScheduleHandler) CheckCourseConflicts(c *gin.Context) {
	var req dto.BatchConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}
	conflicts, err := h.svc.CheckCourseConflicts(c.Request.Context(), c.Param("id"), service.SlotsFromRequest(req.Slots))
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, dto.BatchConflictResponse{Conflicts: service.SlotsToResponse(conflicts)})
}

// AddCourseSchedule 添加课程上课时间（管理员）
// POST /api/v1/courses/:id/schedules
func (h *ScheduleHandler) AddCourseSchedule(c *gin.Context) {
	var req dto.CreateCourseScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}
	row, err := h.svc.AddCourseSchedule(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, row)
}

// UpdateCourseSchedule 修改课程上课时间（管理员）
// PUT /api/v1/course-schedules/:id
func (h *ScheduleHandler) UpdateCourseSchedule(c *gin.Context) {
	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}
	row, err := h.svc.UpdateCourseSchedule(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, row)
}

// DeleteCourseSchedule 删除课程上课时间（管理员）
// DELETE /api/v1/course-schedules/:id
func (h *ScheduleHandler) DeleteCourseSchedule(c *gin.Context) {
	if err := h.svc.DeleteCourseSchedule(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, nil)
}

// ════════════════════ 个人课表 ════════════════════

// ListMySchedules 我的课表
// GET /api/v1/me/schedules
func (h *ScheduleHandler) ListMySchedules(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	list, err := h.svc.ListUserSchedules(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// CheckMyConflict 单个时段冲突检测
// GET /api/v1/me/schedules/conflict
func (h *ScheduleHandler) CheckMyConflict(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var q dto.ConflictQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c)
		return
	}
	slot := model.Slot{DayOfWeek: q.DayOfWeek, TimePeriod: q.TimePeriod}
	conflict, err := h.svc.HasUserConflict(c.Request.Context(), userID, slot)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, dto.ConflictResponse{DayOfWeek: slot.DayOfWeek, TimePeriod: slot.TimePeriod, HasConflict: conflict})
}

// CheckMyConflicts 批量冲突检测
// POST /api/v1/me/schedules/conflicts
func (h *ScheduleHandler) CheckMyConflicts(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.BatchConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}
	conflicts, err := h.svc.CheckUserConflicts(c.Request.Context(), userID, service.SlotsFromRequest(req.Slots))
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, dto.BatchConflictResponse{Conflicts: service.SlotsToResponse(conflicts)})
}

// AddMySchedule 添加课表格子
// POST /api/v1/me/schedules
func (h *ScheduleHandler) AddMySchedule(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreateUserScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}
	row, err := h.svc.AddUserSchedule(c.Request.Context(), userID, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, row)
}

// UpdateMySchedule 修改课表格子
// PUT /api/v1/me/schedules/:id
func (h *ScheduleHandler) UpdateMySchedule(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c)
		return
	}
	row, err := h.svc.UpdateUserSchedule(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, row)
}

// DeleteMySchedule 删除课表格子
// DELETE /api/v1/me/schedules/:id
func (h *ScheduleHandler) DeleteMySchedule(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteUserSchedule(c.Request.Context(), userID, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, nil)
}

// ImportMyICS 导入 ICS 课表，整体替换当前个人课表
// POST /api/v1/me/schedules/import
//
// 支持两种方式：
//   - 文件上传: multipart/form-data, field="file"
//   - URL 导入: application/json, body={"url": "..."}
func (h *ScheduleHandler) ImportMyICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err == nil {
		defer file.Close()
		h.importICS(c, userID, file)
		return
	}

	var req dto.ImportICSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13000, "请上传 ICS 文件或提供 ICS URL")
		return
	}

	if err := service.ValidateICSURL(req.URL); err != nil {
		response.BadRequest(c, 13003, "ICS URL 仅支持 http、https 或 webcal 地址")
		return
	}

	body, err := h.fetchICS(c, req.URL)
	if err != nil {
		// 原始错误只进日志，不回显给客户端
		_ = c.Error(err)
		response.BadRequest(c, 13003, "ICS URL 获取失败")
		return
	}
	defer body.Close()

	h.importICS(c, userID, body)
}

func (h *ScheduleHandler) importICS(c *gin.Context, userID string, r io.Reader) {
	resp, err := h.svc.ImportUserICS(c.Request.Context(), userID, r)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, resp)
}
