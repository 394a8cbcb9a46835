package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"course-eval/backend/internal/dto"
	"course-eval/backend/internal/service"
	"course-eval/backend/pkg/response"
)

// Sweeper 全量摘要检查（service.SummarySweep 实现）
type Sweeper interface {
	Run(ctx context.Context) (*dto.SweepReport, error)
}

// AdminHandler 管理员运维接口
type AdminHandler struct {
	summarySvc service.SummaryService
	sweep      Sweeper
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(summarySvc service.SummaryService, sweep Sweeper) *AdminHandler {
	return &AdminHandler{summarySvc: summarySvc, sweep: sweep}
}

// RegenerateSummary 立即重新生成单门课程摘要
// POST /api/v1/admin/courses/:id/summary
func (h *AdminHandler) RegenerateSummary(c *gin.Context) {
	summary, err := h.summarySvc.Regenerate(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, summary)
}

// RunSweep 同步执行一次全量摘要检查
// POST /api/v1/admin/summaries/sweep
func (h *AdminHandler) RunSweep(c *gin.Context) {
	report, err := h.sweep.Run(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, report)
}
