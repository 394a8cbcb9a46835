package dto

// ── 分页与公共格式 ──

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 页码，缺省为 1
func (p *PaginationRequest) GetPage() int {
	return max(p.Page, 1)
}

// GetPageSize 每页数量，缺省 DefaultPageSize，上限 MaxPageSize
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	return min(p.PageSize, MaxPageSize)
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// TimeFormat 响应中统一的时间格式
const TimeFormat = "2006-01-02T15:04:05Z07:00"
