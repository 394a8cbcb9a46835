package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"course-eval/backend/internal/model"
	"course-eval/backend/internal/repository"
	pkgerrors "course-eval/backend/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = pkgerrors.New(pkgerrors.ErrUnavailable, "生成 Excel 文件失败")
)

// ExportService 周课表导出接口
//
// 输出 7×4 网格：列为周一至周日，行为四个固定时段。
// 以 bytes.Buffer 返回，由 Handler 层设置响应头后写出。
type ExportService interface {
	ExportUserSchedule(ctx context.Context, userID string) (*bytes.Buffer, string, error)
	ExportCourseSchedule(ctx context.Context, courseID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// gridCell 网格中的一格
type gridCell struct {
	slot model.Slot
	text string
}

func (s *exportService) ExportUserSchedule(ctx context.Context, userID string) (*bytes.Buffer, string, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return nil, "", notFoundAs(err, ErrUserNotFound)
	}
	rows, err := s.repo.UserSchedule.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询个人课表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, "", err
	}

	cells := make([]gridCell, 0, len(rows))
	for _, r := range rows {
		text := r.CourseName
		if r.Location != "" {
			text += "\n@" + r.Location
		}
		cells = append(cells, gridCell{slot: model.Slot{DayOfWeek: r.DayOfWeek, TimePeriod: r.TimePeriod}, text: text})
	}

	title := fmt.Sprintf("%s 的课表", user.DisplayName())
	buf, err := s.renderGrid(title, cells)
	if err != nil {
		return nil, "", err
	}
	return buf, fmt.Sprintf("课表_%s.xlsx", user.Username), nil
}

func (s *exportService) ExportCourseSchedule(ctx context.Context, courseID string) (*bytes.Buffer, string, error) {
	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		return nil, "", notFoundAs(err, ErrCourseNotFound)
	}
	rows, err := s.repo.CourseSchedule.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询课程课表失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", err
	}

	cells := make([]gridCell, 0, len(rows))
	for _, r := range rows {
		text := course.Name
		if r.Location != "" {
			text += "\n@" + r.Location
		}
		cells = append(cells, gridCell{slot: model.Slot{DayOfWeek: r.DayOfWeek, TimePeriod: r.TimePeriod}, text: text})
	}

	title := fmt.Sprintf("%s %s 上课时间", course.Code, course.Name)
	buf, err := s.renderGrid(title, cells)
	if err != nil {
		return nil, "", err
	}
	return buf, fmt.Sprintf("课表_%s.xlsx", course.Code), nil
}

// renderGrid 生成 Excel：
//
//	| 时段 | 时间 | 周一 | … | 周日 |
//	| 上午 | 08:00-11:40 | … |
func (s *exportService) renderGrid(title string, cells []gridCell) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "课表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 10)
	f.SetColWidth(sheetName, "B", "B", 14)
	f.SetColWidth(sheetName, colName(2), colName(1+model.DaysPerWeek), 18)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	bodyStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})

	// 标题行
	lastCol := colName(1 + model.DaysPerWeek)
	f.SetCellValue(sheetName, "A1", title)
	f.MergeCell(sheetName, "A1", cell(lastCol, 1))
	f.SetCellStyle(sheetName, "A1", cell(lastCol, 1), headerStyle)

	// 表头
	f.SetCellValue(sheetName, cell("A", 2), "时段")
	f.SetCellValue(sheetName, cell("B", 2), "时间")
	for d := 1; d <= model.DaysPerWeek; d++ {
		f.SetCellValue(sheetName, cell(colName(1+d), 2), model.DayNames[d])
	}
	f.SetCellStyle(sheetName, "A2", cell(lastCol, 2), headerStyle)

	// 数据行
	index := make(map[model.Slot]string, len(cells))
	for _, c := range cells {
		index[c.slot] = c.text
	}
	for i, p := range model.Periods {
		row := 3 + i
		f.SetCellValue(sheetName, cell("A", row), p.Name)
		f.SetCellValue(sheetName, cell("B", row), fmt.Sprintf("%s-%s", p.Start, p.End))
		for d := 1; d <= model.DaysPerWeek; d++ {
			text, ok := index[model.Slot{DayOfWeek: d, TimePeriod: p.Index}]
			if !ok {
				text = "-"
			}
			f.SetCellValue(sheetName, cell(colName(1+d), row), text)
		}
		f.SetRowHeight(sheetName, row, 36)
	}
	f.SetCellStyle(sheetName, "A3", cell(lastCol, 2+model.PeriodsPerDay), bodyStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return buf, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
