package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"course-eval/backend/internal/model"
	pkgerrors "course-eval/backend/pkg/errors"
)

// ── ICS 解析器 ──────────────────────────────────────────────
//
// 将 iCalendar (RFC 5545) 课表映射到 7×4 周课表：
//   - DTSTART 的星期几 → day_of_week
//   - DTSTART 的时刻 → time_period（model.PeriodForClock）
//   - 重复规则与周次不参与映射，周课表只关心“每周哪一格”
//   - 同一格子出现多次时保留第一次出现的事件
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize   = 5 * 1024 * 1024 // 5MB
	icsFetchTimeout  = 30 * time.Second
	shanghaiTimezone = "Asia/Shanghai"
)

// icsParseResult ICS 解析结果
type icsParseResult struct {
	Schedules []model.UserSchedule
	Skipped   int // 无法定位时段或与先前事件同格的事件数
}

// ErrICSURLInvalid 仅接受带主机名的 http、https、webcal 地址
var ErrICSURLInvalid = pkgerrors.New(pkgerrors.ErrValidation, "ICS 地址无效")

// ValidateICSURL 校验 ICS 订阅地址
func ValidateICSURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ErrICSURLInvalid
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "webcal":
		return nil
	default:
		return ErrICSURLInvalid
	}
}

// FetchICSContent 从 URL 获取 ICS 内容
func FetchICSContent(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if err := ValidateICSURL(rawURL); err != nil {
		return nil, err
	}

	// webcal:// → https://
	u := strings.TrimSpace(rawURL)
	if strings.HasPrefix(strings.ToLower(u), "webcal://") {
		u = "https://" + u[len("webcal://"):]
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("ICS 地址无效: %w", err)
	}

	client := &http.Client{Timeout: icsFetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("获取 ICS 失败: HTTP %d", resp.StatusCode)
	}
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

// ParseICS 解析 ICS 内容为用户周课表
func ParseICS(reader io.Reader, userID string) (*icsParseResult, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(reader, icsMaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	loc, err := time.LoadLocation(shanghaiTimezone)
	if err != nil {
		loc = time.FixedZone("CST", 8*3600)
	}

	result := &icsParseResult{}
	seen := make(map[model.Slot]bool)

	for _, comp := range cal.Events() {
		row, ok := parseVEvent(comp, loc)
		if !ok {
			result.Skipped++
			continue
		}
		slot := model.Slot{DayOfWeek: row.DayOfWeek, TimePeriod: row.TimePeriod}
		if seen[slot] {
			result.Skipped++
			continue
		}
		seen[slot] = true
		row.UserID = userID
		result.Schedules = append(result.Schedules, row)
	}
	return result, nil
}

// parseVEvent 解析单个 VEVENT；无课程名或开始时间不在任何时段内时返回 false
func parseVEvent(evt *ics.VEvent, loc *time.Location) (model.UserSchedule, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return model.UserSchedule{}, false
	}

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return model.UserSchedule{}, false
	}

	period, ok := model.PeriodForClock(dtStart.Format("15:04"))
	if !ok {
		return model.UserSchedule{}, false
	}

	var location string
	if p := evt.GetProperty(ics.ComponentPropertyLocation); p != nil {
		location = truncateRunes(strings.TrimSpace(p.Value), 100)
	}

	return model.UserSchedule{
		DayOfWeek:  goWeekdayToISO(dtStart.Weekday()),
		TimePeriod: period,
		CourseName: truncateRunes(strings.TrimSpace(summary.Value), 100),
		Location:   location,
	}, true
}

// ── 辅助函数 ──

// goWeekdayToISO 将 Go 的 time.Weekday (0=Sunday) 转为 ISO 8601 (1=Monday … 7=Sunday)
func goWeekdayToISO(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
	}

	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range formats {
		if t, err := time.Parse(layout, val); err == nil {
			if strings.HasSuffix(layout, "Z") {
				return t.In(loc), nil
			}
			if tzid != "" {
				if tzLoc, err := time.LoadLocation(tzid); err == nil {
					return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
				}
			}
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}

	// 全天事件（仅日期）无法定位时段
	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
