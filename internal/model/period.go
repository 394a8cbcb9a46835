package model

import "fmt"

const (
	DaysPerWeek   = 7
	PeriodsPerDay = 4
	minDayOfWeek  = 1
	minTimePeriod = 1
)

// Period 每日固定时段
type Period struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Start string `json:"start"` // HH:MM
	End   string `json:"end"`
}

// Periods 四个固定时段，按序号排列
var Periods = [PeriodsPerDay]Period{
	{Index: 1, Name: "上午", Start: "08:00", End: "11:40"},
	{Index: 2, Name: "下午(一)", Start: "13:30", End: "15:10"},
	{Index: 3, Name: "下午(二)", Start: "15:30", End: "17:10"},
	{Index: 4, Name: "晚上", Start: "18:30", End: "21:00"},
}

// DayNames 1=周一 … 7=周日
var DayNames = [DaysPerWeek + 1]string{"", "周一", "周二", "周三", "周四", "周五", "周六", "周日"}

// Slot 周课表中的一个格子
type Slot struct {
	DayOfWeek  int `json:"day_of_week"`
	TimePeriod int `json:"time_period"`
}

// Validate 校验星期与时段范围
func (s Slot) Validate() error {
	if s.DayOfWeek < minDayOfWeek || s.DayOfWeek > DaysPerWeek {
		return fmt.Errorf("星期取值 %d 超出范围 1-7", s.DayOfWeek)
	}
	if s.TimePeriod < minTimePeriod || s.TimePeriod > PeriodsPerDay {
		return fmt.Errorf("时段取值 %d 超出范围 1-4", s.TimePeriod)
	}
	return nil
}

// PeriodByIndex 按序号取时段；越界返回 false
func PeriodByIndex(i int) (Period, bool) {
	if i < minTimePeriod || i > PeriodsPerDay {
		return Period{}, false
	}
	return Periods[i-1], true
}

// PeriodForClock 根据 HH:MM 开始时间定位所属时段
// 落在时段区间内即归属该时段；课间空档归入下一个时段；晚于最后时段结束返回 false
func PeriodForClock(hhmm string) (int, bool) {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return 0, false
	}
	for _, p := range Periods {
		if hhmm < p.End {
			if hhmm < Periods[0].Start {
				return 0, false
			}
			return p.Index, true
		}
	}
	return 0, false
}
