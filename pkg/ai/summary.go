package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Summary 课程评价 AI 摘要（以 JSON 形式缓存在课程上）
type Summary struct {
	Overview   string   `json:"overview"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Difficulty string   `json:"difficulty"`
	Workload   string   `json:"workload"`
	Grading    string   `json:"grading"`
	Suggestion string   `json:"suggestion"`
}

// CourseInput 摘要生成所需的课程信息
type CourseInput struct {
	Code        string
	Name        string
	Description string
	Assessment  string
}

// ReviewInput 摘要生成所需的单条评价
type ReviewInput struct {
	Rating  int
	Content string
}

const (
	maxPromptReviews    = 200
	maxReviewRunes      = 500
	summarySystemPrompt = `你是一名大学课程评价分析助手。根据学生评价总结课程特点，保持客观，不编造评价中没有的信息。
只输出一个 JSON 对象，字段为：
overview（一句话总体评价）、strengths（优点数组）、weaknesses（不足数组）、
difficulty（难度描述）、workload（作业/任务量描述）、grading（给分情况）、suggestion（选课建议）。`
)

// GenerateSummary 根据课程评价生成结构化摘要
func (c *Client) GenerateSummary(ctx context.Context, course CourseInput, reviews []ReviewInput) (*Summary, error) {
	content, err := c.Complete(ctx, summarySystemPrompt, buildSummaryPrompt(course, reviews), true)
	if err != nil {
		return nil, err
	}
	return ParseSummary(content)
}

// ParseSummary 解析模型输出，兼容 ```json 代码块包裹
func ParseSummary(content string) (*Summary, error) {
	raw := strings.TrimSpace(content)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var s Summary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("%w: 摘要 JSON 解析失败: %v", ErrUpstream, err)
	}
	if strings.TrimSpace(s.Overview) == "" {
		return nil, fmt.Errorf("%w: 摘要缺少 overview", ErrUpstream)
	}
	return &s, nil
}

func buildSummaryPrompt(course CourseInput, reviews []ReviewInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "课程：%s（%s）\n", course.Name, course.Code)
	if course.Description != "" {
		fmt.Fprintf(&b, "课程简介：%s\n", course.Description)
	}
	if course.Assessment != "" {
		fmt.Fprintf(&b, "考核方式：%s\n", course.Assessment)
	}

	if len(reviews) > maxPromptReviews {
		reviews = reviews[:maxPromptReviews]
	}
	fmt.Fprintf(&b, "\n学生评价（共 %d 条）：\n", len(reviews))
	for i, r := range reviews {
		fmt.Fprintf(&b, "%d. [%d星] %s\n", i+1, r.Rating, truncateRunes(strings.TrimSpace(r.Content), maxReviewRunes))
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
