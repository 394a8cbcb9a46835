package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"course-eval/backend/config"
)

var (
	// ErrDisabled AI 功能未启用或未配置密钥
	ErrDisabled = errors.New("AI 服务未启用")
	// ErrUpstream 上游模型调用失败（网络、超时、非 2xx、响应无法解析）
	ErrUpstream = errors.New("AI 服务调用失败")
)

const (
	maxResponseBytes = 2 * 1024 * 1024
	defaultTimeout   = 60 * time.Second
)

// Client OpenAI 兼容 Chat Completions 客户端
type Client struct {
	cfg        config.AIConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient 创建 AI 客户端
func NewClient(cfg *config.AIConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:        *cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Available 是否已启用且配置了密钥
func (c *Client) Available() bool {
	return c.cfg.Enabled && c.cfg.APIKey != "" && c.cfg.BaseURL != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete 发送一次对话请求并返回模型回复文本
// jsonMode 为 true 时要求模型以 JSON 对象输出
func (c *Client) Complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	if !c.Available() {
		return "", ErrDisabled
	}

	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.3,
	}
	if jsonMode {
		reqBody.ResponseFormat = map[string]string{"type": "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: 读取响应失败: %v", ErrUpstream, err)
	}

	c.logger.Debug("AI 请求完成",
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: HTTP %d", ErrUpstream, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: 响应解析失败: %v", ErrUpstream, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrUpstream, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: 空响应", ErrUpstream)
	}

	return parsed.Choices[0].Message.Content, nil
}
