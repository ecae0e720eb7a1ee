package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"qa-platform/internal/pkg/config"
	"qa-platform/internal/pkg/logger"
	pkgErrors "qa-platform/pkg/errors"
)

// Client AI生成能力的不透明接口: 输入提示词, 输出文本
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	TestConnection(ctx context.Context) error
}

type httpClient struct {
	baseURL     string
	apiKey      string
	model       string
	version     string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// NewClient 创建基于HTTP消息接口的AI客户端
func NewClient(cfg *config.AIConfig) Client {
	timeout := config.ParseDuration(cfg.Timeout, 2*time.Minute)
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	version := cfg.Version
	if version == "" {
		version = "2023-06-01"
	}
	return &httpClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		version:     version,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completeRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type completeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete 单轮生成调用
func (c *httpClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completeRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages:    []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", pkgErrors.Wrap(pkgErrors.CodeGenerationError, "构造生成请求失败", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", pkgErrors.Wrap(pkgErrors.CodeGenerationError, "构造生成请求失败", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", c.version)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", pkgErrors.Wrap(pkgErrors.CodeGenerationError, "生成服务请求失败", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", pkgErrors.Wrap(pkgErrors.CodeGenerationError, "读取生成响应失败", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", pkgErrors.Wrap(pkgErrors.CodeGenerationError,
			fmt.Sprintf("生成服务返回 %d", resp.StatusCode),
			fmt.Errorf("%s", truncate(string(raw), 500)))
	}

	var parsed completeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", pkgErrors.Wrap(pkgErrors.CodeGenerationError, "生成响应反序列化失败", err)
	}
	if parsed.Error != nil {
		return "", pkgErrors.Wrap(pkgErrors.CodeGenerationError, "生成服务返回错误",
			fmt.Errorf("%s: %s", parsed.Error.Type, parsed.Error.Message))
	}
	if len(parsed.Content) == 0 {
		return "", pkgErrors.New(pkgErrors.CodeGenerationError, "生成响应为空")
	}

	logger.Debug("AI生成完成",
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("response_chars", len(parsed.Content[0].Text)),
		zap.Duration("elapsed", time.Since(start)))

	return parsed.Content[0].Text, nil
}

// TestConnection 探测生成服务连通性
func (c *httpClient) TestConnection(ctx context.Context) error {
	response, err := c.Complete(ctx, "Say 'Connection successful!' in exactly those words.")
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToLower(response), "successful") {
		return pkgErrors.New(pkgErrors.CodeGenerationError, "生成服务连通性校验失败")
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
