package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// NotificationType 通知类型
type NotificationType string

const (
	NotifyHealthAlert     NotificationType = "health_alert"     // 健康检查连续失败
	NotifyHealthRecovered NotificationType = "health_recovered" // 健康检查恢复
	NotifyRunFailed       NotificationType = "run_failed"       // 测试运行失败
)

// NotificationMessage 通知消息
type NotificationMessage struct {
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Content   string                 `json:"content"`
	Timestamp time.Time              `json:"timestamp"`
	Extra     map[string]interface{} `json:"extra,omitempty"` // 额外信息
}

// Notifier 通知器接口
type Notifier interface {
	// Send 发送通知
	Send(ctx context.Context, msg *NotificationMessage) error

	// SendHealthAlert 发送健康检查告警
	SendHealthAlert(ctx context.Context, customerName, checkName, status, message string, failures int) error

	// SendHealthRecovered 发送健康检查恢复通知
	SendHealthRecovered(ctx context.Context, customerName, checkName string) error
}

// ============= Lark 通知适配器 =============

// LarkNotifier Lark通知器
type LarkNotifier struct {
	webhookURL string
	enabled    bool
	logger     *zap.Logger
	client     *http.Client
}

// NewLarkNotifier 创建Lark通知器
func NewLarkNotifier(webhookURL string, enabled bool, logger *zap.Logger) *LarkNotifier {
	return &LarkNotifier{
		webhookURL: webhookURL,
		enabled:    enabled,
		logger:     logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send 发送通知
func (n *LarkNotifier) Send(ctx context.Context, msg *NotificationMessage) error {
	if !n.enabled {
		n.logger.Debug("通知已禁用,跳过发送")
		return nil
	}

	if n.webhookURL == "" {
		n.logger.Warn("Lark Webhook URL未配置")
		return nil
	}

	// 构建Lark消息格式
	larkMsg := n.buildLarkMessage(msg)

	// 发送HTTP请求
	jsonData, err := json.Marshal(larkMsg)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", n.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Lark API返回错误状态码: %d", resp.StatusCode)
	}

	n.logger.Info("Lark通知发送成功",
		zap.String("type", string(msg.Type)),
		zap.String("title", msg.Title))

	return nil
}

// SendHealthAlert 发送健康检查告警
func (n *LarkNotifier) SendHealthAlert(ctx context.Context, customerName, checkName, status, message string, failures int) error {
	color := "orange"
	if status == "critical" {
		color = "red"
	}

	content := fmt.Sprintf("**客户**: %s\n**检查项**: %s\n**状态**: %s\n**连续失败**: %d 次\n**详情**: %s",
		customerName, checkName, status, failures, message)

	msg := &NotificationMessage{
		Type:      NotifyHealthAlert,
		Title:     "🚨 环境健康检查告警",
		Content:   content,
		Timestamp: time.Now(),
		Extra: map[string]interface{}{
			"customer": customerName,
			"check":    checkName,
			"status":   status,
			"color":    color,
		},
	}

	return n.Send(ctx, msg)
}

// SendHealthRecovered 发送健康检查恢复通知
func (n *LarkNotifier) SendHealthRecovered(ctx context.Context, customerName, checkName string) error {
	content := fmt.Sprintf("**客户**: %s\n**检查项**: %s\n检查已恢复正常", customerName, checkName)

	msg := &NotificationMessage{
		Type:      NotifyHealthRecovered,
		Title:     "✅ 环境健康检查恢复",
		Content:   content,
		Timestamp: time.Now(),
		Extra: map[string]interface{}{
			"customer": customerName,
			"check":    checkName,
			"color":    "green",
		},
	}

	return n.Send(ctx, msg)
}

// buildLarkMessage 构建Lark消息格式
func (n *LarkNotifier) buildLarkMessage(msg *NotificationMessage) map[string]interface{} {
	color := "grey"
	if c, ok := msg.Extra["color"].(string); ok {
		color = c
	}

	// Lark富文本消息格式
	return map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"header": map[string]interface{}{
				"title": map[string]interface{}{
					"tag":     "plain_text",
					"content": msg.Title,
				},
				"template": color,
			},
			"elements": []interface{}{
				map[string]interface{}{
					"tag": "div",
					"text": map[string]interface{}{
						"tag":     "lark_md",
						"content": msg.Content,
					},
				},
				map[string]interface{}{
					"tag": "note",
					"elements": []interface{}{
						map[string]interface{}{
							"tag":     "plain_text",
							"content": msg.Timestamp.Format("2006-01-02 15:04:05"),
						},
					},
				},
			},
		},
	}
}

// ============= 空实现 =============

// NoopNotifier 通知禁用时的空实现
type NoopNotifier struct{}

// NewNoopNotifier 创建空通知器
func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

func (n *NoopNotifier) Send(_ context.Context, _ *NotificationMessage) error { return nil }

func (n *NoopNotifier) SendHealthAlert(_ context.Context, _, _, _, _ string, _ int) error {
	return nil
}

func (n *NoopNotifier) SendHealthRecovered(_ context.Context, _, _ string) error { return nil }
