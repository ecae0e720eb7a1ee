package dto

import "encoding/json"

// CreateHealthCheckRequest 创建健康检查请求
type CreateHealthCheckRequest struct {
	CustomerID int64  `json:"customer_id" binding:"required"`
	ServerID   *int64 `json:"server_id"`
	Name       string `json:"name" binding:"required,max=150"`
	CheckType  string `json:"check_type" binding:"required,oneof=integration data_integrity structural cron_job custom"`

	// 类型相关配置, 原样落库
	Config json.RawMessage `json:"config" binding:"required"`

	IntervalMinutes    *int `json:"interval_minutes" binding:"omitempty,min=1"`
	AlertAfterFailures *int `json:"alert_after_failures" binding:"omitempty,min=1"`
}

// UpdateHealthCheckRequest 更新健康检查请求
type UpdateHealthCheckRequest struct {
	ID                 int64           `json:"id" binding:"required"`
	Name               *string         `json:"name" binding:"omitempty,max=150"`
	ServerID           *int64          `json:"server_id"`
	Config             json.RawMessage `json:"config"`
	IntervalMinutes    *int            `json:"interval_minutes" binding:"omitempty,min=1"`
	AlertAfterFailures *int            `json:"alert_after_failures" binding:"omitempty,min=1"`
	Status             *int8           `json:"status" binding:"omitempty,oneof=0 1"`
}

// HealthCheckResponse 健康检查响应
type HealthCheckResponse struct {
	ID                  int64           `json:"id"`
	CustomerID          int64           `json:"customer_id"`
	CustomerName        *string         `json:"customer_name,omitempty"`
	ServerID            *int64          `json:"server_id"`
	Name                string          `json:"name"`
	CheckType           string          `json:"check_type"`
	Config              json.RawMessage `json:"config"`
	IntervalMinutes     int             `json:"interval_minutes"`
	LastStatus          string          `json:"last_status"`
	LastMessage         string          `json:"last_message"`
	LastValue           string          `json:"last_value"`
	LastRunAt           *string         `json:"last_run_at"` // RFC3339
	ConsecutiveFailures int             `json:"consecutive_failures"`
	AlertAfterFailures  int             `json:"alert_after_failures"`
	Alerted             bool            `json:"alerted"`
	BaselineDate        *string         `json:"baseline_date"`
	Status              int8            `json:"status"`
	CreatedAt           string          `json:"created_at"`
	UpdatedAt           string          `json:"updated_at"`
}

// HealthCheckListQuery 健康检查列表查询参数
type HealthCheckListQuery struct {
	PageQuery
	CustomerID *int64  `form:"customer_id"`
	CheckType  *string `form:"check_type" binding:"omitempty,oneof=integration data_integrity structural cron_job custom"`
	LastStatus *string `form:"last_status" binding:"omitempty,oneof=unknown ok warning critical"`
}

// HealthCheckLogResponse 健康检查历史响应
type HealthCheckLogResponse struct {
	ID        int64   `json:"id"`
	Status    string  `json:"status"`
	Message   string  `json:"message"`
	Value     string  `json:"value"`
	Duration  float64 `json:"duration"`
	CreatedAt string  `json:"created_at"`
}
