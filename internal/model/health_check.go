package model

import (
	"time"

	"gorm.io/datatypes"
)

const HealthCheckTableName = "health_checks"

// HealthCheck 客户环境健康检查
type HealthCheck struct {
	BaseStatus
	CustomerID int64  `gorm:"not null;index" json:"customer_id"`
	ServerID   *int64 `gorm:"index" json:"server_id"`
	Name       string `gorm:"size:150;not null" json:"name"`
	CheckType  string `gorm:"size:20;not null;index" json:"check_type"` // integration/data_integrity/structural/cron_job/custom

	// 类型相关配置(HTTP地址/期望状态码/SQL/模型列表/最大心跳间隔等)
	Config datatypes.JSON `gorm:"type:json" json:"config"`

	// 调度
	IntervalMinutes int `gorm:"not null;default:60" json:"interval_minutes"`

	// 最近状态
	LastStatus  string     `gorm:"size:10;not null;default:'unknown';index" json:"last_status"` // unknown/ok/warning/critical
	LastMessage string     `gorm:"type:text" json:"last_message"`
	LastValue   string     `gorm:"size:255" json:"last_value"`
	LastRunAt   *time.Time `json:"last_run_at"`

	// 连续失败与告警
	ConsecutiveFailures int  `gorm:"not null;default:0" json:"consecutive_failures"`
	AlertAfterFailures  int  `gorm:"not null;default:3" json:"alert_after_failures"`
	Alerted             bool `gorm:"not null;default:false" json:"alerted"` // 恢复ok后重置

	// 结构基线(structural 类型), 仅显式操作才更新
	Baseline     datatypes.JSON `gorm:"type:json" json:"baseline"`
	BaselineDate *time.Time     `json:"baseline_date"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Server   *Server   `gorm:"foreignKey:ServerID" json:"server,omitempty"`
}

// TableName 指定表名
func (HealthCheck) TableName() string {
	return HealthCheckTableName
}

// HealthCheckLog 健康检查历史
type HealthCheckLog struct {
	BaseModel
	HealthCheckID int64   `gorm:"not null;index" json:"health_check_id"`
	Status        string  `gorm:"size:10;not null" json:"status"`
	Message       string  `gorm:"type:text" json:"message"`
	Value         string  `gorm:"size:255" json:"value"`
	Duration      float64 `json:"duration"` // 秒

	HealthCheck *HealthCheck `gorm:"foreignKey:HealthCheckID" json:"health_check,omitempty"`
}

// TableName 指定表名
func (HealthCheckLog) TableName() string {
	return "health_check_logs"
}
