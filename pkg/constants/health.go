package constants

// HealthCheckType 健康检查类型
const (
	HealthTypeIntegration   = "integration"    // HTTP探活
	HealthTypeDataIntegrity = "data_integrity" // 数据一致性
	HealthTypeStructural    = "structural"     // 结构基线比对
	HealthTypeCronJob       = "cron_job"       // 定时任务心跳
	HealthTypeCustom        = "custom"
)

// HealthStatus 健康检查状态
const (
	HealthStatusUnknown  = "unknown"
	HealthStatusOK       = "ok"
	HealthStatusWarning  = "warning"
	HealthStatusCritical = "critical"
)

// 数据一致性检查判定方式
const (
	IntegrityExpectZero     = "zero"     // 行数应为0
	IntegrityExpectNonzero  = "nonzero"  // 行数应大于0
	IntegrityExpectSpecific = "specific" // 行数应等于期望值
)

// 告警连续失败默认阈值
const DefaultAlertAfterFailures = 3
