package model

// TestSuite 测试套件
type TestSuite struct {
	BaseStatus
	CustomerID int64  `gorm:"not null;index" json:"customer_id"`
	Name       string `gorm:"size:150;not null" json:"name"`
	Description *string `gorm:"type:text" json:"description"`

	// 生成溯源
	ScanID   *int64 `gorm:"index" json:"scan_id"`
	ModuleID *int64 `gorm:"index" json:"module_id"`

	// 调度配置: cron 表达式为空表示不定时执行
	ScheduleCron string `gorm:"size:50" json:"schedule_cron"`
	ServerID     *int64 `gorm:"index" json:"server_id"` // 定时执行的目标环境
	RunnerType   string `gorm:"size:10;not null;default:'local'" json:"runner_type"`

	// 标签过滤
	IncludeTags StringList `gorm:"type:json" json:"include_tags"`
	ExcludeTags StringList `gorm:"type:json" json:"exclude_tags"`

	IsDefault bool `gorm:"not null;default:false" json:"is_default"` // 客户默认套件

	Customer *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Server   *Server    `gorm:"foreignKey:ServerID" json:"server,omitempty"`
	Cases    []TestCase `gorm:"foreignKey:SuiteID" json:"cases,omitempty"`
}

// TableName 指定表名
func (TestSuite) TableName() string {
	return "test_suites"
}
