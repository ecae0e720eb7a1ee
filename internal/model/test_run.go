package model

import "time"

const TestRunTableName = "test_runs"

// TestRun 一次测试执行
type TestRun struct {
	BaseModel
	CustomerID int64  `gorm:"not null;index" json:"customer_id"`
	SuiteID    int64  `gorm:"not null;index" json:"suite_id"`
	ServerID   *int64 `gorm:"index" json:"server_id"`

	// pending → running → passed/failed/error/cancelled
	Status int8 `gorm:"not null;default:0;index" json:"status"`

	RunnerType    string `gorm:"size:10;not null;default:'local'" json:"runner_type"`
	TriggerSource string `gorm:"size:10;not null;default:'manual'" json:"trigger_source"`
	TriggeredBy   string `gorm:"size:100" json:"triggered_by"`

	// 外部CI关联
	CIBuildNumber *int   `gorm:"column:ci_build_number" json:"ci_build_number"`
	CIBuildURL    string `gorm:"column:ci_build_url;size:255" json:"ci_build_url"`

	// 标签过滤(下发时的快照)
	IncludeTags StringList `gorm:"type:json" json:"include_tags"`
	ExcludeTags StringList `gorm:"type:json" json:"exclude_tags"`

	// 聚合统计, 仅由结果明细重算
	TotalTests  int     `json:"total_tests"`
	PassedTests int     `json:"passed_tests"`
	FailedTests int     `json:"failed_tests"`
	ErrorTests  int     `json:"error_tests"`
	SkippedTests int    `json:"skipped_tests"`
	PassRate    float64 `json:"pass_rate"`

	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Duration   float64    `json:"duration"` // 秒

	ErrorMessage *string `gorm:"type:text" json:"error_message"`

	Customer *Customer    `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Suite    *TestSuite   `gorm:"foreignKey:SuiteID" json:"suite,omitempty"`
	Server   *Server      `gorm:"foreignKey:ServerID" json:"server,omitempty"`
	Results  []TestResult `gorm:"foreignKey:RunID" json:"results,omitempty"`
}

// TableName 指定表名
func (TestRun) TableName() string {
	return TestRunTableName
}

// TestResult 单条用例执行结果, (run_id, case_name) 唯一, 重复写入覆盖
type TestResult struct {
	BaseModel
	RunID      int64  `gorm:"not null;uniqueIndex:uk_run_case_name;index" json:"run_id"`
	TestCaseID *int64 `gorm:"index" json:"test_case_id"` // 孤儿结果为空
	CaseName   string `gorm:"size:200;not null;uniqueIndex:uk_run_case_name" json:"case_name"`

	Status   string  `gorm:"size:10;not null" json:"status"` // pass/fail/error/skip
	Duration float64 `json:"duration"`                       // 秒
	Message  string  `gorm:"type:text" json:"message"`

	// 产物引用
	LogRef        string `gorm:"size:255" json:"log_ref"`
	ScreenshotRef string `gorm:"size:255" json:"screenshot_ref"`

	// 上报名在系统中无对应用例
	Orphan bool `gorm:"not null;default:false" json:"orphan"`

	Run  *TestRun  `gorm:"foreignKey:RunID" json:"run,omitempty"`
	Case *TestCase `gorm:"foreignKey:TestCaseID" json:"case,omitempty"`
}

// TableName 指定表名
func (TestResult) TableName() string {
	return "test_results"
}
