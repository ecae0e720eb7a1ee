package dto

// RunResponse 测试执行响应
type RunResponse struct {
	ID            int64    `json:"id"`
	CustomerID    int64    `json:"customer_id"`
	SuiteID       int64    `json:"suite_id"`
	SuiteName     *string  `json:"suite_name,omitempty"` // 关联查询
	ServerID      *int64   `json:"server_id"`
	Status        int8     `json:"status"`
	StatusName    string   `json:"status_name"`
	RunnerType    string   `json:"runner_type"`
	TriggerSource string   `json:"trigger_source"`
	TriggeredBy   string   `json:"triggered_by"`
	CIBuildNumber *int     `json:"ci_build_number"`
	CIBuildURL    string   `json:"ci_build_url"`
	IncludeTags   []string `json:"include_tags"`
	ExcludeTags   []string `json:"exclude_tags"`

	TotalTests   int     `json:"total_tests"`
	PassedTests  int     `json:"passed_tests"`
	FailedTests  int     `json:"failed_tests"`
	ErrorTests   int     `json:"error_tests"`
	SkippedTests int     `json:"skipped_tests"`
	PassRate     float64 `json:"pass_rate"`

	StartedAt    *string `json:"started_at"` // RFC3339
	FinishedAt   *string `json:"finished_at"`
	Duration     float64 `json:"duration"`
	ErrorMessage *string `json:"error_message"`
	CreatedAt    string  `json:"created_at"`
}

// RunListQuery 执行列表查询参数
type RunListQuery struct {
	PageQuery
	CustomerID    *int64  `form:"customer_id"`
	SuiteID       *int64  `form:"suite_id"`
	RunStatus     *int8   `form:"run_status"`
	TriggerSource *string `form:"trigger_source" binding:"omitempty,oneof=manual schedule ci api"`
}

// TestResultResponse 单条用例结果响应
type TestResultResponse struct {
	ID            int64   `json:"id"`
	RunID         int64   `json:"run_id"`
	TestCaseID    *int64  `json:"test_case_id"`
	CaseName      string  `json:"case_name"`
	Status        string  `json:"status"`
	Duration      float64 `json:"duration"`
	Message       string  `json:"message"`
	LogRef        string  `json:"log_ref"`
	ScreenshotRef string  `json:"screenshot_ref"`
	Orphan        bool    `json:"orphan"`
	CreatedAt     string  `json:"created_at"`
}

// IngestResultItem 回调上报的单条结果
type IngestResultItem struct {
	Name       string  `json:"name" binding:"required,max=200"`
	Status     string  `json:"status" binding:"required,oneof=pass fail error skip"`
	Duration   float64 `json:"duration"`
	Message    string  `json:"message"`
	Log        string  `json:"log"`
	Screenshot string  `json:"screenshot"`
}

// IngestReportRequest 外部执行结果上报请求
// run_id 缺省时按 ci_build_number 关联
type IngestReportRequest struct {
	RunID         *int64             `json:"run_id"`
	CIBuildNumber *int               `json:"ci_build_number"`
	CIBuildURL    string             `json:"ci_build_url"`
	Status        string             `json:"status" binding:"omitempty,oneof=passed failed error cancelled"`
	Results       []IngestResultItem `json:"results" binding:"required,min=1,dive"`
}
