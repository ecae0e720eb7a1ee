package dto

// CreateSuiteRequest 创建测试套件请求
type CreateSuiteRequest struct {
	CustomerID   int64    `json:"customer_id" binding:"required"`
	Name         string   `json:"name" binding:"required,max=150"`
	Description  *string  `json:"description"`
	ScheduleCron string   `json:"schedule_cron" binding:"omitempty,max=50"` // 为空不定时执行
	ServerID     *int64   `json:"server_id"`
	RunnerType   string   `json:"runner_type" binding:"omitempty,oneof=local ssh ci"`
	IncludeTags  []string `json:"include_tags"`
	ExcludeTags  []string `json:"exclude_tags"`
	IsDefault    bool     `json:"is_default"`
}

// UpdateSuiteRequest 更新测试套件请求
type UpdateSuiteRequest struct {
	ID           int64     `json:"id" binding:"required"`
	Name         *string   `json:"name" binding:"omitempty,max=150"`
	Description  *string   `json:"description"`
	ScheduleCron *string   `json:"schedule_cron" binding:"omitempty,max=50"`
	ServerID     *int64    `json:"server_id"`
	RunnerType   *string   `json:"runner_type" binding:"omitempty,oneof=local ssh ci"`
	IncludeTags  *[]string `json:"include_tags"`
	ExcludeTags  *[]string `json:"exclude_tags"`
	IsDefault    *bool     `json:"is_default"`
	Status       *int8     `json:"status" binding:"omitempty,oneof=0 1"`
}

// SuiteResponse 测试套件响应
type SuiteResponse struct {
	ID           int64    `json:"id"`
	CustomerID   int64    `json:"customer_id"`
	CustomerName *string  `json:"customer_name,omitempty"`
	Name         string   `json:"name"`
	Description  *string  `json:"description"`
	ScanID       *int64   `json:"scan_id"`
	ScheduleCron string   `json:"schedule_cron"`
	ServerID     *int64   `json:"server_id"`
	RunnerType   string   `json:"runner_type"`
	IncludeTags  []string `json:"include_tags"`
	ExcludeTags  []string `json:"exclude_tags"`
	IsDefault    bool     `json:"is_default"`
	CaseCount    int      `json:"case_count"`
	Status       int8     `json:"status"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

// SuiteListQuery 套件列表查询参数
type SuiteListQuery struct {
	PageQuery
	CustomerID *int64 `form:"customer_id"`
	Scheduled  *bool  `form:"scheduled"` // 可选：仅看配置了定时的套件
	Status     *int8  `form:"status" binding:"omitempty,oneof=0 1"`
}

// AssignCasesRequest 向套件分配用例请求
// 用例至多归属一个套件, 分配即改挂
type AssignCasesRequest struct {
	CaseIDs []int64 `json:"case_ids" binding:"required,min=1"`
}

// RunSuiteRequest 触发套件执行请求
type RunSuiteRequest struct {
	ServerID   *int64 `json:"server_id"`                                          // 为空时使用套件配置
	RunnerType string `json:"runner_type" binding:"omitempty,oneof=local ssh ci"` // 为空时使用套件配置
}
