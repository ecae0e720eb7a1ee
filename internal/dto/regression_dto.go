package dto

// CreateRegressionRequest 创建回归套件请求
type CreateRegressionRequest struct {
	CustomerID int64    `json:"customer_id" binding:"required"`
	Name       string   `json:"name" binding:"required,max=150"`
	Modules    []string `json:"modules" binding:"required,min=1"` // ERP模块技术名
}

// UpdateRegressionRequest 更新回归套件请求
type UpdateRegressionRequest struct {
	ID      int64     `json:"id" binding:"required"`
	Name    *string   `json:"name" binding:"omitempty,max=150"`
	Modules *[]string `json:"modules" binding:"omitempty,min=1"`
	Status  *int8     `json:"status" binding:"omitempty,oneof=0 1"`
}

// RegressionResponse 回归套件响应
type RegressionResponse struct {
	ID            int64    `json:"id"`
	CustomerID    int64    `json:"customer_id"`
	CustomerName  *string  `json:"customer_name,omitempty"`
	Name          string   `json:"name"`
	Modules       []string `json:"modules"`
	SuiteID       *int64   `json:"suite_id"` // 实例化出的执行套件
	LastRunDate   *string  `json:"last_run_date"`
	LastRunResult string   `json:"last_run_result"`
	PassRate      float64  `json:"pass_rate"`
	Status        int8     `json:"status"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// RegressionListQuery 回归套件列表查询参数
type RegressionListQuery struct {
	PageQuery
	CustomerID *int64 `form:"customer_id"`
}

// RegressionGenerateResponse 模板实例化结果
type RegressionGenerateResponse struct {
	RegressionID  int64    `json:"regression_id"`
	SuiteID       int64    `json:"suite_id"`
	GeneratedIDs  []int64  `json:"generated_ids"` // 新建用例ID
	SkippedNames  []string `json:"skipped_names"` // 已存在同名用例, 跳过
	MissingModule []string `json:"missing_module"` // 无模板可用的模块
}

// RunRegressionRequest 触发回归执行请求
type RunRegressionRequest struct {
	ServerID   *int64 `json:"server_id"`
	RunnerType string `json:"runner_type" binding:"omitempty,oneof=local ssh ci"`
}
