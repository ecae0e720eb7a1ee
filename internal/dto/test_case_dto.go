package dto

// CreateSpecRequest 创建测试规格请求
type CreateSpecRequest struct {
	CustomerID      int64  `json:"customer_id" binding:"required"`
	Name            string `json:"name" binding:"required,max=150"`
	Module          string `json:"module" binding:"omitempty,max=100"`
	Category        string `json:"category" binding:"omitempty,oneof=crud validation workflow security negative functional"`
	Priority        string `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	Description     string `json:"description" binding:"required"`
	Preconditions   string `json:"preconditions"`
	ExpectedResults string `json:"expected_results"`
	SuiteID         *int64 `json:"suite_id"`
}

// UpdateSpecRequest 更新测试规格请求
type UpdateSpecRequest struct {
	ID              int64   `json:"id" binding:"required"`
	Name            *string `json:"name" binding:"omitempty,max=150"`
	Module          *string `json:"module" binding:"omitempty,max=100"`
	Category        *string `json:"category" binding:"omitempty,oneof=crud validation workflow security negative functional"`
	Priority        *string `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	Description     *string `json:"description"`
	Preconditions   *string `json:"preconditions"`
	ExpectedResults *string `json:"expected_results"`
	SuiteID         *int64  `json:"suite_id"`
}

// SpecResponse 测试规格响应
type SpecResponse struct {
	ID              int64  `json:"id"`
	CustomerID      int64  `json:"customer_id"`
	Name            string `json:"name"`
	Module          string `json:"module"`
	Category        string `json:"category"`
	Priority        string `json:"priority"`
	Description     string `json:"description"`
	Preconditions   string `json:"preconditions"`
	ExpectedResults string `json:"expected_results"`
	SuiteID         *int64 `json:"suite_id"`
	CaseCount       int    `json:"case_count"` // 已生成的用例数
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// SpecListQuery 测试规格列表查询参数
type SpecListQuery struct {
	PageQuery
	CustomerID *int64  `form:"customer_id"`
	Module     *string `form:"module"`
	Category   *string `form:"category"`
}

// TestCaseResponse 测试用例响应
type TestCaseResponse struct {
	ID               int64              `json:"id"`
	CustomerID       int64              `json:"customer_id"`
	TestID           string             `json:"test_id"`
	Name             string             `json:"name"`
	Category         string             `json:"category"`
	Tags             []string           `json:"tags"`
	Documentation    string             `json:"documentation"`
	GenerationSource string             `json:"generation_source"`
	SpecID           *int64             `json:"spec_id"`
	ScanID           *int64             `json:"scan_id"`
	RobotCode        string             `json:"robot_code"`
	SuiteID          *int64             `json:"suite_id"`
	Sequence         int                `json:"sequence"`
	LastStatus       string             `json:"last_status"`
	LastRunAt        *string            `json:"last_run_at"`
	Steps            []TestStepResponse `json:"steps,omitempty"`
	CreatedAt        string             `json:"created_at"`
	UpdatedAt        string             `json:"updated_at"`
}

// TestStepResponse 测试步骤响应
type TestStepResponse struct {
	ID             int64  `json:"id"`
	Sequence       int    `json:"sequence"`
	Name           string `json:"name"`
	Action         string `json:"action"`
	ExpectedResult string `json:"expected_result"`
}

// UpdateTestCaseRequest 更新测试用例请求
type UpdateTestCaseRequest struct {
	ID            int64     `json:"id" binding:"required"`
	Name          *string   `json:"name" binding:"omitempty,max=200"`
	Category      *string   `json:"category" binding:"omitempty,oneof=crud validation workflow security negative functional"`
	Tags          *[]string `json:"tags"`
	Documentation *string   `json:"documentation"`
	RobotCode     *string   `json:"robot_code"`
	SuiteID       *int64    `json:"suite_id"`
	Sequence      *int      `json:"sequence"`
}

// TestCaseListQuery 用例列表查询参数
type TestCaseListQuery struct {
	PageQuery
	CustomerID       *int64  `form:"customer_id"`
	SuiteID          *int64  `form:"suite_id"`
	Category         *string `form:"category"`
	GenerationSource *string `form:"generation_source" binding:"omitempty,oneof=manual spec code_scan regression"`
	LastStatus       *string `form:"last_status" binding:"omitempty,oneof=pass fail error skip"`
}

// ImproveTestCaseRequest 失败用例AI修复请求
type ImproveTestCaseRequest struct {
	ErrorMessage string `json:"error_message" binding:"required"` // 失败信息, 通常取自最近结果
}
