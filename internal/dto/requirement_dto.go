package dto

// CreateRequirementRequest 创建需求请求
type CreateRequirementRequest struct {
	CustomerID         int64  `json:"customer_id" binding:"required"`
	Code               string `json:"code" binding:"required,max=50"` // 客户内唯一
	Name               string `json:"name" binding:"required,max=200"`
	Category           string `json:"category" binding:"omitempty,max=30"`
	Priority           string `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	Description        string `json:"description"`
	AcceptanceCriteria string `json:"acceptance_criteria"`
}

// UpdateRequirementRequest 更新需求请求
type UpdateRequirementRequest struct {
	ID                 int64   `json:"id" binding:"required"`
	Name               *string `json:"name" binding:"omitempty,max=200"`
	Category           *string `json:"category" binding:"omitempty,max=30"`
	Priority           *string `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	Description        *string `json:"description"`
	AcceptanceCriteria *string `json:"acceptance_criteria"`
}

// RequirementResponse 需求响应
type RequirementResponse struct {
	ID                 int64   `json:"id"`
	CustomerID         int64   `json:"customer_id"`
	CustomerName       *string `json:"customer_name,omitempty"`
	Code               string  `json:"code"`
	Name               string  `json:"name"`
	Category           string  `json:"category"`
	Priority           string  `json:"priority"`
	Description        string  `json:"description"`
	AcceptanceCriteria string  `json:"acceptance_criteria"`
	Status             int8    `json:"status"`
	StatusName         string  `json:"status_name"`
	TestCaseIDs        []int64 `json:"test_case_ids"`
	VerifiedAt         *string `json:"verified_at"` // RFC3339
	VerifiedBy         string  `json:"verified_by"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

// RequirementListQuery 需求列表查询参数
type RequirementListQuery struct {
	PageQuery
	CustomerID *int64  `form:"customer_id"`
	ReqStatus  *int8   `form:"req_status"` // 按生命周期状态过滤
	Priority   *string `form:"priority" binding:"omitempty,oneof=low medium high critical"`
}

// LinkRequirementCasesRequest 需求关联测试用例请求
type LinkRequirementCasesRequest struct {
	CaseIDs []int64 `json:"case_ids" binding:"required,min=1"`
}

// VerifyRequirementRequest 需求验收请求
type VerifyRequirementRequest struct {
	VerifiedBy string `json:"verified_by" binding:"omitempty,max=100"` // 为空取当前用户
}

// RequirementRecheckResponse 验收复核结果
type RequirementRecheckResponse struct {
	RequirementID int64   `json:"requirement_id"`
	StillPassing  bool    `json:"still_passing"`
	TotalCases    int     `json:"total_cases"`
	PassingCases  int     `json:"passing_cases"`
	FailingCases  []int64 `json:"failing_cases"` // 最近结果非pass的用例
	NeverRunCases []int64 `json:"never_run_cases"`
}
