package dto

// CreateScanRequest 创建代码扫描请求
type CreateScanRequest struct {
	Name         string `json:"name" binding:"required,max=150"`
	CustomerID   int64  `json:"customer_id" binding:"required"`
	RepositoryID int64  `json:"repository_id" binding:"required"`
	Branch       string `json:"branch" binding:"omitempty,max=100"` // 默认取仓库分支

	// 生成选项, 不传则全开
	IncludeCRUDTests       *bool `json:"include_crud_tests"`
	IncludeValidationTests *bool `json:"include_validation_tests"`
	IncludeWorkflowTests   *bool `json:"include_workflow_tests"`
	IncludeSecurityTests   *bool `json:"include_security_tests"`
	IncludeNegativeTests   *bool `json:"include_negative_tests"`
	MaxTestsPerModel       *int  `json:"max_tests_per_model" binding:"omitempty,min=1,max=100"`
}

// ScanResponse 代码扫描响应
type ScanResponse struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	CustomerID    int64   `json:"customer_id"`
	RepositoryID  int64   `json:"repository_id"`
	RepoName      *string `json:"repo_name,omitempty"` // 关联查询
	Branch        string  `json:"branch"`
	CommitHash    string  `json:"commit_hash"`
	CommitMessage string  `json:"commit_message"`
	ScanDate      *string `json:"scan_date"` // RFC3339
	Status        int8    `json:"status"`
	StatusName    string  `json:"status_name"`
	ScanLog       string  `json:"scan_log"`
	ErrorMessage  *string `json:"error_message"`
	ModuleCount   int     `json:"module_count"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// ScanListQuery 扫描列表查询参数
type ScanListQuery struct {
	PageQuery
	CustomerID   *int64 `form:"customer_id"`
	RepositoryID *int64 `form:"repository_id"`
	ScanStatus   *int8  `form:"scan_status"` // 按扫描状态过滤
}

// ScannedModuleResponse 扫描发现的模块响应
type ScannedModuleResponse struct {
	ID            int64  `json:"id"`
	ScanID        int64  `json:"scan_id"`
	TechnicalName string `json:"technical_name"`
	DisplayName   string `json:"display_name"`
	Version       string `json:"version"`
	Path          string `json:"path"`
	Depends       string `json:"depends"`
	ModelCount    int    `json:"model_count"`
	ViewCount     int    `json:"view_count"`
	Selected      bool   `json:"selected"`
	Analyzed      bool   `json:"analyzed"`
}

// SelectModulesRequest 选择待分析模块请求
type SelectModulesRequest struct {
	ModuleIDs []int64 `json:"module_ids" binding:"required,min=1"`
}

// GenerateFromScanRequest 基于扫描分析结果生成用例请求
type GenerateFromScanRequest struct {
	// 为空时针对扫描下所有未废弃的分析记录生成
	AnalysisIDs []int64 `json:"analysis_ids"`
	SuiteID     *int64  `json:"suite_id"` // 生成用例归属的套件, 为空时自动建套件
}

// GenerationResultResponse 一次AI生成的落库结果
type GenerationResultResponse struct {
	SuiteID      *int64   `json:"suite_id"`
	GeneratedIDs []int64  `json:"generated_ids"`
	SkippedNames []string `json:"skipped_names"` // 与既有用例重名, 未落库
}

// ModuleAnalysisResponse 模型分析结果响应
type ModuleAnalysisResponse struct {
	ID               int64    `json:"id"`
	ModuleID         int64    `json:"module_id"`
	ModelName        string   `json:"model_name"`
	ModelDescription string   `json:"model_description"`
	InheritModel     string   `json:"inherit_model"`
	FieldCount       int      `json:"field_count"`
	MethodCount      int      `json:"method_count"`
	HasWorkflow      bool     `json:"has_workflow"`
	HasConstraints   bool     `json:"has_constraints"`
	Superseded       bool     `json:"superseded"`
	Warnings         []string `json:"warnings"`
	TestCount        int      `json:"test_count"`
	CreatedAt        string   `json:"created_at"`
}
