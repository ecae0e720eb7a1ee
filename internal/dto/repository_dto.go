package dto

// CreateRepositoryRequest 创建代码仓库请求
type CreateRepositoryRequest struct {
	CustomerID    int64   `json:"customer_id" binding:"required"`
	Name          string  `json:"name" binding:"required,max=100"`
	Provider      string  `json:"provider" binding:"required,oneof=github gitlab bitbucket custom"`
	RepoURL       string  `json:"repo_url" binding:"required,url"`
	Branch        string  `json:"branch" binding:"omitempty,max=100"` // 默认 main
	AuthType      string  `json:"auth_type" binding:"omitempty,oneof=none token basic"`
	Username      *string `json:"username"`
	Credential    *string `json:"credential"` // 明文提交, 落库前加密
	ModulePattern *string `json:"module_pattern"`
}

// UpdateRepositoryRequest 更新代码仓库请求
type UpdateRepositoryRequest struct {
	ID            int64   `json:"id" binding:"required"` // 必填：要更新的仓库ID
	Name          *string `json:"name" binding:"omitempty,max=100"`
	Provider      *string `json:"provider" binding:"omitempty,oneof=github gitlab bitbucket custom"`
	RepoURL       *string `json:"repo_url" binding:"omitempty,url"`
	Branch        *string `json:"branch" binding:"omitempty,max=100"`
	AuthType      *string `json:"auth_type" binding:"omitempty,oneof=none token basic"`
	Username      *string `json:"username"`
	Credential    *string `json:"credential"`
	ModulePattern *string `json:"module_pattern"`
	Status        *int8   `json:"status" binding:"omitempty,oneof=0 1"`
}

// RepositoryResponse 代码仓库响应
type RepositoryResponse struct {
	ID            int64   `json:"id"`
	CustomerID    int64   `json:"customer_id"`
	CustomerName  *string `json:"customer_name,omitempty"` // 关联查询
	Name          string  `json:"name"`
	Provider      string  `json:"provider"`
	RepoURL       string  `json:"repo_url"`
	Branch        string  `json:"branch"`
	AuthType      string  `json:"auth_type"`
	Username      string  `json:"username"`
	HasCredential bool    `json:"has_credential"` // 凭据永不回显
	ModulePattern string  `json:"module_pattern"`
	LastSyncAt    *string `json:"last_sync_at"` // RFC3339
	LastError     *string `json:"last_error"`
	Status        int8    `json:"status"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// RepositoryListQuery 代码仓库列表查询参数
type RepositoryListQuery struct {
	PageQuery
	CustomerID *int64  `form:"customer_id"` // 可选：按客户过滤
	Provider   *string `form:"provider" binding:"omitempty,oneof=github gitlab bitbucket custom"`
}

// DiscoverRepositoriesRequest 按平台凭据发现可注册仓库请求
type DiscoverRepositoriesRequest struct {
	Provider string `json:"provider" binding:"required,oneof=github gitlab"`
	BaseURL  string `json:"base_url" binding:"required,url"` // 平台基础URL, GitHub固定走公网API
	Token    string `json:"token"`
	Owner    string `json:"owner" binding:"required,max=100"` // 用户名或组织名
}

// RemoteRepositoryResponse 平台侧仓库条目
type RemoteRepositoryResponse struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	CloneURL      string `json:"clone_url"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	Archived      bool   `json:"archived"`
}

// UpsertModuleSourceRequest 登记模块来源请求
type UpsertModuleSourceRequest struct {
	ModuleName   string  `json:"module_name" binding:"required,max=100"`
	RepositoryID int64   `json:"repository_id" binding:"required"`
	PathOverride *string `json:"path_override"`
	Branch       *string `json:"branch"` // 为空时使用仓库默认分支
}

// ModuleSourceResponse 模块来源响应
type ModuleSourceResponse struct {
	ID           int64   `json:"id"`
	ModuleName   string  `json:"module_name"`
	RepositoryID int64   `json:"repository_id"`
	RepoName     *string `json:"repo_name,omitempty"`
	PathOverride string  `json:"path_override"`
	Branch       string  `json:"branch"`
	LastFetchAt  *string `json:"last_fetch_at"`
	CreatedAt    string  `json:"created_at"`
}
