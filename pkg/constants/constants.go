package constants

// 认证类型
const (
	AuthTypeLocal    = "local"
	AuthTypeAPIToken = "api_token"
)

// 状态
const (
	StatusEnabled  int8 = 1
	StatusDisabled int8 = 0
)

// Git 仓库提供方
const (
	GitProviderGitHub    = "github"
	GitProviderGitLab    = "gitlab"
	GitProviderBitbucket = "bitbucket"
	GitProviderCustom    = "custom"
)

// 仓库认证方式
const (
	RepoAuthNone  = "none"
	RepoAuthToken = "token"
	RepoAuthBasic = "basic"
)

// 目标环境类型
const (
	EnvTypeLocal      = "local"
	EnvTypeDev        = "dev"
	EnvTypeStaging    = "staging"
	EnvTypeUAT        = "uat"
	EnvTypeProduction = "production"
)

// 执行器类型
const (
	RunnerTypeLocal = "local"
	RunnerTypeSSH   = "ssh"
	RunnerTypeCI    = "ci"
)

// 运行触发来源
const (
	TriggerSourceManual   = "manual"
	TriggerSourceSchedule = "schedule"
	TriggerSourceCI       = "ci"
	TriggerSourceAPI      = "api"
)

// 测试用例类别
const (
	CategoryCRUD       = "crud"
	CategoryValidation = "validation"
	CategoryWorkflow   = "workflow"
	CategorySecurity   = "security"
	CategoryNegative   = "negative"
	CategoryFunctional = "functional"
)

// 用例生成来源
const (
	GenSourceManual     = "manual"
	GenSourceSpec       = "spec"
	GenSourceCodeScan   = "code_scan"
	GenSourceRegression = "regression"
)

// JWT 相关
const (
	JWTContextKey  = "jwt_user"
	JWTTypeAccess  = "access"
	JWTTypeRefresh = "refresh"
)

// HTTP Header
const (
	HeaderAuthorization = "Authorization"
	HeaderBearerPrefix  = "Bearer "
)
