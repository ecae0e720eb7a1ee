package errors

import "fmt"

// 错误码
const (
	CodeSuccess         = 200
	CodePartialSuccess  = 206 // 部分成功
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeInternalError   = 500
	CodeDatabaseError   = 501
	CodeAuthError       = 502
	CodeValidationError = 503

	// 流水线错误码
	CodeFetchError      = 601 // 仓库拉取失败
	CodeFetchAuthError  = 602 // 仓库认证失败
	CodeBranchNotFound  = 603 // 分支不存在
	CodeAnalysisError   = 610 // 代码分析失败
	CodeGenerationError = 620 // 测试生成失败
	CodeParseError      = 621 // AI响应解析失败
	CodeDispatchError   = 630 // 执行调度失败
	CodeIngestConflict  = 640 // 结果写入冲突
	CodeHealthError     = 650 // 健康检查失败
	CodeStateConflict   = 660 // 状态流转冲突
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is 判断错误码是否一致
func Is(err error, target *AppError) bool {
	appErr, ok := err.(*AppError)
	return ok && target != nil && appErr.Code == target.Code
}

// 预定义错误
var (
	ErrBadRequest      = New(CodeBadRequest, "请求参数错误")
	ErrUnauthorized    = New(CodeUnauthorized, "未授权")
	ErrForbidden       = New(CodeForbidden, "禁止访问")
	ErrNotFound        = New(CodeNotFound, "资源不存在")
	ErrConflict        = New(CodeConflict, "资源冲突")
	ErrInternalError   = New(CodeInternalError, "内部服务器错误")
	ErrDatabaseError   = New(CodeDatabaseError, "数据库错误")
	ErrAuthError       = New(CodeAuthError, "认证失败")
	ErrValidationError = New(CodeValidationError, "数据验证失败")

	// 具体业务错误
	ErrInvalidParams      = New(CodeBadRequest, "请求参数错误")
	ErrInvalidCredentials = New(CodeAuthError, "用户名或密码错误")
	ErrUserNotFound       = New(CodeNotFound, "用户不存在")
	ErrUserDisabled       = New(CodeForbidden, "用户已禁用")
	ErrInvalidToken       = New(CodeUnauthorized, "无效的Token")
	ErrTokenExpired       = New(CodeUnauthorized, "Token已过期")
	ErrRecordNotFound     = New(CodeNotFound, "记录不存在")
	ErrRecordExists       = New(CodeConflict, "记录已存在")

	// 流水线业务错误
	ErrFetchAuthFailed     = New(CodeFetchAuthError, "仓库认证失败")
	ErrBranchNotFound      = New(CodeBranchNotFound, "分支不存在")
	ErrFetchFailed         = New(CodeFetchError, "仓库拉取失败")
	ErrAnalysisFailed      = New(CodeAnalysisError, "代码分析失败")
	ErrGenerationFailed    = New(CodeGenerationError, "测试生成失败")
	ErrGenerationParse     = New(CodeParseError, "AI响应格式无效")
	ErrGenerationInFlight  = New(CodeStateConflict, "该对象的测试生成正在进行中")
	ErrDispatchFailed      = New(CodeDispatchError, "测试执行调度失败")
	ErrRunNotCancellable   = New(CodeStateConflict, "运行已结束, 无法取消")
	ErrIngestConflict      = New(CodeIngestConflict, "结果写入冲突")
	ErrHealthCheckFailed   = New(CodeHealthError, "健康检查执行失败")
	ErrInvalidTransition   = New(CodeStateConflict, "当前状态不允许该操作")
	ErrVerificationBlocked = New(CodeStateConflict, "存在未通过的关联测试, 无法验收")
)
