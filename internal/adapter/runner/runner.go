package runner

import (
	"context"
	"time"

	pkgErrors "qa-platform/pkg/errors"
)

// Artifact 下发的可执行测试产物
type Artifact struct {
	Name    string // 文件名
	Content string // Robot Framework 源
}

// Request 一次执行请求
type Request struct {
	RunID       int64
	SuiteID     int64
	SuiteName   string
	Artifacts   []Artifact
	Variables   map[string]string // BASE_URL / USERNAME / PASSWORD / BROWSER / TIMEOUT
	IncludeTags []string
	ExcludeTags []string
	Headless    bool
	CallbackURL string // 外部CI回报地址
}

// CaseResult 单条用例结果
type CaseResult struct {
	Name     string
	Status   string // pass/fail/error/skip
	Duration float64
	Message  string
	LogRef   string
	ScreenshotRef string
}

// Report 执行报告
type Report struct {
	Results    []CaseResult
	StartedAt  time.Time
	FinishedAt time.Time
	OutputPath string
}

// ErrExternalReport 外部CI执行: 报告经回调进入, Await 不产出结果
var ErrExternalReport = pkgErrors.New(pkgErrors.CodeDispatchError, "执行结果由外部CI回调上报")

// Execution 一次已启动执行的句柄
type Execution interface {
	// Await 等待执行完成并返回报告; 外部CI执行返回 ErrExternalReport
	Await(ctx context.Context) (*Report, error)

	// Cancel 尽力终止执行
	Cancel(ctx context.Context) error

	// BuildNumber 外部CI构建号, 本地/SSH执行返回0
	BuildNumber() int

	// BuildURL 外部CI构建地址
	BuildURL() string
}

// Runner 执行器策略接口
// Start 成功即代表执行已经开始; 启动失败与执行失败是不同的错误
type Runner interface {
	Start(ctx context.Context, req *Request) (Execution, error)
}
