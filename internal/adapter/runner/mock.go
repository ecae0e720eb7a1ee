package runner

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	pkgErrors "qa-platform/pkg/errors"
)

// MockRunner 测试用执行器, 可配置延迟/报告/错误
type MockRunner struct {
	mock.Mock

	mu           sync.Mutex
	startDelay   time.Duration
	awaitDelay   time.Duration
	startError   error
	awaitError   error
	cancelError  error
	report       *Report
	external     bool
	buildNumber  int
	consoleStats *ConsoleStats
	consoleErr   error
	startCalled  map[int64]int
	cancelCalled map[int64]int
}

// NewMockRunner 创建Mock执行器, 默认立即返回空报告
func NewMockRunner() *MockRunner {
	return &MockRunner{
		report:       &Report{Results: []CaseResult{}},
		startCalled:  map[int64]int{},
		cancelCalled: map[int64]int{},
	}
}

// SetReport 设置 Await 返回的报告
func (m *MockRunner) SetReport(report *Report) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.report = report
	return m
}

// SetStartError 设置启动失败
func (m *MockRunner) SetStartError(err error) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startError = err
	return m
}

// SetAwaitError 设置执行失败
func (m *MockRunner) SetAwaitError(err error) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.awaitError = err
	return m
}

// SetCancelError 设置取消失败
func (m *MockRunner) SetCancelError(err error) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelError = err
	return m
}

// SetStartDelay 设置启动耗时
func (m *MockRunner) SetStartDelay(d time.Duration) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startDelay = d
	return m
}

// SetAwaitDelay 设置执行耗时
func (m *MockRunner) SetAwaitDelay(d time.Duration) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.awaitDelay = d
	return m
}

// SetExternal 模拟外部CI: Await 返回 ErrExternalReport
func (m *MockRunner) SetExternal(buildNumber int) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.external = true
	m.buildNumber = buildNumber
	return m
}

// SetConsoleStats 设置构建日志兜底统计
func (m *MockRunner) SetConsoleStats(stats *ConsoleStats) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consoleStats = stats
	m.consoleErr = nil
	return m
}

// SetConsoleStatsError 设置兜底统计拉取失败
func (m *MockRunner) SetConsoleStatsError(err error) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consoleErr = err
	return m
}

// FetchConsoleStats 返回预设的兜底统计, 未设置时视为日志中无统计
func (m *MockRunner) FetchConsoleStats(ctx context.Context, buildNumber int) (*ConsoleStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consoleErr != nil {
		return nil, m.consoleErr
	}
	if m.consoleStats == nil {
		return nil, pkgErrors.New(pkgErrors.CodeDispatchError, "控制台日志中未找到执行统计")
	}
	return m.consoleStats, nil
}

func (m *MockRunner) Start(ctx context.Context, req *Request) (Execution, error) {
	m.mu.Lock()
	delay := m.startDelay
	startErr := m.startError
	m.startCalled[req.RunID]++
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if startErr != nil {
		return nil, startErr
	}
	return &mockExecution{parent: m, runID: req.RunID}, nil
}

// StartCallCount 返回指定执行的启动次数
func (m *MockRunner) StartCallCount(runID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalled[runID]
}

// CancelCallCount 返回指定执行的取消次数
func (m *MockRunner) CancelCallCount(runID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelCalled[runID]
}

// AssertStartCalled 断言指定执行启动过
func (m *MockRunner) AssertStartCalled(t mock.TestingT, runID int64) bool {
	if m.StartCallCount(runID) == 0 {
		t.Errorf("expected Start to be called for run %d", runID)
		return false
	}
	return true
}

// AssertCancelCalled 断言指定执行取消过
func (m *MockRunner) AssertCancelCalled(t mock.TestingT, runID int64) bool {
	if m.CancelCallCount(runID) == 0 {
		t.Errorf("expected Cancel to be called for run %d", runID)
		return false
	}
	return true
}

type mockExecution struct {
	parent *MockRunner
	runID  int64
}

func (e *mockExecution) Await(ctx context.Context) (*Report, error) {
	m := e.parent
	m.mu.Lock()
	delay := m.awaitDelay
	awaitErr := m.awaitError
	report := m.report
	external := m.external
	m.mu.Unlock()

	if external {
		return nil, ErrExternalReport
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if awaitErr != nil {
		return nil, awaitErr
	}
	return report, nil
}

func (e *mockExecution) Cancel(ctx context.Context) error {
	m := e.parent
	m.mu.Lock()
	m.cancelCalled[e.runID]++
	err := m.cancelError
	m.mu.Unlock()
	return err
}

func (e *mockExecution) BuildNumber() int {
	e.parent.mu.Lock()
	defer e.parent.mu.Unlock()
	return e.parent.buildNumber
}

func (e *mockExecution) BuildURL() string { return "" }
