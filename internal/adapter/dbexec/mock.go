package dbexec

import (
	"context"
	"sync"
)

// MockExecutor 测试用执行通道, 按查询/命令返回预设输出
type MockExecutor struct {
	mu        sync.Mutex
	queryOut  map[string]string
	queryErr  map[string]error
	runOut    map[string]string
	runErr    map[string]error
	defOut    string
	defErr    error
	queries   []string
	commands  []string
}

// NewMockExecutor 创建Mock执行通道
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		queryOut: map[string]string{},
		queryErr: map[string]error{},
		runOut:   map[string]string{},
		runErr:   map[string]error{},
	}
}

// SetQueryResult 设置指定查询的输出
func (m *MockExecutor) SetQueryResult(query, output string) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryOut[query] = output
	return m
}

// SetQueryError 设置指定查询的错误, err为nil时清除
func (m *MockExecutor) SetQueryError(query string, err error) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.queryErr, query)
		return m
	}
	m.queryErr[query] = err
	return m
}

// SetRunResult 设置指定命令的输出
func (m *MockExecutor) SetRunResult(command, output string) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runOut[command] = output
	return m
}

// SetRunError 设置指定命令的错误, err为nil时清除
func (m *MockExecutor) SetRunError(command string, err error) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.runErr, command)
		return m
	}
	m.runErr[command] = err
	return m
}

// SetDefault 设置未匹配时的缺省输出与错误
func (m *MockExecutor) SetDefault(output string, err error) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defOut = output
	m.defErr = err
	return m
}

func (m *MockExecutor) Query(_ context.Context, _ Target, query string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if err, ok := m.queryErr[query]; ok {
		return "", err
	}
	if out, ok := m.queryOut[query]; ok {
		return out, nil
	}
	return m.defOut, m.defErr
}

func (m *MockExecutor) Run(_ context.Context, _ Target, command string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, command)
	if err, ok := m.runErr[command]; ok {
		return "", err
	}
	if out, ok := m.runOut[command]; ok {
		return out, nil
	}
	return m.defOut, m.defErr
}

// Queries 返回收到的全部查询
func (m *MockExecutor) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// Commands 返回收到的全部命令
func (m *MockExecutor) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}
