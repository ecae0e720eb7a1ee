package ai

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient 测试用AI客户端
type MockClient struct {
	mock.Mock
}

// NewMockClient 创建Mock客户端
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Complete Mock实现
func (m *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// TestConnection Mock实现
func (m *MockClient) TestConnection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// SetResponse 设定固定响应
func (m *MockClient) SetResponse(text string) *MockClient {
	m.On("Complete", mock.Anything, mock.Anything).Return(text, nil)
	return m
}

// SetError 设定固定错误
func (m *MockClient) SetError(err error) *MockClient {
	m.On("Complete", mock.Anything, mock.Anything).Return("", err)
	return m
}
