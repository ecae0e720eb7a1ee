package constants

import "fmt"

// RunStatus 测试运行状态
const (
	RunStatusPending   int8 = 0  // 已创建, 未下发
	RunStatusRunning   int8 = 10 // 执行中
	RunStatusPassed    int8 = 20 // 全部通过
	RunStatusFailed    int8 = 21 // 存在失败
	RunStatusError     int8 = 22 // 执行异常/无结果
	RunStatusCancelled int8 = 90 // 已取消
)

// int8 → string
var runStatusName = map[int8]string{
	RunStatusPending:   "pending",
	RunStatusRunning:   "running",
	RunStatusPassed:    "passed",
	RunStatusFailed:    "failed",
	RunStatusError:     "error",
	RunStatusCancelled: "cancelled",
}

// RunStatusToString int8 → string
func RunStatusToString(status int8) string {
	if name, ok := runStatusName[status]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", status)
}

// RunStatusTerminal 是否终态
func RunStatusTerminal(status int8) bool {
	switch status {
	case RunStatusPassed, RunStatusFailed, RunStatusError, RunStatusCancelled:
		return true
	}
	return false
}

// ResultStatus 单条结果状态
const (
	ResultStatusPass  = "pass"
	ResultStatusFail  = "fail"
	ResultStatusError = "error"
	ResultStatusSkip  = "skip"
)

// 运行结果(套件维度)
const (
	RunResultNone   = "none"
	RunResultPassed = "passed"
	RunResultFailed = "failed"
)

// 滚动通过率窗口大小
const PassRateWindow = 10
