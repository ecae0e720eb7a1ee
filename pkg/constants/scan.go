package constants

import "fmt"

// ScanStatus 代码扫描会话状态
const (
	ScanStatusDraft      int8 = 0  // 草稿
	ScanStatusScanning   int8 = 10 // 仓库扫描中
	ScanStatusScanned    int8 = 11 // 模块发现完成
	ScanStatusAnalyzing  int8 = 20 // 静态分析中
	ScanStatusAnalyzed   int8 = 21 // 分析完成
	ScanStatusGenerating int8 = 30 // 测试生成中
	ScanStatusDone       int8 = 40 // 已完成
	ScanStatusError      int8 = 90 // 异常
)

var scanStatusName = map[int8]string{
	ScanStatusDraft:      "draft",
	ScanStatusScanning:   "scanning",
	ScanStatusScanned:    "scanned",
	ScanStatusAnalyzing:  "analyzing",
	ScanStatusAnalyzed:   "analyzed",
	ScanStatusGenerating: "generating",
	ScanStatusDone:       "done",
	ScanStatusError:      "error",
}

// ScanStatusToString int8 → string
func ScanStatusToString(status int8) string {
	if name, ok := scanStatusName[status]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", status)
}

const (
	ScanActionScan     = "scan"
	ScanActionAnalyze  = "analyze"
	ScanActionGenerate = "generate"
	ScanActionReset    = "reset"
)

// 每个模型默认生成的用例上限
const DefaultMaxTestsPerModel = 25
