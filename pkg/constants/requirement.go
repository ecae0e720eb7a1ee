package constants

import "fmt"

// RequirementStatus 需求状态
const (
	RequirementStatusDraft        int8 = 0  // 草稿
	RequirementStatusApproved     int8 = 10 // 已评审
	RequirementStatusImplementing int8 = 20 // 实现中
	RequirementStatusTesting      int8 = 30 // 测试中
	RequirementStatusDeployed     int8 = 40 // 已交付
	RequirementStatusVerified     int8 = 50 // 已验收
)

var requirementStatusName = map[int8]string{
	RequirementStatusDraft:        "draft",
	RequirementStatusApproved:     "approved",
	RequirementStatusImplementing: "implementing",
	RequirementStatusTesting:      "testing",
	RequirementStatusDeployed:     "deployed",
	RequirementStatusVerified:     "verified",
}

// RequirementStatusToString int8 → string
func RequirementStatusToString(status int8) string {
	if name, ok := requirementStatusName[status]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", status)
}

const (
	RequirementActionApprove      = "approve"
	RequirementActionStart        = "start"
	RequirementActionBeginTesting = "begin_testing"
	RequirementActionDeploy       = "deploy"
	RequirementActionVerify       = "verify"
)
