package requirement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"qa-platform/pkg/constants"
)

func TestResolveActions(t *testing.T) {
	t.Run("每个动作只有一个合法起点", func(t *testing.T) {
		seen := map[string]bool{}
		for _, tr := range transitionTable {
			assert.False(t, seen[tr.Action], "action %s registered twice", tr.Action)
			seen[tr.Action] = true
		}
	})

	t.Run("生命周期只进不退", func(t *testing.T) {
		for _, tr := range transitionTable {
			assert.Greater(t, tr.To, tr.From, "action %s goes backwards", tr.Action)
		}
	})
}

func TestCanTrigger(t *testing.T) {
	assert.True(t, CanTrigger(constants.RequirementStatusDraft, constants.RequirementActionApprove))
	assert.True(t, CanTrigger(constants.RequirementStatusDeployed, constants.RequirementActionVerify))

	// 跳级与回退都不允许
	assert.False(t, CanTrigger(constants.RequirementStatusDraft, constants.RequirementActionDeploy))
	assert.False(t, CanTrigger(constants.RequirementStatusVerified, constants.RequirementActionApprove))
	assert.False(t, CanTrigger(constants.RequirementStatusTesting, constants.RequirementActionStart))

	// 未知动作
	assert.False(t, CanTrigger(constants.RequirementStatusDraft, "reopen"))
}

func TestResolveUnknownAction(t *testing.T) {
	_, ok := Resolve("rollback")
	assert.False(t, ok)
}
