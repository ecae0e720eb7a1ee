package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"qa-platform/internal/core/requirement"
	"qa-platform/internal/dto"
	"qa-platform/internal/model"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

type requirementFixture struct {
	reqRepo      *fakeRequirementRepo
	caseRepo     *fakeCaseRepo
	resultRepo   *fakeResultRepo
	customerRepo *fakeCustomerRepo
	svc          RequirementService
}

func newRequirementFixture() *requirementFixture {
	f := &requirementFixture{
		reqRepo:      newFakeRequirementRepo(),
		caseRepo:     newFakeCaseRepo(),
		resultRepo:   newFakeResultRepo(),
		customerRepo: newFakeCustomerRepo(),
	}
	sm := requirement.NewStateMachine(nil, zap.NewNop())
	f.svc = NewRequirementService(f.reqRepo, f.caseRepo, f.resultRepo, f.customerRepo, sm)
	_ = f.customerRepo.Create(&model.Customer{Code: "ACME", Name: "Acme GmbH"})
	return f
}

// seedResult 写入一条带用例关联的结果, 用于最近结果判定
func (f *requirementFixture) seedResult(runID, caseID int64, status string) {
	id := caseID
	_ = f.resultRepo.Upsert(&model.TestResult{
		RunID:      runID,
		TestCaseID: &id,
		CaseName:   fmt.Sprintf("case-%d", caseID),
		Status:     status,
	})
}

func TestCreateRequirement(t *testing.T) {
	f := newRequirementFixture()

	t.Run("创建成功带默认值", func(t *testing.T) {
		resp, err := f.svc.Create(&dto.CreateRequirementRequest{
			CustomerID: 1,
			Code:       "REQ-001",
			Name:       "批量开票",
		})
		require.NoError(t, err)
		assert.Equal(t, constants.RequirementStatusDraft, resp.Status)
		assert.Equal(t, constants.CategoryFunctional, resp.Category)
		assert.Equal(t, "medium", resp.Priority)
	})

	t.Run("编码客户内唯一", func(t *testing.T) {
		_, err := f.svc.Create(&dto.CreateRequirementRequest{
			CustomerID: 1,
			Code:       "REQ-001",
			Name:       "重复编码",
		})
		require.Error(t, err)
		assert.True(t, pkgErrors.Is(err, pkgErrors.ErrRecordExists))
	})

	t.Run("客户不存在", func(t *testing.T) {
		_, err := f.svc.Create(&dto.CreateRequirementRequest{
			CustomerID: 99,
			Code:       "REQ-002",
			Name:       "无主需求",
		})
		require.Error(t, err)
		assert.True(t, pkgErrors.Is(err, pkgErrors.ErrRecordNotFound))
	})
}

func TestLinkCases(t *testing.T) {
	f := newRequirementFixture()
	_ = f.customerRepo.Create(&model.Customer{Code: "OTHER", Name: "Other AG"})

	tc1 := &model.TestCase{CustomerID: 1, Name: "TC1"}
	tc2 := &model.TestCase{CustomerID: 1, Name: "TC2"}
	foreign := &model.TestCase{CustomerID: 2, Name: "TC-foreign"}
	require.NoError(t, f.caseRepo.Create(tc1))
	require.NoError(t, f.caseRepo.Create(tc2))
	require.NoError(t, f.caseRepo.Create(foreign))

	created, err := f.svc.Create(&dto.CreateRequirementRequest{
		CustomerID: 1, Code: "REQ-010", Name: "关联测试",
	})
	require.NoError(t, err)

	t.Run("无效用例ID被拒", func(t *testing.T) {
		_, err := f.svc.LinkCases(created.ID, &dto.LinkRequirementCasesRequest{
			CaseIDs: []int64{tc1.ID, 999},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "无效的用例ID")
	})

	t.Run("跨客户关联被拒", func(t *testing.T) {
		_, err := f.svc.LinkCases(created.ID, &dto.LinkRequirementCasesRequest{
			CaseIDs: []int64{tc1.ID, foreign.ID},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "同一客户")
	})

	t.Run("整体替换既有关联", func(t *testing.T) {
		resp, err := f.svc.LinkCases(created.ID, &dto.LinkRequirementCasesRequest{
			CaseIDs: []int64{tc1.ID, tc2.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{tc1.ID, tc2.ID}, resp.TestCaseIDs)

		resp, err = f.svc.LinkCases(created.ID, &dto.LinkRequirementCasesRequest{
			CaseIDs: []int64{tc2.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{tc2.ID}, resp.TestCaseIDs)
	})
}

func TestVerifyGuard(t *testing.T) {
	f := newRequirementFixture()
	svc := f.svc.(*requirementService)
	ctx := context.Background()

	t.Run("未关联用例不可验收", func(t *testing.T) {
		err := svc.verifyGuard(ctx, nil, &model.Requirement{CustomerID: 1})
		require.Error(t, err)
		assert.True(t, pkgErrors.Is(err, pkgErrors.ErrVerificationBlocked))
	})

	t.Run("存在未通过用例不可验收", func(t *testing.T) {
		f.seedResult(1, 11, constants.ResultStatusPass)
		f.seedResult(1, 12, constants.ResultStatusFail)
		err := svc.verifyGuard(ctx, nil, &model.Requirement{
			CustomerID: 1, TestCaseIDs: model.Int64List{11, 12},
		})
		assert.True(t, pkgErrors.Is(err, pkgErrors.ErrVerificationBlocked))
	})

	t.Run("从未执行的用例不可验收", func(t *testing.T) {
		err := svc.verifyGuard(ctx, nil, &model.Requirement{
			CustomerID: 1, TestCaseIDs: model.Int64List{11, 13},
		})
		assert.True(t, pkgErrors.Is(err, pkgErrors.ErrVerificationBlocked))
	})

	t.Run("全部通过放行", func(t *testing.T) {
		// 用例12的失败被更新的一次通过覆盖
		f.seedResult(2, 12, constants.ResultStatusPass)
		err := svc.verifyGuard(ctx, nil, &model.Requirement{
			CustomerID: 1, TestCaseIDs: model.Int64List{11, 12},
		})
		assert.NoError(t, err)
	})
}

func TestRecheck(t *testing.T) {
	f := newRequirementFixture()

	created, err := f.svc.Create(&dto.CreateRequirementRequest{
		CustomerID: 1, Code: "REQ-020", Name: "验收复核",
	})
	require.NoError(t, err)

	t.Run("无关联用例", func(t *testing.T) {
		resp, err := f.svc.Recheck(created.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, resp.TotalCases)
		assert.False(t, resp.StillPassing)
	})

	tc1 := &model.TestCase{CustomerID: 1, Name: "R1"}
	tc2 := &model.TestCase{CustomerID: 1, Name: "R2"}
	tc3 := &model.TestCase{CustomerID: 1, Name: "R3"}
	require.NoError(t, f.caseRepo.Create(tc1))
	require.NoError(t, f.caseRepo.Create(tc2))
	require.NoError(t, f.caseRepo.Create(tc3))
	_, err = f.svc.LinkCases(created.ID, &dto.LinkRequirementCasesRequest{
		CaseIDs: []int64{tc1.ID, tc2.ID, tc3.ID},
	})
	require.NoError(t, err)

	f.seedResult(1, tc1.ID, constants.ResultStatusPass)
	f.seedResult(1, tc2.ID, constants.ResultStatusFail)

	t.Run("分类统计", func(t *testing.T) {
		resp, err := f.svc.Recheck(created.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, resp.TotalCases)
		assert.Equal(t, 1, resp.PassingCases)
		assert.Equal(t, []int64{tc2.ID}, resp.FailingCases)
		assert.Equal(t, []int64{tc3.ID}, resp.NeverRunCases)
		assert.False(t, resp.StillPassing)
	})

	t.Run("全绿时StillPassing", func(t *testing.T) {
		f.seedResult(2, tc2.ID, constants.ResultStatusPass)
		f.seedResult(2, tc3.ID, constants.ResultStatusPass)
		resp, err := f.svc.Recheck(created.ID)
		require.NoError(t, err)
		assert.True(t, resp.StillPassing)
		assert.Empty(t, resp.FailingCases)
		assert.Empty(t, resp.NeverRunCases)
	})
}
