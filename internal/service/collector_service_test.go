package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qa-platform/internal/adapter/runner"
	"qa-platform/internal/dto"
	"qa-platform/internal/model"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

type collectorFixture struct {
	runRepo    *fakeRunRepo
	resultRepo *fakeResultRepo
	caseRepo   *fakeCaseRepo
	regRepo    *fakeRegressionRepo
	svc        CollectorService
}

func newCollectorFixture() *collectorFixture {
	f := &collectorFixture{
		runRepo:    newFakeRunRepo(),
		resultRepo: newFakeResultRepo(),
		caseRepo:   newFakeCaseRepo(),
		regRepo:    newFakeRegressionRepo(),
	}
	f.svc = NewCollectorService(f.runRepo, f.resultRepo, f.caseRepo, f.regRepo)
	return f
}

func (f *collectorFixture) seedRun(customerID, suiteID int64, status int8) *model.TestRun {
	started := time.Now().Add(-time.Minute)
	run := &model.TestRun{
		CustomerID: customerID,
		SuiteID:    suiteID,
		Status:     status,
		StartedAt:  &started,
	}
	_ = f.runRepo.Create(run)
	return run
}

func (f *collectorFixture) seedCase(customerID int64, name string) *model.TestCase {
	tc := &model.TestCase{CustomerID: customerID, Name: name}
	_ = f.caseRepo.Create(tc)
	return tc
}

func TestIngestReportResolveRun(t *testing.T) {
	f := newCollectorFixture()

	t.Run("未携带定位字段", func(t *testing.T) {
		_, err := f.svc.IngestReport(&dto.IngestReportRequest{
			Results: []dto.IngestResultItem{{Name: "TC", Status: "pass"}},
		})
		require.Error(t, err)
		assert.True(t, pkgErrors.Is(err, pkgErrors.ErrBadRequest))
	})

	t.Run("构建号无对应运行", func(t *testing.T) {
		build := 9999
		_, err := f.svc.IngestReport(&dto.IngestReportRequest{
			CIBuildNumber: &build,
			Results:       []dto.IngestResultItem{{Name: "TC", Status: "pass"}},
		})
		require.Error(t, err)
		assert.True(t, pkgErrors.Is(err, pkgErrors.ErrIngestConflict))
	})

	t.Run("按构建号定位", func(t *testing.T) {
		run := f.seedRun(1, 1, constants.RunStatusRunning)
		build := 42
		run.CIBuildNumber = &build
		require.NoError(t, f.runRepo.Update(run))

		resp, err := f.svc.IngestReport(&dto.IngestReportRequest{
			CIBuildNumber: &build,
			CIBuildURL:    "https://ci.example.com/42",
			Results:       []dto.IngestResultItem{{Name: "TC", Status: "pass"}},
		})
		require.NoError(t, err)
		assert.Equal(t, run.ID, resp.ID)
		assert.Equal(t, "https://ci.example.com/42", resp.CIBuildURL)
	})
}

func TestIngestReportTally(t *testing.T) {
	f := newCollectorFixture()
	f.seedCase(1, "TC001")
	f.seedCase(1, "TC002")
	run := f.seedRun(1, 1, constants.RunStatusRunning)
	runID := run.ID

	resp, err := f.svc.IngestReport(&dto.IngestReportRequest{
		RunID: &runID,
		Results: []dto.IngestResultItem{
			{Name: "TC001", Status: "pass", Duration: 3.2},
			{Name: "TC002", Status: "fail", Message: "assertion failed"},
			{Name: "TC999", Status: "pass"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, constants.RunStatusFailed, resp.Status)
	assert.Equal(t, 3, resp.TotalTests)
	assert.Equal(t, 2, resp.PassedTests)
	assert.Equal(t, 1, resp.FailedTests)
	assert.InDelta(t, 66.67, resp.PassRate, 0.001)
	assert.NotNil(t, resp.FinishedAt)

	// 无对应用例的结果标记孤儿
	orphans, err := f.resultRepo.CountOrphans(runID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), orphans)

	// 已登记用例刷新最近状态
	tc, err := f.caseRepo.FindByID(1)
	require.NoError(t, err)
	assert.Equal(t, constants.ResultStatusPass, tc.LastStatus)
	assert.NotNil(t, tc.LastRunAt)
}

func TestIngestReportStatusDerivation(t *testing.T) {
	f := newCollectorFixture()

	t.Run("全部通过", func(t *testing.T) {
		run := f.seedRun(1, 1, constants.RunStatusRunning)
		runID := run.ID
		resp, err := f.svc.IngestReport(&dto.IngestReportRequest{
			RunID: &runID,
			Results: []dto.IngestResultItem{
				{Name: "A", Status: "pass"},
				{Name: "B", Status: "skip"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, constants.RunStatusPassed, resp.Status)
		assert.Equal(t, 1, resp.SkippedTests)
	})

	t.Run("仅异常无失败", func(t *testing.T) {
		// 有结果但未全部通过的运行一律落 failed, 哪怕明细里只有 error
		run := f.seedRun(1, 2, constants.RunStatusRunning)
		runID := run.ID
		resp, err := f.svc.IngestReport(&dto.IngestReportRequest{
			RunID: &runID,
			Results: []dto.IngestResultItem{
				{Name: "A", Status: "error"},
				{Name: "B", Status: "error"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, constants.RunStatusFailed, resp.Status)
		assert.Equal(t, 2, resp.ErrorTests)
		assert.Equal(t, 0, resp.FailedTests)
	})
}

func TestIngestReportIdempotent(t *testing.T) {
	f := newCollectorFixture()
	run := f.seedRun(1, 1, constants.RunStatusRunning)
	runID := run.ID

	first := []dto.IngestResultItem{
		{Name: "A", Status: "fail"},
		{Name: "B", Status: "pass"},
	}
	_, err := f.svc.IngestReport(&dto.IngestReportRequest{RunID: &runID, Results: first})
	require.NoError(t, err)

	// 同名结果重报覆盖, 不产生重复记录
	second := []dto.IngestResultItem{
		{Name: "A", Status: "pass"},
		{Name: "B", Status: "pass"},
	}
	resp, err := f.svc.IngestReport(&dto.IngestReportRequest{RunID: &runID, Results: second})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalTests)
	assert.Equal(t, 2, resp.PassedTests)
	assert.Equal(t, 0, resp.FailedTests)
}

func TestIngestReportCancelledRunKeepsStatus(t *testing.T) {
	f := newCollectorFixture()
	run := f.seedRun(1, 1, constants.RunStatusCancelled)
	runID := run.ID

	resp, err := f.svc.IngestReport(&dto.IngestReportRequest{
		RunID:   &runID,
		Results: []dto.IngestResultItem{{Name: "A", Status: "pass"}},
	})
	require.NoError(t, err)

	// 迟到回调只补统计, 取消状态不被覆盖
	assert.Equal(t, constants.RunStatusCancelled, resp.Status)
	assert.Equal(t, 1, resp.TotalTests)
}

func TestCompleteRunEmptyReport(t *testing.T) {
	f := newCollectorFixture()
	run := f.seedRun(1, 1, constants.RunStatusRunning)

	err := f.svc.CompleteRun(run.ID, &runner.Report{FinishedAt: time.Now()})
	require.NoError(t, err)

	updated, err := f.runRepo.FindByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusError, updated.Status)
	require.NotNil(t, updated.ErrorMessage)
	assert.Contains(t, *updated.ErrorMessage, "不包含任何结果")
}

func TestFailRun(t *testing.T) {
	f := newCollectorFixture()

	t.Run("进行中的运行落为error", func(t *testing.T) {
		run := f.seedRun(1, 1, constants.RunStatusRunning)
		require.NoError(t, f.svc.FailRun(run.ID, "ssh connection refused"))

		updated, err := f.runRepo.FindByID(run.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.RunStatusError, updated.Status)
		require.NotNil(t, updated.ErrorMessage)
		assert.Equal(t, "ssh connection refused", *updated.ErrorMessage)
		assert.NotNil(t, updated.FinishedAt)
		assert.Greater(t, updated.Duration, 0.0)
	})

	t.Run("终态运行不被覆盖", func(t *testing.T) {
		run := f.seedRun(1, 2, constants.RunStatusPassed)
		require.NoError(t, f.svc.FailRun(run.ID, "late failure"))

		updated, err := f.runRepo.FindByID(run.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.RunStatusPassed, updated.Status)
		assert.Nil(t, updated.ErrorMessage)
	})
}

func TestIngestUpdatesRegressionStats(t *testing.T) {
	f := newCollectorFixture()
	suiteID := int64(7)
	reg := &model.RegressionSuite{CustomerID: 1, Name: "月度回归", SuiteID: &suiteID}
	require.NoError(t, f.regRepo.Create(reg))

	run := f.seedRun(1, suiteID, constants.RunStatusRunning)
	runID := run.ID
	_, err := f.svc.IngestReport(&dto.IngestReportRequest{
		RunID:   &runID,
		Results: []dto.IngestResultItem{{Name: "A", Status: "pass"}},
	})
	require.NoError(t, err)

	updated, err := f.regRepo.FindByID(reg.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunResultPassed, updated.LastRunResult)
	assert.InDelta(t, 100.0, updated.PassRate, 0.001)
	assert.NotNil(t, updated.LastRunDate)

	// 第二次失败运行拉低滚动通过率
	run2 := f.seedRun(1, suiteID, constants.RunStatusRunning)
	run2ID := run2.ID
	_, err = f.svc.IngestReport(&dto.IngestReportRequest{
		RunID:   &run2ID,
		Results: []dto.IngestResultItem{{Name: "A", Status: "fail"}},
	})
	require.NoError(t, err)

	updated, err = f.regRepo.FindByID(reg.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunResultFailed, updated.LastRunResult)
	assert.InDelta(t, 50.0, updated.PassRate, 0.001)
}

func TestCancelRunViaCollector(t *testing.T) {
	f := newCollectorFixture()

	t.Run("进行中可取消", func(t *testing.T) {
		run := f.seedRun(1, 1, constants.RunStatusRunning)
		cancelled, err := f.svc.CancelRun(run.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.RunStatusCancelled, cancelled.Status)
		assert.NotNil(t, cancelled.FinishedAt)
		assert.Greater(t, cancelled.Duration, 0.0)
	})

	t.Run("完结后不可取消", func(t *testing.T) {
		run := f.seedRun(1, 2, constants.RunStatusRunning)
		require.NoError(t, f.svc.CompleteRun(run.ID, &runner.Report{
			Results: []runner.CaseResult{{Name: "A", Status: "pass"}},
		}))

		_, err := f.svc.CancelRun(run.ID)
		require.Error(t, err)
		assert.True(t, pkgErrors.Is(err, pkgErrors.ErrRunNotCancellable))
	})
}

func TestRecoverStats(t *testing.T) {
	f := newCollectorFixture()

	t.Run("按汇总数字完结", func(t *testing.T) {
		run := f.seedRun(1, 1, constants.RunStatusRunning)
		require.NoError(t, f.svc.RecoverStats(run.ID, &runner.ConsoleStats{
			Total: 10, Passed: 9, Failed: 1,
		}))

		recovered, err := f.runRepo.FindByID(run.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.RunStatusFailed, recovered.Status)
		assert.Equal(t, 10, recovered.TotalTests)
		assert.InDelta(t, 90, recovered.PassRate, 0.001)
	})

	t.Run("空统计落error", func(t *testing.T) {
		run := f.seedRun(1, 2, constants.RunStatusRunning)
		require.NoError(t, f.svc.RecoverStats(run.ID, &runner.ConsoleStats{}))

		recovered, err := f.runRepo.FindByID(run.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.RunStatusError, recovered.Status)
	})

	t.Run("终态运行不覆盖", func(t *testing.T) {
		run := f.seedRun(1, 3, constants.RunStatusCancelled)
		require.NoError(t, f.svc.RecoverStats(run.ID, &runner.ConsoleStats{
			Total: 2, Passed: 2,
		}))

		kept, err := f.runRepo.FindByID(run.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.RunStatusCancelled, kept.Status)
	})
}
