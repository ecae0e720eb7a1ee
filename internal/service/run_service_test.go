package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qa-platform/internal/adapter/runner"
	"qa-platform/internal/dto"
	"qa-platform/internal/model"
	"qa-platform/internal/pkg/config"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

type fakeRunnerProvider struct {
	rn         runner.Runner
	err        error
	lastType   string
	lastServer *model.Server
}

func (f *fakeRunnerProvider) Provide(runnerType string, server *model.Server) (runner.Runner, error) {
	f.lastType = runnerType
	f.lastServer = server
	if f.err != nil {
		return nil, f.err
	}
	return f.rn, nil
}

type runFixture struct {
	runRepo    *fakeRunRepo
	resultRepo *fakeResultRepo
	suiteRepo  *fakeSuiteRepo
	caseRepo   *fakeCaseRepo
	serverRepo *fakeServerRepo
	regRepo    *fakeRegressionRepo
	mock       *runner.MockRunner
	provider   *fakeRunnerProvider
	collector  CollectorService
	svc        RunService
}

func newRunFixture() *runFixture {
	f := &runFixture{
		runRepo:    newFakeRunRepo(),
		resultRepo: newFakeResultRepo(),
		suiteRepo:  newFakeSuiteRepo(),
		caseRepo:   newFakeCaseRepo(),
		serverRepo: newFakeServerRepo(),
		regRepo:    newFakeRegressionRepo(),
		mock:       runner.NewMockRunner(),
	}
	f.provider = &fakeRunnerProvider{rn: f.mock}
	f.collector = NewCollectorService(f.runRepo, f.resultRepo, f.caseRepo, f.regRepo)
	f.svc = NewRunService(f.runRepo, f.resultRepo, f.suiteRepo, f.caseRepo,
		f.serverRepo, f.provider, f.collector, &config.Config{})
	return f
}

func (f *runFixture) seedSuite(withCase bool) *model.TestSuite {
	suite := &model.TestSuite{
		CustomerID: 1,
		Name:       "冒烟套件",
		RunnerType: constants.RunnerTypeLocal,
	}
	suite.Status = constants.StatusEnabled
	_ = f.suiteRepo.Create(suite)
	if withCase {
		_ = f.caseRepo.Create(&model.TestCase{
			CustomerID: 1,
			Name:       "TC001",
			RobotCode:  "*** Test Cases ***\nTC001\n    Log    ok",
			SuiteID:    &suite.ID,
		})
	}
	return suite
}

// waitTerminal 轮询直到运行进入终态
func (f *runFixture) waitTerminal(t *testing.T, runID int64) *model.TestRun {
	t.Helper()
	var run *model.TestRun
	require.Eventually(t, func() bool {
		var err error
		run, err = f.runRepo.FindByID(runID)
		return err == nil && constants.RunStatusTerminal(run.Status)
	}, 2*time.Second, 10*time.Millisecond)
	return run
}

func TestRunDispatchValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("套件禁用", func(t *testing.T) {
		f := newRunFixture()
		suite := f.seedSuite(true)
		suite.Status = constants.StatusDisabled
		require.NoError(t, f.suiteRepo.Update(suite))

		_, err := f.svc.Run(ctx, suite.ID, &dto.RunSuiteRequest{}, constants.TriggerSourceManual, "qa")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "禁用")
	})

	t.Run("套件无可执行用例", func(t *testing.T) {
		f := newRunFixture()
		suite := f.seedSuite(false)
		_, err := f.svc.Run(ctx, suite.ID, &dto.RunSuiteRequest{}, constants.TriggerSourceManual, "qa")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "可执行的用例")
	})
}

func TestRunDispatchLocal(t *testing.T) {
	ctx := context.Background()
	f := newRunFixture()
	suite := f.seedSuite(true)

	f.mock.SetAwaitDelay(100 * time.Millisecond)
	f.mock.SetReport(&runner.Report{
		Results: []runner.CaseResult{
			{Name: "TC001", Status: constants.ResultStatusPass, Duration: 1.5},
		},
		FinishedAt: time.Now(),
	})

	resp, err := f.svc.Run(ctx, suite.ID, &dto.RunSuiteRequest{}, constants.TriggerSourceManual, "qa")
	require.NoError(t, err)

	// 下发后先进入 running, 结果由后台等待收集
	assert.Equal(t, constants.RunStatusRunning, resp.Status)
	assert.NotNil(t, resp.StartedAt)
	f.mock.AssertStartCalled(t, resp.ID)

	run := f.waitTerminal(t, resp.ID)
	assert.Equal(t, constants.RunStatusPassed, run.Status)
	assert.Equal(t, 1, run.TotalTests)
	assert.Equal(t, 1, run.PassedTests)
}

func TestRunDispatchStartFailure(t *testing.T) {
	ctx := context.Background()
	f := newRunFixture()
	suite := f.seedSuite(true)
	f.mock.SetStartError(errors.New("robot binary not found"))

	_, err := f.svc.Run(ctx, suite.ID, &dto.RunSuiteRequest{}, constants.TriggerSourceManual, "qa")
	require.Error(t, err)
	assert.True(t, pkgErrors.Is(err, pkgErrors.New(pkgErrors.CodeDispatchError, "")))

	// 启动失败的运行落为 error 而非悬挂在 pending
	run, err := f.runRepo.FindByID(1)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusError, run.Status)
}

func TestRunDispatchExternalCI(t *testing.T) {
	ctx := context.Background()
	f := newRunFixture()
	suite := f.seedSuite(true)
	suite.RunnerType = constants.RunnerTypeCI
	require.NoError(t, f.suiteRepo.Update(suite))
	f.mock.SetExternal(77)

	resp, err := f.svc.Run(ctx, suite.ID, &dto.RunSuiteRequest{}, constants.TriggerSourceCI, "jenkins")
	require.NoError(t, err)
	assert.Equal(t, constants.RunnerTypeCI, f.provider.lastType)
	assert.Equal(t, constants.RunStatusRunning, resp.Status)
	require.NotNil(t, resp.CIBuildNumber)
	assert.Equal(t, 77, *resp.CIBuildNumber)

	// 外部CI不在本地等待, 运行保持 running 直到回调
	time.Sleep(50 * time.Millisecond)
	run, err := f.runRepo.FindByID(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusRunning, run.Status)

	// 取消后迟到的回调仍被接受, 状态保持 cancelled
	cancelled, err := f.svc.Cancel(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusCancelled, cancelled.Status)

	build := 77
	ingested, err := f.collector.IngestReport(&dto.IngestReportRequest{
		CIBuildNumber: &build,
		Results:       []dto.IngestResultItem{{Name: "TC001", Status: "pass"}},
	})
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusCancelled, ingested.Status)
	assert.Equal(t, 1, ingested.TotalTests)
}

func TestCancelRun(t *testing.T) {
	ctx := context.Background()
	f := newRunFixture()
	suite := f.seedSuite(true)
	f.mock.SetAwaitDelay(time.Second)

	resp, err := f.svc.Run(ctx, suite.ID, &dto.RunSuiteRequest{}, constants.TriggerSourceManual, "qa")
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusCancelled, cancelled.Status)
	f.mock.AssertCancelCalled(t, resp.ID)

	// 终态运行不可再取消
	_, err = f.svc.Cancel(ctx, resp.ID)
	require.Error(t, err)
	assert.True(t, pkgErrors.Is(err, pkgErrors.ErrRunNotCancellable))
}

func TestDeleteRun(t *testing.T) {
	ctx := context.Background()
	f := newRunFixture()
	suite := f.seedSuite(true)
	f.mock.SetAwaitDelay(time.Second)

	resp, err := f.svc.Run(ctx, suite.ID, &dto.RunSuiteRequest{}, constants.TriggerSourceManual, "qa")
	require.NoError(t, err)

	// 进行中的运行拒绝删除
	err = f.svc.Delete(resp.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "无法删除")

	_, err = f.svc.Cancel(ctx, resp.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(resp.ID))
	_, err = f.runRepo.FindByID(resp.ID)
	require.Error(t, err)
}

func TestMarkStuckRuns(t *testing.T) {
	f := newRunFixture()

	stale := time.Now().Add(-2 * time.Hour)
	run := &model.TestRun{
		CustomerID: 1, SuiteID: 1,
		Status:    constants.RunStatusRunning,
		StartedAt: &stale,
	}
	require.NoError(t, f.runRepo.Create(run))

	fresh := time.Now().Add(-time.Minute)
	active := &model.TestRun{
		CustomerID: 1, SuiteID: 1,
		Status:    constants.RunStatusRunning,
		StartedAt: &fresh,
	}
	require.NoError(t, f.runRepo.Create(active))

	marked, err := f.svc.MarkStuckRuns(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	updated, err := f.runRepo.FindByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusError, updated.Status)
	require.NotNil(t, updated.ErrorMessage)
	assert.Contains(t, *updated.ErrorMessage, "卡死")

	untouched, err := f.runRepo.FindByID(active.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusRunning, untouched.Status)
}

func seedStuckCIRun(f *runFixture, build int) *model.TestRun {
	stale := time.Now().Add(-2 * time.Hour)
	run := &model.TestRun{
		CustomerID:    1,
		SuiteID:       1,
		RunnerType:    constants.RunnerTypeCI,
		Status:        constants.RunStatusRunning,
		StartedAt:     &stale,
		CIBuildNumber: &build,
	}
	_ = f.runRepo.Create(run)
	return run
}

func TestMarkStuckRunsConsoleRecovery(t *testing.T) {
	t.Run("构建日志找回统计", func(t *testing.T) {
		f := newRunFixture()
		run := seedStuckCIRun(f, 88)
		f.mock.SetConsoleStats(&runner.ConsoleStats{Total: 5, Passed: 4, Failed: 1})

		marked, err := f.svc.MarkStuckRuns(time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 1, marked)

		recovered, err := f.runRepo.FindByID(run.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.RunStatusFailed, recovered.Status)
		assert.Equal(t, 5, recovered.TotalTests)
		assert.Equal(t, 4, recovered.PassedTests)
		assert.Equal(t, 1, recovered.FailedTests)
		assert.InDelta(t, 80, recovered.PassRate, 0.001)
		assert.NotNil(t, recovered.FinishedAt)
	})

	t.Run("全部通过", func(t *testing.T) {
		f := newRunFixture()
		run := seedStuckCIRun(f, 89)
		f.mock.SetConsoleStats(&runner.ConsoleStats{Total: 3, Passed: 3, Failed: 0})

		_, err := f.svc.MarkStuckRuns(time.Hour)
		require.NoError(t, err)

		recovered, err := f.runRepo.FindByID(run.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.RunStatusPassed, recovered.Status)
	})

	t.Run("日志无统计则按卡死处理", func(t *testing.T) {
		f := newRunFixture()
		run := seedStuckCIRun(f, 90)

		marked, err := f.svc.MarkStuckRuns(time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 1, marked)

		failed, err := f.runRepo.FindByID(run.ID)
		require.NoError(t, err)
		assert.Equal(t, constants.RunStatusError, failed.Status)
		require.NotNil(t, failed.ErrorMessage)
		assert.Contains(t, *failed.ErrorMessage, "卡死")
	})
}
