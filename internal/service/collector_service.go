package service

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"qa-platform/internal/adapter/runner"
	"qa-platform/internal/dto"
	"qa-platform/internal/model"
	"qa-platform/internal/pkg/logger"
	"qa-platform/internal/repository"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

// CollectorService 结果收集服务接口
// 所有聚合统计只从结果明细重算, 不信任上报方给出的汇总数字
type CollectorService interface {
	// IngestReport 外部CI回调上报结果, (run_id, case_name) 幂等覆盖
	IngestReport(req *dto.IngestReportRequest) (*dto.RunResponse, error)
	// CompleteRun 本地/SSH执行完成后写入解析出的报告
	CompleteRun(runID int64, report *runner.Report) error
	// FailRun 执行在产出结果前失败, 运行落为 error
	FailRun(runID int64, message string) error
	// CancelRun 将进行中的运行落为 cancelled, 终态运行返回 ErrRunNotCancellable
	CancelRun(runID int64) (*model.TestRun, error)
	// RecoverStats 回调丢失后以CI控制台汇总统计兜底完结运行
	RecoverStats(runID int64, stats *runner.ConsoleStats) error
}

type collectorService struct {
	runRepo        repository.RunRepository
	resultRepo     repository.ResultRepository
	caseRepo       repository.TestCaseRepository
	regressionRepo repository.RegressionRepository

	// 同一运行的结果写入串行化
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewCollectorService 创建结果收集服务实例
func NewCollectorService(
	runRepo repository.RunRepository,
	resultRepo repository.ResultRepository,
	caseRepo repository.TestCaseRepository,
	regressionRepo repository.RegressionRepository,
) CollectorService {
	return &collectorService{
		runRepo:        runRepo,
		resultRepo:     resultRepo,
		caseRepo:       caseRepo,
		regressionRepo: regressionRepo,
		locks:          make(map[int64]*sync.Mutex),
	}
}

// resultInput 归一化后的单条上报结果
type resultInput struct {
	Name       string
	Status     string
	Duration   float64
	Message    string
	Log        string
	Screenshot string
}

// IngestReport 外部回调上报结果
// run_id 缺省时按 ci_build_number 关联最近一次运行; 取消后的迟到回调只补结果不改状态
func (s *collectorService) IngestReport(req *dto.IngestReportRequest) (*dto.RunResponse, error) {
	run, err := s.resolveRun(req)
	if err != nil {
		return nil, err
	}

	lock := s.runLock(run.ID)
	lock.Lock()
	defer lock.Unlock()

	// 加锁后重读, 避免并发回调覆盖
	run, err = s.runRepo.FindByID(run.ID)
	if err != nil {
		return nil, err
	}

	if req.CIBuildURL != "" {
		run.CIBuildURL = req.CIBuildURL
	}

	items := make([]resultInput, 0, len(req.Results))
	for _, item := range req.Results {
		items = append(items, resultInput{
			Name:       item.Name,
			Status:     item.Status,
			Duration:   item.Duration,
			Message:    item.Message,
			Log:        item.Log,
			Screenshot: item.Screenshot,
		})
	}

	if err := s.writeResults(run, items); err != nil {
		return nil, err
	}
	if err := s.finalize(run, nil); err != nil {
		return nil, err
	}

	logger.Info("回调结果入库完成",
		zap.Int64("run_id", run.ID),
		zap.Int("results", len(items)),
		zap.String("status", constants.RunStatusToString(run.Status)))
	return toRunResponse(run), nil
}

// CompleteRun 写入本地/SSH执行报告并完结运行
func (s *collectorService) CompleteRun(runID int64, report *runner.Report) error {
	lock := s.runLock(runID)
	lock.Lock()
	defer lock.Unlock()

	run, err := s.runRepo.FindByID(runID)
	if err != nil {
		return err
	}

	items := make([]resultInput, 0, len(report.Results))
	for _, res := range report.Results {
		items = append(items, resultInput{
			Name:       res.Name,
			Status:     res.Status,
			Duration:   res.Duration,
			Message:    res.Message,
			Log:        res.LogRef,
			Screenshot: res.ScreenshotRef,
		})
	}

	if err := s.writeResults(run, items); err != nil {
		return err
	}
	return s.finalize(run, &report.FinishedAt)
}

// FailRun 执行失败, 无结果可写
func (s *collectorService) FailRun(runID int64, message string) error {
	lock := s.runLock(runID)
	lock.Lock()
	defer lock.Unlock()

	run, err := s.runRepo.FindByID(runID)
	if err != nil {
		return err
	}
	if constants.RunStatusTerminal(run.Status) {
		return nil
	}

	now := time.Now()
	run.Status = constants.RunStatusError
	run.ErrorMessage = &message
	run.FinishedAt = &now
	if run.StartedAt != nil {
		run.Duration = now.Sub(*run.StartedAt).Seconds()
	}
	if err := s.runRepo.Update(run); err != nil {
		return err
	}

	logger.Warn("运行执行失败", zap.Int64("run_id", runID), zap.String("message", message))
	s.updateRegressionStats(run)
	return nil
}

// CancelRun 在运行锁内写入取消状态, 与结果完结互斥
func (s *collectorService) CancelRun(runID int64) (*model.TestRun, error) {
	lock := s.runLock(runID)
	lock.Lock()
	defer lock.Unlock()

	run, err := s.runRepo.FindByID(runID)
	if err != nil {
		return nil, err
	}
	if constants.RunStatusTerminal(run.Status) {
		return nil, pkgErrors.ErrRunNotCancellable
	}

	now := time.Now()
	run.Status = constants.RunStatusCancelled
	run.FinishedAt = &now
	if run.StartedAt != nil {
		run.Duration = now.Sub(*run.StartedAt).Seconds()
	}
	if err := s.runRepo.Update(run); err != nil {
		return nil, err
	}
	return run, nil
}

// RecoverStats 控制台日志只有汇总数字, 不产生结果明细
func (s *collectorService) RecoverStats(runID int64, stats *runner.ConsoleStats) error {
	lock := s.runLock(runID)
	lock.Lock()
	defer lock.Unlock()

	run, err := s.runRepo.FindByID(runID)
	if err != nil {
		return err
	}
	if constants.RunStatusTerminal(run.Status) {
		return nil
	}

	run.TotalTests = stats.Total
	run.PassedTests = stats.Passed
	run.FailedTests = stats.Failed
	run.PassRate = passRate(stats.Passed, stats.Total)
	switch {
	case stats.Total == 0:
		run.Status = constants.RunStatusError
		run.ErrorMessage = strPtr("控制台统计中不包含任何结果")
	case stats.Failed == 0:
		run.Status = constants.RunStatusPassed
	default:
		run.Status = constants.RunStatusFailed
	}

	now := time.Now()
	run.FinishedAt = &now
	if run.StartedAt != nil {
		run.Duration = now.Sub(*run.StartedAt).Seconds()
	}
	if err := s.runRepo.Update(run); err != nil {
		return err
	}

	logger.Info("以控制台统计兜底完结运行",
		zap.Int64("run_id", runID),
		zap.Int("total", stats.Total),
		zap.Int("failed", stats.Failed))
	s.updateRegressionStats(run)
	return nil
}

// writeResults 结果明细落库: 按用例名回填用例ID, 无对应用例的标记孤儿
func (s *collectorService) writeResults(run *model.TestRun, items []resultInput) error {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	caseIDs, err := s.caseRepo.ExistingNames(run.CustomerID, names)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, item := range items {
		result := &model.TestResult{
			RunID:         run.ID,
			CaseName:      item.Name,
			Status:        item.Status,
			Duration:      item.Duration,
			Message:       item.Message,
			LogRef:        item.Log,
			ScreenshotRef: item.Screenshot,
		}
		if caseID, ok := caseIDs[item.Name]; ok {
			result.TestCaseID = &caseID
		} else {
			result.Orphan = true
		}
		if err := s.resultRepo.Upsert(result); err != nil {
			return err
		}

		// 最近执行结果快照
		if result.TestCaseID != nil {
			if err := s.caseRepo.UpdateLastStatus(*result.TestCaseID, item.Status, now); err != nil {
				logger.Warn("更新用例最近状态失败",
					zap.Int64("case_id", *result.TestCaseID), zap.Error(err))
			}
		}
	}
	return nil
}

// finalize 从结果明细重算聚合并推进运行状态
// 已取消的运行保持 cancelled, 只更新统计数字
func (s *collectorService) finalize(run *model.TestRun, finishedAt *time.Time) error {
	results, err := s.resultRepo.ListByRunID(run.ID)
	if err != nil {
		return err
	}

	total, passed, failed, errored, skipped := tallyResults(results)
	run.TotalTests = total
	run.PassedTests = passed
	run.FailedTests = failed
	run.ErrorTests = errored
	run.SkippedTests = skipped
	run.PassRate = passRate(passed, total)

	if !constants.RunStatusTerminal(run.Status) {
		switch {
		case total == 0:
			run.Status = constants.RunStatusError
			run.ErrorMessage = strPtr("上报中不包含任何结果")
		case failed == 0 && errored == 0:
			run.Status = constants.RunStatusPassed
		default:
			run.Status = constants.RunStatusFailed
		}

		end := time.Now()
		if finishedAt != nil && !finishedAt.IsZero() {
			end = *finishedAt
		}
		run.FinishedAt = &end
		if run.StartedAt != nil {
			run.Duration = end.Sub(*run.StartedAt).Seconds()
		}
	}

	if err := s.runRepo.Update(run); err != nil {
		return err
	}
	s.updateRegressionStats(run)
	return nil
}

// updateRegressionStats 运行完结后刷新关联回归套件的统计
func (s *collectorService) updateRegressionStats(run *model.TestRun) {
	reg, err := s.regressionRepo.FindBySuiteID(run.SuiteID)
	if err != nil {
		if !pkgErrors.Is(err, pkgErrors.ErrRecordNotFound) {
			logger.Warn("查询回归套件失败", zap.Int64("suite_id", run.SuiteID), zap.Error(err))
		}
		return
	}

	result := constants.RunResultFailed
	if run.Status == constants.RunStatusPassed {
		result = constants.RunResultPassed
	}

	rate, err := s.rollingPassRate(run.SuiteID)
	if err != nil {
		logger.Warn("计算回归通过率失败", zap.Int64("suite_id", run.SuiteID), zap.Error(err))
		return
	}

	runDate := time.Now()
	if run.FinishedAt != nil {
		runDate = *run.FinishedAt
	}
	if err := s.regressionRepo.UpdateRunStats(reg.ID, runDate, result, rate); err != nil {
		logger.Warn("更新回归统计失败", zap.Int64("regression_id", reg.ID), zap.Error(err))
	}
}

// rollingPassRate 最近 PassRateWindow 次完结运行中通过运行的占比
func (s *collectorService) rollingPassRate(suiteID int64) (float64, error) {
	runs, err := s.runRepo.ListCompletedBySuite(suiteID, constants.PassRateWindow)
	if err != nil {
		return 0, err
	}
	if len(runs) == 0 {
		return 0, nil
	}
	passed := 0
	for _, r := range runs {
		if r.Status == constants.RunStatusPassed {
			passed++
		}
	}
	return math.Round(float64(passed)/float64(len(runs))*10000) / 100, nil
}

// resolveRun 定位上报归属的运行
func (s *collectorService) resolveRun(req *dto.IngestReportRequest) (*model.TestRun, error) {
	if req.RunID != nil {
		return s.runRepo.FindByID(*req.RunID)
	}
	if req.CIBuildNumber != nil {
		run, err := s.runRepo.FindByCIBuildNumber(*req.CIBuildNumber)
		if err != nil {
			if pkgErrors.Is(err, pkgErrors.ErrRecordNotFound) {
				return nil, pkgErrors.Wrap(pkgErrors.CodeIngestConflict, "构建号未关联任何运行", err)
			}
			return nil, err
		}
		return run, nil
	}
	return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "上报必须携带 run_id 或 ci_build_number")
}

func (s *collectorService) runLock(runID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[runID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[runID] = lock
	}
	return lock
}

// tallyResults 结果明细计数
func tallyResults(results []*model.TestResult) (total, passed, failed, errored, skipped int) {
	for _, res := range results {
		total++
		switch res.Status {
		case constants.ResultStatusPass:
			passed++
		case constants.ResultStatusFail:
			failed++
		case constants.ResultStatusSkip:
			skipped++
		default:
			errored++
		}
	}
	return
}

// passRate 通过率(百分比, 保留两位)
func passRate(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(passed)/float64(total)*10000) / 100
}

func toRunResponse(run *model.TestRun) *dto.RunResponse {
	resp := &dto.RunResponse{
		ID:            run.ID,
		CustomerID:    run.CustomerID,
		SuiteID:       run.SuiteID,
		ServerID:      run.ServerID,
		Status:        run.Status,
		StatusName:    constants.RunStatusToString(run.Status),
		RunnerType:    run.RunnerType,
		TriggerSource: run.TriggerSource,
		TriggeredBy:   run.TriggeredBy,
		CIBuildNumber: run.CIBuildNumber,
		CIBuildURL:    run.CIBuildURL,
		IncludeTags:   run.IncludeTags,
		ExcludeTags:   run.ExcludeTags,
		TotalTests:    run.TotalTests,
		PassedTests:   run.PassedTests,
		FailedTests:   run.FailedTests,
		ErrorTests:    run.ErrorTests,
		SkippedTests:  run.SkippedTests,
		PassRate:      run.PassRate,
		Duration:      run.Duration,
		ErrorMessage:  run.ErrorMessage,
		CreatedAt:     run.CreatedAt.Format(time.RFC3339),
	}
	if run.Suite != nil {
		resp.SuiteName = &run.Suite.Name
	}
	if run.StartedAt != nil {
		started := run.StartedAt.Format(time.RFC3339)
		resp.StartedAt = &started
	}
	if run.FinishedAt != nil {
		finished := run.FinishedAt.Format(time.RFC3339)
		resp.FinishedAt = &finished
	}
	return resp
}
