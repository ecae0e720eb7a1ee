package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"qa-platform/internal/adapter/runner"
	"qa-platform/internal/dto"
	"qa-platform/internal/model"
	"qa-platform/internal/pkg/config"
	"qa-platform/internal/pkg/crypto"
	"qa-platform/internal/pkg/logger"
	"qa-platform/internal/repository"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

// RunnerProvider 按执行器类型与目标环境提供执行器
// SSH执行器绑定具体环境, 每次下发单独构建
type RunnerProvider interface {
	Provide(runnerType string, server *model.Server) (runner.Runner, error)
}

type runnerProvider struct {
	cfg *config.Config
}

// NewRunnerProvider 创建执行器工厂
func NewRunnerProvider(cfg *config.Config) RunnerProvider {
	return &runnerProvider{cfg: cfg}
}

// Provide 构建执行器实例
func (p *runnerProvider) Provide(runnerType string, server *model.Server) (runner.Runner, error) {
	timeout := config.ParseDuration(p.cfg.Runner.Timeout, 30*time.Minute)

	switch runnerType {
	case constants.RunnerTypeLocal:
		return runner.NewLocalRunner(p.cfg.Runner.RobotCommand, p.cfg.Runner.OutputDir, timeout, logger.Log), nil

	case constants.RunnerTypeSSH:
		if server == nil || server.SSHHost == "" {
			return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "SSH执行需要配置环境的SSH连接信息")
		}
		sshCfg := runner.SSHConfig{
			Host:     server.SSHHost,
			Port:     server.SSHPort,
			User:     server.SSHUser,
			WorkDir:  p.cfg.Runner.RemoteDir,
			RobotBin: p.cfg.Runner.RobotCommand,
		}
		if server.SSHCredential != "" {
			credential, err := crypto.Decrypt(server.SSHCredential)
			if err != nil {
				return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "解密SSH凭据失败", err)
			}
			if strings.Contains(credential, "PRIVATE KEY") {
				sshCfg.PrivateKey = credential
			} else {
				sshCfg.Password = credential
			}
		}
		return runner.NewSSHRunner(sshCfg, timeout, logger.Log), nil

	case constants.RunnerTypeCI:
		return runner.NewCIRunner(runner.CIConfig{
			BaseURL:  p.cfg.CI.BaseURL,
			JobName:  p.cfg.CI.JobName,
			Username: p.cfg.CI.Username,
			APIToken: p.cfg.CI.Token,
		}, logger.Log), nil

	default:
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "未知的执行器类型: "+runnerType)
	}
}

// RunService 测试执行服务接口
type RunService interface {
	// Run 下发一次套件执行
	Run(ctx context.Context, suiteID int64, req *dto.RunSuiteRequest, triggerSource, triggeredBy string) (*dto.RunResponse, error)
	GetByID(id int64) (*dto.RunResponse, error)
	List(query *dto.RunListQuery) ([]*dto.RunResponse, int64, error)
	Results(runID int64) ([]*dto.TestResultResponse, error)
	// Cancel 取消进行中的运行, 终态运行不可取消
	Cancel(ctx context.Context, runID int64) (*dto.RunResponse, error)
	Delete(id int64) error
	// MarkStuckRuns 看门狗: 将超时仍在 running 的运行落为 error
	MarkStuckRuns(timeout time.Duration) (int, error)
}

type runService struct {
	runRepo    repository.RunRepository
	resultRepo repository.ResultRepository
	suiteRepo  repository.SuiteRepository
	caseRepo   repository.TestCaseRepository
	serverRepo repository.ServerRepository
	provider   RunnerProvider
	collector  CollectorService
	cfg        *config.Config

	// 进行中的执行句柄, 用于取消
	mu         sync.Mutex
	executions map[int64]runner.Execution
}

// NewRunService 创建测试执行服务实例
func NewRunService(
	runRepo repository.RunRepository,
	resultRepo repository.ResultRepository,
	suiteRepo repository.SuiteRepository,
	caseRepo repository.TestCaseRepository,
	serverRepo repository.ServerRepository,
	provider RunnerProvider,
	collector CollectorService,
	cfg *config.Config,
) RunService {
	return &runService{
		runRepo:    runRepo,
		resultRepo: resultRepo,
		suiteRepo:  suiteRepo,
		caseRepo:   caseRepo,
		serverRepo: serverRepo,
		provider:   provider,
		collector:  collector,
		cfg:        cfg,
		executions: make(map[int64]runner.Execution),
	}
}

// Run 下发一次套件执行
// 本地/SSH执行在后台等待结果; CI执行只触发构建, 结果经回调进入
func (s *runService) Run(ctx context.Context, suiteID int64, req *dto.RunSuiteRequest, triggerSource, triggeredBy string) (*dto.RunResponse, error) {
	suite, err := s.suiteRepo.FindByID(suiteID)
	if err != nil {
		return nil, err
	}
	if suite.Status != constants.StatusEnabled {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "套件已禁用, 无法执行")
	}

	cases, err := s.caseRepo.ListBySuiteID(suiteID)
	if err != nil {
		return nil, err
	}
	artifacts := buildArtifacts(cases)
	if len(artifacts) == 0 {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "套件内没有可执行的用例")
	}

	runnerType := req.RunnerType
	if runnerType == "" {
		runnerType = suite.RunnerType
	}
	serverID := req.ServerID
	if serverID == nil {
		serverID = suite.ServerID
	}

	var server *model.Server
	variables := map[string]string{}
	if serverID != nil {
		server, err = s.serverRepo.FindByID(*serverID)
		if err != nil {
			return nil, err
		}
		variables, err = buildServerVariables(server)
		if err != nil {
			return nil, err
		}
	}

	run := &model.TestRun{
		CustomerID:    suite.CustomerID,
		SuiteID:       suite.ID,
		ServerID:      serverID,
		Status:        constants.RunStatusPending,
		RunnerType:    runnerType,
		TriggerSource: triggerSource,
		TriggeredBy:   triggeredBy,
		IncludeTags:   suite.IncludeTags,
		ExcludeTags:   suite.ExcludeTags,
	}
	if err := s.runRepo.Create(run); err != nil {
		return nil, err
	}

	request := &runner.Request{
		RunID:       run.ID,
		SuiteID:     suite.ID,
		SuiteName:   suite.Name,
		Artifacts:   artifacts,
		Variables:   variables,
		IncludeTags: suite.IncludeTags,
		ExcludeTags: suite.ExcludeTags,
		Headless:    s.cfg.Runner.Headless,
		CallbackURL: s.callbackURL(),
	}

	rn, err := s.provider.Provide(runnerType, server)
	if err != nil {
		_ = s.collector.FailRun(run.ID, err.Error())
		return nil, err
	}

	exec, err := rn.Start(ctx, request)
	if err != nil {
		_ = s.collector.FailRun(run.ID, err.Error())
		return nil, pkgErrors.Wrap(pkgErrors.CodeDispatchError, "测试执行调度失败", err)
	}

	now := time.Now()
	run.Status = constants.RunStatusRunning
	run.StartedAt = &now
	if runnerType == constants.RunnerTypeCI {
		if bn := exec.BuildNumber(); bn > 0 {
			run.CIBuildNumber = &bn
		}
		run.CIBuildURL = exec.BuildURL()
	}
	if err := s.runRepo.Update(run); err != nil {
		return nil, err
	}

	s.storeExecution(run.ID, exec)
	go s.awaitExecution(run.ID, exec)

	logger.Info("测试执行已下发",
		zap.Int64("run_id", run.ID),
		zap.Int64("suite_id", suite.ID),
		zap.String("runner", runnerType),
		zap.Int("cases", len(artifacts)))
	return toRunResponse(run), nil
}

// awaitExecution 后台等待执行完成并收集结果
func (s *runService) awaitExecution(runID int64, exec runner.Execution) {
	defer s.dropExecution(runID)

	report, err := exec.Await(context.Background())
	if err != nil {
		if errors.Is(err, runner.ErrExternalReport) {
			// 结果由外部CI回调上报
			return
		}
		if ferr := s.collector.FailRun(runID, err.Error()); ferr != nil {
			logger.Error("标记运行失败时出错", zap.Int64("run_id", runID), zap.Error(ferr))
		}
		return
	}

	if err := s.collector.CompleteRun(runID, report); err != nil {
		logger.Error("写入执行报告失败", zap.Int64("run_id", runID), zap.Error(err))
	}
}

// GetByID 查询执行详情
func (s *runService) GetByID(id int64) (*dto.RunResponse, error) {
	run, err := s.runRepo.FindByID(id, repository.WithPreload("Suite"))
	if err != nil {
		return nil, err
	}
	return toRunResponse(run), nil
}

// List 分页查询执行记录
func (s *runService) List(query *dto.RunListQuery) ([]*dto.RunResponse, int64, error) {
	runs, total, err := s.runRepo.List(query.GetPage(), query.GetPageSize(),
		query.CustomerID, query.SuiteID, query.RunStatus, query.TriggerSource, query.Keyword)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]*dto.RunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toRunResponse(run))
	}
	return resp, total, nil
}

// Results 查询执行的结果明细
func (s *runService) Results(runID int64) ([]*dto.TestResultResponse, error) {
	if _, err := s.runRepo.FindByID(runID); err != nil {
		return nil, err
	}
	results, err := s.resultRepo.ListByRunID(runID)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.TestResultResponse, 0, len(results))
	for _, res := range results {
		resp = append(resp, toTestResultResponse(res))
	}
	return resp, nil
}

// Cancel 取消运行
// 状态写入走收集器的运行锁, 与结果完结互斥; 迟到的结果回调只补明细
func (s *runService) Cancel(ctx context.Context, runID int64) (*dto.RunResponse, error) {
	run, err := s.collector.CancelRun(runID)
	if err != nil {
		return nil, err
	}

	if exec := s.execution(runID); exec != nil {
		if err := exec.Cancel(ctx); err != nil {
			logger.Warn("终止执行进程失败", zap.Int64("run_id", runID), zap.Error(err))
		}
	}

	logger.Info("测试执行已取消", zap.Int64("run_id", runID))
	return toRunResponse(run), nil
}

// Delete 删除执行记录, 进行中的不允许删除
func (s *runService) Delete(id int64) error {
	run, err := s.runRepo.FindByID(id)
	if err != nil {
		return err
	}
	if !constants.RunStatusTerminal(run.Status) {
		return pkgErrors.Wrap(pkgErrors.CodeStateConflict, "运行未结束, 无法删除", pkgErrors.ErrInvalidTransition)
	}
	return s.runRepo.Delete(id)
}

// MarkStuckRuns 看门狗: 超时仍在 running 的运行落为 error
func (s *runService) MarkStuckRuns(timeout time.Duration) (int, error) {
	threshold := time.Now().Add(-timeout)
	runs, err := s.runRepo.ListRunningBefore(threshold)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, run := range runs {
		// 回调丢失的CI运行先尝试从构建日志找回统计
		if s.recoverFromConsole(run) {
			marked++
			continue
		}
		message := fmt.Sprintf("运行超过 %s 未完结, 判定为卡死", timeout)
		if err := s.collector.FailRun(run.ID, message); err != nil {
			logger.Error("标记卡死运行失败", zap.Int64("run_id", run.ID), zap.Error(err))
			continue
		}
		marked++
	}
	if marked > 0 {
		logger.Warn("看门狗清理卡死运行", zap.Int("count", marked))
	}
	return marked, nil
}

// recoverFromConsole 从CI构建控制台日志找回汇总统计并完结运行
func (s *runService) recoverFromConsole(run *model.TestRun) bool {
	if run.RunnerType != constants.RunnerTypeCI || run.CIBuildNumber == nil {
		return false
	}

	rn, err := s.provider.Provide(constants.RunnerTypeCI, nil)
	if err != nil {
		return false
	}
	fetcher, ok := rn.(runner.ConsoleStatsFetcher)
	if !ok {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	stats, err := fetcher.FetchConsoleStats(ctx, *run.CIBuildNumber)
	if err != nil {
		logger.Warn("拉取CI控制台统计失败",
			zap.Int64("run_id", run.ID),
			zap.Int("build", *run.CIBuildNumber),
			zap.Error(err))
		return false
	}
	if err := s.collector.RecoverStats(run.ID, stats); err != nil {
		logger.Warn("控制台统计兜底失败", zap.Int64("run_id", run.ID), zap.Error(err))
		return false
	}

	logger.Info("从CI构建日志找回运行统计",
		zap.Int64("run_id", run.ID),
		zap.Int("build", *run.CIBuildNumber))
	return true
}

func (s *runService) callbackURL() string {
	base := strings.TrimRight(s.cfg.Server.ExternalURL, "/")
	if base == "" {
		return ""
	}
	return base + "/api/v1/runs/ingest"
}

func (s *runService) storeExecution(runID int64, exec runner.Execution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[runID] = exec
}

func (s *runService) dropExecution(runID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.executions, runID)
}

func (s *runService) execution(runID int64) runner.Execution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executions[runID]
}

// buildArtifacts 套件用例转为可执行产物, 无脚本的用例不参与执行
func buildArtifacts(cases []*model.TestCase) []runner.Artifact {
	artifacts := make([]runner.Artifact, 0, len(cases))
	for _, tc := range cases {
		if tc.RobotCode == "" {
			continue
		}
		artifacts = append(artifacts, runner.Artifact{
			Name:    tc.Name + ".robot",
			Content: tc.RobotCode,
		})
	}
	return artifacts
}

// buildServerVariables 目标环境注入为Robot变量, 密码解密后透传
func buildServerVariables(server *model.Server) (map[string]string, error) {
	variables := map[string]string{
		"BASE_URL": server.URL,
	}
	if server.Database != "" {
		variables["DB_NAME"] = server.Database
	}
	if server.Username != "" {
		variables["USERNAME"] = server.Username
	}
	if server.Password != "" {
		password, err := crypto.Decrypt(server.Password)
		if err != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "解密环境密码失败", err)
		}
		variables["PASSWORD"] = password
	}
	return variables, nil
}

func toTestResultResponse(res *model.TestResult) *dto.TestResultResponse {
	return &dto.TestResultResponse{
		ID:            res.ID,
		RunID:         res.RunID,
		TestCaseID:    res.TestCaseID,
		CaseName:      res.CaseName,
		Status:        res.Status,
		Duration:      res.Duration,
		Message:       res.Message,
		LogRef:        res.LogRef,
		ScreenshotRef: res.ScreenshotRef,
		Orphan:        res.Orphan,
		CreatedAt:     res.CreatedAt.Format(time.RFC3339),
	}
}
