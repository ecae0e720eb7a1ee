package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"qa-platform/internal/adapter/ai"
	"qa-platform/internal/analyzer"
	"qa-platform/internal/dto"
	"qa-platform/internal/generator"
	"qa-platform/internal/model"
	"qa-platform/internal/pkg/config"
	"qa-platform/internal/pkg/logger"
	"qa-platform/internal/repository"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

// GenerateService AI测试生成服务接口
// 生成是纯追加操作: 既有用例不会被覆盖, 重名草稿直接丢弃
type GenerateService interface {
	// GenerateFromScan 基于扫描分析结果生成用例
	GenerateFromScan(ctx context.Context, scanID int64, req *dto.GenerateFromScanRequest) (*dto.GenerationResultResponse, error)
	// GenerateFromSpec 基于自然语言规格生成用例
	GenerateFromSpec(ctx context.Context, specID int64) (*dto.GenerationResultResponse, error)
	// ImproveCase 将失败用例连同错误信息送回AI修复
	ImproveCase(ctx context.Context, caseID int64, req *dto.ImproveTestCaseRequest) (*dto.TestCaseResponse, error)
}

type generateService struct {
	aiClient     ai.Client
	scanRepo     repository.ScanRepository
	analysisRepo repository.AnalysisRepository
	specRepo     repository.SpecRepository
	caseRepo     repository.TestCaseRepository
	suiteRepo    repository.SuiteRepository
	promptBudget int

	// 同一目标对象同时只允许一次生成
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewGenerateService 创建AI测试生成服务实例
func NewGenerateService(
	aiClient ai.Client,
	scanRepo repository.ScanRepository,
	analysisRepo repository.AnalysisRepository,
	specRepo repository.SpecRepository,
	caseRepo repository.TestCaseRepository,
	suiteRepo repository.SuiteRepository,
	cfg *config.CoreConfig,
) GenerateService {
	promptBudget := 0
	if cfg != nil {
		promptBudget = cfg.PromptBudget
	}
	return &generateService{
		aiClient:     aiClient,
		scanRepo:     scanRepo,
		analysisRepo: analysisRepo,
		specRepo:     specRepo,
		caseRepo:     caseRepo,
		suiteRepo:    suiteRepo,
		promptBudget: promptBudget,
		inFlight:     make(map[string]struct{}),
	}
}

// GenerateFromScan 基于扫描分析结果生成用例
// 每条分析记录对应一次AI调用, 生成的用例挂到指定或自动创建的套件
func (s *generateService) GenerateFromScan(ctx context.Context, scanID int64, req *dto.GenerateFromScanRequest) (*dto.GenerationResultResponse, error) {
	key := fmt.Sprintf("scan:%d", scanID)
	if !s.tryAcquire(key) {
		return nil, pkgErrors.ErrGenerationInFlight
	}
	defer s.release(key)

	scan, err := s.scanRepo.FindByID(scanID)
	if err != nil {
		return nil, err
	}
	switch scan.Status {
	case constants.ScanStatusAnalyzed, constants.ScanStatusDone:
	default:
		return nil, pkgErrors.Wrap(pkgErrors.CodeStateConflict,
			fmt.Sprintf("扫描处于 %s 状态, 无法生成用例", constants.ScanStatusToString(scan.Status)),
			pkgErrors.ErrInvalidTransition)
	}

	analyses, err := s.resolveAnalyses(scanID, req.AnalysisIDs)
	if err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "扫描下没有可用的分析结果")
	}

	suite, err := s.resolveSuite(scan, req.SuiteID)
	if err != nil {
		return nil, err
	}

	if err := s.scanRepo.UpdateStatus(scanID, constants.ScanStatusGenerating); err != nil {
		return nil, err
	}

	opts := generator.Options{
		IncludeCRUD:       scan.IncludeCRUDTests,
		IncludeValidation: scan.IncludeValidationTests,
		IncludeWorkflow:   scan.IncludeWorkflowTests,
		IncludeSecurity:   scan.IncludeSecurityTests,
		IncludeNegative:   scan.IncludeNegativeTests,
		MaxTests:          scan.MaxTestsPerModel,
	}

	result := &dto.GenerationResultResponse{SuiteID: &suite.ID}
	for _, analysis := range analyses {
		var facts analyzer.ModelFacts
		if err := json.Unmarshal(analysis.Facts, &facts); err != nil {
			s.markScanError(scanID, fmt.Sprintf("分析记录 %d 载荷损坏: %s", analysis.ID, err.Error()))
			return nil, pkgErrors.Wrap(pkgErrors.CodeGenerationError, "分析载荷反序列化失败", err)
		}

		genCtx := generator.Context{
			ModuleName:   moduleName(analysis),
			Model:        &facts,
			Options:      opts,
			PromptBudget: s.promptBudget,
		}
		drafts, err := s.generate(ctx, genCtx)
		if err != nil {
			s.markScanError(scanID, fmt.Sprintf("模型 %s 用例生成失败: %s", analysis.ModelName, err.Error()))
			return nil, err
		}

		created, skipped, err := s.persistDrafts(drafts, func(tc *model.TestCase) {
			tc.CustomerID = scan.CustomerID
			tc.GenerationSource = constants.GenSourceCodeScan
			tc.ScanID = &scan.ID
			tc.AnalysisID = &analysis.ID
			tc.SuiteID = &suite.ID
		})
		if err != nil {
			return nil, err
		}
		if len(created) > 0 {
			if err := s.analysisRepo.IncrTestCount(analysis.ID, len(created)); err != nil {
				return nil, err
			}
		}
		result.GeneratedIDs = append(result.GeneratedIDs, created...)
		result.SkippedNames = append(result.SkippedNames, skipped...)
	}

	if err := s.scanRepo.UpdateStatus(scanID, constants.ScanStatusDone); err != nil {
		return nil, err
	}
	logger.Info("扫描用例生成完成",
		zap.Int64("scan_id", scanID),
		zap.Int("generated", len(result.GeneratedIDs)),
		zap.Int("skipped", len(result.SkippedNames)))
	return result, nil
}

// GenerateFromSpec 基于自然语言规格生成用例
func (s *generateService) GenerateFromSpec(ctx context.Context, specID int64) (*dto.GenerationResultResponse, error) {
	key := fmt.Sprintf("spec:%d", specID)
	if !s.tryAcquire(key) {
		return nil, pkgErrors.ErrGenerationInFlight
	}
	defer s.release(key)

	spec, err := s.specRepo.FindByID(specID)
	if err != nil {
		return nil, err
	}

	genCtx := generator.Context{
		SpecName:        spec.Name,
		Specification:   spec.Description,
		Preconditions:   spec.Preconditions,
		ExpectedResults: spec.ExpectedResults,
		ModuleName:      spec.Module,
		Options:         generator.DefaultOptions(),
		PromptBudget:    s.promptBudget,
	}
	drafts, err := s.generate(ctx, genCtx)
	if err != nil {
		return nil, err
	}

	created, skipped, err := s.persistDrafts(drafts, func(tc *model.TestCase) {
		tc.CustomerID = spec.CustomerID
		tc.GenerationSource = constants.GenSourceSpec
		tc.SpecID = &spec.ID
		tc.SuiteID = spec.SuiteID
	})
	if err != nil {
		return nil, err
	}

	logger.Info("规格用例生成完成",
		zap.Int64("spec_id", specID),
		zap.Int("generated", len(created)),
		zap.Int("skipped", len(skipped)))
	return &dto.GenerationResultResponse{
		SuiteID:      spec.SuiteID,
		GeneratedIDs: created,
		SkippedNames: skipped,
	}, nil
}

// ImproveCase 将失败用例连同错误信息送回AI修复, 原地更新Robot脚本
func (s *generateService) ImproveCase(ctx context.Context, caseID int64, req *dto.ImproveTestCaseRequest) (*dto.TestCaseResponse, error) {
	key := fmt.Sprintf("case:%d", caseID)
	if !s.tryAcquire(key) {
		return nil, pkgErrors.ErrGenerationInFlight
	}
	defer s.release(key)

	testCase, err := s.caseRepo.FindByID(caseID, repository.WithPreload("Steps"))
	if err != nil {
		return nil, err
	}
	if testCase.RobotCode == "" {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "用例没有可修复的Robot脚本")
	}

	prompt := generator.BuildImprovePrompt(testCase.Name, testCase.RobotCode, req.ErrorMessage)
	response, err := s.aiClient.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	code := stripRobotFence(response)
	if code == "" {
		return nil, pkgErrors.New(pkgErrors.CodeParseError, "AI修复响应为空")
	}

	testCase.RobotCode = code
	if err := s.caseRepo.Update(testCase); err != nil {
		return nil, err
	}
	logger.Info("用例AI修复完成", zap.Int64("case_id", caseID))
	return toTestCaseResponse(testCase, true), nil
}

// generate 调一次AI并解析草稿, 解析失败即整体失败
func (s *generateService) generate(ctx context.Context, genCtx generator.Context) ([]generator.DraftCase, error) {
	prompt := generator.BuildPrompt(genCtx)
	response, err := s.aiClient.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	drafts, err := generator.ParseDraft(response)
	if err != nil {
		return nil, err
	}
	return generator.ApplyCaps(drafts, genCtx.Options), nil
}

// persistDrafts 草稿落库: 重名用例跳过, 其余连同步骤批量写入
func (s *generateService) persistDrafts(drafts []generator.DraftCase, decorate func(*model.TestCase)) ([]int64, []string, error) {
	if len(drafts) == 0 {
		return nil, nil, nil
	}

	probe := &model.TestCase{}
	decorate(probe)

	names := make([]string, 0, len(drafts))
	for _, d := range drafts {
		names = append(names, d.Name)
	}
	existing, err := s.caseRepo.ExistingNames(probe.CustomerID, names)
	if err != nil {
		return nil, nil, err
	}

	var skipped []string
	seen := make(map[string]bool, len(drafts))
	cases := make([]*model.TestCase, 0, len(drafts))
	for _, d := range drafts {
		if _, ok := existing[d.Name]; ok || seen[d.Name] {
			skipped = append(skipped, d.Name)
			continue
		}
		seen[d.Name] = true

		tc := &model.TestCase{
			TestID:        d.TestID,
			Name:          d.Name,
			Category:      d.Category,
			Tags:          model.StringList(d.TagList()),
			Documentation: d.Description,
			RobotCode:     d.RobotCode,
		}
		decorate(tc)
		for i, step := range d.Steps {
			tc.Steps = append(tc.Steps, model.TestStep{
				Sequence:       i + 1,
				Name:           step.Name,
				Action:         step.Action,
				ExpectedResult: step.Expected,
			})
		}
		cases = append(cases, tc)
	}

	if err := s.caseRepo.CreateBatch(cases); err != nil {
		return nil, nil, err
	}

	ids := make([]int64, 0, len(cases))
	for _, tc := range cases {
		ids = append(ids, tc.ID)
	}
	return ids, skipped, nil
}

// resolveAnalyses 解析待生成的分析记录集合, 废弃记录不参与生成
func (s *generateService) resolveAnalyses(scanID int64, analysisIDs []int64) ([]*model.ModuleAnalysis, error) {
	if len(analysisIDs) == 0 {
		return s.analysisRepo.ListByScanID(scanID)
	}

	analyses := make([]*model.ModuleAnalysis, 0, len(analysisIDs))
	for _, id := range analysisIDs {
		analysis, err := s.analysisRepo.FindByID(id)
		if err != nil {
			return nil, err
		}
		if analysis.Superseded {
			return nil, pkgErrors.New(pkgErrors.CodeBadRequest,
				fmt.Sprintf("分析记录 %d 已废弃, 请先重新分析", id))
		}
		if analysis.Module == nil || analysis.Module.ScanID != scanID {
			return nil, pkgErrors.New(pkgErrors.CodeBadRequest,
				fmt.Sprintf("分析记录 %d 不属于该扫描", id))
		}
		analyses = append(analyses, analysis)
	}
	return analyses, nil
}

// resolveSuite 确定生成用例归属的套件, 未指定时以扫描为单位自动建套件
func (s *generateService) resolveSuite(scan *model.CodeScan, suiteID *int64) (*model.TestSuite, error) {
	if suiteID != nil {
		suite, err := s.suiteRepo.FindByID(*suiteID)
		if err != nil {
			return nil, err
		}
		if suite.CustomerID != scan.CustomerID {
			return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "套件与扫描不属于同一客户")
		}
		return suite, nil
	}

	suite := &model.TestSuite{
		CustomerID: scan.CustomerID,
		Name:       fmt.Sprintf("%s - 生成套件", scan.Name),
		ScanID:     &scan.ID,
		RunnerType: constants.RunnerTypeLocal,
	}
	suite.Status = constants.StatusEnabled
	if err := s.suiteRepo.Create(suite); err != nil {
		return nil, err
	}
	return suite, nil
}

func (s *generateService) markScanError(scanID int64, message string) {
	scan, err := s.scanRepo.FindByID(scanID)
	if err != nil {
		return
	}
	scan.Status = constants.ScanStatusError
	scan.ErrorMessage = &message
	if err := s.scanRepo.Update(scan); err != nil {
		logger.Error("更新扫描错误状态失败", zap.Int64("scan_id", scanID), zap.Error(err))
	}
}

func (s *generateService) tryAcquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *generateService) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, key)
}

func moduleName(analysis *model.ModuleAnalysis) string {
	if analysis.Module != nil {
		return analysis.Module.TechnicalName
	}
	return ""
}

// stripRobotFence 剥离AI响应外层的代码围栏
func stripRobotFence(response string) string {
	s := strings.TrimSpace(response)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```robot")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
