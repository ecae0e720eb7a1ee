package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"qa-platform/internal/adapter/gitrepo"
	"qa-platform/internal/analyzer"
	"qa-platform/internal/dto"
	"qa-platform/internal/model"
	"qa-platform/internal/pkg/crypto"
	"qa-platform/internal/pkg/logger"
	"qa-platform/internal/repository"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

// ScanService 代码扫描服务接口
// 扫描会话按 draft → scanning → scanned → analyzing → analyzed 推进,
// 任一阶段失败进入 error, error 状态允许重新扫描
type ScanService interface {
	Create(req *dto.CreateScanRequest) (*dto.ScanResponse, error)
	GetByID(id int64) (*dto.ScanResponse, error)
	List(query *dto.ScanListQuery) ([]*dto.ScanResponse, int64, error)
	Delete(id int64) error

	// Scan 拉取仓库并发现ERP模块
	Scan(ctx context.Context, id int64) (*dto.ScanResponse, error)
	ListModules(scanID int64) ([]*dto.ScannedModuleResponse, error)
	SelectModules(scanID int64, req *dto.SelectModulesRequest) error

	// Analyze 对勾选模块做静态分析
	Analyze(ctx context.Context, id int64) ([]*dto.ModuleAnalysisResponse, error)
	ListAnalyses(scanID int64) ([]*dto.ModuleAnalysisResponse, error)
}

type scanService struct {
	scanRepo     repository.ScanRepository
	analysisRepo repository.AnalysisRepository
	repoRepo     repository.GitRepositoryRepository
	customerRepo repository.CustomerRepository
	fetcher      gitrepo.Fetcher
}

// NewScanService 创建代码扫描服务实例
func NewScanService(
	scanRepo repository.ScanRepository,
	analysisRepo repository.AnalysisRepository,
	repoRepo repository.GitRepositoryRepository,
	customerRepo repository.CustomerRepository,
	fetcher gitrepo.Fetcher,
) ScanService {
	return &scanService{
		scanRepo:     scanRepo,
		analysisRepo: analysisRepo,
		repoRepo:     repoRepo,
		customerRepo: customerRepo,
		fetcher:      fetcher,
	}
}

// Create 创建扫描会话
func (s *scanService) Create(req *dto.CreateScanRequest) (*dto.ScanResponse, error) {
	if _, err := s.customerRepo.FindByID(req.CustomerID); err != nil {
		return nil, err
	}
	repo, err := s.repoRepo.FindByID(req.RepositoryID)
	if err != nil {
		return nil, err
	}

	scan := &model.CodeScan{
		Name:         req.Name,
		CustomerID:   req.CustomerID,
		RepositoryID: req.RepositoryID,
		Branch:       req.Branch,
		Status:       constants.ScanStatusDraft,

		IncludeCRUDTests:       boolOr(req.IncludeCRUDTests, true),
		IncludeValidationTests: boolOr(req.IncludeValidationTests, true),
		IncludeWorkflowTests:   boolOr(req.IncludeWorkflowTests, true),
		IncludeSecurityTests:   boolOr(req.IncludeSecurityTests, true),
		IncludeNegativeTests:   boolOr(req.IncludeNegativeTests, true),
		MaxTestsPerModel:       constants.DefaultMaxTestsPerModel,
	}
	if scan.Branch == "" {
		scan.Branch = repo.Branch
	}
	if req.MaxTestsPerModel != nil {
		scan.MaxTestsPerModel = *req.MaxTestsPerModel
	}

	if err := s.scanRepo.Create(scan); err != nil {
		return nil, err
	}
	return toScanResponse(scan), nil
}

// GetByID 查询扫描详情
func (s *scanService) GetByID(id int64) (*dto.ScanResponse, error) {
	scan, err := s.scanRepo.FindByID(id, repository.WithPreload("Repository"), repository.WithPreload("Modules"))
	if err != nil {
		return nil, err
	}
	return toScanResponse(scan), nil
}

// List 分页查询扫描列表
func (s *scanService) List(query *dto.ScanListQuery) ([]*dto.ScanResponse, int64, error) {
	scans, total, err := s.scanRepo.List(query.GetPage(), query.GetPageSize(),
		query.CustomerID, query.RepositoryID, query.ScanStatus, query.Keyword)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]*dto.ScanResponse, 0, len(scans))
	for _, scan := range scans {
		resp = append(resp, toScanResponse(scan))
	}
	return resp, total, nil
}

// Delete 删除扫描会话及其模块记录, 进行中的扫描不允许删除
func (s *scanService) Delete(id int64) error {
	scan, err := s.scanRepo.FindByID(id)
	if err != nil {
		return err
	}
	if scanInFlight(scan.Status) {
		return pkgErrors.Wrap(pkgErrors.CodeStateConflict, "扫描进行中, 无法删除", pkgErrors.ErrInvalidTransition)
	}
	if err := s.scanRepo.DeleteModules(id); err != nil {
		return err
	}
	return s.scanRepo.Delete(id)
}

// Scan 拉取仓库并发现ERP模块
// 重新扫描会清空上一次的模块发现结果
func (s *scanService) Scan(ctx context.Context, id int64) (*dto.ScanResponse, error) {
	scan, err := s.scanRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if scanInFlight(scan.Status) {
		return nil, pkgErrors.Wrap(pkgErrors.CodeStateConflict,
			fmt.Sprintf("扫描处于 %s 状态, 无法重新扫描", constants.ScanStatusToString(scan.Status)),
			pkgErrors.ErrInvalidTransition)
	}

	repo, err := s.repoRepo.FindByID(scan.RepositoryID)
	if err != nil {
		return nil, err
	}
	fetchReq, err := s.buildFetchRequest(repo, scan.Branch)
	if err != nil {
		return nil, err
	}

	if err := s.scanRepo.UpdateStatus(id, constants.ScanStatusScanning); err != nil {
		return nil, err
	}
	s.appendLog(id, "开始扫描仓库 %s (分支 %s)", repo.RepoURL, scan.Branch)

	workTree, commit, err := s.fetcher.Fetch(ctx, *fetchReq)
	if err != nil {
		s.failScan(id, "仓库拉取失败: "+err.Error())
		_ = s.repoRepo.UpdateSyncState(repo.ID, time.Now(), strPtr(err.Error()))
		return nil, err
	}
	defer s.fetcher.Cleanup(workTree)

	now := time.Now()
	_ = s.repoRepo.UpdateSyncState(repo.ID, now, nil)
	s.appendLog(id, "拉取完成, 提交 %s: %s", commit.Hash, commit.Message)

	modules, err := analyzer.DiscoverModules(workTree)
	if err != nil {
		s.failScan(id, "模块发现失败: "+err.Error())
		return nil, pkgErrors.Wrap(pkgErrors.CodeAnalysisError, "模块发现失败", err)
	}
	if repo.ModulePattern != "" {
		modules = filterModulesByPattern(modules, repo.ModulePattern)
	}

	// 重扫前清理旧的发现结果
	if err := s.scanRepo.DeleteModules(id); err != nil {
		return nil, err
	}

	records := make([]*model.ScannedModule, 0, len(modules))
	for _, m := range modules {
		records = append(records, &model.ScannedModule{
			ScanID:        id,
			TechnicalName: m.Name,
			DisplayName:   m.DisplayName,
			Version:       m.Version,
			Path:          m.Path,
			Depends:       strings.Join(m.Depends, ", "),
			ModelCount:    m.ModelCount,
			ViewCount:     m.ViewCount,
		})
	}
	if err := s.scanRepo.CreateModules(records); err != nil {
		return nil, err
	}
	s.appendLog(id, "发现 %d 个模块", len(records))

	scan.CommitHash = commit.Hash
	scan.CommitMessage = commit.Message
	scan.ScanDate = &now
	scan.Status = constants.ScanStatusScanned
	scan.ErrorMessage = nil
	if err := s.scanRepo.Update(scan); err != nil {
		return nil, err
	}

	logger.Info("仓库扫描完成",
		zap.Int64("scan_id", id),
		zap.String("commit", commit.Hash),
		zap.Int("modules", len(records)))
	return toScanResponse(scan), nil
}

// ListModules 查询扫描发现的模块
func (s *scanService) ListModules(scanID int64) ([]*dto.ScannedModuleResponse, error) {
	if _, err := s.scanRepo.FindByID(scanID); err != nil {
		return nil, err
	}
	modules, err := s.scanRepo.ListModules(scanID)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.ScannedModuleResponse, 0, len(modules))
	for _, m := range modules {
		resp = append(resp, toScannedModuleResponse(m))
	}
	return resp, nil
}

// SelectModules 设置待分析的模块集合
func (s *scanService) SelectModules(scanID int64, req *dto.SelectModulesRequest) error {
	scan, err := s.scanRepo.FindByID(scanID)
	if err != nil {
		return err
	}
	if scan.Status < constants.ScanStatusScanned || scan.Status == constants.ScanStatusError {
		return pkgErrors.Wrap(pkgErrors.CodeStateConflict, "扫描尚未完成, 无法勾选模块", pkgErrors.ErrInvalidTransition)
	}
	return s.scanRepo.SetModulesSelected(scanID, req.ModuleIDs)
}

// Analyze 对勾选的模块做静态分析
// 重分析会废弃模块的历史分析记录, 分析记录本身不可变更
func (s *scanService) Analyze(ctx context.Context, id int64) ([]*dto.ModuleAnalysisResponse, error) {
	scan, err := s.scanRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	switch scan.Status {
	case constants.ScanStatusScanned, constants.ScanStatusAnalyzed, constants.ScanStatusDone:
	default:
		return nil, pkgErrors.Wrap(pkgErrors.CodeStateConflict,
			fmt.Sprintf("扫描处于 %s 状态, 无法分析", constants.ScanStatusToString(scan.Status)),
			pkgErrors.ErrInvalidTransition)
	}

	selected, err := s.scanRepo.ListSelectedModules(id)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "未勾选任何模块")
	}

	repo, err := s.repoRepo.FindByID(scan.RepositoryID)
	if err != nil {
		return nil, err
	}
	fetchReq, err := s.buildFetchRequest(repo, scan.Branch)
	if err != nil {
		return nil, err
	}

	if err := s.scanRepo.UpdateStatus(id, constants.ScanStatusAnalyzing); err != nil {
		return nil, err
	}
	s.appendLog(id, "开始分析 %d 个模块", len(selected))

	workTree, _, err := s.fetcher.Fetch(ctx, *fetchReq)
	if err != nil {
		s.failScan(id, "仓库拉取失败: "+err.Error())
		return nil, err
	}
	defer s.fetcher.Cleanup(workTree)

	var created []*model.ModuleAnalysis
	for _, module := range selected {
		facts, err := analyzer.AnalyzeModule(gitrepo.ModulePath(workTree, module.Path), module.TechnicalName)
		if err != nil {
			s.failScan(id, fmt.Sprintf("模块 %s 分析失败: %s", module.TechnicalName, err.Error()))
			return nil, pkgErrors.Wrap(pkgErrors.CodeAnalysisError,
				fmt.Sprintf("模块 %s 分析失败", module.TechnicalName), err)
		}

		// 历史分析标记废弃, 新结果以新记录落库
		if err := s.analysisRepo.SupersedeByModuleID(module.ID); err != nil {
			return nil, err
		}
		for i := range facts.Models {
			analysis, err := buildAnalysisRecord(module.ID, &facts.Models[i], facts.Warnings)
			if err != nil {
				return nil, err
			}
			if err := s.analysisRepo.Create(analysis); err != nil {
				return nil, err
			}
			created = append(created, analysis)
		}

		module.Analyzed = true
		if err := s.scanRepo.UpdateModule(module); err != nil {
			return nil, err
		}
		s.appendLog(id, "模块 %s: %d 个模型, %d 条告警",
			module.TechnicalName, len(facts.Models), len(facts.Warnings))
	}

	if err := s.scanRepo.UpdateStatus(id, constants.ScanStatusAnalyzed); err != nil {
		return nil, err
	}
	logger.Info("模块分析完成",
		zap.Int64("scan_id", id),
		zap.Int("modules", len(selected)),
		zap.Int("models", len(created)))

	resp := make([]*dto.ModuleAnalysisResponse, 0, len(created))
	for _, a := range created {
		resp = append(resp, toAnalysisResponse(a))
	}
	return resp, nil
}

// ListAnalyses 查询扫描下全部有效分析结果
func (s *scanService) ListAnalyses(scanID int64) ([]*dto.ModuleAnalysisResponse, error) {
	if _, err := s.scanRepo.FindByID(scanID); err != nil {
		return nil, err
	}
	analyses, err := s.analysisRepo.ListByScanID(scanID)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.ModuleAnalysisResponse, 0, len(analyses))
	for _, a := range analyses {
		resp = append(resp, toAnalysisResponse(a))
	}
	return resp, nil
}

// buildFetchRequest 组装拉取请求, 解密仓库凭据
func (s *scanService) buildFetchRequest(repo *model.GitRepository, branch string) (*gitrepo.FetchRequest, error) {
	req := &gitrepo.FetchRequest{
		RepoURL:  repo.RepoURL,
		Branch:   branch,
		Provider: repo.Provider,
		AuthType: repo.AuthType,
		Username: repo.Username,
	}
	if branch == "" {
		req.Branch = repo.Branch
	}
	if repo.AuthType != constants.RepoAuthNone && repo.Credential != "" {
		credential, err := crypto.Decrypt(repo.Credential)
		if err != nil {
			return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "解密仓库凭据失败", err)
		}
		req.Credential = credential
	}
	return req, nil
}

func (s *scanService) appendLog(scanID int64, format string, args ...interface{}) {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("2006-01-02 15:04:05"), fmt.Sprintf(format, args...))
	if err := s.scanRepo.AppendLog(scanID, line); err != nil {
		logger.Warn("写入扫描日志失败", zap.Int64("scan_id", scanID), zap.Error(err))
	}
}

func (s *scanService) failScan(scanID int64, message string) {
	s.appendLog(scanID, "%s", message)
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

// scanInFlight 扫描是否处于进行中的状态
func scanInFlight(status int8) bool {
	switch status {
	case constants.ScanStatusScanning, constants.ScanStatusAnalyzing, constants.ScanStatusGenerating:
		return true
	default:
		return false
	}
}

// filterModulesByPattern 仅保留位于指定子目录下的模块
func filterModulesByPattern(modules []analyzer.ModuleInfo, pattern string) []analyzer.ModuleInfo {
	prefix := strings.Trim(pattern, "/")
	out := make([]analyzer.ModuleInfo, 0, len(modules))
	for _, m := range modules {
		if m.Path == prefix || strings.HasPrefix(m.Path, prefix+"/") {
			out = append(out, m)
		}
	}
	return out
}

// buildAnalysisRecord 将模型事实落为不可变的分析记录
func buildAnalysisRecord(moduleID int64, facts *analyzer.ModelFacts, warnings []string) (*model.ModuleAnalysis, error) {
	payload, err := json.Marshal(facts)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeAnalysisError, "序列化分析结果失败", err)
	}
	return &model.ModuleAnalysis{
		ModuleID:         moduleID,
		ModelName:        facts.Name,
		ModelDescription: facts.Description,
		InheritModel:     facts.Inherit,
		FieldCount:       len(facts.Fields),
		MethodCount:      len(facts.Methods),
		HasWorkflow:      facts.HasWorkflow(),
		HasConstraints:   facts.HasConstraints(),
		Facts:            datatypes.JSON(payload),
		Warnings:         warnings,
	}, nil
}

func toScanResponse(scan *model.CodeScan) *dto.ScanResponse {
	resp := &dto.ScanResponse{
		ID:            scan.ID,
		Name:          scan.Name,
		CustomerID:    scan.CustomerID,
		RepositoryID:  scan.RepositoryID,
		Branch:        scan.Branch,
		CommitHash:    scan.CommitHash,
		CommitMessage: scan.CommitMessage,
		Status:        scan.Status,
		StatusName:    constants.ScanStatusToString(scan.Status),
		ScanLog:       scan.ScanLog,
		ErrorMessage:  scan.ErrorMessage,
		ModuleCount:   len(scan.Modules),
		CreatedAt:     scan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     scan.UpdatedAt.Format(time.RFC3339),
	}
	if scan.Repository != nil {
		resp.RepoName = &scan.Repository.Name
	}
	if scan.ScanDate != nil {
		date := scan.ScanDate.Format(time.RFC3339)
		resp.ScanDate = &date
	}
	return resp
}

func toScannedModuleResponse(m *model.ScannedModule) *dto.ScannedModuleResponse {
	return &dto.ScannedModuleResponse{
		ID:            m.ID,
		ScanID:        m.ScanID,
		TechnicalName: m.TechnicalName,
		DisplayName:   m.DisplayName,
		Version:       m.Version,
		Path:          m.Path,
		Depends:       m.Depends,
		ModelCount:    m.ModelCount,
		ViewCount:     m.ViewCount,
		Selected:      m.Selected,
		Analyzed:      m.Analyzed,
	}
}

func toAnalysisResponse(a *model.ModuleAnalysis) *dto.ModuleAnalysisResponse {
	return &dto.ModuleAnalysisResponse{
		ID:               a.ID,
		ModuleID:         a.ModuleID,
		ModelName:        a.ModelName,
		ModelDescription: a.ModelDescription,
		InheritModel:     a.InheritModel,
		FieldCount:       a.FieldCount,
		MethodCount:      a.MethodCount,
		HasWorkflow:      a.HasWorkflow,
		HasConstraints:   a.HasConstraints,
		Superseded:       a.Superseded,
		Warnings:         a.Warnings,
		TestCount:        a.TestCount,
		CreatedAt:        a.CreatedAt.Format(time.RFC3339),
	}
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func strPtr(s string) *string {
	return &s
}
