package service

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"qa-platform/internal/dto"
	"qa-platform/internal/model"
	"qa-platform/internal/pkg/logger"
	"qa-platform/internal/regression"
	"qa-platform/internal/repository"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

// RegressionService 回归套件服务接口
// 模板实例化: 内置模板库被数据库同模块模板覆盖, 按客户替换参数
type RegressionService interface {
	Create(req *dto.CreateRegressionRequest) (*dto.RegressionResponse, error)
	Update(req *dto.UpdateRegressionRequest) (*dto.RegressionResponse, error)
	GetByID(id int64) (*dto.RegressionResponse, error)
	List(query *dto.RegressionListQuery) ([]*dto.RegressionResponse, int64, error)
	Delete(id int64) error

	// Generate 按所选模块实例化模板为测试用例, 只增不删
	Generate(id int64) (*dto.RegressionGenerateResponse, error)
	// Run 触发回归执行, 委托执行套件
	Run(ctx context.Context, id int64, req *dto.RunRegressionRequest, triggeredBy string) (*dto.RunResponse, error)
}

type regressionService struct {
	regRepo      repository.RegressionRepository
	templateRepo repository.TemplateRepository
	suiteRepo    repository.SuiteRepository
	caseRepo     repository.TestCaseRepository
	customerRepo repository.CustomerRepository
	runService   RunService
}

// NewRegressionService 创建回归套件服务实例
func NewRegressionService(
	regRepo repository.RegressionRepository,
	templateRepo repository.TemplateRepository,
	suiteRepo repository.SuiteRepository,
	caseRepo repository.TestCaseRepository,
	customerRepo repository.CustomerRepository,
	runService RunService,
) RegressionService {
	return &regressionService{
		regRepo:      regRepo,
		templateRepo: templateRepo,
		suiteRepo:    suiteRepo,
		caseRepo:     caseRepo,
		customerRepo: customerRepo,
		runService:   runService,
	}
}

// Create 创建回归套件
func (s *regressionService) Create(req *dto.CreateRegressionRequest) (*dto.RegressionResponse, error) {
	if _, err := s.customerRepo.FindByID(req.CustomerID); err != nil {
		return nil, err
	}

	reg := &model.RegressionSuite{
		CustomerID:    req.CustomerID,
		Name:          req.Name,
		Modules:       model.StringList(lo.Uniq(req.Modules)),
		LastRunResult: constants.RunResultNone,
	}
	reg.Status = constants.StatusEnabled

	if err := s.regRepo.Create(reg); err != nil {
		return nil, err
	}
	return toRegressionResponse(reg), nil
}

// Update 更新回归套件, 调整模块后需重新实例化
func (s *regressionService) Update(req *dto.UpdateRegressionRequest) (*dto.RegressionResponse, error) {
	reg, err := s.regRepo.FindByID(req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		reg.Name = *req.Name
	}
	if req.Modules != nil {
		reg.Modules = model.StringList(lo.Uniq(*req.Modules))
	}
	if req.Status != nil {
		reg.Status = *req.Status
	}

	if err := s.regRepo.Update(reg); err != nil {
		return nil, err
	}
	return toRegressionResponse(reg), nil
}

// GetByID 查询回归套件详情
func (s *regressionService) GetByID(id int64) (*dto.RegressionResponse, error) {
	reg, err := s.regRepo.FindByID(id, repository.WithPreload("Customer"))
	if err != nil {
		return nil, err
	}
	return toRegressionResponse(reg), nil
}

// List 分页查询回归套件
func (s *regressionService) List(query *dto.RegressionListQuery) ([]*dto.RegressionResponse, int64, error) {
	regs, total, err := s.regRepo.List(query.GetPage(), query.GetPageSize(),
		query.CustomerID, query.Keyword, nil)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]*dto.RegressionResponse, 0, len(regs))
	for _, reg := range regs {
		resp = append(resp, toRegressionResponse(reg))
	}
	return resp, total, nil
}

// Delete 删除回归套件, 已实例化的执行套件与用例保留
func (s *regressionService) Delete(id int64) error {
	if _, err := s.regRepo.FindByID(id); err != nil {
		return err
	}
	return s.regRepo.Delete(id)
}

// Generate 按所选模块实例化模板
// 数据库内同模块模板优先, 无覆盖时回落到内置模板库; 同名用例跳过
func (s *regressionService) Generate(id int64) (*dto.RegressionGenerateResponse, error) {
	reg, err := s.regRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.FindByID(reg.CustomerID)
	if err != nil {
		return nil, err
	}
	if len(reg.Modules) == 0 {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "回归套件未选择任何模块")
	}

	suiteID, err := s.ensureSuite(reg)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"CUSTOMER_CODE": customer.Code,
		"CUSTOMER_NAME": customer.Name,
		"ERP_VERSION":   customer.ERPVersion,
	}

	resp := &dto.RegressionGenerateResponse{
		RegressionID: reg.ID,
		SuiteID:      suiteID,
		GeneratedIDs:  []int64{},
		SkippedNames:  []string{},
		MissingModule: []string{},
	}

	var candidates []*model.TestCase
	var names []string
	seq := 0
	for _, m := range lo.Uniq(lo.Map(reg.Modules, func(m string, _ int) string {
		return regression.ModuleAlias(m)
	})) {
		templates, err := s.resolveTemplates(m)
		if err != nil {
			return nil, err
		}
		if len(templates) == 0 {
			resp.MissingModule = append(resp.MissingModule, m)
			continue
		}

		for _, tpl := range templates {
			seq++
			params["MODULE"] = m
			// 用例名带客户编码后缀, 避免跨回归套件撞名
			name := fmt.Sprintf("%s - %s", tpl.Name, customer.Code)
			candidates = append(candidates, &model.TestCase{
				CustomerID:       reg.CustomerID,
				TestID:           fmt.Sprintf("REG_%s_%03d", customer.Code, seq),
				Name:             name,
				Category:         tpl.Category,
				Tags:             model.StringList(tpl.Tags),
				Documentation:    tpl.Description,
				GenerationSource: constants.GenSourceRegression,
				RobotCode:        regression.Instantiate(tpl.RobotCode, params),
				SuiteID:          &suiteID,
			})
			names = append(names, name)
		}
	}

	if len(candidates) == 0 {
		return resp, nil
	}

	existing, err := s.caseRepo.ExistingNames(reg.CustomerID, names)
	if err != nil {
		return nil, err
	}
	fresh := make([]*model.TestCase, 0, len(candidates))
	for _, tc := range candidates {
		if _, ok := existing[tc.Name]; ok {
			resp.SkippedNames = append(resp.SkippedNames, tc.Name)
			continue
		}
		fresh = append(fresh, tc)
	}

	if len(fresh) > 0 {
		if err := s.caseRepo.CreateBatch(fresh); err != nil {
			return nil, err
		}
		for _, tc := range fresh {
			resp.GeneratedIDs = append(resp.GeneratedIDs, tc.ID)
		}
	}

	logger.Info("回归模板实例化完成",
		zap.Int64("regression_id", reg.ID),
		zap.Int64("suite_id", suiteID),
		zap.Int("generated", len(resp.GeneratedIDs)),
		zap.Int("skipped", len(resp.SkippedNames)),
		zap.Strings("missing_module", resp.MissingModule))
	return resp, nil
}

// Run 触发回归执行
func (s *regressionService) Run(ctx context.Context, id int64, req *dto.RunRegressionRequest, triggeredBy string) (*dto.RunResponse, error) {
	reg, err := s.regRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if reg.SuiteID == nil {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "回归套件尚未实例化, 请先生成用例")
	}

	runReq := &dto.RunSuiteRequest{}
	if req != nil {
		runReq.ServerID = req.ServerID
		runReq.RunnerType = req.RunnerType
	}
	return s.runService.Run(ctx, *reg.SuiteID, runReq, constants.TriggerSourceManual, triggeredBy)
}

// ensureSuite 回归套件首次实例化时创建执行套件
func (s *regressionService) ensureSuite(reg *model.RegressionSuite) (int64, error) {
	if reg.SuiteID != nil {
		if _, err := s.suiteRepo.FindByID(*reg.SuiteID); err == nil {
			return *reg.SuiteID, nil
		} else if !pkgErrors.Is(err, pkgErrors.ErrRecordNotFound) {
			return 0, err
		}
	}

	suite := &model.TestSuite{
		CustomerID: reg.CustomerID,
		Name:       fmt.Sprintf("%s - 回归套件", reg.Name),
		RunnerType: constants.RunnerTypeLocal,
	}
	suite.Status = constants.StatusEnabled
	if err := s.suiteRepo.Create(suite); err != nil {
		return 0, err
	}

	reg.SuiteID = &suite.ID
	if err := s.regRepo.Update(reg); err != nil {
		return 0, err
	}
	return suite.ID, nil
}

// resolveTemplates 数据库覆盖优先, 回落内置模板库
func (s *regressionService) resolveTemplates(module string) ([]regression.Template, error) {
	overrides, err := s.templateRepo.ListByModule(module)
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		templates := make([]regression.Template, 0, len(overrides))
		for _, tpl := range overrides {
			templates = append(templates, regression.Template{
				Module:      tpl.Module,
				Name:        tpl.Name,
				Category:    tpl.Category,
				Description: tpl.Description,
				Tags:        tpl.Tags,
				RobotCode:   tpl.RobotCode,
			})
		}
		return templates, nil
	}

	builtin, err := regression.Builtin(module)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "加载内置回归模板失败", err)
	}
	return builtin, nil
}

func toRegressionResponse(reg *model.RegressionSuite) *dto.RegressionResponse {
	resp := &dto.RegressionResponse{
		ID:            reg.ID,
		CustomerID:    reg.CustomerID,
		Name:          reg.Name,
		Modules:       reg.Modules,
		SuiteID:       reg.SuiteID,
		LastRunResult: reg.LastRunResult,
		PassRate:      reg.PassRate,
		Status:        reg.Status,
		CreatedAt:     reg.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     reg.UpdatedAt.Format(time.RFC3339),
	}
	if reg.Customer != nil {
		resp.CustomerName = &reg.Customer.Name
	}
	if reg.LastRunDate != nil {
		d := reg.LastRunDate.Format(time.RFC3339)
		resp.LastRunDate = &d
	}
	return resp
}
