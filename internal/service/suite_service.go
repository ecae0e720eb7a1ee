package service

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"

	"qa-platform/internal/dto"
	"qa-platform/internal/model"
	"qa-platform/internal/repository"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

// SuiteService 测试套件服务接口
type SuiteService interface {
	Create(req *dto.CreateSuiteRequest) (*dto.SuiteResponse, error)
	Update(req *dto.UpdateSuiteRequest) (*dto.SuiteResponse, error)
	GetByID(id int64) (*dto.SuiteResponse, error)
	List(query *dto.SuiteListQuery) ([]*dto.SuiteResponse, int64, error)
	Delete(id int64) error

	// AssignCases 用例改挂到套件, 用例至多归属一个套件
	AssignCases(suiteID int64, req *dto.AssignCasesRequest) error
	ListCases(suiteID int64) ([]*dto.TestCaseResponse, error)
	// Artifacts 导出套件内全部Robot脚本的zip包, 供CI拉取
	Artifacts(suiteID int64) ([]byte, string, error)
}

type suiteService struct {
	suiteRepo    repository.SuiteRepository
	caseRepo     repository.TestCaseRepository
	customerRepo repository.CustomerRepository
	serverRepo   repository.ServerRepository
}

// NewSuiteService 创建测试套件服务实例
func NewSuiteService(
	suiteRepo repository.SuiteRepository,
	caseRepo repository.TestCaseRepository,
	customerRepo repository.CustomerRepository,
	serverRepo repository.ServerRepository,
) SuiteService {
	return &suiteService{
		suiteRepo:    suiteRepo,
		caseRepo:     caseRepo,
		customerRepo: customerRepo,
		serverRepo:   serverRepo,
	}
}

// Create 创建测试套件
func (s *suiteService) Create(req *dto.CreateSuiteRequest) (*dto.SuiteResponse, error) {
	if _, err := s.customerRepo.FindByID(req.CustomerID); err != nil {
		return nil, err
	}
	if req.ServerID != nil {
		server, err := s.serverRepo.FindByID(*req.ServerID)
		if err != nil {
			return nil, err
		}
		if server.CustomerID != req.CustomerID {
			return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "环境与套件不属于同一客户")
		}
	}

	suite := &model.TestSuite{
		CustomerID:   req.CustomerID,
		Name:         req.Name,
		Description:  req.Description,
		ScheduleCron: req.ScheduleCron,
		ServerID:     req.ServerID,
		RunnerType:   req.RunnerType,
		IncludeTags:  model.StringList(req.IncludeTags),
		ExcludeTags:  model.StringList(req.ExcludeTags),
		IsDefault:    req.IsDefault,
	}
	suite.Status = constants.StatusEnabled
	if suite.RunnerType == "" {
		suite.RunnerType = constants.RunnerTypeLocal
	}

	// 默认套件每客户唯一
	if suite.IsDefault {
		if err := s.suiteRepo.ClearDefault(req.CustomerID); err != nil {
			return nil, err
		}
	}

	if err := s.suiteRepo.Create(suite); err != nil {
		return nil, err
	}
	return toSuiteResponse(suite, 0), nil
}

// Update 更新测试套件
func (s *suiteService) Update(req *dto.UpdateSuiteRequest) (*dto.SuiteResponse, error) {
	suite, err := s.suiteRepo.FindByID(req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		suite.Name = *req.Name
	}
	if req.Description != nil {
		suite.Description = req.Description
	}
	if req.ScheduleCron != nil {
		suite.ScheduleCron = *req.ScheduleCron
	}
	if req.ServerID != nil {
		server, err := s.serverRepo.FindByID(*req.ServerID)
		if err != nil {
			return nil, err
		}
		if server.CustomerID != suite.CustomerID {
			return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "环境与套件不属于同一客户")
		}
		suite.ServerID = req.ServerID
	}
	if req.RunnerType != nil {
		suite.RunnerType = *req.RunnerType
	}
	if req.IncludeTags != nil {
		suite.IncludeTags = model.StringList(*req.IncludeTags)
	}
	if req.ExcludeTags != nil {
		suite.ExcludeTags = model.StringList(*req.ExcludeTags)
	}
	if req.IsDefault != nil {
		if *req.IsDefault && !suite.IsDefault {
			if err := s.suiteRepo.ClearDefault(suite.CustomerID); err != nil {
				return nil, err
			}
		}
		suite.IsDefault = *req.IsDefault
	}
	if req.Status != nil {
		suite.Status = *req.Status
	}

	if err := s.suiteRepo.Update(suite); err != nil {
		return nil, err
	}
	count, err := s.suiteRepo.CountCases(suite.ID)
	if err != nil {
		return nil, err
	}
	return toSuiteResponse(suite, int(count)), nil
}

// GetByID 查询套件详情
func (s *suiteService) GetByID(id int64) (*dto.SuiteResponse, error) {
	suite, err := s.suiteRepo.FindByID(id, repository.WithPreload("Customer"))
	if err != nil {
		return nil, err
	}
	count, err := s.suiteRepo.CountCases(id)
	if err != nil {
		return nil, err
	}
	return toSuiteResponse(suite, int(count)), nil
}

// List 分页查询套件
func (s *suiteService) List(query *dto.SuiteListQuery) ([]*dto.SuiteResponse, int64, error) {
	suites, total, err := s.suiteRepo.List(query.GetPage(), query.GetPageSize(),
		query.CustomerID, query.Scheduled, query.Keyword, query.Status)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]*dto.SuiteResponse, 0, len(suites))
	for _, suite := range suites {
		count, err := s.suiteRepo.CountCases(suite.ID)
		if err != nil {
			return nil, 0, err
		}
		resp = append(resp, toSuiteResponse(suite, int(count)))
	}
	return resp, total, nil
}

// Delete 删除套件, 套件内用例脱挂保留
func (s *suiteService) Delete(id int64) error {
	if _, err := s.suiteRepo.FindByID(id); err != nil {
		return err
	}
	return s.suiteRepo.Delete(id)
}

// AssignCases 用例改挂到套件
func (s *suiteService) AssignCases(suiteID int64, req *dto.AssignCasesRequest) error {
	suite, err := s.suiteRepo.FindByID(suiteID)
	if err != nil {
		return err
	}

	cases, err := s.caseRepo.FindByIDs(req.CaseIDs)
	if err != nil {
		return err
	}
	if len(cases) != len(req.CaseIDs) {
		return pkgErrors.New(pkgErrors.CodeBadRequest, "存在无效的用例ID")
	}
	for _, tc := range cases {
		if tc.CustomerID != suite.CustomerID {
			return pkgErrors.New(pkgErrors.CodeBadRequest,
				fmt.Sprintf("用例 %d 与套件不属于同一客户", tc.ID))
		}
	}

	return s.caseRepo.AssignToSuite(req.CaseIDs, suiteID)
}

// ListCases 查询套件内用例, 按套件内顺序
func (s *suiteService) ListCases(suiteID int64) ([]*dto.TestCaseResponse, error) {
	if _, err := s.suiteRepo.FindByID(suiteID); err != nil {
		return nil, err
	}
	cases, err := s.caseRepo.ListBySuiteID(suiteID)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.TestCaseResponse, 0, len(cases))
	for _, tc := range cases {
		resp = append(resp, toTestCaseResponse(tc, false))
	}
	return resp, nil
}

// Artifacts 导出套件内全部Robot脚本的zip包
func (s *suiteService) Artifacts(suiteID int64) ([]byte, string, error) {
	suite, err := s.suiteRepo.FindByID(suiteID)
	if err != nil {
		return nil, "", err
	}

	cases, err := s.caseRepo.ListBySuiteID(suiteID)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	count := 0
	for _, tc := range cases {
		if tc.RobotCode == "" {
			continue
		}
		w, err := zw.Create(tc.Name + ".robot")
		if err != nil {
			return nil, "", pkgErrors.Wrap(pkgErrors.CodeInternalError, "打包套件脚本失败", err)
		}
		if _, err := w.Write([]byte(tc.RobotCode)); err != nil {
			return nil, "", pkgErrors.Wrap(pkgErrors.CodeInternalError, "打包套件脚本失败", err)
		}
		count++
	}
	if err := zw.Close(); err != nil {
		return nil, "", pkgErrors.Wrap(pkgErrors.CodeInternalError, "打包套件脚本失败", err)
	}
	if count == 0 {
		return nil, "", pkgErrors.New(pkgErrors.CodeBadRequest, "套件内没有可导出的脚本")
	}

	filename := fmt.Sprintf("suite_%d_%s.zip", suite.ID, time.Now().Format("20060102150405"))
	return buf.Bytes(), filename, nil
}

func toSuiteResponse(suite *model.TestSuite, caseCount int) *dto.SuiteResponse {
	resp := &dto.SuiteResponse{
		ID:           suite.ID,
		CustomerID:   suite.CustomerID,
		Name:         suite.Name,
		Description:  suite.Description,
		ScanID:       suite.ScanID,
		ScheduleCron: suite.ScheduleCron,
		ServerID:     suite.ServerID,
		RunnerType:   suite.RunnerType,
		IncludeTags:  suite.IncludeTags,
		ExcludeTags:  suite.ExcludeTags,
		IsDefault:    suite.IsDefault,
		CaseCount:    caseCount,
		Status:       suite.Status,
		CreatedAt:    suite.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    suite.UpdatedAt.Format(time.RFC3339),
	}
	if suite.Customer != nil {
		resp.CustomerName = &suite.Customer.Name
	}
	return resp
}
