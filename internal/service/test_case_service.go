package service

import (
	"time"

	"qa-platform/internal/dto"
	"qa-platform/internal/model"
	"qa-platform/internal/repository"
	"qa-platform/pkg/constants"
)

// SpecService 测试规格服务接口
type SpecService interface {
	Create(req *dto.CreateSpecRequest) (*dto.SpecResponse, error)
	Update(req *dto.UpdateSpecRequest) (*dto.SpecResponse, error)
	GetByID(id int64) (*dto.SpecResponse, error)
	List(query *dto.SpecListQuery) ([]*dto.SpecResponse, int64, error)
	Delete(id int64) error
}

type specService struct {
	specRepo     repository.SpecRepository
	customerRepo repository.CustomerRepository
	suiteRepo    repository.SuiteRepository
}

// NewSpecService 创建测试规格服务实例
func NewSpecService(
	specRepo repository.SpecRepository,
	customerRepo repository.CustomerRepository,
	suiteRepo repository.SuiteRepository,
) SpecService {
	return &specService{
		specRepo:     specRepo,
		customerRepo: customerRepo,
		suiteRepo:    suiteRepo,
	}
}

// Create 创建测试规格
func (s *specService) Create(req *dto.CreateSpecRequest) (*dto.SpecResponse, error) {
	if _, err := s.customerRepo.FindByID(req.CustomerID); err != nil {
		return nil, err
	}
	if req.SuiteID != nil {
		if _, err := s.suiteRepo.FindByID(*req.SuiteID); err != nil {
			return nil, err
		}
	}

	spec := &model.TestSpec{
		CustomerID:      req.CustomerID,
		Name:            req.Name,
		Module:          req.Module,
		Category:        req.Category,
		Priority:        req.Priority,
		Description:     req.Description,
		Preconditions:   req.Preconditions,
		ExpectedResults: req.ExpectedResults,
		SuiteID:         req.SuiteID,
	}
	if spec.Category == "" {
		spec.Category = constants.CategoryFunctional
	}
	if spec.Priority == "" {
		spec.Priority = "medium"
	}

	if err := s.specRepo.Create(spec); err != nil {
		return nil, err
	}
	return toSpecResponse(spec, 0), nil
}

// Update 更新测试规格
func (s *specService) Update(req *dto.UpdateSpecRequest) (*dto.SpecResponse, error) {
	spec, err := s.specRepo.FindByID(req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		spec.Name = *req.Name
	}
	if req.Module != nil {
		spec.Module = *req.Module
	}
	if req.Category != nil {
		spec.Category = *req.Category
	}
	if req.Priority != nil {
		spec.Priority = *req.Priority
	}
	if req.Description != nil {
		spec.Description = *req.Description
	}
	if req.Preconditions != nil {
		spec.Preconditions = *req.Preconditions
	}
	if req.ExpectedResults != nil {
		spec.ExpectedResults = *req.ExpectedResults
	}
	if req.SuiteID != nil {
		if _, err := s.suiteRepo.FindByID(*req.SuiteID); err != nil {
			return nil, err
		}
		spec.SuiteID = req.SuiteID
	}

	if err := s.specRepo.Update(spec); err != nil {
		return nil, err
	}
	count, err := s.specRepo.CountCases(spec.ID)
	if err != nil {
		return nil, err
	}
	return toSpecResponse(spec, int(count)), nil
}

// GetByID 查询测试规格详情
func (s *specService) GetByID(id int64) (*dto.SpecResponse, error) {
	spec, err := s.specRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	count, err := s.specRepo.CountCases(id)
	if err != nil {
		return nil, err
	}
	return toSpecResponse(spec, int(count)), nil
}

// List 分页查询测试规格
func (s *specService) List(query *dto.SpecListQuery) ([]*dto.SpecResponse, int64, error) {
	specs, total, err := s.specRepo.List(query.GetPage(), query.GetPageSize(),
		query.CustomerID, query.Module, query.Category, query.Keyword)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]*dto.SpecResponse, 0, len(specs))
	for _, spec := range specs {
		count, err := s.specRepo.CountCases(spec.ID)
		if err != nil {
			return nil, 0, err
		}
		resp = append(resp, toSpecResponse(spec, int(count)))
	}
	return resp, total, nil
}

// Delete 删除测试规格, 已生成的用例保留
func (s *specService) Delete(id int64) error {
	if _, err := s.specRepo.FindByID(id); err != nil {
		return err
	}
	return s.specRepo.Delete(id)
}

func toSpecResponse(spec *model.TestSpec, caseCount int) *dto.SpecResponse {
	return &dto.SpecResponse{
		ID:              spec.ID,
		CustomerID:      spec.CustomerID,
		Name:            spec.Name,
		Module:          spec.Module,
		Category:        spec.Category,
		Priority:        spec.Priority,
		Description:     spec.Description,
		Preconditions:   spec.Preconditions,
		ExpectedResults: spec.ExpectedResults,
		SuiteID:         spec.SuiteID,
		CaseCount:       caseCount,
		CreatedAt:       spec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       spec.UpdatedAt.Format(time.RFC3339),
	}
}

// TestCaseService 测试用例服务接口
type TestCaseService interface {
	GetByID(id int64) (*dto.TestCaseResponse, error)
	List(query *dto.TestCaseListQuery) ([]*dto.TestCaseResponse, int64, error)
	Update(req *dto.UpdateTestCaseRequest) (*dto.TestCaseResponse, error)
	Delete(id int64) error
}

type testCaseService struct {
	caseRepo  repository.TestCaseRepository
	suiteRepo repository.SuiteRepository
}

// NewTestCaseService 创建测试用例服务实例
func NewTestCaseService(caseRepo repository.TestCaseRepository, suiteRepo repository.SuiteRepository) TestCaseService {
	return &testCaseService{caseRepo: caseRepo, suiteRepo: suiteRepo}
}

// GetByID 查询用例详情(含步骤)
func (s *testCaseService) GetByID(id int64) (*dto.TestCaseResponse, error) {
	testCase, err := s.caseRepo.FindByID(id, repository.WithPreload("Steps"))
	if err != nil {
		return nil, err
	}
	return toTestCaseResponse(testCase, true), nil
}

// List 分页查询用例
func (s *testCaseService) List(query *dto.TestCaseListQuery) ([]*dto.TestCaseResponse, int64, error) {
	cases, total, err := s.caseRepo.List(query.GetPage(), query.GetPageSize(),
		query.CustomerID, query.SuiteID, query.Category, query.GenerationSource, query.LastStatus, query.Keyword)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]*dto.TestCaseResponse, 0, len(cases))
	for _, tc := range cases {
		resp = append(resp, toTestCaseResponse(tc, false))
	}
	return resp, total, nil
}

// Update 更新测试用例
func (s *testCaseService) Update(req *dto.UpdateTestCaseRequest) (*dto.TestCaseResponse, error) {
	testCase, err := s.caseRepo.FindByID(req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		testCase.Name = *req.Name
	}
	if req.Category != nil {
		testCase.Category = *req.Category
	}
	if req.Tags != nil {
		testCase.Tags = model.StringList(*req.Tags)
	}
	if req.Documentation != nil {
		testCase.Documentation = *req.Documentation
	}
	if req.RobotCode != nil {
		testCase.RobotCode = *req.RobotCode
	}
	if req.SuiteID != nil {
		if _, err := s.suiteRepo.FindByID(*req.SuiteID); err != nil {
			return nil, err
		}
		testCase.SuiteID = req.SuiteID
	}
	if req.Sequence != nil {
		testCase.Sequence = *req.Sequence
	}

	if err := s.caseRepo.Update(testCase); err != nil {
		return nil, err
	}
	return toTestCaseResponse(testCase, false), nil
}

// Delete 删除测试用例
func (s *testCaseService) Delete(id int64) error {
	if _, err := s.caseRepo.FindByID(id); err != nil {
		return err
	}
	return s.caseRepo.Delete(id)
}

func toTestCaseResponse(tc *model.TestCase, withSteps bool) *dto.TestCaseResponse {
	resp := &dto.TestCaseResponse{
		ID:               tc.ID,
		CustomerID:       tc.CustomerID,
		TestID:           tc.TestID,
		Name:             tc.Name,
		Category:         tc.Category,
		Tags:             tc.Tags,
		Documentation:    tc.Documentation,
		GenerationSource: tc.GenerationSource,
		SpecID:           tc.SpecID,
		ScanID:           tc.ScanID,
		RobotCode:        tc.RobotCode,
		SuiteID:          tc.SuiteID,
		Sequence:         tc.Sequence,
		LastStatus:       tc.LastStatus,
		CreatedAt:        tc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        tc.UpdatedAt.Format(time.RFC3339),
	}
	if tc.LastRunAt != nil {
		runAt := tc.LastRunAt.Format(time.RFC3339)
		resp.LastRunAt = &runAt
	}
	if withSteps {
		for _, step := range tc.Steps {
			resp.Steps = append(resp.Steps, dto.TestStepResponse{
				ID:             step.ID,
				Sequence:       step.Sequence,
				Name:           step.Name,
				Action:         step.Action,
				ExpectedResult: step.ExpectedResult,
			})
		}
	}
	return resp
}
