package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"qa-platform/internal/core/requirement"
	"qa-platform/internal/dto"
	"qa-platform/internal/model"
	"qa-platform/internal/pkg/logger"
	"qa-platform/internal/repository"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

// RequirementService 需求服务接口
// 生命周期经状态机推进, 验收动作带测试通过守卫
type RequirementService interface {
	Create(req *dto.CreateRequirementRequest) (*dto.RequirementResponse, error)
	Update(req *dto.UpdateRequirementRequest) (*dto.RequirementResponse, error)
	GetByID(id int64) (*dto.RequirementResponse, error)
	List(query *dto.RequirementListQuery) ([]*dto.RequirementResponse, int64, error)
	Delete(id int64) error

	// LinkCases 关联测试用例, 整体替换既有关联
	LinkCases(id int64, req *dto.LinkRequirementCasesRequest) (*dto.RequirementResponse, error)
	// Trigger 执行非验收生命周期动作
	Trigger(ctx context.Context, id int64, action string) (*dto.RequirementResponse, error)
	// Verify 验收: 全部关联用例最近结果为pass才放行
	Verify(ctx context.Context, id int64, req *dto.VerifyRequirementRequest) (*dto.RequirementResponse, error)
	// Recheck 验收后复核: 报告关联用例当前是否仍然全绿, 不回退状态
	Recheck(id int64) (*dto.RequirementRecheckResponse, error)
}

type requirementService struct {
	reqRepo      repository.RequirementRepository
	caseRepo     repository.TestCaseRepository
	resultRepo   repository.ResultRepository
	customerRepo repository.CustomerRepository
	sm           *requirement.StateMachine
}

// NewRequirementService 创建需求服务实例
func NewRequirementService(
	reqRepo repository.RequirementRepository,
	caseRepo repository.TestCaseRepository,
	resultRepo repository.ResultRepository,
	customerRepo repository.CustomerRepository,
	sm *requirement.StateMachine,
) RequirementService {
	s := &requirementService{
		reqRepo:      reqRepo,
		caseRepo:     caseRepo,
		resultRepo:   resultRepo,
		customerRepo: customerRepo,
		sm:           sm,
	}
	sm.SetGuard(constants.RequirementActionVerify, s.verifyGuard)
	return s
}

// Create 创建需求, 编码客户内唯一
func (s *requirementService) Create(req *dto.CreateRequirementRequest) (*dto.RequirementResponse, error) {
	if _, err := s.customerRepo.FindByID(req.CustomerID); err != nil {
		return nil, err
	}
	if _, err := s.reqRepo.FindByCode(req.CustomerID, req.Code); err == nil {
		return nil, pkgErrors.ErrRecordExists
	} else if !pkgErrors.Is(err, pkgErrors.ErrRecordNotFound) {
		return nil, err
	}

	r := &model.Requirement{
		CustomerID:         req.CustomerID,
		Code:               req.Code,
		Name:               req.Name,
		Category:           req.Category,
		Priority:           req.Priority,
		Description:        req.Description,
		AcceptanceCriteria: req.AcceptanceCriteria,
		Status:             constants.RequirementStatusDraft,
	}
	if r.Category == "" {
		r.Category = constants.CategoryFunctional
	}
	if r.Priority == "" {
		r.Priority = "medium"
	}

	if err := s.reqRepo.Create(r); err != nil {
		return nil, err
	}
	return toRequirementResponse(r), nil
}

// Update 更新需求基础信息, 编码与状态不在此处变更
func (s *requirementService) Update(req *dto.UpdateRequirementRequest) (*dto.RequirementResponse, error) {
	r, err := s.reqRepo.FindByID(req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		r.Name = *req.Name
	}
	if req.Category != nil {
		r.Category = *req.Category
	}
	if req.Priority != nil {
		r.Priority = *req.Priority
	}
	if req.Description != nil {
		r.Description = *req.Description
	}
	if req.AcceptanceCriteria != nil {
		r.AcceptanceCriteria = *req.AcceptanceCriteria
	}

	if err := s.reqRepo.Update(r); err != nil {
		return nil, err
	}
	return toRequirementResponse(r), nil
}

// GetByID 查询需求详情
func (s *requirementService) GetByID(id int64) (*dto.RequirementResponse, error) {
	r, err := s.reqRepo.FindByID(id, repository.WithPreload("Customer"))
	if err != nil {
		return nil, err
	}
	return toRequirementResponse(r), nil
}

// List 分页查询需求
func (s *requirementService) List(query *dto.RequirementListQuery) ([]*dto.RequirementResponse, int64, error) {
	reqs, total, err := s.reqRepo.List(query.GetPage(), query.GetPageSize(),
		query.CustomerID, query.ReqStatus, query.Priority, query.Keyword)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]*dto.RequirementResponse, 0, len(reqs))
	for _, r := range reqs {
		resp = append(resp, toRequirementResponse(r))
	}
	return resp, total, nil
}

// Delete 删除需求
func (s *requirementService) Delete(id int64) error {
	if _, err := s.reqRepo.FindByID(id); err != nil {
		return err
	}
	return s.reqRepo.Delete(id)
}

// LinkCases 关联测试用例, 整体替换既有关联
func (s *requirementService) LinkCases(id int64, req *dto.LinkRequirementCasesRequest) (*dto.RequirementResponse, error) {
	r, err := s.reqRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	cases, err := s.caseRepo.FindByIDs(req.CaseIDs)
	if err != nil {
		return nil, err
	}
	if len(cases) != len(req.CaseIDs) {
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "存在无效的用例ID")
	}
	for _, tc := range cases {
		if tc.CustomerID != r.CustomerID {
			return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "用例与需求不属于同一客户")
		}
	}

	r.TestCaseIDs = model.Int64List(req.CaseIDs)
	if err := s.reqRepo.Update(r); err != nil {
		return nil, err
	}
	return toRequirementResponse(r), nil
}

// Trigger 执行生命周期动作
func (s *requirementService) Trigger(ctx context.Context, id int64, action string) (*dto.RequirementResponse, error) {
	r, err := s.reqRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.sm.Trigger(ctx, r, action, nil); err != nil {
		return nil, err
	}
	return toRequirementResponse(r), nil
}

// Verify 验收需求
func (s *requirementService) Verify(ctx context.Context, id int64, req *dto.VerifyRequirementRequest) (*dto.RequirementResponse, error) {
	r, err := s.reqRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	err = s.sm.Trigger(ctx, r, constants.RequirementActionVerify, func(r *model.Requirement) {
		now := time.Now()
		r.VerifiedAt = &now
		r.VerifiedBy = req.VerifiedBy
	})
	if err != nil {
		return nil, err
	}

	logger.Info("需求验收通过",
		zap.Int64("requirement_id", id),
		zap.String("verified_by", req.VerifiedBy))
	return toRequirementResponse(r), nil
}

// verifyGuard 验收守卫: 必须关联用例且全部最近结果为pass
func (s *requirementService) verifyGuard(_ context.Context, _ *gorm.DB, r *model.Requirement) error {
	if len(r.TestCaseIDs) == 0 {
		return pkgErrors.Wrap(pkgErrors.CodeStateConflict, "需求未关联任何测试用例",
			pkgErrors.ErrVerificationBlocked)
	}

	latest, err := s.resultRepo.LatestByCaseIDs(r.TestCaseIDs)
	if err != nil {
		return err
	}
	for _, caseID := range r.TestCaseIDs {
		res, ok := latest[caseID]
		if !ok || res.Status != constants.ResultStatusPass {
			return pkgErrors.ErrVerificationBlocked
		}
	}
	return nil
}

// Recheck 验收后复核关联用例的当前状态
// 时点性断言: 即使不再全绿也不回退 verified 状态
func (s *requirementService) Recheck(id int64) (*dto.RequirementRecheckResponse, error) {
	r, err := s.reqRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	resp := &dto.RequirementRecheckResponse{
		RequirementID: id,
		TotalCases:    len(r.TestCaseIDs),
	}
	if len(r.TestCaseIDs) == 0 {
		return resp, nil
	}

	latest, err := s.resultRepo.LatestByCaseIDs(r.TestCaseIDs)
	if err != nil {
		return nil, err
	}
	for _, caseID := range r.TestCaseIDs {
		res, ok := latest[caseID]
		switch {
		case !ok:
			resp.NeverRunCases = append(resp.NeverRunCases, caseID)
		case res.Status == constants.ResultStatusPass:
			resp.PassingCases++
		default:
			resp.FailingCases = append(resp.FailingCases, caseID)
		}
	}
	resp.StillPassing = resp.PassingCases == resp.TotalCases
	return resp, nil
}

func toRequirementResponse(r *model.Requirement) *dto.RequirementResponse {
	resp := &dto.RequirementResponse{
		ID:                 r.ID,
		CustomerID:         r.CustomerID,
		Code:               r.Code,
		Name:               r.Name,
		Category:           r.Category,
		Priority:           r.Priority,
		Description:        r.Description,
		AcceptanceCriteria: r.AcceptanceCriteria,
		Status:             r.Status,
		StatusName:         constants.RequirementStatusToString(r.Status),
		TestCaseIDs:        r.TestCaseIDs,
		VerifiedBy:         r.VerifiedBy,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          r.UpdatedAt.Format(time.RFC3339),
	}
	if r.Customer != nil {
		resp.CustomerName = &r.Customer.Name
	}
	if r.VerifiedAt != nil {
		verified := r.VerifiedAt.Format(time.RFC3339)
		resp.VerifiedAt = &verified
	}
	return resp
}
