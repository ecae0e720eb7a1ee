package handler

import (
	"github.com/gin-gonic/gin"

	"qa-platform/internal/dto"
	"qa-platform/internal/service"
	"qa-platform/pkg/utils"
)

type CaseHandler struct {
	caseService     service.TestCaseService
	generateService service.GenerateService
}

func NewCaseHandler(caseService service.TestCaseService, generateService service.GenerateService) *CaseHandler {
	return &CaseHandler{
		caseService:     caseService,
		generateService: generateService,
	}
}

// GetByID 获取测试用例详情
// @Summary 获取测试用例详情
// @Tags 测试用例
// @Produce json
// @Param id path int true "用例ID"
// @Success 200 {object} utils.Response{data=dto.TestCaseResponse}
// @Router /api/v1/cases/{id} [get]
func (h *CaseHandler) GetByID(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.caseService.GetByID(param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// List 获取测试用例列表
// @Summary 获取测试用例列表
// @Tags 测试用例
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param customer_id query int false "客户ID"
// @Param module query string false "模块"
// @Param keyword query string false "关键字"
// @Success 200 {object} utils.PageResponse{data=[]dto.TestCaseResponse}
// @Router /api/v1/cases [get]
func (h *CaseHandler) List(c *gin.Context) {
	var query dto.TestCaseListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	data, total, err := h.caseService.List(&query)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.PageSuccess(c, data, total, query.GetPage(), query.GetPageSize())
}

// Update 更新测试用例
// @Summary 更新测试用例
// @Tags 测试用例
// @Accept json
// @Produce json
// @Param request body dto.UpdateTestCaseRequest true "更新用例请求"
// @Success 200 {object} utils.Response{data=dto.TestCaseResponse}
// @Router /api/v1/cases [put]
func (h *CaseHandler) Update(c *gin.Context) {
	var req dto.UpdateTestCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.caseService.Update(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// Delete 删除测试用例
// @Summary 删除测试用例
// @Tags 测试用例
// @Produce json
// @Param id path int true "用例ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/cases/{id} [delete]
func (h *CaseHandler) Delete(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.caseService.Delete(param.ID); err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, nil)
}

// Improve AI优化测试用例
// @Summary 基于反馈AI优化测试用例
// @Tags 测试用例
// @Accept json
// @Produce json
// @Param id path int true "用例ID"
// @Param request body dto.ImproveTestCaseRequest true "优化请求"
// @Success 200 {object} utils.Response{data=dto.TestCaseResponse}
// @Router /api/v1/cases/{id}/improve [post]
func (h *CaseHandler) Improve(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	var req dto.ImproveTestCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.generateService.ImproveCase(c.Request.Context(), param.ID, &req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}
