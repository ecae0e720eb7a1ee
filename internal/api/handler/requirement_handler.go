package handler

import (
	"github.com/gin-gonic/gin"

	"qa-platform/internal/dto"
	"qa-platform/internal/service"
	"qa-platform/pkg/constants"
	"qa-platform/pkg/utils"
)

type RequirementHandler struct {
	service service.RequirementService
}

func NewRequirementHandler(service service.RequirementService) *RequirementHandler {
	return &RequirementHandler{service: service}
}

// Create 创建需求
// @Summary 创建需求
// @Tags 需求跟踪
// @Accept json
// @Produce json
// @Param request body dto.CreateRequirementRequest true "创建需求请求"
// @Success 200 {object} utils.Response{data=dto.RequirementResponse}
// @Router /api/v1/requirements [post]
func (h *RequirementHandler) Create(c *gin.Context) {
	var req dto.CreateRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.service.Create(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// Update 更新需求
// @Summary 更新需求
// @Tags 需求跟踪
// @Accept json
// @Produce json
// @Param request body dto.UpdateRequirementRequest true "更新需求请求"
// @Success 200 {object} utils.Response{data=dto.RequirementResponse}
// @Router /api/v1/requirements [put]
func (h *RequirementHandler) Update(c *gin.Context) {
	var req dto.UpdateRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.service.Update(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// GetByID 获取需求详情
// @Summary 获取需求详情
// @Tags 需求跟踪
// @Produce json
// @Param id path int true "需求ID"
// @Success 200 {object} utils.Response{data=dto.RequirementResponse}
// @Router /api/v1/requirements/{id} [get]
func (h *RequirementHandler) GetByID(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.service.GetByID(param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// List 获取需求列表
// @Summary 获取需求列表
// @Tags 需求跟踪
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param customer_id query int false "客户ID"
// @Param status query int false "状态"
// @Param keyword query string false "关键字"
// @Success 200 {object} utils.PageResponse{data=[]dto.RequirementResponse}
// @Router /api/v1/requirements [get]
func (h *RequirementHandler) List(c *gin.Context) {
	var query dto.RequirementListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	data, total, err := h.service.List(&query)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.PageSuccess(c, data, total, query.GetPage(), query.GetPageSize())
}

// Delete 删除需求
// @Summary 删除需求
// @Tags 需求跟踪
// @Produce json
// @Param id path int true "需求ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/requirements/{id} [delete]
func (h *RequirementHandler) Delete(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.service.Delete(param.ID); err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, nil)
}

// LinkCases 关联测试用例
// @Summary 关联测试用例到需求
// @Tags 需求跟踪
// @Accept json
// @Produce json
// @Param id path int true "需求ID"
// @Param request body dto.LinkRequirementCasesRequest true "关联用例请求"
// @Success 200 {object} utils.Response{data=dto.RequirementResponse}
// @Router /api/v1/requirements/{id}/cases [put]
func (h *RequirementHandler) LinkCases(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	var req dto.LinkRequirementCasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.service.LinkCases(param.ID, &req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// Approve 需求评审通过
// @Summary 需求评审通过
// @Tags 需求跟踪
// @Produce json
// @Param id path int true "需求ID"
// @Success 200 {object} utils.Response{data=dto.RequirementResponse}
// @Router /api/v1/requirements/{id}/approve [post]
func (h *RequirementHandler) Approve(c *gin.Context) {
	h.trigger(c, constants.RequirementActionApprove)
}

// Start 需求进入开发
// @Summary 需求进入开发
// @Tags 需求跟踪
// @Produce json
// @Param id path int true "需求ID"
// @Success 200 {object} utils.Response{data=dto.RequirementResponse}
// @Router /api/v1/requirements/{id}/start [post]
func (h *RequirementHandler) Start(c *gin.Context) {
	h.trigger(c, constants.RequirementActionStart)
}

// BeginTesting 需求进入测试
// @Summary 需求进入测试
// @Tags 需求跟踪
// @Produce json
// @Param id path int true "需求ID"
// @Success 200 {object} utils.Response{data=dto.RequirementResponse}
// @Router /api/v1/requirements/{id}/begin-testing [post]
func (h *RequirementHandler) BeginTesting(c *gin.Context) {
	h.trigger(c, constants.RequirementActionBeginTesting)
}

// Deploy 需求部署上线
// @Summary 需求部署上线
// @Tags 需求跟踪
// @Produce json
// @Param id path int true "需求ID"
// @Success 200 {object} utils.Response{data=dto.RequirementResponse}
// @Router /api/v1/requirements/{id}/deploy [post]
func (h *RequirementHandler) Deploy(c *gin.Context) {
	h.trigger(c, constants.RequirementActionDeploy)
}

func (h *RequirementHandler) trigger(c *gin.Context, action string) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.service.Trigger(c.Request.Context(), param.ID, action)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// Verify 需求验收
// @Summary 需求验收, 要求关联用例最近一次结果全部通过
// @Tags 需求跟踪
// @Accept json
// @Produce json
// @Param id path int true "需求ID"
// @Param request body dto.VerifyRequirementRequest true "验收请求"
// @Success 200 {object} utils.Response{data=dto.RequirementResponse}
// @Router /api/v1/requirements/{id}/verify [post]
func (h *RequirementHandler) Verify(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	var req dto.VerifyRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.service.Verify(c.Request.Context(), param.ID, &req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// Recheck 需求回归复核
// @Summary 复核已验收需求的关联用例当前是否仍然全绿
// @Tags 需求跟踪
// @Produce json
// @Param id path int true "需求ID"
// @Success 200 {object} utils.Response{data=dto.RequirementRecheckResponse}
// @Router /api/v1/requirements/{id}/recheck [get]
func (h *RequirementHandler) Recheck(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.service.Recheck(param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}
