package handler

import (
	"github.com/gin-gonic/gin"

	"qa-platform/internal/dto"
	"qa-platform/internal/service"
	"qa-platform/pkg/utils"
)

type SpecHandler struct {
	specService     service.SpecService
	generateService service.GenerateService
}

func NewSpecHandler(specService service.SpecService, generateService service.GenerateService) *SpecHandler {
	return &SpecHandler{
		specService:     specService,
		generateService: generateService,
	}
}

// Create 创建需求规格
// @Summary 创建需求规格
// @Tags 需求规格
// @Accept json
// @Produce json
// @Param request body dto.CreateSpecRequest true "创建规格请求"
// @Success 200 {object} utils.Response{data=dto.SpecResponse}
// @Router /api/v1/specs [post]
func (h *SpecHandler) Create(c *gin.Context) {
	var req dto.CreateSpecRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.specService.Create(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// Update 更新需求规格
// @Summary 更新需求规格
// @Tags 需求规格
// @Accept json
// @Produce json
// @Param request body dto.UpdateSpecRequest true "更新规格请求"
// @Success 200 {object} utils.Response{data=dto.SpecResponse}
// @Router /api/v1/specs [put]
func (h *SpecHandler) Update(c *gin.Context) {
	var req dto.UpdateSpecRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.specService.Update(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// GetByID 获取需求规格详情
// @Summary 获取需求规格详情
// @Tags 需求规格
// @Produce json
// @Param id path int true "规格ID"
// @Success 200 {object} utils.Response{data=dto.SpecResponse}
// @Router /api/v1/specs/{id} [get]
func (h *SpecHandler) GetByID(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.specService.GetByID(param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// List 获取需求规格列表
// @Summary 获取需求规格列表
// @Tags 需求规格
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param customer_id query int false "客户ID"
// @Param keyword query string false "关键字"
// @Success 200 {object} utils.PageResponse{data=[]dto.SpecResponse}
// @Router /api/v1/specs [get]
func (h *SpecHandler) List(c *gin.Context) {
	var query dto.SpecListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	data, total, err := h.specService.List(&query)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.PageSuccess(c, data, total, query.GetPage(), query.GetPageSize())
}

// Delete 删除需求规格
// @Summary 删除需求规格
// @Tags 需求规格
// @Produce json
// @Param id path int true "规格ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/specs/{id} [delete]
func (h *SpecHandler) Delete(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.specService.Delete(param.ID); err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, nil)
}

// Generate 基于规格生成测试用例
// @Summary 基于规格文本AI生成测试用例
// @Tags 需求规格
// @Produce json
// @Param id path int true "规格ID"
// @Success 200 {object} utils.Response{data=dto.GenerationResultResponse}
// @Router /api/v1/specs/{id}/generate [post]
func (h *SpecHandler) Generate(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.generateService.GenerateFromSpec(c.Request.Context(), param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}
