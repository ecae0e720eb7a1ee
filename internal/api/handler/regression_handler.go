package handler

import (
	"github.com/gin-gonic/gin"

	"qa-platform/internal/dto"
	"qa-platform/internal/service"
	"qa-platform/pkg/utils"
)

type RegressionHandler struct {
	service service.RegressionService
}

func NewRegressionHandler(service service.RegressionService) *RegressionHandler {
	return &RegressionHandler{service: service}
}

// Create 创建回归套件
// @Summary 创建回归套件
// @Tags 回归测试
// @Accept json
// @Produce json
// @Param request body dto.CreateRegressionRequest true "创建回归套件请求"
// @Success 200 {object} utils.Response{data=dto.RegressionResponse}
// @Router /api/v1/regressions [post]
func (h *RegressionHandler) Create(c *gin.Context) {
	var req dto.CreateRegressionRequest
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

// Update 更新回归套件
// @Summary 更新回归套件
// @Tags 回归测试
// @Accept json
// @Produce json
// @Param request body dto.UpdateRegressionRequest true "更新回归套件请求"
// @Success 200 {object} utils.Response{data=dto.RegressionResponse}
// @Router /api/v1/regressions [put]
func (h *RegressionHandler) Update(c *gin.Context) {
	var req dto.UpdateRegressionRequest
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

// GetByID 获取回归套件详情
// @Summary 获取回归套件详情
// @Tags 回归测试
// @Produce json
// @Param id path int true "回归套件ID"
// @Success 200 {object} utils.Response{data=dto.RegressionResponse}
// @Router /api/v1/regressions/{id} [get]
func (h *RegressionHandler) GetByID(c *gin.Context) {
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

// List 获取回归套件列表
// @Summary 获取回归套件列表
// @Tags 回归测试
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param customer_id query int false "客户ID"
// @Param keyword query string false "关键字"
// @Success 200 {object} utils.PageResponse{data=[]dto.RegressionResponse}
// @Router /api/v1/regressions [get]
func (h *RegressionHandler) List(c *gin.Context) {
	var query dto.RegressionListQuery
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

// Delete 删除回归套件
// @Summary 删除回归套件
// @Tags 回归测试
// @Produce json
// @Param id path int true "回归套件ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/regressions/{id} [delete]
func (h *RegressionHandler) Delete(c *gin.Context) {
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

// Generate 实例化回归用例
// @Summary 按所选模块实例化模板为测试用例
// @Tags 回归测试
// @Produce json
// @Param id path int true "回归套件ID"
// @Success 200 {object} utils.Response{data=dto.RegressionGenerateResponse}
// @Router /api/v1/regressions/{id}/generate [post]
func (h *RegressionHandler) Generate(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.service.Generate(param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// Run 触发回归执行
// @Summary 触发回归执行
// @Tags 回归测试
// @Accept json
// @Produce json
// @Param id path int true "回归套件ID"
// @Param request body dto.RunRegressionRequest true "执行请求"
// @Success 200 {object} utils.Response{data=dto.RunResponse}
// @Router /api/v1/regressions/{id}/run [post]
func (h *RegressionHandler) Run(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	var req dto.RunRegressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.service.Run(c.Request.Context(), param.ID, &req, c.GetString("username"))
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}
