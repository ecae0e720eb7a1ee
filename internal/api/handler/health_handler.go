package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"qa-platform/internal/dto"
	"qa-platform/internal/service"
	"qa-platform/pkg/utils"
)

type HealthHandler struct {
	service service.HealthService
}

func NewHealthHandler(service service.HealthService) *HealthHandler {
	return &HealthHandler{service: service}
}

// Create 创建健康检查
// @Summary 创建健康检查
// @Tags 环境健康
// @Accept json
// @Produce json
// @Param request body dto.CreateHealthCheckRequest true "创建检查请求"
// @Success 200 {object} utils.Response{data=dto.HealthCheckResponse}
// @Router /api/v1/health-checks [post]
func (h *HealthHandler) Create(c *gin.Context) {
	var req dto.CreateHealthCheckRequest
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

// Update 更新健康检查
// @Summary 更新健康检查
// @Tags 环境健康
// @Accept json
// @Produce json
// @Param request body dto.UpdateHealthCheckRequest true "更新检查请求"
// @Success 200 {object} utils.Response{data=dto.HealthCheckResponse}
// @Router /api/v1/health-checks [put]
func (h *HealthHandler) Update(c *gin.Context) {
	var req dto.UpdateHealthCheckRequest
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

// GetByID 获取健康检查详情
// @Summary 获取健康检查详情
// @Tags 环境健康
// @Produce json
// @Param id path int true "检查ID"
// @Success 200 {object} utils.Response{data=dto.HealthCheckResponse}
// @Router /api/v1/health-checks/{id} [get]
func (h *HealthHandler) GetByID(c *gin.Context) {
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

// List 获取健康检查列表
// @Summary 获取健康检查列表
// @Tags 环境健康
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param customer_id query int false "客户ID"
// @Param check_type query string false "检查类型"
// @Param last_status query string false "最近状态"
// @Success 200 {object} utils.PageResponse{data=[]dto.HealthCheckResponse}
// @Router /api/v1/health-checks [get]
func (h *HealthHandler) List(c *gin.Context) {
	var query dto.HealthCheckListQuery
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

// Delete 删除健康检查
// @Summary 删除健康检查
// @Tags 环境健康
// @Produce json
// @Param id path int true "检查ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/health-checks/{id} [delete]
func (h *HealthHandler) Delete(c *gin.Context) {
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

// Run 立即执行健康检查
// @Summary 立即执行一次健康检查
// @Tags 环境健康
// @Produce json
// @Param id path int true "检查ID"
// @Success 200 {object} utils.Response{data=dto.HealthCheckResponse}
// @Router /api/v1/health-checks/{id}/run [post]
func (h *HealthHandler) Run(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.service.RunCheck(c.Request.Context(), param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// Rebaseline 重置结构基线
// @Summary 清除结构基线并重新采集
// @Tags 环境健康
// @Produce json
// @Param id path int true "检查ID"
// @Success 200 {object} utils.Response{data=dto.HealthCheckResponse}
// @Router /api/v1/health-checks/{id}/rebaseline [post]
func (h *HealthHandler) Rebaseline(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.service.Rebaseline(c.Request.Context(), param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// ListLogs 获取检查历史
// @Summary 获取检查历史, 新→旧
// @Tags 环境健康
// @Produce json
// @Param id path int true "检查ID"
// @Param limit query int false "数量上限"
// @Success 200 {object} utils.Response{data=[]dto.HealthCheckLogResponse}
// @Router /api/v1/health-checks/{id}/logs [get]
func (h *HealthHandler) ListLogs(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.service.ListLogs(param.ID, limit)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}
