package handler

import (
	"github.com/gin-gonic/gin"

	"qa-platform/internal/dto"
	"qa-platform/internal/service"
	"qa-platform/pkg/utils"
)

type RunHandler struct {
	runService       service.RunService
	collectorService service.CollectorService
}

func NewRunHandler(runService service.RunService, collectorService service.CollectorService) *RunHandler {
	return &RunHandler{
		runService:       runService,
		collectorService: collectorService,
	}
}

// GetByID 获取运行详情
// @Summary 获取运行详情
// @Tags 测试运行
// @Produce json
// @Param id path int true "运行ID"
// @Success 200 {object} utils.Response{data=dto.RunResponse}
// @Router /api/v1/runs/{id} [get]
func (h *RunHandler) GetByID(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.runService.GetByID(param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// List 获取运行列表
// @Summary 获取运行列表
// @Tags 测试运行
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param suite_id query int false "套件ID"
// @Param customer_id query int false "客户ID"
// @Param status query int false "状态"
// @Success 200 {object} utils.PageResponse{data=[]dto.RunResponse}
// @Router /api/v1/runs [get]
func (h *RunHandler) List(c *gin.Context) {
	var query dto.RunListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	data, total, err := h.runService.List(&query)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.PageSuccess(c, data, total, query.GetPage(), query.GetPageSize())
}

// Results 获取运行的用例结果
// @Summary 获取运行的用例结果
// @Tags 测试运行
// @Produce json
// @Param id path int true "运行ID"
// @Success 200 {object} utils.Response{data=[]dto.TestResultResponse}
// @Router /api/v1/runs/{id}/results [get]
func (h *RunHandler) Results(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.runService.Results(param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// Cancel 取消运行
// @Summary 取消运行
// @Tags 测试运行
// @Produce json
// @Param id path int true "运行ID"
// @Success 200 {object} utils.Response{data=dto.RunResponse}
// @Router /api/v1/runs/{id}/cancel [post]
func (h *RunHandler) Cancel(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.runService.Cancel(c.Request.Context(), param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// Delete 删除运行
// @Summary 删除运行记录
// @Tags 测试运行
// @Produce json
// @Param id path int true "运行ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/runs/{id} [delete]
func (h *RunHandler) Delete(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.runService.Delete(param.ID); err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, nil)
}

// Ingest 接收外部执行器回传的测试报告
// @Summary 接收外部执行器回传的测试报告
// @Tags 测试运行
// @Accept json
// @Produce json
// @Param request body dto.IngestReportRequest true "报告回传请求"
// @Success 200 {object} utils.Response{data=dto.RunResponse}
// @Router /api/v1/runs/ingest [post]
func (h *RunHandler) Ingest(c *gin.Context) {
	var req dto.IngestReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.collectorService.IngestReport(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}
