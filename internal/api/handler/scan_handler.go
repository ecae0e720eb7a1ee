package handler

import (
	"github.com/gin-gonic/gin"

	"qa-platform/internal/dto"
	"qa-platform/internal/service"
	"qa-platform/pkg/utils"
)

type ScanHandler struct {
	scanService     service.ScanService
	generateService service.GenerateService
}

func NewScanHandler(scanService service.ScanService, generateService service.GenerateService) *ScanHandler {
	return &ScanHandler{
		scanService:     scanService,
		generateService: generateService,
	}
}

// Create 创建代码扫描
// @Summary 创建代码扫描
// @Tags 代码扫描
// @Accept json
// @Produce json
// @Param request body dto.CreateScanRequest true "创建扫描请求"
// @Success 200 {object} utils.Response{data=dto.ScanResponse}
// @Router /api/v1/scans [post]
func (h *ScanHandler) Create(c *gin.Context) {
	var req dto.CreateScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.scanService.Create(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// GetByID 获取扫描详情
// @Summary 获取扫描详情
// @Tags 代码扫描
// @Produce json
// @Param id path int true "扫描ID"
// @Success 200 {object} utils.Response{data=dto.ScanResponse}
// @Router /api/v1/scans/{id} [get]
func (h *ScanHandler) GetByID(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.scanService.GetByID(param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// List 获取扫描列表
// @Summary 获取扫描列表
// @Tags 代码扫描
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param customer_id query int false "客户ID"
// @Param status query int false "状态"
// @Success 200 {object} utils.PageResponse{data=[]dto.ScanResponse}
// @Router /api/v1/scans [get]
func (h *ScanHandler) List(c *gin.Context) {
	var query dto.ScanListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	data, total, err := h.scanService.List(&query)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.PageSuccess(c, data, total, query.GetPage(), query.GetPageSize())
}

// Delete 删除扫描
// @Summary 删除扫描
// @Tags 代码扫描
// @Produce json
// @Param id path int true "扫描ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/scans/{id} [delete]
func (h *ScanHandler) Delete(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.scanService.Delete(param.ID); err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, nil)
}

// Scan 执行仓库扫描
// @Summary 拉取仓库并发现模块
// @Tags 代码扫描
// @Produce json
// @Param id path int true "扫描ID"
// @Success 200 {object} utils.Response{data=dto.ScanResponse}
// @Router /api/v1/scans/{id}/scan [post]
func (h *ScanHandler) Scan(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.scanService.Scan(c.Request.Context(), param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// ListModules 获取扫描发现的模块
// @Summary 获取扫描发现的模块
// @Tags 代码扫描
// @Produce json
// @Param id path int true "扫描ID"
// @Success 200 {object} utils.Response{data=[]dto.ScannedModuleResponse}
// @Router /api/v1/scans/{id}/modules [get]
func (h *ScanHandler) ListModules(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.scanService.ListModules(param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// SelectModules 勾选参与分析的模块
// @Summary 勾选参与分析的模块
// @Tags 代码扫描
// @Accept json
// @Produce json
// @Param id path int true "扫描ID"
// @Param request body dto.SelectModulesRequest true "勾选模块请求"
// @Success 200 {object} utils.Response
// @Router /api/v1/scans/{id}/select [post]
func (h *ScanHandler) SelectModules(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	var req dto.SelectModulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.scanService.SelectModules(param.ID, &req); err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, nil)
}

// Analyze 分析已勾选模块
// @Summary 静态分析已勾选模块
// @Tags 代码扫描
// @Produce json
// @Param id path int true "扫描ID"
// @Success 200 {object} utils.Response{data=[]dto.ModuleAnalysisResponse}
// @Router /api/v1/scans/{id}/analyze [post]
func (h *ScanHandler) Analyze(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.scanService.Analyze(c.Request.Context(), param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// ListAnalyses 获取扫描的分析结果
// @Summary 获取扫描的分析结果
// @Tags 代码扫描
// @Produce json
// @Param id path int true "扫描ID"
// @Success 200 {object} utils.Response{data=[]dto.ModuleAnalysisResponse}
// @Router /api/v1/scans/{id}/analyses [get]
func (h *ScanHandler) ListAnalyses(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.scanService.ListAnalyses(param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// Generate 基于分析结果生成测试用例
// @Summary AI生成测试用例
// @Tags 代码扫描
// @Accept json
// @Produce json
// @Param id path int true "扫描ID"
// @Param request body dto.GenerateFromScanRequest true "生成请求"
// @Success 200 {object} utils.Response{data=dto.GenerationResultResponse}
// @Router /api/v1/scans/{id}/generate [post]
func (h *ScanHandler) Generate(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	var req dto.GenerateFromScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.generateService.GenerateFromScan(c.Request.Context(), param.ID, &req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}
