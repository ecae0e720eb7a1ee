package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"qa-platform/internal/dto"
	"qa-platform/internal/service"
	"qa-platform/pkg/constants"
	"qa-platform/pkg/utils"
)

type SuiteHandler struct {
	suiteService service.SuiteService
	runService   service.RunService
}

func NewSuiteHandler(suiteService service.SuiteService, runService service.RunService) *SuiteHandler {
	return &SuiteHandler{
		suiteService: suiteService,
		runService:   runService,
	}
}

// Create 创建测试套件
// @Summary 创建测试套件
// @Tags 测试套件
// @Accept json
// @Produce json
// @Param request body dto.CreateSuiteRequest true "创建套件请求"
// @Success 200 {object} utils.Response{data=dto.SuiteResponse}
// @Router /api/v1/suites [post]
func (h *SuiteHandler) Create(c *gin.Context) {
	var req dto.CreateSuiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.suiteService.Create(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// Update 更新测试套件
// @Summary 更新测试套件
// @Tags 测试套件
// @Accept json
// @Produce json
// @Param request body dto.UpdateSuiteRequest true "更新套件请求"
// @Success 200 {object} utils.Response{data=dto.SuiteResponse}
// @Router /api/v1/suites [put]
func (h *SuiteHandler) Update(c *gin.Context) {
	var req dto.UpdateSuiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.suiteService.Update(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// GetByID 获取测试套件详情
// @Summary 获取测试套件详情
// @Tags 测试套件
// @Produce json
// @Param id path int true "套件ID"
// @Success 200 {object} utils.Response{data=dto.SuiteResponse}
// @Router /api/v1/suites/{id} [get]
func (h *SuiteHandler) GetByID(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.suiteService.GetByID(param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// List 获取测试套件列表
// @Summary 获取测试套件列表
// @Tags 测试套件
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param customer_id query int false "客户ID"
// @Param keyword query string false "关键字"
// @Success 200 {object} utils.PageResponse{data=[]dto.SuiteResponse}
// @Router /api/v1/suites [get]
func (h *SuiteHandler) List(c *gin.Context) {
	var query dto.SuiteListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	data, total, err := h.suiteService.List(&query)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.PageSuccess(c, data, total, query.GetPage(), query.GetPageSize())
}

// Delete 删除测试套件
// @Summary 删除测试套件
// @Tags 测试套件
// @Produce json
// @Param id path int true "套件ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/suites/{id} [delete]
func (h *SuiteHandler) Delete(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.suiteService.Delete(param.ID); err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, nil)
}

// AssignCases 分配用例到套件
// @Summary 分配用例到套件
// @Tags 测试套件
// @Accept json
// @Produce json
// @Param id path int true "套件ID"
// @Param request body dto.AssignCasesRequest true "分配用例请求"
// @Success 200 {object} utils.Response
// @Router /api/v1/suites/{id}/cases [post]
func (h *SuiteHandler) AssignCases(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	var req dto.AssignCasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.suiteService.AssignCases(param.ID, &req); err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, nil)
}

// ListCases 获取套件内用例
// @Summary 获取套件内用例
// @Tags 测试套件
// @Produce json
// @Param id path int true "套件ID"
// @Success 200 {object} utils.Response{data=[]dto.TestCaseResponse}
// @Router /api/v1/suites/{id}/cases [get]
func (h *SuiteHandler) ListCases(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.suiteService.ListCases(param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// Artifacts 下载套件执行产物
// @Summary 下载套件内全部Robot脚本的zip包
// @Tags 测试套件
// @Produce application/zip
// @Param id path int true "套件ID"
// @Success 200 {file} binary
// @Router /api/v1/suites/{id}/artifacts [get]
func (h *SuiteHandler) Artifacts(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	data, filename, err := h.suiteService.Artifacts(param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/zip", data)
}

// Run 触发套件执行
// @Summary 触发套件执行
// @Tags 测试套件
// @Accept json
// @Produce json
// @Param id path int true "套件ID"
// @Param request body dto.RunSuiteRequest true "执行请求"
// @Success 200 {object} utils.Response{data=dto.RunResponse}
// @Router /api/v1/suites/{id}/run [post]
func (h *SuiteHandler) Run(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}
	var req dto.RunSuiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.runService.Run(c.Request.Context(), param.ID, &req,
		constants.TriggerSourceManual, c.GetString("username"))
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}
