package handler

import (
	"github.com/gin-gonic/gin"

	"qa-platform/internal/dto"
	"qa-platform/internal/service"
	"qa-platform/pkg/utils"
)

type RepositoryHandler struct {
	service service.GitRepositoryService
}

func NewRepositoryHandler(service service.GitRepositoryService) *RepositoryHandler {
	return &RepositoryHandler{service: service}
}

// Create 创建代码仓库
// @Summary 创建代码仓库
// @Tags 代码仓库
// @Accept json
// @Produce json
// @Param request body dto.CreateRepositoryRequest true "创建仓库请求"
// @Success 200 {object} utils.Response{data=dto.RepositoryResponse}
// @Router /api/v1/repositories [post]
func (h *RepositoryHandler) Create(c *gin.Context) {
	var req dto.CreateRepositoryRequest
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

// Update 更新代码仓库
// @Summary 更新代码仓库
// @Tags 代码仓库
// @Accept json
// @Produce json
// @Param request body dto.UpdateRepositoryRequest true "更新仓库请求"
// @Success 200 {object} utils.Response{data=dto.RepositoryResponse}
// @Router /api/v1/repositories [put]
func (h *RepositoryHandler) Update(c *gin.Context) {
	var req dto.UpdateRepositoryRequest
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

// GetByID 获取代码仓库详情
// @Summary 获取代码仓库详情
// @Tags 代码仓库
// @Produce json
// @Param id path int true "仓库ID"
// @Success 200 {object} utils.Response{data=dto.RepositoryResponse}
// @Router /api/v1/repositories/{id} [get]
func (h *RepositoryHandler) GetByID(c *gin.Context) {
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

// List 获取代码仓库列表
// @Summary 获取代码仓库列表
// @Tags 代码仓库
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param customer_id query int false "客户ID"
// @Param keyword query string false "关键字"
// @Success 200 {object} utils.PageResponse{data=[]dto.RepositoryResponse}
// @Router /api/v1/repositories [get]
func (h *RepositoryHandler) List(c *gin.Context) {
	var query dto.RepositoryListQuery
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

// Delete 删除代码仓库
// @Summary 删除代码仓库
// @Tags 代码仓库
// @Produce json
// @Param id path int true "仓库ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/repositories/{id} [delete]
func (h *RepositoryHandler) Delete(c *gin.Context) {
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

// TestConnection 测试仓库平台连接
// @Summary 用已保存的凭据探测平台API连通性
// @Tags 代码仓库
// @Produce json
// @Param id path int true "仓库ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/repositories/{id}/test [post]
func (h *RepositoryHandler) TestConnection(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.service.TestConnection(param.ID); err != nil {
		utils.Error(c, err)
		return
	}

	utils.SuccessWithMessage(c, "连接正常", nil)
}

// Discover 发现平台侧仓库
// @Summary 按平台凭据列出owner名下可注册的仓库
// @Tags 代码仓库
// @Accept json
// @Produce json
// @Param request body dto.DiscoverRepositoriesRequest true "发现仓库请求"
// @Success 200 {object} utils.Response{data=[]dto.RemoteRepositoryResponse}
// @Router /api/v1/repositories/discover [post]
func (h *RepositoryHandler) Discover(c *gin.Context) {
	var req dto.DiscoverRepositoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.service.Discover(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// UpsertModuleSource 创建或更新模块源
// @Summary 创建或更新模块源
// @Tags 代码仓库
// @Accept json
// @Produce json
// @Param request body dto.UpsertModuleSourceRequest true "模块源请求"
// @Success 200 {object} utils.Response{data=dto.ModuleSourceResponse}
// @Router /api/v1/module-sources [post]
func (h *RepositoryHandler) UpsertModuleSource(c *gin.Context) {
	var req dto.UpsertModuleSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.service.UpsertModuleSource(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// ListModuleSources 获取仓库的模块源列表
// @Summary 获取仓库的模块源列表
// @Tags 代码仓库
// @Produce json
// @Param id path int true "仓库ID"
// @Success 200 {object} utils.Response{data=[]dto.ModuleSourceResponse}
// @Router /api/v1/repositories/{id}/module-sources [get]
func (h *RepositoryHandler) ListModuleSources(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.service.ListModuleSources(param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// DeleteModuleSource 删除模块源
// @Summary 删除模块源
// @Tags 代码仓库
// @Produce json
// @Param id path int true "模块源ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/module-sources/{id} [delete]
func (h *RepositoryHandler) DeleteModuleSource(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.service.DeleteModuleSource(param.ID); err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, nil)
}
