package handler

import (
	"github.com/gin-gonic/gin"

	"qa-platform/internal/dto"
	"qa-platform/internal/service"
	"qa-platform/pkg/utils"
)

type CustomerHandler struct {
	customerService service.CustomerService
	serverService   service.ServerService
}

func NewCustomerHandler(customerService service.CustomerService, serverService service.ServerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		serverService:   serverService,
	}
}

// Create 创建客户
// @Summary 创建客户
// @Tags 客户
// @Accept json
// @Produce json
// @Param request body dto.CreateCustomerRequest true "创建客户请求"
// @Success 200 {object} utils.Response{data=dto.CustomerResponse}
// @Router /api/v1/customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.customerService.Create(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// Update 更新客户
// @Summary 更新客户
// @Tags 客户
// @Accept json
// @Produce json
// @Param request body dto.UpdateCustomerRequest true "更新客户请求"
// @Success 200 {object} utils.Response{data=dto.CustomerResponse}
// @Router /api/v1/customers [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	var req dto.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.customerService.Update(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// GetByID 获取客户详情
// @Summary 获取客户详情
// @Tags 客户
// @Produce json
// @Param id path int true "客户ID"
// @Success 200 {object} utils.Response{data=dto.CustomerResponse}
// @Router /api/v1/customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.customerService.GetByID(param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// List 获取客户列表
// @Summary 获取客户列表
// @Tags 客户
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param keyword query string false "关键字"
// @Success 200 {object} utils.PageResponse{data=[]dto.CustomerResponse}
// @Router /api/v1/customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	var query dto.CustomerListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	data, total, err := h.customerService.List(&query)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.PageSuccess(c, data, total, query.GetPage(), query.GetPageSize())
}

// Delete 删除客户
// @Summary 删除客户
// @Tags 客户
// @Produce json
// @Param id path int true "客户ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.customerService.Delete(param.ID); err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, nil)
}

// CreateServer 创建客户环境
// @Summary 创建客户环境
// @Tags 客户环境
// @Accept json
// @Produce json
// @Param request body dto.CreateServerRequest true "创建环境请求"
// @Success 200 {object} utils.Response{data=dto.ServerResponse}
// @Router /api/v1/servers [post]
func (h *CustomerHandler) CreateServer(c *gin.Context) {
	var req dto.CreateServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.serverService.Create(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// UpdateServer 更新客户环境
// @Summary 更新客户环境
// @Tags 客户环境
// @Accept json
// @Produce json
// @Param request body dto.UpdateServerRequest true "更新环境请求"
// @Success 200 {object} utils.Response{data=dto.ServerResponse}
// @Router /api/v1/servers [put]
func (h *CustomerHandler) UpdateServer(c *gin.Context) {
	var req dto.UpdateServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.serverService.Update(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// GetServer 获取客户环境详情
// @Summary 获取客户环境详情
// @Tags 客户环境
// @Produce json
// @Param id path int true "环境ID"
// @Success 200 {object} utils.Response{data=dto.ServerResponse}
// @Router /api/v1/servers/{id} [get]
func (h *CustomerHandler) GetServer(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.serverService.GetByID(param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, resp)
}

// ListServers 获取客户环境列表
// @Summary 获取客户环境列表
// @Tags 客户环境
// @Produce json
// @Param customer_id query int false "客户ID"
// @Success 200 {object} utils.PageResponse{data=[]dto.ServerResponse}
// @Router /api/v1/servers [get]
func (h *CustomerHandler) ListServers(c *gin.Context) {
	var query dto.ServerListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	data, total, err := h.serverService.List(&query)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.PageSuccess(c, data, total, query.GetPage(), query.GetPageSize())
}

// DeleteServer 删除客户环境
// @Summary 删除客户环境
// @Tags 客户环境
// @Produce json
// @Param id path int true "环境ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/servers/{id} [delete]
func (h *CustomerHandler) DeleteServer(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.serverService.Delete(param.ID); err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, nil)
}
