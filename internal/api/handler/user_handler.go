package handler

import (
	"github.com/gin-gonic/gin"

	"qa-platform/internal/dto"
	"qa-platform/internal/service"
	"qa-platform/pkg/utils"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Search 用户搜索
// @Summary 用户搜索
// @Tags 用户
// @Produce json
// @Param keyword query string false "关键字"
// @Success 200 {object} utils.PageResponse{data=[]dto.UserSimpleResponse}
// @Router /api/v1/users/search [get]
func (h *UserHandler) Search(c *gin.Context) {
	var req dto.UserSearchQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	users, total, err := h.service.Search(&req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.PageSuccess(c, users, total, req.GetPage(), req.GetPageSize())
}

// ListRoles 获取系统角色列表
// @Summary 获取系统角色列表
// @Tags 用户
// @Produce json
// @Success 200 {object} utils.Response{data=[]string}
// @Router /api/v1/roles [get]
func (h *UserHandler) ListRoles(c *gin.Context) {
	utils.Success(c, h.service.ListRoles())
}
