package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/service"
)

// LookupHandler 枚举字典处理器
type LookupHandler struct {
	svc *service.LookupService
}

func NewLookupHandler(svc *service.LookupService) *LookupHandler {
	return &LookupHandler{svc: svc}
}

// ListByType 按命名空间列出枚举项
// GET /api/v1/wms/lookups/:type
func (h *LookupHandler) ListByType(c *gin.Context) {
	items, err := h.svc.ListByType(c.Request.Context(), c.Param("type"))
	if err != nil {
		InternalError(c, "获取字典失败: "+err.Error())
		return
	}
	Success(c, items)
}

// EnsureLookupRequest 登记枚举项请求
type EnsureLookupRequest struct {
	Code        string `json:"code" binding:"required"`
	Label       string `json:"label" binding:"required"`
	Description string `json:"description"`
}

// Ensure 登记枚举项（已存在则返回现有项，不覆盖文案）
// POST /api/v1/wms/lookups/:type
func (h *LookupHandler) Ensure(c *gin.Context) {
	var req EnsureLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	id, err := h.svc.EnsureLookup(c.Request.Context(), c.Param("type"), req.Code, req.Label, req.Description)
	if err != nil {
		InternalError(c, "登记字典失败: "+err.Error())
		return
	}
	Success(c, gin.H{"id": id})
}
