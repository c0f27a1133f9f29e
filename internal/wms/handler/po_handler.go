package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/service"
)

// POHandler 采购单处理器
type POHandler struct {
	svc *service.PurchaseOrderService
}

func NewPOHandler(svc *service.PurchaseOrderService) *POHandler {
	return &POHandler{svc: svc}
}

// List 采购单列表
// GET /api/v1/wms/purchase-orders?branch_id=xxx&status=xxx&supplier_id=xxx&search=xxx
func (h *POHandler) List(c *gin.Context) {
	branchID := c.Query("branch_id")
	if branchID == "" {
		BadRequest(c, "branch_id 不能为空")
		return
	}

	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":      c.Query("status"),
		"supplier_id": c.Query("supplier_id"),
		"search":      c.Query("search"),
	}

	items, total, err := h.svc.List(c.Request.Context(), branchID, page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取采购单列表失败: "+err.Error())
		return
	}

	Success(c, listResponse(items, total, page, pageSize))
}

// Get 采购单详情
// GET /api/v1/wms/purchase-orders/:id
func (h *POHandler) Get(c *gin.Context) {
	po, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, po)
}

// Create 创建采购单
// POST /api/v1/wms/purchase-orders
func (h *POHandler) Create(c *gin.Context) {
	var req service.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	po, err := h.svc.Create(c.Request.Context(), GetOrgID(c), GetUserID(c), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}

	Created(c, po)
}

// Cancel 取消采购单
// POST /api/v1/wms/purchase-orders/:id/cancel
func (h *POHandler) Cancel(c *gin.Context) {
	po, err := h.svc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, po)
}
