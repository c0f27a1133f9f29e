package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/service"
)

// ReturnHandler 退货申请处理器
type ReturnHandler struct {
	svc *service.ReturnService
}

func NewReturnHandler(svc *service.ReturnService) *ReturnHandler {
	return &ReturnHandler{svc: svc}
}

// List 退货申请列表
// GET /api/v1/wms/return-requests?branch_id=xxx&status=xxx&supplier_id=xxx
func (h *ReturnHandler) List(c *gin.Context) {
	branchID := c.Query("branch_id")
	if branchID == "" {
		BadRequest(c, "branch_id 不能为空")
		return
	}

	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":      c.Query("status"),
		"supplier_id": c.Query("supplier_id"),
	}

	items, total, err := h.svc.List(c.Request.Context(), branchID, page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取退货申请列表失败: "+err.Error())
		return
	}

	Success(c, listResponse(items, total, page, pageSize))
}

// Get 退货申请详情
// GET /api/v1/wms/return-requests/:id
func (h *ReturnHandler) Get(c *gin.Context) {
	rr, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, rr)
}

// Create 独立创建退货申请
// POST /api/v1/wms/return-requests
func (h *ReturnHandler) Create(c *gin.Context) {
	var req service.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	rr, err := h.svc.CreateStandalone(c.Request.Context(), GetOrgID(c), GetUserID(c), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, rr)
}

// Approve 审批通过
// POST /api/v1/wms/return-requests/:id/approve
func (h *ReturnHandler) Approve(c *gin.Context) {
	rr, err := h.svc.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, rr)
}

// Reject 驳回
// POST /api/v1/wms/return-requests/:id/reject
func (h *ReturnHandler) Reject(c *gin.Context) {
	rr, err := h.svc.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, rr)
}

// Delete 软删除退货申请
// DELETE /api/v1/wms/return-requests/:id
func (h *ReturnHandler) Delete(c *gin.Context) {
	if err := h.svc.SoftDelete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}
