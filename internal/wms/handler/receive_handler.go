package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/service"
)

// ReceiveHandler 收货会话处理器
type ReceiveHandler struct {
	svc *service.ReceiveService
}

func NewReceiveHandler(svc *service.ReceiveService) *ReceiveHandler {
	return &ReceiveHandler{svc: svc}
}

// CreateFromPO 从采购单创建收货会话
// POST /api/v1/wms/purchase-orders/:id/receive-session
func (h *ReceiveHandler) CreateFromPO(c *gin.Context) {
	result, err := h.svc.CreateReceiveSession(c.Request.Context(), GetOrgID(c), GetUserID(c), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, result)
}

// List 收货会话列表
// GET /api/v1/wms/receive-sessions?branch_id=xxx&status=xxx
func (h *ReceiveHandler) List(c *gin.Context) {
	branchID := c.Query("branch_id")
	if branchID == "" {
		BadRequest(c, "branch_id 不能为空")
		return
	}

	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), branchID, c.Query("status"), page, pageSize)
	if err != nil {
		InternalError(c, "获取收货会话列表失败: "+err.Error())
		return
	}

	Success(c, listResponse(items, total, page, pageSize))
}

// Get 收货会话详情
// GET /api/v1/wms/receive-sessions/:id
func (h *ReceiveHandler) Get(c *gin.Context) {
	session, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, session)
}

// GetDetailed 收货会话详情（含源采购单）
// GET /api/v1/wms/receive-sessions/:id/detailed
func (h *ReceiveHandler) GetDetailed(c *gin.Context) {
	detailed, err := h.svc.GetDetailed(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, detailed)
}

// GetProgress 收货进度
// GET /api/v1/wms/receive-sessions/:id/progress
func (h *ReceiveHandler) GetProgress(c *gin.Context) {
	progress, err := h.svc.GetProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, progress)
}

// ProcessItemRequest 单次收货请求
type ProcessItemRequest struct {
	Quantity float64 `json:"quantity" binding:"required"`
	Notes    string  `json:"notes"`
}

// ProcessItem 记录一次增量收货
// POST /api/v1/wms/receive-details/:detailId/receive
func (h *ReceiveHandler) ProcessItem(c *gin.Context) {
	var req ProcessItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svc.ProcessReceiveItem(c.Request.Context(), c.Param("detailId"), req.Quantity, req.Notes)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

// CreateReturnFromReceiveRequest 收货转退货请求
type CreateReturnFromReceiveRequest struct {
	Quantity float64 `json:"quantity" binding:"required"`
	Reason   string  `json:"reason"`
	Notes    string  `json:"notes"`
}

// CreateReturn 收货差异转退货申请
// POST /api/v1/wms/receive-details/:detailId/return
func (h *ReceiveHandler) CreateReturn(c *gin.Context) {
	var req CreateReturnFromReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svc.CreateReturnFromReceiveSession(c.Request.Context(),
		GetOrgID(c), GetUserID(c), c.Param("detailId"), req.Quantity, req.Reason, req.Notes)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, result)
}

// CompleteSessionRequest 完成收货会话请求
type CompleteSessionRequest struct {
	Force      bool    `json:"force"`
	VerifiedBy *string `json:"verified_by"`
}

// Complete 完成收货会话
// POST /api/v1/wms/receive-sessions/:id/complete
func (h *ReceiveHandler) Complete(c *gin.Context) {
	var req CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svc.CompleteReceiveSession(c.Request.Context(), c.Param("id"), req.VerifiedBy, req.Force)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

// UpdateSessionStatusRequest 会话状态覆盖请求
type UpdateSessionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus 显式覆盖会话状态
// PUT /api/v1/wms/receive-sessions/:id/status
func (h *ReceiveHandler) UpdateStatus(c *gin.Context) {
	var req UpdateSessionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	session, err := h.svc.UpdateSessionStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, session)
}

// SaveState 保存中途状态
// POST /api/v1/wms/receive-sessions/:id/save
func (h *ReceiveHandler) SaveState(c *gin.Context) {
	session, err := h.svc.SaveSessionState(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, session)
}
