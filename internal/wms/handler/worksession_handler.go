package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/service"
)

// WorkSessionHandler 作业会话处理器
type WorkSessionHandler struct {
	svc *service.WorkSessionService
}

func NewWorkSessionHandler(svc *service.WorkSessionService) *WorkSessionHandler {
	return &WorkSessionHandler{svc: svc}
}

// List 作业会话列表
// GET /api/v1/wms/work-sessions?branch_id=xxx&type=xxx
func (h *WorkSessionHandler) List(c *gin.Context) {
	branchID := c.Query("branch_id")
	if branchID == "" {
		BadRequest(c, "branch_id 不能为空")
		return
	}

	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListByBranch(c.Request.Context(), branchID, c.Query("type"), page, pageSize)
	if err != nil {
		InternalError(c, "获取作业会话列表失败: "+err.Error())
		return
	}

	Success(c, listResponse(items, total, page, pageSize))
}

// CompleteWorkSessionRequest 完成作业会话请求
type CompleteWorkSessionRequest struct {
	VerifiedBy *string `json:"verified_by"`
}

// Complete 完成作业会话
// POST /api/v1/wms/work-sessions/:id/complete
func (h *WorkSessionHandler) Complete(c *gin.Context) {
	var req CompleteWorkSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	ws, err := h.svc.Complete(c.Request.Context(), c.Param("id"), req.VerifiedBy)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, ws)
}
