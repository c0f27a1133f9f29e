package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/service"
)

// CycleCountHandler 盘点处理器
type CycleCountHandler struct {
	svc *service.CycleCountService
}

func NewCycleCountHandler(svc *service.CycleCountService) *CycleCountHandler {
	return &CycleCountHandler{svc: svc}
}

// List 盘点会话列表
// GET /api/v1/wms/cycle-counts?branch_id=xxx&status=xxx
func (h *CycleCountHandler) List(c *gin.Context) {
	branchID := c.Query("branch_id")
	if branchID == "" {
		BadRequest(c, "branch_id 不能为空")
		return
	}

	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListSessions(c.Request.Context(), branchID, c.Query("status"), page, pageSize)
	if err != nil {
		InternalError(c, "获取盘点会话列表失败: "+err.Error())
		return
	}

	Success(c, listResponse(items, total, page, pageSize))
}

// Create 创建盘点会话
// POST /api/v1/wms/cycle-counts
func (h *CycleCountHandler) Create(c *gin.Context) {
	var req service.CreateCycleCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	session, err := h.svc.CreateSession(c.Request.Context(), GetOrgID(c), GetUserID(c), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, session)
}

// Get 盘点会话视图（含分区进度）
// GET /api/v1/wms/cycle-counts/:id
func (h *CycleCountHandler) Get(c *gin.Context) {
	view, err := h.svc.GetSessionForProceed(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, view)
}

// ExportVariance 导出盘点差异报表
// GET /api/v1/wms/cycle-counts/:id/export
func (h *CycleCountHandler) ExportVariance(c *gin.Context) {
	f, filename, err := h.svc.ExportVarianceReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}

// ImportSnapshot 从库存快照文件创建盘点会话
// POST /api/v1/wms/cycle-count-imports
func (h *CycleCountHandler) ImportSnapshot(c *gin.Context) {
	branchID := c.PostForm("branch_id")
	name := c.PostForm("name")
	countType := c.PostForm("type")
	if branchID == "" || name == "" || countType == "" {
		BadRequest(c, "branch_id、name、type 不能为空")
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "请上传快照文件")
		return
	}
	defer file.Close()

	result, err := h.svc.ImportSnapshot(c.Request.Context(), GetOrgID(c), GetUserID(c), branchID, name, countType, file)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, result)
}

// StartZone 开始分区盘点
// POST /api/v1/wms/zone-assignments/:assignmentId/start
func (h *CycleCountHandler) StartZone(c *gin.Context) {
	result, err := h.svc.StartZoneAssignment(c.Request.Context(), GetOrgID(c), GetUserID(c), c.Param("assignmentId"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

// CompleteZoneRequest 完成分区请求
type CompleteZoneRequest struct {
	VerifiedBy *string `json:"verified_by"`
}

// CompleteZone 完成分区盘点
// POST /api/v1/wms/zone-assignments/:assignmentId/complete
func (h *CycleCountHandler) CompleteZone(c *gin.Context) {
	var req CompleteZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svc.CompleteZoneAssignment(c.Request.Context(), c.Param("assignmentId"), req.VerifiedBy)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}

// RecordCount 记录一条盘点结果
// POST /api/v1/wms/count-items/record
func (h *CycleCountHandler) RecordCount(c *gin.Context) {
	var req service.RecordCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svc.RecordLineItemCount(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, result)
}
