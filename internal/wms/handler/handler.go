package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zAcherttp/next-wms-sub003/internal/middleware"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/service"
)

// Handlers WMS处理器集合
type Handlers struct {
	PO          *POHandler
	Receive     *ReceiveHandler
	Return      *ReturnHandler
	CycleCount  *CycleCountHandler
	WorkSession *WorkSessionHandler
	Lookup      *LookupHandler
}

// NewHandlers 创建WMS处理器集合
func NewHandlers(
	poSvc *service.PurchaseOrderService,
	receiveSvc *service.ReceiveService,
	returnSvc *service.ReturnService,
	cycleSvc *service.CycleCountService,
	workSvc *service.WorkSessionService,
	lookupSvc *service.LookupService,
) *Handlers {
	return &Handlers{
		PO:          NewPOHandler(poSvc),
		Receive:     NewReceiveHandler(receiveSvc),
		Return:      NewReturnHandler(returnSvc),
		CycleCount:  NewCycleCountHandler(cycleSvc),
		WorkSession: NewWorkSessionHandler(workSvc),
		Lookup:      NewLookupHandler(lookupSvc),
	}
}

// RegisterRoutes 注册WMS路由
func (h *Handlers) RegisterRoutes(rg *gin.RouterGroup) {
	po := rg.Group("/purchase-orders")
	{
		po.GET("", h.PO.List)
		po.POST("", h.PO.Create)
		po.GET("/:id", h.PO.Get)
		po.POST("/:id/cancel", middleware.RequirePermission("wms:po:cancel"), h.PO.Cancel)
		po.POST("/:id/receive-session", h.Receive.CreateFromPO)
	}

	rs := rg.Group("/receive-sessions")
	{
		rs.GET("", h.Receive.List)
		rs.GET("/:id", h.Receive.Get)
		rs.GET("/:id/detailed", h.Receive.GetDetailed)
		rs.GET("/:id/progress", h.Receive.GetProgress)
		rs.POST("/:id/save", h.Receive.SaveState)
		rs.POST("/:id/complete", h.Receive.Complete)
		rs.PUT("/:id/status", middleware.RequireRole("wms_supervisor"), h.Receive.UpdateStatus)
	}

	rd := rg.Group("/receive-details")
	{
		rd.POST("/:detailId/receive", h.Receive.ProcessItem)
		rd.POST("/:detailId/return", h.Receive.CreateReturn)
	}

	rr := rg.Group("/return-requests")
	{
		rr.GET("", h.Return.List)
		rr.POST("", h.Return.Create)
		rr.GET("/:id", h.Return.Get)
		rr.POST("/:id/approve", middleware.RequirePermission("wms:return:approve"), h.Return.Approve)
		rr.POST("/:id/reject", middleware.RequirePermission("wms:return:approve"), h.Return.Reject)
		rr.DELETE("/:id", h.Return.Delete)
	}

	cc := rg.Group("/cycle-counts")
	{
		cc.GET("", h.CycleCount.List)
		cc.POST("", h.CycleCount.Create)
		cc.GET("/:id", h.CycleCount.Get)
		cc.GET("/:id/export", h.CycleCount.ExportVariance)
	}
	rg.POST("/cycle-count-imports", h.CycleCount.ImportSnapshot)

	za := rg.Group("/zone-assignments")
	{
		za.POST("/:assignmentId/start", h.CycleCount.StartZone)
		za.POST("/:assignmentId/complete", h.CycleCount.CompleteZone)
	}

	rg.POST("/count-items/record", h.CycleCount.RecordCount)

	ws := rg.Group("/work-sessions")
	{
		ws.GET("", h.WorkSession.List)
		ws.POST("/:id/complete", h.WorkSession.Complete)
	}

	rg.GET("/lookups/:type", h.Lookup.ListByType)
	rg.POST("/lookups/:type", middleware.RequirePermission("wms:lookup:manage"), h.Lookup.Ensure)
}

// === 响应辅助函数 ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ServiceError 按业务错误分类映射HTTP响应
func ServiceError(c *gin.Context, err error) {
	switch service.KindOf(err) {
	case service.KindNotFound:
		NotFound(c, err.Error())
	case service.KindValidation, service.KindInvalidState:
		BadRequest(c, err.Error())
	case service.KindConflict:
		Conflict(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

func GetOrgID(c *gin.Context) string {
	orgID, _ := c.Get("org_id")
	if id, ok := orgID.(string); ok {
		return id
	}
	return ""
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	tp := int(total) / pageSize
	if int(total)%pageSize > 0 {
		tp++
	}
	return tp
}

func listResponse(items interface{}, total int64, page, pageSize int) ListResponse {
	return ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	}
}
