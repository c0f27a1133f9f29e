package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReceiveService 收货会话引擎
// 行项状态由数量推导，会话状态由行项状态推导，每次行项变更后重算。
// 采购单状态只在会话完成时翻转（两阶段：收货过程增量进行，源单据一次性结账）。
type ReceiveService struct {
	db       *gorm.DB
	sessions *repository.ReceiveSessionRepository
	poRepo   *repository.PurchaseOrderRepository
	returns  *repository.ReturnRequestRepository
	catalog  *repository.CatalogRepository
	code     *repository.CodeGenerator
	workSvc  *WorkSessionService
	zonePick ZoneRecommender
	logger   *zap.Logger
}

func NewReceiveService(
	db *gorm.DB,
	sessions *repository.ReceiveSessionRepository,
	poRepo *repository.PurchaseOrderRepository,
	returns *repository.ReturnRequestRepository,
	catalog *repository.CatalogRepository,
	code *repository.CodeGenerator,
	workSvc *WorkSessionService,
	zonePick ZoneRecommender,
	logger *zap.Logger,
) *ReceiveService {
	return &ReceiveService{
		db:       db,
		sessions: sessions,
		poRepo:   poRepo,
		returns:  returns,
		catalog:  catalog,
		code:     code,
		workSvc:  workSvc,
		zonePick: zonePick,
		logger:   logger,
	}
}

// CreateReceiveSessionResult 创建收货会话返回
type CreateReceiveSessionResult struct {
	SessionID     string `json:"session_id"`
	Code          string `json:"code"`
	WorkSessionID string `json:"work_session_id"`
	ItemCount     int    `json:"item_count"`
}

// CreateReceiveSession 从采购单创建收货会话
// 前置条件：采购单存在且未取消、有行项、尚无收货会话（一单一会话，
// 预检查给出友好报错，purchase_order_id 唯一索引兜底并发）。
func (s *ReceiveService) CreateReceiveSession(ctx context.Context, orgID, userID, purchaseOrderID string) (*CreateReceiveSessionResult, error) {
	po, err := s.poRepo.FindByID(ctx, purchaseOrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundErr("采购单不存在: %s", purchaseOrderID)
		}
		return nil, err
	}
	if po.Status == entity.POStatusCancelled {
		return nil, InvalidStateErr("采购单 %s 已取消，不能创建收货会话", po.Code)
	}
	if len(po.Lines) == 0 {
		return nil, InvalidStateErr("采购单 %s 没有行项", po.Code)
	}

	existing, err := s.sessions.FindByPurchaseOrderID(ctx, po.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ConflictErr("该采购单已存在收货会话: %s", existing.Code)
	}

	loc := s.catalog.BranchLocation(ctx, po.BranchID)

	var session *entity.ReceiveSession
	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		code, err := s.code.NextCode(ctx, &entity.ReceiveSession{}, repository.CodePrefixReceiveSession, po.BranchID, loc)
		if err != nil {
			return nil, err
		}

		session = &entity.ReceiveSession{
			ID:              uuid.New().String()[:32],
			Code:            code,
			PurchaseOrderID: po.ID,
			OrgID:           orgID,
			BranchID:        po.BranchID,
			Status:          entity.ReceiveSessionStatusPending,
			ReceivedAt:      time.Now(),
			CreatedBy:       userID,
		}
		for i, line := range po.Lines {
			session.Details = append(session.Details, entity.ReceiveSessionDetail{
				ID:               uuid.New().String()[:32],
				SessionID:        session.ID,
				POLineID:         line.ID,
				VariantID:        line.VariantID,
				SKUCode:          line.SKUCode,
				QuantityExpected: line.QuantityOrdered,
				QuantityReceived: 0,
				Status:           entity.ReceiveDetailStatusPending,
				SortOrder:        i + 1,
			})
		}

		err = s.sessions.Create(ctx, session)
		if err == nil {
			break
		}
		if !repository.IsDuplicateKey(err) {
			return nil, err
		}

		// 唯一冲突：要么并发创建了同一采购单的会话，要么编码撞号
		again, ferr := s.sessions.FindByPurchaseOrderID(ctx, po.ID)
		if ferr != nil {
			return nil, ferr
		}
		if again != nil {
			return nil, ConflictErr("该采购单已存在收货会话: %s", again.Code)
		}
		session = nil
	}
	if session == nil {
		return nil, ConflictErr("收货会话编码生成冲突，请重试")
	}

	ws, err := s.workSvc.EnsureWorkSession(ctx, orgID, po.BranchID,
		entity.WorkSessionTypeInbound, entity.WorkSessionRefReceiveSession, session.ID, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("收货会话已创建",
		zap.String("session_code", session.Code),
		zap.String("po_code", po.Code),
		zap.Int("item_count", len(session.Details)),
	)

	return &CreateReceiveSessionResult{
		SessionID:     session.ID,
		Code:          session.Code,
		WorkSessionID: ws.ID,
		ItemCount:     len(session.Details),
	}, nil
}

// ProcessReceiveItemResult 单次收货返回，供前端乐观更新
type ProcessReceiveItemResult struct {
	NewQuantityReceived float64             `json:"new_quantity_received"`
	IsComplete          bool                `json:"is_complete"`
	DetailStatus        string              `json:"detail_status"`
	SessionStatus       string              `json:"session_status"`
	RecommendedZone     *entity.StorageZone `json:"recommended_zone"`
}

// ProcessReceiveItem 记录一次增量收货
// 行项数量累加（允许超收）、行项/会话状态重算、采购单行项收货数量回写，
// 三者在一个事务内要么全部生效要么全部不生效。
func (s *ReceiveService) ProcessReceiveItem(ctx context.Context, detailID string, quantityToAdd float64, notes string) (*ProcessReceiveItemResult, error) {
	if quantityToAdd <= 0 {
		return nil, ValidationErr("收货数量必须大于0")
	}

	var result ProcessReceiveItemResult
	var branchID string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var detail entity.ReceiveSessionDetail
		if err := tx.Where("id = ?", detailID).First(&detail).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFoundErr("收货行项不存在: %s", detailID)
			}
			return err
		}

		newDetailStatus := entity.DeriveReceiveDetailStatus(detail.QuantityReceived+quantityToAdd, detail.QuantityExpected)
		if !entity.CanTransitionReceiveDetail(detail.Status, newDetailStatus) {
			return InvalidStateErr("行项 %s 当前状态为 %s，不能继续收货", detail.SKUCode, detail.Status)
		}

		detail.QuantityReceived += quantityToAdd
		detail.Status = newDetailStatus
		if notes != "" {
			detail.Notes = notes
		}
		if err := tx.Save(&detail).Error; err != nil {
			return err
		}

		// 回写采购单行项（累加，不截断超收）
		if err := tx.Model(&entity.PurchaseOrderLine{}).
			Where("id = ?", detail.POLineID).
			Update("quantity_received", gorm.Expr("quantity_received + ?", quantityToAdd)).Error; err != nil {
			return err
		}

		// 从全量行项重算会话状态
		var session entity.ReceiveSession
		if err := tx.Preload("Details").Where("id = ?", detail.SessionID).First(&session).Error; err != nil {
			return err
		}
		newStatus := entity.DeriveReceiveSessionStatus(session.Details)
		if newStatus != session.Status {
			if err := tx.Model(&entity.ReceiveSession{}).
				Where("id = ?", session.ID).
				Update("status", newStatus).Error; err != nil {
				return err
			}
		}

		branchID = session.BranchID
		result = ProcessReceiveItemResult{
			NewQuantityReceived: detail.QuantityReceived,
			IsComplete:          detail.Status == entity.ReceiveDetailStatusCompleted,
			DetailStatus:        detail.Status,
			SessionStatus:       newStatus,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 库区推荐是尽力而为的摆放建议，失败不影响收货
	if zone, zerr := s.zonePick.Recommend(ctx, branchID); zerr == nil && zone != nil {
		result.RecommendedZone = zone
		if perr := s.db.WithContext(ctx).Model(&entity.ReceiveSessionDetail{}).
			Where("id = ?", detailID).
			Update("recommended_zone_id", zone.ID).Error; perr != nil {
			s.logger.Warn("库区推荐写入失败",
				zap.String("detail_id", detailID),
				zap.Error(perr),
			)
		}
	}

	return &result, nil
}

// ReturnFromReceiveResult 收货转退货返回
type ReturnFromReceiveResult struct {
	ReturnRequestID string          `json:"return_request_id"`
	Code            string          `json:"code"`
	ExpectedCredit  decimal.Decimal `json:"expected_credit"`
	DetailStatus    string          `json:"detail_status"`
	SessionStatus   string          `json:"session_status"`
}

// CreateReturnFromReceiveSession 将收货差异转为供应商退货申请
// 预期退款 = 退货数量 × 当时成本价（快照，后续成本变动不回溯），
// 行项转入 return_requested 终态。
func (s *ReceiveService) CreateReturnFromReceiveSession(ctx context.Context, orgID, userID, detailID string, quantityToReturn float64, reason, notes string) (*ReturnFromReceiveResult, error) {
	if quantityToReturn <= 0 {
		return nil, ValidationErr("退货数量必须大于0")
	}

	detail, err := s.sessions.FindDetailByID(ctx, detailID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundErr("收货行项不存在: %s", detailID)
		}
		return nil, err
	}
	if !entity.CanTransitionReceiveDetail(detail.Status, entity.ReceiveDetailStatusReturnRequested) {
		return nil, InvalidStateErr("行项 %s 当前状态为 %s，不能转退货", detail.SKUCode, detail.Status)
	}

	session, err := s.sessions.FindByID(ctx, detail.SessionID)
	if err != nil {
		return nil, err
	}
	po, err := s.poRepo.FindByID(ctx, session.PurchaseOrderID)
	if err != nil {
		return nil, err
	}

	variant, err := s.catalog.FindVariantByID(ctx, detail.VariantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundErr("商品变体不存在: %s", detail.VariantID)
		}
		return nil, err
	}

	credit := variant.CostPrice.Mul(decimal.NewFromFloat(quantityToReturn))
	loc := s.catalog.BranchLocation(ctx, session.BranchID)

	var result *ReturnFromReceiveResult
	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		code, cerr := s.code.NextCode(ctx, &entity.ReturnRequest{}, repository.CodePrefixReturnRequest, session.BranchID, loc)
		if cerr != nil {
			return nil, cerr
		}

		rr := &entity.ReturnRequest{
			ID:          uuid.New().String()[:32],
			Code:        code,
			OrgID:       orgID,
			BranchID:    session.BranchID,
			SupplierID:  po.SupplierID,
			RequestedBy: userID,
			RequestedAt: time.Now(),
			Status:      entity.ReturnStatusPending,
			Notes:       notes,
			Details: []entity.ReturnRequestDetail{{
				ID:             uuid.New().String()[:32],
				VariantID:      variant.ID,
				SKUCode:        variant.SKUCode,
				BatchNo:        "", // 收货前发起，尚无批次
				Quantity:       quantityToReturn,
				Reason:         reason,
				UnitCost:       variant.CostPrice,
				ExpectedCredit: credit,
				Notes:          notes,
			}},
		}
		rr.Details[0].ReturnRequestID = rr.ID

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(rr).Error; err != nil {
				return err
			}
			if err := tx.Model(&entity.ReceiveSessionDetail{}).
				Where("id = ?", detail.ID).
				Update("status", entity.ReceiveDetailStatusReturnRequested).Error; err != nil {
				return err
			}

			var fresh entity.ReceiveSession
			if err := tx.Preload("Details").Where("id = ?", session.ID).First(&fresh).Error; err != nil {
				return err
			}
			newStatus := entity.DeriveReceiveSessionStatus(fresh.Details)
			if newStatus != fresh.Status {
				if err := tx.Model(&entity.ReceiveSession{}).
					Where("id = ?", fresh.ID).
					Update("status", newStatus).Error; err != nil {
					return err
				}
			}

			result = &ReturnFromReceiveResult{
				ReturnRequestID: rr.ID,
				Code:            rr.Code,
				ExpectedCredit:  credit,
				DetailStatus:    entity.ReceiveDetailStatusReturnRequested,
				SessionStatus:   newStatus,
			}
			return nil
		})
		if err == nil {
			break
		}
		if !repository.IsDuplicateKey(err) {
			return nil, err
		}
		result = nil
	}
	if result == nil {
		return nil, ConflictErr("退货单编码生成冲突，请重试")
	}

	s.logger.Info("收货差异已转退货",
		zap.String("return_code", result.Code),
		zap.String("sku", detail.SKUCode),
		zap.Float64("quantity", quantityToReturn),
	)
	return result, nil
}

// CompleteReceiveSessionResult 完成收货会话返回
type CompleteReceiveSessionResult struct {
	SessionStatus       string `json:"session_status"`
	PurchaseOrderStatus string `json:"purchase_order_status"`
	WorkSessionID       string `json:"work_session_id,omitempty"`
}

// CompleteReceiveSession 完成收货会话
// 常规路径要求所有行项已收完或已转退货；force 允许提前/人工结账
// （操作员接受短装作为终态的逃生通道）。完成时会话、采购单、作业会话一并收口。
func (s *ReceiveService) CompleteReceiveSession(ctx context.Context, sessionID string, verifiedBy *string, force bool) (*CompleteReceiveSessionResult, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundErr("收货会话不存在: %s", sessionID)
		}
		return nil, err
	}
	if session.Status == entity.ReceiveSessionStatusCompleted {
		return nil, InvalidStateErr("收货会话 %s 已完成", session.Code)
	}

	if !force && !entity.AllReceiveDetailsHandled(session.Details) {
		return nil, InvalidStateErr("收货会话 %s 仍有行项未处理，不能完成（如需提前结账请使用强制完成）", session.Code)
	}

	// 会话、采购单、作业会话在同一事务内翻转，要么一起生效要么一起回滚
	now := time.Now()
	var ws *entity.WorkSession
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.ReceiveSession{}).
			Where("id = ?", session.ID).
			Updates(map[string]interface{}{
				"status":       entity.ReceiveSessionStatusCompleted,
				"completed_at": now,
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&entity.PurchaseOrder{}).
			Where("id = ?", session.PurchaseOrderID).
			Update("status", entity.POStatusReceived).Error; err != nil {
			return err
		}

		var werr error
		ws, werr = s.workSvc.CompleteByRefTx(ctx, tx, entity.WorkSessionRefReceiveSession, session.ID, verifiedBy)
		return werr
	})
	if err != nil {
		return nil, err
	}

	result := &CompleteReceiveSessionResult{
		SessionStatus:       entity.ReceiveSessionStatusCompleted,
		PurchaseOrderStatus: entity.POStatusReceived,
	}
	if ws != nil {
		result.WorkSessionID = ws.ID
	}

	s.logger.Info("收货会话已完成",
		zap.String("session_code", session.Code),
		zap.Bool("force", force),
	)
	return result, nil
}

// UpdateSessionStatus 显式覆盖会话状态（管理口径）
func (s *ReceiveService) UpdateSessionStatus(ctx context.Context, sessionID, status string) (*entity.ReceiveSession, error) {
	switch status {
	case entity.ReceiveSessionStatusPending, entity.ReceiveSessionStatusInProgress, entity.ReceiveSessionStatusCompleted:
	default:
		return nil, ValidationErr("非法的会话状态: %s", status)
	}

	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.UpdateStatus(ctx, session.ID, status); err != nil {
		return nil, err
	}
	session.Status = status
	return session, nil
}

// SaveSessionState 保存中途状态（暂停点）
// 行项数据本就实时落库，这里只做一次状态校准并盖时间戳，
// 让操作员可以离开页面稍后继续。
func (s *ReceiveService) SaveSessionState(ctx context.Context, sessionID string) (*entity.ReceiveSession, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	derived := entity.DeriveReceiveSessionStatus(session.Details)
	if derived != session.Status && session.Status != entity.ReceiveSessionStatusCompleted {
		if err := s.sessions.UpdateStatus(ctx, session.ID, derived); err != nil {
			return nil, err
		}
		session.Status = derived
	}

	s.logger.Info("收货会话状态已保存",
		zap.String("session_code", session.Code),
		zap.String("status", session.Status),
	)
	return session, nil
}

// Get 收货会话详情（含行项）
func (s *ReceiveService) Get(ctx context.Context, sessionID string) (*entity.ReceiveSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundErr("收货会话不存在: %s", sessionID)
		}
		return nil, err
	}
	return session, nil
}

// ReceiveSessionDetailed 会话详情（带源采购单），操作员界面一次取全
type ReceiveSessionDetailed struct {
	Session       *entity.ReceiveSession `json:"session"`
	PurchaseOrder *entity.PurchaseOrder  `json:"purchase_order"`
}

// GetDetailed 会话+源采购单
func (s *ReceiveService) GetDetailed(ctx context.Context, sessionID string) (*ReceiveSessionDetailed, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	po, err := s.poRepo.FindByID(ctx, session.PurchaseOrderID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return &ReceiveSessionDetailed{Session: session, PurchaseOrder: po}, nil
}

// ReceiveSessionProgress 会话进度（读时计算，不落库）
type ReceiveSessionProgress struct {
	SessionID        string  `json:"session_id"`
	Status           string  `json:"status"`
	TotalItems       int     `json:"total_items"`
	CompletedItems   int     `json:"completed_items"`
	ReturnRequested  int     `json:"return_requested"`
	QuantityExpected float64 `json:"quantity_expected"`
	QuantityReceived float64 `json:"quantity_received"`
	ProgressPercent  float64 `json:"progress_percent"`
	AllItemsHandled  bool    `json:"all_items_handled"`
}

// GetProgress 收货进度
func (s *ReceiveService) GetProgress(ctx context.Context, sessionID string) (*ReceiveSessionProgress, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	p := &ReceiveSessionProgress{
		SessionID:       session.ID,
		Status:          session.Status,
		TotalItems:      len(session.Details),
		AllItemsHandled: entity.AllReceiveDetailsHandled(session.Details),
	}
	handled := 0
	for _, d := range session.Details {
		p.QuantityExpected += d.QuantityExpected
		p.QuantityReceived += d.QuantityReceived
		switch d.Status {
		case entity.ReceiveDetailStatusCompleted:
			p.CompletedItems++
			handled++
		case entity.ReceiveDetailStatusReturnRequested:
			p.ReturnRequested++
			handled++
		}
	}
	p.ProgressPercent = entity.ProgressPercent(handled, p.TotalItems)
	return p, nil
}

// List 按分支查询收货会话
func (s *ReceiveService) List(ctx context.Context, branchID, status string, page, pageSize int) ([]entity.ReceiveSession, int64, error) {
	return s.sessions.FindAll(ctx, branchID, status, page, pageSize)
}
