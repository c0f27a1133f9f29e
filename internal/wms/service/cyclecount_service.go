package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 临时批次ID前缀：扫描到快照外的货品时由前端生成，落库时物化为真实行项
const syntheticBatchPrefix = "batch-"

// CycleCountService 盘点会话服务
// 会话按库区拆分为分区任务，分区完成硬性要求全部行项已扫描，
// 最后一个分区完成时会话自动收口。
type CycleCountService struct {
	db      *gorm.DB
	repo    *repository.CycleCountRepository
	catalog *repository.CatalogRepository
	zones   *repository.ZoneRepository
	code    *repository.CodeGenerator
	workSvc *WorkSessionService
	logger  *zap.Logger
}

func NewCycleCountService(
	db *gorm.DB,
	repo *repository.CycleCountRepository,
	catalog *repository.CatalogRepository,
	zones *repository.ZoneRepository,
	code *repository.CodeGenerator,
	workSvc *WorkSessionService,
	logger *zap.Logger,
) *CycleCountService {
	return &CycleCountService{
		db:      db,
		repo:    repo,
		catalog: catalog,
		zones:   zones,
		code:    code,
		workSvc: workSvc,
		logger:  logger,
	}
}

// CreateCycleCountRequest 创建盘点会话请求
// 期望数量由调用方提供（创建时刻的库存快照），盘点过程中不跟随库存变动。
type CreateCycleCountRequest struct {
	BranchID string                 `json:"branch_id" binding:"required"`
	Name     string                 `json:"name" binding:"required"`
	Type     string                 `json:"type" binding:"required"`
	Zones    []CreateCycleCountZone `json:"zones" binding:"required"`
}

type CreateCycleCountZone struct {
	ZoneID         string                 `json:"zone_id" binding:"required"`
	AssignedUserID string                 `json:"assigned_user_id"`
	Items          []CreateCycleCountItem `json:"items"`
}

type CreateCycleCountItem struct {
	VariantID        string  `json:"variant_id" binding:"required"`
	BatchID          *string `json:"batch_id"`
	QuantityExpected float64 `json:"quantity_expected"`
}

// CreateSession 创建盘点会话
func (s *CycleCountService) CreateSession(ctx context.Context, orgID, userID string, req *CreateCycleCountRequest) (*entity.CycleCountSession, error) {
	switch req.Type {
	case entity.CycleCountTypeDaily, entity.CycleCountTypeWeekly,
		entity.CycleCountTypeMonthly, entity.CycleCountTypeQuarterly:
	default:
		return nil, ValidationErr("非法的盘点类型: %s", req.Type)
	}
	if len(req.Zones) == 0 {
		return nil, ValidationErr("盘点会话至少需要一个分区")
	}
	for _, z := range req.Zones {
		for _, it := range z.Items {
			if it.QuantityExpected < 0 {
				return nil, ValidationErr("期望数量不能为负")
			}
		}
	}

	loc := s.catalog.BranchLocation(ctx, req.BranchID)

	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		code, err := s.code.NextCode(ctx, &entity.CycleCountSession{}, repository.CodePrefixCycleCount, req.BranchID, loc)
		if err != nil {
			return nil, err
		}

		session := &entity.CycleCountSession{
			ID:        uuid.New().String()[:32],
			Code:      code,
			Name:      req.Name,
			Type:      req.Type,
			OrgID:     orgID,
			BranchID:  req.BranchID,
			Status:    entity.CycleCountStatusPending,
			CreatedBy: userID,
		}

		for _, z := range req.Zones {
			assignment := entity.ZoneAssignment{
				ID:             uuid.New().String()[:32],
				SessionID:      session.ID,
				ZoneID:         z.ZoneID,
				AssignedUserID: z.AssignedUserID,
				Status:         entity.CycleCountStatusPending,
			}
			for _, it := range z.Items {
				variant, verr := s.catalog.FindVariantByID(ctx, it.VariantID)
				if verr != nil {
					if errors.Is(verr, repository.ErrNotFound) {
						return nil, NotFoundErr("商品变体不存在: %s", it.VariantID)
					}
					return nil, verr
				}
				assignment.Items = append(assignment.Items, entity.CycleCountItem{
					ID:               uuid.New().String()[:32],
					AssignmentID:     assignment.ID,
					SessionID:        session.ID,
					ZoneID:           z.ZoneID,
					VariantID:        variant.ID,
					SKUCode:          variant.SKUCode,
					BatchID:          it.BatchID,
					QuantityExpected: it.QuantityExpected,
				})
			}
			session.Zones = append(session.Zones, assignment)
		}

		err = s.repo.CreateSession(ctx, session)
		if err == nil {
			s.logger.Info("盘点会话已创建",
				zap.String("session_code", session.Code),
				zap.Int("zone_count", len(session.Zones)),
			)
			return session, nil
		}
		if !repository.IsDuplicateKey(err) {
			return nil, err
		}
	}

	return nil, ConflictErr("盘点会话编码生成冲突，请重试")
}

// StartZoneAssignmentResult 开始分区盘点返回
type StartZoneAssignmentResult struct {
	AssignmentID  string `json:"assignment_id"`
	Status        string `json:"status"`
	SessionStatus string `json:"session_status"`
	WorkSessionID string `json:"work_session_id"`
	ItemCount     int    `json:"item_count"`
}

// StartZoneAssignment 开始分区盘点
// 绑定作业会话（幂等），分区与会话进入盘点中。重复开始是无害的。
func (s *CycleCountService) StartZoneAssignment(ctx context.Context, orgID, userID, assignmentID string) (*StartZoneAssignmentResult, error) {
	assignment, err := s.repo.FindAssignmentByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundErr("盘点分区不存在: %s", assignmentID)
		}
		return nil, err
	}
	if assignment.Status == entity.CycleCountStatusCompleted {
		return nil, InvalidStateErr("盘点分区已完成，不能重新开始")
	}

	session, err := s.repo.FindSessionByID(ctx, assignment.SessionID)
	if err != nil {
		return nil, err
	}

	ws, err := s.workSvc.EnsureWorkSession(ctx, orgID, session.BranchID,
		entity.WorkSessionTypeCycleCount, entity.WorkSessionRefZoneAssignment, assignment.ID, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if assignment.Status == entity.CycleCountStatusPending {
		assignment.Status = entity.CycleCountStatusInProgress
		assignment.StartedAt = &now
		if assignment.AssignedUserID == "" {
			assignment.AssignedUserID = userID
		}
		if err := s.repo.UpdateAssignment(ctx, assignment); err != nil {
			return nil, err
		}
	}
	if session.Status == entity.CycleCountStatusPending {
		session.Status = entity.CycleCountStatusInProgress
		if err := s.repo.UpdateSession(ctx, session); err != nil {
			return nil, err
		}
	}

	return &StartZoneAssignmentResult{
		AssignmentID:  assignment.ID,
		Status:        assignment.Status,
		SessionStatus: session.Status,
		WorkSessionID: ws.ID,
		ItemCount:     len(assignment.Items),
	}, nil
}

// RecordCountRequest 记录盘点请求
// ItemID 为临时批次ID（batch- 前缀）时需携带定位字段，落库时物化为新行项。
type RecordCountRequest struct {
	ItemID         string  `json:"item_id" binding:"required"`
	QuantityActual float64 `json:"quantity_actual"`
	Notes          string  `json:"notes"`

	// 临时批次物化所需
	AssignmentID string  `json:"assignment_id"`
	VariantID    string  `json:"variant_id"`
	BatchID      *string `json:"batch_id"`
}

// RecordCountResult 记录盘点返回
type RecordCountResult struct {
	ItemID       string              `json:"item_id"`
	Variance     float64             `json:"variance"`
	ZoneProgress entity.ZoneProgress `json:"zone_progress"`
}

// RecordLineItemCount 记录一条盘点结果
// 每个行项恰好记录一次，重复扫描报错（盘点是快照核对，不是累加）。
// 差异 = 实盘 − 期望，有符号保存。
func (s *CycleCountService) RecordLineItemCount(ctx context.Context, userID string, req *RecordCountRequest) (*RecordCountResult, error) {
	if req.QuantityActual < 0 {
		return nil, ValidationErr("实盘数量不能为负")
	}

	var item *entity.CycleCountItem

	if strings.HasPrefix(req.ItemID, syntheticBatchPrefix) {
		materialized, err := s.materializeItem(ctx, req)
		if err != nil {
			return nil, err
		}
		item = materialized
	} else {
		found, err := s.repo.FindItemByID(ctx, req.ItemID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, NotFoundErr("盘点行项不存在: %s", req.ItemID)
			}
			return nil, err
		}
		item = found
	}

	if item.IsScanned {
		return nil, InvalidStateErr("行项 %s 已盘点，不能重复记录", item.SKUCode)
	}

	now := time.Now()
	item.QuantityActual = req.QuantityActual
	item.Variance = req.QuantityActual - item.QuantityExpected
	item.IsScanned = true
	item.ScannedAt = &now
	item.ScannedBy = userID
	if req.Notes != "" {
		item.Notes = req.Notes
	}

	if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, err
	}

	assignment, err := s.repo.FindAssignmentByID(ctx, item.AssignmentID)
	if err != nil {
		return nil, err
	}

	return &RecordCountResult{
		ItemID:       item.ID,
		Variance:     item.Variance,
		ZoneProgress: entity.ComputeZoneProgress(assignment),
	}, nil
}

// materializeItem 把扫描到的快照外货品物化为盘点行项，期望数量记 0
func (s *CycleCountService) materializeItem(ctx context.Context, req *RecordCountRequest) (*entity.CycleCountItem, error) {
	if req.AssignmentID == "" || req.VariantID == "" {
		return nil, ValidationErr("快照外货品需提供 assignment_id 和 variant_id")
	}

	assignment, err := s.repo.FindAssignmentByID(ctx, req.AssignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundErr("盘点分区不存在: %s", req.AssignmentID)
		}
		return nil, err
	}
	if assignment.Status == entity.CycleCountStatusCompleted {
		return nil, InvalidStateErr("盘点分区已完成，不能追加行项")
	}

	variant, err := s.catalog.FindVariantByID(ctx, req.VariantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundErr("商品变体不存在: %s", req.VariantID)
		}
		return nil, err
	}

	item := &entity.CycleCountItem{
		ID:               uuid.New().String()[:32],
		AssignmentID:     assignment.ID,
		SessionID:        assignment.SessionID,
		ZoneID:           assignment.ZoneID,
		VariantID:        variant.ID,
		SKUCode:          variant.SKUCode,
		BatchID:          req.BatchID,
		QuantityExpected: 0,
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// CompleteZoneResult 完成分区返回
type CompleteZoneResult struct {
	AssignmentID     string                 `json:"assignment_id"`
	Status           string                 `json:"status"`
	SessionCompleted bool                   `json:"session_completed"`
	SessionProgress  entity.SessionProgress `json:"session_progress"`
	WorkSessionID    string                 `json:"work_session_id,omitempty"`
}

// CompleteZoneAssignment 完成分区盘点
// 硬性门槛：分区内全部行项已扫描。最后一个分区完成时会话自动翻转为已完成。
func (s *CycleCountService) CompleteZoneAssignment(ctx context.Context, assignmentID string, verifiedBy *string) (*CompleteZoneResult, error) {
	assignment, err := s.repo.FindAssignmentByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundErr("盘点分区不存在: %s", assignmentID)
		}
		return nil, err
	}
	if assignment.Status == entity.CycleCountStatusCompleted {
		return nil, InvalidStateErr("盘点分区已完成")
	}
	if !entity.AllItemsScanned(assignment.Items) {
		return nil, InvalidStateErr("分区仍有行项未盘点，不能完成")
	}

	// 分区、会话、作业会话在同一事务内翻转
	now := time.Now()
	sessionCompleted := false
	var session *entity.CycleCountSession
	var ws *entity.WorkSession

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.ZoneAssignment{}).
			Where("id = ?", assignment.ID).
			Updates(map[string]interface{}{
				"status":       entity.CycleCountStatusCompleted,
				"completed_at": now,
			}).Error; err != nil {
			return err
		}

		var fresh entity.CycleCountSession
		if err := tx.Preload("Zones").Where("id = ?", assignment.SessionID).First(&fresh).Error; err != nil {
			return err
		}

		allDone := len(fresh.Zones) > 0
		for _, z := range fresh.Zones {
			if z.Status != entity.CycleCountStatusCompleted {
				allDone = false
				break
			}
		}
		if allDone && fresh.Status != entity.CycleCountStatusCompleted {
			if err := tx.Model(&entity.CycleCountSession{}).
				Where("id = ?", fresh.ID).
				Updates(map[string]interface{}{
					"status":       entity.CycleCountStatusCompleted,
					"completed_at": now,
				}).Error; err != nil {
				return err
			}
			sessionCompleted = true
		}

		var werr error
		ws, werr = s.workSvc.CompleteByRefTx(ctx, tx, entity.WorkSessionRefZoneAssignment, assignment.ID, verifiedBy)
		return werr
	})
	if err != nil {
		return nil, err
	}

	result := &CompleteZoneResult{
		AssignmentID: assignment.ID,
		Status:       entity.CycleCountStatusCompleted,
	}
	if ws != nil {
		result.WorkSessionID = ws.ID
	}

	session, err = s.repo.FindSessionByID(ctx, assignment.SessionID)
	if err != nil {
		return nil, err
	}
	result.SessionCompleted = sessionCompleted
	result.SessionProgress = entity.ComputeSessionProgress(session)

	s.logger.Info("盘点分区已完成",
		zap.String("assignment_id", assignment.ID),
		zap.Bool("session_completed", sessionCompleted),
	)
	return result, nil
}

// CycleCountSessionView 盘点会话视图（含分区/行项与进度）
type CycleCountSessionView struct {
	Session  *entity.CycleCountSession `json:"session"`
	Zones    []entity.ZoneProgress     `json:"zone_progress"`
	Progress entity.SessionProgress    `json:"progress"`
}

// GetSessionForProceed 继续盘点所需的完整会话视图
func (s *CycleCountService) GetSessionForProceed(ctx context.Context, sessionID string) (*CycleCountSessionView, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundErr("盘点会话不存在: %s", sessionID)
		}
		return nil, err
	}

	view := &CycleCountSessionView{
		Session:  session,
		Progress: entity.ComputeSessionProgress(session),
	}
	for i := range session.Zones {
		view.Zones = append(view.Zones, entity.ComputeZoneProgress(&session.Zones[i]))
	}
	return view, nil
}

// ListSessions 按分支查询盘点会话
func (s *CycleCountService) ListSessions(ctx context.Context, branchID, status string, page, pageSize int) ([]entity.CycleCountSession, int64, error) {
	return s.repo.FindAllSessions(ctx, branchID, status, page, pageSize)
}
