package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/repository"
)

// ReturnService 供应商退货申请服务
// 收货差异触发的退货走 ReceiveService，这里处理独立创建与审批流。
type ReturnService struct {
	repo    *repository.ReturnRequestRepository
	catalog *repository.CatalogRepository
	code    *repository.CodeGenerator
}

func NewReturnService(repo *repository.ReturnRequestRepository, catalog *repository.CatalogRepository, code *repository.CodeGenerator) *ReturnService {
	return &ReturnService{repo: repo, catalog: catalog, code: code}
}

// CreateReturnRequest 独立创建退货申请请求
type CreateReturnRequest struct {
	BranchID   string             `json:"branch_id" binding:"required"`
	SupplierID string             `json:"supplier_id" binding:"required"`
	Notes      string             `json:"notes"`
	Details    []CreateReturnLine `json:"details" binding:"required"`
}

type CreateReturnLine struct {
	VariantID string  `json:"variant_id" binding:"required"`
	BatchNo   string  `json:"batch_no"`
	Quantity  float64 `json:"quantity" binding:"required"`
	Reason    string  `json:"reason"`
	Notes     string  `json:"notes"`
}

// CreateStandalone 独立创建退货申请
// 每行预期退款 = 数量 × 当时成本价（快照）
func (s *ReturnService) CreateStandalone(ctx context.Context, orgID, userID string, req *CreateReturnRequest) (*entity.ReturnRequest, error) {
	if len(req.Details) == 0 {
		return nil, ValidationErr("退货申请至少需要一个行项")
	}

	details := make([]entity.ReturnRequestDetail, 0, len(req.Details))
	for i, l := range req.Details {
		if l.Quantity <= 0 {
			return nil, ValidationErr("行项 %d 的退货数量必须大于0", i+1)
		}
		variant, err := s.catalog.FindVariantByID(ctx, l.VariantID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, NotFoundErr("商品变体不存在: %s", l.VariantID)
			}
			return nil, err
		}
		details = append(details, entity.ReturnRequestDetail{
			ID:             uuid.New().String()[:32],
			VariantID:      variant.ID,
			SKUCode:        variant.SKUCode,
			BatchNo:        l.BatchNo,
			Quantity:       l.Quantity,
			Reason:         l.Reason,
			UnitCost:       variant.CostPrice,
			ExpectedCredit: variant.CostPrice.Mul(decimal.NewFromFloat(l.Quantity)),
			Notes:          l.Notes,
		})
	}

	loc := s.catalog.BranchLocation(ctx, req.BranchID)

	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		code, err := s.code.NextCode(ctx, &entity.ReturnRequest{}, repository.CodePrefixReturnRequest, req.BranchID, loc)
		if err != nil {
			return nil, err
		}

		rr := &entity.ReturnRequest{
			ID:          uuid.New().String()[:32],
			Code:        code,
			OrgID:       orgID,
			BranchID:    req.BranchID,
			SupplierID:  req.SupplierID,
			RequestedBy: userID,
			RequestedAt: time.Now(),
			Status:      entity.ReturnStatusPending,
			Notes:       req.Notes,
		}
		for i := range details {
			details[i].ReturnRequestID = rr.ID
		}
		rr.Details = details

		err = s.repo.Create(ctx, rr)
		if err == nil {
			return rr, nil
		}
		if !repository.IsDuplicateKey(err) {
			return nil, err
		}
	}

	return nil, ConflictErr("退货单编码生成冲突，请重试")
}

// Get 退货申请详情
func (s *ReturnService) Get(ctx context.Context, id string) (*entity.ReturnRequest, error) {
	rr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundErr("退货申请不存在: %s", id)
		}
		return nil, err
	}
	return rr, nil
}

// Approve 审批通过，仅待审批状态可操作
func (s *ReturnService) Approve(ctx context.Context, id string) (*entity.ReturnRequest, error) {
	return s.transition(ctx, id, entity.ReturnStatusApproved)
}

// Reject 驳回，仅待审批状态可操作
func (s *ReturnService) Reject(ctx context.Context, id string) (*entity.ReturnRequest, error) {
	return s.transition(ctx, id, entity.ReturnStatusRejected)
}

func (s *ReturnService) transition(ctx context.Context, id, status string) (*entity.ReturnRequest, error) {
	rr, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rr.Status != entity.ReturnStatusPending {
		return nil, InvalidStateErr("退货申请 %s 当前状态为 %s，仅待审批状态可操作", rr.Code, rr.Status)
	}

	rr.Status = status
	if err := s.repo.Update(ctx, rr); err != nil {
		return nil, err
	}
	return rr, nil
}

// List 按分支查询退货申请
func (s *ReturnService) List(ctx context.Context, branchID string, page, pageSize int, filters map[string]string) ([]entity.ReturnRequest, int64, error) {
	return s.repo.FindAll(ctx, branchID, page, pageSize, filters)
}

// SoftDelete 软删除退货申请，仅待审批状态可删除
func (s *ReturnService) SoftDelete(ctx context.Context, id string) error {
	rr, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if rr.Status != entity.ReturnStatusPending {
		return InvalidStateErr("退货申请 %s 已审批，不能删除", rr.Code)
	}
	return s.repo.SoftDelete(ctx, id)
}
