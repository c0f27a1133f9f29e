package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/repository"
)

// PurchaseOrderService 采购单服务
// 行项收货数量由收货会话回写，这里不直接改
type PurchaseOrderService struct {
	poRepo  *repository.PurchaseOrderRepository
	catalog *repository.CatalogRepository
	code    *repository.CodeGenerator
}

func NewPurchaseOrderService(poRepo *repository.PurchaseOrderRepository, catalog *repository.CatalogRepository, code *repository.CodeGenerator) *PurchaseOrderService {
	return &PurchaseOrderService{poRepo: poRepo, catalog: catalog, code: code}
}

// CreatePurchaseOrderRequest 创建采购单请求
type CreatePurchaseOrderRequest struct {
	BranchID           string     `json:"branch_id" binding:"required"`
	SupplierID         string     `json:"supplier_id" binding:"required"`
	ExpectedDeliveryAt *time.Time `json:"expected_delivery_at"`
	Notes              string     `json:"notes"`
	Lines              []CreatePOLine `json:"lines" binding:"required"`
}

type CreatePOLine struct {
	VariantID string  `json:"variant_id" binding:"required"`
	Quantity  float64 `json:"quantity" binding:"required"`
}

// Create 创建采购单
func (s *PurchaseOrderService) Create(ctx context.Context, orgID, userID string, req *CreatePurchaseOrderRequest) (*entity.PurchaseOrder, error) {
	if len(req.Lines) == 0 {
		return nil, ValidationErr("采购单至少需要一个行项")
	}

	lines := make([]entity.PurchaseOrderLine, 0, len(req.Lines))
	for i, l := range req.Lines {
		if l.Quantity <= 0 {
			return nil, ValidationErr("行项 %d 的订购数量必须大于0", i+1)
		}
		variant, err := s.catalog.FindVariantByID(ctx, l.VariantID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, NotFoundErr("商品变体不存在: %s", l.VariantID)
			}
			return nil, err
		}
		lines = append(lines, entity.PurchaseOrderLine{
			ID:              uuid.New().String()[:32],
			VariantID:       variant.ID,
			SKUCode:         variant.SKUCode,
			QuantityOrdered: l.Quantity,
			SortOrder:       i + 1,
		})
	}

	loc := s.catalog.BranchLocation(ctx, req.BranchID)

	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		code, err := s.code.NextCode(ctx, &entity.PurchaseOrder{}, repository.CodePrefixPurchaseOrder, req.BranchID, loc)
		if err != nil {
			return nil, err
		}

		po := &entity.PurchaseOrder{
			ID:                 uuid.New().String()[:32],
			Code:               code,
			OrgID:              orgID,
			BranchID:           req.BranchID,
			SupplierID:         req.SupplierID,
			Status:             entity.POStatusPending,
			OrderedAt:          time.Now(),
			ExpectedDeliveryAt: req.ExpectedDeliveryAt,
			CreatedBy:          userID,
			Notes:              req.Notes,
		}
		for i := range lines {
			lines[i].PurchaseOrderID = po.ID
		}
		po.Lines = lines

		err = s.poRepo.Create(ctx, po)
		if err == nil {
			return po, nil
		}
		if !repository.IsDuplicateKey(err) {
			return nil, err
		}
	}

	return nil, ConflictErr("采购单编码生成冲突，请重试")
}

// Get 采购单详情
func (s *PurchaseOrderService) Get(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundErr("采购单不存在: %s", id)
		}
		return nil, err
	}
	return po, nil
}

// List 按分支查询采购单
func (s *PurchaseOrderService) List(ctx context.Context, branchID string, page, pageSize int, filters map[string]string) ([]entity.PurchaseOrder, int64, error) {
	return s.poRepo.FindAll(ctx, branchID, page, pageSize, filters)
}

// Cancel 取消采购单，仅待收货状态可取消
func (s *PurchaseOrderService) Cancel(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if po.Status != entity.POStatusPending {
		return nil, InvalidStateErr("采购单 %s 当前状态为 %s，仅待收货状态可取消", po.Code, po.Status)
	}

	po.Status = entity.POStatusCancelled
	if err := s.poRepo.UpdateStatus(ctx, po.ID, entity.POStatusCancelled); err != nil {
		return nil, err
	}
	return po, nil
}
