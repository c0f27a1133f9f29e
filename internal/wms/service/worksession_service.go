package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/repository"
	"gorm.io/gorm"
)

const codeGenAttempts = 3

// WorkSessionService 作业会话服务
type WorkSessionService struct {
	repo    *repository.WorkSessionRepository
	catalog *repository.CatalogRepository
	code    *repository.CodeGenerator
}

func NewWorkSessionService(repo *repository.WorkSessionRepository, catalog *repository.CatalogRepository, code *repository.CodeGenerator) *WorkSessionService {
	return &WorkSessionService{repo: repo, catalog: catalog, code: code}
}

// EnsureWorkSession 幂等的查找或创建：同一业务引用只会有一个作业会话
func (s *WorkSessionService) EnsureWorkSession(ctx context.Context, orgID, branchID, sessionType, refType, refID, assignedUserID string) (*entity.WorkSession, error) {
	existing, err := s.repo.FindByRef(ctx, refType, refID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	loc := s.catalog.BranchLocation(ctx, branchID)

	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		code, err := s.code.NextCode(ctx, &entity.WorkSession{}, repository.CodePrefixWorkSession, branchID, loc)
		if err != nil {
			return nil, err
		}

		ws := &entity.WorkSession{
			ID:             uuid.New().String()[:32],
			Code:           code,
			OrgID:          orgID,
			BranchID:       branchID,
			Type:           sessionType,
			RefType:        refType,
			RefID:          refID,
			AssignedUserID: assignedUserID,
			Status:         entity.WorkSessionStatusInProgress,
			StartedAt:      time.Now(),
		}

		err = s.repo.Create(ctx, ws)
		if err == nil {
			return ws, nil
		}
		if !repository.IsDuplicateKey(err) {
			return nil, err
		}

		// 冲突可能来自并发绑定同一引用，复用已有会话；否则重算编码序号
		again, ferr := s.repo.FindByRef(ctx, refType, refID)
		if ferr != nil {
			return nil, ferr
		}
		if again != nil {
			return again, nil
		}
	}

	return nil, ConflictErr("作业会话编码生成冲突，请重试")
}

// Complete 完成作业会话并盖章，可附校验人
func (s *WorkSessionService) Complete(ctx context.Context, id string, verifiedBy *string) (*entity.WorkSession, error) {
	return s.complete(ctx, s.repo, id, verifiedBy)
}

func (s *WorkSessionService) complete(ctx context.Context, repo *repository.WorkSessionRepository, id string, verifiedBy *string) (*entity.WorkSession, error) {
	ws, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFoundErr("作业会话不存在: %s", id)
		}
		return nil, err
	}

	if ws.Status == entity.WorkSessionStatusCompleted {
		return ws, nil
	}

	now := time.Now()
	ws.Status = entity.WorkSessionStatusCompleted
	ws.CompletedAt = &now
	if verifiedBy != nil && *verifiedBy != "" {
		ws.VerifiedBy = verifiedBy
		ws.VerifiedAt = &now
	}

	if err := repo.Update(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// CompleteByRef 完成绑定到指定业务记录的作业会话，未绑定则跳过
func (s *WorkSessionService) CompleteByRef(ctx context.Context, refType, refID string, verifiedBy *string) (*entity.WorkSession, error) {
	return s.completeByRef(ctx, s.repo, refType, refID, verifiedBy)
}

// CompleteByRefTx 在给定事务内完成绑定的作业会话，让业务记录和作业会话一起收口
func (s *WorkSessionService) CompleteByRefTx(ctx context.Context, tx *gorm.DB, refType, refID string, verifiedBy *string) (*entity.WorkSession, error) {
	return s.completeByRef(ctx, s.repo.WithTx(tx), refType, refID, verifiedBy)
}

func (s *WorkSessionService) completeByRef(ctx context.Context, repo *repository.WorkSessionRepository, refType, refID string, verifiedBy *string) (*entity.WorkSession, error) {
	ws, err := repo.FindByRef(ctx, refType, refID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, nil
	}
	return s.complete(ctx, repo, ws.ID, verifiedBy)
}

// ListByBranch 按分支查询作业会话
func (s *WorkSessionService) ListByBranch(ctx context.Context, branchID, sessionType string, page, pageSize int) ([]entity.WorkSession, int64, error) {
	return s.repo.FindAll(ctx, branchID, sessionType, page, pageSize)
}
