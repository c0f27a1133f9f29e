package service

import (
	"context"
	"testing"

	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/repository"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/testutil"
)

// TestEnsureWorkSessionIdempotent 同一业务引用重复绑定返回同一作业会话
func TestEnsureWorkSessionIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewWorkSessionService(repos.WorkSession, repos.Catalog, repos.Code)
	ctx := context.Background()

	testutil.SeedTestBranch(t, db, "branch-001", "上海一仓")

	ws1, err := svc.EnsureWorkSession(ctx, "org-001", "branch-001",
		entity.WorkSessionTypeInbound, entity.WorkSessionRefReceiveSession, "rs-0001", "user-001")
	if err != nil {
		t.Fatalf("EnsureWorkSession failed: %v", err)
	}
	if ws1.Status != entity.WorkSessionStatusInProgress {
		t.Fatalf("expected in_progress, got %s", ws1.Status)
	}

	ws2, err := svc.EnsureWorkSession(ctx, "org-001", "branch-001",
		entity.WorkSessionTypeInbound, entity.WorkSessionRefReceiveSession, "rs-0001", "user-002")
	if err != nil {
		t.Fatalf("EnsureWorkSession failed: %v", err)
	}
	if ws2.ID != ws1.ID {
		t.Fatalf("expected same work session, got %s vs %s", ws2.ID, ws1.ID)
	}

	// 不同引用绑定新会话
	ws3, err := svc.EnsureWorkSession(ctx, "org-001", "branch-001",
		entity.WorkSessionTypeInbound, entity.WorkSessionRefReceiveSession, "rs-0002", "user-001")
	if err != nil {
		t.Fatalf("EnsureWorkSession failed: %v", err)
	}
	if ws3.ID == ws1.ID {
		t.Fatal("expected a new work session for a different ref")
	}
}

// TestCompleteWorkSession 完成盖章，重复完成幂等
func TestCompleteWorkSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewWorkSessionService(repos.WorkSession, repos.Catalog, repos.Code)
	ctx := context.Background()

	testutil.SeedTestBranch(t, db, "branch-001", "上海一仓")

	ws, err := svc.EnsureWorkSession(ctx, "org-001", "branch-001",
		entity.WorkSessionTypeCycleCount, entity.WorkSessionRefZoneAssignment, "za-0001", "user-001")
	if err != nil {
		t.Fatalf("EnsureWorkSession failed: %v", err)
	}

	verifier := "user-009"
	done, err := svc.Complete(ctx, ws.ID, &verifier)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if done.Status != entity.WorkSessionStatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}
	if done.CompletedAt == nil || done.VerifiedAt == nil {
		t.Fatal("expected completion and verification timestamps")
	}
	if done.VerifiedBy == nil || *done.VerifiedBy != verifier {
		t.Fatalf("expected verifier %s, got %v", verifier, done.VerifiedBy)
	}
	firstCompletedAt := *done.CompletedAt

	// 重复完成不改时间戳
	again, err := svc.Complete(ctx, ws.ID, nil)
	if err != nil {
		t.Fatalf("second Complete failed: %v", err)
	}
	if !again.CompletedAt.Equal(firstCompletedAt) {
		t.Fatal("repeat completion should not re-stamp completed_at")
	}

	// 未绑定引用的 CompleteByRef 静默跳过
	none, err := svc.CompleteByRef(ctx, entity.WorkSessionRefZoneAssignment, "za-missing", nil)
	if err != nil {
		t.Fatalf("CompleteByRef failed: %v", err)
	}
	if none != nil {
		t.Fatal("expected nil for unbound ref")
	}
}

// TestLookupEnsureFirstWriterWins 字典 ensure 语义：先写者文案保留
func TestLookupEnsureFirstWriterWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewLookupService(repos.Lookup, nil)
	ctx := context.Background()

	id1, err := svc.EnsureLookup(ctx, entity.LookupTypeReturnStatus, "custom_status", "自定义状态", "")
	if err != nil {
		t.Fatalf("EnsureLookup failed: %v", err)
	}

	id2, err := svc.EnsureLookup(ctx, entity.LookupTypeReturnStatus, "custom_status", "另一个文案", "")
	if err != nil {
		t.Fatalf("second EnsureLookup failed: %v", err)
	}
	if id2 != id1 {
		t.Fatalf("expected same lookup id, got %s vs %s", id2, id1)
	}

	l, err := repos.Lookup.FindByTypeCode(ctx, entity.LookupTypeReturnStatus, "custom_status")
	if err != nil {
		t.Fatalf("FindByTypeCode failed: %v", err)
	}
	if l.LookupValue != "自定义状态" {
		t.Fatalf("expected first writer's label, got %s", l.LookupValue)
	}

	// 查不存在的枚举返回空串而不是错误
	missing, err := svc.GetLookup(ctx, entity.LookupTypeReturnStatus, "never_seeded")
	if err != nil {
		t.Fatalf("GetLookup failed: %v", err)
	}
	if missing != "" {
		t.Fatalf("expected empty id for missing lookup, got %s", missing)
	}

	// SeedDefaults 幂等
	if err := svc.SeedDefaults(ctx); err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}
	if err := svc.SeedDefaults(ctx); err != nil {
		t.Fatalf("repeat SeedDefaults failed: %v", err)
	}
}
