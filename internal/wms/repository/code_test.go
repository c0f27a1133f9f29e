package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/testutil"
)

// TestNextCodeSequencing 同日同分支序号递增，跨分支互不影响
func TestNextCodeSequencing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	gen := NewCodeGenerator(db)
	ctx := context.Background()

	testutil.SeedTestBranch(t, db, "branch-001", "上海一仓")
	testutil.SeedTestBranch(t, db, "branch-002", "北京一仓")
	testutil.SeedTestSupplier(t, db, "sup-001", "测试供应商A")

	loc, _ := time.LoadLocation("Asia/Shanghai")
	today := time.Now().In(loc).Format("20060102")

	code1, err := gen.NextCode(ctx, &entity.PurchaseOrder{}, CodePrefixPurchaseOrder, "branch-001", loc)
	if err != nil {
		t.Fatalf("NextCode failed: %v", err)
	}
	want1 := fmt.Sprintf("PO-%s-0001", today)
	if code1 != want1 {
		t.Fatalf("expected %s, got %s", want1, code1)
	}

	// 落一条记录后序号推进
	po := &entity.PurchaseOrder{
		ID:         "po-code-test-0001",
		Code:       code1,
		OrgID:      "test-org-001",
		BranchID:   "branch-001",
		SupplierID: "sup-001",
		Status:     entity.POStatusPending,
		OrderedAt:  time.Now(),
	}
	if err := db.Create(po).Error; err != nil {
		t.Fatalf("failed to create PO: %v", err)
	}

	code2, err := gen.NextCode(ctx, &entity.PurchaseOrder{}, CodePrefixPurchaseOrder, "branch-001", loc)
	if err != nil {
		t.Fatalf("NextCode failed: %v", err)
	}
	want2 := fmt.Sprintf("PO-%s-0002", today)
	if code2 != want2 {
		t.Fatalf("expected %s, got %s", want2, code2)
	}

	// 其他分支序号独立
	codeOther, err := gen.NextCode(ctx, &entity.PurchaseOrder{}, CodePrefixPurchaseOrder, "branch-002", loc)
	if err != nil {
		t.Fatalf("NextCode failed: %v", err)
	}
	if codeOther != want1 {
		t.Fatalf("expected branch-002 to start at 0001, got %s", codeOther)
	}

	// 不同前缀互不影响
	codeRS, err := gen.NextCode(ctx, &entity.ReceiveSession{}, CodePrefixReceiveSession, "branch-001", loc)
	if err != nil {
		t.Fatalf("NextCode failed: %v", err)
	}
	wantRS := fmt.Sprintf("RS-%s-0001", today)
	if codeRS != wantRS {
		t.Fatalf("expected %s, got %s", wantRS, codeRS)
	}
}

// TestDuplicateKeyDetection (branch_id, code) 唯一索引冲突可被识别
func TestDuplicateKeyDetection(t *testing.T) {
	db := testutil.SetupTestDB(t)

	testutil.SeedTestBranch(t, db, "branch-001", "上海一仓")
	testutil.SeedTestSupplier(t, db, "sup-001", "测试供应商A")

	po := func(id string) *entity.PurchaseOrder {
		return &entity.PurchaseOrder{
			ID:         id,
			Code:       "PO-20260831-0001",
			OrgID:      "test-org-001",
			BranchID:   "branch-001",
			SupplierID: "sup-001",
			Status:     entity.POStatusPending,
			OrderedAt:  time.Now(),
		}
	}

	if err := db.Create(po("po-dup-0001")).Error; err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	err := db.Create(po("po-dup-0002")).Error
	if err == nil {
		t.Fatal("expected unique violation on duplicate (branch_id, code)")
	}
	if !IsDuplicateKey(err) {
		t.Fatalf("expected IsDuplicateKey to match, got %v", err)
	}
}
