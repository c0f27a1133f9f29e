package handler

import (
	"net/http"
	"testing"

	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/testutil"
)

// TestPurchaseOrderLifecycle 创建 → 查询 → 取消
func TestPurchaseOrderLifecycle(t *testing.T) {
	env := setupReceiveTest(t)
	token := testutil.DefaultTestToken()

	testutil.SeedTestBranch(t, env.DB, "branch-001", "上海一仓")
	testutil.SeedTestSupplier(t, env.DB, "sup-001", "测试供应商A")
	testutil.SeedTestVariant(t, env.DB, "var-001", "SKU-A001", 5.0)

	body := map[string]interface{}{
		"branch_id":   "branch-001",
		"supplier_id": "sup-001",
		"notes":       "季度补货",
		"lines": []map[string]interface{}{
			{"variant_id": "var-001", "quantity": 200},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/purchase-orders", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	poID := data["id"].(string)
	if data["status"] != entity.POStatusPending {
		t.Fatalf("expected pending, got %v", data["status"])
	}
	code := data["code"].(string)
	if len(code) != len("PO-20260831-0001") || code[:3] != "PO-" {
		t.Fatalf("unexpected code format: %s", code)
	}

	// 行项复制了SKU编码
	lines := data["lines"].([]interface{})
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].(map[string]interface{})["sku_code"] != "SKU-A001" {
		t.Fatalf("expected sku_code denormalized, got %v", lines[0])
	}

	// 详情
	w2 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/wms/purchase-orders/"+poID, nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w2.Code)
	}

	// 列表过滤
	w3 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/wms/purchase-orders?branch_id=branch-001&status=pending", nil, token)
	r3 := testutil.ParseResponse(w3)["data"].(map[string]interface{})
	if len(r3["items"].([]interface{})) != 1 {
		t.Fatalf("expected 1 PO in list, got %v", r3["items"])
	}

	// 取消
	w4 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/purchase-orders/"+poID+"/cancel", nil, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w4.Code, w4.Body.String())
	}
	r4 := testutil.ParseResponse(w4)["data"].(map[string]interface{})
	if r4["status"] != entity.POStatusCancelled {
		t.Fatalf("expected cancelled, got %v", r4["status"])
	}

	// 重复取消被拒
	w5 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/purchase-orders/"+poID+"/cancel", nil, token)
	if w5.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for double cancel, got %d", w5.Code)
	}
}

// TestPurchaseOrderValidation 空行项、未知变体、非正数量
func TestPurchaseOrderValidation(t *testing.T) {
	env := setupReceiveTest(t)
	token := testutil.DefaultTestToken()

	testutil.SeedTestBranch(t, env.DB, "branch-001", "上海一仓")
	testutil.SeedTestSupplier(t, env.DB, "sup-001", "测试供应商A")
	testutil.SeedTestVariant(t, env.DB, "var-001", "SKU-A001", 5.0)

	cases := []struct {
		name string
		body map[string]interface{}
		want int
	}{
		{
			"empty lines",
			map[string]interface{}{
				"branch_id": "branch-001", "supplier_id": "sup-001",
				"lines": []map[string]interface{}{},
			},
			http.StatusBadRequest,
		},
		{
			"zero quantity",
			map[string]interface{}{
				"branch_id": "branch-001", "supplier_id": "sup-001",
				"lines": []map[string]interface{}{{"variant_id": "var-001", "quantity": 0}},
			},
			http.StatusBadRequest,
		},
		{
			"unknown variant",
			map[string]interface{}{
				"branch_id": "branch-001", "supplier_id": "sup-001",
				"lines": []map[string]interface{}{{"variant_id": "var-missing", "quantity": 5}},
			},
			http.StatusNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/purchase-orders", tc.body, token)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

// TestUnauthenticatedRequest 无令牌请求被拒
func TestUnauthenticatedRequest(t *testing.T) {
	env := setupReceiveTest(t)

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/wms/purchase-orders?branch_id=branch-001", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

// TestAdminRoutesRequireAuthorization 管理类操作校验权限和角色
func TestAdminRoutesRequireAuthorization(t *testing.T) {
	env := setupReceiveTest(t)
	operator := testutil.GenerateTestToken("test-user-002", "普通操作员", "op@test.com", "test-org-001",
		[]string{"wms_operator"}, []string{"wms:receive"})

	// 无取消权限
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/purchase-orders/po-x/cancel", nil, operator)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without cancel permission, got %d", w.Code)
	}

	// 无审批权限
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/return-requests/rr-x/approve", nil, operator)
	if w2.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without approve permission, got %d", w2.Code)
	}

	// 状态覆盖要求主管角色
	w3 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/wms/receive-sessions/rs-x/status",
		map[string]interface{}{"status": "completed"}, operator)
	if w3.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without supervisor role, got %d", w3.Code)
	}

	// 无字典管理权限
	w4 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/lookups/ReturnRequestStatus",
		map[string]interface{}{"code": "on_hold", "label": "暂挂"}, operator)
	if w4.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without lookup permission, got %d", w4.Code)
	}

	// 管理员通配权限放行（404说明已越过权限检查）
	admin := testutil.DefaultTestToken()
	w5 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/purchase-orders/po-x/cancel", nil, admin)
	if w5.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for admin on missing PO, got %d", w5.Code)
	}
}
