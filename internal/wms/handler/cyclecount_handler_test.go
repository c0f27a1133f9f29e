package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xuri/excelize/v2"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/entity"
	"github.com/zAcherttp/next-wms-sub003/internal/wms/testutil"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func seedCycleCountTestData(t *testing.T, env *testutil.TestEnv) {
	t.Helper()
	testutil.SeedTestBranch(t, env.DB, "branch-001", "上海一仓")
	testutil.SeedTestVariant(t, env.DB, "var-001", "SKU-A001", 5.0)
	testutil.SeedTestVariant(t, env.DB, "var-002", "SKU-B002", 12.5)
	testutil.SeedTestZone(t, env.DB, "zone-001", "branch-001", "A-01")
	testutil.SeedTestZone(t, env.DB, "zone-002", "branch-001", "A-02")
}

func createCycleCountSession(t *testing.T, env *testutil.TestEnv, token string) map[string]interface{} {
	t.Helper()
	body := map[string]interface{}{
		"branch_id": "branch-001",
		"name":      "月度盘点",
		"type":      "monthly",
		"zones": []map[string]interface{}{
			{
				"zone_id": "zone-001",
				"items": []map[string]interface{}{
					{"variant_id": "var-001", "quantity_expected": 80},
					{"variant_id": "var-002", "quantity_expected": 40},
				},
			},
			{
				"zone_id": "zone-002",
				"items": []map[string]interface{}{
					{"variant_id": "var-001", "quantity_expected": 20},
				},
			},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/cycle-counts", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)["data"].(map[string]interface{})
}

// TestCycleCountFullFlow 完整盘点流程：创建 → 开始分区 → 逐项记录 → 分区完成 → 会话汇总
func TestCycleCountFullFlow(t *testing.T) {
	env := setupReceiveTest(t)
	token := testutil.DefaultTestToken()
	seedCycleCountTestData(t, env)

	data := createCycleCountSession(t, env, token)
	sessionID := data["id"].(string)
	if data["status"] != entity.CycleCountStatusPending {
		t.Fatalf("expected pending, got %v", data["status"])
	}

	var assignments []entity.ZoneAssignment
	env.DB.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&assignments)
	if len(assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(assignments))
	}

	// 开始第一个分区 → 分区和会话都进入盘点中，作业会话绑定
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/zone-assignments/"+assignments[0].ID+"/start", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	r := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if r["status"] != entity.CycleCountStatusInProgress {
		t.Fatalf("expected assignment in_progress, got %v", r["status"])
	}
	if r["session_status"] != entity.CycleCountStatusInProgress {
		t.Fatalf("expected session in_progress, got %v", r["session_status"])
	}
	if r["work_session_id"] == "" {
		t.Fatal("expected bound work session")
	}

	// 重复开始幂等复用同一作业会话
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/zone-assignments/"+assignments[0].ID+"/start", nil, token)
	r2 := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if r2["work_session_id"] != r["work_session_id"] {
		t.Fatalf("expected same work session on restart, got %v vs %v", r2["work_session_id"], r["work_session_id"])
	}

	var items []entity.CycleCountItem
	env.DB.Where("assignment_id = ?", assignments[0].ID).Find(&items)
	if len(items) != 2 {
		t.Fatalf("expected 2 items in zone 1, got %d", len(items))
	}

	// 分区未盘完不能完成
	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/zone-assignments/"+assignments[0].ID+"/complete", nil, token)
	if w3.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 before all items scanned, got %d", w3.Code)
	}

	// 记录第一项：实盘 75，期望 80 → 差异 -5
	var item80 entity.CycleCountItem
	for _, it := range items {
		if it.QuantityExpected == 80 {
			item80 = it
		}
	}
	w4 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/count-items/record",
		map[string]interface{}{"item_id": item80.ID, "quantity_actual": 75}, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w4.Code, w4.Body.String())
	}
	r4 := testutil.ParseResponse(w4)["data"].(map[string]interface{})
	if r4["variance"].(float64) != -5 {
		t.Fatalf("expected variance -5, got %v", r4["variance"])
	}

	// 重复扫描同一行项被拒（恰好记录一次）
	w5 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/count-items/record",
		map[string]interface{}{"item_id": item80.ID, "quantity_actual": 75}, token)
	if w5.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for double scan, got %d", w5.Code)
	}

	// 负数实盘被拒
	w6 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/count-items/record",
		map[string]interface{}{"item_id": items[0].ID, "quantity_actual": -1}, token)
	if w6.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative count, got %d", w6.Code)
	}

	// 记录第二项：实盘 43，期望 40 → 差异 +3（实盘 0 也是合法记录）
	var item40 entity.CycleCountItem
	for _, it := range items {
		if it.QuantityExpected == 40 {
			item40 = it
		}
	}
	w7 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/count-items/record",
		map[string]interface{}{"item_id": item40.ID, "quantity_actual": 43}, token)
	r7 := testutil.ParseResponse(w7)["data"].(map[string]interface{})
	if r7["variance"].(float64) != 3 {
		t.Fatalf("expected variance +3, got %v", r7["variance"])
	}
	zp := r7["zone_progress"].(map[string]interface{})
	if zp["progress_percent"].(float64) != 100 {
		t.Fatalf("expected zone 100%%, got %v", zp["progress_percent"])
	}

	// 完成第一个分区：会话未完成（还有分区2）
	w8 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/zone-assignments/"+assignments[0].ID+"/complete", nil, token)
	if w8.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w8.Code, w8.Body.String())
	}
	r8 := testutil.ParseResponse(w8)["data"].(map[string]interface{})
	if r8["session_completed"].(bool) {
		t.Fatal("session should not complete with zone 2 outstanding")
	}

	// 盘完分区2并完成 → 会话自动收口
	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/zone-assignments/"+assignments[1].ID+"/start", nil, token)
	var zone2Items []entity.CycleCountItem
	env.DB.Where("assignment_id = ?", assignments[1].ID).Find(&zone2Items)
	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/count-items/record",
		map[string]interface{}{"item_id": zone2Items[0].ID, "quantity_actual": 20}, token)

	w9 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/zone-assignments/"+assignments[1].ID+"/complete", nil, token)
	r9 := testutil.ParseResponse(w9)["data"].(map[string]interface{})
	if !r9["session_completed"].(bool) {
		t.Fatal("session should complete when last zone completes")
	}

	var session entity.CycleCountSession
	env.DB.Where("id = ?", sessionID).First(&session)
	if session.Status != entity.CycleCountStatusCompleted {
		t.Fatalf("expected session completed, got %s", session.Status)
	}
	if session.CompletedAt == nil {
		t.Fatal("expected completed_at stamp")
	}
}

// TestCycleCountSyntheticBatch 扫描快照外货品：batch- 前缀物化为期望 0 的行项
func TestCycleCountSyntheticBatch(t *testing.T) {
	env := setupReceiveTest(t)
	token := testutil.DefaultTestToken()
	seedCycleCountTestData(t, env)

	data := createCycleCountSession(t, env, token)
	sessionID := data["id"].(string)

	var assignment entity.ZoneAssignment
	env.DB.Where("session_id = ?", sessionID).Order("created_at ASC").First(&assignment)
	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/zone-assignments/"+assignment.ID+"/start", nil, token)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/count-items/record",
		map[string]interface{}{
			"item_id":         "batch-temp-0001",
			"quantity_actual": 7,
			"assignment_id":   assignment.ID,
			"variant_id":      "var-002",
		}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	r := testutil.ParseResponse(w)["data"].(map[string]interface{})
	// 期望 0，实盘 7 → 差异 +7
	if r["variance"].(float64) != 7 {
		t.Fatalf("expected variance +7, got %v", r["variance"])
	}

	var count int64
	env.DB.Model(&entity.CycleCountItem{}).Where("assignment_id = ?", assignment.ID).Count(&count)
	if count != 3 {
		t.Fatalf("expected 3 items after materialization, got %d", count)
	}

	// 缺少定位字段的临时批次被拒
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/count-items/record",
		map[string]interface{}{"item_id": "batch-temp-0002", "quantity_actual": 1}, token)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for synthetic id without context, got %d", w2.Code)
	}
}

// TestCycleCountVarianceExport 差异报表导出：xlsx包含已盘行项的差异
func TestCycleCountVarianceExport(t *testing.T) {
	env := setupReceiveTest(t)
	token := testutil.DefaultTestToken()
	seedCycleCountTestData(t, env)

	data := createCycleCountSession(t, env, token)
	sessionID := data["id"].(string)

	var assignment entity.ZoneAssignment
	env.DB.Where("session_id = ?", sessionID).Order("created_at ASC").First(&assignment)
	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/zone-assignments/"+assignment.ID+"/start", nil, token)

	var items []entity.CycleCountItem
	env.DB.Where("assignment_id = ?", assignment.ID).Find(&items)
	var item80 entity.CycleCountItem
	for _, it := range items {
		if it.QuantityExpected == 80 {
			item80 = it
		}
	}
	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/count-items/record",
		map[string]interface{}{"item_id": item80.ID, "quantity_actual": 75}, token)

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/wms/cycle-counts/"+sessionID+"/export", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("unexpected content type: %s", ct)
	}

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("failed to parse exported xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("差异报表")
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(rows) < 2 || rows[0][0] != "序号" {
		t.Fatalf("unexpected header rows: %v", rows)
	}
	found := false
	for _, row := range rows[1:] {
		if len(row) > 6 && row[2] == "SKU-A001" && row[4] == "80" {
			if row[5] != "75" || row[6] != "-5" {
				t.Fatalf("expected actual 75 variance -5, got %v", row)
			}
			found = true
		}
	}
	if !found {
		t.Fatal("expected scanned SKU-A001 row in export")
	}
}

// TestCycleCountSnapshotImport 库存快照导入：GBK制表符文件创建会话，坏行跳过
func TestCycleCountSnapshotImport(t *testing.T) {
	env := setupReceiveTest(t)
	token := testutil.DefaultTestToken()
	seedCycleCountTestData(t, env)

	tsv := "库区编码\tSKU编码\t期望数量\t批次\n" +
		"A-01\tSKU-A001\t80\t\n" +
		"A-01\tSKU-B002\t40\tB2026-001\n" +
		"A-02\tSKU-A001\t20\t\n" +
		"A-01\tSKU-MISSING\t5\t\n"
	gbkBody, err := simplifiedchinese.GBK.NewEncoder().String(tsv)
	if err != nil {
		t.Fatalf("failed to encode snapshot: %v", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("branch_id", "branch-001")
	mw.WriteField("name", "快照盘点")
	mw.WriteField("type", "weekly")
	fw, _ := mw.CreateFormFile("file", "snapshot.tsv")
	fw.Write([]byte(gbkBody))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wms/cycle-count-imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["imported"].(float64) != 3 {
		t.Fatalf("expected 3 imported, got %v", data["imported"])
	}
	if data["skipped"].(float64) != 1 {
		t.Fatalf("expected 1 skipped, got %v", data["skipped"])
	}

	session := data["session"].(map[string]interface{})
	sessionID := session["id"].(string)

	var assignmentCount, itemCount int64
	env.DB.Model(&entity.ZoneAssignment{}).Where("session_id = ?", sessionID).Count(&assignmentCount)
	env.DB.Model(&entity.CycleCountItem{}).Where("session_id = ?", sessionID).Count(&itemCount)
	if assignmentCount != 2 {
		t.Fatalf("expected 2 assignments, got %d", assignmentCount)
	}
	if itemCount != 3 {
		t.Fatalf("expected 3 items, got %d", itemCount)
	}

	// 批次随行项落库
	var batched entity.CycleCountItem
	env.DB.Where("session_id = ? AND sku_code = ?", sessionID, "SKU-B002").First(&batched)
	if batched.BatchID == nil || *batched.BatchID != "B2026-001" {
		t.Fatalf("expected batch B2026-001, got %v", batched.BatchID)
	}
}

// TestCycleCountInvalidType 非法盘点类型被拒
func TestCycleCountInvalidType(t *testing.T) {
	env := setupReceiveTest(t)
	token := testutil.DefaultTestToken()
	seedCycleCountTestData(t, env)

	body := map[string]interface{}{
		"branch_id": "branch-001",
		"name":      "临时盘点",
		"type":      "hourly",
		"zones":     []map[string]interface{}{{"zone_id": "zone-001"}},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/cycle-counts", body, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid type, got %d: %s", w.Code, w.Body.String())
	}
}
