package entity

import "testing"

func TestProgressPercent(t *testing.T) {
	cases := []struct {
		scanned, total int
		want           float64
	}{
		{0, 0, 0}, // 空分区记 0%，不是除零
		{0, 10, 0},
		{5, 10, 50},
		{10, 10, 100},
		{1, 3, 33},
		{2, 3, 67},
	}

	for _, tc := range cases {
		got := ProgressPercent(tc.scanned, tc.total)
		if got != tc.want {
			t.Fatalf("ProgressPercent(%d, %d) = %v, want %v", tc.scanned, tc.total, got, tc.want)
		}
	}
}

func TestComputeZoneProgress(t *testing.T) {
	a := &ZoneAssignment{
		ID:     "za-001",
		ZoneID: "zone-001",
		Status: CycleCountStatusInProgress,
		Items: []CycleCountItem{
			{IsScanned: true},
			{IsScanned: true},
			{IsScanned: false},
			{IsScanned: false},
		},
	}

	p := ComputeZoneProgress(a)
	if p.ScannedItems != 2 || p.TotalItems != 4 {
		t.Fatalf("expected 2/4 scanned, got %d/%d", p.ScannedItems, p.TotalItems)
	}
	if p.ProgressPercent != 50 {
		t.Fatalf("expected 50%%, got %v", p.ProgressPercent)
	}
}

func TestComputeSessionProgress(t *testing.T) {
	s := &CycleCountSession{
		ID:     "cc-001",
		Status: CycleCountStatusInProgress,
		Zones: []ZoneAssignment{
			{
				Status: CycleCountStatusCompleted,
				Items: []CycleCountItem{
					{IsScanned: true},
					{IsScanned: true},
				},
			},
			{
				Status: CycleCountStatusInProgress,
				Items: []CycleCountItem{
					{IsScanned: true},
					{IsScanned: false},
				},
			},
		},
	}

	p := ComputeSessionProgress(s)
	if p.CompletedZones != 1 || p.TotalZones != 2 {
		t.Fatalf("expected 1/2 zones, got %d/%d", p.CompletedZones, p.TotalZones)
	}
	if p.ScannedItems != 3 || p.TotalItems != 4 {
		t.Fatalf("expected 3/4 items, got %d/%d", p.ScannedItems, p.TotalItems)
	}
	if p.ProgressPercent != 75 {
		t.Fatalf("expected 75%%, got %v", p.ProgressPercent)
	}
}

func TestAllItemsScanned(t *testing.T) {
	if !AllItemsScanned(nil) {
		t.Fatal("empty item list counts as scanned (vacuous)")
	}
	if AllItemsScanned([]CycleCountItem{{IsScanned: true}, {IsScanned: false}}) {
		t.Fatal("one unscanned item should fail the gate")
	}
	if !AllItemsScanned([]CycleCountItem{{IsScanned: true}, {IsScanned: true}}) {
		t.Fatal("all scanned should pass")
	}
}
