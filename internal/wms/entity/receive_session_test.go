package entity

import "testing"

func TestDeriveReceiveDetailStatus(t *testing.T) {
	cases := []struct {
		name     string
		received float64
		expected float64
		want     string
	}{
		{"nothing received", 0, 100, ReceiveDetailStatusPending},
		{"partial receipt", 60, 100, ReceiveDetailStatusPartial},
		{"exact receipt", 100, 100, ReceiveDetailStatusCompleted},
		{"over receipt", 120, 100, ReceiveDetailStatusCompleted},
		{"zero expected stays pending", 0, 0, ReceiveDetailStatusPending},
		{"received against zero expected", 5, 0, ReceiveDetailStatusPartial},
		{"fractional completion", 99.99, 100, ReceiveDetailStatusPartial},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveReceiveDetailStatus(tc.received, tc.expected)
			if got != tc.want {
				t.Fatalf("DeriveReceiveDetailStatus(%v, %v) = %s, want %s", tc.received, tc.expected, got, tc.want)
			}
		})
	}
}

func TestDeriveReceiveSessionStatus(t *testing.T) {
	cases := []struct {
		name    string
		details []ReceiveSessionDetail
		want    string
	}{
		{
			"no details",
			nil,
			ReceiveSessionStatusPending,
		},
		{
			"all pending",
			[]ReceiveSessionDetail{
				{Status: ReceiveDetailStatusPending},
				{Status: ReceiveDetailStatusPending},
			},
			ReceiveSessionStatusPending,
		},
		{
			"one partial",
			[]ReceiveSessionDetail{
				{Status: ReceiveDetailStatusPartial, QuantityReceived: 10},
				{Status: ReceiveDetailStatusPending},
			},
			ReceiveSessionStatusInProgress,
		},
		{
			"all completed",
			[]ReceiveSessionDetail{
				{Status: ReceiveDetailStatusCompleted, QuantityReceived: 100},
				{Status: ReceiveDetailStatusCompleted, QuantityReceived: 50},
			},
			ReceiveSessionStatusCompleted,
		},
		{
			"return_requested without receipts stays pending",
			[]ReceiveSessionDetail{
				{Status: ReceiveDetailStatusReturnRequested},
				{Status: ReceiveDetailStatusPending},
			},
			ReceiveSessionStatusPending,
		},
		{
			"completed plus return_requested is not completed",
			[]ReceiveSessionDetail{
				{Status: ReceiveDetailStatusCompleted, QuantityReceived: 100},
				{Status: ReceiveDetailStatusReturnRequested, QuantityReceived: 20},
			},
			ReceiveSessionStatusInProgress,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveReceiveSessionStatus(tc.details)
			if got != tc.want {
				t.Fatalf("DeriveReceiveSessionStatus = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestReceiveDetailTransitions(t *testing.T) {
	// return_requested 为终态
	if CanTransitionReceiveDetail(ReceiveDetailStatusReturnRequested, ReceiveDetailStatusPartial) {
		t.Fatal("return_requested should not transition to partial")
	}
	if CanTransitionReceiveDetail(ReceiveDetailStatusReturnRequested, ReceiveDetailStatusCompleted) {
		t.Fatal("return_requested should not transition to completed")
	}

	if !CanTransitionReceiveDetail(ReceiveDetailStatusPending, ReceiveDetailStatusPartial) {
		t.Fatal("pending → partial should be allowed")
	}
	if !CanTransitionReceiveDetail(ReceiveDetailStatusPartial, ReceiveDetailStatusReturnRequested) {
		t.Fatal("partial → return_requested should be allowed")
	}
	if !CanTransitionReceiveDetail(ReceiveDetailStatusPartial, ReceiveDetailStatusPartial) {
		t.Fatal("partial → partial (another increment) should be allowed")
	}
	if CanTransitionReceiveDetail(ReceiveDetailStatusCompleted, ReceiveDetailStatusPartial) {
		t.Fatal("completed → partial should not be allowed")
	}
}

func TestAllReceiveDetailsHandled(t *testing.T) {
	if AllReceiveDetailsHandled(nil) {
		t.Fatal("empty detail list should not count as handled")
	}

	handled := []ReceiveSessionDetail{
		{Status: ReceiveDetailStatusCompleted},
		{Status: ReceiveDetailStatusReturnRequested},
	}
	if !AllReceiveDetailsHandled(handled) {
		t.Fatal("completed + return_requested should count as all handled")
	}

	unhandled := []ReceiveSessionDetail{
		{Status: ReceiveDetailStatusCompleted},
		{Status: ReceiveDetailStatusPartial},
	}
	if AllReceiveDetailsHandled(unhandled) {
		t.Fatal("partial detail should block completion")
	}
}
