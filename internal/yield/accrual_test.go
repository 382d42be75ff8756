package yield

import (
	"math"
	"testing"
	"time"

	"saldoya/internal/db"
)

func activeProduct(purchase time.Time, price, dailyYield float64, durationDays int) db.PurchasedProduct {
	return db.PurchasedProduct{
		ID:           1,
		UserID:       1,
		Name:         "Plan Básico",
		Price:        price,
		DailyYield:   dailyYield,
		DurationDays: durationDays,
		PurchaseDate: purchase,
		Status:       db.ProductActive,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestProcessWholeCyclesOnly(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		elapsed    time.Duration
		wantCycles int
		wantProfit float64
	}{
		{"Nothing before a full day", 23 * time.Hour, 0, 0},
		{"One cycle at exactly 24h", 24 * time.Hour, 1, 2500},
		{"Partial second cycle not paid", 47 * time.Hour, 1, 2500},
		{"Catch-up pays all missed cycles", 72*time.Hour + 2*time.Hour, 3, 7500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := activeProduct(base, 25000, 10, 30)
			res := Process([]db.PurchasedProduct{p}, base.Add(tt.elapsed))

			if !almostEqual(res.TotalProfit, tt.wantProfit) {
				t.Errorf("TotalProfit = %v, want %v", res.TotalProfit, tt.wantProfit)
			}
			if tt.wantCycles == 0 {
				if len(res.Accruals) != 0 {
					t.Fatalf("expected no accruals, got %d", len(res.Accruals))
				}
				return
			}
			if len(res.Accruals) != 1 {
				t.Fatalf("expected one accrual, got %d", len(res.Accruals))
			}
			if res.Accruals[0].Cycles != tt.wantCycles {
				t.Errorf("Cycles = %d, want %d", res.Accruals[0].Cycles, tt.wantCycles)
			}
		})
	}
}

func TestProcessAdvancesLastYieldDateByWholeCycles(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := activeProduct(base, 25000, 10, 30)

	// 2 days and 5 hours later: the 5 hours must carry over.
	res := Process([]db.PurchasedProduct{p}, base.Add(53*time.Hour))
	if len(res.Updated) != 1 {
		t.Fatalf("expected one updated product, got %d", len(res.Updated))
	}

	got := res.Updated[0]
	wantLast := base.Add(48 * time.Hour)
	if got.LastYieldDate == nil || !got.LastYieldDate.Equal(wantLast) {
		t.Errorf("LastYieldDate = %v, want %v", got.LastYieldDate, wantLast)
	}

	// A second pass 20 hours later completes the carried-over cycle.
	res2 := Process([]db.PurchasedProduct{got}, base.Add(73*time.Hour))
	if len(res2.Accruals) != 1 || res2.Accruals[0].Cycles != 1 {
		t.Fatalf("second pass should pay exactly one cycle, got %+v", res2.Accruals)
	}
}

func TestProcessStopsAtExpiration(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// 3-day product checked 10 days late: only 3 cycles are owed.
	p := activeProduct(base, 25000, 10, 3)
	res := Process([]db.PurchasedProduct{p}, base.AddDate(0, 0, 10))

	if !almostEqual(res.TotalProfit, 7500) {
		t.Errorf("TotalProfit = %v, want 7500", res.TotalProfit)
	}
	if len(res.Updated) != 1 {
		t.Fatalf("expected one updated product, got %d", len(res.Updated))
	}
	if res.Updated[0].Status != db.ProductExpired {
		t.Errorf("Status = %q, want %q", res.Updated[0].Status, db.ProductExpired)
	}
}

func TestProcessExpirationBoundaryWithoutFinalCycle(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// All 3 cycles already paid; now is past expiration. Only the status
	// flips, nothing further is credited.
	p := activeProduct(base, 25000, 10, 3)
	last := base.Add(72 * time.Hour)
	p.LastYieldDate = &last

	res := Process([]db.PurchasedProduct{p}, base.AddDate(0, 0, 5))

	if res.TotalProfit != 0 {
		t.Errorf("TotalProfit = %v, want 0", res.TotalProfit)
	}
	if len(res.Accruals) != 0 {
		t.Errorf("expected no accruals, got %d", len(res.Accruals))
	}
	if len(res.Updated) != 1 || res.Updated[0].Status != db.ProductExpired {
		t.Fatalf("expected a status-only flip to expired, got %+v", res.Updated)
	}
	if !res.Changed {
		t.Error("Changed should be true when a status flips")
	}
}

func TestProcessSkipsExpiredProducts(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := activeProduct(base, 25000, 10, 30)
	p.Status = db.ProductExpired

	res := Process([]db.PurchasedProduct{p}, base.AddDate(0, 0, 10))
	if res.Changed || res.TotalProfit != 0 || len(res.Updated) != 0 {
		t.Errorf("expired product must be untouched, got %+v", res)
	}
}

func TestProcessNoCompounding(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := activeProduct(base, 50000, 2.5, 60)

	// 40 cycles at once must equal 40 single-cycle payments on the
	// snapshotted price.
	res := Process([]db.PurchasedProduct{p}, base.AddDate(0, 0, 40))
	want := 50000 * 0.025 * 40
	if !almostEqual(res.TotalProfit, want) {
		t.Errorf("TotalProfit = %v, want %v", res.TotalProfit, want)
	}
}

func TestProcessMultipleProducts(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := activeProduct(base, 25000, 10, 30)
	b := activeProduct(base.Add(-24*time.Hour), 50000, 5, 30)
	b.ID = 2

	res := Process([]db.PurchasedProduct{a, b}, base.Add(24*time.Hour))

	// a: 1 cycle of 2500, b: 2 cycles of 2500.
	if !almostEqual(res.TotalProfit, 7500) {
		t.Errorf("TotalProfit = %v, want 7500", res.TotalProfit)
	}
	if len(res.Accruals) != 2 {
		t.Fatalf("expected two accruals, got %d", len(res.Accruals))
	}

	entries := res.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected two ledger entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Type != db.TxCredit {
			t.Errorf("entry type = %q, want credit", e.Type)
		}
	}
}
