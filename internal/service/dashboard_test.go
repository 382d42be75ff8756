package service

import (
	"context"
	"testing"
	"time"

	"saldoya/internal/db"
)

func TestDashboardAccruesPendingYields(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()

	user := registerTestUser(t, svc, "3001112233", "")

	// A product bought two days ago that never accrued.
	owned := db.PurchasedProduct{
		UserID:       user.ID,
		ProductID:    1,
		Name:         "Plan Básico",
		Price:        25000,
		DailyYield:   10,
		DurationDays: 30,
		PurchaseDate: time.Now().Add(-49 * time.Hour),
		Status:       db.ProductActive,
	}
	if err := repo.DB().Create(&owned).Error; err != nil {
		t.Fatalf("failed to seed purchased product: %v", err)
	}

	dash, err := svc.Dashboard(ctx, user.ID)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	// Two whole cycles of 2500 each.
	want := float64(testWelcomeBonus) + 5000
	if dash.User.Balance != want {
		t.Errorf("Balance = %v, want %v", dash.User.Balance, want)
	}
	if len(dash.Products) != 1 {
		t.Fatalf("Products = %d, want 1", len(dash.Products))
	}
	if dash.Products[0].LastYieldDate == nil {
		t.Error("LastYieldDate should advance after accrual")
	}

	// A second read must not accrue again.
	dash2, err := svc.Dashboard(ctx, user.ID)
	if err != nil {
		t.Fatalf("second Dashboard failed: %v", err)
	}
	if dash2.User.Balance != want {
		t.Errorf("Balance after second read = %v, want unchanged %v", dash2.User.Balance, want)
	}

	// The yield landed on the ledger.
	found := false
	for _, tx := range dash2.Transactions {
		if tx.Type == db.TxCredit && tx.Amount == 5000 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a 5000 yield credit on the ledger, got %+v", dash2.Transactions)
	}
}

func TestDashboardUnknownUser(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.Dashboard(context.Background(), 999)
	if err == nil {
		t.Fatal("expected an error for an unknown user")
	}
}
