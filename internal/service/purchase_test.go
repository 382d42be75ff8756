package service

import (
	"context"
	"testing"
	"time"

	"saldoya/internal/db"
)

func createTestProduct(t *testing.T, svc *Service, in ProductInput) *db.Product {
	t.Helper()
	product, err := svc.CreateProduct(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	return product
}

func basicProductInput() ProductInput {
	return ProductInput{
		Name:          "Plan Básico",
		Price:         25000,
		DailyYield:    10,
		PurchaseLimit: 3,
		DurationDays:  30,
	}
}

func TestPurchase(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()

	user := registerTestUser(t, svc, "3001112233", "")
	setBalance(t, svc, user.ID, 60000)
	product := createTestProduct(t, svc, basicProductInput())

	bought, err := svc.Purchase(ctx, user.ID, product.ID, 2)
	if err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	if len(bought) != 2 {
		t.Fatalf("expected 2 units, got %d", len(bought))
	}
	for _, unit := range bought {
		if unit.Price != 25000 || unit.DailyYield != 10 || unit.DurationDays != 30 {
			t.Errorf("unit did not snapshot the template: %+v", unit)
		}
		if unit.Status != db.ProductActive {
			t.Errorf("Status = %q, want active", unit.Status)
		}
	}

	got := reloadUser(t, repo, user.ID)
	if got.Balance != 10000 {
		t.Errorf("Balance = %v, want 10000", got.Balance)
	}

	var debit db.Transaction
	err = repo.DB().Where("user_id = ? AND type = ?", user.ID, db.TxDebit).First(&debit).Error
	if err != nil {
		t.Fatalf("expected a debit ledger entry: %v", err)
	}
	if debit.Amount != 50000 {
		t.Errorf("debit amount = %v, want 50000", debit.Amount)
	}
}

func TestPurchaseSnapshotSurvivesTemplateEdit(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()

	user := registerTestUser(t, svc, "3001112233", "")
	setBalance(t, svc, user.ID, 60000)
	product := createTestProduct(t, svc, basicProductInput())

	if _, err := svc.Purchase(ctx, user.ID, product.ID, 1); err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}

	in := basicProductInput()
	in.Price = 99000
	in.DailyYield = 1
	if _, err := svc.UpdateProduct(ctx, product.ID, in); err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}

	var owned db.PurchasedProduct
	if err := repo.DB().First(&owned, "user_id = ?", user.ID).Error; err != nil {
		t.Fatalf("failed to load owned product: %v", err)
	}
	if owned.Price != 25000 || owned.DailyYield != 10 {
		t.Errorf("owned snapshot changed with the template: %+v", owned)
	}
}

func TestPurchaseValidation(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	user := registerTestUser(t, svc, "3001112233", "")
	setBalance(t, svc, user.ID, 30000)
	product := createTestProduct(t, svc, basicProductInput())

	tests := []struct {
		name     string
		quantity int
		wantCode string
	}{
		{"Zero quantity", 0, CodeInvalidInput},
		{"Insufficient balance", 2, CodeInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Purchase(ctx, user.ID, product.ID, tt.quantity)
			assertCode(t, err, tt.wantCode)
		})
	}

	t.Run("Unknown product", func(t *testing.T) {
		_, err := svc.Purchase(ctx, user.ID, 999, 1)
		assertCode(t, err, CodeNotFound)
	})
}

func TestPurchaseLimitCountsOwnedUnits(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	user := registerTestUser(t, svc, "3001112233", "")
	setBalance(t, svc, user.ID, 200000)
	product := createTestProduct(t, svc, basicProductInput())

	// More units than the limit allows in one go.
	_, err := svc.Purchase(ctx, user.ID, product.ID, 4)
	assertCode(t, err, CodePurchaseLimit)

	if _, err := svc.Purchase(ctx, user.ID, product.ID, 2); err != nil {
		t.Fatalf("first purchase failed: %v", err)
	}

	// 2 owned + 2 requested exceeds the limit of 3.
	_, err = svc.Purchase(ctx, user.ID, product.ID, 2)
	assertCode(t, err, CodePurchaseLimit)

	// One more unit is still within the limit.
	if _, err := svc.Purchase(ctx, user.ID, product.ID, 1); err != nil {
		t.Fatalf("purchase within limit failed: %v", err)
	}
}

func TestPurchaseClosedOffer(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()

	user := registerTestUser(t, svc, "3001112233", "")
	setBalance(t, svc, user.ID, 60000)

	past := time.Now().Add(-3 * time.Hour)
	product := db.Product{
		Name:           "Oferta Relámpago",
		Price:          25000,
		DailyYield:     10,
		PurchaseLimit:  3,
		DurationDays:   30,
		IsTimeLimited:  true,
		TimeLimitHours: 2,
		TimeLimitSetAt: &past,
		CreatedAt:      past,
	}
	if err := repo.DB().Create(&product).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}

	_, err := svc.Purchase(ctx, user.ID, product.ID, 1)
	assertCode(t, err, CodeOfferExpired)
}

func TestListProductsPutsOffersFirst(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	createTestProduct(t, svc, basicProductInput())
	offer := basicProductInput()
	offer.Name = "Oferta"
	offer.IsTimeLimited = true
	offer.TimeLimitHours = 24
	createTestProduct(t, svc, offer)

	products, err := svc.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if !products[0].IsTimeLimited {
		t.Errorf("time-limited offer should sort first, got %+v", products[0])
	}
}
