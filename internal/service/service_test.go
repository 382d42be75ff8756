package service

import (
	"context"
	"errors"
	"testing"

	"saldoya/internal/db"
	"saldoya/internal/notify"
	"saldoya/internal/session"
	"saldoya/internal/yield"
)

const testWelcomeBonus = 5000

func setupTestService(t *testing.T) (*Service, *db.Repository) {
	repo, err := db.NewRepository(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	if err := repo.AutoMigrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	svc := New(repo, session.NewMemoryStore(), nil, notify.New("", ""),
		yield.NewService(repo, nil), testWelcomeBonus)
	return svc, repo
}

func registerTestUser(t *testing.T, svc *Service, phone, referralCode string) *db.User {
	t.Helper()
	user, _, err := svc.Register(context.Background(), phone, "secret123", referralCode)
	if err != nil {
		t.Fatalf("failed to register %s: %v", phone, err)
	}
	return user
}

func setBalance(t *testing.T, svc *Service, userID uint, balance float64) {
	t.Helper()
	if err := svc.AdjustBalance(context.Background(), userID, AdjustSet, balance, "Ajuste de prueba"); err != nil {
		t.Fatalf("failed to set balance: %v", err)
	}
}

func reloadUser(t *testing.T, repo *db.Repository, userID uint) *db.User {
	t.Helper()
	var user db.User
	if err := repo.DB().First(&user, userID).Error; err != nil {
		t.Fatalf("failed to reload user %d: %v", userID, err)
	}
	return &user
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected service error with code %s, got %v", code, err)
	}
	if svcErr.Code != code {
		t.Fatalf("error code = %s, want %s", svcErr.Code, code)
	}
}

func TestRegister(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "3001112233", "secret123", "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if token == "" {
		t.Error("expected a session token")
	}
	if user.Balance != testWelcomeBonus {
		t.Errorf("Balance = %v, want %v", user.Balance, testWelcomeBonus)
	}
	if len(user.ReferralCode) != 6 {
		t.Errorf("ReferralCode = %q, want 6 characters", user.ReferralCode)
	}

	// Welcome bonus must be on the ledger.
	var entries []db.Transaction
	repo.DB().Where("user_id = ?", user.ID).Find(&entries)
	if len(entries) != 1 || entries[0].Description != "Bono de bienvenida" {
		t.Errorf("expected a welcome bonus ledger entry, got %+v", entries)
	}

	// The token must resolve back to the user.
	resolved, err := svc.ResolveSession(ctx, token)
	if err != nil || resolved.ID != user.ID {
		t.Errorf("ResolveSession = %v, %v; want user %d", resolved, err, user.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	registerTestUser(t, svc, "3001112233", "")

	tests := []struct {
		name     string
		phone    string
		password string
		referral string
		wantCode string
	}{
		{"Short phone", "123", "secret123", "", CodeInvalidInput},
		{"Short password", "3009998877", "abc", "", CodeInvalidInput},
		{"Phone already registered", "3001112233", "secret123", "", CodePhoneInUse},
		{"Unknown referral code", "3009998877", "secret123", "NOSUCH", CodeInvalidReferral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, tt.phone, tt.password, tt.referral)
			assertCode(t, err, tt.wantCode)
		})
	}
}

func TestRegisterDuplicatePhoneHitsTheIndex(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()

	registerTestUser(t, svc, "3001112233", "")

	// The duplicate is caught by the unique index inside the create
	// transaction, so a losing racer gets the same error a pre-check
	// would have given, and leaves nothing behind.
	_, _, err := svc.Register(ctx, "3001112233", "secret123", "")
	assertCode(t, err, CodePhoneInUse)

	var users int64
	if err := repo.DB().Model(&db.User{}).Where("phone = ?", "3001112233").Count(&users).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if users != 1 {
		t.Errorf("user rows = %d, want 1", users)
	}

	var bonuses int64
	if err := repo.DB().Model(&db.Transaction{}).Where("description = ?", "Bono de bienvenida").Count(&bonuses).Error; err != nil {
		t.Fatalf("count ledger rows: %v", err)
	}
	if bonuses != 1 {
		t.Errorf("welcome bonus rows = %d, want 1", bonuses)
	}
}

func TestRegisterWithReferral(t *testing.T) {
	svc, _ := setupTestService(t)

	referrer := registerTestUser(t, svc, "3001112233", "")
	referred := registerTestUser(t, svc, "3004445566", referrer.ReferralCode)

	if referred.ReferredBy == nil || *referred.ReferredBy != referrer.ID {
		t.Errorf("ReferredBy = %v, want %d", referred.ReferredBy, referrer.ID)
	}

	overview, err := svc.Referrals(context.Background(), referrer.ID)
	if err != nil {
		t.Fatalf("Referrals failed: %v", err)
	}
	if len(overview.ReferredUsers) != 1 || overview.ReferredUsers[0].ID != referred.ID {
		t.Errorf("ReferredUsers = %+v, want the referred user", overview.ReferredUsers)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	registerTestUser(t, svc, "3001112233", "")

	tests := []struct {
		name     string
		phone    string
		password string
		wantErr  bool
	}{
		{"Valid credentials", "3001112233", "secret123", false},
		{"Wrong password", "3001112233", "wrongpass", true},
		{"Unknown phone", "3000000000", "secret123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, token, err := svc.Login(ctx, tt.phone, tt.password)
			if tt.wantErr {
				// The same generic failure for both cases.
				assertCode(t, err, CodeInvalidCredentials)
				return
			}
			if err != nil {
				t.Fatalf("Login failed: %v", err)
			}
			if token == "" {
				t.Error("expected a session token")
			}
		})
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, token, err := svc.Login(ctx, "3001112233", "secret123")
	if err == nil {
		t.Fatal("login should fail before registration")
	}

	registerTestUser(t, svc, "3001112233", "")
	_, token, err = svc.Login(ctx, "3001112233", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := svc.ResolveSession(ctx, token); err == nil {
		t.Error("expected the session to be gone after logout")
	}
}

func TestSetWithdrawalInfo(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()

	user := registerTestUser(t, svc, "3001112233", "")

	err := svc.SetWithdrawalInfo(ctx, user.ID, db.WithdrawalInfo{NequiAccount: "3001112233"})
	assertCode(t, err, CodeInvalidInput)

	info := db.WithdrawalInfo{NequiAccount: "3001112233", FullName: "Ana Pérez", IDNumber: "10203040"}
	if err := svc.SetWithdrawalInfo(ctx, user.ID, info); err != nil {
		t.Fatalf("SetWithdrawalInfo failed: %v", err)
	}

	got := reloadUser(t, repo, user.ID)
	if !got.HasWithdrawalInfo() || got.WithdrawalInfo.FullName != "Ana Pérez" {
		t.Errorf("withdrawal info not stored: %+v", got.WithdrawalInfo)
	}
}
