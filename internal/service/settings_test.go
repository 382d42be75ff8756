package service

import (
	"context"
	"testing"

	"saldoya/internal/db"
)

func TestWithdrawalSettingsDefaultsAndUpdate(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	got, err := svc.GetWithdrawalSettings(ctx)
	if err != nil {
		t.Fatalf("GetWithdrawalSettings failed: %v", err)
	}
	if got.MinWithdrawal != 10000 || got.DailyLimit != 1 || got.FeePercentage != 8 {
		t.Errorf("defaults = %+v", got)
	}

	got.MinWithdrawal = 20000
	got.AllowedDays = []int{6}
	if err := svc.UpdateWithdrawalSettings(ctx, got); err != nil {
		t.Fatalf("UpdateWithdrawalSettings failed: %v", err)
	}

	reloaded, err := svc.GetWithdrawalSettings(ctx)
	if err != nil {
		t.Fatalf("GetWithdrawalSettings failed: %v", err)
	}
	if reloaded.MinWithdrawal != 20000 || len(reloaded.AllowedDays) != 1 {
		t.Errorf("reloaded = %+v, want the saved values", reloaded)
	}
}

func TestUpdateWithdrawalSettingsValidation(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	valid := db.DefaultWithdrawalSettings()

	tests := []struct {
		name   string
		mutate func(*db.WithdrawalSettings)
	}{
		{"Zero minimum", func(s *db.WithdrawalSettings) { s.MinWithdrawal = 0 }},
		{"Zero daily limit", func(s *db.WithdrawalSettings) { s.DailyLimit = 0 }},
		{"Fee over 100", func(s *db.WithdrawalSettings) { s.FeePercentage = 101 }},
		{"Inverted window", func(s *db.WithdrawalSettings) { s.StartHour = 15; s.EndHour = 10 }},
		{"No allowed days", func(s *db.WithdrawalSettings) { s.AllowedDays = nil }},
		{"Bad weekday", func(s *db.WithdrawalSettings) { s.AllowedDays = []int{7} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			assertCode(t, svc.UpdateWithdrawalSettings(ctx, in), CodeInvalidInput)
		})
	}
}

func TestReferralSettings(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	got, err := svc.GetReferralSettings(ctx)
	if err != nil {
		t.Fatalf("GetReferralSettings failed: %v", err)
	}
	if got.CommissionPercentage != 10 {
		t.Errorf("default commission = %v, want 10", got.CommissionPercentage)
	}

	assertCode(t, svc.UpdateReferralSettings(ctx, db.ReferralSettings{CommissionPercentage: 150}), CodeInvalidInput)

	if err := svc.UpdateReferralSettings(ctx, db.ReferralSettings{CommissionPercentage: 15}); err != nil {
		t.Fatalf("UpdateReferralSettings failed: %v", err)
	}
	got, _ = svc.GetReferralSettings(ctx)
	if got.CommissionPercentage != 15 {
		t.Errorf("commission = %v, want 15", got.CommissionPercentage)
	}
}

func TestAnnouncementAndSupportSettings(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	assertCode(t, svc.UpdateAnnouncement(ctx, db.AnnouncementSettings{Enabled: true}), CodeInvalidInput)
	assertCode(t, svc.UpdateSupportSettings(ctx, db.SupportSettings{}), CodeInvalidInput)
	assertCode(t, svc.UpdateQRSettings(ctx, db.QRSettings{}), CodeInvalidInput)

	ann := db.AnnouncementSettings{Text: "Mantenimiento el sábado", Enabled: true}
	if err := svc.UpdateAnnouncement(ctx, ann); err != nil {
		t.Fatalf("UpdateAnnouncement failed: %v", err)
	}
	got, err := svc.GetAnnouncement(ctx)
	if err != nil || got != ann {
		t.Errorf("GetAnnouncement = %+v, %v; want %+v", got, err, ann)
	}

	if err := svc.UpdateSupportSettings(ctx, db.SupportSettings{WhatsApp: "+573001234567"}); err != nil {
		t.Fatalf("UpdateSupportSettings failed: %v", err)
	}
	sup, err := svc.GetSupportSettings(ctx)
	if err != nil || sup.WhatsApp != "+573001234567" {
		t.Errorf("GetSupportSettings = %+v, %v", sup, err)
	}
}

func TestReferralCommissionUsesConfiguredPercentage(t *testing.T) {
	svc, repo := setupTestService(t)
	ctx := context.Background()

	if err := svc.UpdateReferralSettings(ctx, db.ReferralSettings{CommissionPercentage: 25}); err != nil {
		t.Fatalf("UpdateReferralSettings failed: %v", err)
	}

	referrer := registerTestUser(t, svc, "3001112233", "")
	referred := registerTestUser(t, svc, "3004445566", referrer.ReferralCode)

	req := stageAndConfirm(t, svc, referred.ID, 20000, "PAGO-001")
	if err := svc.ApproveRecharge(ctx, req.ID); err != nil {
		t.Fatalf("ApproveRecharge failed: %v", err)
	}

	if got := reloadUser(t, repo, referrer.ID); got.Balance != testWelcomeBonus+5000 {
		t.Errorf("referrer balance = %v, want 25%% of 20000 on top of the bonus", got.Balance)
	}
}
