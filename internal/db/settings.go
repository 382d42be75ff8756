package db

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Setting keys. Each holds one JSON-encoded singleton document.
const (
	SettingWithdrawals  = "withdrawals"
	SettingReferrals    = "referrals"
	SettingSupport      = "support"
	SettingQRCode       = "qrCode"
	SettingAnnouncement = "announcement"
)

type WithdrawalSettings struct {
	MinWithdrawal float64 `json:"minWithdrawal"`
	DailyLimit    int     `json:"dailyLimit"`
	FeePercentage float64 `json:"withdrawalFeePercentage"`
	StartHour     int     `json:"withdrawalStartTime"` // hour of day, 0-23
	EndHour       int     `json:"withdrawalEndTime"`
	AllowedDays   []int   `json:"allowedWithdrawalDays"` // 0 (Sun) - 6 (Sat)
}

type ReferralSettings struct {
	CommissionPercentage float64 `json:"commissionPercentage"`
}

type SupportSettings struct {
	WhatsApp string `json:"whatsapp"`
}

type QRSettings struct {
	URL string `json:"url"`
}

type AnnouncementSettings struct {
	Text    string `json:"text"`
	Enabled bool   `json:"enabled"`
}

func DefaultWithdrawalSettings() WithdrawalSettings {
	return WithdrawalSettings{
		MinWithdrawal: 10000,
		DailyLimit:    1,
		FeePercentage: 8,
		StartHour:     10,
		EndHour:       15,
		AllowedDays:   []int{1, 2, 3, 4, 5}, // Mon-Fri
	}
}

func DefaultReferralSettings() ReferralSettings {
	return ReferralSettings{CommissionPercentage: 10}
}

func DefaultQRSettings() QRSettings {
	return QRSettings{URL: "https://placehold.co/300x300.png"}
}

// LoadSetting decodes the setting stored under key into out. The caller
// provides defaults by pre-filling out; a missing row leaves it untouched.
func (r *Repository) LoadSetting(key string, out any) error {
	var s Setting
	err := r.db.First(&s, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load setting %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(s.Value), out); err != nil {
		return fmt.Errorf("decode setting %s: %w", key, err)
	}
	return nil
}

// SaveSetting stores v under key, overwriting any previous value.
// Config singletons are last-write-wins, no optimistic locking.
func (r *Repository) SaveSetting(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	s := Setting{Key: key, Value: string(raw)}
	return r.db.Save(&s).Error
}

func (r *Repository) WithdrawalSettings() (WithdrawalSettings, error) {
	s := DefaultWithdrawalSettings()
	err := r.LoadSetting(SettingWithdrawals, &s)
	return s, err
}

func (r *Repository) ReferralSettings() (ReferralSettings, error) {
	s := DefaultReferralSettings()
	err := r.LoadSetting(SettingReferrals, &s)
	return s, err
}
