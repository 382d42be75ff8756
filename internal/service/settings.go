package service

import (
	"context"
	"fmt"

	"saldoya/internal/db"
)

// Settings endpoints are thin typed wrappers over the settings table.
// Singletons are last-write-wins; only admin flows write them.

func (s *Service) GetWithdrawalSettings(context.Context) (db.WithdrawalSettings, error) {
	return s.repo.WithdrawalSettings()
}

func (s *Service) UpdateWithdrawalSettings(_ context.Context, in db.WithdrawalSettings) error {
	if in.MinWithdrawal <= 0 {
		return errInvalidInput("El monto mínimo debe ser un número positivo.", "min %f", in.MinWithdrawal)
	}
	if in.DailyLimit < 1 {
		return errInvalidInput("El límite diario debe ser al menos 1.", "daily limit %d", in.DailyLimit)
	}
	if in.FeePercentage < 0 || in.FeePercentage > 100 {
		return errInvalidInput("El porcentaje debe estar entre 0 y 100.", "fee %f", in.FeePercentage)
	}
	if in.StartHour < 0 || in.StartHour > 23 || in.EndHour < 0 || in.EndHour > 23 || in.StartHour >= in.EndHour {
		return errInvalidInput("La hora de cierre debe ser posterior a la de apertura.", "window %d-%d", in.StartHour, in.EndHour)
	}
	if len(in.AllowedDays) == 0 {
		return errInvalidInput("Debes seleccionar al menos un día de la semana.", "no allowed days")
	}
	for _, d := range in.AllowedDays {
		if d < 0 || d > 6 {
			return errInvalidInput("Día de la semana inválido.", "day %d", d)
		}
	}
	return s.repo.SaveSetting(db.SettingWithdrawals, in)
}

func (s *Service) GetReferralSettings(context.Context) (db.ReferralSettings, error) {
	return s.repo.ReferralSettings()
}

func (s *Service) UpdateReferralSettings(_ context.Context, in db.ReferralSettings) error {
	if in.CommissionPercentage < 0 || in.CommissionPercentage > 100 {
		return errInvalidInput("El porcentaje debe estar entre 0 y 100.", "commission %f", in.CommissionPercentage)
	}
	return s.repo.SaveSetting(db.SettingReferrals, in)
}

func (s *Service) GetSupportSettings(context.Context) (db.SupportSettings, error) {
	var out db.SupportSettings
	err := s.repo.LoadSetting(db.SettingSupport, &out)
	return out, err
}

func (s *Service) UpdateSupportSettings(_ context.Context, in db.SupportSettings) error {
	if in.WhatsApp == "" {
		return errInvalidInput("El número de contacto es requerido.", "empty support number")
	}
	return s.repo.SaveSetting(db.SettingSupport, in)
}

func (s *Service) GetQRSettings(context.Context) (db.QRSettings, error) {
	out := db.DefaultQRSettings()
	err := s.repo.LoadSetting(db.SettingQRCode, &out)
	return out, err
}

func (s *Service) UpdateQRSettings(_ context.Context, in db.QRSettings) error {
	if in.URL == "" {
		return errInvalidInput("La URL de la imagen es requerida.", "empty QR url")
	}
	return s.repo.SaveSetting(db.SettingQRCode, in)
}

func (s *Service) GetAnnouncement(context.Context) (db.AnnouncementSettings, error) {
	var out db.AnnouncementSettings
	err := s.repo.LoadSetting(db.SettingAnnouncement, &out)
	return out, err
}

func (s *Service) UpdateAnnouncement(_ context.Context, in db.AnnouncementSettings) error {
	if in.Enabled && in.Text == "" {
		return errInvalidInput("El texto del anuncio es requerido.", "empty announcement")
	}
	return s.repo.SaveSetting(db.SettingAnnouncement, in)
}

// FormatCOP renders an amount the way the UI shows money: whole pesos.
func FormatCOP(amount float64) string {
	return fmt.Sprintf("$%.0f COP", amount)
}
