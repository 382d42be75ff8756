package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"saldoya/internal/db"
	"saldoya/internal/events"
	"saldoya/internal/wallet"
)

// CreateGiftCode creates a code; an empty code gets a generated one.
func (s *Service) CreateGiftCode(ctx context.Context, code string, amount float64, usageLimit, expiresInMinutes int) (*db.GiftCode, error) {
	if amount <= 0 {
		return nil, errInvalidInput("El monto debe ser mayor que cero.", "non-positive amount %f", amount)
	}
	if usageLimit < 1 {
		return nil, errInvalidInput("El límite de usos debe ser al menos 1.", "usage limit %d", usageLimit)
	}
	if expiresInMinutes < 1 {
		return nil, errInvalidInput("La vigencia debe ser de al menos 1 minuto.", "expiry %d", expiresInMinutes)
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = randomCode(8)
	}

	gift := db.GiftCode{
		Code:             code,
		Amount:           amount,
		UsageLimit:       usageLimit,
		ExpiresInMinutes: expiresInMinutes,
		CreatedAt:        time.Now(),
	}
	if err := s.repo.DB().WithContext(ctx).Create(&gift).Error; err != nil {
		return nil, fmt.Errorf("create gift code: %w", err)
	}
	return &gift, nil
}

// RedeemGiftCode credits the code's amount at most once per user, capped at
// the code's usage limit. All guards and the credit run in one transaction.
// The unique (code, user) index backs the per-user guard against races, and
// the usage cap is taken with a conditional counter update on the code row,
// so two concurrent redemptions cannot both claim the last slot.
func (s *Service) RedeemGiftCode(ctx context.Context, userID uint, code string) (float64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return 0, errInvalidInput("Ingresa un código.", "empty gift code")
	}

	var amount float64

	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var gift db.GiftCode
		if err := tx.First(&gift, "code = ?", code).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("gift code")
			}
			return fmt.Errorf("load gift code: %w", err)
		}

		if time.Now().After(gift.ExpiresAt()) {
			return newError(CodeGiftExpired, "gift code expired", "Este código ya expiró.")
		}

		res := tx.Model(&db.GiftCode{}).
			Where("id = ? AND redemption_count < usage_limit", gift.ID).
			UpdateColumn("redemption_count", gorm.Expr("redemption_count + 1"))
		if res.Error != nil {
			return fmt.Errorf("claim redemption slot: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return newError(CodeGiftLimitReached, "usage limit reached",
				"Este código alcanzó su límite de usos.")
		}

		var mine int64
		if err := tx.Model(&db.GiftRedemption{}).
			Where("gift_code_id = ? AND user_id = ?", gift.ID, userID).
			Count(&mine).Error; err != nil {
			return fmt.Errorf("check own redemption: %w", err)
		}
		if mine > 0 {
			return newError(CodeGiftAlreadyRedeemed, "already redeemed",
				"Ya canjeaste este código.")
		}

		redemption := db.GiftRedemption{GiftCodeID: gift.ID, UserID: userID, CreatedAt: time.Now()}
		if err := tx.Create(&redemption).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newError(CodeGiftAlreadyRedeemed, "already redeemed",
					"Ya canjeaste este código.")
			}
			return fmt.Errorf("record redemption: %w", err)
		}

		var user db.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("load user: %w", err)
		}

		amount = gift.Amount
		return wallet.Credit(tx, user.ID, user.Version, gift.Amount,
			fmt.Sprintf("Código de regalo %s", gift.Code))
	})
	if errors.Is(err, wallet.ErrConflict) {
		return 0, errConflict("gift redemption lost version race")
	}
	if err != nil {
		return 0, err
	}

	s.publish(ctx, userID, events.KindBalanceChanged)
	return amount, nil
}

// ListGiftCodes returns all codes, newest first. The redemption count rides
// on the code row itself.
func (s *Service) ListGiftCodes(ctx context.Context) ([]db.GiftCode, error) {
	var codes []db.GiftCode
	if err := s.repo.DB().WithContext(ctx).Order("created_at DESC").Find(&codes).Error; err != nil {
		return nil, fmt.Errorf("list gift codes: %w", err)
	}
	return codes, nil
}

func (s *Service) DeleteGiftCode(ctx context.Context, id uint) error {
	res := s.repo.DB().WithContext(ctx).Delete(&db.GiftCode{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete gift code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotFound("gift code")
	}
	return nil
}
