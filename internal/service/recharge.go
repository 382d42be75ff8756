package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"saldoya/internal/db"
	"saldoya/internal/events"
	"saldoya/internal/wallet"
)

// Staged recharges expire after an hour; the scheduler purges stale rows.
const tempRechargeTTL = time.Hour

// StartRecharge stages an amount and hands back the generated reference the
// payment screen is addressed by.
func (s *Service) StartRecharge(ctx context.Context, userID uint, amount float64) (*db.TempRecharge, error) {
	if amount <= 0 {
		return nil, errInvalidInput("Por favor, ingresa un monto válido para recargar.", "non-positive amount %f", amount)
	}

	// The random suffix keeps two recharges started in the same
	// millisecond from colliding on the primary key.
	temp := db.TempRecharge{
		Reference: fmt.Sprintf("SY-RECARGA-%d-%s", time.Now().UnixMilli(), randomCode(4)),
		UserID:    userID,
		Amount:    amount,
		CreatedAt: time.Now(),
	}
	if err := s.repo.DB().WithContext(ctx).Create(&temp).Error; err != nil {
		return nil, fmt.Errorf("stage recharge: %w", err)
	}
	return &temp, nil
}

// StagedRecharge loads a staged amount for the payment screen.
func (s *Service) StagedRecharge(ctx context.Context, userID uint, reference string) (*db.TempRecharge, error) {
	var temp db.TempRecharge
	err := s.repo.DB().WithContext(ctx).
		First(&temp, "reference = ? AND user_id = ?", reference, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(CodeRechargeExpired, "staged recharge missing",
			"La sesión de recarga ha expirado. Vuelve a intentarlo.")
	}
	if err != nil {
		return nil, fmt.Errorf("load staged recharge: %w", err)
	}
	if time.Since(temp.CreatedAt) > tempRechargeTTL {
		return nil, newError(CodeRechargeExpired, "staged recharge expired",
			"La sesión de recarga ha expirado. Vuelve a intentarlo.")
	}
	return &temp, nil
}

// ConfirmRecharge turns a staged recharge into a pending request once the
// user submits the bank payment reference.
func (s *Service) ConfirmRecharge(ctx context.Context, userID uint, stagingRef, paymentReference string) (*db.RechargeRequest, error) {
	paymentReference = strings.TrimSpace(paymentReference)
	if len(paymentReference) < 4 {
		return nil, errInvalidInput("La referencia debe tener al menos 4 caracteres.", "reference too short: %q", paymentReference)
	}

	temp, err := s.StagedRecharge(ctx, userID, stagingRef)
	if err != nil {
		return nil, err
	}

	var user db.User
	if err := s.repo.DB().WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	req := db.RechargeRequest{
		ReferenceID: paymentReference,
		UserID:      userID,
		UserPhone:   user.Phone,
		Amount:      temp.Amount,
		Status:      db.StatusPending,
		RequestedAt: time.Now(),
	}

	err = s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// One payment reference funds at most one recharge.
		var dup int64
		err := tx.Model(&db.RechargeRequest{}).
			Where("reference_id = ? AND status IN ?", paymentReference, []string{db.StatusPending, db.StatusApproved}).
			Count(&dup).Error
		if err != nil {
			return fmt.Errorf("check duplicate reference: %w", err)
		}
		if dup > 0 {
			return newError(CodeDuplicateReference, "reference already submitted",
				"Esta referencia de pago ya ha sido registrada.")
		}

		if err := tx.Create(&req).Error; err != nil {
			return fmt.Errorf("create recharge request: %w", err)
		}
		return tx.Delete(&db.TempRecharge{}, "reference = ?", stagingRef).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, userID, events.KindRequestsChanged)
	s.notifier.RechargeRequested(&req)
	return &req, nil
}

// ApproveRecharge credits the user and, on their first approved recharge,
// pays the referrer's one-time commission. Guards (pending status,
// duplicate approved reference) run inside the same transaction as the
// credit, so a concurrent approval of the same request or reference cannot
// double-pay.
func (s *Service) ApproveRecharge(ctx context.Context, requestID uint) error {
	var userID uint
	var referrerID uint

	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req db.RechargeRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("recharge request")
			}
			return fmt.Errorf("load request: %w", err)
		}
		if req.Status != db.StatusPending {
			return errAlreadyProcessed()
		}

		var dup int64
		err := tx.Model(&db.RechargeRequest{}).
			Where("reference_id = ? AND status = ? AND id <> ?", req.ReferenceID, db.StatusApproved, req.ID).
			Count(&dup).Error
		if err != nil {
			return fmt.Errorf("check duplicate approved reference: %w", err)
		}
		if dup > 0 {
			return newError(CodeDuplicateReference, "reference already approved",
				"Esta referencia de pago ya ha sido aprobada anteriormente.")
		}

		var user db.User
		if err := tx.First(&user, req.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("user")
			}
			return fmt.Errorf("load user: %w", err)
		}
		userID = user.ID

		// One-time referral commission on the first approved recharge.
		if user.ReferredBy != nil && !user.HasMadeFirstRecharge {
			var referrer db.User
			err := tx.First(&referrer, *user.ReferredBy).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("load referrer: %w", err)
			}
			if err == nil {
				settings, err := s.repo.ReferralSettings()
				if err != nil {
					return err
				}
				commission := req.Amount * settings.CommissionPercentage / 100
				if commission > 0 {
					err = wallet.Credit(tx, referrer.ID, referrer.Version, commission,
						fmt.Sprintf("Comisión por referido %s", user.Phone))
					if err != nil {
						return err
					}
					referrerID = referrer.ID
				}
			}
		}

		if user.ReferredBy != nil && !user.HasMadeFirstRecharge {
			if err := tx.Model(&db.User{}).Where("id = ?", user.ID).
				Update("has_made_first_recharge", true).Error; err != nil {
				return fmt.Errorf("mark first recharge: %w", err)
			}
		}

		err = wallet.Credit(tx, user.ID, user.Version, req.Amount,
			fmt.Sprintf("Recarga aprobada (Ref: %s)", req.ReferenceID))
		if err != nil {
			return err
		}

		return tx.Model(&req).Update("status", db.StatusApproved).Error
	})
	if errors.Is(err, wallet.ErrConflict) {
		return errConflict("recharge approval lost version race")
	}
	if err != nil {
		return err
	}

	s.publish(ctx, userID, events.KindBalanceChanged)
	s.publish(ctx, userID, events.KindRequestsChanged)
	if referrerID != 0 {
		s.publish(ctx, referrerID, events.KindBalanceChanged)
	}
	slog.Info("Recharge approved", "request_id", requestID, "user_id", userID, "commission_paid", referrerID != 0)
	return nil
}

// RejectRecharge flips the request to rejected. No balance effect.
func (s *Service) RejectRecharge(ctx context.Context, requestID uint) error {
	var userID uint
	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req db.RechargeRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("recharge request")
			}
			return fmt.Errorf("load request: %w", err)
		}
		if req.Status != db.StatusPending {
			return errAlreadyProcessed()
		}
		userID = req.UserID
		return tx.Model(&req).Update("status", db.StatusRejected).Error
	})
	if err != nil {
		return err
	}
	s.publish(ctx, userID, events.KindRequestsChanged)
	return nil
}

// ListRecharges returns requests for the admin queue, optionally filtered
// by status, newest first.
func (s *Service) ListRecharges(ctx context.Context, status string) ([]db.RechargeRequest, error) {
	q := s.repo.DB().WithContext(ctx).Order("requested_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var reqs []db.RechargeRequest
	if err := q.Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("list recharge requests: %w", err)
	}
	return reqs, nil
}

// PurgeStagedRecharges removes staging rows past their TTL. Called by the
// scheduler.
func (s *Service) PurgeStagedRecharges(ctx context.Context) (int64, error) {
	res := s.repo.DB().WithContext(ctx).
		Delete(&db.TempRecharge{}, "created_at < ?", time.Now().Add(-tempRechargeTTL))
	return res.RowsAffected, res.Error
}
