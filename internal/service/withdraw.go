package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"saldoya/internal/db"
	"saldoya/internal/events"
	"saldoya/internal/wallet"
)

// RequestWithdrawal validates the configured rules and debits the amount up
// front; a rejection refunds it. The request snapshots the payout account
// so later edits don't change where an approved withdrawal is paid.
func (s *Service) RequestWithdrawal(ctx context.Context, userID uint, amount float64) (*db.WithdrawalRequest, error) {
	if amount <= 0 {
		return nil, errInvalidInput("Por favor, ingresa un monto válido.", "non-positive amount %f", amount)
	}

	settings, err := s.repo.WithdrawalSettings()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !withdrawalWindowOpen(settings, now) {
		return nil, newError(CodeWithdrawalClosed, "outside withdrawal window",
			fmt.Sprintf("Los retiros solo están disponibles de %d:00 a %d:00 en los días habilitados.",
				settings.StartHour, settings.EndHour))
	}
	if amount < settings.MinWithdrawal {
		return nil, errInvalidInput(
			fmt.Sprintf("El monto mínimo de retiro es %s.", FormatCOP(settings.MinWithdrawal)),
			"amount %f below minimum %f", amount, settings.MinWithdrawal)
	}

	var req *db.WithdrawalRequest

	err = s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user db.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if !user.HasWithdrawalInfo() {
			return newError(CodeNoPayoutAccount, "no payout account on file",
				"Debes registrar tu cuenta Nequi antes de solicitar un retiro.")
		}
		if user.Balance < amount {
			return errInsufficientBalance()
		}

		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		var today int64
		err := tx.Model(&db.WithdrawalRequest{}).
			Where("user_id = ? AND requested_at >= ? AND status <> ?", userID, startOfDay, db.StatusRejected).
			Count(&today).Error
		if err != nil {
			return fmt.Errorf("count today's withdrawals: %w", err)
		}
		if int(today) >= settings.DailyLimit {
			return newError(CodeWithdrawalLimit, "daily withdrawal limit reached",
				fmt.Sprintf("Solo puedes solicitar %d retiro(s) por día.", settings.DailyLimit))
		}

		newReq := db.WithdrawalRequest{
			UserID:       userID,
			UserPhone:    user.Phone,
			Amount:       amount,
			Fee:          amount * settings.FeePercentage / 100,
			NequiAccount: user.WithdrawalInfo.NequiAccount,
			FullName:     user.WithdrawalInfo.FullName,
			IDNumber:     user.WithdrawalInfo.IDNumber,
			Status:       db.StatusPending,
			RequestedAt:  now,
		}
		if err := tx.Create(&newReq).Error; err != nil {
			return fmt.Errorf("create withdrawal request: %w", err)
		}

		err = wallet.Debit(tx, user.ID, user.Version, amount,
			fmt.Sprintf("Retiro solicitado (#%d)", newReq.ID))
		if err != nil {
			return err
		}

		req = &newReq
		return nil
	})
	if errors.Is(err, wallet.ErrConflict) {
		return nil, errConflict("withdrawal request lost version race")
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, userID, events.KindBalanceChanged)
	s.publish(ctx, userID, events.KindRequestsChanged)
	s.notifier.WithdrawalRequested(req)
	return req, nil
}

func withdrawalWindowOpen(settings db.WithdrawalSettings, t time.Time) bool {
	dayAllowed := false
	for _, d := range settings.AllowedDays {
		if int(t.Weekday()) == d {
			dayAllowed = true
			break
		}
	}
	if !dayAllowed {
		return false
	}
	hour := t.Hour()
	return hour >= settings.StartHour && hour < settings.EndHour
}

// ApproveWithdrawal marks the payout done. The balance was already debited
// at request time, so approval only stamps the terminal state.
func (s *Service) ApproveWithdrawal(ctx context.Context, requestID uint) error {
	var userID uint
	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req db.WithdrawalRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("withdrawal request")
			}
			return fmt.Errorf("load request: %w", err)
		}
		if req.Status != db.StatusPending {
			return errAlreadyProcessed()
		}
		userID = req.UserID
		now := time.Now()
		return tx.Model(&req).Updates(map[string]any{
			"status":       db.StatusApproved,
			"processed_at": now,
		}).Error
	})
	if err != nil {
		return err
	}
	s.publish(ctx, userID, events.KindRequestsChanged)
	return nil
}

// RejectWithdrawal refunds the debited amount with a credit ledger entry.
func (s *Service) RejectWithdrawal(ctx context.Context, requestID uint) error {
	var userID uint

	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req db.WithdrawalRequest
		if err := tx.First(&req, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("withdrawal request")
			}
			return fmt.Errorf("load request: %w", err)
		}
		if req.Status != db.StatusPending {
			return errAlreadyProcessed()
		}

		var user db.User
		if err := tx.First(&user, req.UserID).Error; err != nil {
			return fmt.Errorf("load user: %w", err)
		}

		err := wallet.Credit(tx, user.ID, user.Version, req.Amount,
			fmt.Sprintf("Reembolso de retiro rechazado (#%d)", req.ID))
		if err != nil {
			return err
		}

		userID = user.ID
		now := time.Now()
		return tx.Model(&req).Updates(map[string]any{
			"status":       db.StatusRejected,
			"processed_at": now,
		}).Error
	})
	if errors.Is(err, wallet.ErrConflict) {
		return errConflict("withdrawal rejection lost version race")
	}
	if err != nil {
		return err
	}

	s.publish(ctx, userID, events.KindBalanceChanged)
	s.publish(ctx, userID, events.KindRequestsChanged)
	slog.Info("Withdrawal rejected and refunded", "request_id", requestID, "user_id", userID)
	return nil
}

// ListWithdrawals returns requests for the admin queue, optionally filtered
// by status, newest first.
func (s *Service) ListWithdrawals(ctx context.Context, status string) ([]db.WithdrawalRequest, error) {
	q := s.repo.DB().WithContext(ctx).Order("requested_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var reqs []db.WithdrawalRequest
	if err := q.Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("list withdrawal requests: %w", err)
	}
	return reqs, nil
}

// UserWithdrawals returns one user's own requests, newest first.
func (s *Service) UserWithdrawals(ctx context.Context, userID uint) ([]db.WithdrawalRequest, error) {
	var reqs []db.WithdrawalRequest
	err := s.repo.DB().WithContext(ctx).
		Where("user_id = ?", userID).
		Order("requested_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("list user withdrawals: %w", err)
	}
	return reqs, nil
}
