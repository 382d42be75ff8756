package yield

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

// Service persists accruals. Triggered on every dashboard read and by the
// hourly sweep, whichever comes first; both paths are idempotent because
// accrual advances LastYieldDate in the same transaction as the credit.
type Service struct {
	repo   *db.Repository
	events *events.Publisher
}

func NewService(repo *db.Repository, ev *events.Publisher) *Service {
	return &Service{repo: repo, events: ev}
}

// AccrueUser credits all pending cycles for one user. Returns whether
// anything changed. A version conflict means another writer got there
// first; the next read reconciles, so conflicts are not errors here.
func (s *Service) AccrueUser(ctx context.Context, userID uint) (bool, error) {
	changed := false

	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user db.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("load user %d: %w", userID, err)
		}

		var products []db.PurchasedProduct
		if err := tx.Where("user_id = ?", userID).Find(&products).Error; err != nil {
			return fmt.Errorf("load products: %w", err)
		}

		res := Process(products, time.Now())
		if !res.Changed {
			return nil
		}

		for i := range res.Updated {
			if err := tx.Save(&res.Updated[i]).Error; err != nil {
				return fmt.Errorf("save product %d: %w", res.Updated[i].ID, err)
			}
		}

		if res.TotalProfit > 0 {
			if err := wallet.Apply(tx, user.ID, user.Version, res.TotalProfit, res.Entries()...); err != nil {
				return err
			}
		}

		changed = true
		return nil
	})

	if errors.Is(err, wallet.ErrConflict) {
		slog.Debug("Yield accrual lost a version race, will catch up next pass", "user_id", userID)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if changed && s.events != nil {
		s.events.Publish(ctx, userID, events.KindBalanceChanged)
	}
	return changed, nil
}

// SweepAll accrues every user that owns at least one active product.
// Used by the scheduler so yields land even for users who never log in.
func (s *Service) SweepAll(ctx context.Context) (int, error) {
	var userIDs []uint
	err := s.repo.DB().WithContext(ctx).
		Model(&db.PurchasedProduct{}).
		Where("status = ?", db.ProductActive).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return 0, fmt.Errorf("list users with active products: %w", err)
	}

	accrued := 0
	for _, id := range userIDs {
		changed, err := s.AccrueUser(ctx, id)
		if err != nil {
			slog.Error("Yield sweep failed for user", "user_id", id, "error", err)
			continue
		}
		if changed {
			accrued++
		}
	}
	return accrued, nil
}
