// Package service implements the SaldoYa workflows: registration and login,
// recharges, product purchases, withdrawals, gift codes and the admin
// console operations. All balance writes go through the wallet package.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"saldoya/internal/db"
	"saldoya/internal/events"
	"saldoya/internal/notify"
	"saldoya/internal/session"
	"saldoya/internal/yield"
)

type Service struct {
	repo     *db.Repository
	sessions session.Store
	events   *events.Publisher
	notifier *notify.Notifier
	yield    *yield.Service

	welcomeBonus float64
}

func New(repo *db.Repository, sessions session.Store, ev *events.Publisher, notifier *notify.Notifier, ys *yield.Service, welcomeBonus float64) *Service {
	return &Service{
		repo:         repo,
		sessions:     sessions,
		events:       ev,
		notifier:     notifier,
		yield:        ys,
		welcomeBonus: welcomeBonus,
	}
}

// Dashboard - everything the user panel needs in one read. Pending yields
// are accrued first, so the returned balance is current.
type Dashboard struct {
	User         db.User               `json:"user"`
	Products     []db.PurchasedProduct `json:"purchasedProducts"`
	Transactions []db.Transaction      `json:"transactions"`
}

func (s *Service) Dashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	if _, err := s.yield.AccrueUser(ctx, userID); err != nil {
		return nil, err
	}

	var d Dashboard
	if err := s.repo.DB().WithContext(ctx).First(&d.User, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("user")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := s.repo.DB().WithContext(ctx).
		Where("user_id = ?", userID).
		Order("purchase_date DESC").
		Find(&d.Products).Error; err != nil {
		return nil, fmt.Errorf("load purchased products: %w", err)
	}

	if err := s.repo.DB().WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Limit(50).
		Find(&d.Transactions).Error; err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	return &d, nil
}

// Transactions returns the user's full ledger history, newest first.
func (s *Service) Transactions(ctx context.Context, userID uint) ([]db.Transaction, error) {
	var txs []db.Transaction
	err := s.repo.DB().WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return txs, nil
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// randomCode generates a short uppercase code for display IDs, referral
// codes and gift codes. Ambiguous characters are excluded.
func randomCode(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}

func (s *Service) publish(ctx context.Context, userID uint, kind string) {
	if s.events != nil {
		s.events.Publish(ctx, userID, kind)
	}
}
