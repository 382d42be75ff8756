// Package wallet is the single write path for user balances. Every
// balance-affecting operation goes through Apply, which pairs an optimistic
// version check on the user row with the ledger entries recording the
// change, all inside the caller's transaction.
package wallet

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"saldoya/internal/db"
)

// ErrConflict - the user row was modified concurrently; the caller read a
// stale version. Re-read and retry, or surface the failure.
var ErrConflict = errors.New("concurrent modification detected")

// ErrInvalidEntry - the ledger entry failed validation before any write.
var ErrInvalidEntry = errors.New("invalid ledger entry")

// Entry describes one ledger transaction to record alongside a balance change.
type Entry struct {
	Type        string // db.TxCredit | db.TxDebit
	Amount      float64
	Description string
}

func (e Entry) validate() error {
	if e.Type != db.TxCredit && e.Type != db.TxDebit {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEntry, e.Type)
	}
	if e.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidEntry)
	}
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidEntry)
	}
	return nil
}

// Apply adjusts the user's balance by delta and bumps the version by exactly
// one, but only if the stored version still equals expectedVersion. One
// ledger row is inserted per entry in the same transaction, so a committed
// balance change always has its matching ledger entries.
func Apply(tx *gorm.DB, userID uint, expectedVersion int, delta float64, entries ...Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: at least one entry is required", ErrInvalidEntry)
	}
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return err
		}
	}

	res := tx.Model(&db.User{}).
		Where("id = ? AND version = ?", userID, expectedVersion).
		Updates(map[string]any{
			"balance": gorm.Expr("balance + ?", delta),
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("apply balance change: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}

	now := time.Now()
	for _, e := range entries {
		ledger := db.Transaction{
			UserID:      userID,
			Type:        e.Type,
			Amount:      e.Amount,
			Description: e.Description,
			Date:        now,
		}
		if err := tx.Create(&ledger).Error; err != nil {
			return fmt.Errorf("record ledger entry: %w", err)
		}
	}
	return nil
}

// Credit is Apply with a positive delta equal to the entry amount.
func Credit(tx *gorm.DB, userID uint, expectedVersion int, amount float64, description string) error {
	return Apply(tx, userID, expectedVersion, amount, Entry{
		Type:        db.TxCredit,
		Amount:      amount,
		Description: description,
	})
}

// Debit is Apply with a negative delta equal to the entry amount.
func Debit(tx *gorm.DB, userID uint, expectedVersion int, amount float64, description string) error {
	return Apply(tx, userID, expectedVersion, amount, Entry{
		Type:        db.TxDebit,
		Amount:      amount,
		Description: description,
	})
}

// UpdateGuarded applies non-balance field updates to the user row under the
// same version check, for writers that must not clobber concurrent balance
// changes (payout account edits, role changes).
func UpdateGuarded(tx *gorm.DB, userID uint, expectedVersion int, fields map[string]any) error {
	fields["version"] = gorm.Expr("version + 1")
	res := tx.Model(&db.User{}).
		Where("id = ? AND version = ?", userID, expectedVersion).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("guarded update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
