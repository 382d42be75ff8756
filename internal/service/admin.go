package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/gorm"

	"saldoya/internal/db"
	"saldoya/internal/events"
	"saldoya/internal/wallet"
)

// Balance adjustment actions for the admin console.
const (
	AdjustAdd      = "add"
	AdjustSubtract = "subtract"
	AdjustSet      = "set"
)

// ListUsers returns every account, newest first.
func (s *Service) ListUsers(ctx context.Context) ([]db.User, error) {
	var users []db.User
	if err := s.repo.DB().WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// AdjustBalance applies an admin add/subtract/set with a mandatory
// description. There is no automatic retry here: a version conflict is
// surfaced so the admin re-reads before deciding again.
func (s *Service) AdjustBalance(ctx context.Context, userID uint, action string, amount float64, description string) error {
	if amount <= 0 {
		return errInvalidInput("El monto debe ser un número positivo.", "non-positive amount %f", amount)
	}
	if description == "" {
		return errInvalidInput("La descripción es requerida.", "empty description")
	}

	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user db.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("user")
			}
			return fmt.Errorf("load user: %w", err)
		}

		var delta float64
		entry := wallet.Entry{Description: description}

		switch action {
		case AdjustAdd:
			delta = amount
			entry.Type = db.TxCredit
			entry.Amount = amount
		case AdjustSubtract:
			delta = -amount
			entry.Type = db.TxDebit
			entry.Amount = amount
		case AdjustSet:
			delta = amount - user.Balance
			if delta == 0 {
				return nil
			}
			entry.Amount = math.Abs(delta)
			if delta >= 0 {
				entry.Type = db.TxCredit
			} else {
				entry.Type = db.TxDebit
			}
		default:
			return errInvalidInput("Acción inválida.", "unknown adjust action %q", action)
		}

		return wallet.Apply(tx, user.ID, user.Version, delta, entry)
	})
	if errors.Is(err, wallet.ErrConflict) {
		return errConflict("admin balance edit lost version race")
	}
	if err != nil {
		return err
	}

	s.publish(ctx, userID, events.KindBalanceChanged)
	slog.Info("Admin balance adjustment", "user_id", userID, "action", action, "amount", amount)
	return nil
}

// DeleteUser removes the account row. Owned products and ledger entries are
// intentionally left in place, matching the original console's behavior.
func (s *Service) DeleteUser(ctx context.Context, userID uint) error {
	res := s.repo.DB().WithContext(ctx).Delete(&db.User{}, userID)
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotFound("user")
	}
	return nil
}

// UserProducts lists one user's owned products for the admin detail view.
func (s *Service) UserProducts(ctx context.Context, userID uint) ([]db.PurchasedProduct, error) {
	var products []db.PurchasedProduct
	err := s.repo.DB().WithContext(ctx).
		Where("user_id = ?", userID).
		Order("purchase_date DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("list user products: %w", err)
	}
	return products, nil
}

func (s *Service) DeleteUserProduct(ctx context.Context, userID, productID uint) error {
	res := s.repo.DB().WithContext(ctx).
		Delete(&db.PurchasedProduct{}, "id = ? AND user_id = ?", productID, userID)
	if res.Error != nil {
		return fmt.Errorf("delete user product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotFound("purchased product")
	}
	return nil
}

// ProductInput - fields an admin sets when creating or editing a template.
type ProductInput struct {
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	DailyYield     float64 `json:"dailyYield"`
	PurchaseLimit  int     `json:"purchaseLimit"`
	DurationDays   int     `json:"durationDays"`
	ImageURL       string  `json:"imageUrl"`
	IsTimeLimited  bool    `json:"isTimeLimited"`
	TimeLimitHours int     `json:"timeLimitHours"`
}

func (in *ProductInput) validate() error {
	if in.Name == "" {
		return errInvalidInput("El nombre es requerido.", "empty product name")
	}
	if in.Price <= 0 {
		return errInvalidInput("El precio debe ser mayor que cero.", "price %f", in.Price)
	}
	if in.DailyYield < 0 {
		return errInvalidInput("El rendimiento no puede ser negativo.", "yield %f", in.DailyYield)
	}
	if in.PurchaseLimit < 1 {
		return errInvalidInput("El límite de compra debe ser al menos 1.", "limit %d", in.PurchaseLimit)
	}
	if in.DurationDays < 1 {
		return errInvalidInput("La duración debe ser de al menos 1 día.", "duration %d", in.DurationDays)
	}
	if in.IsTimeLimited && in.TimeLimitHours < 1 {
		return errInvalidInput("Las horas de la oferta deben ser al menos 1.", "offer hours %d", in.TimeLimitHours)
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*db.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	product := db.Product{
		Name:          in.Name,
		Price:         in.Price,
		DailyYield:    in.DailyYield,
		PurchaseLimit: in.PurchaseLimit,
		DurationDays:  in.DurationDays,
		ImageURL:      in.ImageURL,
		IsTimeLimited: in.IsTimeLimited,
		CreatedAt:     time.Now(),
	}
	if in.IsTimeLimited {
		now := time.Now()
		product.TimeLimitHours = in.TimeLimitHours
		product.TimeLimitSetAt = &now
	}

	if err := s.repo.DB().WithContext(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &product, nil
}

// UpdateProduct edits a template. Turning the time-limited flag on restarts
// the offer window; turning it off clears it. Owned products are untouched
// because they carry their own snapshots.
func (s *Service) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*db.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var product db.Product
	if err := s.repo.DB().WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("product")
		}
		return nil, fmt.Errorf("load product: %w", err)
	}

	product.Name = in.Name
	product.Price = in.Price
	product.DailyYield = in.DailyYield
	product.PurchaseLimit = in.PurchaseLimit
	product.DurationDays = in.DurationDays
	product.ImageURL = in.ImageURL

	if in.IsTimeLimited && !product.IsTimeLimited {
		now := time.Now()
		product.TimeLimitSetAt = &now
	}
	product.IsTimeLimited = in.IsTimeLimited
	if in.IsTimeLimited {
		product.TimeLimitHours = in.TimeLimitHours
	} else {
		product.TimeLimitHours = 0
		product.TimeLimitSetAt = nil
	}

	if err := s.repo.DB().WithContext(ctx).Save(&product).Error; err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return &product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	res := s.repo.DB().WithContext(ctx).Delete(&db.Product{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotFound("product")
	}
	return nil
}

// PendingCounts feeds the daily admin digest.
func (s *Service) PendingCounts(ctx context.Context) (recharges, withdrawals int64, err error) {
	gdb := s.repo.DB().WithContext(ctx)
	if err = gdb.Model(&db.RechargeRequest{}).Where("status = ?", db.StatusPending).Count(&recharges).Error; err != nil {
		return 0, 0, fmt.Errorf("count pending recharges: %w", err)
	}
	if err = gdb.Model(&db.WithdrawalRequest{}).Where("status = ?", db.StatusPending).Count(&withdrawals).Error; err != nil {
		return 0, 0, fmt.Errorf("count pending withdrawals: %w", err)
	}
	return recharges, withdrawals, nil
}
