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

// ListProducts returns the catalog, time-limited offers first.
func (s *Service) ListProducts(ctx context.Context) ([]db.Product, error) {
	var products []db.Product
	err := s.repo.DB().WithContext(ctx).
		Order("is_time_limited DESC, created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Purchase debits the total cost and creates one owned record per unit,
// snapshotting the template, all in a single transaction. The balance is
// re-read inside the transaction and the debit goes through the version
// guard; a concurrent balance write rolls everything back and surfaces as
// a conflict for the client to retry.
func (s *Service) Purchase(ctx context.Context, userID uint, productID uint, quantity int) ([]db.PurchasedProduct, error) {
	if quantity <= 0 {
		return nil, errInvalidInput("La cantidad debe ser un número mayor que cero.", "non-positive quantity %d", quantity)
	}

	var created []db.PurchasedProduct

	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product db.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("product")
			}
			return fmt.Errorf("load product: %w", err)
		}

		now := time.Now()
		if !product.OfferOpen(now) {
			return newError(CodeOfferExpired, "time-limited offer closed",
				"La oferta por tiempo limitado de este producto ha terminado.")
		}

		var user db.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("load user: %w", err)
		}

		totalCost := product.Price * float64(quantity)
		if user.Balance < totalCost {
			return errInsufficientBalance()
		}

		var owned int64
		err := tx.Model(&db.PurchasedProduct{}).
			Where("user_id = ? AND product_id = ?", userID, productID).
			Count(&owned).Error
		if err != nil {
			return fmt.Errorf("count owned products: %w", err)
		}
		if int(owned)+quantity > product.PurchaseLimit {
			return newError(CodePurchaseLimit,
				fmt.Sprintf("limit %d, owned %d, requested %d", product.PurchaseLimit, owned, quantity),
				fmt.Sprintf("No puedes comprar esta cantidad. El límite para este producto es %d y ya posees %d.",
					product.PurchaseLimit, owned))
		}

		created = make([]db.PurchasedProduct, 0, quantity)
		for i := 0; i < quantity; i++ {
			unit := db.PurchasedProduct{
				UserID:       userID,
				ProductID:    product.ID,
				Name:         product.Name,
				Price:        product.Price,
				DailyYield:   product.DailyYield,
				DurationDays: product.DurationDays,
				ImageURL:     product.ImageURL,
				PurchaseDate: now,
				Status:       db.ProductActive,
			}
			if err := tx.Create(&unit).Error; err != nil {
				return fmt.Errorf("create purchased product: %w", err)
			}
			created = append(created, unit)
		}

		return wallet.Debit(tx, user.ID, user.Version, totalCost,
			fmt.Sprintf("Compra: %s (x%d)", product.Name, quantity))
	})
	if errors.Is(err, wallet.ErrConflict) {
		return nil, errConflict("purchase lost version race")
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, userID, events.KindBalanceChanged)
	s.publish(ctx, userID, events.KindProductsChanged)
	slog.Info("Purchase completed", "user_id", userID, "product_id", productID, "quantity", quantity)
	return created, nil
}
