package db

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedSuperAdmin creates the superadmin account from the environment on
// first start. Does nothing when the phone is empty or already registered.
func (r *Repository) SeedSuperAdmin(phone, password string) error {
	if phone == "" || password == "" {
		return nil
	}

	var existing User
	err := r.db.First(&existing, "phone = ?", phone).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("seed superadmin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed superadmin: %w", err)
	}

	admin := User{
		DisplayID:    "ADMIN0",
		Phone:        phone,
		PasswordHash: string(hash),
		Balance:      0,
		Version:      1,
		ReferralCode: "ADMIN0",
		Role:         RoleSuperAdmin,
		CreatedAt:    time.Now(),
	}
	if err := r.db.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed superadmin: %w", err)
	}

	slog.Info("Superadmin account created", "phone", phone)
	return nil
}
