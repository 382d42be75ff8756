package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"saldoya/internal/db"
	"saldoya/internal/wallet"
)

// Register creates an account with the welcome bonus, links the referrer
// when a code is supplied, and opens a session.
func (s *Service) Register(ctx context.Context, phone, password, referralCode string) (*db.User, string, error) {
	phone = strings.TrimSpace(phone)
	if len(phone) < 7 {
		return nil, "", errInvalidInput("Ingresa un número de celular válido.", "phone too short: %q", phone)
	}
	if len(password) < 6 {
		return nil, "", errInvalidInput("La contraseña debe tener al menos 6 caracteres.", "password too short")
	}

	gdb := s.repo.DB().WithContext(ctx)

	var referrerID *uint
	if referralCode != "" {
		var referrer db.User
		err := gdb.First(&referrer, "referral_code = ?", strings.ToUpper(strings.TrimSpace(referralCode))).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", newError(CodeInvalidReferral, "unknown referral code",
				"El código de referido no es válido.")
		}
		if err != nil {
			return nil, "", fmt.Errorf("resolve referral code: %w", err)
		}
		referrerID = &referrer.ID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := db.User{
		Phone:        phone,
		PasswordHash: string(hash),
		Balance:      s.welcomeBonus,
		Version:      1,
		ReferredBy:   referrerID,
		Role:         db.RoleUser,
		CreatedAt:    time.Now(),
	}

	// The phone's uniqueness is left to the index, so a concurrent
	// duplicate registration cannot slip past a pre-check. Each attempt
	// runs in its own transaction; a failed statement poisons a Postgres
	// transaction, so retries cannot happen inside one.
	for attempt := 0; attempt < 5; attempt++ {
		code := randomCode(6)
		user.ID = 0
		user.DisplayID = code
		user.ReferralCode = code

		err = gdb.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			if s.welcomeBonus > 0 {
				ledger := db.Transaction{
					UserID:      user.ID,
					Type:        db.TxCredit,
					Amount:      s.welcomeBonus,
					Description: "Bono de bienvenida",
					Date:        time.Now(),
				}
				if err := tx.Create(&ledger).Error; err != nil {
					return fmt.Errorf("record welcome bonus: %w", err)
				}
			}
			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var taken int64
			if cerr := gdb.Model(&db.User{}).Where("phone = ?", phone).Count(&taken).Error; cerr != nil {
				return nil, "", fmt.Errorf("check phone: %w", cerr)
			}
			if taken > 0 {
				return nil, "", newError(CodePhoneInUse, "phone already registered",
					"Este número de celular ya está en uso.")
			}
			// Display/referral code collision, retry with a fresh code.
			continue
		}
		return nil, "", err
	}
	if err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	slog.Info("User registered", "user_id", user.ID, "referred", referrerID != nil)
	return &user, token, nil
}

// Login checks credentials and opens a session. The same generic failure
// is returned for unknown phones and wrong passwords.
func (s *Service) Login(ctx context.Context, phone, password string) (*db.User, string, error) {
	var user db.User
	err := s.repo.DB().WithContext(ctx).First(&user, "phone = ?", strings.TrimSpace(phone)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", newError(CodeInvalidCredentials, "unknown phone",
			"Número de celular o contraseña incorrectos.")
	}
	if err != nil {
		return nil, "", fmt.Errorf("load user by phone: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", newError(CodeInvalidCredentials, "wrong password",
			"Número de celular o contraseña incorrectos.")
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ResolveSession maps a token to its user. Used by the auth middleware.
func (s *Service) ResolveSession(ctx context.Context, token string) (*db.User, error) {
	userID, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, newError(CodeUnauthorized, "invalid session", "Tu sesión ha expirado.")
	}

	var user db.User
	if err := s.repo.DB().WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(CodeUnauthorized, "session user gone", "Tu sesión ha expirado.")
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return &user, nil
}

// ReferralOverview - the user's code plus everyone they brought in.
type ReferralOverview struct {
	ReferralCode  string    `json:"referralCode"`
	ReferredUsers []db.User `json:"referredUsers"`
}

func (s *Service) Referrals(ctx context.Context, userID uint) (*ReferralOverview, error) {
	var user db.User
	if err := s.repo.DB().WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	var referred []db.User
	if err := s.repo.DB().WithContext(ctx).
		Where("referred_by = ?", userID).
		Order("created_at DESC").
		Find(&referred).Error; err != nil {
		return nil, fmt.Errorf("load referred users: %w", err)
	}

	return &ReferralOverview{ReferralCode: user.ReferralCode, ReferredUsers: referred}, nil
}

// SetWithdrawalInfo stores the payout account under the version guard so a
// concurrent balance write is never clobbered.
func (s *Service) SetWithdrawalInfo(ctx context.Context, userID uint, info db.WithdrawalInfo) error {
	if strings.TrimSpace(info.NequiAccount) == "" || strings.TrimSpace(info.FullName) == "" || strings.TrimSpace(info.IDNumber) == "" {
		return errInvalidInput("Todos los campos de la cuenta son obligatorios.", "incomplete withdrawal info")
	}

	return s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user db.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		err := wallet.UpdateGuarded(tx, userID, user.Version, map[string]any{
			"wd_nequi_account": info.NequiAccount,
			"wd_full_name":     info.FullName,
			"wd_id_number":     info.IDNumber,
		})
		if errors.Is(err, wallet.ErrConflict) {
			return errConflict("withdrawal info update lost version race")
		}
		return err
	})
}
