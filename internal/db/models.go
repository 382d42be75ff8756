package db

import "time"

// User roles
const (
	RoleUser       = "user"
	RoleSupport    = "support"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// PurchasedProduct statuses
const (
	ProductActive  = "active"
	ProductExpired = "expired"
)

// Request statuses (recharges and withdrawals)
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Ledger entry types
const (
	TxCredit = "credit"
	TxDebit  = "debit"
)

// WithdrawalInfo - payout account details (Nequi)
type WithdrawalInfo struct {
	NequiAccount string `json:"nequiAccount"`
	FullName     string `json:"fullName"`
	IDNumber     string `json:"idNumber"`
}

// User - account with balance under optimistic locking. Every
// balance-affecting write must bump Version by exactly one.
type User struct {
	ID                   uint    `gorm:"primaryKey" json:"id"`
	DisplayID            string  `gorm:"size:12;uniqueIndex;not null" json:"displayId"`
	Phone                string  `gorm:"size:32;uniqueIndex;not null" json:"phone"`
	PasswordHash         string  `gorm:"size:128;not null" json:"-"`
	Balance              float64 `gorm:"not null;default:0" json:"balance"`
	Version              int     `gorm:"not null;default:1" json:"version"`
	ReferralCode         string  `gorm:"size:12;uniqueIndex;not null" json:"referralCode"`
	ReferredBy           *uint   `gorm:"index" json:"referredBy,omitempty"`
	Role                 string  `gorm:"size:16;not null;default:'user'" json:"role"`
	HasMadeFirstRecharge bool    `gorm:"not null;default:false" json:"hasMadeFirstRecharge"`

	WithdrawalInfo WithdrawalInfo `gorm:"embedded;embeddedPrefix:wd_" json:"withdrawalInfo"`

	CreatedAt time.Time `json:"createdAt"`
}

// HasWithdrawalInfo reports whether a payout account is on file.
func (u *User) HasWithdrawalInfo() bool {
	return u.WithdrawalInfo.NequiAccount != ""
}

// Product - admin-managed template
type Product struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"size:128;not null" json:"name"`
	Price          float64    `gorm:"not null" json:"price"`
	DailyYield     float64    `gorm:"not null" json:"dailyYield"` // percent per 24h cycle
	PurchaseLimit  int        `gorm:"not null;default:1" json:"purchaseLimit"`
	DurationDays   int        `gorm:"not null" json:"durationDays"`
	ImageURL       string     `gorm:"size:512" json:"imageUrl"`
	IsTimeLimited  bool       `gorm:"not null;default:false" json:"isTimeLimited"`
	TimeLimitHours int        `json:"timeLimitHours,omitempty"`
	TimeLimitSetAt *time.Time `json:"timeLimitSetAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// OfferOpen reports whether a time-limited product can still be bought at t.
func (p *Product) OfferOpen(t time.Time) bool {
	if !p.IsTimeLimited || p.TimeLimitSetAt == nil {
		return true
	}
	deadline := p.TimeLimitSetAt.Add(time.Duration(p.TimeLimitHours) * time.Hour)
	return t.Before(deadline)
}

// PurchasedProduct - a unit owned by a user. Price, yield and duration are
// snapshotted at purchase time so later template edits don't affect it.
type PurchasedProduct struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"index;not null" json:"userId"`
	ProductID     uint       `gorm:"index;not null" json:"productId"`
	Name          string     `gorm:"size:128;not null" json:"name"`
	Price         float64    `gorm:"not null" json:"price"`
	DailyYield    float64    `gorm:"not null" json:"dailyYield"`
	DurationDays  int        `gorm:"not null" json:"durationDays"`
	ImageURL      string     `gorm:"size:512" json:"imageUrl"`
	PurchaseDate  time.Time  `gorm:"not null" json:"purchaseDate"`
	LastYieldDate *time.Time `json:"lastYieldDate,omitempty"`
	Status        string     `gorm:"size:16;not null;default:'active'" json:"status"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// ExpirationDate is PurchaseDate plus the snapshotted duration in calendar days.
func (p *PurchasedProduct) ExpirationDate() time.Time {
	return p.PurchaseDate.AddDate(0, 0, p.DurationDays)
}

// Transaction - immutable ledger entry. Never updated or deleted.
type Transaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	Type        string    `gorm:"size:8;not null" json:"type"` // credit | debit
	Amount      float64   `gorm:"not null" json:"amount"`
	Description string    `gorm:"size:256;not null" json:"description"`
	Date        time.Time `gorm:"index;not null" json:"date"`
}

// TempRecharge - short-lived staging row holding a pending recharge amount
// before the user submits a payment reference. Purged by the scheduler.
type TempRecharge struct {
	Reference string    `gorm:"primaryKey;size:64" json:"reference"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Amount    float64   `gorm:"not null" json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}

// RechargeRequest - manual bank-transfer recharge awaiting admin review.
// ReferenceID is the user-supplied payment reference and doubles as the
// duplicate-approval dedup key.
type RechargeRequest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ReferenceID string    `gorm:"size:64;index;not null" json:"referenceId"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	UserPhone   string    `gorm:"size:32" json:"userPhone"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Status      string    `gorm:"size:16;not null;default:'pending'" json:"status"`
	RequestedAt time.Time `json:"requestedAt"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// WithdrawalRequest - payout request with account snapshot. The balance is
// debited when the request is created and refunded on rejection.
type WithdrawalRequest struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"index;not null" json:"userId"`
	UserPhone    string     `gorm:"size:32" json:"userPhone"`
	Amount       float64    `gorm:"not null" json:"amount"`
	Fee          float64    `gorm:"not null" json:"fee"`
	NequiAccount string     `gorm:"size:64" json:"nequiAccount"`
	FullName     string     `gorm:"size:128" json:"fullName"`
	IDNumber     string     `gorm:"size:32" json:"idNumber"`
	Status       string     `gorm:"size:16;not null;default:'pending'" json:"status"`
	RequestedAt  time.Time  `json:"requestedAt"`
	ProcessedAt  *time.Time `json:"processedAt,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// GiftCode - redeemable code. Redemptions live in GiftRedemption; the
// composite unique index there enforces at most one redemption per user.
// GiftCode - RedemptionCount is bumped with a conditional update
// (redemption_count < usage_limit) so the cap holds under concurrent
// redemptions.
type GiftCode struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Code             string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Amount           float64   `gorm:"not null" json:"amount"`
	UsageLimit       int       `gorm:"not null" json:"usageLimit"`
	RedemptionCount  int       `gorm:"not null;default:0" json:"redemptionCount"`
	ExpiresInMinutes int       `gorm:"not null" json:"expiresInMinutes"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ExpiresAt is CreatedAt plus the configured lifetime.
func (g *GiftCode) ExpiresAt() time.Time {
	return g.CreatedAt.Add(time.Duration(g.ExpiresInMinutes) * time.Minute)
}

type GiftRedemption struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GiftCodeID uint      `gorm:"not null;uniqueIndex:idx_gift_code_user" json:"giftCodeId"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_gift_code_user" json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Setting - singleton configuration document, JSON-encoded by key.
type Setting struct {
	Key   string `gorm:"primaryKey;size:32"`
	Value string `gorm:"type:text;not null"`
}
