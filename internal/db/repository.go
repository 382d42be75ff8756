package db

import (
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Repository struct {
	db *gorm.DB
}

// NewRepository opens the store. Postgres DSNs are recognized by their
// shape; anything else is treated as a SQLite path (":memory:" in tests).
func NewRepository(dsn string) (*Repository, error) {
	var dial gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.Contains(dsn, "host=") {
		dial = postgres.Open(dsn)
	} else {
		dial = sqlite.Open(dsn)
	}

	// TranslateError maps driver unique-violation errors onto
	// gorm.ErrDuplicatedKey so callers can react to constraint hits.
	gdb, err := gorm.Open(dial, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	return &Repository{db: gdb}, nil
}

func (r *Repository) DB() *gorm.DB {
	return r.db
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&User{},
		&Product{},
		&PurchasedProduct{},
		&Transaction{},
		&TempRecharge{},
		&RechargeRequest{},
		&WithdrawalRequest{},
		&GiftCode{},
		&GiftRedemption{},
		&Setting{},
	)
}
