package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// TxManager draws the commit boundary of a unit of work. Everything executed
// inside Do either commits as a whole or leaves no trace.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// NewTxManager constructs a GORM-backed transaction manager.
func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

type gormTxManager struct {
	db *gorm.DB
}

func (m *gormTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFromContext resolves the transactional handle planted by TxManager.Do,
// falling back to the repository's own connection outside of a transaction.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}
