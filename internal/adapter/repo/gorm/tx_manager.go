package gormrepo

import (
	"context"

	"gorm.io/gorm"
)

type txCtxKey struct{}

// TxManager stores the open *gorm.DB in ctx so every repo call made by fn
// joins the same transaction.
type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return TxManager{db: db}
}

// RunInTx opens a transaction, or a savepoint when ctx already carries one.
// An error from a nested call still aborts the caller unless it recovers.
func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return getDBFromCtx(ctx, t.db).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(withTx(ctx, tx))
	})
}

func withTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txCtxKey{}, tx)
}

func getDBFromCtx(ctx context.Context, base *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txCtxKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return base
}
