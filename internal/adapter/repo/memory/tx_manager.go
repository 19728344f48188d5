package memory

import "context"

type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) TxManager {
	return TxManager{store: store}
}

// RunInTx serialises fn against the store and restores the pre-call state
// when fn fails. Nested calls join the outer scope.
func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if owner, _ := ctx.Value(txMarker{}).(*Store); owner == t.store {
		return fn(ctx)
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	snap := t.store.snapshot()
	if err := fn(context.WithValue(ctx, txMarker{}, t.store)); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}
