package ports

import "context"

// TxManager runs fn in one atomic scope. Repositories called with the ctx
// passed to fn join that scope. A nested RunInTx joins the outer scope; an
// error from the inner fn still propagates and aborts the outer one.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
