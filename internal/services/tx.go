package services

import (
	"context"
	"sync"
)

type commitHooksKey struct{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

// withinTx runs fn in a transaction. Work queued with afterCommit inside fn runs once the
// outermost transaction has committed and is dropped if it rolls back.
func withinTx(ctx context.Context, tx Transactor, fn func(ctx context.Context) error) error {
	if _, nested := ctx.Value(commitHooksKey{}).(*commitHooks); nested {
		return tx.WithinTx(ctx, fn)
	}

	hooks := &commitHooks{}
	if err := tx.WithinTx(context.WithValue(ctx, commitHooksKey{}, hooks), fn); err != nil {
		return err
	}

	hooks.mu.Lock()
	fns := hooks.fns
	hooks.fns = nil
	hooks.mu.Unlock()
	for _, f := range fns {
		f(ctx)
	}
	return nil
}

// afterCommit runs fn after the enclosing withinTx commits, or immediately outside one.
func afterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if hooks, ok := ctx.Value(commitHooksKey{}).(*commitHooks); ok {
		hooks.mu.Lock()
		hooks.fns = append(hooks.fns, fn)
		hooks.mu.Unlock()
		return
	}
	fn(ctx)
}
