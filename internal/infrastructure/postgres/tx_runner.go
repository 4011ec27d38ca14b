package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/epos-daily-stats/internal/application/dailystats"
	"github.com/jhoicas/epos-daily-stats/internal/domain/repository"
)

var _ dailystats.TxRunner = (*TxRunner)(nil)

// maxAttempts for a transaction aborted by a deadlock or serialization failure.
const maxAttempts = 3

// TxRunner runs callbacks inside a PostgreSQL transaction.
type TxRunner struct {
	pool    *pgxpool.Pool
	backoff time.Duration
}

// NewTxRunner builds the runner on the pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool, backoff: 50 * time.Millisecond}
}

// RunStats begins a transaction, runs fn with repositories bound to it and commits. Any error
// rolls back; deadlocks and serialization failures re-run fn from scratch.
func (r *TxRunner) RunStats(ctx context.Context, fn func(
	masterRepo repository.MasterDataRepository,
	orderRepo repository.OrderRepository,
	statsRepo repository.StatsRepository,
) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = r.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * r.backoff):
		}
	}
	return fmt.Errorf("transaction retried %d times: %w", maxAttempts, err)
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(
	masterRepo repository.MasterDataRepository,
	orderRepo repository.OrderRepository,
	statsRepo repository.StatsRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewMasterDataRepository(tx), NewOrderRepository(tx), NewStatsRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
