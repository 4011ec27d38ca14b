package repository

import (
	"context"
	"time"

	"github.com/jhoicas/epos-daily-stats/internal/domain/entity"
)

// OrderRepository read port over captured orders.
type OrderRepository interface {
	// ListCreatedBetween orders with created_at in [from, to), lines loaded and metadata parsed,
	// ordered by id.
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]entity.Order, error)
	// DeleteCreatedBefore retention sweep; lines go with their order.
	DeleteCreatedBefore(ctx context.Context, before time.Time) (int64, error)
	// NormalizeStatus rewrites status from to to and returns the orders affected; with dryRun
	// it only counts them.
	NormalizeStatus(ctx context.Context, from, to string, dryRun bool) (int64, error)
}
