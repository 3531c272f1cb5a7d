package entitlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bizkit-fr/entitlements/pkg/pg"
	"github.com/bizkit-fr/entitlements/pkg/plans"
)

const listSubscriptionsQuery = `SELECT id, user_id, plan_name, status, billing_cycle, start_date, end_date, next_billing_date, created_at, updated_at
FROM subscriptions
WHERE user_id = $1
ORDER BY created_at DESC, id DESC`

// PostgresStore reads subscriptions from the subscriptions table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a store over db. Panics if db is nil.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	if db == nil {
		panic("entitlement: database handle is required")
	}
	return &PostgresStore{db: db}
}

// ListByUser returns every subscription row of the user, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Subscription, error) {
	rows, err := s.db.QueryContext(ctx, listSubscriptionsQuery, userID)
	if err != nil {
		return nil, pgError("query subscriptions", err)
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var (
			sub             Subscription
			endDate, nextAt sql.NullTime
		)
		if err := rows.Scan(
			&sub.ID, &sub.UserID, &sub.PlanName, &sub.Status, &sub.BillingCycle,
			&sub.StartDate, &endDate, &nextAt, &sub.CreatedAt, &sub.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		if endDate.Valid {
			sub.EndDate = &endDate.Time
		}
		if nextAt.Valid {
			sub.NextBillingDate = &nextAt.Time
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

const bytesPerMegabyte = 1 << 20

// Tables holding the countable rows, keyed by resource.
var postgresTables = map[plans.Resource]string{
	plans.ResourceClients:       "clients",
	plans.ResourceQuotes:        "quotes",
	plans.ResourceInvoices:      "invoices",
	plans.ResourceShowcaseSites: "showcase_sites",
}

// PostgresCounters returns exact counters over the application tables.
// Storage is the sum of documents.size_bytes rounded up to whole megabytes.
func PostgresCounters(db *sql.DB) map[plans.Resource]CounterFunc {
	if db == nil {
		panic("entitlement: database handle is required")
	}
	out := make(map[plans.Resource]CounterFunc, len(plans.Resources))
	for res, table := range postgresTables {
		query := "SELECT count(*) FROM " + table + " WHERE user_id = $1"
		out[res] = func(ctx context.Context, userID uuid.UUID) (int64, error) {
			var n int64
			if err := db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
				return 0, pgError("count "+table, err)
			}
			return n, nil
		}
	}
	out[plans.ResourceStorageMB] = func(ctx context.Context, userID uuid.UUID) (int64, error) {
		var total int64
		err := db.QueryRowContext(ctx,
			"SELECT COALESCE(SUM(size_bytes), 0) FROM documents WHERE user_id = $1", userID,
		).Scan(&total)
		if err != nil {
			return 0, pgError("sum documents", err)
		}
		return megabytes(total), nil
	}
	return out
}

func pgError(op string, err error) error {
	switch {
	case pg.IsUndefinedTableError(err):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrSchemaMissing, err))
	case pg.IsQueryCanceledError(err):
		return fmt.Errorf("%s: statement canceled: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func megabytes(b int64) int64 {
	if b <= 0 {
		return 0
	}
	return (b + bytesPerMegabyte - 1) / bytesPerMegabyte
}
