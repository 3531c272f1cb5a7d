package pg_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/bizkit-fr/entitlements/pkg/pg"
)

func TestErrorClassifiers(t *testing.T) {
	t.Parallel()

	undefined := fmt.Errorf("list: %w", &pgconn.PgError{Code: "42P01"})
	canceled := fmt.Errorf("count: %w", &pgconn.PgError{Code: "57014"})

	assert.True(t, pg.IsUndefinedTableError(undefined))
	assert.False(t, pg.IsUndefinedTableError(canceled))
	assert.True(t, pg.IsQueryCanceledError(canceled))
	assert.False(t, pg.IsQueryCanceledError(errors.New("plain")))
	assert.False(t, pg.IsQueryCanceledError(nil))
}

func TestConnect_Validation(t *testing.T) {
	t.Parallel()

	_, err := pg.Connect(context.Background(), pg.Config{})
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)

	_, err = pg.Connect(context.Background(), pg.Config{ConnectionString: "postgres://%zz"})
	assert.ErrorIs(t, err, pg.ErrFailedToParseDBConfig)
}
