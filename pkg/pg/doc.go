// Package pg connects to PostgreSQL with pgx/v5 and applies the embedded
// goose migrations.
//
// Connect returns a *pgxpool.Pool; OpenDB bridges it to database/sql for the
// subscription store and counters, which are written against database/sql so
// they can be tested with go-sqlmock.
//
//	pool, err := pg.Connect(ctx, cfg.PG)
//	if err != nil {
//	    return err
//	}
//	db := pg.OpenDB(pool)
//	if cfg.PG.AutoMigrate {
//	    if err := pg.Migrate(ctx, db, migrations.FS, cfg.PG, log); err != nil {
//	        return err
//	    }
//	}
package pg
