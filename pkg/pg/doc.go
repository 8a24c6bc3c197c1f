// Package pg bootstraps PostgreSQL access on top of pgx/v5.
//
// Connect opens a *pgxpool.Pool from Config with retries, Migrate runs goose
// migrations from an fs.FS (usually an embed.FS owned by a store package) and
// Healthcheck returns a readiness probe.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, postgres.Migrations, postgres.MigrationsDir, cfg, log); err != nil {
//		return err
//	}
//
// IsDuplicateKeyError, IsForeignKeyViolationError and IsNotFoundError classify
// driver errors without importing pgconn in callers.
package pg
