// Package mongo connects to MongoDB with the official v2 driver.
//
// Configuration comes from MONGODB_* environment variables. New retries the
// initial connect and ping; NewWithDatabase also selects the configured
// database. Healthcheck plugs into the HTTP readiness probe.
//
//	var cfg mongo.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
// Connection failures match ErrFailedToConnectToMongo with errors.Is.
package mongo
