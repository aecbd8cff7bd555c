// Package database opens the store engine selected by STORE_DRIVER.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store/memstore"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store/mongostore"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/store/pgstore"
)

const (
	defaultMongoDatabase = "onboarding-db"
	pingTimeout          = 5 * time.Second
)

// Open connects to the configured engine and prepares its schema. Outside
// production an unreachable database is logged and the returned store
// fails each call instead.
func Open(ctx context.Context, cfg *config.Config) (store.Store, error) {
	uniqueUser := cfg.SubmissionPolicy == config.PolicyUpsert

	switch cfg.StoreDriver {
	case config.DriverMemory:
		slog.Warn("using in-memory store, data will not survive a restart")
		return memstore.New(), nil
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, uniqueUser)
	default:
		return openMongo(ctx, cfg, uniqueUser)
	}
}

func openMongo(ctx context.Context, cfg *config.Config, uniqueUser bool) (store.Store, error) {
	dbName, err := MongoDatabaseName(cfg.MongoURL, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.MongoURL).
		SetServerSelectionTimeout(pingTimeout).
		SetMaxPoolSize(50).
		SetMaxConnIdleTime(5*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	st := mongostore.New(client, dbName, cfg.OnboardingCollection)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := st.Ping(pingCtx); err != nil {
		if err := unreachable(cfg, err); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		return st, nil
	}

	if err := st.EnsureIndexes(ctx, uniqueUser); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	slog.Info("database connected", "driver", config.DriverMongo, "database", dbName, "collection", cfg.OnboardingCollection)
	return st, nil
}

// MongoDatabaseName picks the database: an explicit name wins, then the
// path of the connection string, then the default.
func MongoDatabaseName(uri, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", fmt.Errorf("invalid MONGODB_URL: %w", err)
	}
	if cs.Database != "" {
		return cs.Database, nil
	}
	return defaultMongoDatabase, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, uniqueUser bool) (store.Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Warn),
		TranslateError:       true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	st := pgstore.New(db)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := st.Ping(pingCtx); err != nil {
		if err := unreachable(cfg, err); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return st, nil
	}

	if err := st.Migrate(uniqueUser); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database connected", "driver", config.DriverPostgres, "database", cfg.DBName)
	return st, nil
}

func unreachable(cfg *config.Config, err error) error {
	if cfg.IsProduction() {
		return err
	}
	slog.Warn("database unreachable, serving in degraded mode", "driver", cfg.StoreDriver, "error", err)
	return nil
}
