package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-webflux/internal/config"
	"catalog-webflux/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Store is the opened persistence backend selected by configuration
type Store struct {
	Driver     string
	Categories repository.CategoryRepository
	Products   repository.ProductRepository

	db    *sql.DB
	mongo *mongo.Database
}

// Open connects the configured store driver. The postgres driver also runs
// pending migrations.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	store := &Store{Driver: cfg.Store.Driver}

	switch cfg.Store.Driver {
	case config.DriverMongo:
		db, err := ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, logger)
		if err != nil {
			return nil, err
		}
		store.mongo = db
		store.Categories = repository.NewMongoCategoryRepository(db)
		store.Products = repository.NewMongoProductRepository(db)

	case config.DriverPostgres:
		db, err := Connect(ctx, cfg.Database.DSN(), logger)
		if err != nil {
			return nil, err
		}
		if err := RunMigrations(db, logger); err != nil {
			db.Close()
			return nil, err
		}
		store.db = db
		store.Categories = repository.NewCategoryRepository(db)
		store.Products = repository.NewProductRepository(db)

	case config.DriverMemory:
		store.Categories = repository.NewMemoryCategoryRepository()
		store.Products = repository.NewMemoryProductRepository()

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	logger.Info("Store opened", zap.String("driver", store.Driver))
	return store, nil
}

// Health pings the backing server of the store
func (s *Store) Health(ctx context.Context) error {
	switch {
	case s.db != nil:
		return s.db.PingContext(ctx)
	case s.mongo != nil:
		return s.mongo.Client().Ping(ctx, readpref.Primary())
	default:
		return nil
	}
}

// Close releases the store connections
func (s *Store) Close(ctx context.Context) error {
	var errs []error
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close postgres: %w", err))
		}
	}
	if s.mongo != nil {
		if err := s.mongo.Client().Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close mongo: %w", err))
		}
	}
	return errors.Join(errs...)
}
