package database

import (
	"context"
	"testing"
	"time"

	"catalog-webflux/internal/repository"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestMigrationsAndSeedAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	dbContainer, err := postgres.Run(
		ctx,
		"postgres:15",
		postgres.WithDatabase("catalog"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = dbContainer.Terminate(context.Background()) })

	dsn, err := dbContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	logger := zap.NewNop()
	db, err := Connect(ctx, dsn, logger)
	if err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	defer db.Close()

	// Pending migrations only run once
	for i := 0; i < 2; i++ {
		if err := RunMigrations(db, logger); err != nil {
			t.Fatalf("RunMigrations run %d returned error: %v", i, err)
		}
	}

	for _, table := range []string{repository.CategoriesCollection, repository.ProductsCollection} {
		var exists bool
		if err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists); err != nil || !exists {
			t.Errorf("table %s not created: %v", table, err)
		}
	}

	categories := repository.NewCategoryRepository(db)
	products := repository.NewProductRepository(db)
	if err := Seed(ctx, categories, products, logger); err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}

	assertSeeded(t, categories, products)
}
