// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	appctx "ventapos/internal/core/context"
	"ventapos/internal/core/types"
	"ventapos/internal/domain/catalog/category"
	"ventapos/internal/domain/catalog/product"
	"ventapos/internal/domain/identity"
	"ventapos/internal/domain/inventory/batch"
	"ventapos/internal/infrastructure/storage/postgres"
	"ventapos/internal/infrastructure/storage/postgres/catalog_repo"
	"ventapos/internal/infrastructure/storage/postgres/inventory_repo"
	"ventapos/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, dbURL); err != nil {
		log.Fatalw("failed to apply migrations", "error", err)
	}

	log.Info("connected to database")

	// Seed operations run as the seed user so batch receipts record
	// who bought the stock.
	ctx = appctx.WithUser(ctx, &appctx.UserContext{
		UserID:   "seed",
		Username: "seed",
		IsAdmin:  true,
	})

	if err := seedDemoData(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}

	printDemoToken(log)

	log.Info("seeding completed successfully")
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	txm := postgres.NewTxManager(pool)
	categoryRepo := catalog_repo.NewCategoryRepo(txm)
	productRepo := catalog_repo.NewProductRepo(txm)
	batchRepo := inventory_repo.NewBatchRepo(txm)

	categoryService := category.NewService(categoryRepo, txm)
	productService := product.NewService(productRepo, categoryRepo, txm)
	batchService := batch.NewService(batchRepo, productRepo, txm)

	beverages := category.NewCategory("Beverages")
	if err := categoryService.Create(ctx, beverages); err != nil {
		return fmt.Errorf("create category: %w", err)
	}

	coffee := product.NewProduct("Coffee Beans 1kg", types.MustMoney("18.50"))
	coffee.CategoryID = &beverages.ID
	sku := "BEV-COFFEE-1KG"
	coffee.SKU = &sku
	coffee.InventoryTarget = 20
	if err := productService.Create(ctx, coffee); err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	tea := product.NewProduct("Green Tea 100g", types.MustMoney("6.00"))
	tea.CategoryID = &beverages.ID
	if err := productService.Create(ctx, tea); err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	now := time.Now().UTC()
	receipts := []*batch.Batch{
		batch.NewBatch(coffee.ID, 30, types.MustMoney("11.20"), now.AddDate(0, 0, -14)),
		batch.NewBatch(coffee.ID, 25, types.MustMoney("11.80"), now.AddDate(0, 0, -3)),
		batch.NewBatch(tea.ID, 50, types.MustMoney("3.10"), now.AddDate(0, 0, -7)),
	}
	for _, b := range receipts {
		if err := batchService.Receive(ctx, b); err != nil {
			return fmt.Errorf("receive batch: %w", err)
		}
	}

	log.Infow("demo data seeded",
		"category_id", beverages.ID,
		"products", 2,
		"batches", len(receipts),
	)
	return nil
}

// printDemoToken issues a short-lived JWT so the seeded data can be
// queried immediately through the API.
func printDemoToken(log *logger.Logger) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return
	}

	jwtService := identity.NewJWTService(identity.DefaultJWTConfig(secret))
	token, expiresAt, err := jwtService.GenerateToken("seed", "seed", "seed@localhost", true, 24*time.Hour)
	if err != nil {
		log.Warnw("failed to generate demo token", "error", err)
		return
	}

	log.Infow("demo token issued", "expires_at", expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}
