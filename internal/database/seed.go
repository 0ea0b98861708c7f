package database

import (
	"context"
	"fmt"
	"time"

	"catalog-webflux/internal/domain"
	"catalog-webflux/internal/repository"

	"go.uber.org/zap"
)

type seedProduct struct {
	name     string
	price    float64
	category string
}

var seedCategories = []string{"Electronico", "Deportes", "Computacion", "Muebles"}

var seedProducts = []seedProduct{
	{"TV Panasonic Pantalla LCD", 456.89, "Electronico"},
	{"Sony Camara HD Digital", 177.89, "Electronico"},
	{"Apple iPad", 46.89, "Electronico"},
	{"Sony Notebook", 876.89, "Computacion"},
	{"Hewlett Packard Multifuncional", 200.89, "Computacion"},
	{"TV Sony Bavia OLED 4K", 2255.89, "Electronico"},
	{"Silla Gamer Luz LED", 900.89, "Muebles"},
	{"Escritorio SUPER NOVA", 900.89, "Muebles"},
	{"Bicicleta HNO", 900.89, "Deportes"},
	{"Balon de Futbol Golty", 6.89, "Deportes"},
}

// Seed clears both collections and loads the demonstration catalog. Every
// product is stamped with the current time.
func Seed(ctx context.Context, categories repository.CategoryRepository, products repository.ProductRepository, logger *zap.Logger) error {
	if err := products.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear %s: %w", repository.ProductsCollection, err)
	}
	if err := categories.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear %s: %w", repository.CategoriesCollection, err)
	}

	byName := make(map[string]*domain.Category, len(seedCategories))
	for _, name := range seedCategories {
		saved, err := categories.Save(ctx, &domain.Category{Name: name})
		if err != nil {
			return fmt.Errorf("failed to seed category %s: %w", name, err)
		}
		byName[name] = saved
		logger.Info("Category created", zap.String("category_id", saved.ID), zap.String("name", saved.Name))
	}

	for _, p := range seedProducts {
		saved, err := products.Save(ctx, &domain.Product{
			Name:      p.name,
			Price:     p.price,
			CreatedAt: time.Now(),
			Category:  byName[p.category],
		})
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.name, err)
		}
		logger.Info("Product inserted", zap.String("product_id", saved.ID), zap.String("name", saved.Name))
	}

	return nil
}
