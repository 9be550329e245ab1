package repositories

import (
	"context"
	"fmt"

	"github.com/Shofyan/ecommerce-app/internal/models"
)

// DemoCatalog returns the products used to populate an empty catalog.
func DemoCatalog() []models.Product {
	seeds := []struct {
		name        string
		description string
		price       float64
		stock       int
	}{
		{"MacBook Pro 16\"", "Apple M3 Max chip, 36GB unified memory, 1TB SSD", 2499.99, 10},
		{"iPhone 15 Pro", "Titanium design, A17 Pro chip, 256GB", 999.99, 25},
		{"AirPods Pro", "Active noise cancellation, USB-C charging case", 249.99, 50},
		{"iPad Air", "M2 chip, 11-inch Liquid Retina display, 128GB", 599.99, 15},
		{"Apple Watch Ultra", "49mm titanium case, precision dual-frequency GPS", 799.99, 8},
	}

	products := make([]models.Product, 0, len(seeds))
	for _, s := range seeds {
		description := s.description
		p, err := models.NewProduct(s.name, &description, s.price, s.stock)
		if err != nil {
			panic(fmt.Sprintf("invalid demo product %q: %v", s.name, err))
		}
		products = append(products, p)
	}
	return products
}

// SeedIfEmpty inserts products when the repository holds none. It returns how many were inserted.
func SeedIfEmpty(ctx context.Context, repo ProductRepository, products []models.Product) (int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	for i, p := range products {
		if _, err := repo.Insert(ctx, p); err != nil {
			return i, fmt.Errorf("failed to seed product %q: %w", p.Name(), err)
		}
	}
	return len(products), nil
}
