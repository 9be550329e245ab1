package repositories

import (
	"context"

	"github.com/Shofyan/ecommerce-app/internal/models"
)

// ProductRepository defines the interface for product data access.
// Implementations must be safe for concurrent use.
type ProductRepository interface {
	// Insert stores an unsaved product and returns it with its id and timestamps.
	Insert(ctx context.Context, product models.Product) (models.Product, error)
	// FindByID returns ErrNotFound when no row matches.
	FindByID(ctx context.Context, id models.ProductID) (models.Product, error)
	// FindAll returns every product when search is empty, otherwise the products whose
	// name contains search, ignoring case. Results are ordered by id.
	FindAll(ctx context.Context, search string) ([]models.Product, error)
	// Update overwrites the editable fields and updated_at. ErrNotFound when absent.
	Update(ctx context.Context, id models.ProductID, fields models.ProductFields) (models.Product, error)
	// UpdateWithPrevious is Update that also returns the product as it was just before the
	// write, read atomically with it.
	UpdateWithPrevious(ctx context.Context, id models.ProductID, fields models.ProductFields) (previous, updated models.Product, err error)
	// Delete removes the row permanently. ErrNotFound when absent.
	Delete(ctx context.Context, id models.ProductID) error
	Exists(ctx context.Context, id models.ProductID) (bool, error)
	Count(ctx context.Context) (int64, error)
}
