package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Shofyan/ecommerce-app/internal/models"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	products map[int64]models.Product
	lastID   int64
	now      func() time.Time
	mu       sync.RWMutex
}

var _ ProductRepository = (*MemoryProductRepository)(nil)

// NewMemoryProductRepository creates a new, empty MemoryProductRepository.
func NewMemoryProductRepository(opts ...Option) *MemoryProductRepository {
	o := buildOptions(opts)
	return &MemoryProductRepository{
		products: make(map[int64]models.Product),
		now:      o.now,
	}
}

// Insert adds a new product. Ids are never reused, even after deletion.
func (r *MemoryProductRepository) Insert(ctx context.Context, product models.Product) (models.Product, error) {
	if err := ctx.Err(); err != nil {
		return models.Product{}, backendError("insert product", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := models.NewProductID(r.lastID + 1)
	if err != nil {
		return models.Product{}, backendError("insert product", err)
	}
	saved, err := product.Assign(id, r.now())
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	r.lastID = id.Value()
	r.products[id.Value()] = saved
	return saved, nil
}

// FindByID returns a product by its id.
func (r *MemoryProductRepository) FindByID(ctx context.Context, id models.ProductID) (models.Product, error) {
	if err := ctx.Err(); err != nil {
		return models.Product{}, backendError("find product", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id.Value()]
	if !ok {
		return models.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return product, nil
}

// FindAll returns products ordered by id, optionally filtered by a case-insensitive name match.
func (r *MemoryProductRepository) FindAll(ctx context.Context, search string) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, backendError("list products", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	term := strings.ToLower(search)
	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if term != "" && !strings.Contains(strings.ToLower(p.Name().Value()), term) {
			continue
		}
		productList = append(productList, p)
	}
	sort.Slice(productList, func(i, j int) bool {
		return productList[i].ID().Value() < productList[j].ID().Value()
	})
	return productList, nil
}

// Update replaces the editable fields of an existing product.
func (r *MemoryProductRepository) Update(ctx context.Context, id models.ProductID, fields models.ProductFields) (models.Product, error) {
	_, updated, err := r.UpdateWithPrevious(ctx, id, fields)
	return updated, err
}

// UpdateWithPrevious is Update that also returns the product it replaced.
func (r *MemoryProductRepository) UpdateWithPrevious(ctx context.Context, id models.ProductID, fields models.ProductFields) (models.Product, models.Product, error) {
	if err := ctx.Err(); err != nil {
		return models.Product{}, models.Product{}, backendError("update product", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[id.Value()]
	if !ok {
		return models.Product{}, models.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	updated := existing.WithFields(fields, r.now())
	r.products[id.Value()] = updated
	return existing, updated, nil
}

// Delete removes a product by its id.
func (r *MemoryProductRepository) Delete(ctx context.Context, id models.ProductID) error {
	if err := ctx.Err(); err != nil {
		return backendError("delete product", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id.Value()]; !ok {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	delete(r.products, id.Value())
	return nil
}

func (r *MemoryProductRepository) Exists(ctx context.Context, id models.ProductID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, backendError("check product", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.products[id.Value()]
	return ok, nil
}

func (r *MemoryProductRepository) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, backendError("count products", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.products)), nil
}
