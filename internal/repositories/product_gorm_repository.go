package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Shofyan/ecommerce-app/internal/models"
	"github.com/Shofyan/ecommerce-app/pkg/config"
)

// productRow is the persisted layout of a product in the products table.
type productRow struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string  `gorm:"column:name;not null"`
	NameLower   string  `gorm:"column:name_lower;not null;default:'';index"`
	Description *string `gorm:"column:description"`
	Price       float64 `gorm:"column:price;not null"`
	Stock       int     `gorm:"column:stock;not null"`
	CreatedAt   string  `gorm:"column:created_at;not null"`
	UpdatedAt   string  `gorm:"column:updated_at;not null"`
}

func (productRow) TableName() string { return "products" }

// foldName is the search key of a name. SQLite's LOWER only folds ASCII, so the key is
// computed here and stored in name_lower.
func foldName(name string) string {
	return strings.ToLower(name)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func newProductRow(p models.Product) productRow {
	return productRow{
		ID:          p.ID().Value(),
		Name:        p.Name().Value(),
		NameLower:   foldName(p.Name().Value()),
		Description: p.Description(),
		Price:       p.Price().Float64(),
		Stock:       p.Stock().Value(),
		CreatedAt:   formatTime(p.CreatedAt()),
		UpdatedAt:   formatTime(p.UpdatedAt()),
	}
}

// toDomain rehydrates the row. A row that breaks a product invariant is reported as corrupt.
func (r productRow) toDomain() (models.Product, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return models.Product{}, fmt.Errorf("product %d has corrupt created_at %q: %w", r.ID, r.CreatedAt, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, r.UpdatedAt)
	if err != nil {
		return models.Product{}, fmt.Errorf("product %d has corrupt updated_at %q: %w", r.ID, r.UpdatedAt, err)
	}
	p, err := models.RestoreProduct(r.ID, r.Name, r.Description, r.Price, r.Stock, createdAt, updatedAt)
	if err != nil {
		return models.Product{}, fmt.Errorf("product %d is corrupt: %w", r.ID, err)
	}
	return p, nil
}

// Option configures a product repository.
type Option func(*repoOptions)

type repoOptions struct {
	now func() time.Time
}

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(o *repoOptions) {
		o.now = now
	}
}

func buildOptions(opts []Option) repoOptions {
	o := repoOptions{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ ProductRepository = (*GORMProductRepository)(nil)

// NewGORMProductRepository creates a repository on an already opened connection.
func NewGORMProductRepository(db *gorm.DB, opts ...Option) *GORMProductRepository {
	o := buildOptions(opts)
	return &GORMProductRepository{
		db:  db,
		now: o.now,
	}
}

// OpenGORMProductRepository opens the configured database, migrates the products table and
// returns a repository that owns the connection. Call Close to release it.
func OpenGORMProductRepository(ctx context.Context, cfg config.DBConfig, zl zerolog.Logger, opts ...Option) (*GORMProductRepository, error) {
	db, err := OpenDatabase(cfg, zl)
	if err != nil {
		return nil, err
	}
	repo := NewGORMProductRepository(db, opts...)
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

// Migrate creates or updates the products table and fills name_lower for rows written
// before the column existed.
func (r *GORMProductRepository) Migrate(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if err := db.AutoMigrate(&productRow{}); err != nil {
		return backendError("migrate products", err)
	}

	var stale []productRow
	if err := db.Select("id", "name").Where("name_lower = ?", "").Find(&stale).Error; err != nil {
		return backendError("migrate products", err)
	}
	for _, row := range stale {
		err := db.Model(&productRow{}).Where("id = ?", row.ID).Update("name_lower", foldName(row.Name)).Error
		if err != nil {
			return backendError("migrate products", err)
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *GORMProductRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *GORMProductRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return backendError("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return backendError("ping", err)
	}
	return nil
}

// Insert stores a new product and returns it with the assigned id and timestamps.
func (r *GORMProductRepository) Insert(ctx context.Context, product models.Product) (models.Product, error) {
	if product.IsSaved() {
		return models.Product{}, fmt.Errorf("failed to insert product %s: %w", product.ID(), models.ErrIdentityAssigned)
	}
	at := r.now()
	row := newProductRow(product)
	row.CreatedAt = formatTime(at)
	row.UpdatedAt = row.CreatedAt

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Product{}, backendError("insert product", err)
	}
	saved, err := row.toDomain()
	if err != nil {
		return models.Product{}, backendError("insert product", err)
	}
	return saved, nil
}

// FindByID retrieves a single product by its id.
func (r *GORMProductRepository) FindByID(ctx context.Context, id models.ProductID) (models.Product, error) {
	var row productRow
	if err := r.db.WithContext(ctx).Take(&row, "id = ?", id.Value()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return models.Product{}, backendError("find product", err)
	}
	p, err := row.toDomain()
	if err != nil {
		return models.Product{}, backendError("find product", err)
	}
	return p, nil
}

// FindAll retrieves products ordered by id, optionally filtered by a case-insensitive name match.
func (r *GORMProductRepository) FindAll(ctx context.Context, search string) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&productRow{})
	if search != "" {
		q = q.Where(`name_lower LIKE ? ESCAPE '\'`, "%"+escapeLike(foldName(search))+"%")
	}

	var rows []productRow
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, backendError("list products", err)
	}

	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, backendError("list products", err)
		}
		products = append(products, p)
	}
	return products, nil
}

// Update replaces the editable fields of a product inside one transaction.
func (r *GORMProductRepository) Update(ctx context.Context, id models.ProductID, fields models.ProductFields) (models.Product, error) {
	_, updated, err := r.UpdateWithPrevious(ctx, id, fields)
	return updated, err
}

// UpdateWithPrevious is Update that also returns the row as read inside the transaction.
func (r *GORMProductRepository) UpdateWithPrevious(ctx context.Context, id models.ProductID, fields models.ProductFields) (previous, updated models.Product, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current productRow
		if err := tx.Take(&current, "id = ?", id.Value()).Error; err != nil {
			return err
		}
		existing, err := current.toDomain()
		if err != nil {
			return err
		}
		previous = existing

		row := newProductRow(existing.WithFields(fields, r.now()))
		res := tx.Model(&productRow{}).Where("id = ?", id.Value()).Updates(map[string]interface{}{
			"name":        row.Name,
			"name_lower":  row.NameLower,
			"description": row.Description,
			"price":       row.Price,
			"stock":       row.Stock,
			"updated_at":  row.UpdatedAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		updated, err = row.toDomain()
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Product{}, models.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return models.Product{}, models.Product{}, backendError("update product", err)
	}
	return previous, updated, nil
}

// Delete removes a product permanently.
func (r *GORMProductRepository) Delete(ctx context.Context, id models.ProductID) error {
	res := r.db.WithContext(ctx).Delete(&productRow{}, "id = ?", id.Value())
	if res.Error != nil {
		return backendError("delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// Exists reports whether a product with the id is stored.
func (r *GORMProductRepository) Exists(ctx context.Context, id models.ProductID) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&productRow{}).Where("id = ?", id.Value()).Count(&n).Error; err != nil {
		return false, backendError("check product", err)
	}
	return n > 0, nil
}

// Count returns the number of stored products.
func (r *GORMProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&productRow{}).Count(&n).Error; err != nil {
		return 0, backendError("count products", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
