package repositories_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shofyan/ecommerce-app/internal/models"
	"github.com/Shofyan/ecommerce-app/internal/repositories"
	"github.com/Shofyan/ecommerce-app/pkg/config"
)

// tickClock advances one second on every reading.
type tickClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTickClock() *tickClock {
	return &tickClock{t: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newSQLiteRepo(t *testing.T, opts ...repositories.Option) *repositories.GORMProductRepository {
	t.Helper()
	cfg := config.DBConfig{
		Driver:       config.DriverSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
	}
	repo, err := repositories.OpenGORMProductRepository(context.Background(), cfg, zerolog.Nop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// forEachRepo runs the same behaviour checks against every ProductRepository implementation.
func forEachRepo(t *testing.T, fn func(t *testing.T, repo repositories.ProductRepository)) {
	t.Run("gorm_sqlite", func(t *testing.T) {
		fn(t, newSQLiteRepo(t, repositories.WithClock(newTickClock().Now)))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, repositories.NewMemoryProductRepository(repositories.WithClock(newTickClock().Now)))
	})
}

func strPtr(s string) *string { return &s }

func mustProduct(t *testing.T, name string, description *string, price float64, stock int) models.Product {
	t.Helper()
	p, err := models.NewProduct(name, description, price, stock)
	require.NoError(t, err)
	return p
}

func mustID(t *testing.T, raw int64) models.ProductID {
	t.Helper()
	id, err := models.NewProductID(raw)
	require.NoError(t, err)
	return id
}

func TestProductRepository_InsertAndFind(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		ctx := context.Background()

		saved, err := repo.Insert(ctx, mustProduct(t, "MacBook Air M3", strPtr("Lightweight laptop"), 1299.99, 20))
		require.NoError(t, err)
		assert.True(t, saved.IsSaved())
		assert.Equal(t, saved.CreatedAt(), saved.UpdatedAt())

		found, err := repo.FindByID(ctx, saved.ID())
		require.NoError(t, err)
		assert.True(t, saved.Equal(found), "stored product must round-trip unchanged")
		assert.Equal(t, "MacBook Air M3", found.Name().Value())
		assert.Equal(t, "Lightweight laptop", *found.Description())
		assert.Equal(t, 1299.99, found.Price().Float64())
		assert.Equal(t, 20, found.Stock().Value())

		other, err := repo.Insert(ctx, mustProduct(t, "Mouse", nil, 25, 5))
		require.NoError(t, err)
		assert.Greater(t, other.ID().Value(), saved.ID().Value())
		assert.Nil(t, other.Description())
	})
}

func TestProductRepository_InsertRejectsSavedProduct(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		ctx := context.Background()
		saved, err := repo.Insert(ctx, mustProduct(t, "Mouse", nil, 25, 5))
		require.NoError(t, err)

		_, err = repo.Insert(ctx, saved)
		assert.ErrorIs(t, err, models.ErrIdentityAssigned)

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestProductRepository_FindByIDNotFound(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		_, err := repo.FindByID(context.Background(), mustID(t, 99999))
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.NotErrorIs(t, err, repositories.ErrBackend)
	})
}

func TestProductRepository_FindAll(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		ctx := context.Background()

		empty, err := repo.FindAll(ctx, "")
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		for _, name := range []string{"MacBook Air M3", "iPhone 15 Pro", "AirPods Pro", "iPad Air"} {
			_, err := repo.Insert(ctx, mustProduct(t, name, nil, 100, 1))
			require.NoError(t, err)
		}

		all, err := repo.FindAll(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"MacBook Air M3", "iPhone 15 Pro", "AirPods Pro", "iPad Air"}, names(all))

		matched, err := repo.FindAll(ctx, "air")
		require.NoError(t, err)
		assert.Equal(t, []string{"MacBook Air M3", "AirPods Pro", "iPad Air"}, names(matched))

		upper, err := repo.FindAll(ctx, "AIR")
		require.NoError(t, err)
		assert.Equal(t, names(matched), names(upper))

		none, err := repo.FindAll(ctx, "nonexistent")
		require.NoError(t, err)
		assert.Empty(t, none)

		wildcard, err := repo.FindAll(ctx, "%")
		require.NoError(t, err)
		assert.Empty(t, wildcard, "LIKE wildcards are matched literally")
	})
}

func TestProductRepository_FindAllFoldsNonASCIINames(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		ctx := context.Background()
		for _, name := range []string{"Écran Ultra", "Straße Kabel", "Ecran Basic"} {
			_, err := repo.Insert(ctx, mustProduct(t, name, nil, 100, 1))
			require.NoError(t, err)
		}

		for _, term := range []string{"Écran", "écran", "ÉCRAN", "cran u"} {
			matched, err := repo.FindAll(ctx, term)
			require.NoError(t, err)
			assert.Equal(t, []string{"Écran Ultra"}, names(matched), "term %q", term)
		}

		matched, err := repo.FindAll(ctx, "STRASSE")
		require.NoError(t, err)
		assert.Empty(t, matched)

		matched, err = repo.FindAll(ctx, "straße")
		require.NoError(t, err)
		assert.Equal(t, []string{"Straße Kabel"}, names(matched))
	})
}

func TestProductRepository_FindAllAfterRename(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		ctx := context.Background()
		saved, err := repo.Insert(ctx, mustProduct(t, "Mouse", nil, 10, 1))
		require.NoError(t, err)

		fields, err := models.NewProductFields("Écran Mini", nil, 10, 1)
		require.NoError(t, err)
		_, err = repo.Update(ctx, saved.ID(), fields)
		require.NoError(t, err)

		matched, err := repo.FindAll(ctx, "ÉCRAN")
		require.NoError(t, err)
		assert.Equal(t, []string{"Écran Mini"}, names(matched))

		stale, err := repo.FindAll(ctx, "mouse")
		require.NoError(t, err)
		assert.Empty(t, stale)
	})
}

func TestGORMProductRepository_MigrateFillsSearchKey(t *testing.T) {
	ctx := context.Background()
	db, err := repositories.OpenDatabase(config.DBConfig{
		Driver:       config.DriverSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
	}, zerolog.Nop())
	require.NoError(t, err)
	repo := repositories.NewGORMProductRepository(db)
	t.Cleanup(func() { _ = repo.Close() })

	// Table as created before name_lower existed.
	require.NoError(t, db.Exec(`CREATE TABLE products (
		id integer PRIMARY KEY AUTOINCREMENT,
		name text NOT NULL,
		description text,
		price real NOT NULL,
		stock integer NOT NULL,
		created_at text NOT NULL,
		updated_at text NOT NULL
	)`).Error)
	ts := "2024-06-01T09:00:00Z"
	require.NoError(t, db.Exec(`INSERT INTO products (name, price, stock, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		"Écran Ultra", 10.0, 1, ts, ts).Error)

	require.NoError(t, repo.Migrate(ctx))

	matched, err := repo.FindAll(ctx, "écran")
	require.NoError(t, err)
	assert.Equal(t, []string{"Écran Ultra"}, names(matched))
}

func TestProductRepository_UpdateWithPrevious(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		ctx := context.Background()
		saved, err := repo.Insert(ctx, mustProduct(t, "Mouse", strPtr("Wireless"), 25, 5))
		require.NoError(t, err)

		fields, err := models.NewProductFields("Mouse", strPtr("Wireless"), 25, 2)
		require.NoError(t, err)

		previous, updated, err := repo.UpdateWithPrevious(ctx, saved.ID(), fields)
		require.NoError(t, err)
		assert.True(t, saved.Equal(previous))
		assert.Equal(t, 5, previous.Stock().Value())
		assert.Equal(t, 2, updated.Stock().Value())

		fields, err = models.NewProductFields("Mouse", strPtr("Wireless"), 25, 9)
		require.NoError(t, err)
		previous, _, err = repo.UpdateWithPrevious(ctx, saved.ID(), fields)
		require.NoError(t, err)
		assert.True(t, updated.Equal(previous))

		_, _, err = repo.UpdateWithPrevious(ctx, mustID(t, 404), fields)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestProductRepository_KeepsBlankDescription(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		ctx := context.Background()
		saved, err := repo.Insert(ctx, mustProduct(t, "Mouse", strPtr("  "), 25, 5))
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, saved.ID())
		require.NoError(t, err)
		require.NotNil(t, found.Description())
		assert.Equal(t, "  ", *found.Description())
	})
}

func TestProductRepository_Update(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		ctx := context.Background()
		saved, err := repo.Insert(ctx, mustProduct(t, "MacBook Air M3", strPtr("Lightweight laptop"), 1299.99, 20))
		require.NoError(t, err)

		fields, err := models.NewProductFields("MacBook Air M3 15\"", nil, 1499.5, 0)
		require.NoError(t, err)

		updated, err := repo.Update(ctx, saved.ID(), fields)
		require.NoError(t, err)
		assert.True(t, updated.ID().Equal(saved.ID()))
		assert.Equal(t, saved.CreatedAt(), updated.CreatedAt())
		assert.True(t, updated.UpdatedAt().After(updated.CreatedAt()))
		assert.Equal(t, "MacBook Air M3 15\"", updated.Name().Value())
		assert.Nil(t, updated.Description())
		assert.Equal(t, 1499.5, updated.Price().Float64())
		assert.Equal(t, 0, updated.Stock().Value())

		found, err := repo.FindByID(ctx, saved.ID())
		require.NoError(t, err)
		assert.True(t, updated.Equal(found))
	})
}

func TestProductRepository_UpdateNotFound(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		fields, err := models.NewProductFields("Mouse", nil, 10, 1)
		require.NoError(t, err)

		_, err = repo.Update(context.Background(), mustID(t, 42), fields)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestProductRepository_Delete(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		ctx := context.Background()
		saved, err := repo.Insert(ctx, mustProduct(t, "Mouse", nil, 25, 5))
		require.NoError(t, err)

		exists, err := repo.Exists(ctx, saved.ID())
		require.NoError(t, err)
		assert.True(t, exists)

		require.NoError(t, repo.Delete(ctx, saved.ID()))

		_, err = repo.FindByID(ctx, saved.ID())
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		exists, err = repo.Exists(ctx, saved.ID())
		require.NoError(t, err)
		assert.False(t, exists)

		for i := 0; i < 2; i++ {
			assert.ErrorIs(t, repo.Delete(ctx, saved.ID()), repositories.ErrNotFound)
		}
	})
}

func TestProductRepository_CountAndSeed(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		ctx := context.Background()
		catalog := repositories.DemoCatalog()

		n, err := repositories.SeedIfEmpty(ctx, repo, catalog)
		require.NoError(t, err)
		assert.Equal(t, len(catalog), n)

		n, err = repositories.SeedIfEmpty(ctx, repo, catalog)
		require.NoError(t, err)
		assert.Zero(t, n, "seeding must not touch a populated catalog")

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)

		all, err := repo.FindAll(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, "MacBook Pro 16\"", all[0].Name().Value())
		assert.Equal(t, "2499.99", all[0].Price().String())
	})
}

func TestProductRepository_ConcurrentInserts(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo repositories.ProductRepository) {
		ctx := context.Background()
		const workers = 10

		var wg sync.WaitGroup
		ids := make(chan int64, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				p, err := repo.Insert(ctx, mustProduct(t, fmt.Sprintf("Product %d", i), nil, 1, i))
				if assert.NoError(t, err) {
					ids <- p.ID().Value()
				}
			}(i)
		}
		wg.Wait()
		close(ids)

		seen := make(map[int64]bool)
		for id := range ids {
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
		assert.Len(t, seen, workers)
	})
}

func TestMemoryProductRepository_IDsAreNotReused(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryProductRepository()

	first, err := repo.Insert(ctx, mustProduct(t, "Mouse", nil, 25, 5))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, first.ID()))

	second, err := repo.Insert(ctx, mustProduct(t, "Keyboard", nil, 75, 5))
	require.NoError(t, err)
	assert.Greater(t, second.ID().Value(), first.ID().Value())
}

func TestMemoryProductRepository_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repositories.NewMemoryProductRepository().FindAll(ctx, "")
	assert.ErrorIs(t, err, repositories.ErrBackend)
	assert.ErrorIs(t, err, context.Canceled)
}

func names(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name().Value())
	}
	return out
}
