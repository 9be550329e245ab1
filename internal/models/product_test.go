package models_test

import (
	"testing"
	"time"

	"github.com/Shofyan/ecommerce-app/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewProduct_IsUnsaved(t *testing.T) {
	p, err := models.NewProduct("MacBook Air M3", strPtr("Lightweight laptop"), 1299.99, 20)
	require.NoError(t, err)

	assert.False(t, p.IsSaved())
	assert.True(t, p.ID().IsZero())
	assert.True(t, p.CreatedAt().IsZero())
	assert.Equal(t, "MacBook Air M3", p.Name().Value())
	assert.Equal(t, "Lightweight laptop", *p.Description())
	assert.Equal(t, 1299.99, p.Price().Float64())
	assert.Equal(t, 20, p.Stock().Value())
}

func TestNewProduct_ValidatesEveryField(t *testing.T) {
	_, err := models.NewProduct("", nil, 10, 1)
	assertValidationError(t, err, "product name")

	_, err = models.NewProduct("Mouse", nil, -1, 1)
	assertValidationError(t, err, "price")

	_, err = models.NewProduct("Mouse", nil, 10, -1)
	assertValidationError(t, err, "stock")
}

func TestNewProduct_DescriptionIsKeptAsGiven(t *testing.T) {
	for _, desc := range []string{"", "   ", "  padded  "} {
		p, err := models.NewProduct("Mouse", strPtr(desc), 10, 1)
		require.NoError(t, err)
		require.NotNil(t, p.Description())
		assert.Equal(t, desc, *p.Description())
	}

	p, err := models.NewProduct("Mouse", nil, 10, 1)
	require.NoError(t, err)
	assert.Nil(t, p.Description())
}

func TestProduct_DescriptionIsCopied(t *testing.T) {
	desc := "original"
	p, err := models.NewProduct("Mouse", &desc, 10, 1)
	require.NoError(t, err)

	desc = "changed"
	assert.Equal(t, "original", *p.Description())

	got := p.Description()
	*got = "mutated"
	assert.Equal(t, "original", *p.Description())
}

func TestProduct_Assign(t *testing.T) {
	p, _ := models.NewProduct("Mouse", nil, 10, 1)
	id, _ := models.NewProductID(7)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	saved, err := p.Assign(id, at)
	require.NoError(t, err)
	assert.True(t, saved.IsSaved())
	assert.Equal(t, int64(7), saved.ID().Value())
	assert.Equal(t, at, saved.CreatedAt())
	assert.Equal(t, saved.CreatedAt(), saved.UpdatedAt())
	assert.False(t, p.IsSaved(), "receiver must stay unsaved")

	other, _ := models.NewProductID(8)
	_, err = saved.Assign(other, at)
	assert.ErrorIs(t, err, models.ErrIdentityAssigned)

	_, err = p.Assign(models.ProductID{}, at)
	assertValidationError(t, err, "product id")
}

func TestProduct_UpdatePreservesIdentity(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p, _ := models.NewProduct("MacBook Air M3", strPtr("Lightweight laptop"), 1299.99, 20)
	id, _ := models.NewProductID(1)
	p, _ = p.Assign(id, created)

	later := created.Add(time.Minute)
	updated, err := p.Update("MacBook Air M3", strPtr("Lightweight laptop"), 1299.99, 0, later)
	require.NoError(t, err)

	assert.True(t, updated.ID().Equal(p.ID()))
	assert.Equal(t, created, updated.CreatedAt())
	assert.Equal(t, later, updated.UpdatedAt())
	assert.Equal(t, 0, updated.Stock().Value())
	assert.Equal(t, 20, p.Stock().Value(), "receiver must not change")
}

func TestProduct_UpdateRejectsInvalidInput(t *testing.T) {
	p, _ := models.NewProduct("Mouse", nil, 10, 1)
	_, err := p.Update("  ", nil, 10, 1, time.Now())
	assertValidationError(t, err, "product name")
}

func TestProduct_UpdatedAtNeverBeforeCreatedAt(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p, _ := models.NewProduct("Mouse", nil, 10, 1)
	id, _ := models.NewProductID(1)
	p, _ = p.Assign(id, created)

	updated := p.WithFields(p.Fields(), created.Add(-time.Hour))
	assert.Equal(t, created, updated.UpdatedAt())
}

func TestRestoreProduct(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	p, err := models.RestoreProduct(3, "iPad Air", nil, 599.99, 15, created, updated)
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.ID().Value())
	assert.Equal(t, updated, p.UpdatedAt())

	same, _ := models.RestoreProduct(3, "iPad Air", nil, 599.99, 15, created, updated)
	assert.True(t, p.Equal(same))

	_, err = models.RestoreProduct(0, "iPad Air", nil, 599.99, 15, created, updated)
	assertValidationError(t, err, "product id")

	_, err = models.RestoreProduct(3, "iPad Air", nil, 599.99, 15, updated, created)
	assertValidationError(t, err, "updated_at")
}
