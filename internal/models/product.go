package models

import (
	"errors"
	"time"
)

// ErrIdentityAssigned is returned when storage tries to give a persisted product a second id.
var ErrIdentityAssigned = errors.New("product already has an id")

// ProductFields are the validated, caller-editable attributes of a product.
type ProductFields struct {
	Name        ProductName
	Description *string
	Price       Money
	Stock       StockQuantity
}

// NewProductFields validates raw input. The first violated invariant is reported.
func NewProductFields(name string, description *string, price float64, stock int) (ProductFields, error) {
	productName, err := NewProductName(name)
	if err != nil {
		return ProductFields{}, err
	}
	money, err := NewMoneyFromFloat(price)
	if err != nil {
		return ProductFields{}, err
	}
	quantity, err := NewStockQuantity(stock)
	if err != nil {
		return ProductFields{}, err
	}
	return ProductFields{
		Name:        productName,
		Description: cloneString(description),
		Price:       money,
		Stock:       quantity,
	}, nil
}

// Product is the catalog entity. It is an immutable value: every change returns a new Product.
type Product struct {
	id          ProductID
	name        ProductName
	description *string
	price       Money
	stock       StockQuantity
	createdAt   time.Time
	updatedAt   time.Time
}

// NewProduct builds an unsaved product. Id and timestamps are assigned by storage on insert.
func NewProduct(name string, description *string, price float64, stock int) (Product, error) {
	fields, err := NewProductFields(name, description, price, stock)
	if err != nil {
		return Product{}, err
	}
	return FromFields(fields), nil
}

// FromFields builds an unsaved product from already validated fields.
func FromFields(fields ProductFields) Product {
	return Product{
		name:        fields.Name,
		description: cloneString(fields.Description),
		price:       fields.Price,
		stock:       fields.Stock,
	}
}

// RestoreProduct rehydrates a stored product, revalidating every column.
func RestoreProduct(id int64, name string, description *string, price float64, stock int, createdAt, updatedAt time.Time) (Product, error) {
	productID, err := NewProductID(id)
	if err != nil {
		return Product{}, err
	}
	fields, err := NewProductFields(name, description, price, stock)
	if err != nil {
		return Product{}, err
	}
	if updatedAt.Before(createdAt) {
		return Product{}, invalid("updated_at", "cannot be earlier than created_at")
	}
	p := FromFields(fields)
	p.id = productID
	p.createdAt = createdAt
	p.updatedAt = updatedAt
	return p, nil
}

// Assign gives an unsaved product its identity and creation time.
func (p Product) Assign(id ProductID, at time.Time) (Product, error) {
	if !p.id.IsZero() {
		return p, ErrIdentityAssigned
	}
	if id.IsZero() {
		return p, invalid("product id", "must be a positive integer")
	}
	p.id = id
	p.createdAt = at
	p.updatedAt = at
	p.description = cloneString(p.description)
	return p, nil
}

// Update revalidates raw input and returns the changed product.
func (p Product) Update(name string, description *string, price float64, stock int, now time.Time) (Product, error) {
	fields, err := NewProductFields(name, description, price, stock)
	if err != nil {
		return p, err
	}
	return p.WithFields(fields, now), nil
}

// WithFields replaces the editable attributes. Id and created_at are kept and
// updated_at never moves before created_at.
func (p Product) WithFields(fields ProductFields, now time.Time) Product {
	p.name = fields.Name
	p.description = cloneString(fields.Description)
	p.price = fields.Price
	p.stock = fields.Stock
	if now.Before(p.createdAt) {
		now = p.createdAt
	}
	p.updatedAt = now
	return p
}

func (p Product) ID() ProductID        { return p.id }
func (p Product) Name() ProductName    { return p.name }
func (p Product) Price() Money         { return p.price }
func (p Product) Stock() StockQuantity { return p.stock }
func (p Product) CreatedAt() time.Time { return p.createdAt }
func (p Product) UpdatedAt() time.Time { return p.updatedAt }
func (p Product) Description() *string { return cloneString(p.description) }
func (p Product) IsSaved() bool        { return !p.id.IsZero() }
func (p Product) Fields() ProductFields {
	return ProductFields{Name: p.name, Description: p.Description(), Price: p.price, Stock: p.stock}
}

// Equal compares every attribute, timestamps included.
func (p Product) Equal(other Product) bool {
	return p.id.Equal(other.id) &&
		p.name.Equal(other.name) &&
		equalStrings(p.description, other.description) &&
		p.price.Equal(other.price) &&
		p.stock.Equal(other.stock) &&
		p.createdAt.Equal(other.createdAt) &&
		p.updatedAt.Equal(other.updatedAt)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func equalStrings(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
