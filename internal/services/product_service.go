package services

import (
	"context"
	"strings"
	"time"

	"github.com/Shofyan/ecommerce-app/internal/models"
	"github.com/Shofyan/ecommerce-app/internal/repositories"
	"github.com/Shofyan/ecommerce-app/pkg/logger"
)

// CreateProductInput carries the raw fields of a new product.
type CreateProductInput struct {
	Name        string
	Description *string
	Price       float64
	Stock       int
}

// UpdateProductInput carries the full replacement fields of an existing product.
type UpdateProductInput struct {
	Name        string
	Description *string
	Price       float64
	Stock       int
}

// ProductView is the serializable representation of a product returned by every use case.
type ProductView struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProductView converts a product into its view.
func NewProductView(p models.Product) ProductView {
	return ProductView{
		ID:          p.ID().Value(),
		Name:        p.Name().Value(),
		Description: p.Description(),
		Price:       p.Price().Float64(),
		Stock:       p.Stock().Value(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}

func newProductViews(products []models.Product) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, NewProductView(p))
	}
	return views
}

// EventPublisher delivers product events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event models.ProductEvent) error
}

// Observer records use case outcomes.
type Observer interface {
	ObserveOperation(operation, result string, duration time.Duration)
	ObserveEvent(eventType string, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, time.Duration) {}
func (nopObserver) ObserveEvent(string, error)                     {}

// Option configures a ProductService.
type Option func(*ProductService)

// WithPublisher enables product events.
func WithPublisher(p EventPublisher) Option {
	return func(s *ProductService) {
		s.publisher = p
	}
}

// WithObserver records use case metrics.
func WithObserver(o Observer) Option {
	return func(s *ProductService) {
		s.observer = o
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(s *ProductService) {
		s.log = l
	}
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher
	observer  Observer
	log       *logger.Logger
	now       func() time.Time
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, opts ...Option) *ProductService {
	s := &ProductService{
		repo:     repo,
		observer: nopObserver{},
		log:      logger.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the input and stores a new product.
func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (view ProductView, err error) {
	defer s.track(ctx, "create", time.Now(), &err)

	product, err := models.NewProduct(in.Name, in.Description, in.Price, in.Stock)
	if err != nil {
		return ProductView{}, err
	}
	saved, err := s.repo.Insert(ctx, product)
	if err != nil {
		return ProductView{}, err
	}
	s.publish(ctx, models.ProductCreated(saved))
	return NewProductView(saved), nil
}

// Get retrieves a single product by its id.
func (s *ProductService) Get(ctx context.Context, id int64) (view ProductView, err error) {
	defer s.track(ctx, "get", time.Now(), &err)

	productID, err := models.NewProductID(id)
	if err != nil {
		return ProductView{}, err
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return ProductView{}, err
	}
	return NewProductView(product), nil
}

// List retrieves every product ordered by id.
func (s *ProductService) List(ctx context.Context) (views []ProductView, err error) {
	defer s.track(ctx, "list", time.Now(), &err)

	products, err := s.repo.FindAll(ctx, "")
	if err != nil {
		return nil, err
	}
	return newProductViews(products), nil
}

// Search retrieves products whose name contains term, ignoring case.
// A blank term behaves like List.
func (s *ProductService) Search(ctx context.Context, term string) (views []ProductView, err error) {
	defer s.track(ctx, "search", time.Now(), &err)

	products, err := s.repo.FindAll(ctx, strings.ToLower(strings.TrimSpace(term)))
	if err != nil {
		return nil, err
	}
	return newProductViews(products), nil
}

// Update replaces every editable field of an existing product.
func (s *ProductService) Update(ctx context.Context, id int64, in UpdateProductInput) (view ProductView, err error) {
	defer s.track(ctx, "update", time.Now(), &err)

	productID, err := models.NewProductID(id)
	if err != nil {
		return ProductView{}, err
	}
	fields, err := models.NewProductFields(in.Name, in.Description, in.Price, in.Stock)
	if err != nil {
		return ProductView{}, err
	}

	if s.publisher == nil {
		updated, err := s.repo.Update(ctx, productID, fields)
		if err != nil {
			return ProductView{}, err
		}
		return NewProductView(updated), nil
	}

	before, updated, err := s.repo.UpdateWithPrevious(ctx, productID, fields)
	if err != nil {
		return ProductView{}, err
	}
	s.publish(ctx, models.ProductChanged(before, updated)...)
	return NewProductView(updated), nil
}

// Delete removes a product permanently.
func (s *ProductService) Delete(ctx context.Context, id int64) (err error) {
	defer s.track(ctx, "delete", time.Now(), &err)

	productID, err := models.NewProductID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return err
	}
	s.publish(ctx, models.ProductDeleted(productID, s.now()))
	return nil
}

// Exists reports whether a product with the id is stored.
func (s *ProductService) Exists(ctx context.Context, id int64) (found bool, err error) {
	defer s.track(ctx, "exists", time.Now(), &err)

	productID, err := models.NewProductID(id)
	if err != nil {
		return false, err
	}
	return s.repo.Exists(ctx, productID)
}

// track converts a use case error into an ApplicationError and records the outcome.
func (s *ProductService) track(ctx context.Context, op string, start time.Time, errp *error) {
	elapsed := time.Since(start)
	if *errp == nil {
		s.observer.ObserveOperation(op, "ok", elapsed)
		return
	}

	appErr := classify(op, *errp)
	*errp = appErr
	s.observer.ObserveOperation(op, string(appErr.Kind), elapsed)

	log := s.log.Ctx(ctx)
	event := log.Warn()
	if appErr.Kind == KindBackend {
		event = log.Error()
	}
	event.Err(appErr.Err).Str("op", op).Str("kind", string(appErr.Kind)).Msg("product use case failed")
}

// publish hands events to the broker. The row is already committed, so failures are only logged.
func (s *ProductService) publish(ctx context.Context, events ...models.ProductEvent) {
	if s.publisher == nil {
		return
	}
	for _, e := range events {
		err := s.publisher.Publish(ctx, e)
		s.observer.ObserveEvent(string(e.Type), err)
		if err != nil {
			s.log.Ctx(ctx).Error().Err(err).
				Str("event", string(e.Type)).
				Int64("product_id", e.ProductID).
				Msg("failed to publish product event")
		}
	}
}
