package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Shofyan/ecommerce-app/internal/services"
	"github.com/Shofyan/ecommerce-app/internal/views"
)

const catalogTitle = "Product Catalog"

// PageHandler serves the HTML pages and the HTMX partials that update them.
type PageHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewPageHandler creates a new PageHandler. The app must be configured with views.Engine.
func NewPageHandler(service *services.ProductService) *PageHandler {
	return &PageHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the page and partial routes on the root router.
func (h *PageHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleCatalogPage)
	router.Get("/products/:id", h.HandleDetailPage)

	htmx := router.Group("/htmx/products")
	htmx.Get("/", h.HandleListPartial)
	htmx.Post("/", h.HandleCreatePartial)
	htmx.Put("/:id", h.HandleUpdatePartial)
	htmx.Delete("/:id", h.HandleDeletePartial)
}

// HandleCatalogPage renders the catalog with its search box and create form.
func (h *PageHandler) HandleCatalogPage(c *fiber.Ctx) error {
	search := c.Query("search")
	products, err := h.service.Search(c.UserContext(), search)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.Render(views.ProductsPage, views.CatalogPage{Title: catalogTitle, Search: search, Products: products})
}

// HandleDetailPage renders a single product.
func (h *PageHandler) HandleDetailPage(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).Render(views.ErrorPage, views.ErrorPageData{
			Title: catalogTitle, Code: fiber.StatusBadRequest, Message: err.Error(),
		})
	}
	product, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.renderError(c, err)
	}
	return c.Render(views.ProductDetail, views.DetailPage{Title: product.Name + " - " + catalogTitle, Product: product})
}

// HandleListPartial renders the product cards matching ?search=.
func (h *PageHandler) HandleListPartial(c *fiber.Ctx) error {
	products, err := h.service.Search(c.UserContext(), c.Query("search"))
	if err != nil {
		return partialError(c, err)
	}
	return c.Render(views.ProductList, products)
}

// HandleCreatePartial creates a product from the form and renders its card.
func (h *PageHandler) HandleCreatePartial(c *fiber.Ctx) error {
	req, ok, err := h.parseForm(c)
	if !ok {
		return err
	}
	product, err := h.service.Create(c.UserContext(), req.createInput())
	if err != nil {
		return partialError(c, err)
	}
	return c.Render(views.ProductCard, product)
}

// HandleUpdatePartial updates a product from the form and renders its card.
func (h *PageHandler) HandleUpdatePartial(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}
	req, ok, err := h.parseForm(c)
	if !ok {
		return err
	}
	product, err := h.service.Update(c.UserContext(), id, req.updateInput())
	if err != nil {
		return partialError(c, err)
	}
	return c.Render(views.ProductCard, product)
}

// HandleDeletePartial deletes a product. The empty body makes HTMX drop the card.
func (h *PageHandler) HandleDeletePartial(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(err.Error())
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return partialError(c, err)
	}
	return c.Status(fiber.StatusOK).SendString("")
}

// parseForm reports ok=false after it has already written a 400 response.
func (h *PageHandler) parseForm(c *fiber.Ctx) (ProductRequest, bool, error) {
	req, violations, err := parseProductRequest(c, h.validate)
	if err != nil {
		return req, false, c.Status(fiber.StatusBadRequest).SendString("invalid form: " + err.Error())
	}
	if len(violations) > 0 {
		return req, false, c.Status(fiber.StatusBadRequest).SendString(violations[0])
	}
	// An HTML form always posts the textarea, so empty means no description.
	if req.Description != nil && *req.Description == "" {
		req.Description = nil
	}
	return req, true, nil
}

func (h *PageHandler) renderError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	return c.Status(status).Render(views.ErrorPage, views.ErrorPageData{
		Title: catalogTitle, Code: status, Message: messageFor(err),
	})
}

func partialError(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).SendString(messageFor(err))
}
