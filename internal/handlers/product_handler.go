package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Shofyan/ecommerce-app/internal/services"
)

// ProductHandler handles JSON API requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the product routes with the Fiber router.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleGetProducts lists every product, or the ones matching ?search=.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.Search(c.UserContext(), c.Query("search"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(APIResponse{Success: true, Data: products})
}

// HandleGetProductByID retrieves a single product by its id.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondBadRequest(c, "Invalid product id", err.Error())
	}
	product, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(APIResponse{Success: true, Data: product})
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	req, violations, err := parseProductRequest(c, h.validate)
	if err != nil {
		return respondBadRequest(c, "Invalid request body", err.Error())
	}
	if len(violations) > 0 {
		return respondBadRequest(c, "Validation failed", violations...)
	}

	product, err := h.service.Create(c.UserContext(), req.createInput())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(APIResponse{Success: true, Data: product, Message: "Product created successfully"})
}

// HandleUpdateProduct replaces the fields of an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondBadRequest(c, "Invalid product id", err.Error())
	}
	req, violations, err := parseProductRequest(c, h.validate)
	if err != nil {
		return respondBadRequest(c, "Invalid request body", err.Error())
	}
	if len(violations) > 0 {
		return respondBadRequest(c, "Validation failed", violations...)
	}

	product, err := h.service.Update(c.UserContext(), id, req.updateInput())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(APIResponse{Success: true, Data: product, Message: "Product updated successfully"})
}

// HandleDeleteProduct deletes a product by its id.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondBadRequest(c, "Invalid product id", err.Error())
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(APIResponse{Success: true, Message: "Product deleted successfully"})
}
