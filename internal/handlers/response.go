package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Shofyan/ecommerce-app/internal/services"
)

// APIResponse is the envelope of every JSON API response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// ProductRequest is the body of create and update requests, as JSON or form fields.
// Pointers let the validator tell a missing number from zero.
type ProductRequest struct {
	Name        string   `json:"name" form:"name" validate:"required,max=255"`
	Description *string  `json:"description" form:"description"`
	Price       *float64 `json:"price" form:"price" validate:"required,gte=0"`
	Stock       *int     `json:"stock" form:"stock" validate:"required,gte=0"`
}

func (r ProductRequest) createInput() services.CreateProductInput {
	return services.CreateProductInput{Name: r.Name, Description: r.Description, Price: *r.Price, Stock: *r.Stock}
}

func (r ProductRequest) updateInput() services.UpdateProductInput {
	return services.UpdateProductInput{Name: r.Name, Description: r.Description, Price: *r.Price, Stock: *r.Stock}
}

var errInvalidID = errors.New("product id must be an integer")

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseProductRequest decodes and validates the request body. It returns the list of
// violations, or an error when the body cannot be decoded at all.
func parseProductRequest(c *fiber.Ctx, validate *validator.Validate) (ProductRequest, []string, error) {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return req, nil, err
	}
	if err := validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return req, nil, err
		}
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, validationMessage(e))
		}
		return req, messages, nil
	}
	return req, nil, nil
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s failed on the '%s' rule", e.Field(), e.Tag())
	}
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, errInvalidID
	}
	return id, nil
}

// statusFor maps a use case error to its HTTP status.
func statusFor(err error) int {
	switch services.KindOf(err) {
	case services.KindValidation:
		return fiber.StatusBadRequest
	case services.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// messageFor returns the caller-safe text of a use case error.
func messageFor(err error) string {
	var appErr *services.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Message()
	}
	return "internal server error"
}

func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	resp := APIResponse{Success: false, Message: messageFor(err)}
	if status == fiber.StatusBadRequest {
		resp.Message = "Validation failed"
		resp.Errors = []string{messageFor(err)}
	}
	return c.Status(status).JSON(resp)
}

func respondBadRequest(c *fiber.Ctx, message string, errs ...string) error {
	return c.Status(fiber.StatusBadRequest).JSON(APIResponse{Success: false, Message: message, Errors: errs})
}

// ErrorHandler renders errors that escape a handler: JSON for the API, plain text elsewhere.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(code).JSON(APIResponse{Success: false, Message: message})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(code).SendString(message)
}
