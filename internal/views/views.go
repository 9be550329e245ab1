package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/Shofyan/ecommerce-app/internal/services"
)

// Template names.
const (
	ProductsPage  = "products"
	ProductDetail = "product_detail"
	ProductList   = "product_list"
	ProductCard   = "product_card"
	ErrorPage     = "error"
)

//go:embed templates/*.html
var embedded embed.FS

// CatalogPage is the data of the products page.
type CatalogPage struct {
	Title    string
	Search   string
	Products []services.ProductView
}

// DetailPage is the data of the product detail page.
type DetailPage struct {
	Title   string
	Product services.ProductView
}

// ErrorPageData is the data of the error page.
type ErrorPageData struct {
	Title   string
	Code    int
	Message string
}

// Engine renders the catalog templates. It implements fiber.Views.
type Engine struct {
	fsys fs.FS
	mu   sync.RWMutex
	tmpl *template.Template
}

var _ fiber.Views = (*Engine)(nil)

// New creates an engine over the templates in dir, or over the embedded templates when dir is empty.
func New(dir string) *Engine {
	var fsys fs.FS
	if dir == "" {
		fsys, _ = fs.Sub(embedded, "templates")
	} else {
		fsys = os.DirFS(dir)
	}
	return &Engine{fsys: fsys}
}

// Load parses every template. Fiber calls it once when the app is created.
func (e *Engine) Load() error {
	tmpl, err := template.New("catalog").Funcs(Funcs()).ParseFS(e.fsys, "*.html")
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	e.mu.Lock()
	e.tmpl = tmpl
	e.mu.Unlock()
	return nil
}

// Render executes the named template. Layouts are part of each page, so layout is ignored.
func (e *Engine) Render(out io.Writer, name string, binding interface{}, _ ...string) error {
	e.mu.RLock()
	tmpl := e.tmpl
	e.mu.RUnlock()
	if tmpl == nil {
		if err := e.Load(); err != nil {
			return err
		}
		return e.Render(out, name, binding)
	}

	if err := tmpl.ExecuteTemplate(out, name, binding); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}

// Funcs returns the template helpers.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"money":            FormatMoney,
		"sku":              FormatSKU,
		"datetime":         func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04") },
		"longDatetime":     func(t time.Time) string { return t.UTC().Format("January 02, 2006 at 15:04 UTC") },
		"describe":         describe,
		"stockBadgeClass":  stockBadgeClass,
		"stockStatusClass": stockStatusClass,
		"stockStatus":      stockStatus,
	}
}

// FormatMoney renders an amount with exactly two decimals.
func FormatMoney(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// FormatSKU renders the product id zero-padded to six digits.
func FormatSKU(id int64) string {
	return fmt.Sprintf("%06d", id)
}

func describe(description *string, fallback string) string {
	if description == nil || *description == "" {
		return fallback
	}
	return *description
}

func stockBadgeClass(stock int) string {
	if stock > 0 {
		return "bg-green-100 text-green-800"
	}
	return "bg-red-100 text-red-800"
}

func stockStatusClass(stock int) string {
	if stock > 0 {
		return "text-green-600"
	}
	return "text-red-600"
}

func stockStatus(stock int) string {
	if stock > 0 {
		return "In Stock"
	}
	return "Out of Stock"
}
