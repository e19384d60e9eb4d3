package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Page names.
const (
	PageIndex      = "index.html"
	PageRegister   = "register.html"
	PageLogin      = "login.html"
	PageListings   = "listings.html"
	PageListing    = "listing.html"
	PageEdit       = "edit.html"
	PageCreate     = "create.html"
	PageMyListings = "my_listings.html"
	PageError      = "error.html"
)

// Page is the data every template receives.
type Page struct {
	Title         string
	Authenticated bool
	Message       string
	Form          map[string]string
	Data          interface{}
	StripeKey     string
	Currency      string
}

// Value returns a previously submitted form value.
func (p Page) Value(key string) string {
	if p.Form == nil {
		return ""
	}
	return p.Form[key]
}

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string {
		return d.StringFixed(2)
	},
	"date": func(t time.Time) string {
		return t.Format("Jan 2, 2006")
	},
	"upper": strings.ToUpper,
}

// Renderer renders embedded pages, each wrapped in the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page template.
func NewRenderer() (*Renderer, error) {
	entries, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, entry := range entries {
		if entry == layoutFile {
			continue
		}
		name := strings.TrimPrefix(entry, "templates/")
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, layoutFile, entry)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

var _ echo.Renderer = (*Renderer)(nil)
