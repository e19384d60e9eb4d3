package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"marketplace/internal/auth"
	apperrors "marketplace/internal/errors"
	"marketplace/internal/view"
)

// Options carries the settings handlers need from config.
type Options struct {
	TokenTTL       time.Duration
	SecureCookies  bool
	StripeKey      string
	Currency       string
	MaxUploadBytes int64
}

// fieldMessages translates validator failures into form messages, keyed by field and tag.
var fieldMessages = map[string]string{
	"FirstName.required":   "First name is required",
	"FirstName.max":        "First name must be 100 characters or fewer",
	"LastName.required":    "Last name is required",
	"LastName.max":         "Last name must be 100 characters or fewer",
	"Email.required":       "Please include a valid email",
	"Email.email":          "Please include a valid email",
	"Email.max":            "Please include a valid email",
	"Password.min":         "Please enter a password with 8 or more characters",
	"Password.max":         "Please enter a password with 72 or fewer characters",
	"Password.required":    "Password is required",
	"Title.required":       "Title is required",
	"Title.max":            "Title must be 255 characters or fewer",
	"Description.required": "Description is required",
	"Description.max":      "Description must be 10000 characters or fewer",
	"Price.required":       "Price is required",
	"Price.numeric":        "Price must be a number",
	"Category.required":    "Category is required",
	"Category.max":         "Category must be 100 characters or fewer",
	"Body.required":        "Comment is required",
	"Body.max":             "Comment must be 10000 characters or fewer",
}

// formMessage returns the first human-readable validation message of err.
func formMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if msg, ok := fieldMessages[fe.StructField()+"."+fe.Tag()]; ok {
			return msg
		}
		return fe.StructField() + " is invalid"
	}
	return apperrors.MessageOf(err)
}

// newPage builds the common page data for the current request.
func newPage(c echo.Context, title string) view.Page {
	_, ok := auth.IdentityFrom(c)
	return view.Page{Title: title, Authenticated: ok}
}

// identity returns the acting identity of a gated route.
func identity(c echo.Context) (uuid.UUID, error) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		return uuid.Nil, apperrors.ErrMissingToken
	}
	return id, nil
}

// listingID parses the :id path parameter. Malformed ids cannot exist, so they are not found.
func listingID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.ErrListingNotFound
	}
	return id, nil
}

func trimAll(values ...*string) {
	for _, v := range values {
		*v = strings.TrimSpace(*v)
	}
}

func redirect(c echo.Context, to string) error {
	return c.Redirect(http.StatusSeeOther, to)
}
