package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so the boundary layer can choose a presentation.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindOwnership
	KindNotFound
	KindConflict
	KindPayment
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindOwnership:
		return "ownership"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPayment:
		return "payment"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// AppError is a failure tagged with a Kind and a human-readable message.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so that wrapped copies of a sentinel compare equal to it.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// Wrap returns a copy of the sentinel carrying cause.
func (e *AppError) Wrap(cause error) *AppError {
	return &AppError{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: cause}
}

// WithMessage returns a copy of the sentinel with a different message.
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{Kind: e.Kind, Code: e.Code, Message: msg, Err: e.Err}
}

func newKind(kind Kind, code, msg string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: msg}
}

// Validation creates a validation failure with a user-facing message.
func Validation(msg string) *AppError {
	return newKind(KindValidation, "VALIDATION_ERROR", msg)
}

// Upstream wraps a storage, cache or other dependency failure.
func Upstream(msg string, err error) *AppError {
	return &AppError{Kind: KindUpstream, Code: "UPSTREAM_ERROR", Message: msg, Err: err}
}

// Payment wraps a payment processor failure.
func Payment(msg string, err error) *AppError {
	return &AppError{Kind: KindPayment, Code: "PAYMENT_FAILED", Message: msg, Err: err}
}

var (
	// ErrMissingToken is returned when a protected route is called without a session token.
	ErrMissingToken = newKind(KindAuth, "MISSING_TOKEN", "Not authorized to go here")
	// ErrInvalidToken is returned when the session token fails verification.
	ErrInvalidToken = newKind(KindAuth, "INVALID_TOKEN", "Token is not valid")
	// ErrInvalidCredentials is returned when no account matches the email.
	ErrInvalidCredentials = newKind(KindValidation, "INVALID_CREDENTIALS", "Invalid credentials")
	// ErrIncorrectPassword is returned when the password does not match.
	ErrIncorrectPassword = newKind(KindValidation, "INCORRECT_PASSWORD", "Incorrect password")
	// ErrPasswordTooLong is returned when a password exceeds what bcrypt can hash.
	ErrPasswordTooLong = newKind(KindValidation, "PASSWORD_TOO_LONG", "Please enter a password with 72 or fewer characters")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = newKind(KindValidation, "USER_ALREADY_EXISTS", "User already exists")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = newKind(KindNotFound, "USER_NOT_FOUND", "user not found")
	// ErrListingNotFound is returned when a listing is not found.
	ErrListingNotFound = newKind(KindNotFound, "LISTING_NOT_FOUND", "listing not found")
	// ErrNotOwner is returned when the acting identity does not own the listing.
	ErrNotOwner = newKind(KindOwnership, "NOT_OWNER", "you do not own this listing")
	// ErrSelfPurchase is returned when an owner tries to buy their own listing.
	ErrSelfPurchase = newKind(KindOwnership, "SELF_PURCHASE", "you cannot buy your own listing")
	// ErrVersionConflict is returned when a listing changed since the edit form was loaded.
	ErrVersionConflict = newKind(KindConflict, "VERSION_CONFLICT", "listing was modified by another request, reload and try again")
	// ErrDuplicatePurchase is returned when an idempotency key was already used.
	ErrDuplicatePurchase = newKind(KindConflict, "DUPLICATE_PURCHASE", "this purchase was already submitted")
	// ErrInvalidUpload is returned when a photo is not an accepted image or too large.
	ErrInvalidUpload = newKind(KindValidation, "INVALID_UPLOAD", "Images only (jpeg, jpg, png) up to 3MB")
	// ErrPhotoRequired is returned when a listing is created without a photo.
	ErrPhotoRequired = newKind(KindValidation, "PHOTO_REQUIRED", "Photo is required")
)

// KindOf returns the Kind of err, or KindInternal for untagged errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// StatusCode maps a Kind to an HTTP status code.
func StatusCode(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindOwnership:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindPayment:
		return http.StatusPaymentRequired
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Internal details are never exposed.
func MapErrorToHTTP(err error) *HTTPError {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind == KindInternal {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
	return NewHTTPError(StatusCode(appErr.Kind), appErr.Message, appErr.Code)
}
