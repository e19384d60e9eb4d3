package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"marketplace/internal/auth"
	apperrors "marketplace/internal/errors"
	"marketplace/internal/service"
	"marketplace/internal/view"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	authService service.AuthService
	opts        Options
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, opts Options) *AuthHandler {
	return &AuthHandler{authService: authService, opts: opts}
}

// RegisterRequest represents the registration form.
type RegisterRequest struct {
	FirstName string `form:"first_name" validate:"required,max=100"`
	LastName  string `form:"last_name" validate:"required,max=100"`
	Email     string `form:"email" validate:"required,email,max=255"`
	Password  string `form:"password" validate:"min=8,max=72"`
}

// LoginRequest represents the login form.
type LoginRequest struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// RegisterForm godoc
// @Summary Registration form
// @Tags auth
// @Produce html
// @Success 200 {string} string "HTML page"
// @Success 303 {string} string "Already authenticated"
// @Router /register [get]
func (h *AuthHandler) RegisterForm(c echo.Context) error {
	if _, ok := auth.IdentityFrom(c); ok {
		return redirect(c, "/")
	}
	return c.Render(http.StatusOK, view.PageRegister, newPage(c, "Register"))
}

// Register godoc
// @Summary Create an account and start a session
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce html
// @Param first_name formData string true "First name"
// @Param last_name formData string true "Last name"
// @Param email formData string true "Email"
// @Param password formData string true "Password, 8 or more characters"
// @Success 303 {string} string "Redirect to /"
// @Success 200 {string} string "Form re-rendered with a message"
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	trimAll(&req.FirstName, &req.LastName, &req.Email)

	rerender := func(msg string) error {
		page := newPage(c, "Register")
		page.Message = msg
		page.Form = map[string]string{
			"first_name": req.FirstName,
			"last_name":  req.LastName,
			"email":      req.Email,
		}
		return c.Render(http.StatusOK, view.PageRegister, page)
	}

	if err := c.Validate(&req); err != nil {
		return rerender(formMessage(err))
	}

	user, token, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindValidation {
			return rerender(apperrors.MessageOf(err))
		}
		return err
	}

	h.setSession(c, token, user.ID.String())
	return redirect(c, "/")
}

// LoginForm godoc
// @Summary Login form
// @Tags auth
// @Produce html
// @Success 200 {string} string "HTML page"
// @Success 303 {string} string "Already authenticated"
// @Router /login [get]
func (h *AuthHandler) LoginForm(c echo.Context) error {
	if _, ok := auth.IdentityFrom(c); ok {
		return redirect(c, "/")
	}
	return c.Render(http.StatusOK, view.PageLogin, newPage(c, "Login"))
}

// Login godoc
// @Summary Authenticate and start a session
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce html
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Success 303 {string} string "Redirect to /"
// @Success 200 {string} string "Form re-rendered with a message"
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	trimAll(&req.Email)

	rerender := func(msg string) error {
		page := newPage(c, "Login")
		page.Message = msg
		page.Form = map[string]string{"email": req.Email}
		return c.Render(http.StatusOK, view.PageLogin, page)
	}

	if err := c.Validate(&req); err != nil {
		return rerender(formMessage(err))
	}

	user, token, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindValidation {
			return rerender(apperrors.MessageOf(err))
		}
		return err
	}

	h.setSession(c, token, user.ID.String())
	return redirect(c, "/")
}

// Logout godoc
// @Summary End the session
// @Description Revokes the session token and clears both cookies.
// @Tags auth
// @Success 303 {string} string "Redirect to /"
// @Router /logout [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(auth.TokenCookie); err == nil && cookie.Value != "" {
		_ = h.authService.Logout(c.Request().Context(), cookie.Value)
	}
	h.clearSession(c)
	return redirect(c, "/")
}

func (h *AuthHandler) setSession(c echo.Context, token, userID string) {
	maxAge := int(h.opts.TokenTTL.Seconds())
	c.SetCookie(&http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	c.SetCookie(&http.Cookie{
		Name:     auth.IDCookie,
		Value:    userID,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSession(c echo.Context) {
	for _, name := range []string{auth.TokenCookie, auth.IDCookie} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: name == auth.TokenCookie,
			Secure:   h.opts.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
