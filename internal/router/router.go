package router

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"marketplace/internal/auth"
	"marketplace/internal/config"
	"marketplace/internal/handler"
)

const (
	// authRate and authBurst limit register/login attempts per client IP.
	authRate  = rate.Limit(1)
	authBurst = 10
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log logrus.FieldLogger,
	creds *auth.Credentials,
	authHandler *handler.AuthHandler,
	listingHandler *handler.ListingHandler,
	purchaseHandler *handler.PurchaseHandler,
) {
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = handler.ErrorHandler(log)

	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit("4M"))
	if cfg.Timeouts.Request > 0 {
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: cfg.Timeouts.Request,
		}))
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if cfg.Storage.Driver == "local" && cfg.Storage.PublicPrefix != "" {
		e.Static(cfg.Storage.PublicPrefix, cfg.Storage.LocalDir)
	}

	// Route-level middleware keeps unknown paths at 404 instead of the gate's 401.
	open := auth.OptionalAuth(creds)
	gate := auth.RequireAuth(creds)
	limit := authLimiter()

	// Open routes, identity optional
	e.GET("/", listingHandler.Index, open)
	e.GET("/register", authHandler.RegisterForm, open)
	e.POST("/register", authHandler.Register, limit)
	e.GET("/login", authHandler.LoginForm, open)
	e.POST("/login", authHandler.Login, limit)
	e.GET("/logout", authHandler.Logout)
	e.GET("/listings", listingHandler.Browse, open)
	e.GET("/listings/filter/:category", listingHandler.ByCategory, open)
	e.POST("/listings/query", listingHandler.Search, open)
	e.GET("/listings/:id", listingHandler.Show, open)

	// Gated routes, ownership is checked by the services
	e.GET("/create", listingHandler.CreateForm, gate)
	e.POST("/create", listingHandler.Create, gate)
	e.GET("/my_listings", listingHandler.MyListings, gate)
	e.GET("/listings/:id/edit", listingHandler.EditForm, gate)
	e.POST("/listings/:id/edit", listingHandler.Update, gate)
	e.POST("/listings/:id/delete", listingHandler.Delete, gate)
	e.POST("/listings/:id/comments", listingHandler.AddComment, gate)
	e.POST("/listings/:id/payment", purchaseHandler.Purchase, gate)
}

func requestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"remote_ip":  v.RemoteIP,
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	})
}

func authLimiter() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      authRate,
			Burst:     authBurst,
			ExpiresIn: 3 * time.Minute,
		}),
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
