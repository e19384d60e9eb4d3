package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "marketplace/internal/errors"
	"marketplace/internal/service"
)

// PurchaseHandler handles checkout of a listing.
type PurchaseHandler struct {
	purchaseService service.PurchaseService
	listingService  service.ListingService
	opts            Options
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(purchaseService service.PurchaseService, listingService service.ListingService, opts Options) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
		listingService:  listingService,
		opts:            opts,
	}
}

// PurchaseRequest represents the checkout form posted by Stripe Checkout.
type PurchaseRequest struct {
	StripeToken    string `form:"stripeToken"`
	IdempotencyKey string `form:"idempotency_key"`
}

// Purchase godoc
// @Summary Buy a listing
// @Description Charges the buyer through Stripe. Resubmitting the same idempotency key never charges twice.
// @Tags purchases
// @Accept x-www-form-urlencoded
// @Produce html
// @Param id path string true "Listing ID"
// @Param stripeToken formData string true "Stripe card token"
// @Param idempotency_key formData string false "Key rendered into the checkout form"
// @Success 303 {string} string "Redirect to /my_listings"
// @Failure 401 {object} map[string]string
// @Failure 402 {string} string "Listing re-rendered with the decline message"
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {string} string "Listing re-rendered with a duplicate submission message"
// @Router /listings/{id}/payment [post]
func (h *PurchaseHandler) Purchase(c echo.Context) error {
	buyer, err := identity(c)
	if err != nil {
		return err
	}
	id, err := listingID(c)
	if err != nil {
		return err
	}

	var req PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	trimAll(&req.StripeToken, &req.IdempotencyKey)

	_, err = h.purchaseService.Purchase(c.Request().Context(), service.PurchaseInput{
		BuyerID:        buyer,
		ListingID:      id,
		PaymentToken:   req.StripeToken,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		switch kind := apperrors.KindOf(err); kind {
		case apperrors.KindValidation:
			return renderDetail(c, h.listingService, h.opts, http.StatusOK, apperrors.MessageOf(err))
		case apperrors.KindPayment, apperrors.KindConflict:
			return renderDetail(c, h.listingService, h.opts, apperrors.StatusCode(kind), apperrors.MessageOf(err))
		default:
			return err
		}
	}
	return redirect(c, "/my_listings")
}
