package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"marketplace/internal/auth"
	apperrors "marketplace/internal/errors"
	"marketplace/internal/model"
	"marketplace/internal/service"
	"marketplace/internal/storage"
	"marketplace/internal/view"
)

const photoField = "photo"

// ListingHandler handles listing pages and forms.
type ListingHandler struct {
	listingService  service.ListingService
	purchaseService service.PurchaseService
	opts            Options
}

// NewListingHandler creates a new listing handler.
func NewListingHandler(listingService service.ListingService, purchaseService service.PurchaseService, opts Options) *ListingHandler {
	return &ListingHandler{
		listingService:  listingService,
		purchaseService: purchaseService,
		opts:            opts,
	}
}

// ListingRequest represents the create and edit forms.
type ListingRequest struct {
	Title       string `form:"title" validate:"required,max=255"`
	Description string `form:"description" validate:"required,max=10000"`
	Price       string `form:"price" validate:"required,numeric"`
	Category    string `form:"category" validate:"required,max=100"`
	Version     int    `form:"version"`
}

// CommentRequest represents the comment form.
type CommentRequest struct {
	Title string `form:"title" validate:"required,max=255"`
	Body  string `form:"comment" validate:"required,max=10000"`
}

// SearchRequest represents the search form.
type SearchRequest struct {
	Query string `form:"query"`
}

// ListingPage is the data of the detail page.
type ListingPage struct {
	Listing        *service.ListingView
	IdempotencyKey string
}

// MyListingsPage is the data of the owner dashboard.
type MyListingsPage struct {
	Listings  []model.Listing
	Purchases []model.Purchase
}

func (r ListingRequest) form() map[string]string {
	return map[string]string{
		"title":       r.Title,
		"description": r.Description,
		"price":       r.Price,
		"category":    r.Category,
		"version":     strconv.Itoa(r.Version),
	}
}

func (r ListingRequest) input() (service.ListingInput, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return service.ListingInput{}, apperrors.Validation("Price must be a number")
	}
	return service.ListingInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       price,
		Category:    r.Category,
		Version:     r.Version,
	}, nil
}

// upload reads the optional photo of a multipart form.
func (h *ListingHandler) upload(c echo.Context) (*storage.Upload, error) {
	fh, err := c.FormFile(photoField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	return storage.FromFileHeader(photoField, fh, h.opts.MaxUploadBytes)
}

func (h *ListingHandler) renderList(c echo.Context, title string, listings []model.Listing) error {
	page := newPage(c, title)
	page.Data = listings
	return c.Render(http.StatusOK, view.PageListings, page)
}

// Index godoc
// @Summary Landing page with the most recent listings
// @Description Shows the 3 newest listings, excluding the caller's own.
// @Tags listings
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router / [get]
func (h *ListingHandler) Index(c echo.Context) error {
	listings, err := h.listingService.Recent(c.Request().Context(), auth.ViewerFrom(c), service.RecentListings)
	if err != nil {
		return err
	}
	page := newPage(c, "")
	page.Data = listings
	return c.Render(http.StatusOK, view.PageIndex, page)
}

// Browse godoc
// @Summary Browse all listings
// @Tags listings
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router /listings [get]
func (h *ListingHandler) Browse(c echo.Context) error {
	listings, err := h.listingService.Browse(c.Request().Context(), auth.ViewerFrom(c))
	if err != nil {
		return err
	}
	return h.renderList(c, "Listings", listings)
}

// ByCategory godoc
// @Summary Browse listings of one category
// @Tags listings
// @Produce html
// @Param category path string true "Category"
// @Success 200 {string} string "HTML page"
// @Router /listings/filter/{category} [get]
func (h *ListingHandler) ByCategory(c echo.Context) error {
	category := c.Param("category")
	listings, err := h.listingService.ByCategory(c.Request().Context(), auth.ViewerFrom(c), category)
	if err != nil {
		return err
	}
	return h.renderList(c, category, listings)
}

// Search godoc
// @Summary Full-text search over listings
// @Tags listings
// @Accept x-www-form-urlencoded
// @Produce html
// @Param query formData string false "Search terms"
// @Success 200 {string} string "HTML page"
// @Router /listings/query [post]
func (h *ListingHandler) Search(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	trimAll(&req.Query)

	listings, err := h.listingService.Search(c.Request().Context(), auth.ViewerFrom(c), req.Query)
	if err != nil {
		return err
	}
	title := "Listings"
	if req.Query != "" {
		title = fmt.Sprintf("Results for %q", req.Query)
	}
	return h.renderList(c, title, listings)
}

// Show godoc
// @Summary Listing detail
// @Tags listings
// @Produce html
// @Param id path string true "Listing ID"
// @Success 200 {string} string "HTML page"
// @Failure 404 {object} errors.ErrorResponse
// @Router /listings/{id} [get]
func (h *ListingHandler) Show(c echo.Context) error {
	return renderDetail(c, h.listingService, h.opts, http.StatusOK, "")
}

// renderDetail renders the detail page of the :id listing with an optional message.
func renderDetail(c echo.Context, listings service.ListingService, opts Options, status int, message string) error {
	id, err := listingID(c)
	if err != nil {
		return err
	}
	listing, err := listings.Get(c.Request().Context(), auth.ViewerFrom(c), id)
	if err != nil {
		return err
	}

	page := newPage(c, listing.Title)
	page.Message = message
	page.StripeKey = opts.StripeKey
	page.Currency = opts.Currency
	page.Data = ListingPage{
		Listing:        listing,
		IdempotencyKey: uuid.NewString(),
	}
	return c.Render(status, view.PageListing, page)
}

// CreateForm godoc
// @Summary Listing creation form
// @Tags listings
// @Produce html
// @Success 200 {string} string "HTML page"
// @Failure 401 {object} map[string]string
// @Router /create [get]
func (h *ListingHandler) CreateForm(c echo.Context) error {
	return c.Render(http.StatusOK, view.PageCreate, newPage(c, "Sell an item"))
}

// Create godoc
// @Summary Create a listing
// @Tags listings
// @Accept multipart/form-data
// @Produce html
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param price formData number true "Price"
// @Param category formData string true "Category"
// @Param photo formData file true "Photo (jpeg, jpg, png up to 3MB)"
// @Success 303 {string} string "Redirect to the new listing"
// @Success 200 {string} string "Form re-rendered with a message"
// @Failure 401 {object} map[string]string
// @Failure 502 {object} errors.ErrorResponse
// @Router /create [post]
func (h *ListingHandler) Create(c echo.Context) error {
	owner, err := identity(c)
	if err != nil {
		return err
	}

	var req ListingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	trimAll(&req.Title, &req.Description, &req.Price, &req.Category)

	rerender := func(msg string) error {
		page := newPage(c, "Sell an item")
		page.Message = msg
		page.Form = req.form()
		return c.Render(http.StatusOK, view.PageCreate, page)
	}

	if err := c.Validate(&req); err != nil {
		return rerender(formMessage(err))
	}
	in, err := req.input()
	if err != nil {
		return rerender(apperrors.MessageOf(err))
	}
	photo, err := h.upload(c)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindValidation {
			return rerender(apperrors.MessageOf(err))
		}
		return err
	}

	listing, err := h.listingService.Create(c.Request().Context(), owner, in, photo)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindValidation {
			return rerender(apperrors.MessageOf(err))
		}
		return err
	}
	return redirect(c, "/listings/"+listing.ID.String())
}

// EditForm godoc
// @Summary Listing edit form
// @Tags listings
// @Produce html
// @Param id path string true "Listing ID"
// @Success 200 {string} string "HTML page"
// @Failure 401 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /listings/{id}/edit [get]
func (h *ListingHandler) EditForm(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := listingID(c)
	if err != nil {
		return err
	}
	listing, err := h.listingService.ForEdit(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}

	page := newPage(c, "Edit "+listing.Title)
	page.Form = map[string]string{
		"id":          listing.ID.String(),
		"title":       listing.Title,
		"description": listing.Description,
		"price":       listing.Price.StringFixed(2),
		"category":    listing.Category,
		"photo":       listing.Photo,
		"version":     strconv.Itoa(listing.Version),
	}
	return c.Render(http.StatusOK, view.PageEdit, page)
}

// Update godoc
// @Summary Apply an edit to a listing
// @Description Only the owner may edit. Without a new photo the current one is kept.
// @Tags listings
// @Accept multipart/form-data
// @Produce html
// @Param id path string true "Listing ID"
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param price formData number true "Price"
// @Param category formData string true "Category"
// @Param version formData integer false "Version the form was rendered from"
// @Param photo formData file false "Replacement photo"
// @Success 303 {string} string "Redirect to the listing"
// @Success 200 {string} string "Form re-rendered with a message"
// @Failure 401 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /listings/{id}/edit [post]
func (h *ListingHandler) Update(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := listingID(c)
	if err != nil {
		return err
	}

	var req ListingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	trimAll(&req.Title, &req.Description, &req.Price, &req.Category)

	rerender := func(msg string) error {
		page := newPage(c, "Edit listing")
		page.Message = msg
		page.Form = req.form()
		page.Form["id"] = id.String()
		return c.Render(http.StatusOK, view.PageEdit, page)
	}

	if err := c.Validate(&req); err != nil {
		return rerender(formMessage(err))
	}
	in, err := req.input()
	if err != nil {
		return rerender(apperrors.MessageOf(err))
	}
	photo, err := h.upload(c)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindValidation {
			return rerender(apperrors.MessageOf(err))
		}
		return err
	}

	if _, err := h.listingService.Update(c.Request().Context(), actor, id, in, photo); err != nil {
		if apperrors.KindOf(err) == apperrors.KindValidation {
			return rerender(apperrors.MessageOf(err))
		}
		return err
	}
	return redirect(c, "/listings/"+id.String())
}

// Delete godoc
// @Summary Delete a listing
// @Tags listings
// @Param id path string true "Listing ID"
// @Success 303 {string} string "Redirect to /my_listings"
// @Failure 401 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /listings/{id}/delete [post]
func (h *ListingHandler) Delete(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := listingID(c)
	if err != nil {
		return err
	}
	if err := h.listingService.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return redirect(c, "/my_listings")
}

// MyListings godoc
// @Summary The caller's listings and purchases
// @Tags listings
// @Produce html
// @Success 200 {string} string "HTML page"
// @Failure 401 {object} map[string]string
// @Router /my_listings [get]
func (h *ListingHandler) MyListings(c echo.Context) error {
	owner, err := identity(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	listings, err := h.listingService.Mine(ctx, owner)
	if err != nil {
		return err
	}
	purchases, err := h.purchaseService.History(ctx, owner)
	if err != nil {
		return err
	}

	page := newPage(c, "My listings")
	page.Data = MyListingsPage{Listings: listings, Purchases: purchases}
	return c.Render(http.StatusOK, view.PageMyListings, page)
}

// AddComment godoc
// @Summary Comment on a listing
// @Tags listings
// @Accept x-www-form-urlencoded
// @Produce html
// @Param id path string true "Listing ID"
// @Param title formData string true "Title"
// @Param comment formData string true "Comment"
// @Success 303 {string} string "Redirect to the listing"
// @Success 200 {string} string "Listing re-rendered with a message"
// @Failure 401 {object} map[string]string
// @Failure 404 {object} errors.ErrorResponse
// @Router /listings/{id}/comments [post]
func (h *ListingHandler) AddComment(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := listingID(c)
	if err != nil {
		return err
	}

	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	trimAll(&req.Title, &req.Body)
	if err := c.Validate(&req); err != nil {
		return renderDetail(c, h.listingService, h.opts, http.StatusOK, formMessage(err))
	}

	if _, err := h.listingService.AddComment(c.Request().Context(), actor, id, service.CommentInput{
		Title: req.Title,
		Body:  req.Body,
	}); err != nil {
		if apperrors.KindOf(err) == apperrors.KindValidation {
			return renderDetail(c, h.listingService, h.opts, http.StatusOK, apperrors.MessageOf(err))
		}
		return err
	}
	return redirect(c, "/listings/"+id.String())
}
