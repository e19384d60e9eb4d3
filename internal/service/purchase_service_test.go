package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"marketplace/internal/cache"
	apperrors "marketplace/internal/errors"
	"marketplace/internal/model"
	"marketplace/internal/payment"
)

type purchaseFixture struct {
	listings  *MockListingRepository
	users     *MockUserRepository
	purchases *MockPurchaseRepository
	logs      *MockPurchaseLogRepository
	processor *MockProcessor
	service   PurchaseService
}

func newPurchaseFixture(t *testing.T, c *cache.Client) *purchaseFixture {
	f := &purchaseFixture{
		listings:  new(MockListingRepository),
		users:     new(MockUserRepository),
		purchases: new(MockPurchaseRepository),
		logs:      new(MockPurchaseLogRepository),
		processor: new(MockProcessor),
	}
	f.logs.On("CreateBatch", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.logs.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.service = NewPurchaseService(f.listings, f.users, f.purchases, f.logs, f.processor, c,
		PurchaseConfig{Currency: "usd", Timeout: time.Second}, testLogger())
	t.Cleanup(f.service.Close)
	return f
}

func TestPurchaseService_SelfPurchaseNeverCharges(t *testing.T) {
	f := newPurchaseFixture(t, nil)
	owner := uuid.New()
	listing := ownedListing(owner)
	f.listings.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)

	purchase, err := f.service.Purchase(context.Background(), PurchaseInput{
		BuyerID:      owner,
		ListingID:    listing.ID,
		PaymentToken: "tok_visa",
	})
	assert.Nil(t, purchase)
	assert.ErrorIs(t, err, apperrors.ErrSelfPurchase)
	f.processor.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	f.processor.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
	f.purchases.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPurchaseService_ListingNotFound(t *testing.T) {
	f := newPurchaseFixture(t, nil)
	id := uuid.New()
	f.listings.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

	_, err := f.service.Purchase(context.Background(), PurchaseInput{BuyerID: uuid.New(), ListingID: id, PaymentToken: "tok_visa"})
	assert.ErrorIs(t, err, apperrors.ErrListingNotFound)
}

func TestPurchaseService_Success(t *testing.T) {
	f := newPurchaseFixture(t, nil)
	listing := ownedListing(uuid.New())
	buyer := &model.User{ID: uuid.New(), Email: "buyer@example.com"}

	f.listings.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
	f.users.On("FindByID", mock.Anything, buyer.ID).Return(buyer, nil)
	f.purchases.On("FindByIdempotencyKey", mock.Anything, "key-1").Return(nil, gorm.ErrRecordNotFound)
	f.purchases.On("Create", mock.Anything, mock.MatchedBy(func(p *model.Purchase) bool {
		return p.Status == model.PurchaseStatusPending && p.AmountMinor == 5000 && p.SellerID == listing.UserID
	})).Return(nil)
	f.processor.On("CreateCustomer", mock.Anything, payment.CustomerRequest{
		Email: "buyer@example.com", Token: "tok_visa", IdempotencyKey: "key-1-customer",
	}).Return("cus_1", nil)
	f.processor.On("Charge", mock.Anything, payment.ChargeRequest{
		CustomerRef: "cus_1", AmountMinor: 5000, Currency: "usd", Description: "Desk", IdempotencyKey: "key-1-charge",
	}).Return("ch_1", nil)
	f.purchases.On("Update", mock.Anything, mock.AnythingOfType("*model.Purchase")).Return(nil)

	purchase, err := f.service.Purchase(context.Background(), PurchaseInput{
		BuyerID:        buyer.ID,
		ListingID:      listing.ID,
		PaymentToken:   "tok_visa",
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseStatusSucceeded, purchase.Status)
	assert.Equal(t, "ch_1", purchase.ChargeRef)
	assert.Equal(t, "cus_1", purchase.CustomerRef)
	f.processor.AssertExpectations(t)
}

func TestPurchaseService_ProcessorFailure(t *testing.T) {
	f := newPurchaseFixture(t, nil)
	listing := ownedListing(uuid.New())
	buyer := &model.User{ID: uuid.New(), Email: "buyer@example.com"}

	f.listings.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
	f.users.On("FindByID", mock.Anything, buyer.ID).Return(buyer, nil)
	f.purchases.On("FindByIdempotencyKey", mock.Anything, mock.Anything).Return(nil, gorm.ErrRecordNotFound)
	f.purchases.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.processor.On("CreateCustomer", mock.Anything, mock.Anything).Return("cus_1", nil)
	f.processor.On("Charge", mock.Anything, mock.Anything).Return("", errors.New("connection reset"))
	f.purchases.On("Update", mock.Anything, mock.MatchedBy(func(p *model.Purchase) bool {
		return p.Status == model.PurchaseStatusFailed && p.ErrorMessage == "connection reset"
	})).Return(nil)

	purchase, err := f.service.Purchase(context.Background(), PurchaseInput{
		BuyerID:      buyer.ID,
		ListingID:    listing.ID,
		PaymentToken: "tok_chargeDeclined",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindPayment, apperrors.KindOf(err))
	assert.Equal(t, model.PurchaseStatusFailed, purchase.Status)
	f.purchases.AssertExpectations(t)
}

func TestPurchaseService_DuplicateSubmission(t *testing.T) {
	listing := ownedListing(uuid.New())
	buyer := uuid.New()

	t.Run("key claimed in redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		require.NoError(t, mr.Set("purchase:idempotency:key-2", buyer.String()))
		f := newPurchaseFixture(t, cache.New(mr.Addr(), "", 0))

		f.listings.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
		f.purchases.On("FindByIdempotencyKey", mock.Anything, "key-2").Return(nil, gorm.ErrRecordNotFound)

		_, err := f.service.Purchase(context.Background(), PurchaseInput{
			BuyerID: buyer, ListingID: listing.ID, PaymentToken: "tok_visa", IdempotencyKey: "key-2",
		})
		assert.ErrorIs(t, err, apperrors.ErrDuplicatePurchase)
		f.processor.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("already succeeded", func(t *testing.T) {
		f := newPurchaseFixture(t, nil)
		done := &model.Purchase{ID: uuid.New(), BuyerID: buyer, Status: model.PurchaseStatusSucceeded}
		f.listings.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
		f.purchases.On("FindByIdempotencyKey", mock.Anything, "key-3").Return(done, nil)

		purchase, err := f.service.Purchase(context.Background(), PurchaseInput{
			BuyerID: buyer, ListingID: listing.ID, PaymentToken: "tok_visa", IdempotencyKey: "key-3",
		})
		require.NoError(t, err)
		assert.Equal(t, done.ID, purchase.ID)
		f.processor.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("previous attempt failed", func(t *testing.T) {
		f := newPurchaseFixture(t, nil)
		failed := &model.Purchase{ID: uuid.New(), BuyerID: buyer, Status: model.PurchaseStatusFailed}
		f.listings.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
		f.purchases.On("FindByIdempotencyKey", mock.Anything, "key-4").Return(failed, nil)

		_, err := f.service.Purchase(context.Background(), PurchaseInput{
			BuyerID: buyer, ListingID: listing.ID, PaymentToken: "tok_visa", IdempotencyKey: "key-4",
		})
		assert.ErrorIs(t, err, apperrors.ErrDuplicatePurchase)
		assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	})
}

func TestPurchaseService_RequiresPaymentToken(t *testing.T) {
	f := newPurchaseFixture(t, nil)
	listing := ownedListing(uuid.New())
	f.listings.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)

	_, err := f.service.Purchase(context.Background(), PurchaseInput{BuyerID: uuid.New(), ListingID: listing.ID})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	f.processor.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
}

func TestPurchaseService_CloseFlushesLogs(t *testing.T) {
	logs := new(MockPurchaseLogRepository)
	var flushed []model.PurchaseLog
	logs.On("CreateBatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { flushed = append(flushed, args.Get(1).([]model.PurchaseLog)...) }).
		Return(nil)

	svc := NewPurchaseService(nil, nil, nil, logs, nil, nil, PurchaseConfig{}, testLogger()).(*purchaseService)
	id := uuid.New()
	svc.logPurchase(context.Background(), id, model.PurchaseStatusPending, "")
	svc.logPurchase(context.Background(), id, model.PurchaseStatusSucceeded, "")
	svc.Close()
	svc.Close()

	require.Len(t, flushed, 2)
	assert.Equal(t, model.PurchaseStatusPending, flushed[0].Status)
	assert.Equal(t, model.PurchaseStatusSucceeded, flushed[1].Status)

	// after close, logs are written synchronously
	logs.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	svc.logPurchase(context.Background(), id, model.PurchaseStatusFailed, "late")
	logs.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPurchaseService_History(t *testing.T) {
	f := newPurchaseFixture(t, nil)
	buyer := uuid.New()
	f.purchases.On("ListByBuyer", mock.Anything, buyer).Return([]model.Purchase{{ID: uuid.New()}}, nil)

	got, err := f.service.History(context.Background(), buyer)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
