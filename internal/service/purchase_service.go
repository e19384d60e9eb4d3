package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"marketplace/internal/cache"
	apperrors "marketplace/internal/errors"
	"marketplace/internal/model"
	"marketplace/internal/payment"
	"marketplace/internal/repository"
)

const (
	idempotencyTTL    = 24 * time.Hour
	logBatchSize      = 10
	logFlushInterval  = time.Second
	logChannelBacklog = 100
)

// PurchaseInput carries a purchase form submission.
type PurchaseInput struct {
	BuyerID        uuid.UUID
	ListingID      uuid.UUID
	PaymentToken   string
	IdempotencyKey string
}

// PurchaseService charges buyers for listings.
type PurchaseService interface {
	Purchase(ctx context.Context, in PurchaseInput) (*model.Purchase, error)
	History(ctx context.Context, buyer uuid.UUID) ([]model.Purchase, error)
	Close()
}

// PurchaseConfig holds the processor settings of the purchase flow.
type PurchaseConfig struct {
	Currency string
	Timeout  time.Duration
}

type purchaseService struct {
	listings  repository.ListingRepository
	users     repository.UserRepository
	purchases repository.PurchaseRepository
	logs      repository.PurchaseLogRepository
	processor payment.Processor
	cache     *cache.Client
	cfg       PurchaseConfig
	log       logrus.FieldLogger

	// Channel for async purchase logging
	logChannel chan model.PurchaseLog
	mu         sync.RWMutex
	closed     bool
	done       chan struct{}
}

// NewPurchaseService creates a purchase service and starts its log worker.
func NewPurchaseService(
	listings repository.ListingRepository,
	users repository.UserRepository,
	purchases repository.PurchaseRepository,
	logs repository.PurchaseLogRepository,
	processor payment.Processor,
	cache *cache.Client,
	cfg PurchaseConfig,
	log logrus.FieldLogger,
) PurchaseService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	service := &purchaseService{
		listings:   listings,
		users:      users,
		purchases:  purchases,
		logs:       logs,
		processor:  processor,
		cache:      cache,
		cfg:        cfg,
		log:        log,
		logChannel: make(chan model.PurchaseLog, logChannelBacklog),
		done:       make(chan struct{}),
	}

	go service.logWorker()

	return service
}

// logWorker writes purchase logs in batches.
func (s *purchaseService) logWorker() {
	defer close(s.done)
	ctx := context.Background()
	batch := make([]model.PurchaseLog, 0, logBatchSize)
	ticker := time.NewTicker(logFlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.logs.CreateBatch(ctx, batch); err != nil {
			s.log.WithError(err).WithField("count", len(batch)).Error("write purchase logs")
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry, ok := <-s.logChannel:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) >= logBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Close stops the log worker after flushing pending entries.
func (s *purchaseService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.logChannel)
	s.mu.Unlock()
	<-s.done
}

// logPurchase records a status transition asynchronously.
func (s *purchaseService) logPurchase(ctx context.Context, purchaseID uuid.UUID, status model.PurchaseStatus, errorMessage string) {
	entry := model.PurchaseLog{
		PurchaseID:   purchaseID,
		Status:       status,
		ErrorMessage: errorMessage,
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.closed {
		select {
		case s.logChannel <- entry:
			return
		default:
		}
	}
	// Channel full or closed, log synchronously as fallback
	if err := s.logs.Create(ctx, &entry); err != nil {
		s.log.WithError(err).WithField("purchase_id", purchaseID).Error("write purchase log")
	}
}

func (s *purchaseService) idempotencyCacheKey(key string) string {
	return fmt.Sprintf("purchase:idempotency:%s", key)
}

// Purchase charges the buyer for a listing. A key that was already used returns the
// succeeded purchase, or ErrDuplicatePurchase while it is pending or after it failed.
func (s *purchaseService) Purchase(ctx context.Context, in PurchaseInput) (*model.Purchase, error) {
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" {
		key = uuid.NewString()
	}

	listing, err := s.listings.FindByID(ctx, in.ListingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrListingNotFound
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	if listing.IsOwnedBy(in.BuyerID) {
		return nil, apperrors.ErrSelfPurchase
	}
	if strings.TrimSpace(in.PaymentToken) == "" {
		return nil, apperrors.Validation("Payment details are required")
	}

	existing, err := s.purchases.FindByIdempotencyKey(ctx, key)
	if err == nil && existing != nil {
		if existing.Status == model.PurchaseStatusSucceeded && existing.BuyerID == in.BuyerID {
			return existing, nil
		}
		return nil, apperrors.ErrDuplicatePurchase
	}
	if err != nil && !repository.IsNotFound(err) {
		return nil, fmt.Errorf("check purchase: %w", err)
	}

	claimed, _ := s.cache.SetNX(ctx, s.idempotencyCacheKey(key), []byte(in.BuyerID.String()), idempotencyTTL)
	if !claimed {
		return nil, apperrors.ErrDuplicatePurchase
	}

	buyer, err := s.users.FindByID(ctx, in.BuyerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find buyer: %w", err)
	}

	purchase := &model.Purchase{
		ListingID:      listing.ID,
		BuyerID:        buyer.ID,
		SellerID:       listing.UserID,
		Title:          listing.Title,
		Amount:         listing.Price,
		AmountMinor:    listing.MinorUnits(),
		Currency:       s.cfg.Currency,
		IdempotencyKey: key,
		Status:         model.PurchaseStatusPending,
	}
	if err := s.purchases.Create(ctx, purchase); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperrors.ErrDuplicatePurchase.Wrap(err)
		}
		return nil, fmt.Errorf("create purchase: %w", err)
	}
	s.logPurchase(ctx, purchase.ID, model.PurchaseStatusPending, "")

	payCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		payCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	customer, err := s.processor.CreateCustomer(payCtx, payment.CustomerRequest{
		Email:          buyer.Email,
		Token:          in.PaymentToken,
		IdempotencyKey: key + "-customer",
	})
	if err != nil {
		return purchase, s.fail(ctx, purchase, err)
	}
	purchase.CustomerRef = customer

	charge, err := s.processor.Charge(payCtx, payment.ChargeRequest{
		CustomerRef:    customer,
		AmountMinor:    purchase.AmountMinor,
		Currency:       purchase.Currency,
		Description:    listing.Title,
		IdempotencyKey: key + "-charge",
	})
	if err != nil {
		return purchase, s.fail(ctx, purchase, err)
	}

	purchase.ChargeRef = charge
	purchase.Status = model.PurchaseStatusSucceeded
	if err := s.purchases.Update(ctx, purchase); err != nil {
		// charge already captured
		s.log.WithError(err).WithField("purchase_id", purchase.ID).Error("record succeeded purchase")
	}
	s.logPurchase(ctx, purchase.ID, model.PurchaseStatusSucceeded, "")

	return purchase, nil
}

// fail marks the purchase failed and returns a payment-kind error.
func (s *purchaseService) fail(ctx context.Context, purchase *model.Purchase, cause error) error {
	err := cause
	if apperrors.KindOf(cause) != apperrors.KindPayment {
		err = apperrors.Payment("payment could not be completed", cause)
	}

	purchase.Status = model.PurchaseStatusFailed
	purchase.ErrorMessage = cause.Error()
	if uerr := s.purchases.Update(ctx, purchase); uerr != nil {
		s.log.WithError(uerr).WithField("purchase_id", purchase.ID).Error("record failed purchase")
	}
	s.logPurchase(ctx, purchase.ID, model.PurchaseStatusFailed, cause.Error())
	s.log.WithError(cause).WithFields(logrus.Fields{
		"purchase_id": purchase.ID,
		"listing_id":  purchase.ListingID,
	}).Warn("payment failed")

	return err
}

// History returns the buyer's purchases.
func (s *purchaseService) History(ctx context.Context, buyer uuid.UUID) ([]model.Purchase, error) {
	purchases, err := s.purchases.ListByBuyer(ctx, buyer)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return purchases, nil
}
