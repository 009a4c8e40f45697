package service

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"resultpay/internal/cache"
	"resultpay/internal/metrics"
	"resultpay/internal/model"
	"resultpay/internal/provider"
	"resultpay/internal/repository"
)

// WebhookEvent is a provider push, already authenticated and decoded by the
// ingress handler.
type WebhookEvent struct {
	ChargeID     string
	StatusToken  string
	APIRef       string
	Value        string
	Currency     string
	Account      string
	FailedReason string
	Raw          []byte
}

// WebhookService applies a provider push to the cache and the ledger. It
// never returns an error: the provider must always be acknowledged once
// processing has been attempted, so every downstream failure is logged and
// swallowed here.
type WebhookService interface {
	ProcessEvent(ctx context.Context, event WebhookEvent)
}

type webhookService struct {
	ledger     repository.PaymentRepository
	statuses   cache.StatusCache
	completion CompletionService
	logger     *zap.Logger
}

// NewWebhookService creates a new webhook ingress service.
func NewWebhookService(
	ledger repository.PaymentRepository,
	statuses cache.StatusCache,
	completion CompletionService,
	logger *zap.Logger,
) WebhookService {
	return &webhookService{
		ledger:     ledger,
		statuses:   statuses,
		completion: completion,
		logger:     logger,
	}
}

func (s *webhookService) ProcessEvent(ctx context.Context, event WebhookEvent) {
	normalized := provider.NormalizeStatus(event.StatusToken)

	// the cache write comes before any ledger I/O so a synchronous
	// verification racing this webhook observes the freshest status even if
	// the ledger write below is slow or fails
	if err := s.statuses.Put(ctx, cache.Entry{
		ProviderChargeID: event.ChargeID,
		Status:           normalized,
		RawPayload:       event.Raw,
		ObservedAt:       time.Now(),
	}); err != nil {
		s.logger.Warn("webhook cache write failed",
			zap.String("charge_id", event.ChargeID),
			zap.Error(err),
		)
	}

	examID, err := provider.ParseAPIRef(event.APIRef)
	if err != nil {
		// acknowledged but not persisted; the provider must not retry over
		// a reference we will never be able to parse
		metrics.IncWebhook("bad_api_ref")
		s.logger.Error("webhook api_ref unparseable",
			zap.String("charge_id", event.ChargeID),
			zap.String("api_ref", event.APIRef),
		)
		return
	}

	record, err := s.ledger.FindByChargeID(ctx, event.ChargeID)
	switch {
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		// webhook won the race against the initiating request's own ledger
		// write; create the row from what the push carries
		s.createFromEvent(ctx, event, examID, normalized)
		return
	case err != nil:
		metrics.IncWebhook("ledger_error")
		s.logger.Error("webhook ledger lookup failed",
			zap.String("charge_id", event.ChargeID),
			zap.Error(err),
		)
		return
	}

	if record.Status == normalized {
		metrics.IncWebhook("no_change")
		return
	}

	wasCompleted := record.Status == model.StatusCompleted
	updated, err := applyProviderStatus(ctx, s.ledger, event.ChargeID, &provider.StatusResponse{
		Status:        normalized,
		FailureReason: event.FailedReason,
		RawPayload:    event.Raw,
	})
	if err != nil {
		metrics.IncWebhook("ledger_error")
		s.logger.Error("webhook ledger update failed",
			zap.String("charge_id", event.ChargeID),
			zap.Error(err),
		)
		return
	}
	metrics.IncWebhook("applied")

	if updated.Status == model.StatusCompleted && !wasCompleted {
		s.completion.HandleCompleted(ctx, updated)
	}
}

func (s *webhookService) createFromEvent(ctx context.Context, event WebhookEvent, examID string, status model.CanonicalStatus) {
	amount, err := decimal.NewFromString(event.Value)
	if err != nil {
		amount = decimal.Zero
	}

	record := &model.PaymentRecord{
		ProviderChargeID:   event.ChargeID,
		APIRef:             event.APIRef,
		ExamID:             examID,
		Amount:             amount,
		Currency:           event.Currency,
		PayerPhone:         event.Account,
		PaymentMethod:      "mobile_money",
		Status:             status,
		ProviderRawPayload: event.Raw,
	}
	switch status {
	case model.StatusCompleted:
		now := time.Now()
		record.CompletedAt = &now
	case model.StatusFailed, model.StatusCancelled:
		if event.FailedReason != "" {
			reason := event.FailedReason
			record.FailureReason = &reason
		}
	}

	if err := s.ledger.Create(ctx, record); err != nil {
		metrics.IncWebhook("ledger_error")
		s.logger.Error("webhook ledger create failed",
			zap.String("charge_id", event.ChargeID),
			zap.Error(err),
		)
		return
	}
	metrics.IncWebhook("created")

	if record.Status == model.StatusCompleted {
		s.completion.HandleCompleted(ctx, record)
	}
}
