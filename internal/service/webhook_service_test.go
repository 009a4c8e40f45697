package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"resultpay/internal/cache"
	"resultpay/internal/model"
	"resultpay/internal/repository"
)

func newWebhookFixture() (*MockPaymentRepository, *MockStatusCache, *MockCompletionService, WebhookService) {
	ledger := new(MockPaymentRepository)
	statuses := new(MockStatusCache)
	completion := new(MockCompletionService)
	svc := NewWebhookService(ledger, statuses, completion, zap.NewNop())
	return ledger, statuses, completion, svc
}

func completionEvent() WebhookEvent {
	return WebhookEvent{
		ChargeID:    "X1",
		StatusToken: "COMPLETE",
		APIRef:      "exam_E1_1723456789012",
		Value:       "50.00",
		Currency:    "KES",
		Account:     "254700000000",
		Raw:         []byte(`{"invoice_id":"X1","state":"COMPLETE"}`),
	}
}

func TestProcessEventFreshCompletion(t *testing.T) {
	ledger, statuses, completion, svc := newWebhookFixture()

	pending := pendingRecord("X1", "E1")
	completed := pendingRecord("X1", "E1")
	completed.Status = model.StatusCompleted

	statuses.On("Put", mock.Anything, mock.MatchedBy(func(e cache.Entry) bool {
		return e.ProviderChargeID == "X1" && e.Status == model.StatusCompleted
	})).Return(nil)
	ledger.On("FindByChargeID", mock.Anything, "X1").Return(pending, nil)
	ledger.On("UpdateStatus", mock.Anything, "X1", model.StatusCompleted,
		mock.MatchedBy(func(u repository.StatusUpdate) bool { return u.CompletedAt != nil }),
	).Return(completed, nil)
	completion.On("HandleCompleted", mock.Anything, completed).Return()

	svc.ProcessEvent(context.Background(), completionEvent())

	completion.AssertNumberOfCalls(t, "HandleCompleted", 1)
}

func TestProcessEventDuplicateDeliveryIsNoop(t *testing.T) {
	ledger, statuses, completion, svc := newWebhookFixture()

	already := pendingRecord("X1", "E1")
	already.Status = model.StatusCompleted
	now := time.Now()
	already.CompletedAt = &now

	statuses.On("Put", mock.Anything, mock.Anything).Return(nil)
	ledger.On("FindByChargeID", mock.Anything, "X1").Return(already, nil)

	svc.ProcessEvent(context.Background(), completionEvent())

	// second identical delivery neither rewrites the ledger nor re-delivers
	ledger.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	completion.AssertNotCalled(t, "HandleCompleted", mock.Anything, mock.Anything)
}

func TestProcessEventBadAPIRefStillCaches(t *testing.T) {
	ledger, statuses, completion, svc := newWebhookFixture()

	statuses.On("Put", mock.Anything, mock.Anything).Return(nil)

	event := completionEvent()
	event.APIRef = "garbage"
	svc.ProcessEvent(context.Background(), event)

	// the cache write happens before and regardless of api_ref parsing
	statuses.AssertNumberOfCalls(t, "Put", 1)
	ledger.AssertNotCalled(t, "FindByChargeID", mock.Anything, mock.Anything)
	completion.AssertNotCalled(t, "HandleCompleted", mock.Anything, mock.Anything)
}

func TestProcessEventCreatesRecordWhenWebhookWinsRace(t *testing.T) {
	ledger, statuses, completion, svc := newWebhookFixture()

	statuses.On("Put", mock.Anything, mock.Anything).Return(nil)
	ledger.On("FindByChargeID", mock.Anything, "X1").Return(nil, gorm.ErrRecordNotFound)
	ledger.On("Create", mock.Anything, mock.MatchedBy(func(r *model.PaymentRecord) bool {
		return r.ProviderChargeID == "X1" &&
			r.ExamID == "E1" &&
			r.Status == model.StatusCompleted &&
			r.CompletedAt != nil
	})).Return(nil)
	completion.On("HandleCompleted", mock.Anything, mock.Anything).Return()

	svc.ProcessEvent(context.Background(), completionEvent())

	completion.AssertNumberOfCalls(t, "HandleCompleted", 1)
}

func TestProcessEventLedgerFailureIsSwallowed(t *testing.T) {
	ledger, statuses, completion, svc := newWebhookFixture()

	statuses.On("Put", mock.Anything, mock.Anything).Return(nil)
	ledger.On("FindByChargeID", mock.Anything, "X1").Return(nil, errors.New("ledger down"))

	// must not panic: the handler acknowledges the provider regardless
	svc.ProcessEvent(context.Background(), completionEvent())

	completion.AssertNotCalled(t, "HandleCompleted", mock.Anything, mock.Anything)
}

func TestProcessEventFailureCarriesReason(t *testing.T) {
	ledger, statuses, completion, svc := newWebhookFixture()

	pending := pendingRecord("X1", "E1")
	failed := pendingRecord("X1", "E1")
	failed.Status = model.StatusFailed

	statuses.On("Put", mock.Anything, mock.Anything).Return(nil)
	ledger.On("FindByChargeID", mock.Anything, "X1").Return(pending, nil)
	ledger.On("UpdateStatus", mock.Anything, "X1", model.StatusFailed,
		mock.MatchedBy(func(u repository.StatusUpdate) bool {
			return u.FailureReason != nil && *u.FailureReason == "insufficient funds" && u.CompletedAt == nil
		}),
	).Return(failed, nil)

	event := completionEvent()
	event.StatusToken = "FAILED"
	event.FailedReason = "insufficient funds"
	svc.ProcessEvent(context.Background(), event)

	completion.AssertNotCalled(t, "HandleCompleted", mock.Anything, mock.Anything)
}
