package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"resultpay/internal/errors"
	"resultpay/internal/model"
	"resultpay/internal/provider"
	"resultpay/internal/repository"
)

func pendingRecord(chargeID, examID string) *model.PaymentRecord {
	return &model.PaymentRecord{
		ProviderChargeID: chargeID,
		ExamID:           examID,
		Status:           model.StatusPending,
	}
}

func newReconcileFixture() (*MockPaymentRepository, *MockProviderClient, *MockCompletionService, ReconcileService) {
	ledger := new(MockPaymentRepository)
	providerClient := new(MockProviderClient)
	completion := new(MockCompletionService)
	svc := NewReconcileService(ledger, providerClient, completion, zap.NewNop())
	return ledger, providerClient, completion, svc
}

func TestReconcileByChargeIDNoopWhenAlreadyCompleted(t *testing.T) {
	ledger, providerClient, completion, svc := newReconcileFixture()

	record := pendingRecord("X1", "E1")
	record.Status = model.StatusCompleted
	ledger.On("FindByChargeID", mock.Anything, "X1").Return(record, nil)

	got, changed, err := svc.ReconcileByChargeID(context.Background(), "X1")

	assert.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, model.StatusCompleted, got.Status)
	providerClient.AssertNotCalled(t, "QueryStatus", mock.Anything, mock.Anything)
	completion.AssertNotCalled(t, "HandleCompleted", mock.Anything, mock.Anything)
}

func TestReconcileByChargeIDAppliesProviderCompletion(t *testing.T) {
	ledger, providerClient, completion, svc := newReconcileFixture()

	record := pendingRecord("X1", "E1")
	updated := pendingRecord("X1", "E1")
	updated.Status = model.StatusCompleted

	ledger.On("FindByChargeID", mock.Anything, "X1").Return(record, nil)
	providerClient.On("QueryStatus", mock.Anything, "X1").Return(&provider.StatusResponse{
		Status: model.StatusCompleted,
	}, nil)
	ledger.On("UpdateStatus", mock.Anything, "X1", model.StatusCompleted,
		mock.MatchedBy(func(u repository.StatusUpdate) bool { return u.CompletedAt != nil }),
	).Return(updated, nil)
	completion.On("HandleCompleted", mock.Anything, updated).Return()

	got, changed, err := svc.ReconcileByChargeID(context.Background(), "X1")

	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.StatusCompleted, got.Status)
	completion.AssertNumberOfCalls(t, "HandleCompleted", 1)
}

func TestReconcileByChargeIDProviderErrorMeansNoChange(t *testing.T) {
	ledger, providerClient, completion, svc := newReconcileFixture()

	record := pendingRecord("X1", "E1")
	ledger.On("FindByChargeID", mock.Anything, "X1").Return(record, nil)
	providerClient.On("QueryStatus", mock.Anything, "X1").Return(nil, errors.ErrProviderUnavailable)

	got, changed, err := svc.ReconcileByChargeID(context.Background(), "X1")

	assert.NoError(t, err, "provider errors are swallowed, caller keeps the prior answer")
	assert.False(t, changed)
	assert.Equal(t, model.StatusPending, got.Status)
	ledger.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	completion.AssertNotCalled(t, "HandleCompleted", mock.Anything, mock.Anything)
}

func TestReconcileByChargeIDDoesNotRegressTerminalStatus(t *testing.T) {
	ledger, providerClient, _, svc := newReconcileFixture()

	record := pendingRecord("X1", "E1")
	record.Status = model.StatusFailed
	ledger.On("FindByChargeID", mock.Anything, "X1").Return(record, nil)
	providerClient.On("QueryStatus", mock.Anything, "X1").Return(&provider.StatusResponse{
		Status: model.StatusCompleted,
	}, nil)

	got, changed, err := svc.ReconcileByChargeID(context.Background(), "X1")

	assert.NoError(t, err)
	assert.False(t, changed, "first terminal observation wins")
	assert.Equal(t, model.StatusFailed, got.Status)
	ledger.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileByChargeIDUnknownCharge(t *testing.T) {
	ledger, _, _, svc := newReconcileFixture()
	ledger.On("FindByChargeID", mock.Anything, "nope").Return(nil, gorm.ErrRecordNotFound)

	_, _, err := svc.ReconcileByChargeID(context.Background(), "nope")
	assert.ErrorIs(t, err, errors.ErrPaymentNotFound)
}

func TestReconcileByExamIDStopsAtFirstCompletion(t *testing.T) {
	ledger, providerClient, completion, svc := newReconcileFixture()

	failed := *pendingRecord("X0", "E1")
	failed.Status = model.StatusFailed
	pending1 := *pendingRecord("X1", "E1")
	pending2 := *pendingRecord("X2", "E1")

	completed := pendingRecord("X1", "E1")
	completed.Status = model.StatusCompleted

	ledger.On("FindByExamID", mock.Anything, "E1").Return([]model.PaymentRecord{failed, pending1, pending2}, nil)
	ledger.On("FindByChargeID", mock.Anything, "X1").Return(&pending1, nil)
	providerClient.On("QueryStatus", mock.Anything, "X1").Return(&provider.StatusResponse{
		Status: model.StatusCompleted,
	}, nil)
	ledger.On("UpdateStatus", mock.Anything, "X1", model.StatusCompleted, mock.Anything).Return(completed, nil)
	completion.On("HandleCompleted", mock.Anything, completed).Return()

	got, err := svc.ReconcileByExamID(context.Background(), "E1")

	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, "X1", got.ProviderChargeID)
	// the failed record is untouched and X2 is never queried
	providerClient.AssertNotCalled(t, "QueryStatus", mock.Anything, "X0")
	providerClient.AssertNotCalled(t, "QueryStatus", mock.Anything, "X2")
	providerClient.AssertNumberOfCalls(t, "QueryStatus", 1)
}

func TestSweepExamDryRunPerformsNoWrites(t *testing.T) {
	ledger, providerClient, completion, svc := newReconcileFixture()

	pending := *pendingRecord("X1", "E1")
	ledger.On("FindByExamID", mock.Anything, "E1").Return([]model.PaymentRecord{pending}, nil)
	providerClient.On("QueryStatus", mock.Anything, "X1").Return(&provider.StatusResponse{
		Status: model.StatusCompleted,
	}, nil)

	report, err := svc.SweepExam(context.Background(), "E1", true)

	assert.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Examined)
	assert.Len(t, report.Changes, 1)
	assert.Equal(t, model.StatusPending, report.Changes[0].From)
	assert.Equal(t, model.StatusCompleted, report.Changes[0].To)
	ledger.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	completion.AssertNotCalled(t, "HandleCompleted", mock.Anything, mock.Anything)
}

func TestSweepExamAppliesChanges(t *testing.T) {
	ledger, providerClient, completion, svc := newReconcileFixture()

	pending := *pendingRecord("X1", "E1")
	completed := pendingRecord("X1", "E1")
	completed.Status = model.StatusCompleted

	ledger.On("FindByExamID", mock.Anything, "E1").Return([]model.PaymentRecord{pending}, nil)
	ledger.On("FindByChargeID", mock.Anything, "X1").Return(&pending, nil)
	providerClient.On("QueryStatus", mock.Anything, "X1").Return(&provider.StatusResponse{
		Status: model.StatusCompleted,
	}, nil)
	ledger.On("UpdateStatus", mock.Anything, "X1", model.StatusCompleted, mock.Anything).Return(completed, nil)
	completion.On("HandleCompleted", mock.Anything, completed).Return()

	report, err := svc.SweepExam(context.Background(), "E1", false)

	assert.NoError(t, err)
	assert.False(t, report.DryRun)
	assert.Len(t, report.Changes, 1)
	completion.AssertNumberOfCalls(t, "HandleCompleted", 1)
}
