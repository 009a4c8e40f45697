package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"resultpay/internal/model"
	"resultpay/internal/notify"
)

func completedPayment(userID *uint, email *string) *model.PaymentRecord {
	return &model.PaymentRecord{
		ProviderChargeID: "X1",
		ExamID:           "E1",
		UserID:           userID,
		PayerEmail:       email,
		Status:           model.StatusCompleted,
	}
}

func newCompletionFixture() (*MockResultRepository, *MockRenderer, *MockNotifier, CompletionService) {
	results := new(MockResultRepository)
	renderer := new(MockRenderer)
	notifier := new(MockNotifier)
	svc := NewCompletionService(results, renderer, notifier, zap.NewNop())
	return results, renderer, notifier, svc
}

func TestHandleCompletedMissingResultIsNotAnError(t *testing.T) {
	results, _, notifier, svc := newCompletionFixture()

	results.On("FindByExamID", mock.Anything, "E1").Return(nil, gorm.ErrRecordNotFound)

	email := "payer@example.com"
	svc.HandleCompleted(context.Background(), completedPayment(nil, &email))

	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	results.AssertNotCalled(t, "AttachToUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleCompletedAttachesAndNotifies(t *testing.T) {
	results, renderer, notifier, svc := newCompletionFixture()

	result := &model.ExamResult{ExamID: "E1", CandidateName: "Jane"}
	results.On("FindByExamID", mock.Anything, "E1").Return(result, nil)
	results.On("AttachToUser", mock.Anything, "E1", uint(7)).Return(nil)
	renderer.On("RenderDocument", result).Return([]byte("sheet"), nil)
	notifier.On("Notify", mock.Anything, "payer@example.com", notify.TemplateReceipt, mock.Anything).Return(nil)
	notifier.On("Notify", mock.Anything, "payer@example.com", notify.TemplateResultCopy, mock.Anything).Return(nil)

	userID := uint(7)
	email := "payer@example.com"
	svc.HandleCompleted(context.Background(), completedPayment(&userID, &email))

	results.AssertCalled(t, "AttachToUser", mock.Anything, "E1", uint(7))
	notifier.AssertNumberOfCalls(t, "Notify", 2)
}

func TestHandleCompletedAnonymousPayerSkipsAttach(t *testing.T) {
	results, renderer, notifier, svc := newCompletionFixture()

	result := &model.ExamResult{ExamID: "E1"}
	results.On("FindByExamID", mock.Anything, "E1").Return(result, nil)
	renderer.On("RenderDocument", result).Return([]byte("sheet"), nil)
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	email := "payer@example.com"
	svc.HandleCompleted(context.Background(), completedPayment(nil, &email))

	results.AssertNotCalled(t, "AttachToUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleCompletedNoEmailSkipsNotifications(t *testing.T) {
	results, _, notifier, svc := newCompletionFixture()

	result := &model.ExamResult{ExamID: "E1"}
	results.On("FindByExamID", mock.Anything, "E1").Return(result, nil)
	results.On("AttachToUser", mock.Anything, "E1", uint(7)).Return(nil)

	userID := uint(7)
	svc.HandleCompleted(context.Background(), completedPayment(&userID, nil))

	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleCompletedNotifierFailureIsSwallowed(t *testing.T) {
	results, renderer, notifier, svc := newCompletionFixture()

	result := &model.ExamResult{ExamID: "E1"}
	results.On("FindByExamID", mock.Anything, "E1").Return(result, nil)
	renderer.On("RenderDocument", result).Return([]byte("sheet"), nil)
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp down"))

	email := "payer@example.com"
	// must not panic or propagate; completion is never undone by delivery
	svc.HandleCompleted(context.Background(), completedPayment(nil, &email))

	notifier.AssertNumberOfCalls(t, "Notify", 2)
}

func TestHandleCompletedAttachConflictTolerated(t *testing.T) {
	results, renderer, notifier, svc := newCompletionFixture()

	result := &model.ExamResult{ExamID: "E1"}
	results.On("FindByExamID", mock.Anything, "E1").Return(result, nil)
	results.On("AttachToUser", mock.Anything, "E1", uint(7)).Return(gorm.ErrDuplicatedKey)
	renderer.On("RenderDocument", result).Return([]byte("sheet"), nil)
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	userID := uint(7)
	email := "payer@example.com"
	svc.HandleCompleted(context.Background(), completedPayment(&userID, &email))

	// delivery continues despite the duplicate attach
	notifier.AssertNumberOfCalls(t, "Notify", 2)
}
