package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"resultpay/internal/metrics"
	"resultpay/internal/model"
	"resultpay/internal/notify"
	"resultpay/internal/render"
	"resultpay/internal/repository"
)

// CompletionService runs the delivery side effects for a payment that has
// just reached completed: attach the unlocked result to the payer's account
// and send a receipt plus a copy of the result. It is safe to invoke more
// than once for the same payment; each sub-step is idempotent at the level
// its collaborator provides, and none of its failures are propagated into
// payment state.
type CompletionService interface {
	HandleCompleted(ctx context.Context, record *model.PaymentRecord)
}

type completionService struct {
	results  repository.ResultRepository
	renderer render.Renderer
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewCompletionService creates a new completion handler.
func NewCompletionService(
	results repository.ResultRepository,
	renderer render.Renderer,
	notifier notify.Notifier,
	logger *zap.Logger,
) CompletionService {
	return &completionService{
		results:  results,
		renderer: renderer,
		notifier: notifier,
		logger:   logger,
	}
}

// HandleCompleted delivers the unlocked result for a completed payment.
func (s *completionService) HandleCompleted(ctx context.Context, record *model.PaymentRecord) {
	metrics.CompletionsTotal.Inc()

	result, err := s.results.FindByExamID(ctx, record.ExamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("completed payment has no result to deliver",
				zap.String("exam_id", record.ExamID),
				zap.String("charge_id", record.ProviderChargeID),
			)
			return
		}
		s.logger.Error("result store lookup failed",
			zap.String("exam_id", record.ExamID),
			zap.Error(err),
		)
		return
	}

	if record.UserID != nil {
		if err := s.results.AttachToUser(ctx, record.ExamID, *record.UserID); err != nil {
			s.logger.Error("attach result to account failed",
				zap.String("exam_id", record.ExamID),
				zap.Uint("user_id", *record.UserID),
				zap.Error(err),
			)
		}
	}

	if record.PayerEmail == nil || *record.PayerEmail == "" {
		return
	}
	s.sendNotifications(ctx, record, result)
}

func (s *completionService) sendNotifications(ctx context.Context, record *model.PaymentRecord, result *model.ExamResult) {
	email := *record.PayerEmail

	receipt := notify.Payload{
		Subject: fmt.Sprintf("Payment received for exam %s", record.ExamID),
		Body: fmt.Sprintf("Your payment of %s %s (ref %s) was received. Your result is now unlocked.",
			record.Currency, record.Amount.StringFixed(2), record.ProviderChargeID),
	}
	if err := s.notifier.Notify(ctx, email, notify.TemplateReceipt, receipt); err != nil {
		s.logger.Error("receipt notification failed",
			zap.String("charge_id", record.ProviderChargeID),
			zap.Error(err),
		)
	}

	document, err := s.renderer.RenderDocument(result)
	if err != nil {
		s.logger.Error("result render failed",
			zap.String("exam_id", record.ExamID),
			zap.Error(err),
		)
		return
	}
	copyPayload := notify.Payload{
		Subject:    fmt.Sprintf("Your result for exam %s", record.ExamID),
		Body:       "Your exam result is attached below.",
		Attachment: document,
	}
	if err := s.notifier.Notify(ctx, email, notify.TemplateResultCopy, copyPayload); err != nil {
		s.logger.Error("result copy notification failed",
			zap.String("charge_id", record.ProviderChargeID),
			zap.Error(err),
		)
	}
}
