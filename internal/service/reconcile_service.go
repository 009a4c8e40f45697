package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"resultpay/internal/errors"
	"resultpay/internal/metrics"
	"resultpay/internal/model"
	"resultpay/internal/provider"
	"resultpay/internal/repository"
)

// SweepChange describes one ledger correction a sweep made or would make.
type SweepChange struct {
	ChargeID string                `json:"charge_id"`
	From     model.CanonicalStatus `json:"from"`
	To       model.CanonicalStatus `json:"to"`
}

// SweepReport summarizes an operator reconciliation sweep over one exam.
type SweepReport struct {
	ExamID   string        `json:"exam_id"`
	Examined int           `json:"examined"`
	Changes  []SweepChange `json:"changes"`
	DryRun   bool          `json:"dry_run"`
}

// ReconcileService resolves disagreement between the ledger and the
// provider's source of truth. Provider failures are treated as "no change":
// reconciliation never fabricates a terminal status it could not confirm.
type ReconcileService interface {
	// ReconcileByChargeID re-queries the provider for one charge and applies
	// any correction. It reports the current record and whether it changed.
	ReconcileByChargeID(ctx context.Context, chargeID string) (*model.PaymentRecord, bool, error)
	// ReconcileByExamID reconciles every pending charge for an exam
	// sequentially, stopping at the first one that completes. It returns the
	// completed record, if any.
	ReconcileByExamID(ctx context.Context, examID string) (*model.PaymentRecord, error)
	// SweepExam is the operator entry point; with dryRun it performs no
	// writes and reports what would change.
	SweepExam(ctx context.Context, examID string, dryRun bool) (*SweepReport, error)
}

type reconcileService struct {
	ledger     repository.PaymentRepository
	provider   provider.Client
	completion CompletionService
	logger     *zap.Logger
}

// NewReconcileService creates a new reconciliation engine.
func NewReconcileService(
	ledger repository.PaymentRepository,
	providerClient provider.Client,
	completion CompletionService,
	logger *zap.Logger,
) ReconcileService {
	return &reconcileService{
		ledger:     ledger,
		provider:   providerClient,
		completion: completion,
		logger:     logger,
	}
}

func (s *reconcileService) ReconcileByChargeID(ctx context.Context, chargeID string) (*model.PaymentRecord, bool, error) {
	record, err := s.ledger.FindByChargeID(ctx, chargeID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, errors.ErrPaymentNotFound
		}
		return nil, false, fmt.Errorf("%w: %v", errors.ErrLedgerUnavailable, err)
	}

	if record.Status == model.StatusCompleted {
		metrics.IncReconciliation("noop_completed")
		return record, false, nil
	}

	status, err := s.provider.QueryStatus(ctx, chargeID)
	if err != nil {
		// no change: keep the ledger's prior status and answer from it
		metrics.IncProviderRequest("query_status", "error")
		metrics.IncReconciliation("provider_error")
		s.logger.Warn("provider query failed, keeping ledger status",
			zap.String("charge_id", chargeID),
			zap.String("ledger_status", string(record.Status)),
			zap.Error(err),
		)
		return record, false, nil
	}
	metrics.IncProviderRequest("query_status", "ok")

	if status.Status == record.Status {
		metrics.IncReconciliation("in_sync")
		return record, false, nil
	}

	if record.Status.IsTerminal() {
		// first terminal observation wins; the gateway would refuse the
		// overwrite anyway, so only note the disagreement
		metrics.IncReconciliation("terminal_conflict")
		s.logger.Warn("provider disagrees with terminal ledger status",
			zap.String("charge_id", chargeID),
			zap.String("ledger_status", string(record.Status)),
			zap.String("provider_status", string(status.Status)),
		)
		return record, false, nil
	}

	updated, err := applyProviderStatus(ctx, s.ledger, record.ProviderChargeID, status)
	if err != nil {
		metrics.IncReconciliation("ledger_error")
		s.logger.Error("ledger update failed during reconciliation",
			zap.String("charge_id", chargeID),
			zap.Error(err),
		)
		return record, false, nil
	}

	metrics.IncReconciliation("corrected")
	s.logger.Info("ledger corrected from provider",
		zap.String("charge_id", chargeID),
		zap.String("from", string(record.Status)),
		zap.String("to", string(updated.Status)),
	)

	if updated.Status == model.StatusCompleted {
		s.completion.HandleCompleted(ctx, updated)
	}
	return updated, true, nil
}

// applyProviderStatus writes a provider-confirmed status to the ledger,
// stamping completed_at or failure_reason as the new status requires. The
// gateway keeps those fields first-writer-wins.
func applyProviderStatus(ctx context.Context, ledger repository.PaymentRepository, chargeID string, status *provider.StatusResponse) (*model.PaymentRecord, error) {
	update := repository.StatusUpdate{RawPayload: status.RawPayload}
	switch status.Status {
	case model.StatusCompleted:
		now := time.Now()
		update.CompletedAt = &now
	case model.StatusFailed, model.StatusCancelled:
		reason := status.FailureReason
		if reason == "" {
			reason = string(status.Status)
		}
		update.FailureReason = &reason
	}
	return ledger.UpdateStatus(ctx, chargeID, status.Status, update)
}

func (s *reconcileService) ReconcileByExamID(ctx context.Context, examID string) (*model.PaymentRecord, error) {
	records, err := s.ledger.FindByExamID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrLedgerUnavailable, err)
	}

	// one completed payment unlocks the exam; stop as soon as one does
	for i := range records {
		if records[i].Status != model.StatusPending {
			continue
		}
		updated, _, err := s.ReconcileByChargeID(ctx, records[i].ProviderChargeID)
		if err != nil {
			s.logger.Warn("skipping charge during exam reconciliation",
				zap.String("charge_id", records[i].ProviderChargeID),
				zap.Error(err),
			)
			continue
		}
		if updated.Status == model.StatusCompleted {
			return updated, nil
		}
	}
	return nil, nil
}

func (s *reconcileService) SweepExam(ctx context.Context, examID string, dryRun bool) (*SweepReport, error) {
	records, err := s.ledger.FindByExamID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrLedgerUnavailable, err)
	}

	report := &SweepReport{ExamID: examID, DryRun: dryRun}
	for i := range records {
		record := &records[i]
		if record.Status != model.StatusPending {
			continue
		}
		report.Examined++

		if dryRun {
			status, err := s.provider.QueryStatus(ctx, record.ProviderChargeID)
			if err != nil {
				metrics.IncProviderRequest("query_status", "error")
				s.logger.Warn("dry-run provider query failed",
					zap.String("charge_id", record.ProviderChargeID),
					zap.Error(err),
				)
				continue
			}
			metrics.IncProviderRequest("query_status", "ok")
			if status.Status != record.Status {
				report.Changes = append(report.Changes, SweepChange{
					ChargeID: record.ProviderChargeID,
					From:     record.Status,
					To:       status.Status,
				})
			}
			if status.Status == model.StatusCompleted {
				break
			}
			continue
		}

		before := record.Status
		updated, changed, err := s.ReconcileByChargeID(ctx, record.ProviderChargeID)
		if err != nil {
			continue
		}
		if changed {
			report.Changes = append(report.Changes, SweepChange{
				ChargeID: record.ProviderChargeID,
				From:     before,
				To:       updated.Status,
			})
		}
		if updated.Status == model.StatusCompleted {
			break
		}
	}
	return report, nil
}
