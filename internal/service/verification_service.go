package service

import (
	"context"
	stderrors "errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"resultpay/internal/cache"
	"resultpay/internal/errors"
	"resultpay/internal/metrics"
	"resultpay/internal/model"
	"resultpay/internal/provider"
	"resultpay/internal/repository"
)

// Verification sources, recorded for observability: which pathway produced
// the answer.
const (
	SourceDatabase       = "database"
	SourceWebhookCache   = "webhook_cache"
	SourceProviderDirect = "provider_direct"
)

// VerifyInput identifies the payment to verify. Exactly one of ExamID and
// ChargeID must be set. UserID, when present, constrains which completed
// record counts as valid for this caller.
type VerifyInput struct {
	ExamID       string
	ChargeID     string
	ForceRefresh bool
	UserID       *uint
}

// VerificationResult is the ephemeral answer to "is this payment valid for
// unlocking this exam". It is never persisted.
type VerificationResult struct {
	IsValid         bool                 `json:"is_valid"`
	HasValidPayment bool                 `json:"has_valid_payment"`
	Message         string               `json:"message"`
	MatchedRecord   *model.PaymentRecord `json:"matched_record,omitempty"`
	Source          string               `json:"source"`
}

// VerificationService answers unlock decisions. It never raises internal
// errors to its caller; provider and ledger failures fold into a result
// with IsValid=false. The only returned error is input validation.
type VerificationService interface {
	Verify(ctx context.Context, in VerifyInput) (*VerificationResult, error)
	// CheckLedgerOnly answers strictly from the ledger, with no provider or
	// cache fallback.
	CheckLedgerOnly(ctx context.Context, in VerifyInput) (*VerificationResult, error)
}

type verificationService struct {
	ledger     repository.PaymentRepository
	statuses   cache.StatusCache
	provider   provider.Client
	reconciler ReconcileService
	completion CompletionService
	logger     *zap.Logger
}

// NewVerificationService creates a new verification service.
func NewVerificationService(
	ledger repository.PaymentRepository,
	statuses cache.StatusCache,
	providerClient provider.Client,
	reconciler ReconcileService,
	completion CompletionService,
	logger *zap.Logger,
) VerificationService {
	return &verificationService{
		ledger:     ledger,
		statuses:   statuses,
		provider:   providerClient,
		reconciler: reconciler,
		completion: completion,
		logger:     logger,
	}
}

func validateVerifyInput(in VerifyInput) error {
	if in.ExamID == "" && in.ChargeID == "" {
		return errors.ErrMissingIdentifier
	}
	if in.ExamID != "" && in.ChargeID != "" {
		return errors.ErrAmbiguousIdentifier
	}
	return nil
}

func (s *verificationService) Verify(ctx context.Context, in VerifyInput) (*VerificationResult, error) {
	if err := validateVerifyInput(in); err != nil {
		return nil, err
	}

	var result *VerificationResult
	if in.ForceRefresh {
		result = s.verifyProviderFirst(ctx, in)
	} else {
		result = s.verifyLedgerFirst(ctx, in)
	}
	metrics.IncVerification(result.Source, result.IsValid)
	return result, nil
}

func (s *verificationService) CheckLedgerOnly(ctx context.Context, in VerifyInput) (*VerificationResult, error) {
	if err := validateVerifyInput(in); err != nil {
		return nil, err
	}
	records, err := s.loadRecords(ctx, in)
	if err != nil {
		return s.couldNotVerify(err), nil
	}
	result := s.answerFrom(records, in, SourceDatabase)
	metrics.IncVerification(result.Source, result.IsValid)
	return result, nil
}

// verifyLedgerFirst is the normal path: ledger, then webhook cache, then
// reconciliation against the provider.
func (s *verificationService) verifyLedgerFirst(ctx context.Context, in VerifyInput) *VerificationResult {
	records, err := s.loadRecords(ctx, in)
	if err != nil {
		return s.couldNotVerify(err)
	}

	// ledger-first short-circuit: an already completed record answers
	// without any provider call
	if match := pickCompleted(records, in.UserID); match != nil {
		return s.answerFrom(records, in, SourceDatabase)
	}

	// webhook cache fast path: a racing webhook may have observed a
	// terminal status the ledger write has not landed yet
	if updated, ok := s.applyCachedStatuses(ctx, records); ok && updated.Status == model.StatusCompleted {
		if userMatches(updated, in.UserID) {
			return &VerificationResult{
				IsValid:         true,
				HasValidPayment: true,
				Message:         completionMessage(updated),
				MatchedRecord:   updated,
				Source:          SourceWebhookCache,
			}
		}
	}

	// reconcile against the provider, then answer from the refreshed ledger
	changed := false
	if in.ChargeID != "" {
		_, chargeChanged, err := s.reconciler.ReconcileByChargeID(ctx, in.ChargeID)
		if err != nil && !stderrors.Is(err, errors.ErrPaymentNotFound) {
			return s.couldNotVerify(err)
		}
		changed = chargeChanged
	} else {
		completed, err := s.reconciler.ReconcileByExamID(ctx, in.ExamID)
		if err != nil {
			return s.couldNotVerify(err)
		}
		changed = completed != nil
	}

	records, err = s.loadRecords(ctx, in)
	if err != nil {
		return s.couldNotVerify(err)
	}
	source := SourceDatabase
	if changed {
		source = SourceProviderDirect
	}
	return s.answerFrom(records, in, source)
}

// verifyProviderFirst is the forceRefresh path: every known charge is
// re-queried at the provider even if the ledger already says completed.
// Used when the user claims payment succeeded but the ledger disagrees.
func (s *verificationService) verifyProviderFirst(ctx context.Context, in VerifyInput) *VerificationResult {
	records, err := s.loadRecords(ctx, in)
	if err != nil {
		return s.couldNotVerify(err)
	}

	for i := range records {
		record := &records[i]
		status, err := s.provider.QueryStatus(ctx, record.ProviderChargeID)
		if err != nil {
			metrics.IncProviderRequest("query_status", "error")
			s.logger.Warn("force refresh provider query failed",
				zap.String("charge_id", record.ProviderChargeID),
				zap.Error(err),
			)
			continue
		}
		metrics.IncProviderRequest("query_status", "ok")

		if status.Status != record.Status && !record.Status.IsTerminal() {
			updated, err := applyProviderStatus(ctx, s.ledger, record.ProviderChargeID, status)
			if err != nil {
				s.logger.Error("ledger update failed during force refresh",
					zap.String("charge_id", record.ProviderChargeID),
					zap.Error(err),
				)
				continue
			}
			if updated.Status == model.StatusCompleted {
				s.completion.HandleCompleted(ctx, updated)
			}
		}
		// one confirmed completion unlocks the exam; stop querying
		if status.Status == model.StatusCompleted {
			break
		}
	}

	records, err = s.loadRecords(ctx, in)
	if err != nil {
		return s.couldNotVerify(err)
	}
	return s.answerFrom(records, in, SourceProviderDirect)
}

// applyCachedStatuses folds webhook-cache observations into the ledger. It
// returns the first record that became completed, if any.
func (s *verificationService) applyCachedStatuses(ctx context.Context, records []model.PaymentRecord) (*model.PaymentRecord, bool) {
	for i := range records {
		record := &records[i]
		if record.Status.IsTerminal() {
			continue
		}
		entry, ok := s.statuses.Get(ctx, record.ProviderChargeID)
		if !ok || entry.Status == record.Status {
			continue
		}
		updated, err := applyProviderStatus(ctx, s.ledger, record.ProviderChargeID, &provider.StatusResponse{
			Status:     entry.Status,
			RawPayload: entry.RawPayload,
		})
		if err != nil {
			s.logger.Error("ledger update from webhook cache failed",
				zap.String("charge_id", record.ProviderChargeID),
				zap.Error(err),
			)
			continue
		}
		if updated.Status == model.StatusCompleted {
			s.completion.HandleCompleted(ctx, updated)
			return updated, true
		}
	}
	return nil, false
}

func (s *verificationService) loadRecords(ctx context.Context, in VerifyInput) ([]model.PaymentRecord, error) {
	if in.ChargeID != "" {
		record, err := s.ledger.FindByChargeID(ctx, in.ChargeID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return []model.PaymentRecord{*record}, nil
	}
	return s.ledger.FindByExamID(ctx, in.ExamID)
}

func (s *verificationService) couldNotVerify(err error) *VerificationResult {
	s.logger.Error("verification failed", zap.Error(err))
	return &VerificationResult{
		IsValid: false,
		Message: "could not verify payment, please try again later",
		Source:  SourceDatabase,
	}
}

// answerFrom composes the final result from current ledger state.
func (s *verificationService) answerFrom(records []model.PaymentRecord, in VerifyInput, source string) *VerificationResult {
	if len(records) == 0 {
		return &VerificationResult{
			IsValid: false,
			Message: "no payment found",
			Source:  source,
		}
	}

	if match := pickCompleted(records, in.UserID); match != nil {
		return &VerificationResult{
			IsValid:         true,
			HasValidPayment: true,
			Message:         completionMessage(match),
			MatchedRecord:   match,
			Source:          source,
		}
	}

	// a completed record may exist that is bound to a different account
	if completed := pickCompleted(records, nil); completed != nil {
		return &VerificationResult{
			IsValid:         false,
			HasValidPayment: true,
			Message:         "payment is completed but belongs to a different account",
			MatchedRecord:   completed,
			Source:          source,
		}
	}

	latest := &records[len(records)-1]
	return &VerificationResult{
		IsValid:       false,
		Message:       statusMessage(latest),
		MatchedRecord: latest,
		Source:        source,
	}
}

// pickCompleted returns the first completed record acceptable for the given
// user, if any. Records arrive ordered by creation time, so the earliest
// completion wins.
func pickCompleted(records []model.PaymentRecord, userID *uint) *model.PaymentRecord {
	for i := range records {
		if records[i].Status != model.StatusCompleted {
			continue
		}
		if userID == nil || userMatches(&records[i], userID) {
			return &records[i]
		}
	}
	return nil
}

func userMatches(record *model.PaymentRecord, userID *uint) bool {
	if userID == nil || record.UserID == nil {
		return true
	}
	return *record.UserID == *userID
}

func completionMessage(record *model.PaymentRecord) string {
	return "payment completed, result unlocked"
}

func statusMessage(record *model.PaymentRecord) string {
	switch record.Status {
	case model.StatusPending:
		return "payment is still processing, please try again shortly"
	case model.StatusFailed:
		if record.FailureReason != nil && *record.FailureReason != "" {
			return "payment failed: " + *record.FailureReason
		}
		return "payment failed"
	case model.StatusCancelled:
		return "payment was cancelled"
	default:
		return "payment status unknown"
	}
}
