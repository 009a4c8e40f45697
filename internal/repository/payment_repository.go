package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"resultpay/internal/model"
)

// StatusUpdate carries the optional fields of an UpdateStatus call.
// A nil field means "leave as is"; CompletedAt and FailureReason are
// additionally first-writer-wins and never overwritten once set.
type StatusUpdate struct {
	CompletedAt   *time.Time
	FailureReason *string
	RawPayload    []byte
}

// PaymentRepository is the gateway to the payment ledger. Every lookup path
// joins on the provider's charge id.
type PaymentRepository interface {
	Create(ctx context.Context, record *model.PaymentRecord) error
	FindByChargeID(ctx context.Context, chargeID string) (*model.PaymentRecord, error)
	FindByExamID(ctx context.Context, examID string) ([]model.PaymentRecord, error)
	UpdateStatus(ctx context.Context, chargeID string, status model.CanonicalStatus, update StatusUpdate) (*model.PaymentRecord, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment ledger repository.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create inserts a new payment record.
func (r *paymentRepository) Create(ctx context.Context, record *model.PaymentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByChargeID finds a payment record by provider charge id.
func (r *paymentRepository) FindByChargeID(ctx context.Context, chargeID string) (*model.PaymentRecord, error) {
	var record model.PaymentRecord
	if err := r.db.WithContext(ctx).Where("provider_charge_id = ?", chargeID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByExamID returns all payment attempts for an exam, oldest first.
func (r *paymentRepository) FindByExamID(ctx context.Context, examID string) ([]model.PaymentRecord, error) {
	var records []model.PaymentRecord
	if err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("created_at asc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateStatus applies a status transition, reading before writing so
// terminal fields stay first-writer-wins: a record never regresses out of a
// terminal status, and completed_at / failure_reason are never overwritten
// once set. The post-update record is returned.
func (r *paymentRepository) UpdateStatus(ctx context.Context, chargeID string, status model.CanonicalStatus, update StatusUpdate) (*model.PaymentRecord, error) {
	record, err := r.FindByChargeID(ctx, chargeID)
	if err != nil {
		return nil, err
	}

	if record.Status.IsTerminal() && status != record.Status {
		// first terminal observation wins; refresh the raw payload only
		if update.RawPayload != nil {
			record.ProviderRawPayload = update.RawPayload
			if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
				return nil, err
			}
		}
		return record, nil
	}

	record.Status = status
	if update.CompletedAt != nil && record.CompletedAt == nil {
		record.CompletedAt = update.CompletedAt
	}
	if update.FailureReason != nil && record.FailureReason == nil {
		record.FailureReason = update.FailureReason
	}
	if update.RawPayload != nil {
		record.ProviderRawPayload = update.RawPayload
	}

	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}
