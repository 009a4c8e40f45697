package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CanonicalStatus is the normalized payment status vocabulary used
// internally, independent of provider-specific terminology.
type CanonicalStatus string

const (
	StatusPending   CanonicalStatus = "pending"
	StatusCompleted CanonicalStatus = "completed"
	StatusFailed    CanonicalStatus = "failed"
	StatusCancelled CanonicalStatus = "cancelled"
)

// IsTerminal reports whether no further transition is expected from s.
func (s CanonicalStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// PaymentRecord is one row in the payment ledger, one per payment attempt.
// ProviderChargeID is the join key used by every lookup path.
type PaymentRecord struct {
	ID               uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	ProviderChargeID string          `json:"provider_charge_id" gorm:"size:64;not null;uniqueIndex"`
	APIRef           string          `json:"api_ref" gorm:"size:128;not null"`
	ExamID           string          `json:"exam_id" gorm:"size:64;not null;index"`
	UserID           *uint           `json:"user_id,omitempty" gorm:"index"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	Currency         string          `json:"currency" gorm:"size:8;not null;default:'KES'"`
	PayerPhone       string          `json:"payer_phone" gorm:"size:32"`
	PayerEmail       *string         `json:"payer_email,omitempty" gorm:"size:255"`
	PaymentMethod    string          `json:"payment_method" gorm:"size:32"`
	Status           CanonicalStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	FailureReason    *string         `json:"failure_reason,omitempty" gorm:"type:text"`
	// ProviderRawPayload keeps the last payload seen, opaque, for audit only.
	ProviderRawPayload []byte     `json:"-" gorm:"type:json"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	// CompletedAt is set once, on the first transition to completed, and
	// never overwritten afterwards.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// BeforeCreate sets UUID before creating the record.
func (p *PaymentRecord) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
