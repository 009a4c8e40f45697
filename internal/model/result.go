package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExamResult is a previously computed record that a payment unlocks.
type ExamResult struct {
	ID            uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	ExamID        string    `json:"exam_id" gorm:"size:64;not null;uniqueIndex"`
	CandidateName string    `json:"candidate_name" gorm:"size:255;not null"`
	Series        string    `json:"series" gorm:"size:64"`
	// Data is the computed result sheet content, opaque to the core.
	Data      []byte    `json:"-" gorm:"type:json"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (r *ExamResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// DeliveredResult records that an unlocked result has been attached to a
// user account. The (exam_id, user_id) pair is unique so a repeated attach
// is a no-op rather than a duplicate.
type DeliveredResult struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	ExamID      string    `json:"exam_id" gorm:"size:64;not null;uniqueIndex:idx_delivered_exam_user"`
	UserID      uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_delivered_exam_user"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// BeforeCreate sets UUID before creating the record.
func (d *DeliveredResult) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.DeliveredAt.IsZero() {
		d.DeliveredAt = time.Now()
	}
	return nil
}
