package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resultpay/internal/model"
)

// ResultRepository is the record-store collaborator: the exam results a
// payment unlocks and their attachment to user accounts.
type ResultRepository interface {
	FindByExamID(ctx context.Context, examID string) (*model.ExamResult, error)
	// AttachToUser links an unlocked result to a user account. Attaching an
	// already attached result is a no-op, not an error.
	AttachToUser(ctx context.Context, examID string, userID uint) error
	FindUserByID(ctx context.Context, id uint) (*model.User, error)
}

type resultRepository struct {
	db *gorm.DB
}

// NewResultRepository creates a new result store repository.
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

// FindByExamID finds the computed result for an exam.
func (r *resultRepository) FindByExamID(ctx context.Context, examID string) (*model.ExamResult, error) {
	var result model.ExamResult
	if err := r.db.WithContext(ctx).Where("exam_id = ?", examID).First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// AttachToUser records delivery of a result to an account. The unique
// (exam_id, user_id) key makes repeated attaches no-ops.
func (r *resultRepository) AttachToUser(ctx context.Context, examID string, userID uint) error {
	delivered := model.DeliveredResult{ExamID: examID, UserID: userID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&delivered).Error
}

// FindUserByID finds a user account.
func (r *resultRepository) FindUserByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
