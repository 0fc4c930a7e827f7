package repository

import (
	"github.com/MHGanainy/mvp-backend-sub001/internal/dto"
	"github.com/MHGanainy/mvp-backend-sub001/internal/model"
	"gorm.io/gorm"
)

type AttemptRepository interface {
	// CreateBilled creates the attempt row and, when debit > 0, debits the
	// student's balance in the same transaction. The debit is guarded so the
	// balance can never go negative.
	CreateBilled(attempt *model.Attempt, debit int) error
	// DeleteWithRefund deletes the attempt and, when refund > 0, credits the
	// student's balance in the same transaction.
	DeleteWithRefund(attempt *model.Attempt, refund int) error
	Update(attempt *model.Attempt) error
	FindByID(id uint) (*model.Attempt, error)
	FindByIDWithCase(id uint) (*model.Attempt, error)
	FindByCorrelationToken(token string) (*model.Attempt, error)
	FindAll(q dto.ListAttemptsQuery) ([]model.Attempt, error)
	// GetRawTranscript re-reads only the transcript column; the voice agent
	// writes it out-of-band, so the poll loop needs a fresh read each try.
	GetRawTranscript(id uint) (*string, error)
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) CreateBilled(attempt *model.Attempt, debit int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if debit > 0 {
			res := tx.Model(&model.Student{}).
				Where("id = ? AND credit_balance >= ?", attempt.StudentID, debit).
				UpdateColumn("credit_balance", gorm.Expr("credit_balance - ?", debit))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInsufficientCredits
			}
		}
		return tx.Create(attempt).Error
	})
}

func (r *attemptRepository) DeleteWithRefund(attempt *model.Attempt, refund int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if refund > 0 {
			res := tx.Model(&model.Student{}).
				Where("id = ?", attempt.StudentID).
				UpdateColumn("credit_balance", gorm.Expr("credit_balance + ?", refund))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return tx.Delete(attempt).Error
	})
}

func (r *attemptRepository) Update(attempt *model.Attempt) error {
	return r.db.Save(attempt).Error
}

func (r *attemptRepository) FindByID(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	if err := r.db.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByIDWithCase(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.db.
		Preload("Case").
		Preload("Case.PrepMaterials", func(db *gorm.DB) *gorm.DB {
			return db.Order("prep_materials.category, prep_materials.display_order")
		}).
		Preload("Case.MarkingDomains", func(db *gorm.DB) *gorm.DB {
			return db.Order("marking_domains.display_order")
		}).
		Preload("Case.MarkingDomains.Criteria", func(db *gorm.DB) *gorm.DB {
			return db.Order("marking_criteria.display_order")
		}).
		First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByCorrelationToken(token string) (*model.Attempt, error) {
	var attempt model.Attempt
	if err := r.db.Where("correlation_token = ?", token).First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindAll(q dto.ListAttemptsQuery) ([]model.Attempt, error) {
	query := r.db.Preload("Case")
	if q.StudentID != nil {
		query = query.Where("student_id = ?", *q.StudentID)
	}
	if q.CaseID != nil {
		query = query.Where("case_id = ?", *q.CaseID)
	}
	if q.CorrelationToken != nil {
		query = query.Where("correlation_token = ?", *q.CorrelationToken)
	}
	if q.Completed != nil {
		query = query.Where("completed = ?", *q.Completed)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	var attempts []model.Attempt
	err := query.Order("started_at DESC").Limit(limit).Offset(q.Offset).Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) GetRawTranscript(id uint) (*string, error) {
	var row struct {
		RawTranscript *string
	}
	err := r.db.Model(&model.Attempt{}).Select("raw_transcript").Where("id = ?", id).Take(&row).Error
	if err != nil {
		return nil, err
	}
	return row.RawTranscript, nil
}
