package repository

import (
	"errors"

	"github.com/MHGanainy/mvp-backend-sub001/internal/model"
	"gorm.io/gorm"
)

// ErrInsufficientCredits is returned when a conditional debit matches no row,
// i.e. the balance guard rejected the charge.
var ErrInsufficientCredits = errors.New("insufficient credit balance")

type StudentRepository interface {
	FindByID(id uint) (*model.Student, error)
	SetCredits(id uint, credits int) error
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) FindByID(id uint) (*model.Student, error) {
	var student model.Student
	if err := r.db.First(&student, id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

// SetCredits is the administrative override; it bypasses billing entirely.
func (r *studentRepository) SetCredits(id uint, credits int) error {
	res := r.db.Model(&model.Student{}).Where("id = ?", id).UpdateColumn("credit_balance", credits)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
