package repository

import (
	"github.com/MHGanainy/mvp-backend-sub001/internal/model"
	"gorm.io/gorm"
)

type CaseRepository interface {
	FindByID(id uint) (*model.SimulationCase, error)
	FindByIDWithMarking(id uint) (*model.SimulationCase, error)
	FindAll() ([]model.SimulationCase, error)
}

type caseRepository struct {
	db *gorm.DB
}

func NewCaseRepository(db *gorm.DB) CaseRepository {
	return &caseRepository{db: db}
}

func (r *caseRepository) FindByID(id uint) (*model.SimulationCase, error) {
	var c model.SimulationCase
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByIDWithMarking loads everything the assessment engine grounds on:
// prep materials plus domains and criteria in display order.
func (r *caseRepository) FindByIDWithMarking(id uint) (*model.SimulationCase, error) {
	var c model.SimulationCase
	err := r.db.
		Preload("PrepMaterials", func(db *gorm.DB) *gorm.DB {
			return db.Order("prep_materials.category, prep_materials.display_order")
		}).
		Preload("MarkingDomains", func(db *gorm.DB) *gorm.DB {
			return db.Order("marking_domains.display_order")
		}).
		Preload("MarkingDomains.Criteria", func(db *gorm.DB) *gorm.DB {
			return db.Order("marking_criteria.display_order")
		}).
		First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepository) FindAll() ([]model.SimulationCase, error) {
	var cases []model.SimulationCase
	if err := r.db.Order("id").Find(&cases).Error; err != nil {
		return nil, err
	}
	return cases, nil
}
