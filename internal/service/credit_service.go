package service

import (
	"errors"

	"github.com/MHGanainy/mvp-backend-sub001/config"
	"github.com/MHGanainy/mvp-backend-sub001/internal/dto"
	"github.com/MHGanainy/mvp-backend-sub001/internal/model"
	"github.com/MHGanainy/mvp-backend-sub001/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Billing modes.
const (
	BillingUpfront = "upfront"
	BillingMetered = "metered"
)

// CreditService owns the billing rules around attempts. The privileged flag is
// resolved once per request by the auth middleware and threaded in explicitly;
// privileged callers bypass every check and are billed nothing.
type CreditService interface {
	GetBalance(studentID uint, privileged bool) (*dto.CreditBalanceResponse, error)
	SetCredits(studentID uint, credits int) (*dto.CreditBalanceResponse, error)
	// VerifyEligibility checks that the student may start an attempt at the
	// given case under the configured billing mode.
	VerifyEligibility(student *model.Student, c *model.SimulationCase, privileged bool) error
	// DebitAmount is what attempt creation must charge atomically with the row
	// insert. Zero under metered billing and for privileged callers.
	DebitAmount(c *model.SimulationCase, privileged bool) int
	// RefundAmount is what attempt deletion must restore atomically with the
	// row delete. Non-zero only for incomplete attempts charged upfront by
	// non-privileged callers.
	RefundAmount(attempt *model.Attempt, c *model.SimulationCase, privileged bool) int
}

type creditService struct {
	studentRepo repository.StudentRepository
	billingMode string
}

func NewCreditService(studentRepo repository.StudentRepository, cfg *config.Config) CreditService {
	mode := cfg.Billing.Mode
	if mode != BillingUpfront && mode != BillingMetered {
		log.Warn().Str("mode", mode).Msg("Unknown billing mode, falling back to upfront")
		mode = BillingUpfront
	}
	return &creditService{studentRepo: studentRepo, billingMode: mode}
}

func (s *creditService) GetBalance(studentID uint, privileged bool) (*dto.CreditBalanceResponse, error) {
	student, err := s.studentRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return &dto.CreditBalanceResponse{
		StudentID: student.ID,
		Credits:   student.CreditBalance,
		Unlimited: privileged,
	}, nil
}

func (s *creditService) SetCredits(studentID uint, credits int) (*dto.CreditBalanceResponse, error) {
	if err := s.studentRepo.SetCredits(studentID, credits); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	log.Info().Uint("studentID", studentID).Int("credits", credits).Msg("Credit balance set by administrative override")
	return &dto.CreditBalanceResponse{StudentID: studentID, Credits: credits}, nil
}

func (s *creditService) VerifyEligibility(student *model.Student, c *model.SimulationCase, privileged bool) error {
	if privileged {
		return nil
	}
	switch s.billingMode {
	case BillingMetered:
		// Metered charging happens out-of-band; attempt creation only needs
		// evidence of a live balance.
		if student.CreditBalance < 1 {
			return ErrInsufficientCredits
		}
	default:
		if student.CreditBalance < c.CreditCost {
			return ErrInsufficientCredits
		}
	}
	return nil
}

func (s *creditService) DebitAmount(c *model.SimulationCase, privileged bool) int {
	if privileged || s.billingMode != BillingUpfront {
		return 0
	}
	return c.CreditCost
}

func (s *creditService) RefundAmount(attempt *model.Attempt, c *model.SimulationCase, privileged bool) int {
	if attempt.Completed || privileged || s.billingMode != BillingUpfront {
		return 0
	}
	return c.CreditCost
}
