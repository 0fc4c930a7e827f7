package service

import (
	"errors"

	"github.com/MHGanainy/mvp-backend-sub001/internal/dto"
	"github.com/MHGanainy/mvp-backend-sub001/internal/model"
	"github.com/MHGanainy/mvp-backend-sub001/internal/repository"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CaseService serves the read-only case catalog: summaries for browsing and
// the full view with prep materials and the marking scheme.
type CaseService interface {
	GetAllCases() ([]dto.CaseSummaryResponse, error)
	GetCase(caseID uint) (*dto.CaseResponse, error)
}

type caseService struct {
	caseRepo repository.CaseRepository
}

func NewCaseService(caseRepo repository.CaseRepository) CaseService {
	return &caseService{caseRepo: caseRepo}
}

func (s *caseService) GetAllCases() ([]dto.CaseSummaryResponse, error) {
	cases, err := s.caseRepo.FindAll()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list simulation cases")
		return nil, err
	}

	summaries := make([]dto.CaseSummaryResponse, 0, len(cases))
	for i := range cases {
		var summary dto.CaseSummaryResponse
		copier.Copy(&summary, &cases[i])
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *caseService) GetCase(caseID uint) (*dto.CaseResponse, error) {
	simCase, err := s.caseRepo.FindByIDWithMarking(caseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		log.Error().Err(err).Uint("caseID", caseID).Msg("Failed to load simulation case")
		return nil, err
	}

	var resp dto.CaseResponse
	copier.Copy(&resp, simCase)
	resp.PrepMaterials = groupPrepMaterials(simCase.PrepMaterials)
	resp.MarkingDomains = mapMarkingDomains(simCase.MarkingDomains)
	return &resp, nil
}

// groupPrepMaterials preserves the repository's display order while grouping
// consecutive materials of the same category together.
func groupPrepMaterials(materials []model.PrepMaterial) []dto.PrepMaterialGroup {
	groups := make([]dto.PrepMaterialGroup, 0)
	index := make(map[string]int)
	for _, m := range materials {
		i, ok := index[m.Category]
		if !ok {
			groups = append(groups, dto.PrepMaterialGroup{Category: m.Category})
			i = len(groups) - 1
			index[m.Category] = i
		}
		groups[i].Items = append(groups[i].Items, m.Text)
	}
	return groups
}

func mapMarkingDomains(domains []model.MarkingDomain) []dto.MarkingDomainResponse {
	resp := make([]dto.MarkingDomainResponse, 0, len(domains))
	for _, d := range domains {
		criteria := make([]dto.MarkingCriterionResponse, 0, len(d.Criteria))
		for _, crit := range d.Criteria {
			criteria = append(criteria, dto.MarkingCriterionResponse{
				ID:           crit.ID,
				Text:         crit.Text,
				Points:       crit.Points,
				DisplayOrder: crit.DisplayOrder,
			})
		}
		resp = append(resp, dto.MarkingDomainResponse{
			ID:           d.ID,
			Name:         d.Name,
			DisplayOrder: d.DisplayOrder,
			Criteria:     criteria,
		})
	}
	return resp
}
