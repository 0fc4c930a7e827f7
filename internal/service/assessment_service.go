package service

import (
	"context"
	"math"

	"github.com/MHGanainy/mvp-backend-sub001/internal/dto"
	"github.com/MHGanainy/mvp-backend-sub001/internal/model"
	"github.com/rs/zerolog/log"
)

const maxQuotesPerCriterion = 3

const fallbackFeedback = "Automated assessment could not be generated for this attempt. " +
	"The session was recorded and completed normally; please review the transcript manually or contact support."

// AssessmentService drives one completion call against the case's marking
// scheme and turns the response into a structured, aggregated assessment.
// It never fails: when the model call or parse goes wrong it returns a
// degraded result with AnalysisFailed set, so the attempt can still reach a
// terminal state.
type AssessmentService interface {
	GenerateAssessment(ctx context.Context, c *model.SimulationCase, transcript dto.NormalizedTranscript) (*dto.AssessmentResult, dto.PromptPair)
}

type assessmentService struct {
	completionSvc CompletionService
}

func NewAssessmentService(completionSvc CompletionService) AssessmentService {
	return &assessmentService{completionSvc: completionSvc}
}

func (s *assessmentService) GenerateAssessment(ctx context.Context, c *model.SimulationCase, transcript dto.NormalizedTranscript) (*dto.AssessmentResult, dto.PromptPair) {
	prompts := dto.PromptPair{
		SystemPrompt: buildSystemPrompt(c),
		UserPrompt:   buildUserPrompt(transcript),
	}

	raw, err := s.completionSvc.Complete(ctx, prompts.SystemPrompt, prompts.UserPrompt)
	if err != nil {
		log.Error().Err(err).Uint("caseID", c.ID).Msg("Completion call failed, returning degraded assessment")
		return degradedResult(), prompts
	}

	payload, err := parseAssessmentPayload(raw)
	if err != nil {
		log.Error().Err(err).Uint("caseID", c.ID).Msg("Unparseable assessment response, returning degraded assessment")
		return degradedResult(), prompts
	}

	return aggregate(c, payload), prompts
}

func degradedResult() *dto.AssessmentResult {
	return &dto.AssessmentResult{
		OverallFeedback: fallbackFeedback,
		AnalysisFailed:  true,
	}
}

// aggregate computes per-domain points, the points-weighted overall score and
// the count-weighted classification. A criterion the model did not mention is
// treated as not met rather than failing the whole assessment.
func aggregate(c *model.SimulationCase, payload *llmAssessmentPayload) *dto.AssessmentResult {
	judgements := make(map[uint]llmCriterionJudgement, len(payload.Criteria))
	for _, j := range payload.Criteria {
		judgements[j.CriterionID] = j
	}

	result := &dto.AssessmentResult{
		OverallFeedback: payload.OverallFeedback,
		Domains:         make([]dto.DomainResult, 0, len(c.MarkingDomains)),
	}

	totalPoints := 0
	achievedPoints := 0
	totalCriteria := 0
	metCriteria := 0

	for _, d := range c.MarkingDomains {
		domainResult := dto.DomainResult{
			DomainID: d.ID,
			Name:     d.Name,
			Criteria: make([]dto.CriterionResult, 0, len(d.Criteria)),
		}

		for _, cr := range d.Criteria {
			j, judged := judgements[cr.ID]
			if !judged {
				log.Warn().Uint("criterionID", cr.ID).Uint("caseID", c.ID).
					Msg("Criterion missing from assessment response, treating as not met")
			}

			quotes := j.Quotes
			if len(quotes) > maxQuotesPerCriterion {
				quotes = quotes[:maxQuotesPerCriterion]
			}

			met := judged && j.Met
			domainResult.Criteria = append(domainResult.Criteria, dto.CriterionResult{
				CriterionID: cr.ID,
				Text:        cr.Text,
				Points:      cr.Points,
				Met:         met,
				Quotes:      quotes,
				Feedback:    j.Feedback,
			})

			domainResult.TotalPoints += cr.Points
			totalCriteria++
			if met {
				domainResult.AchievedPoints += cr.Points
				metCriteria++
			}
		}

		domainResult.Percentage = roundPercent(domainResult.AchievedPoints, domainResult.TotalPoints)
		totalPoints += domainResult.TotalPoints
		achievedPoints += domainResult.AchievedPoints
		result.Domains = append(result.Domains, domainResult)
	}

	result.OverallScore = roundPercent(achievedPoints, totalPoints)
	result.CriteriaMetPercent = roundPercent(metCriteria, totalCriteria)
	result.Classification = classify(metCriteria, totalCriteria)
	return result
}

// classify maps the exact fraction of criteria met onto one of the four
// bands. Bands are inclusive on their lower bound: 75% is still a borderline
// pass, 50% is a borderline pass, 25% is a borderline fail. This is
// deliberately count-weighted while the overall score is points-weighted; the
// two can diverge and that divergence is intended.
func classify(met, total int) string {
	if total == 0 {
		return dto.ClassificationClearFail
	}
	pct := float64(met) / float64(total) * 100
	switch {
	case pct > 75:
		return dto.ClassificationClearPass
	case pct >= 50:
		return dto.ClassificationBorderlinePass
	case pct >= 25:
		return dto.ClassificationBorderlineFail
	default:
		return dto.ClassificationClearFail
	}
}

func roundPercent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
