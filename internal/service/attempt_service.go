package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MHGanainy/mvp-backend-sub001/internal/dto"
	"github.com/MHGanainy/mvp-backend-sub001/internal/model"
	"github.com/MHGanainy/mvp-backend-sub001/internal/repository"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Transcript polling: the orchestrator's agent writes the raw transcript onto
// the attempt row asynchronously, so completion re-reads the column a bounded
// number of times before giving up.
const (
	transcriptPollRetries = 5
	transcriptPollDelay   = time.Second
)

// AttemptService owns the attempt state machine: created -> in-progress ->
// completed | cancelled. Both end states are terminal: an ended attempt can
// only be read or deleted. Billing rules live in CreditService; the two
// multi-statement
// transactions (billed create, refunded delete) live in AttemptRepository.
type AttemptService interface {
	CreateAttempt(ctx context.Context, studentID uint, privileged bool, req dto.CreateAttemptRequest) (*dto.CreateAttemptResponse, error)
	CompleteAttempt(ctx context.Context, attemptID uint) (*dto.AttemptResponse, error)
	CancelAttempt(ctx context.Context, attemptID uint) (*dto.AttemptResponse, error)
	DeleteAttempt(ctx context.Context, attemptID uint, privileged bool) error
	GetAttempt(attemptID uint) (*dto.AttemptResponse, error)
	GetAttemptDebug(attemptID uint) (*dto.AttemptDebugResponse, error)
	ListAttempts(q dto.ListAttemptsQuery) ([]dto.AttemptResponse, error)
}

type attemptService struct {
	attemptRepo   repository.AttemptRepository
	studentRepo   repository.StudentRepository
	caseRepo      repository.CaseRepository
	creditSvc     CreditService
	transcriptSvc TranscriptService
	assessmentSvc AssessmentService
	voiceSvc      VoiceSessionService
	sleep         func(time.Duration)
	now           func() time.Time
}

func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	studentRepo repository.StudentRepository,
	caseRepo repository.CaseRepository,
	creditSvc CreditService,
	transcriptSvc TranscriptService,
	assessmentSvc AssessmentService,
	voiceSvc VoiceSessionService,
) AttemptService {
	return &attemptService{
		attemptRepo:   attemptRepo,
		studentRepo:   studentRepo,
		caseRepo:      caseRepo,
		creditSvc:     creditSvc,
		transcriptSvc: transcriptSvc,
		assessmentSvc: assessmentSvc,
		voiceSvc:      voiceSvc,
		sleep:         time.Sleep,
		now:           time.Now,
	}
}

func (s *attemptService) CreateAttempt(ctx context.Context, studentID uint, privileged bool, req dto.CreateAttemptRequest) (*dto.CreateAttemptResponse, error) {
	student, err := s.studentRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	simCase, err := s.caseRepo.FindByID(req.CaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	if err := s.creditSvc.VerifyEligibility(student, simCase, privileged); err != nil {
		return nil, err
	}

	attempt := model.Attempt{
		StudentID:        student.ID,
		CaseID:           simCase.ID,
		CorrelationToken: uuid.NewString(),
		StartedAt:        s.now(),
	}

	debit := s.creditSvc.DebitAmount(simCase, privileged)
	if err := s.attemptRepo.CreateBilled(&attempt, debit); err != nil {
		log.Error().Err(err).Uint("studentID", student.ID).Uint("caseID", simCase.ID).Msg("Failed to create billed attempt")
		return nil, err
	}

	conn, err := s.voiceSvc.StartSession(ctx, StartSessionRequest{
		CorrelationToken: attempt.CorrelationToken,
		Identity:         fmt.Sprintf("student-%d", student.ID),
		CasePrompt:       simCase.CasePrompt,
		OpeningLine:      simCase.OpeningLine,
		Voice:            req.Voice,
	})
	if err != nil {
		// Creation and billing are one unit: no billed attempt may survive a
		// failed session start, so compensate before surfacing the failure.
		log.Error().Err(err).Str("correlationToken", attempt.CorrelationToken).Msg("Session start failed, rolling back attempt and billing")
		if rollbackErr := s.attemptRepo.DeleteWithRefund(&attempt, debit); rollbackErr != nil {
			log.Error().Err(rollbackErr).Str("correlationToken", attempt.CorrelationToken).Msg("Failed to roll back billed attempt after session start failure")
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionStartFailed, err)
	}

	resp := buildAttemptResponse(&attempt)
	resp.CaseTitle = simCase.Title
	log.Info().Uint("attemptID", attempt.ID).Str("correlationToken", attempt.CorrelationToken).
		Int("debited", debit).Bool("privileged", privileged).Msg("Attempt created and voice session opened")
	return &dto.CreateAttemptResponse{Attempt: resp, Connection: *conn}, nil
}

func (s *attemptService) CompleteAttempt(ctx context.Context, attemptID uint) (*dto.AttemptResponse, error) {
	attempt, err := s.attemptRepo.FindByIDWithCase(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.Completed {
		return nil, ErrAttemptAlreadyCompleted
	}
	if attempt.EndedAt != nil {
		return nil, ErrAttemptAlreadyEnded
	}

	if _, err := s.voiceSvc.EndSession(ctx, attempt.CorrelationToken); err != nil {
		// End is idempotent on the orchestrator side; a transport failure here
		// must not block completion, the transcript poll decides the outcome.
		log.Error().Err(err).Str("correlationToken", attempt.CorrelationToken).Msg("Failed to end voice session, continuing with transcript poll")
	}

	raw, rawTranscript, err := s.pollTranscript(attempt.ID, attempt.CorrelationToken)
	if err != nil {
		// Attempt stays non-terminal so completion can be retried later.
		return nil, err
	}

	normalized := s.transcriptSvc.Normalize(*rawTranscript)
	result, prompts := s.assessmentSvc.GenerateAssessment(ctx, &attempt.Case, normalized)

	assessmentJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode assessment: %w", err)
	}
	assessment := string(assessmentJSON)

	endedAt := s.now()
	duration := int(endedAt.Sub(attempt.StartedAt).Seconds())
	attempt.EndedAt = &endedAt
	attempt.DurationSeconds = &duration
	attempt.Completed = true
	attempt.RawTranscript = raw
	attempt.Assessment = &assessment
	attempt.SystemPrompt = &prompts.SystemPrompt
	attempt.UserPrompt = &prompts.UserPrompt
	if !result.AnalysisFailed {
		score := result.OverallScore
		attempt.Score = &score
	}

	if err := s.attemptRepo.Update(attempt); err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to persist completed attempt")
		return nil, err
	}

	log.Info().Uint("attemptID", attempt.ID).Str("correlationToken", attempt.CorrelationToken).
		Bool("analysisFailed", result.AnalysisFailed).Int("messages", normalized.MessageCount).
		Msg("Attempt completed")
	resp := buildAttemptResponse(attempt)
	return &resp, nil
}

func (s *attemptService) CancelAttempt(ctx context.Context, attemptID uint) (*dto.AttemptResponse, error) {
	attempt, err := s.attemptRepo.FindByIDWithCase(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.Completed {
		return nil, ErrAttemptAlreadyCompleted
	}
	if attempt.EndedAt != nil {
		return nil, ErrAttemptAlreadyEnded
	}

	if _, err := s.voiceSvc.EndSession(ctx, attempt.CorrelationToken); err != nil {
		log.Error().Err(err).Str("correlationToken", attempt.CorrelationToken).Msg("Failed to end voice session during cancel")
	}

	// Best effort: keep whatever transcript the provider managed to write.
	raw, err := s.attemptRepo.GetRawTranscript(attempt.ID)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to read transcript during cancel")
		raw = nil
	}
	if raw != nil && *raw != "" {
		var rawTranscript dto.RawTranscript
		if err := json.Unmarshal([]byte(*raw), &rawTranscript); err != nil {
			log.Warn().Err(err).Uint("attemptID", attempt.ID).Msg("Partial transcript is not parseable, keeping raw payload")
		} else {
			log.Info().Uint("attemptID", attempt.ID).Int("utterances", len(rawTranscript.Utterances)).Msg("Partial transcript retained on cancel")
		}
		attempt.RawTranscript = raw
	}

	markerJSON, err := json.Marshal(dto.CancelledMarker{Status: "cancelled"})
	if err != nil {
		return nil, fmt.Errorf("failed to encode cancellation marker: %w", err)
	}
	marker := string(markerJSON)

	endedAt := s.now()
	duration := int(endedAt.Sub(attempt.StartedAt).Seconds())
	attempt.EndedAt = &endedAt
	attempt.DurationSeconds = &duration
	attempt.Assessment = &marker

	if err := s.attemptRepo.Update(attempt); err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to persist cancelled attempt")
		return nil, err
	}

	log.Info().Uint("attemptID", attempt.ID).Str("correlationToken", attempt.CorrelationToken).Msg("Attempt cancelled")
	resp := buildAttemptResponse(attempt)
	return &resp, nil
}

func (s *attemptService) DeleteAttempt(ctx context.Context, attemptID uint, privileged bool) error {
	attempt, err := s.attemptRepo.FindByIDWithCase(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAttemptNotFound
		}
		return err
	}

	if attempt.EndedAt == nil {
		if _, err := s.voiceSvc.EndSession(ctx, attempt.CorrelationToken); err != nil {
			log.Error().Err(err).Str("correlationToken", attempt.CorrelationToken).Msg("Failed to end voice session during delete")
		}
	}

	refund := s.creditSvc.RefundAmount(attempt, &attempt.Case, privileged)
	if err := s.attemptRepo.DeleteWithRefund(attempt, refund); err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to delete attempt")
		return err
	}

	log.Info().Uint("attemptID", attempt.ID).Int("refunded", refund).Msg("Attempt deleted")
	return nil
}

func (s *attemptService) GetAttempt(attemptID uint) (*dto.AttemptResponse, error) {
	attempt, err := s.attemptRepo.FindByIDWithCase(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	resp := buildAttemptResponse(attempt)
	return &resp, nil
}

func (s *attemptService) GetAttemptDebug(attemptID uint) (*dto.AttemptDebugResponse, error) {
	attempt, err := s.attemptRepo.FindByIDWithCase(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return &dto.AttemptDebugResponse{
		AttemptResponse: buildAttemptResponse(attempt),
		SystemPrompt:    attempt.SystemPrompt,
		UserPrompt:      attempt.UserPrompt,
	}, nil
}

func (s *attemptService) ListAttempts(q dto.ListAttemptsQuery) ([]dto.AttemptResponse, error) {
	attempts, err := s.attemptRepo.FindAll(q)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list attempts")
		return nil, err
	}
	resps := make([]dto.AttemptResponse, 0, len(attempts))
	for i := range attempts {
		resps = append(resps, buildAttemptResponse(&attempts[i]))
	}
	return resps, nil
}

// pollTranscript re-reads the attempt's transcript column until the voice
// agent's asynchronous write lands or the retry budget runs out.
func (s *attemptService) pollTranscript(attemptID uint, correlationToken string) (*string, *dto.RawTranscript, error) {
	for i := 0; i < transcriptPollRetries; i++ {
		if i > 0 {
			s.sleep(transcriptPollDelay)
		}

		raw, err := s.attemptRepo.GetRawTranscript(attemptID)
		if err != nil {
			log.Error().Err(err).Uint("attemptID", attemptID).Str("correlationToken", correlationToken).Msg("Transcript read failed")
			continue
		}
		if raw == nil || *raw == "" {
			continue
		}

		var rawTranscript dto.RawTranscript
		if err := json.Unmarshal([]byte(*raw), &rawTranscript); err != nil {
			log.Error().Err(err).Uint("attemptID", attemptID).Str("correlationToken", correlationToken).Msg("Persisted transcript is not parseable")
			continue
		}
		return raw, &rawTranscript, nil
	}

	log.Warn().Uint("attemptID", attemptID).Str("correlationToken", correlationToken).
		Int("retries", transcriptPollRetries).Msg("Transcript still absent after polling")
	return nil, nil, ErrTranscriptUnavailable
}

func buildAttemptResponse(a *model.Attempt) dto.AttemptResponse {
	var resp dto.AttemptResponse
	copier.Copy(&resp, a)
	if a.Case.ID != 0 {
		resp.CaseTitle = a.Case.Title
	}
	if a.Assessment != nil {
		resp.Assessment = json.RawMessage(*a.Assessment)
	}
	if a.RawTranscript != nil {
		resp.RawTranscript = json.RawMessage(*a.RawTranscript)
	}
	return resp
}
