package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MHGanainy/mvp-backend-sub001/config"
	"github.com/MHGanainy/mvp-backend-sub001/internal/dto"
	"github.com/rs/zerolog/log"
)

// StartSessionRequest seeds a realtime voice session for one attempt. The
// correlation token doubles as the room name, binding the attempt to the
// external session.
type StartSessionRequest struct {
	CorrelationToken string
	Identity         string
	CasePrompt       string
	OpeningLine      string
	Voice            *string
}

// VoiceSessionService is the boundary to the realtime voice orchestrator.
// Transcript persistence is a side effect of the session, handled by the
// orchestrator's agent outside this service.
type VoiceSessionService interface {
	StartSession(ctx context.Context, req StartSessionRequest) (*dto.SessionConnection, error)
	// EndSession is safe to call on an already-ended or unknown session; that
	// case is reported through the status string, never as an error.
	EndSession(ctx context.Context, correlationToken string) (string, error)
}

type voiceSessionService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewVoiceSessionService(cfg *config.Config) VoiceSessionService {
	if cfg.Voice.BaseURL == "" {
		log.Warn().Msg("VOICE_ORCHESTRATOR_URL is not set, voice session service will be non-functional")
	}
	return &voiceSessionService{
		baseURL: cfg.Voice.BaseURL,
		apiKey:  cfg.Voice.ApiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type startSessionPayload struct {
	RoomName    string  `json:"room_name"`
	Identity    string  `json:"identity"`
	CasePrompt  string  `json:"case_prompt"`
	OpeningLine string  `json:"opening_line,omitempty"`
	Voice       *string `json:"voice,omitempty"`
}

func (s *voiceSessionService) StartSession(ctx context.Context, req StartSessionRequest) (*dto.SessionConnection, error) {
	payload, err := json.Marshal(startSessionPayload{
		RoomName:    req.CorrelationToken,
		Identity:    req.Identity,
		CasePrompt:  req.CasePrompt,
		OpeningLine: req.OpeningLine,
		Voice:       req.Voice,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/sessions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		log.Error().Err(err).Str("correlationToken", req.CorrelationToken).Msg("Voice orchestrator start request failed")
		return nil, fmt.Errorf("voice orchestrator unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().Int("status", resp.StatusCode).Str("correlationToken", req.CorrelationToken).
			Str("body", string(body)).Msg("Voice orchestrator rejected session start")
		return nil, fmt.Errorf("voice orchestrator returned status %d", resp.StatusCode)
	}

	var conn dto.SessionConnection
	if err := json.Unmarshal(body, &conn); err != nil {
		return nil, fmt.Errorf("failed to decode session connection: %w", err)
	}
	if conn.RoomName == "" {
		conn.RoomName = req.CorrelationToken
	}

	log.Info().Str("correlationToken", req.CorrelationToken).Str("serverURL", conn.ServerURL).Msg("Voice session started")
	return &conn, nil
}

func (s *voiceSessionService) EndSession(ctx context.Context, correlationToken string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/v1/sessions/"+correlationToken, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build session end request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		log.Error().Err(err).Str("correlationToken", correlationToken).Msg("Voice orchestrator end request failed")
		return "", fmt.Errorf("voice orchestrator unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// Already ended or never existed. Soft outcome, not an error.
		log.Info().Str("correlationToken", correlationToken).Msg("Voice session already ended or unknown")
		return "not_found", nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		log.Info().Str("correlationToken", correlationToken).Msg("Voice session ended")
		return "ended", nil
	default:
		log.Error().Int("status", resp.StatusCode).Str("correlationToken", correlationToken).
			Msg("Voice orchestrator returned unexpected status on session end")
		return "", fmt.Errorf("voice orchestrator returned status %d", resp.StatusCode)
	}
}
