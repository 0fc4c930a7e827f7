package service

import (
	"testing"
	"time"

	"github.com/MHGanainy/mvp-backend-sub001/internal/dto"
)

func baseTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2026-03-01T10:00:00Z")
	return t
}

func utterance(role, text string, seq int, offset time.Duration) dto.RawUtterance {
	// RFC3339Nano keeps sub-second offsets; the plain RFC3339 layout would
	// truncate them and silently shift gaps onto whole-second boundaries.
	return dto.RawUtterance{
		Role:      role,
		Text:      text,
		Sequence:  seq,
		Timestamp: baseTime().Add(offset).Format(time.RFC3339Nano),
	}
}

func TestNormalize_MergesFragmentedSentence(t *testing.T) {
	raw := dto.RawTranscript{Utterances: []dto.RawUtterance{
		utterance(dto.RoleUser, "What is.", 1, 0),
		utterance(dto.RoleUser, "your name?", 2, 500*time.Millisecond),
	}}

	got := NewTranscriptService().Normalize(raw)

	if got.MessageCount != 1 {
		t.Fatalf("expected 1 merged message, got %d", got.MessageCount)
	}
	if got.Messages[0].Text != "What is your name?" {
		t.Errorf("expected merged sentence, got %q", got.Messages[0].Text)
	}
	if got.Messages[0].Speaker != dto.SpeakerDoctor {
		t.Errorf("expected speaker %q, got %q", dto.SpeakerDoctor, got.Messages[0].Speaker)
	}
}

func TestNormalize_ShortCapitalizedFragments(t *testing.T) {
	raw := dto.RawTranscript{Utterances: []dto.RawUtterance{
		utterance(dto.RoleUser, "What is.", 1, 0),
		utterance(dto.RoleUser, "Your.", 2, 600*time.Millisecond),
		utterance(dto.RoleUser, "Name?", 3, 1200*time.Millisecond),
	}}

	got := NewTranscriptService().Normalize(raw)

	if got.MessageCount != 1 {
		t.Fatalf("expected 1 merged message, got %d", got.MessageCount)
	}
	if got.Messages[0].Text != "What is your name?" {
		t.Errorf("expected merged sentence, got %q", got.Messages[0].Text)
	}
}

func TestNormalize_CompleteSentencesKeepTerminators(t *testing.T) {
	raw := dto.RawTranscript{Utterances: []dto.RawUtterance{
		utterance(dto.RoleAssistant, "I have a headache.", 1, 0),
		utterance(dto.RoleAssistant, "It started yesterday.", 2, time.Second),
	}}

	got := NewTranscriptService().Normalize(raw)

	if got.MessageCount != 1 {
		t.Fatalf("expected 1 merged message, got %d", got.MessageCount)
	}
	if got.Messages[0].Text != "I have a headache. It started yesterday." {
		t.Errorf("expected sentence join without dropped terminator, got %q", got.Messages[0].Text)
	}
	if got.Messages[0].Speaker != dto.SpeakerPatient {
		t.Errorf("expected speaker %q, got %q", dto.SpeakerPatient, got.Messages[0].Speaker)
	}
}

func TestNormalize_SpeakerChangeBreaksMerge(t *testing.T) {
	raw := dto.RawTranscript{Utterances: []dto.RawUtterance{
		utterance(dto.RoleUser, "How are you feeling?", 1, 0),
		utterance(dto.RoleAssistant, "Not great.", 2, 500*time.Millisecond),
		utterance(dto.RoleUser, "Tell me more.", 3, time.Second),
	}}

	got := NewTranscriptService().Normalize(raw)

	if got.MessageCount != 3 {
		t.Fatalf("expected 3 messages across speaker changes, got %d", got.MessageCount)
	}
}

func TestNormalize_GapBeyondWindowBreaksMerge(t *testing.T) {
	raw := dto.RawTranscript{Utterances: []dto.RawUtterance{
		utterance(dto.RoleUser, "Any allergies?", 1, 0),
		utterance(dto.RoleUser, "Any medication?", 2, 2500*time.Millisecond),
	}}

	got := NewTranscriptService().Normalize(raw)

	if got.MessageCount != 2 {
		t.Fatalf("expected 2 messages for gap beyond window, got %d", got.MessageCount)
	}
}

func TestNormalize_ExactWindowBoundaryMerges(t *testing.T) {
	raw := dto.RawTranscript{Utterances: []dto.RawUtterance{
		utterance(dto.RoleUser, "Does it hurt", 1, 0),
		utterance(dto.RoleUser, "when you breathe?", 2, 2*time.Second),
	}}

	got := NewTranscriptService().Normalize(raw)

	if got.MessageCount != 1 {
		t.Fatalf("expected merge at exact window boundary, got %d messages", got.MessageCount)
	}
	if got.Messages[0].Text != "Does it hurt when you breathe?" {
		t.Errorf("unexpected merged text %q", got.Messages[0].Text)
	}
}

func TestNormalize_SortsBySequence(t *testing.T) {
	raw := dto.RawTranscript{Utterances: []dto.RawUtterance{
		utterance(dto.RoleUser, "your name?", 2, 500*time.Millisecond),
		utterance(dto.RoleUser, "What is.", 1, 0),
	}}

	got := NewTranscriptService().Normalize(raw)

	if got.MessageCount != 1 {
		t.Fatalf("expected 1 message after sequence sort, got %d", got.MessageCount)
	}
	if got.Messages[0].Text != "What is your name?" {
		t.Errorf("expected sequence-ordered merge, got %q", got.Messages[0].Text)
	}
}

func TestNormalize_SkipsBlankUtterances(t *testing.T) {
	raw := dto.RawTranscript{Utterances: []dto.RawUtterance{
		utterance(dto.RoleUser, "   ", 1, 0),
		utterance(dto.RoleUser, "Hello.", 2, 500*time.Millisecond),
	}}

	got := NewTranscriptService().Normalize(raw)

	if got.MessageCount != 1 {
		t.Fatalf("expected blank utterance to be dropped, got %d messages", got.MessageCount)
	}
	if got.Messages[0].Text != "Hello." {
		t.Errorf("unexpected text %q", got.Messages[0].Text)
	}
}

func TestNormalize_MalformedTimestampNeverMerges(t *testing.T) {
	raw := dto.RawTranscript{Utterances: []dto.RawUtterance{
		utterance(dto.RoleUser, "What is.", 1, 0),
		{Role: dto.RoleUser, Text: "your name?", Sequence: 2, Timestamp: "not-a-time"},
	}}

	got := NewTranscriptService().Normalize(raw)

	if got.MessageCount != 2 {
		t.Fatalf("expected malformed timestamp to block merging, got %d messages", got.MessageCount)
	}
}

func TestNormalize_UnknownRolePassesThrough(t *testing.T) {
	raw := dto.RawTranscript{Utterances: []dto.RawUtterance{
		utterance("system", "Session started.", 1, 0),
	}}

	got := NewTranscriptService().Normalize(raw)

	if got.MessageCount != 1 {
		t.Fatalf("expected 1 message, got %d", got.MessageCount)
	}
	if got.Messages[0].Speaker != "system" {
		t.Errorf("unknown roles should pass through, got %q", got.Messages[0].Speaker)
	}
}

func TestNormalize_Duration(t *testing.T) {
	raw := dto.RawTranscript{Utterances: []dto.RawUtterance{
		utterance(dto.RoleUser, "Hello.", 1, 0),
		utterance(dto.RoleAssistant, "Hi.", 2, 30*time.Second),
		utterance(dto.RoleUser, "Goodbye.", 3, 95*time.Second),
	}}

	got := NewTranscriptService().Normalize(raw)

	if got.DurationSeconds != 95 {
		t.Errorf("expected 95s duration from first to last message, got %d", got.DurationSeconds)
	}
}

func TestNormalize_SingleMessageHasZeroDuration(t *testing.T) {
	raw := dto.RawTranscript{Utterances: []dto.RawUtterance{
		utterance(dto.RoleUser, "Hello.", 1, 0),
	}}

	got := NewTranscriptService().Normalize(raw)

	if got.DurationSeconds != 0 {
		t.Errorf("expected zero duration for a single message, got %d", got.DurationSeconds)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := dto.RawTranscript{Utterances: []dto.RawUtterance{
		utterance(dto.RoleUser, "What is.", 1, 0),
		utterance(dto.RoleUser, "your name?", 2, 500*time.Millisecond),
		utterance(dto.RoleAssistant, "My name is Sarah.", 3, 2*time.Second),
	}}

	svc := NewTranscriptService()
	first := svc.Normalize(raw)

	// Feeding the already-merged messages back through must not change them.
	again := dto.RawTranscript{}
	for i, m := range first.Messages {
		role := dto.RoleUser
		if m.Speaker == dto.SpeakerPatient {
			role = dto.RoleAssistant
		}
		again.Utterances = append(again.Utterances, dto.RawUtterance{
			Role:      role,
			Text:      m.Text,
			Sequence:  i + 1,
			Timestamp: m.Timestamp,
		})
	}
	second := svc.Normalize(again)

	if second.MessageCount != first.MessageCount {
		t.Fatalf("normalization not stable: %d then %d messages", first.MessageCount, second.MessageCount)
	}
	for i := range first.Messages {
		if second.Messages[i].Text != first.Messages[i].Text {
			t.Errorf("message %d changed on renormalization: %q vs %q", i, first.Messages[i].Text, second.Messages[i].Text)
		}
	}
}
