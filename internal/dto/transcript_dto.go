package dto

// Speaker tags on normalized transcript messages.
const (
	SpeakerDoctor  = "doctor"
	SpeakerPatient = "patient"
)

// Raw utterance roles as persisted by the voice agent.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// RawUtterance is one fragment of speech exactly as the realtime voice
// pipeline persisted it. The pipeline frequently splits a single spoken
// sentence across several utterances, which is why normalization exists.
type RawUtterance struct {
	Role      string `json:"role"` // "user" (the student) or "assistant" (the simulated patient)
	Text      string `json:"text"`
	Sequence  int    `json:"sequence"`
	Timestamp string `json:"timestamp"` // RFC3339; malformed values disable merging for that boundary
}

// RawTranscript is the payload the voice agent writes onto the attempt row.
type RawTranscript struct {
	Utterances []RawUtterance `json:"utterances"`
}

// TranscriptMessage is one merged, speaker-tagged message.
type TranscriptMessage struct {
	Speaker   string `json:"speaker"` // "doctor" or "patient"
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NormalizedTranscript is the cleaned conversation handed to the assessment
// engine.
type NormalizedTranscript struct {
	Messages        []TranscriptMessage `json:"messages"`
	DurationSeconds int                 `json:"duration_seconds"`
	MessageCount    int                 `json:"message_count"`
}
