package service

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/MHGanainy/mvp-backend-sub001/internal/dto"
	"github.com/rs/zerolog/log"
)

// mergeWindow is the maximum gap between two utterances of the same speaker
// for them to be treated as fragments of one sentence.
const mergeWindow = 2000 * time.Millisecond

// shortFragmentMax bounds what counts as a "short single-token fragment" for
// the continuation rule, e.g. "Your." or "Name.".
const shortFragmentMax = 12

// TranscriptService turns the fragmented utterance stream persisted by the
// voice pipeline into a clean, speaker-tagged message sequence. The upstream
// pipeline regularly splits one spoken sentence into several utterances
// ("What is." / "Your." / "Name."); without merging, per-sentence quotation
// matching in the assessment engine becomes unreliable.
type TranscriptService interface {
	Normalize(raw dto.RawTranscript) dto.NormalizedTranscript
}

type transcriptService struct{}

func NewTranscriptService() TranscriptService {
	return &transcriptService{}
}

func (s *transcriptService) Normalize(raw dto.RawTranscript) dto.NormalizedTranscript {
	utterances := make([]dto.RawUtterance, len(raw.Utterances))
	copy(utterances, raw.Utterances)
	sort.SliceStable(utterances, func(i, j int) bool {
		return utterances[i].Sequence < utterances[j].Sequence
	})

	var messages []dto.TranscriptMessage
	var prevRole string
	var prevTime time.Time
	var prevTimeOK bool

	for _, u := range utterances {
		text := strings.TrimSpace(u.Text)
		if text == "" {
			continue
		}

		ts, tsErr := time.Parse(time.RFC3339, u.Timestamp)
		tsOK := tsErr == nil
		if !tsOK {
			log.Warn().Str("timestamp", u.Timestamp).Int("sequence", u.Sequence).
				Msg("Unparseable utterance timestamp, treating as outside merge window")
		}

		if len(messages) > 0 && u.Role == prevRole && withinWindow(prevTime, prevTimeOK, ts, tsOK) {
			last := &messages[len(messages)-1]
			last.Text = joinFragments(last.Text, text)
		} else {
			messages = append(messages, dto.TranscriptMessage{
				Speaker:   speakerFor(u.Role),
				Text:      text,
				Timestamp: u.Timestamp,
			})
		}

		prevRole = u.Role
		prevTime = ts
		prevTimeOK = tsOK
	}

	return dto.NormalizedTranscript{
		Messages:        messages,
		DurationSeconds: transcriptDuration(messages),
		MessageCount:    len(messages),
	}
}

func speakerFor(role string) string {
	switch role {
	case dto.RoleUser:
		return dto.SpeakerDoctor
	case dto.RoleAssistant:
		return dto.SpeakerPatient
	default:
		return role
	}
}

func withinWindow(prev time.Time, prevOK bool, cur time.Time, curOK bool) bool {
	if !prevOK || !curOK {
		return false
	}
	gap := cur.Sub(prev)
	return gap >= 0 && gap <= mergeWindow
}

// joinFragments concatenates a new fragment onto accumulated text. When the
// accumulated text ends mid-sentence the fragment is simply appended. When it
// ends with a terminator, a lowercase fragment or a short capitalized token is
// treated as a continuation of the same sentence (the spurious terminator is
// dropped); anything else starts a new sentence.
func joinFragments(acc, frag string) string {
	if !endsWithTerminator(acc) {
		return acc + " " + frag
	}
	switch {
	case startsLower(frag):
		return dropTerminator(acc) + " " + frag
	case isShortCapitalizedToken(frag):
		return dropTerminator(acc) + " " + lowerFirst(frag)
	default:
		return acc + " " + frag
	}
}

func endsWithTerminator(s string) bool {
	if s == "" {
		return false
	}
	return strings.ContainsRune(".!?", rune(s[len(s)-1]))
}

func dropTerminator(s string) string {
	return strings.TrimRight(s, ".!?")
}

func startsLower(s string) bool {
	for _, r := range s {
		return unicode.IsLower(r)
	}
	return false
}

// isShortCapitalizedToken reports whether the fragment is a single capitalized
// word (optionally carrying its own terminator), the typical shape of a
// mid-sentence fragment the pipeline promoted to its own utterance.
func isShortCapitalizedToken(s string) bool {
	word := dropTerminator(s)
	if word == "" || strings.ContainsAny(word, " \t") {
		return false
	}
	if len(word) > shortFragmentMax {
		return false
	}
	for _, r := range word {
		return unicode.IsUpper(r)
	}
	return false
}

func lowerFirst(s string) string {
	for i, r := range s {
		return string(unicode.ToLower(r)) + s[i+len(string(r)):]
	}
	return s
}

func transcriptDuration(messages []dto.TranscriptMessage) int {
	if len(messages) < 2 {
		return 0
	}
	first, errFirst := time.Parse(time.RFC3339, messages[0].Timestamp)
	last, errLast := time.Parse(time.RFC3339, messages[len(messages)-1].Timestamp)
	if errFirst != nil || errLast != nil {
		return 0
	}
	d := int(last.Sub(first).Seconds())
	if d < 0 {
		return 0
	}
	return d
}
