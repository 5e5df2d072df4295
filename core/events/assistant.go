package events

import "encoding/json"

const (
	// KindAssistantTextSegment identifies a streamed response text chunk.
	KindAssistantTextSegment Kind = "assistant.text_segment"
	// KindAssistantTurnCompleted identifies a completed model turn.
	KindAssistantTurnCompleted Kind = "assistant.turn_completed"
	// KindAssistantInterrupted identifies a turn cut short by the remote.
	KindAssistantInterrupted Kind = "assistant.interrupted"
	// KindAssistantAudioFrame identifies a synthesized speech audio frame.
	KindAssistantAudioFrame Kind = "assistant.audio_frame"
	// KindAssistantUnhandledPart identifies a content part the client does
	// not recognize; forwarded rather than dropped for forward compatibility.
	KindAssistantUnhandledPart Kind = "assistant.unhandled_part"
)

// AssistantTextSegment carries one streamed response text chunk.
type AssistantTextSegment struct {
	Base
	Segment string
}

// NewAssistantTextSegment creates a streamed text segment event.
func NewAssistantTextSegment(segment string) AssistantTextSegment {
	return AssistantTextSegment{Base: NewBase(KindAssistantTextSegment), Segment: segment}
}

// AssistantTurnCompleted carries the full accumulated text of the turn that
// just finished streaming.
type AssistantTurnCompleted struct {
	Base
	Text string
}

// NewAssistantTurnCompleted creates a turn completed event.
func NewAssistantTurnCompleted(text string) AssistantTurnCompleted {
	return AssistantTurnCompleted{Base: NewBase(KindAssistantTurnCompleted), Text: text}
}

// AssistantInterrupted marks the remote invalidating the in-flight turn.
// Carries whatever text had accumulated before the interruption.
type AssistantInterrupted struct {
	Base
	Text string
}

// NewAssistantInterrupted creates an interruption event.
func NewAssistantInterrupted(text string) AssistantInterrupted {
	return AssistantInterrupted{Base: NewBase(KindAssistantInterrupted), Text: text}
}

// AssistantAudioFrame carries decoded PCM16 synthesized by the remote.
type AssistantAudioFrame struct {
	Base
	Audio      []byte
	SampleRate int
}

// NewAssistantAudioFrame creates a synthesized audio frame event.
func NewAssistantAudioFrame(audio []byte, sampleRate int) AssistantAudioFrame {
	return AssistantAudioFrame{Base: NewBase(KindAssistantAudioFrame), Audio: audio, SampleRate: sampleRate}
}

// AssistantUnhandledPart carries the raw JSON of an unrecognized content
// part so collaborators can decide what to do with it.
type AssistantUnhandledPart struct {
	Base
	Raw json.RawMessage
}

// NewAssistantUnhandledPart creates an unhandled part event.
func NewAssistantUnhandledPart(raw json.RawMessage) AssistantUnhandledPart {
	return AssistantUnhandledPart{Base: NewBase(KindAssistantUnhandledPart), Raw: raw}
}
