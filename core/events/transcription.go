package events

const (
	// KindAssistantTranscriptFinal identifies a final transcript of remote
	// synthesized audio.
	KindAssistantTranscriptFinal Kind = "transcription.assistant_final"
	// KindUserTranscriptFinal identifies a final transcript of local
	// microphone audio.
	KindUserTranscriptFinal Kind = "transcription.user_final"
	// KindUserTranscriptInterim identifies a display-only interim transcript.
	KindUserTranscriptInterim Kind = "transcription.user_interim"
	// KindUserSpeechStarted identifies detected start of user speech.
	KindUserSpeechStarted Kind = "transcription.user_speech_started"
	// KindUserUtteranceEnded identifies the end of a user utterance.
	KindUserUtteranceEnded Kind = "transcription.user_utterance_ended"
)

// AssistantTranscriptFinal carries a final transcript of the assistant's
// synthesized speech.
type AssistantTranscriptFinal struct {
	Base
	Transcript string
}

// NewAssistantTranscriptFinal creates a final assistant transcript event.
func NewAssistantTranscriptFinal(transcript string) AssistantTranscriptFinal {
	return AssistantTranscriptFinal{Base: NewBase(KindAssistantTranscriptFinal), Transcript: transcript}
}

// UserTranscriptFinal carries a final transcript of the user's speech.
type UserTranscriptFinal struct {
	Base
	Transcript string
}

// NewUserTranscriptFinal creates a final user transcript event.
func NewUserTranscriptFinal(transcript string) UserTranscriptFinal {
	return UserTranscriptFinal{Base: NewBase(KindUserTranscriptFinal), Transcript: transcript}
}

// UserTranscriptInterim carries a mutable interim transcript snapshot.
// Display-only: it must never trigger message submission or any other
// downstream side effect.
type UserTranscriptInterim struct {
	Base
	Transcript string
}

// NewUserTranscriptInterim creates an interim user transcript event.
func NewUserTranscriptInterim(transcript string) UserTranscriptInterim {
	return UserTranscriptInterim{Base: NewBase(KindUserTranscriptInterim), Transcript: transcript}
}

// UserSpeechStarted marks detected start of user speech activity.
type UserSpeechStarted struct{ Base }

// NewUserSpeechStarted creates a user speech started event.
func NewUserSpeechStarted() UserSpeechStarted {
	return UserSpeechStarted{Base: NewBase(KindUserSpeechStarted)}
}

// UserUtteranceEnded marks the end of a user utterance.
type UserUtteranceEnded struct{ Base }

// NewUserUtteranceEnded creates a user utterance ended event.
func NewUserUtteranceEnded() UserUtteranceEnded {
	return UserUtteranceEnded{Base: NewBase(KindUserUtteranceEnded)}
}
