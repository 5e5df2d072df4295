// Package speechtotext defines the option and callback contract for
// streaming transcription clients.
package speechtotext

import "github.com/halcyonlabs/live-core/core/audio"

// TranscriptionOptions configure one transcription stream. Only final
// results are meant to drive downstream behavior; interim results, when
// enabled, are display-only.
type TranscriptionOptions struct {
	// FinalTranscriptionCallback receives results flagged final.
	FinalTranscriptionCallback func(transcript string)
	// InterimTranscriptionCallback receives non-final results. Setting it
	// enables interim results on the stream.
	InterimTranscriptionCallback func(transcript string)

	SpeechStartedCallback func()
	UtteranceEndCallback  func()
	// ErrorCallback receives remote error frames and stream failures.
	ErrorCallback func(err error)

	EncodingInfo audio.EncodingInfo

	Model         string
	Language      string
	Punctuate     bool
	EndpointingMs int
}

// TranscriptionOption mutates TranscriptionOptions under construction.
type TranscriptionOption func(*TranscriptionOptions)

func WithFinalTranscriptionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) { o.FinalTranscriptionCallback = callback }
}

func WithInterimTranscriptionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) { o.InterimTranscriptionCallback = callback }
}

func WithSpeechStartedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) { o.SpeechStartedCallback = callback }
}

func WithUtteranceEndCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) { o.UtteranceEndCallback = callback }
}

func WithErrorCallback(callback func(err error)) TranscriptionOption {
	return func(o *TranscriptionOptions) { o.ErrorCallback = callback }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) { o.EncodingInfo = encodingInfo }
}

func WithModel(model string) TranscriptionOption {
	return func(o *TranscriptionOptions) { o.Model = model }
}

func WithLanguage(language string) TranscriptionOption {
	return func(o *TranscriptionOptions) { o.Language = language }
}

func WithPunctuation() TranscriptionOption {
	return func(o *TranscriptionOptions) { o.Punctuate = true }
}

func WithEndpointing(milliseconds int) TranscriptionOption {
	return func(o *TranscriptionOptions) { o.EndpointingMs = milliseconds }
}
