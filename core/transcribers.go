package session

import (
	"context"
	"fmt"

	"github.com/halcyonlabs/live-core/core/audio"
	"github.com/halcyonlabs/live-core/core/speechtotext"
)

// transcriberCallbacks route one transcription stream's results back into
// the orchestrator.
type transcriberCallbacks struct {
	onFinal         func(transcript string)
	onInterim       func(transcript string)
	onSpeechStarted func()
	onUtteranceEnd  func()
	onError         func(err error)
}

// transcriber is the speech-to-text facade used to handle optional client
// wiring. Every operation is a no-op when no client is configured.
type transcriber struct {
	client Transcriber
}

func (t *transcriber) set(client Transcriber) {
	if t != nil {
		t.client = client
	}
}

func (t *transcriber) isConfigured() bool {
	return t != nil && t.client != nil
}

func (t *transcriber) start(ctx context.Context, callbacks transcriberCallbacks, encoding audio.EncodingInfo) error {
	if !t.isConfigured() {
		return nil
	}

	transcriptionOptions := []speechtotext.TranscriptionOption{
		speechtotext.WithEncodingInfo(encoding),
		speechtotext.WithPunctuation(),
	}
	if callbacks.onFinal != nil {
		transcriptionOptions = append(transcriptionOptions,
			speechtotext.WithFinalTranscriptionCallback(callbacks.onFinal))
	}
	if callbacks.onInterim != nil {
		transcriptionOptions = append(transcriptionOptions,
			speechtotext.WithInterimTranscriptionCallback(callbacks.onInterim))
	}
	if callbacks.onSpeechStarted != nil {
		transcriptionOptions = append(transcriptionOptions,
			speechtotext.WithSpeechStartedCallback(callbacks.onSpeechStarted))
	}
	if callbacks.onUtteranceEnd != nil {
		transcriptionOptions = append(transcriptionOptions,
			speechtotext.WithUtteranceEndCallback(callbacks.onUtteranceEnd))
	}
	if callbacks.onError != nil {
		transcriptionOptions = append(transcriptionOptions,
			speechtotext.WithErrorCallback(callbacks.onError))
	}

	if err := t.client.Transcribe(ctx, transcriptionOptions...); err != nil {
		return fmt.Errorf("failed to start transcribing: %w", err)
	}
	return nil
}

func (t *transcriber) SendAudio(audioChunk []byte) error {
	if !t.isConfigured() {
		return nil
	}
	return t.client.SendAudio(audioChunk)
}

func (t *transcriber) Close(ctx context.Context) error {
	if !t.isConfigured() {
		return nil
	}
	if err := t.client.Close(ctx); err != nil {
		return fmt.Errorf("failed to close transcription client: %w", err)
	}
	return nil
}
