package deepgram

import (
	"testing"

	"github.com/halcyonlabs/live-core/core/audio"
	"github.com/halcyonlabs/live-core/core/speechtotext"
)

func TestProcessMessageRoutesFinalResultsOnly(t *testing.T) {
	client := NewTranscriptionClient()

	var finals []string
	var interims []string
	options := speechtotext.TranscriptionOptions{
		FinalTranscriptionCallback:   func(transcript string) { finals = append(finals, transcript) },
		InterimTranscriptionCallback: func(transcript string) { interims = append(interims, transcript) },
	}

	client.processMessage([]byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"hel"}]}}`), options)
	client.processMessage([]byte(`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":" hello "}]}}`), options)

	if len(finals) != 1 || finals[0] != "hello" {
		t.Fatalf("expected one trimmed final transcript, got %v", finals)
	}
	if len(interims) != 1 || interims[0] != "hel" {
		t.Fatalf("expected one interim transcript, got %v", interims)
	}
}

func TestProcessMessageInterimNeverReachesFinalCallback(t *testing.T) {
	client := NewTranscriptionClient()

	var finals []string
	options := speechtotext.TranscriptionOptions{
		FinalTranscriptionCallback: func(transcript string) { finals = append(finals, transcript) },
	}

	client.processMessage([]byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"partial"}]}}`), options)

	if len(finals) != 0 {
		t.Fatalf("expected interim results to never reach the final callback, got %v", finals)
	}
}

func TestProcessMessageIgnoresEmptyTranscripts(t *testing.T) {
	client := NewTranscriptionClient()

	called := false
	options := speechtotext.TranscriptionOptions{
		FinalTranscriptionCallback: func(string) { called = true },
	}

	client.processMessage([]byte(`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"  "}]}}`), options)

	if called {
		t.Fatalf("expected whitespace-only transcripts to be dropped")
	}
}

func TestProcessMessageDispatchesSpeechEvents(t *testing.T) {
	client := NewTranscriptionClient()

	speechStarted := 0
	utteranceEnded := 0
	options := speechtotext.TranscriptionOptions{
		SpeechStartedCallback: func() { speechStarted++ },
		UtteranceEndCallback:  func() { utteranceEnded++ },
	}

	client.processMessage([]byte(`{"type":"SpeechStarted"}`), options)
	client.processMessage([]byte(`{"type":"UtteranceEnd"}`), options)
	client.processMessage([]byte(`{"type":"Metadata"}`), options)

	if speechStarted != 1 {
		t.Fatalf("expected one speech started dispatch, got %d", speechStarted)
	}
	if utteranceEnded != 1 {
		t.Fatalf("expected one utterance end dispatch, got %d", utteranceEnded)
	}
}

func TestProcessMessageSurfacesRemoteErrors(t *testing.T) {
	client := NewTranscriptionClient()

	var errs []error
	options := speechtotext.TranscriptionOptions{
		ErrorCallback: func(err error) { errs = append(errs, err) },
	}

	client.processMessage([]byte(`{"type":"Error","message":"DATA-0000","description":"unparseable audio"}`), options)

	if len(errs) != 1 {
		t.Fatalf("expected one surfaced error, got %d", len(errs))
	}
}

func TestConvertEncodingRejectsUnsupportedRates(t *testing.T) {
	if _, err := convertEncoding(audio.EncodingInfo{SampleRate: 44100, Format: audio.FormatLinear16}); err == nil {
		t.Fatalf("expected an unsupported sample rate to be rejected")
	}
	converted, err := convertEncoding(audio.EncodingInfo{SampleRate: 16000, Format: audio.FormatLinear16})
	if err != nil {
		t.Fatalf("expected 16000 to be supported, got %v", err)
	}
	if converted.Format != encodingLinear16 || converted.SampleRate != 16000 {
		t.Fatalf("unexpected conversion result: %+v", converted)
	}
}
