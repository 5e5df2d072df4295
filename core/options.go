package session

import (
	"context"
	"encoding/json"
	"image"

	"github.com/halcyonlabs/live-core/core/audio"
	"github.com/halcyonlabs/live-core/core/speechtotext"
	"github.com/halcyonlabs/live-core/core/tools"
	"github.com/halcyonlabs/live-core/core/transport"
)

type OrchestratorOption func(*Orchestrator)

// Transport is the primary duplex client the orchestrator drives. It
// exclusively owns the socket handle; the orchestrator only ever goes
// through these operations.
type Transport interface {
	Connect(ctx context.Context) error
	Close() error
	IsConnected() bool
	SendText(text string, endOfTurn bool) error
	SendRealtimeAudio(pcm []byte) error
	SendImage(jpegData []byte) error
	SendToolResponse(results ...tools.Result) error
}

// TransportFactory builds the transport from the finalized session config
// and the orchestrator's callbacks.
type TransportFactory func(config transport.SessionConfig, callbacks transport.Callbacks) (Transport, error)

// WithTransportFactory replaces how the transport is constructed. The
// default builds the gemini client with credentials from the environment.
func WithTransportFactory(factory TransportFactory) OrchestratorOption {
	return func(o *Orchestrator) { o.transportFactory = factory }
}

// AudioCapture records microphone audio. Suspend pauses emission while
// keeping the device reserved; Stop releases the hardware.
type AudioCapture interface {
	Start(ctx context.Context, onChunk func(chunk []byte)) error
	Suspend() error
	Resume() error
	Suspended() bool
	Stop() error
	EncodingInfo() audio.EncodingInfo
}

func WithCaptureClient(client AudioCapture) OrchestratorOption {
	return func(o *Orchestrator) { o.capture.set(client) }
}

// AudioPlayback plays buffered PCM from the remote peer. Flush drops
// whatever has not been played yet.
type AudioPlayback interface {
	Start(ctx context.Context) error
	SendAudio(chunk []byte) error
	Flush()
	Close() error
}

func WithPlaybackClient(client AudioPlayback) OrchestratorOption {
	return func(o *Orchestrator) { o.playback.set(client) }
}

// Transcriber is a secondary duplex speech-to-text client.
type Transcriber interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
	Close(ctx context.Context) error
}

// WithUserTranscriber transcribes local microphone audio.
func WithUserTranscriber(client Transcriber) OrchestratorOption {
	return func(o *Orchestrator) { o.userTranscriber.set(client) }
}

// WithAssistantTranscriber transcribes synthesized remote audio.
func WithAssistantTranscriber(client Transcriber) OrchestratorOption {
	return func(o *Orchestrator) { o.assistantTranscriber.set(client) }
}

// WithCapability registers a named tool capability. Its declaration is
// advertised in the session setup frame.
func WithCapability(name string, capability tools.Capability) OrchestratorOption {
	return func(o *Orchestrator) { o.dispatcher.Register(name, capability) }
}

// FrameSource produces frames for a camera or screen capture stream. An
// error from Frame marks the source inactive and self-cancels the stream.
type FrameSource interface {
	Frame(ctx context.Context) (image.Image, error)
}

func WithCameraSource(source FrameSource) OrchestratorOption {
	return func(o *Orchestrator) { o.cameraSource = source }
}

func WithScreenSource(source FrameSource) OrchestratorOption {
	return func(o *Orchestrator) { o.screenSource = source }
}

// WithFrameRate sets the capture stream frame rate in frames per second,
// clamped to [1, 10].
func WithFrameRate(framesPerSecond int) OrchestratorOption {
	return func(o *Orchestrator) { o.frameRate = framesPerSecond }
}

// OrchestrateOptions hold the callbacks collaborators register through
// Orchestrate. Every callback is optional.
type OrchestrateOptions struct {
	onResponse          func(segment string)
	onTurnComplete      func(text string)
	onInterrupted       func(text string)
	onAudio             func(audio []byte)
	onUnhandledPart     func(raw json.RawMessage)
	onTranscription     func(transcript string)
	onUserTranscription func(transcript string)
	// onInterimUserTranscription receives display-only interim results.
	onInterimUserTranscription func(transcript string)
	onSpeakingStateChanged     func(isSpeaking bool)
	onConnected                func()
	onReady                    func()
	onDisconnected             func(code int, reason string)
	onError                    func(errorType string, details string)
	onCameraStateChanged       func(started bool)
	onScreenShareStateChanged  func(started bool)
	onScreenShareDenied        func(reason string)
	onRecordingStateChanged    func(recording bool)
	onMicSuspendedChanged      func(suspended bool)
}

type OrchestrateOption func(*OrchestrateOptions)

// WithResponseCallback receives each streamed model text segment.
func WithResponseCallback(callback func(segment string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onResponse = callback }
}

// WithTurnCompleteCallback receives the full utterance once a turn ends.
func WithTurnCompleteCallback(callback func(text string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onTurnComplete = callback }
}

// WithInterruptedCallback receives the partial utterance that was cut off.
func WithInterruptedCallback(callback func(text string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onInterrupted = callback }
}

// WithAudioCallback receives synthesized PCM as it arrives.
func WithAudioCallback(callback func(audio []byte)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onAudio = callback }
}

// WithUnhandledPartCallback receives content parts the transport does not
// recognize, raw, for forward compatibility.
func WithUnhandledPartCallback(callback func(raw json.RawMessage)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onUnhandledPart = callback }
}

// WithTranscriptionCallback receives final transcripts of assistant audio.
func WithTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onTranscription = callback }
}

// WithUserTranscriptionCallback receives final transcripts of user audio.
func WithUserTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onUserTranscription = callback }
}

// WithInterimUserTranscriptionCallback receives non-final transcripts. They
// are display-only and must not trigger downstream behavior.
func WithInterimUserTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onInterimUserTranscription = callback }
}

func WithSpeakingStateChangedCallback(callback func(isSpeaking bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onSpeakingStateChanged = callback }
}

func WithConnectedCallback(callback func()) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onConnected = callback }
}

func WithReadyCallback(callback func()) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onReady = callback }
}

// WithDisconnectedCallback fires only for unexpected closures, never for a
// requested disconnect.
func WithDisconnectedCallback(callback func(code int, reason string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onDisconnected = callback }
}

func WithErrorCallback(callback func(errorType string, details string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onError = callback }
}

func WithCameraStateChangedCallback(callback func(started bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onCameraStateChanged = callback }
}

func WithScreenShareStateChangedCallback(callback func(started bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onScreenShareStateChanged = callback }
}

func WithScreenShareDeniedCallback(callback func(reason string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onScreenShareDenied = callback }
}

func WithRecordingStateChangedCallback(callback func(recording bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onRecordingStateChanged = callback }
}

func WithMicSuspendedChangedCallback(callback func(suspended bool)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onMicSuspendedChanged = callback }
}
