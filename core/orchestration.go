// Package session composes the duplex transport, audio pipelines, capture
// streams, transcription clients and the tool dispatcher behind one state
// machine and a small public API.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/halcyonlabs/live-core/core/audio"
	"github.com/halcyonlabs/live-core/core/events"
	"github.com/halcyonlabs/live-core/core/tools"
	"github.com/halcyonlabs/live-core/core/transport"
	"github.com/halcyonlabs/live-core/core/transport/gemini"
)

// inflight is the shared outcome of one in-flight operation. Re-entrant
// calls attach to it and observe the same result instead of duplicating the
// work.
type inflight struct {
	once sync.Once
	err  error
	done chan struct{}
}

func newInflight() *inflight { return &inflight{done: make(chan struct{})} }

func (f *inflight) finish(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

func (f *inflight) wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Orchestrator is the single source of truth for session state. It owns the
// transport handle indirectly through the Transport operations and never
// touches the socket itself.
type Orchestrator struct {
	config           transport.SessionConfig
	transportFactory TransportFactory

	transport            Transport
	capture              audioCapture
	playback             audioPlayback
	userTranscriber      transcriber
	assistantTranscriber transcriber
	dispatcher           *tools.Dispatcher

	cameraSource FrameSource
	screenSource FrameSource
	frameRate    int

	emitEvent          eventEmitter
	orchestrateOptions OrchestrateOptions
	baseContext        context.Context

	mu               sync.Mutex
	state            State
	connectFlight    *inflight
	initializeFlight *inflight
	disconnecting    bool
	micStarted       bool
	camera           *captureStream
	screen           *captureStream

	utterance streamingUtterance

	toolMu       sync.Mutex
	runningTools map[string]context.CancelFunc
}

// NewOrchestrator validates the session config, registers capabilities, and
// constructs the transport with the aggregated tool declarations advertised
// in its setup frame.
func NewOrchestrator(config transport.SessionConfig, opts ...OrchestratorOption) (*Orchestrator, error) {
	o := &Orchestrator{
		config:       config,
		dispatcher:   tools.NewDispatcher(),
		frameRate:    defaultFrameRate,
		emitEvent:    noopEventEmitter,
		baseContext:  context.Background(),
		state:        StateDisconnected,
		runningTools: map[string]context.CancelFunc{},
	}
	o.transportFactory = func(config transport.SessionConfig, callbacks transport.Callbacks) (Transport, error) {
		return gemini.NewClient(config, gemini.WithCallbacks(callbacks))
	}

	for _, opt := range opts {
		opt(o)
	}

	o.config.Tools = append(o.config.Tools, o.dispatcher.Declarations()...)

	transportClient, err := o.transportFactory(o.config, o.transportCallbacks())
	if err != nil {
		return nil, newError(ErrorTypeConfiguration, "new orchestrator", err)
	}
	o.transport = transportClient

	return o, nil
}

// Orchestrate registers collaborator callbacks and the base context used
// for event delivery and tool calls.
//
// Contract: call Orchestrate before Connect and at most once per
// orchestrator instance; reconfiguring callbacks mid-session races with
// event delivery.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) {
	o.orchestrateOptions = OrchestrateOptions{}
	for _, opt := range opts {
		opt(&o.orchestrateOptions)
	}

	o.baseContext = ctx
	o.emitEvent = newCallbackEventEmitter(o.orchestrateOptions)
}

// State returns the current session state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// IsRecording reports whether the microphone is held and not suspended.
func (o *Orchestrator) IsRecording() bool {
	o.mu.Lock()
	micStarted := o.micStarted
	o.mu.Unlock()
	return micStarted && !o.capture.Suspended()
}

// Connect opens the transport and completes its handshake. Re-entrant calls
// attach to the in-flight attempt and observe the same outcome.
func (o *Orchestrator) Connect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "connect session")
	defer span.End()

	o.mu.Lock()
	switch o.state {
	case StateConnected, StateInitializing, StateReady:
		o.mu.Unlock()
		return nil
	}
	if o.connectFlight != nil {
		flight := o.connectFlight
		o.mu.Unlock()
		return flight.wait(ctx)
	}
	flight := newInflight()
	o.connectFlight = flight
	o.state = StateConnecting
	o.mu.Unlock()

	err := o.transport.Connect(ctx)

	o.mu.Lock()
	o.connectFlight = nil
	// A disconnect that raced this attempt owns the state; its outcome is
	// not overwritten here.
	superseded := o.disconnecting || o.state == StateDisconnected
	if !superseded {
		if err != nil {
			o.state = StateFailed
		} else {
			o.state = StateConnected
		}
	}
	o.mu.Unlock()

	if err != nil {
		sessionErr := newError(ErrorTypeTransport, "connect", err)
		span.RecordError(sessionErr)
		span.SetStatus(codes.Error, sessionErr.Error())
		flight.finish(sessionErr)
		return sessionErr
	}

	flight.finish(nil)
	if !superseded {
		o.emitEvent(events.NewSessionConnected())
	}
	return nil
}

// Initialize brings the local pipelines up: playback first, then the
// optional transcribers. Requires a connected session; re-entrant calls
// attach to the in-flight attempt. On failure everything started by this
// call is torn back down and the session stays Connected.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "initialize session")
	defer span.End()

	o.mu.Lock()
	if o.state == StateReady {
		o.mu.Unlock()
		return nil
	}
	if o.initializeFlight != nil {
		flight := o.initializeFlight
		o.mu.Unlock()
		return flight.wait(ctx)
	}
	if o.state != StateConnected {
		state := o.state
		o.mu.Unlock()
		return newError(ErrorTypeConfiguration, "initialize",
			fmt.Errorf("initialize requires a connected session, state is %s", state))
	}
	flight := newInflight()
	o.initializeFlight = flight
	o.state = StateInitializing
	o.mu.Unlock()

	err := o.initializePipelines(ctx)

	o.mu.Lock()
	o.initializeFlight = nil
	if err != nil {
		o.state = StateConnected
	} else {
		o.state = StateReady
	}
	o.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		flight.finish(err)
		return err
	}

	flight.finish(nil)
	o.emitEvent(events.NewSessionReady())
	return nil
}

func (o *Orchestrator) initializePipelines(ctx context.Context) error {
	if err := o.playback.Start(ctx); err != nil {
		return newError(ErrorTypeCapture, "start playback", err)
	}

	if err := o.userTranscriber.start(ctx, transcriberCallbacks{
		onFinal: func(transcript string) {
			o.emitEvent(events.NewUserTranscriptFinal(transcript))
		},
		onInterim: func(transcript string) {
			o.emitEvent(events.NewUserTranscriptInterim(transcript))
		},
		onSpeechStarted: func() { o.emitEvent(events.NewUserSpeechStarted()) },
		onUtteranceEnd:  func() { o.emitEvent(events.NewUserUtteranceEnded()) },
		onError: func(err error) {
			o.emitEvent(events.NewSessionError(string(ErrorTypeTransport), err.Error()))
		},
	}, o.capture.EncodingInfo()); err != nil {
		_ = o.playback.Close()
		return newError(ErrorTypeTransport, "start user transcription", err)
	}

	if err := o.assistantTranscriber.start(ctx, transcriberCallbacks{
		onFinal: func(transcript string) {
			o.emitEvent(events.NewAssistantTranscriptFinal(transcript))
		},
		onError: func(err error) {
			o.emitEvent(events.NewSessionError(string(ErrorTypeTransport), err.Error()))
		},
	}, audio.DefaultPlaybackEncoding()); err != nil {
		_ = o.userTranscriber.Close(ctx)
		_ = o.playback.Close()
		return newError(ErrorTypeTransport, "start assistant transcription", err)
	}

	return nil
}

// Disconnect tears the session down in order: media capture first so no new
// frames enter a dying pipe, then the transport, then local audio and
// transcription, then the state flags. Idempotent from any state; a
// disconnect already in progress makes concurrent calls no-ops.
func (o *Orchestrator) Disconnect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "disconnect session")
	defer span.End()

	o.mu.Lock()
	if o.state == StateDisconnected || o.disconnecting {
		o.mu.Unlock()
		return nil
	}
	o.disconnecting = true
	o.state = StateDisconnecting
	o.mu.Unlock()

	o.teardown(ctx, span, true)

	o.mu.Lock()
	o.state = StateDisconnected
	o.disconnecting = false
	o.mu.Unlock()

	return nil
}

// handleUnexpectedDisconnect runs the same ordered cleanup as Disconnect
// when the transport reports an unexpected closure, then surfaces the
// closure to collaborators.
func (o *Orchestrator) handleUnexpectedDisconnect(code int, reason string) {
	ctx, span := tracer.Start(o.baseContext, "handle unexpected disconnect")
	defer span.End()

	o.mu.Lock()
	if o.state == StateDisconnected || o.disconnecting {
		o.mu.Unlock()
		return
	}
	o.disconnecting = true
	o.state = StateDisconnecting
	o.mu.Unlock()

	o.teardown(ctx, span, false)

	o.mu.Lock()
	o.state = StateDisconnected
	o.disconnecting = false
	o.mu.Unlock()

	o.emitEvent(events.NewSessionDisconnected(code, reason))
}

func (o *Orchestrator) teardown(ctx context.Context, span trace.Span, severTransport bool) {
	o.mu.Lock()
	camera := o.camera
	screen := o.screen
	o.camera = nil
	o.screen = nil
	micStarted := o.micStarted
	o.micStarted = false
	o.mu.Unlock()

	if camera != nil {
		camera.stop()
		o.emitEvent(events.NewCameraStopped())
	}
	if screen != nil {
		screen.stop()
		o.emitEvent(events.NewScreenShareStopped())
	}

	if severTransport {
		if err := o.transport.Close(); err != nil {
			recordedErr := fmt.Errorf("failed to close transport: %w", err)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}
	}

	if err := o.capture.Stop(); err != nil {
		recordedErr := fmt.Errorf("failed to stop audio capture: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
	}
	if micStarted {
		o.emitEvent(events.NewRecordingStopped())
	}

	o.playback.Flush()
	if err := o.playback.Close(); err != nil {
		recordedErr := fmt.Errorf("failed to close audio playback: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
	}

	if err := o.userTranscriber.Close(ctx); err != nil {
		recordedErr := fmt.Errorf("failed to close user transcriber: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
	}
	if err := o.assistantTranscriber.Close(ctx); err != nil {
		recordedErr := fmt.Errorf("failed to close assistant transcriber: %w", err)
		span.RecordError(recordedErr)
		span.SetStatus(codes.Error, recordedErr.Error())
	}

	o.utterance.reset()
}

// SendText submits one user text turn. Fails immediately when the transport
// is not connected; there is no queueing.
func (o *Orchestrator) SendText(ctx context.Context, text string) error {
	_, span := tracer.Start(ctx, "send text")
	defer span.End()

	if err := o.transport.SendText(text, true); err != nil {
		sessionErr := newError(ErrorTypeTransport, "send text", err)
		span.RecordError(sessionErr)
		span.SetStatus(codes.Error, sessionErr.Error())
		return sessionErr
	}
	return nil
}

// ToggleMic drives the microphone through start, suspend and resume. The
// first toggle acquires the device; later toggles flip between suspended
// and resumed without releasing the hardware.
func (o *Orchestrator) ToggleMic(ctx context.Context) error {
	o.mu.Lock()
	micStarted := o.micStarted
	o.mu.Unlock()

	if !micStarted {
		if !o.capture.isConfigured() {
			return newError(ErrorTypeConfiguration, "toggle mic",
				fmt.Errorf("no capture client configured"))
		}
		if err := o.capture.Start(ctx, o.handleCaptureChunk); err != nil {
			return newError(ErrorTypeCapture, "start capture", err)
		}
		o.mu.Lock()
		o.micStarted = true
		o.mu.Unlock()
		o.emitEvent(events.NewRecordingStarted())
		return nil
	}

	if o.capture.Suspended() {
		if err := o.capture.Resume(); err != nil {
			return newError(ErrorTypeCapture, "resume capture", err)
		}
		o.emitEvent(events.NewMicResumed())
		return nil
	}

	if err := o.capture.Suspend(); err != nil {
		return newError(ErrorTypeCapture, "suspend capture", err)
	}
	o.emitEvent(events.NewMicSuspended())
	return nil
}

// handleCaptureChunk fans one microphone chunk out to the transport and the
// user transcriber. Chunks arriving while the transport is down are dropped;
// capture keeps running.
func (o *Orchestrator) handleCaptureChunk(chunk []byte) {
	_ = o.transport.SendRealtimeAudio(chunk)
	if err := o.userTranscriber.SendAudio(chunk); err != nil {
		log.Printf("Failed to forward capture chunk to transcriber: %v", err)
	}
}

func (o *Orchestrator) transportCallbacks() transport.Callbacks {
	return transport.Callbacks{
		OnText: func(text string) {
			o.utterance.append(text)
			o.emitEvent(events.NewAssistantTextSegment(text))
		},
		OnAudio: func(pcm []byte) {
			if err := o.playback.SendAudio(pcm); err != nil {
				log.Printf("Failed to buffer assistant audio: %v", err)
			}
			if err := o.assistantTranscriber.SendAudio(pcm); err != nil {
				log.Printf("Failed to forward assistant audio to transcriber: %v", err)
			}
			o.emitEvent(events.NewAssistantAudioFrame(pcm, audio.DefaultPlaybackSampleRate))
		},
		OnInterrupted: func() {
			// The remote is signaling prior streamed audio is now invalid
			// context; stale audio must not continue playing.
			o.playback.Flush()
			o.emitEvent(events.NewAssistantInterrupted(o.utterance.reset()))
		},
		OnTurnComplete: func() {
			o.emitEvent(events.NewAssistantTurnCompleted(o.utterance.reset()))
		},
		OnToolCall: func(invocations []tools.Invocation) {
			go o.handleToolCall(invocations)
		},
		OnToolCallCancellation: func(ids []string) {
			o.cancelToolInvocations(ids)
		},
		OnUnhandledPart: func(raw json.RawMessage) {
			o.emitEvent(events.NewAssistantUnhandledPart(raw))
		},
		OnDisconnected: func(code int, reason string) {
			go o.handleUnexpectedDisconnect(code, reason)
		},
		OnProtocolError: func(err error) {
			o.emitEvent(events.NewSessionError(string(ErrorTypeProtocol), err.Error()))
		},
	}
}
