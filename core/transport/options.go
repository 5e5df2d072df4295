// Package transport defines the configuration and callback contract shared
// by duplex transport clients for the primary session protocol.
package transport

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/halcyonlabs/live-core/core/tools"
)

// Modality is a response modality requested from the remote model.
type Modality string

const (
	ModalityText  Modality = "TEXT"
	ModalityAudio Modality = "AUDIO"
)

// SessionConfig is the session setup advertised to the remote service in the
// opening handshake frame.
type SessionConfig struct {
	Model              string
	SystemInstruction  string
	ResponseModalities []Modality
	Tools              []tools.Declaration
}

// Validate reports configuration problems before any socket opens.
func (c SessionConfig) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("session config: model must not be empty")
	}
	for _, modality := range c.ResponseModalities {
		switch modality {
		case ModalityText, ModalityAudio:
		default:
			return fmt.Errorf("session config: unknown response modality %q", modality)
		}
	}
	return nil
}

// SessionConfigOption mutates a SessionConfig under construction.
type SessionConfigOption func(*SessionConfig)

// NewSessionConfig builds a config with audio-first defaults.
func NewSessionConfig(model string, opts ...SessionConfigOption) SessionConfig {
	config := SessionConfig{
		Model:              model,
		ResponseModalities: []Modality{ModalityAudio},
	}
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

func WithSystemInstruction(instruction string) SessionConfigOption {
	return func(c *SessionConfig) { c.SystemInstruction = instruction }
}

func WithResponseModalities(modalities ...Modality) SessionConfigOption {
	return func(c *SessionConfig) { c.ResponseModalities = modalities }
}

func WithToolDeclarations(declarations ...tools.Declaration) SessionConfigOption {
	return func(c *SessionConfig) { c.Tools = declarations }
}

// Callbacks is the one-directional event surface a transport client
// dispatches inbound frames to. The owner registers callbacks at client
// construction; the client never holds a reference back to its owner.
type Callbacks struct {
	// OnText receives one streamed model text chunk.
	OnText func(text string)
	// OnAudio receives decoded PCM from an inline audio part.
	OnAudio func(pcm []byte)
	// OnInterrupted signals that previously streamed output is now invalid
	// context and any buffered playback should be flushed.
	OnInterrupted func()
	// OnTurnComplete signals the end of the current model turn.
	OnTurnComplete func()
	// OnToolCall delivers the invocations of one toolCall frame.
	OnToolCall func(invocations []tools.Invocation)
	// OnToolCallCancellation delivers ids of invocations the remote no
	// longer wants answered.
	OnToolCallCancellation func(ids []string)
	// OnUnhandledPart receives content parts the client does not recognize.
	OnUnhandledPart func(raw json.RawMessage)
	// OnDisconnected reports an unexpected closure observed while connected.
	OnDisconnected func(code int, reason string)
	// OnProtocolError reports unparseable or malformed inbound frames.
	// Non-fatal: the read loop keeps going.
	OnProtocolError func(err error)
}
