package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/halcyonlabs/live-core/core/audio"
)

// PlaybackClient plays buffered 16-bit PCM. SendAudio appends to an internal
// buffer that the device drains on its own clock; Flush drops whatever has
// not been played yet, which is how an interruption cuts off stale audio.
type PlaybackClient struct {
	sampleRate int

	mu           sync.Mutex
	audioContext *malgo.AllocatedContext
	device       *malgo.Device

	audioMu sync.Mutex
	pending []byte
}

// PlaybackOption configures a PlaybackClient.
type PlaybackOption func(*PlaybackClient)

// WithPlaybackSampleRate sets the rate buffered audio is played at.
func WithPlaybackSampleRate(sampleRate int) PlaybackOption {
	return func(c *PlaybackClient) { c.sampleRate = sampleRate }
}

func NewPlaybackClient(opts ...PlaybackOption) *PlaybackClient {
	client := &PlaybackClient{sampleRate: audio.DefaultPlaybackSampleRate}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Start acquires the audio context and playback device. Starting while
// already running is a no-op; partial acquisition is rolled back on failure.
func (c *PlaybackClient) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		return nil
	}

	audioCtx, err := acquireContext()
	if err != nil {
		return err
	}

	sampleRate := uint32(c.sampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = sampleRate
	config.Playback.Format = format
	config.Playback.Channels = uint32(channels)
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	config.Periods = 4

	device, err := malgo.InitDevice(
		audioCtx.Context,
		config,
		malgo.DeviceCallbacks{Data: c.processAudio(bytesPerFrame)},
	)
	if err != nil {
		releaseContext(audioCtx)
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		releaseContext(audioCtx)
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	c.audioContext = audioCtx
	c.device = device

	return nil
}

// SendAudio appends one PCM chunk to the playback buffer.
func (c *PlaybackClient) SendAudio(chunk []byte) error {
	c.mu.Lock()
	device := c.device
	c.mu.Unlock()
	if device == nil {
		return fmt.Errorf("playback device not started")
	}

	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.pending = append(c.pending, chunk...)
	return nil
}

// Flush drops all buffered audio that has not reached the device yet.
func (c *PlaybackClient) Flush() {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	c.pending = nil
}

// Close releases the device and audio context. Idempotent.
func (c *PlaybackClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return nil
	}

	c.device.Uninit()
	c.device = nil
	releaseContext(c.audioContext)
	c.audioContext = nil

	c.Flush()
	return nil
}

// EncodingInfo describes the PCM the client expects from SendAudio.
func (c *PlaybackClient) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{SampleRate: c.sampleRate, Format: audio.FormatLinear16}
}

func (c *PlaybackClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		c.audioMu.Lock()
		defer c.audioMu.Unlock()

		if len(c.pending) == 0 {
			return
		}

		if len(c.pending) < need {
			copy(pOutput, c.pending)
			c.pending = nil
			return
		}

		copy(pOutput, c.pending[:need])
		c.pending = c.pending[need:]
	}
}
