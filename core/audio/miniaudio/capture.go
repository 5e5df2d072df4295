package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/halcyonlabs/live-core/core/audio"
)

// CaptureClient records microphone audio and hands 16-bit PCM chunks to the
// sink passed to Start. The device runs its own processing clock; chunks
// arrive on malgo's callback goroutine, never on the caller's.
//
// Stop releases the hardware entirely. Suspend keeps the device reserved
// and only pauses its clock, which is the cheap path for a mute toggle.
type CaptureClient struct {
	requestedSampleRate int

	mu           sync.Mutex
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	encoding     audio.EncodingInfo
	suspended    bool
	onChunk      func(chunk []byte)
}

// CaptureOption configures a CaptureClient.
type CaptureOption func(*CaptureClient)

// WithCaptureSampleRate overrides the sample rate requested from the device.
func WithCaptureSampleRate(sampleRate int) CaptureOption {
	return func(c *CaptureClient) { c.requestedSampleRate = sampleRate }
}

func NewCaptureClient(opts ...CaptureOption) *CaptureClient {
	client := &CaptureClient{requestedSampleRate: audio.DefaultCaptureSampleRate}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Start acquires the audio context and capture device and begins emitting
// chunks to onChunk. Starting while already recording is a no-op. If any
// acquisition step fails, everything acquired before it is released before
// the error returns.
func (c *CaptureClient) Start(_ context.Context, onChunk func(chunk []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		return nil
	}

	audioCtx, err := acquireContext()
	if err != nil {
		return err
	}

	sampleRate := uint32(c.requestedSampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = sampleRate
	config.Capture.Format = format
	config.Capture.Channels = uint32(channels)
	config.Alsa.NoMMap = 1
	config.PerformanceProfile = malgo.LowLatency
	config.PeriodSizeInFrames = 480
	config.Periods = 3

	device, err := malgo.InitDevice(audioCtx.Context, config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}
			c.mu.Lock()
			sink := c.onChunk
			c.mu.Unlock()
			if sink != nil {
				sink(pInput[:n])
			}
		},
	})
	if err != nil {
		releaseContext(audioCtx)
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		releaseContext(audioCtx)
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	c.audioContext = audioCtx
	c.device = device
	c.onChunk = onChunk
	c.suspended = false
	// The device converts to the requested rate internally, so the granted
	// rate is the requested one.
	c.encoding = audio.EncodingInfo{SampleRate: c.requestedSampleRate, Format: audio.FormatLinear16}

	return nil
}

// Suspend pauses the device clock without releasing the hardware. No chunks
// emit until Resume. Suspending while not recording is a no-op.
func (c *CaptureClient) Suspend() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil || c.suspended {
		return nil
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to suspend capture device: %w", err)
	}
	c.suspended = true
	return nil
}

// Resume restarts a suspended device clock. Resuming while not suspended is
// a no-op.
func (c *CaptureClient) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil || !c.suspended {
		return nil
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to resume capture device: %w", err)
	}
	c.suspended = false
	return nil
}

// Suspended reports whether the device is reserved but paused.
func (c *CaptureClient) Suspended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device != nil && c.suspended
}

// Recording reports whether the device is held, suspended or not.
func (c *CaptureClient) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device != nil
}

// Stop releases the device and audio context. Idempotent.
func (c *CaptureClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return nil
	}

	c.device.Uninit()
	c.device = nil
	releaseContext(c.audioContext)
	c.audioContext = nil
	c.onChunk = nil
	c.suspended = false

	return nil
}

// EncodingInfo describes the chunks the client emits. Before the first
// Start it reflects the rate that will be requested.
func (c *CaptureClient) EncodingInfo() audio.EncodingInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.encoding.IsZero() {
		return audio.EncodingInfo{SampleRate: c.requestedSampleRate, Format: audio.FormatLinear16}
	}
	return c.encoding
}
