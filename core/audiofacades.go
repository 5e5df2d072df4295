package session

import (
	"context"

	"github.com/halcyonlabs/live-core/core/audio"
)

// audioCapture is the capture facade used to normalize optional wiring.
// Every operation is a no-op when no client is configured.
type audioCapture struct {
	client AudioCapture
}

func (c *audioCapture) set(client AudioCapture) {
	if c != nil {
		c.client = client
	}
}

func (c *audioCapture) isConfigured() bool {
	return c != nil && c.client != nil
}

func (c *audioCapture) Start(ctx context.Context, onChunk func(chunk []byte)) error {
	if !c.isConfigured() {
		return nil
	}
	return c.client.Start(ctx, onChunk)
}

func (c *audioCapture) Suspend() error {
	if !c.isConfigured() {
		return nil
	}
	return c.client.Suspend()
}

func (c *audioCapture) Resume() error {
	if !c.isConfigured() {
		return nil
	}
	return c.client.Resume()
}

func (c *audioCapture) Suspended() bool {
	return c.isConfigured() && c.client.Suspended()
}

func (c *audioCapture) Stop() error {
	if !c.isConfigured() {
		return nil
	}
	return c.client.Stop()
}

func (c *audioCapture) EncodingInfo() audio.EncodingInfo {
	if !c.isConfigured() {
		return audio.DefaultCaptureEncoding()
	}
	return c.client.EncodingInfo()
}

// audioPlayback is the playback facade. Every operation is a no-op when no
// client is configured.
type audioPlayback struct {
	client AudioPlayback
}

func (p *audioPlayback) set(client AudioPlayback) {
	if p != nil {
		p.client = client
	}
}

func (p *audioPlayback) isConfigured() bool {
	return p != nil && p.client != nil
}

func (p *audioPlayback) Start(ctx context.Context) error {
	if !p.isConfigured() {
		return nil
	}
	return p.client.Start(ctx)
}

func (p *audioPlayback) SendAudio(chunk []byte) error {
	if !p.isConfigured() {
		return nil
	}
	return p.client.SendAudio(chunk)
}

func (p *audioPlayback) Flush() {
	if !p.isConfigured() {
		return
	}
	p.client.Flush()
}

func (p *audioPlayback) Close() error {
	if !p.isConfigured() {
		return nil
	}
	return p.client.Close()
}
