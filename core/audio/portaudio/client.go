// Package portaudio provides an alternative audio backend on top of
// PortAudio. Unlike the miniaudio backend it captures float samples and
// converts them to 16-bit PCM itself, and the caller drives the capture
// loop instead of a device callback.
package portaudio

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/halcyonlabs/live-core/core/audio"
)

type Client struct {
	bufferSize int
	stream     *portaudio.Stream
	encoding   audio.EncodingInfo

	in  []float32
	out []int16

	writeMu sync.Mutex
	chunker *audio.Chunker
}

// NewClient initializes PortAudio and opens the default full-duplex stream.
// The device may grant a different sample rate than requested; the granted
// rate is adopted and exposed via EncodingInfo.
func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]float32, bufferSize)
	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 1, float64(audio.DefaultCaptureSampleRate), bufferSize, in, out)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	grantedRate := int(stream.Info().SampleRate)
	if grantedRate == 0 {
		grantedRate = audio.DefaultCaptureSampleRate
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		encoding:   audio.EncodingInfo{SampleRate: grantedRate, Format: audio.FormatLinear16},
		in:         in,
		out:        out,
		chunker:    audio.NewChunker(bufferSize * 2),
	}, nil
}

// Stream starts the device and pumps converted PCM chunks to onAudio until
// the context is cancelled.
func (c *Client) Stream(ctx context.Context, onAudio func(chunk []byte)) error {
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return c.stream.Stop()
		default:
			if err := c.stream.Read(); err != nil {
				log.Printf("Failed to read from portaudio stream: %v", err)
				continue
			}
			onAudio(audio.Float32ToPCM16(c.in))
		}
	}
}

// SendAudio plays PCM by writing it to the stream one device buffer at a
// time. Trailing bytes that do not fill a buffer are held for the next call.
func (c *Client) SendAudio(chunk []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	var writeErr error
	c.chunker.Push(chunk, func(buffer []byte) {
		if writeErr != nil {
			return
		}
		for i := range c.out {
			c.out[i] = int16(uint16(buffer[i*2]) | uint16(buffer[i*2+1])<<8)
		}
		if err := c.stream.Write(); err != nil {
			writeErr = fmt.Errorf("failed to write to portaudio stream: %w", err)
		}
	})
	return writeErr
}

// Flush drops audio buffered for playback but not yet written.
func (c *Client) Flush() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.chunker.Reset()
}

// Close releases the stream and shuts PortAudio down.
func (c *Client) Close() {
	_ = c.stream.Close()
	_ = portaudio.Terminate()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return c.encoding
}
