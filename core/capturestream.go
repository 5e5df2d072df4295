package session

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"golang.org/x/image/draw"

	"github.com/halcyonlabs/live-core/core/events"
)

const (
	defaultFrameRate = 5
	minFrameRate     = 1
	maxFrameRate     = 10

	// maxFrameWidth bounds the transmitted frame size; larger frames are
	// downscaled preserving aspect ratio.
	maxFrameWidth = 1024

	jpegQuality = 70
)

// captureStream is one running camera or screen stream: a fixed-period
// timer that grabs, encodes and transmits frames until stopped or until the
// source or transport goes dead.
type captureStream struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *captureStream) stop() {
	s.cancel()
	<-s.done
}

func clampFrameRate(framesPerSecond int) int {
	if framesPerSecond < minFrameRate {
		return minFrameRate
	}
	if framesPerSecond > maxFrameRate {
		return maxFrameRate
	}
	return framesPerSecond
}

// StartCameraCapture begins streaming camera frames at the configured frame
// rate. Starting while already streaming is a no-op.
func (o *Orchestrator) StartCameraCapture(ctx context.Context) error {
	if o.cameraSource == nil {
		return newError(ErrorTypeConfiguration, "start camera capture",
			fmt.Errorf("no camera source configured"))
	}

	o.mu.Lock()
	if o.camera != nil {
		o.mu.Unlock()
		return nil
	}
	stream := o.newCaptureStream(o.cameraSource, func() { o.clearCamera() })
	o.camera = stream
	o.mu.Unlock()

	o.emitEvent(events.NewCameraStarted())
	return nil
}

// StopCameraCapture stops the camera stream. Idempotent.
func (o *Orchestrator) StopCameraCapture() {
	o.mu.Lock()
	stream := o.camera
	o.camera = nil
	o.mu.Unlock()

	if stream == nil {
		return
	}
	stream.stop()
	o.emitEvent(events.NewCameraStopped())
}

// StartScreenShare begins streaming screen frames. The source is probed
// synchronously first; a probe failure is surfaced as a denial rather than
// starting a stream that can never produce.
func (o *Orchestrator) StartScreenShare(ctx context.Context) error {
	if o.screenSource == nil {
		reason := "no screen source configured"
		o.emitEvent(events.NewScreenShareDenied(reason))
		return newError(ErrorTypeConfiguration, "start screen share", fmt.Errorf("%s", reason))
	}

	if _, err := o.screenSource.Frame(ctx); err != nil {
		o.emitEvent(events.NewScreenShareDenied(err.Error()))
		return newError(ErrorTypeCapture, "start screen share", err)
	}

	o.mu.Lock()
	if o.screen != nil {
		o.mu.Unlock()
		return nil
	}
	stream := o.newCaptureStream(o.screenSource, func() { o.clearScreen() })
	o.screen = stream
	o.mu.Unlock()

	o.emitEvent(events.NewScreenShareStarted())
	return nil
}

// StopScreenShare stops the screen stream. Idempotent.
func (o *Orchestrator) StopScreenShare() {
	o.mu.Lock()
	stream := o.screen
	o.screen = nil
	o.mu.Unlock()

	if stream == nil {
		return
	}
	stream.stop()
	o.emitEvent(events.NewScreenShareStopped())
}

func (o *Orchestrator) clearCamera() {
	o.mu.Lock()
	if o.camera != nil {
		o.camera = nil
		o.mu.Unlock()
		o.emitEvent(events.NewCameraStopped())
		return
	}
	o.mu.Unlock()
}

func (o *Orchestrator) clearScreen() {
	o.mu.Lock()
	if o.screen != nil {
		o.screen = nil
		o.mu.Unlock()
		o.emitEvent(events.NewScreenShareStopped())
		return
	}
	o.mu.Unlock()
}

// newCaptureStream spawns the timer loop. onDead runs when the stream
// self-cancels because the source or transport went dead, so state flags
// do not keep pointing at a stopped stream.
func (o *Orchestrator) newCaptureStream(source FrameSource, onDead func()) *captureStream {
	streamCtx, cancel := context.WithCancel(o.baseContext)
	stream := &captureStream{cancel: cancel, done: make(chan struct{})}

	interval := time.Second / time.Duration(clampFrameRate(o.frameRate))

	go func() {
		defer close(stream.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-streamCtx.Done():
				return
			case <-ticker.C:
				if err := o.captureAndSendFrame(streamCtx, source); err != nil {
					// A dead source or transport; ticking against a dead
					// pipe helps nobody.
					cancel()
					go onDead()
					return
				}
			}
		}
	}()

	return stream
}

func (o *Orchestrator) captureAndSendFrame(ctx context.Context, source FrameSource) error {
	frame, err := source.Frame(ctx)
	if err != nil {
		return fmt.Errorf("frame source failed: %w", err)
	}

	encoded, err := encodeFrame(frame)
	if err != nil {
		o.emitEvent(events.NewSessionError(string(ErrorTypeCapture), err.Error()))
		return err
	}

	if err := o.transport.SendImage(encoded); err != nil {
		return fmt.Errorf("failed to transmit frame: %w", err)
	}
	return nil
}

// encodeFrame downscales a frame to the transmission bound and encodes it
// as JPEG.
func encodeFrame(frame image.Image) ([]byte, error) {
	frame = scaleFrame(frame, maxFrameWidth)

	var buffer bytes.Buffer
	if err := jpeg.Encode(&buffer, frame, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buffer.Bytes(), nil
}

func scaleFrame(frame image.Image, maxWidth int) image.Image {
	bounds := frame.Bounds()
	if bounds.Dx() <= maxWidth {
		return frame
	}

	height := bounds.Dy() * maxWidth / bounds.Dx()
	scaled := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), frame, bounds, draw.Over, nil)
	return scaled
}
