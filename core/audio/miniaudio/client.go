// Package miniaudio provides the default capture and playback backends on
// top of malgo. Capture and playback each own their device and audio
// context so one can be torn down without touching the other.
package miniaudio

import (
	"fmt"

	"github.com/gen2brain/malgo"
)

func acquireContext() (*malgo.AllocatedContext, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) {},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	return audioCtx, nil
}

func releaseContext(audioCtx *malgo.AllocatedContext) {
	if audioCtx == nil {
		return
	}
	_ = audioCtx.Uninit()
	audioCtx.Free()
}
