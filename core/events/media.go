package events

const (
	// KindCameraStarted identifies camera capture starting.
	KindCameraStarted Kind = "media.camera_started"
	// KindCameraStopped identifies camera capture stopping.
	KindCameraStopped Kind = "media.camera_stopped"
	// KindScreenShareStarted identifies screen capture starting.
	KindScreenShareStarted Kind = "media.screenshare_started"
	// KindScreenShareStopped identifies screen capture stopping.
	KindScreenShareStopped Kind = "media.screenshare_stopped"
	// KindScreenShareDenied identifies a refused screen capture request.
	KindScreenShareDenied Kind = "media.screenshare_denied"
	// KindRecordingStarted identifies microphone capture starting.
	KindRecordingStarted Kind = "media.recording_started"
	// KindRecordingStopped identifies microphone capture stopping.
	KindRecordingStopped Kind = "media.recording_stopped"
	// KindMicSuspended identifies the cheap mute path pausing capture.
	KindMicSuspended Kind = "media.mic_suspended"
	// KindMicResumed identifies capture resuming from suspension.
	KindMicResumed Kind = "media.mic_resumed"
)

// CameraStarted marks camera frame streaming starting.
type CameraStarted struct{ Base }

// NewCameraStarted creates a camera started event.
func NewCameraStarted() CameraStarted { return CameraStarted{Base: NewBase(KindCameraStarted)} }

// CameraStopped marks camera frame streaming stopping.
type CameraStopped struct{ Base }

// NewCameraStopped creates a camera stopped event.
func NewCameraStopped() CameraStopped { return CameraStopped{Base: NewBase(KindCameraStopped)} }

// ScreenShareStarted marks screen frame streaming starting.
type ScreenShareStarted struct{ Base }

// NewScreenShareStarted creates a screen share started event.
func NewScreenShareStarted() ScreenShareStarted {
	return ScreenShareStarted{Base: NewBase(KindScreenShareStarted)}
}

// ScreenShareStopped marks screen frame streaming stopping.
type ScreenShareStopped struct{ Base }

// NewScreenShareStopped creates a screen share stopped event.
func NewScreenShareStopped() ScreenShareStopped {
	return ScreenShareStopped{Base: NewBase(KindScreenShareStopped)}
}

// ScreenShareDenied marks a screen capture request refused by the platform
// or the user.
type ScreenShareDenied struct {
	Base
	Reason string
}

// NewScreenShareDenied creates a screen share denied event.
func NewScreenShareDenied(reason string) ScreenShareDenied {
	return ScreenShareDenied{Base: NewBase(KindScreenShareDenied), Reason: reason}
}

// RecordingStarted marks microphone capture starting.
type RecordingStarted struct{ Base }

// NewRecordingStarted creates a recording started event.
func NewRecordingStarted() RecordingStarted {
	return RecordingStarted{Base: NewBase(KindRecordingStarted)}
}

// RecordingStopped marks microphone capture stopping.
type RecordingStopped struct{ Base }

// NewRecordingStopped creates a recording stopped event.
func NewRecordingStopped() RecordingStopped {
	return RecordingStopped{Base: NewBase(KindRecordingStopped)}
}

// MicSuspended marks capture pausing while the device stays reserved.
type MicSuspended struct{ Base }

// NewMicSuspended creates a mic suspended event.
func NewMicSuspended() MicSuspended { return MicSuspended{Base: NewBase(KindMicSuspended)} }

// MicResumed marks capture resuming from suspension.
type MicResumed struct{ Base }

// NewMicResumed creates a mic resumed event.
func NewMicResumed() MicResumed { return MicResumed{Base: NewBase(KindMicResumed)} }
